package entity

// SourceKind откуда получено изображение
type SourceKind string

const (
	SourceFile      SourceKind = "file"
	SourceLiveFrame SourceKind = "live_frame"
)

// Frame кадр с устройства в формате RGBA (stride = 4*Width).
type Frame struct {
	Pix    []uint8
	Width  int
	Height int
}

// CapturedImage изображение, готовое к отправке.
type CapturedImage struct {
	Source   SourceKind
	Data     []byte
	MimeType string
	Width    int // > 0
	Height   int // > 0
}

// Valid проверяет инвариант размеров и наличие данных.
func (c *CapturedImage) Valid() bool {
	return c != nil && len(c.Data) > 0 && c.Width > 0 && c.Height > 0
}
