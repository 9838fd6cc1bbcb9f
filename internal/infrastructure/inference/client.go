package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"freshscan/internal/domain/entity"
	"freshscan/internal/domain/port"
	"freshscan/internal/httpc"
)

const (
	// FileField имя поля multipart с изображением
	FileField = "file"

	maxResponseBytes    = 8 << 20
	genericErrorMessage = "An error occurred"
)

// Client отправляет изображения на эндпоинты сервиса распознавания.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient создаёт клиент. Если httpClient == nil, используется httpc.NewClient с таймаутом по умолчанию.
func NewClient(baseURL string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = httpc.NewClient(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log.Named("inference"),
	}
}

// Upload выполняет один multipart POST на эндпоинт модуля. Повторов нет.
func (c *Client) Upload(ctx context.Context, module entity.Module, img *entity.CapturedImage) (json.RawMessage, error) {
	if !img.Valid() {
		return nil, entity.ErrNoImage
	}

	body, contentType, err := multipartBody(img)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+module.EndpointPath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	log := c.log.With(zap.String("module", string(module.ID)), zap.String("endpoint", module.EndpointPath))
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("upload failed", zap.Error(err))
		return nil, &entity.NetworkError{Endpoint: module.EndpointPath, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("read response failed", zap.Error(err))
		return nil, &entity.NetworkError{Endpoint: module.EndpointPath, Err: err}
	}

	log.Info("upload finished",
		zap.Int("status", resp.StatusCode),
		zap.Int("request_bytes", len(img.Data)),
		zap.Int("response_bytes", len(data)),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &entity.ServerError{StatusCode: resp.StatusCode, Detail: errorDetail(data)}
	}

	return json.RawMessage(data), nil
}

// errorDetail достаёт поле detail из тела ошибки. Строка берётся как есть,
// структурированное значение сериализуется в компактный JSON.
func errorDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return genericErrorMessage
	}

	raw := bytes.TrimSpace(body.Detail)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return genericErrorMessage
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return genericErrorMessage
		}
		return s
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return genericErrorMessage
	}
	return compact.String()
}

func multipartBody(img *entity.CapturedImage) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FileField, fileName(img)))
	h.Set("Content-Type", img.MimeType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

func fileName(img *entity.CapturedImage) string {
	base := "uploadedImage"
	if img.Source == entity.SourceLiveFrame {
		base = "capturedImage"
	}

	switch img.MimeType {
	case "image/png":
		return base + ".png"
	case "image/jpeg":
		return base + ".jpg"
	case "image/gif":
		return base + ".gif"
	case "image/webp":
		return base + ".webp"
	case "image/bmp":
		return base + ".bmp"
	default:
		return base
	}
}

var _ port.Uploader = (*Client)(nil)
