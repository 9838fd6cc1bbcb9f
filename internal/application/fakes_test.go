package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"freshscan/internal/domain/entity"
	"freshscan/internal/domain/port"
	"freshscan/internal/infrastructure/imaging"
	"freshscan/internal/infrastructure/inference"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) has(e string) bool {
	for _, got := range r.list() {
		if got == e {
			return true
		}
	}
	return false
}

// fakeCamera считает открытые потоки; открытия с номерами из blockOpens
// ждут отмены контекста.
type fakeCamera struct {
	rec        *recorder
	err        error
	readErr    error
	width      int
	height     int
	blockOpens map[int]bool

	mu      sync.Mutex
	opens   int
	open    int
	maxOpen int
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{rec: &recorder{}, width: 64, height: 48}
}

func (c *fakeCamera) Open(ctx context.Context) (port.Stream, error) {
	c.mu.Lock()
	c.opens++
	n := c.opens
	c.mu.Unlock()
	c.rec.add("open")

	if c.blockOpens[n] {
		<-ctx.Done()
		c.rec.add("open-aborted")
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}

	c.mu.Lock()
	c.open++
	if c.open > c.maxOpen {
		c.maxOpen = c.open
	}
	c.mu.Unlock()
	return &fakeStream{cam: c}, nil
}

func (c *fakeCamera) openStreams() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

type fakeStream struct {
	cam    *fakeCamera
	mu     sync.Mutex
	closed bool
}

func (s *fakeStream) Read() (entity.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return entity.Frame{}, entity.ErrNoActiveStream
	}
	if s.cam.readErr != nil {
		return entity.Frame{}, s.cam.readErr
	}
	w, h := s.cam.width, s.cam.height
	pix := make([]uint8, 4*w*h)
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 255
	}
	return entity.Frame{Pix: pix, Width: w, Height: h}, nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.cam.rec.add("double-close")
		return nil
	}
	s.closed = true
	s.cam.mu.Lock()
	s.cam.open--
	s.cam.mu.Unlock()
	s.cam.rec.add("close")
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	images  []*entity.CapturedImage
	ctxs    []context.Context
	raw     string
	err     error
	block   chan struct{}
	started chan struct{}
}

func (u *fakeUploader) Upload(ctx context.Context, module entity.Module, img *entity.CapturedImage) (json.RawMessage, error) {
	u.mu.Lock()
	u.images = append(u.images, img)
	u.ctxs = append(u.ctxs, ctx)
	u.mu.Unlock()

	if u.started != nil {
		close(u.started)
	}
	if u.block != nil {
		<-u.block
	}
	if u.err != nil {
		return nil, u.err
	}
	return json.RawMessage(u.raw), nil
}

func (u *fakeUploader) last() (*entity.CapturedImage, context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.images) == 0 {
		return nil, nil
	}
	return u.images[len(u.images)-1], u.ctxs[len(u.ctxs)-1]
}

func testDeps(t *testing.T, cam port.Camera, up port.Uploader) ControllerDeps {
	t.Helper()
	return ControllerDeps{
		Session:    NewCaptureSession(cam, nil),
		Encoder:    imaging.NewEncoder(85, nil),
		Uploader:   up,
		Normalizer: inference.Normalizer{},
	}
}
