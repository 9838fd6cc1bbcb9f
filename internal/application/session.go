package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"freshscan/internal/domain/entity"
	"freshscan/internal/domain/port"
)

// ErrSessionClosed сессия закрыта при остановке процесса
var ErrSessionClosed = errors.New("capture session closed")

// SessionState снимок состояния сессии камеры
type SessionState struct {
	Streaming bool
	Owner     string
}

type pendingOpen struct {
	owner     string
	cancel    context.CancelFunc
	preempted bool
}

// CaptureSession владеет единственным потоком камеры в процессе.
// Одновременно открыт не более чем один поток; открытия выполняются по очереди.
type CaptureSession struct {
	camera port.Camera
	log    *zap.Logger

	openMu sync.Mutex

	mu       sync.Mutex
	stream   port.Stream
	owner    string
	onRevoke func()
	token    uint64
	pending  *pendingOpen
	closed   bool
}

// NewCaptureSession создаёт сессию поверх камеры.
func NewCaptureSession(camera port.Camera, log *zap.Logger) *CaptureSession {
	if log == nil {
		log = zap.NewNop()
	}
	return &CaptureSession{camera: camera, log: log.Named("session")}
}

// Lease заимствованный доступ владельца к потоку. Действителен до Release,
// передачи камеры другому владельцу или закрытия сессии.
type Lease struct {
	session *CaptureSession
	token   uint64
	owner   string
}

// Acquire открывает камеру для owner. Если камерой владеет (или открывает её)
// другой владелец, его поток закрывается, а onRevoke предыдущего владельца
// вызывается до запроса устройства. Повторный Acquire того же владельца при
// открытом потоке возвращает текущий Lease.
func (s *CaptureSession) Acquire(ctx context.Context, owner string, onRevoke func()) (*Lease, error) {
	s.mu.Lock()
	if s.pending != nil && s.pending.owner != owner {
		s.pending.preempted = true
		s.pending.cancel()
	}
	s.mu.Unlock()

	s.openMu.Lock()
	defer s.openMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.stream != nil && s.owner == owner {
		lease := &Lease{session: s, token: s.token, owner: owner}
		s.mu.Unlock()
		return lease, nil
	}

	revoke := s.teardownLocked("handoff")
	s.token++
	token := s.token
	s.owner = owner
	s.onRevoke = onRevoke

	openCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := &pendingOpen{owner: owner, cancel: cancel}
	s.pending = p
	s.mu.Unlock()

	if revoke != nil {
		revoke()
	}

	stream, err := s.camera.Open(openCtx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == p {
		s.pending = nil
	}
	if err == nil && openCtx.Err() != nil {
		s.closeStream(stream)
		err = openCtx.Err()
	}

	if err != nil {
		if s.token == token {
			s.owner = ""
			s.onRevoke = nil
		}
		switch {
		case s.closed:
			return nil, ErrSessionClosed
		case p.preempted:
			return nil, fmt.Errorf("%w: %v", entity.ErrPreempted, err)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, entity.ErrDeviceUnavailable):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", entity.ErrDeviceUnavailable, err)
		}
	}

	if s.token != token {
		// Сессию закрыли, пока устройство открывалось.
		s.closeStream(stream)
		return nil, ErrSessionClosed
	}

	s.stream = stream
	s.log.Info("device acquired", zap.String("owner", owner))

	return &Lease{session: s, token: token, owner: owner}, nil
}

// Snapshot читает текущий кадр потока.
func (l *Lease) Snapshot() (entity.Frame, error) {
	s := l.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != l.token || s.stream == nil {
		return entity.Frame{}, entity.ErrNoActiveStream
	}

	frame, err := s.stream.Read()
	if err != nil {
		if errors.Is(err, entity.ErrNoActiveStream) {
			return entity.Frame{}, err
		}
		return entity.Frame{}, fmt.Errorf("%w: read frame: %v", entity.ErrNoActiveStream, err)
	}
	return frame, nil
}

// Release закрывает поток, если Lease ещё действителен. Повторный вызов ничего не делает.
func (l *Lease) Release() {
	s := l.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != l.token || s.stream == nil {
		return
	}
	s.teardownLocked("release")
}

// Owner владелец, получивший Lease.
func (l *Lease) Owner() string { return l.owner }

// State возвращает текущее состояние сессии.
func (s *CaptureSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{Streaming: s.stream != nil, Owner: s.owner}
}

// Close освобождает камеру при остановке процесса. После Close Acquire
// возвращает ErrSessionClosed.
func (s *CaptureSession) Close() {
	s.mu.Lock()
	s.closed = true
	if s.pending != nil {
		s.pending.cancel()
	}
	revoke := s.teardownLocked("shutdown")
	s.owner = ""
	s.onRevoke = nil
	s.token++
	s.mu.Unlock()

	if revoke != nil {
		revoke()
	}
}

// teardownLocked единственный путь освобождения устройства. Возвращает
// onRevoke прежнего владельца; вызывать его нужно без s.mu.
func (s *CaptureSession) teardownLocked(reason string) func() {
	if s.stream == nil {
		return nil
	}

	s.closeStream(s.stream)
	s.log.Info("device released", zap.String("owner", s.owner), zap.String("reason", reason))

	revoke := s.onRevoke
	s.stream = nil
	s.owner = ""
	s.onRevoke = nil
	s.token++
	return revoke
}

func (s *CaptureSession) closeStream(stream port.Stream) {
	if stream == nil {
		return
	}
	if err := stream.Close(); err != nil {
		s.log.Warn("close device stream", zap.Error(err))
	}
}
