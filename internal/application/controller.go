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

// ErrInterrupted операция прервана отменой или передачей камеры; её результат отброшен.
var ErrInterrupted = errors.New("operation interrupted")

// Причины перехода, которые контроллер сообщает наблюдателю.
const (
	ReasonHandoff   = "handoff"
	ReasonCancel    = "cancel"
	ReasonPreempted = "preempted"
)

// Event уведомление об изменении состояния модуля
type Event struct {
	Owner  string
	Module entity.ModuleID
	State  entity.ModuleState
	Reason string
	Err    error
}

// ModuleView снимок состояния контроллера для отображения
type ModuleView struct {
	Module entity.Module
	State  entity.ModuleState
	Image  *entity.CapturedImage
	Result *entity.UploadResult
	Err    error
}

// ControllerDeps общие зависимости контроллеров
type ControllerDeps struct {
	Session    *CaptureSession
	Encoder    port.ImageEncoder
	Uploader   port.Uploader
	Normalizer port.ResponseNormalizer
	Log        *zap.Logger
}

// ModuleController — конечный автомат одного модуля:
// idle → acquiring_device → streaming → captured → uploading → success | error.
// Блокирующие вызовы выполняются без удержания мьютекса; gen отбрасывает
// результаты операций, прерванных cancel или передачей камеры.
type ModuleController struct {
	module     entity.Module
	owner      string
	session    *CaptureSession
	encoder    port.ImageEncoder
	uploader   port.Uploader
	normalizer port.ResponseNormalizer
	log        *zap.Logger
	onEvent    func(Event)

	mu            sync.Mutex
	state         entity.ModuleState
	gen           uint64
	lease         *Lease
	cancelAcquire context.CancelFunc
	image         *entity.CapturedImage
	result        *entity.UploadResult
	err           error
}

// NewModuleController создаёт контроллер модуля. owner уникален в пределах
// процесса и используется как владелец камеры.
func NewModuleController(module entity.Module, owner string, deps ControllerDeps, onEvent func(Event)) *ModuleController {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &ModuleController{
		module:     module,
		owner:      owner,
		session:    deps.Session,
		encoder:    deps.Encoder,
		uploader:   deps.Uploader,
		normalizer: deps.Normalizer,
		log:        log.With(zap.String("module", string(module.ID)), zap.String("owner", owner)),
		onEvent:    onEvent,
		state:      entity.StateIdle,
	}
}

// Module описание модуля
func (c *ModuleController) Module() entity.Module { return c.module }

// StartCapture открывает камеру. В состояниях acquiring_device и streaming ничего не делает.
func (c *ModuleController) StartCapture(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case entity.StateAcquiringDevice, entity.StateStreaming:
		c.mu.Unlock()
		return nil
	case entity.StateUploading:
		c.mu.Unlock()
		return fmt.Errorf("%w: start capture while %s", entity.ErrInvalidTransition, c.state)
	}

	c.gen++
	gen := c.gen
	c.image, c.result, c.err = nil, nil, nil
	c.state = entity.StateAcquiringDevice
	actx, cancel := context.WithCancel(ctx)
	c.cancelAcquire = cancel
	c.mu.Unlock()
	c.emit(Event{State: entity.StateAcquiringDevice})

	lease, err := c.session.Acquire(actx, c.owner, func() { c.revoked(gen) })
	cancel()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		if lease != nil {
			lease.Release()
		}
		return ErrInterrupted
	}
	c.cancelAcquire = nil

	if err != nil {
		if errors.Is(err, entity.ErrPreempted) || errors.Is(err, context.Canceled) {
			c.state = entity.StateIdle
			c.mu.Unlock()
			c.log.Info("capture preempted before device opened", zap.Error(err))
			c.emit(Event{State: entity.StateIdle, Reason: ReasonPreempted})
			return err
		}
		if !errors.Is(err, entity.ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %w", entity.ErrDeviceUnavailable, err)
		}
		c.failLocked(err)
		c.mu.Unlock()
		c.log.Warn("device unavailable", zap.Error(err))
		c.emit(Event{State: entity.StateError, Err: err})
		return err
	}

	c.lease = lease
	c.state = entity.StateStreaming
	c.mu.Unlock()
	c.emit(Event{State: entity.StateStreaming})
	return nil
}

// Snapshot снимает один кадр, кодирует его и сразу освобождает камеру.
func (c *ModuleController) Snapshot() error {
	c.mu.Lock()
	if c.state != entity.StateStreaming || c.lease == nil {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: snapshot while %s: %w", entity.ErrInvalidTransition, state, entity.ErrNoActiveStream)
	}
	lease := c.lease
	gen := c.gen
	c.mu.Unlock()

	frame, err := lease.Snapshot()
	lease.Release()

	var img *entity.CapturedImage
	if err == nil {
		img, err = c.encoder.FromFrame(frame)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrInterrupted
	}
	c.releaseLocked()

	if err != nil {
		c.failLocked(err)
		c.mu.Unlock()
		c.log.Warn("snapshot failed", zap.Error(err))
		c.emit(Event{State: entity.StateError, Err: err})
		return err
	}

	c.image = img
	c.state = entity.StateCaptured
	c.mu.Unlock()
	c.log.Info("frame captured", zap.Int("width", img.Width), zap.Int("height", img.Height))
	c.emit(Event{State: entity.StateCaptured})
	return nil
}

// SelectFile принимает файл изображения в обход камеры.
func (c *ModuleController) SelectFile(data []byte, mimeType string) error {
	c.mu.Lock()
	if c.state == entity.StateUploading {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: select file while %s", entity.ErrInvalidTransition, state)
	}

	img, err := c.encoder.FromFile(data, mimeType)

	if c.state.HoldsDevice() {
		c.releaseLocked()
	}
	c.gen++
	c.result = nil

	if err != nil {
		c.image = nil
		c.failLocked(err)
		c.mu.Unlock()
		c.emit(Event{State: entity.StateError, Err: err})
		return err
	}

	c.image = img
	c.err = nil
	c.state = entity.StateCaptured
	c.mu.Unlock()
	c.log.Info("file selected", zap.String("mime", img.MimeType), zap.Int("bytes", len(img.Data)))
	c.emit(Event{State: entity.StateCaptured})
	return nil
}

// Submit применяет политику размера модуля, отправляет изображение и
// нормализует ответ. Повторная отправка возможна из success и error.
func (c *ModuleController) Submit(ctx context.Context) (*entity.UploadResult, error) {
	c.mu.Lock()
	switch c.state {
	case entity.StateCaptured, entity.StateSuccess, entity.StateError:
	default:
		state := c.state
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: submit while %s", entity.ErrInvalidTransition, state)
	}
	if !c.image.Valid() {
		c.mu.Unlock()
		return nil, entity.ErrNoImage
	}

	c.gen++
	gen := c.gen
	img := c.image
	attempt := entity.NewUploadResult(c.module.ID)
	c.result = attempt
	c.err = nil
	c.state = entity.StateUploading
	c.mu.Unlock()
	c.emit(Event{State: entity.StateUploading})

	payload, err := c.upload(ctx, img)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.log.Info("discarding response of cancelled upload", zap.String("attempt", attempt.ID.String()))
		return nil, ErrInterrupted
	}

	ev := Event{State: entity.StateSuccess}
	if err != nil {
		attempt.Fail(err)
		c.err = err
		c.state = entity.StateError
		ev = Event{State: entity.StateError, Err: err}
	} else {
		attempt.Succeed(payload)
		c.state = entity.StateSuccess
	}
	out := *attempt
	c.mu.Unlock()

	c.log.Info("upload attempt finished",
		zap.String("attempt", out.ID.String()),
		zap.String("status", string(out.Status)),
		zap.Duration("took", out.FinishedAt.Sub(out.StartedAt)),
		zap.Error(err),
	)
	c.emit(ev)
	return &out, err
}

// upload выполняется без мьютекса. Отмена ctx не прерывает отправленный запрос.
func (c *ModuleController) upload(ctx context.Context, img *entity.CapturedImage) (entity.NormalizedResult, error) {
	if w, h, ok := c.module.ResizeBound(); ok {
		resized, err := c.encoder.Resize(img, w, h)
		if err != nil {
			return nil, fmt.Errorf("resize: %w", err)
		}
		img = resized
	}

	raw, err := c.uploader.Upload(context.WithoutCancel(ctx), c.module, img)
	if err != nil {
		return nil, err
	}
	return c.normalizer.Normalize(c.module, raw)
}

// Cancel возвращает контроллер в idle, освобождая камеру. Ответ уже
// отправленного запроса будет отброшен. Возвращает false, если состояние
// не принимает cancel.
func (c *ModuleController) Cancel() bool {
	c.mu.Lock()
	if !c.state.Cancellable() {
		c.mu.Unlock()
		return false
	}
	from := c.state
	c.gen++
	c.releaseLocked()
	c.image, c.result, c.err = nil, nil, nil
	c.state = entity.StateIdle
	c.mu.Unlock()

	c.log.Info("cancelled", zap.String("from", string(from)))
	c.emit(Event{State: entity.StateIdle, Reason: ReasonCancel})
	return true
}

// View возвращает снимок состояния.
func (c *ModuleController) View() ModuleView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := ModuleView{Module: c.module, State: c.state, Image: c.image, Err: c.err}
	if c.result != nil {
		r := *c.result
		v.Result = &r
	}
	return v
}

// revoked вызывается сессией, когда камеру забрал другой владелец.
func (c *ModuleController) revoked(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || !c.state.HoldsDevice() {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.lease = nil
	if c.cancelAcquire != nil {
		c.cancelAcquire()
		c.cancelAcquire = nil
	}
	c.state = entity.StateIdle
	c.mu.Unlock()

	c.log.Info("device handed off to another module")
	c.emit(Event{State: entity.StateIdle, Reason: ReasonHandoff})
}

// releaseLocked единственный путь освобождения камеры контроллером.
func (c *ModuleController) releaseLocked() {
	if c.cancelAcquire != nil {
		c.cancelAcquire()
		c.cancelAcquire = nil
	}
	if c.lease != nil {
		c.lease.Release()
		c.lease = nil
	}
}

// failLocked переводит контроллер в error; камера освобождается.
func (c *ModuleController) failLocked(err error) {
	c.releaseLocked()
	c.err = err
	c.state = entity.StateError
}

func (c *ModuleController) emit(ev Event) {
	if c.onEvent == nil {
		return
	}
	ev.Owner = c.owner
	ev.Module = c.module.ID
	c.onEvent(ev)
}
