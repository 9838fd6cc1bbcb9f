package container

import (
	"go.uber.org/zap"

	app "freshscan/internal/application"
	"freshscan/internal/domain/port"
)

type Container struct {
	UserService    *app.UserService
	CaptureService *app.CaptureService
	Session        *app.CaptureSession
}

// Deps внешние зависимости приложения
type Deps struct {
	Users      port.UserRepository
	Camera     port.Camera
	Encoder    port.ImageEncoder
	Uploader   port.Uploader
	Normalizer port.ResponseNormalizer
	Log        *zap.Logger
}

func New(deps Deps) *Container {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	userService := app.NewUserService(deps.Users)
	session := app.NewCaptureSession(deps.Camera, log)
	captureService := app.NewCaptureService(userService, app.ControllerDeps{
		Session:    session,
		Encoder:    deps.Encoder,
		Uploader:   deps.Uploader,
		Normalizer: deps.Normalizer,
		Log:        log.Named("controller"),
	}, nil)

	return &Container{
		UserService:    userService,
		CaptureService: captureService,
		Session:        session,
	}
}

// Close освобождает камеру при остановке процесса.
func (c *Container) Close() {
	c.CaptureService.Close()
}
