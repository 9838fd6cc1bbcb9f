package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable устройство отсутствует или доступ запрещён
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrNoActiveStream снимок запрошен без активного потока
	ErrNoActiveStream = errors.New("no active stream")
	// ErrNetwork сбой транспорта (DNS, отказ соединения, таймаут)
	ErrNetwork = errors.New("network error")
	// ErrServer сервер ответил кодом не из 2xx
	ErrServer = errors.New("server error")
	// ErrMalformedResponse ответ 2xx не прошёл проверку формы
	ErrMalformedResponse = errors.New("malformed response")

	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNoImage           = errors.New("no image to submit")
	ErrInvalidImage      = errors.New("invalid image")
	// ErrPreempted поток отобран другим модулем
	ErrPreempted = errors.New("capture preempted by another module")
)

// NetworkError ошибка транспорта при обращении к модулю.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ServerError ответ сервера с кодом не из 2xx.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Detail)
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }

// ErrorKind короткое имя категории ошибки для отображения.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDeviceUnavailable):
		return "DeviceUnavailable"
	case errors.Is(err, ErrNoActiveStream):
		return "NoActiveStream"
	case errors.Is(err, ErrNetwork):
		return "NetworkError"
	case errors.Is(err, ErrServer):
		return "ServerError"
	case errors.Is(err, ErrMalformedResponse):
		return "MalformedResponse"
	case errors.Is(err, ErrInvalidImage):
		return "InvalidImage"
	default:
		return "Error"
	}
}
