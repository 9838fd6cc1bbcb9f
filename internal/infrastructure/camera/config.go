// Package camera открывает видеоустройство хоста через OpenCV (gocv).
// Без тега сборки gocv устройство недоступно.
package camera

import "fmt"

// Config параметры устройства
type Config struct {
	Device string // индекс устройства ("0") или путь/URL потока
	Width  int    // 0: разрешение устройства по умолчанию
	Height int
}

// DefaultConfig первая камера в её собственном разрешении.
func DefaultConfig() Config {
	return Config{Device: "0"}
}

// Validate проверяет конфигурацию.
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("camera device is empty")
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("camera resolution must not be negative (%dx%d)", c.Width, c.Height)
	}
	if (c.Width == 0) != (c.Height == 0) {
		return fmt.Errorf("camera width and height must be set together")
	}
	return nil
}
