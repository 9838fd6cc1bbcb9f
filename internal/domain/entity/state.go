package entity

// ModuleState состояние контроллера модуля
type ModuleState string

const (
	StateIdle            ModuleState = "idle"             // Ожидание действия
	StateAcquiringDevice ModuleState = "acquiring_device" // Открытие камеры
	StateStreaming       ModuleState = "streaming"        // Камера открыта
	StateCaptured        ModuleState = "captured"         // Изображение готово к отправке
	StateUploading       ModuleState = "uploading"        // Запрос к серверу
	StateSuccess         ModuleState = "success"          // Получен результат
	StateError           ModuleState = "error"            // Ошибка
)

// HoldsDevice true, если в этом состоянии контроллер может владеть камерой.
func (s ModuleState) HoldsDevice() bool {
	return s == StateAcquiringDevice || s == StateStreaming
}

// Cancellable true, если состояние принимает cancel.
func (s ModuleState) Cancellable() bool {
	return s != StateIdle && s != StateSuccess && s != StateError
}
