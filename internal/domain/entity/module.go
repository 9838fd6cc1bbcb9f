package entity

import "fmt"

// ModuleID идентификатор модуля классификации
type ModuleID string

const (
	ModuleLabel     ModuleID = "label"
	ModuleExpiry    ModuleID = "expiry"
	ModuleFreshness ModuleID = "freshness"
	ModuleBrand     ModuleID = "brand"
)

// ResponseShape определяет формат ответа сервера для модуля
type ResponseShape string

const (
	ShapeLabels    ResponseShape = "labels"
	ShapeExpiry    ResponseShape = "expiry"
	ShapeFreshness ResponseShape = "freshness"
	ShapeBrand     ResponseShape = "brand"
)

// Module описывает один модуль классификации. Значения неизменяемы.
type Module struct {
	ID           ModuleID
	Title        string
	EndpointPath string
	Shape        ResponseShape
	MaxWidth     int // 0: загружать в исходном разрешении
	MaxHeight    int
}

// ResizeBound возвращает ограничивающий прямоугольник перед загрузкой.
func (m Module) ResizeBound() (width, height int, ok bool) {
	if m.MaxWidth <= 0 || m.MaxHeight <= 0 {
		return 0, 0, false
	}
	return m.MaxWidth, m.MaxHeight, true
}

var registry = []Module{
	{ID: ModuleLabel, Title: "Label Extraction", EndpointPath: "/label-extraction", Shape: ShapeLabels},
	{ID: ModuleExpiry, Title: "Expiry Extraction", EndpointPath: "/expiry-extraction", Shape: ShapeExpiry},
	{ID: ModuleFreshness, Title: "Freshness Prediction", EndpointPath: "/freshness-prediction", Shape: ShapeFreshness, MaxWidth: 224, MaxHeight: 224},
	{ID: ModuleBrand, Title: "Brand Recognition", EndpointPath: "/brand-recognition", Shape: ShapeBrand},
}

// Modules возвращает копию таблицы модулей в фиксированном порядке.
func Modules() []Module {
	out := make([]Module, len(registry))
	copy(out, registry)
	return out
}

// LookupModule ищет модуль по идентификатору.
func LookupModule(id ModuleID) (Module, error) {
	for _, m := range registry {
		if m.ID == id {
			return m, nil
		}
	}
	return Module{}, fmt.Errorf("unknown module %q", id)
}
