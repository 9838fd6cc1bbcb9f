package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	app "freshscan/internal/application"
	"freshscan/internal/domain/entity"
)

func module(t *testing.T, id entity.ModuleID) entity.Module {
	t.Helper()
	m, err := entity.LookupModule(id)
	require.NoError(t, err)
	return m
}

func TestRenderResult(t *testing.T) {
	cases := []struct {
		name   string
		module entity.ModuleID
		result entity.NormalizedResult
		want   string
	}{
		{
			name:   "labels keep server order",
			module: entity.ModuleLabel,
			result: entity.LabelsResult{Fields: []entity.LabelField{{Key: "name", Value: "Milk"}, {Key: "fat", Value: "3.2%"}}},
			want:   "✅ Label Extraction\n\n• name: Milk\n• fat: 3.2%",
		},
		{
			name:   "expiry",
			module: entity.ModuleExpiry,
			result: entity.ExpiryResult{HighestDate: "2025-01-01", ExtractedDates: []string{"2024-12-01", "2025-01-01"}},
			want:   "✅ Expiry Extraction\n\nHighest Date: 2025-01-01\nRaw Text: —\nExtracted Dates:\n• 2024-12-01\n• 2025-01-01",
		},
		{
			name:   "expiry without dates",
			module: entity.ModuleExpiry,
			result: entity.ExpiryResult{RawText: "BEST BEFORE"},
			want:   "✅ Expiry Extraction\n\nHighest Date: —\nRaw Text: BEST BEFORE\nExtracted Dates: —",
		},
		{
			name:   "freshness",
			module: entity.ModuleFreshness,
			result: entity.FreshnessResult{PredictedShelfLife: 4.5},
			want:   "✅ Freshness Prediction\n\nThe predicted freshness score is: 4.5",
		},
		{
			name:   "brand is shown as returned",
			module: entity.ModuleBrand,
			result: entity.BrandResult{Raw: json.RawMessage(`{"brand":"Acme"}`)},
			want:   "✅ Brand Recognition\n\n{\n  \"brand\": \"Acme\"\n}",
		},
		{
			name:   "brand non-json body",
			module: entity.ModuleBrand,
			result: entity.BrandResult{Raw: json.RawMessage(`Acme`)},
			want:   "✅ Brand Recognition\n\nAcme",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, renderResult(module(t, tc.module), tc.result))
		})
	}
}

func TestRenderError(t *testing.T) {
	m := module(t, entity.ModuleFreshness)

	got := renderError(m, &entity.ServerError{StatusCode: 422, Detail: "Invalid image"})
	require.Equal(t, "⚠️ Freshness Prediction: ServerError (422)\nInvalid image", got)

	got = renderError(m, fmt.Errorf("%w: busy", entity.ErrDeviceUnavailable))
	require.Contains(t, got, "камера недоступна")

	got = renderError(m, fmt.Errorf("%w: snapshot while idle: %w", entity.ErrInvalidTransition, entity.ErrNoActiveStream))
	require.Contains(t, got, "/camera")

	got = renderError(m, &entity.NetworkError{Endpoint: "/freshness-prediction", Err: errors.New("refused")})
	require.Contains(t, got, "NetworkError")
}

func TestRenderStatus(t *testing.T) {
	views := []app.ModuleView{
		{Module: module(t, entity.ModuleLabel), State: entity.StateIdle},
		{Module: module(t, entity.ModuleExpiry), State: entity.StateError, Err: entity.ErrMalformedResponse},
	}

	got := renderStatus(entity.ModuleExpiry, views)
	require.Equal(t, "📋 Модули:\n   /label Label Extraction: ожидание\n▶️ /expiry Expiry Extraction: ошибка (MalformedResponse)", got)
}

func TestRenderEvent(t *testing.T) {
	require.Contains(t, renderEvent(app.Event{Module: entity.ModuleLabel, Reason: app.ReasonHandoff}), "Label Extraction")
	require.Empty(t, renderEvent(app.Event{Module: entity.ModuleLabel, Reason: app.ReasonCancel}))
	require.Empty(t, renderEvent(app.Event{Module: entity.ModuleLabel, State: entity.StateStreaming}))
}
