package inference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"freshscan/internal/domain/entity"
	"freshscan/internal/domain/port"
)

// Normalizer реализует port.ResponseNormalizer.
type Normalizer struct{}

// Normalize приводит ответ сервера к форме, определённой module.Shape.
func (Normalizer) Normalize(module entity.Module, raw json.RawMessage) (entity.NormalizedResult, error) {
	return Normalize(module, raw)
}

// Normalize чистая функция разбора ответа модуля.
func Normalize(module entity.Module, raw json.RawMessage) (entity.NormalizedResult, error) {
	switch module.Shape {
	case entity.ShapeLabels:
		return normalizeLabels(raw)
	case entity.ShapeExpiry:
		return normalizeExpiry(raw)
	case entity.ShapeFreshness:
		return normalizeFreshness(raw)
	case entity.ShapeBrand:
		// Контракт brand-recognition не зафиксирован: отдаём тело как есть.
		out := make([]byte, len(raw))
		copy(out, raw)
		return entity.BrandResult{Raw: out}, nil
	default:
		return nil, fmt.Errorf("unknown response shape %q", module.Shape)
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", entity.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

func topLevel(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, malformed("body is not a JSON object")
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func normalizeLabels(raw json.RawMessage) (entity.NormalizedResult, error) {
	fields, err := topLevel(raw)
	if err != nil {
		return nil, err
	}
	labels, ok := fields["labels"]
	if !ok || isNull(labels) {
		return nil, malformed("missing labels")
	}

	dec := json.NewDecoder(bytes.NewReader(labels))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, malformed("labels is not an object")
	}

	// Повторный ключ заменяет значение, сохраняя первую позицию,
	// как при обычном разборе объекта.
	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, malformed("labels: %v", err)
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, malformed("labels.%s: %v", key, err)
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}

	result := entity.LabelsResult{Fields: make([]entity.LabelField, 0, len(keys))}
	for _, key := range keys {
		text, present, err := labelValue(values[key])
		if err != nil {
			return nil, malformed("labels.%s: %v", key, err)
		}
		if !present {
			continue
		}
		result.Fields = append(result.Fields, entity.LabelField{Key: key, Value: text})
	}

	return result, nil
}

// labelValue форматирует значение метки. present == false для null.
func labelValue(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return "", false, nil
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return "", false, err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			text, ok, err := labelValue(item)
			if err != nil {
				return "", false, err
			}
			if ok {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, ", "), true, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	default:
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return "", false, err
		}
		return compact.String(), true, nil
	}
}

func normalizeExpiry(raw json.RawMessage) (entity.NormalizedResult, error) {
	fields, err := topLevel(raw)
	if err != nil {
		return nil, err
	}

	if !hasAny(fields, "highest_date", "raw_text", "extracted_dates") {
		return nil, malformed("none of highest_date, raw_text, extracted_dates present")
	}

	highest, err := optionalString(fields["highest_date"])
	if err != nil {
		return nil, malformed("highest_date: %v", err)
	}
	rawText, err := optionalString(fields["raw_text"])
	if err != nil {
		return nil, malformed("raw_text: %v", err)
	}
	dates, err := stringList(fields["extracted_dates"])
	if err != nil {
		return nil, malformed("extracted_dates: %v", err)
	}

	return entity.ExpiryResult{
		HighestDate:    highest,
		RawText:        rawText,
		ExtractedDates: dates,
	}, nil
}

func hasAny(fields map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

func optionalString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("expected string, got %s", bytes.TrimSpace(raw))
	}
	return s, nil
}

// stringList принимает список строк или одну строку; одиночное значение
// оборачивается в список из одного элемента.
func stringList(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return []string{}, nil
	}

	raw = bytes.TrimSpace(raw)
	if raw[0] != '[' {
		s, err := optionalString(raw)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if isNull(item) {
			continue
		}
		s, err := optionalString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func normalizeFreshness(raw json.RawMessage) (entity.NormalizedResult, error) {
	fields, err := topLevel(raw)
	if err != nil {
		return nil, err
	}

	value, ok := fields["predicted_shelf_life"]
	if !ok || isNull(value) {
		return nil, malformed("missing predicted_shelf_life")
	}

	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, malformed("predicted_shelf_life: %v", err)
	}
	n, ok := v.(json.Number)
	if !ok {
		return nil, malformed("predicted_shelf_life is not a number: %s", bytes.TrimSpace(value))
	}
	f, err := n.Float64()
	if err != nil {
		return nil, malformed("predicted_shelf_life: %v", err)
	}

	return entity.FreshnessResult{PredictedShelfLife: f}, nil
}

var _ port.ResponseNormalizer = Normalizer{}
