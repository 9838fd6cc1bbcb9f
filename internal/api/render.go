package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	app "freshscan/internal/application"
	"freshscan/internal/domain/entity"
)

var stateTitles = map[entity.ModuleState]string{
	entity.StateIdle:            "ожидание",
	entity.StateAcquiringDevice: "открытие камеры",
	entity.StateStreaming:       "камера включена",
	entity.StateCaptured:        "изображение готово",
	entity.StateUploading:       "отправка",
	entity.StateSuccess:         "результат получен",
	entity.StateError:           "ошибка",
}

// renderResult форматирует нормализованный ответ модуля.
func renderResult(module entity.Module, result entity.NormalizedResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s\n\n", module.Title)

	switch r := result.(type) {
	case entity.LabelsResult:
		if len(r.Fields) == 0 {
			b.WriteString("Поля этикетки не найдены.")
			break
		}
		for _, f := range r.Fields {
			fmt.Fprintf(&b, "• %s: %s\n", f.Key, f.Value)
		}

	case entity.ExpiryResult:
		fmt.Fprintf(&b, "Highest Date: %s\n", orDash(r.HighestDate))
		fmt.Fprintf(&b, "Raw Text: %s\n", orDash(r.RawText))
		b.WriteString("Extracted Dates:")
		if len(r.ExtractedDates) == 0 {
			b.WriteString(" —")
		}
		for _, d := range r.ExtractedDates {
			fmt.Fprintf(&b, "\n• %s", d)
		}

	case entity.FreshnessResult:
		fmt.Fprintf(&b, "The predicted freshness score is: %s",
			strconv.FormatFloat(r.PredictedShelfLife, 'f', -1, 64))

	case entity.BrandResult:
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, r.Raw, "", "  "); err != nil {
			b.Write(r.Raw)
		} else {
			b.Write(pretty.Bytes())
		}

	default:
		fmt.Fprintf(&b, "%v", result)
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderError сообщение об ошибке с её категорией.
func renderError(module entity.Module, err error) string {
	if errors.Is(err, entity.ErrInvalidTransition) {
		return "⚠️ " + transitionHint(err)
	}

	kind := entity.ErrorKind(err)
	var serverErr *entity.ServerError
	switch {
	case errors.As(err, &serverErr):
		return fmt.Sprintf("⚠️ %s: %s (%d)\n%s", module.Title, kind, serverErr.StatusCode, serverErr.Detail)
	case errors.Is(err, entity.ErrDeviceUnavailable):
		return fmt.Sprintf("📷 %s: камера недоступна. Отправьте фото или файл вместо снимка.", module.Title)
	default:
		return fmt.Sprintf("⚠️ %s: %s\n%v", module.Title, kind, err)
	}
}

func transitionHint(err error) string {
	switch {
	case errors.Is(err, entity.ErrNoActiveStream):
		return "Камера не включена. Отправьте /camera, затем /snap."
	case errors.Is(err, entity.ErrNoImage):
		return "Нет изображения. Сделайте снимок или отправьте фото."
	default:
		return "Сейчас это действие недоступно. Текущее состояние: /status"
	}
}

// renderStatus состояние всех модулей оператора.
func renderStatus(active entity.ModuleID, views []app.ModuleView) string {
	var b strings.Builder
	b.WriteString("📋 Модули:\n")
	for _, v := range views {
		marker := "  "
		if v.Module.ID == active {
			marker = "▶️"
		}
		fmt.Fprintf(&b, "%s /%s %s: %s", marker, v.Module.ID, v.Module.Title, stateTitles[v.State])
		if v.State == entity.StateError && v.Err != nil {
			fmt.Fprintf(&b, " (%s)", entity.ErrorKind(v.Err))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderEvent текст уведомления о событии, которое оператор не инициировал сам.
// Пустая строка, если уведомлять не нужно.
func renderEvent(ev app.Event) string {
	module, err := entity.LookupModule(ev.Module)
	if err != nil {
		return ""
	}
	switch ev.Reason {
	case app.ReasonHandoff:
		return fmt.Sprintf("🔄 %s: камера передана другому модулю, поток остановлен.", module.Title)
	case app.ReasonPreempted:
		return fmt.Sprintf("🔄 %s: открытие камеры прервано другим модулем.", module.Title)
	default:
		return ""
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
