package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "freshscan/internal/application"
	"freshscan/internal/container"
	"freshscan/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я отправляю снимки товаров на модули распознавания.

Выберите модуль, затем сделайте снимок камерой или отправьте фото.

📋 Модули:
/label — состав и поля этикетки
/expiry — срок годности
/freshness — прогноз свежести
/brand — бренд

/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Выберите модуль: /label, /expiry, /freshness или /brand
2️⃣ Включите камеру /camera и сделайте снимок /snap
   или просто отправьте фото (можно файлом)
3️⃣ Отправьте изображение на модуль: /submit

📋 Команды:
/status — состояние модулей
/cancel — отменить текущую операцию`

	msgModuleSelected  = "✅ Модуль: %s\n📸 /camera — включить камеру, или отправьте фото."
	msgCameraOn        = "📷 Камера включена. /snap — сделать снимок, /cancel — выключить."
	msgCaptured        = "🖼 Изображение готово. /submit — отправить на модуль %s."
	msgUploading       = "⏳ Отправляю изображение на модуль %s..."
	msgCancelled       = "❌ Операция отменена."
	msgNothingToCancel = "Нечего отменять."
	msgSendPhoto       = "📸 Отправьте фото или используйте /camera. Справка: /help"
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgNotAnImage      = "⚠️ Этот файл не похож на изображение."
	msgDownloadError   = "⚠️ Не удалось получить файл из Telegram. Попробуйте ещё раз."
	msgInternalError   = "⚠️ Внутренняя ошибка. Попробуйте ещё раз."
)

// maxDownloadSize ограничение на размер файла из Telegram
const maxDownloadSize = 20 << 20

// Bot представляет Telegram-бота
type Bot struct {
	api     *tgbotapi.BotAPI
	users   *app.UserService
	capture *app.CaptureService
	http    *http.Client
	log     *zap.Logger

	wg sync.WaitGroup
}

// NewBot создаёт нового бота и подписывает его на события контроллеров.
func NewBot(token string, c *container.Container, httpClient *http.Client, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("authorized", zap.String("account", api.Self.UserName))

	b := &Bot{
		api:     api,
		users:   c.UserService,
		capture: c.CaptureService,
		http:    httpClient,
		log:     log.Named("telegram"),
	}
	c.CaptureService.SetEventHandler(b.notify)
	return b, nil
}

// Run запускает основной цикл обработки сообщений. Возвращается после
// отмены ctx и завершения начатых обработчиков.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			// Отправка может длиться долго; /cancel должен обрабатываться параллельно.
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if len(msg.Photo) > 0 {
		// Telegram всегда пережимает фото в JPEG
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg, photo.FileID, "image/jpeg")
		return
	}

	if doc := msg.Document; doc != nil {
		if !strings.HasPrefix(doc.MimeType, "image/") {
			b.sendMessage(msg.Chat.ID, msgNotAnImage)
			return
		}
		b.handleImage(ctx, msg, doc.FileID, doc.MimeType)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch cmd := msg.Command(); cmd {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "label", "expiry", "freshness", "brand":
		user, err := b.users.SelectModule(ctx, userID, chatID, entity.ModuleID(cmd))
		if err != nil {
			b.log.Error("select module", zap.Int64("user", userID), zap.Error(err))
			b.sendMessage(chatID, msgInternalError)
			return
		}
		m, _ := entity.LookupModule(user.ActiveModule)
		b.sendMessage(chatID, fmt.Sprintf(msgModuleSelected, m.Title))

	case "camera":
		ctrl, ok := b.active(ctx, msg)
		if !ok {
			return
		}
		if err := ctrl.StartCapture(ctx); err != nil {
			b.reportError(chatID, ctrl.Module(), err)
			return
		}
		b.sendMessage(chatID, msgCameraOn)

	case "snap":
		ctrl, ok := b.active(ctx, msg)
		if !ok {
			return
		}
		if err := ctrl.Snapshot(); err != nil {
			b.reportError(chatID, ctrl.Module(), err)
			return
		}
		b.sendCaptured(chatID, ctrl)

	case "submit":
		ctrl, ok := b.active(ctx, msg)
		if !ok {
			return
		}
		b.submit(ctx, chatID, ctrl)

	case "cancel":
		ctrl, ok := b.active(ctx, msg)
		if !ok {
			return
		}
		if ctrl.Cancel() {
			b.sendMessage(chatID, msgCancelled)
		} else {
			b.sendMessage(chatID, msgNothingToCancel)
		}

	case "status":
		user, err := b.users.Get(ctx, userID, chatID)
		if err != nil {
			b.log.Error("get user", zap.Int64("user", userID), zap.Error(err))
			b.sendMessage(chatID, msgInternalError)
			return
		}
		views := b.capture.Workbench(userID, chatID).Views()
		b.sendMessage(chatID, renderStatus(user.ActiveModule, views))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleImage передаёт фото или документ активному модулю.
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, fileID, mimeType string) {
	ctrl, ok := b.active(ctx, msg)
	if !ok {
		return
	}

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.log.Warn("download file", zap.String("file_id", fileID), zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgDownloadError)
		return
	}

	if err := ctrl.SelectFile(data, mimeType); err != nil {
		b.reportError(msg.Chat.ID, ctrl.Module(), err)
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgCaptured, ctrl.Module().Title))
}

func (b *Bot) submit(ctx context.Context, chatID int64, ctrl *app.ModuleController) {
	module := ctrl.Module()
	b.sendMessage(chatID, fmt.Sprintf(msgUploading, module.Title))

	res, err := ctrl.Submit(ctx)
	switch {
	case errors.Is(err, app.ErrInterrupted):
		return
	case err != nil:
		b.reportError(chatID, module, err)
	default:
		b.sendMessage(chatID, renderResult(module, res.Payload))
	}
}

// sendCaptured показывает оператору снятый кадр.
func (b *Bot) sendCaptured(chatID int64, ctrl *app.ModuleController) {
	view := ctrl.View()
	if !view.Image.Valid() {
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "capturedImage.png", Bytes: view.Image.Data})
	photo.Caption = fmt.Sprintf(msgCaptured, view.Module.Title)
	if _, err := b.api.Send(photo); err != nil {
		b.log.Warn("send captured image", zap.Error(err))
		b.sendMessage(chatID, photo.Caption)
	}
}

func (b *Bot) active(ctx context.Context, msg *tgbotapi.Message) (*app.ModuleController, bool) {
	ctrl, err := b.capture.Active(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error("resolve active module", zap.Int64("user", msg.From.ID), zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgInternalError)
		return nil, false
	}
	return ctrl, true
}

func (b *Bot) reportError(chatID int64, module entity.Module, err error) {
	if errors.Is(err, app.ErrInterrupted) {
		return
	}
	b.log.Info("operation failed",
		zap.String("module", string(module.ID)),
		zap.String("kind", entity.ErrorKind(err)),
		zap.Error(err),
	)
	b.sendMessage(chatID, renderError(module, err))
}

// notify получает события контроллеров вне их блокировок.
func (b *Bot) notify(ev app.OperatorEvent) {
	if text := renderEvent(ev.Event); text != "" {
		b.sendMessage(ev.ChatID, text)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send message", zap.Int64("chat", chatID), zap.Error(err))
	}
}
