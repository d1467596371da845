package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "vision-node/internal/application"
	"vision-node/internal/domain/entity"
)

const (
	msgStart = `👋 Я бот узла технического зрения робота.

📋 Команды:
/status — состояние узла и счётчики
/mode primary|secondary — какую камеру транслировать оператору
/snapshot — последний кадр детекции с отметками
/help — справка`

	msgHelp = `ℹ️ Команды:

/status — состояние супервизора, активная камера, счётчики детекции и трансляции
/mode primary — камера цели
/mode secondary — обзорная камера
/snapshot — последний обработанный кадр: зелёные точки — центры полос, жёлтая — цель`

	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgModeUsage      = "Использование: /mode primary или /mode secondary"
	msgNoSnapshot     = "📭 Кадров ещё не было."
	msgSnapshotError  = "⚠️ Не удалось подготовить снимок."
	msgForbidden      = "⛔ Этот чат не может управлять узлом."
)

// Operator — команды, которые бот передаёт узлу.
type Operator interface {
	Status() app.StatusReport
	SetMode(feed entity.Feed) error
	Snapshot() ([]byte, entity.Detection, error)
}

// Bot представляет Telegram-бота оператора
type Bot struct {
	api     *tgbotapi.BotAPI
	ops     Operator
	allowed map[int64]bool // пусто: разрешены все чаты
	logger  *slog.Logger
}

// response — что отправить в ответ на команду
type response struct {
	text    string
	photo   []byte
	caption string
}

// NewBot создаёт нового бота
func NewBot(token string, ops Operator, allowedChats []int64, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newBot(api, ops, allowedChats, logger)
	b.logger.Info("telegram bot authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(api *tgbotapi.BotAPI, ops Operator, allowedChats []int64, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[int64]bool, len(allowedChats))
	for _, id := range allowedChats {
		allowed[id] = true
	}
	return &Bot{
		api:     api,
		ops:     ops,
		allowed: allowed,
		logger:  logger.With("component", "telegram"),
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}
	b.send(msg.Chat.ID, b.handleCommand(msg.Chat.ID, msg.Command(), msg.CommandArguments()))
}

// handleCommand выполняет команду и собирает ответ
func (b *Bot) handleCommand(chatID int64, command, args string) response {
	if !b.isAllowed(chatID) {
		b.logger.Warn("command from unknown chat", "chat_id", chatID, "command", command)
		return response{text: msgForbidden}
	}

	switch command {
	case "start":
		return response{text: msgStart}

	case "help":
		return response{text: msgHelp}

	case "status":
		return response{text: formatStatus(b.ops.Status())}

	case "mode":
		feed, ok := entity.ParseFeed(strings.ToLower(strings.TrimSpace(args)))
		if !ok {
			return response{text: msgModeUsage}
		}
		if err := b.ops.SetMode(feed); err != nil {
			b.logger.Warn("failed to set mode", "feed", feed, "error", err)
			return response{text: fmt.Sprintf("⚠️ Не удалось переключить камеру: %v", err)}
		}
		b.logger.Info("stream feed switched by operator", "chat_id", chatID, "feed", feed)
		return response{text: fmt.Sprintf("✅ Трансляция: %s", feed)}

	case "snapshot":
		img, det, err := b.ops.Snapshot()
		if errors.Is(err, app.ErrNoSnapshot) {
			return response{text: msgNoSnapshot}
		}
		if err != nil {
			b.logger.Warn("snapshot failed", "error", err)
			return response{text: msgSnapshotError}
		}
		return response{photo: img, caption: formatDetection(det)}

	default:
		return response{text: msgUnknownCommand}
	}
}

func (b *Bot) isAllowed(chatID int64) bool {
	return len(b.allowed) == 0 || b.allowed[chatID]
}

// send отправляет текст или фото
func (b *Bot) send(chatID int64, r response) {
	var c tgbotapi.Chattable
	if r.photo != nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "snapshot.jpg", Bytes: r.photo})
		photo.Caption = r.caption
		c = photo
	} else {
		c = tgbotapi.NewMessage(chatID, r.text)
	}
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func formatStatus(s app.StatusReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Состояние: %s\n", s.State)
	fmt.Fprintf(&sb, "Трансляция: %s\n", s.ActiveFeed)
	fmt.Fprintf(&sb, "Детекция: циклов %d, найдено %d, промахов %d, ошибок %d, пустых кадров %d\n",
		s.Detection.Cycles, s.Detection.Found, s.Detection.Missed, s.Detection.Failures, s.Detection.Empty)
	fmt.Fprintf(&sb, "Шина: отправлено %d, ошибок %d, последняя цель (%.3f, %.3f)\n",
		s.Publisher.Published, s.Publisher.Failures, s.Publisher.Last.X, s.Publisher.Last.Y)
	fmt.Fprintf(&sb, "Консоль: кадров %d, байт %d, ошибок кодирования %d, переподключений %d",
		s.Stream.Frames, s.Stream.Bytes, s.Stream.EncodeErrors, s.Stream.Reconnects)
	if s.LastResult != "" {
		fmt.Fprintf(&sb, "\nПоследний кадр: %s", s.LastResult)
	}
	return sb.String()
}

func formatDetection(d entity.Detection) string {
	switch d.Outcome {
	case entity.OutcomeFound:
		x, y := d.Target.Normalized()
		return fmt.Sprintf("🎯 Цель (%.0f, %.0f) px, нормировано (%.3f, %.3f), контуров %d",
			d.Target.X, d.Target.Y, x, y, d.Contours)
	case entity.OutcomeNoPair:
		return fmt.Sprintf("Цель не найдена: контуров %d", d.Contours)
	case entity.OutcomeFailed:
		return fmt.Sprintf("Ошибка детекции: %v", d.Err)
	default:
		return string(d.Outcome)
	}
}
