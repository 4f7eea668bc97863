// Package telegram adapts the session controller and the batch
// dispatcher to the Telegram Bot API: it translates updates into
// controller calls and flushed batches into media group sends.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"igcourier/pkg/logger"
	"igcourier/pkg/models"
	"igcourier/pkg/reports"
	"igcourier/pkg/session"
)

const reportPrefix = "Report a Problem"

const helpText = `<b>How to use</b>

1. Open /features and pick a feature.
2. For the feed features, answer with the parameter template:

<code>username = target_account
count = 33
max_id = (token from the previous run)</code>

Only <code>username</code> is required. <code>count</code> sets the page size, <code>max_id</code> resumes a previous walk.

3. For the Link Downloader, just send a copied post link.

Use /stop to pause an active delivery, /report to file a problem.`

const reportText = `<b>Report a Problem</b>

Send a message starting with "` + reportPrefix + `" followed by what went wrong. Example:

<code>` + reportPrefix + `: the Videos feature returned status code 560</code>`

// Bot wraps the Telegram Bot API. It is both the update source feeding
// the controller and the transport the controller and dispatcher send
// through.
type Bot struct {
	api    *tgbotapi.BotAPI
	report *reports.Manager
	logger logger.Logger
}

// NewBot connects to the Telegram Bot API.
func NewBot(token string, report *reports.Manager, log logger.Logger) (*Bot, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	log.WithField("bot", api.Self.UserName).Info("connected to telegram")

	return &Bot{
		api:    api,
		report: report,
		logger: log,
	}, nil
}

// SendText sends an HTML-formatted text message to a chat.
func (b *Bot) SendText(chatID string, text string) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendMediaBatch sends one flushed batch as a media group. A single-item
// batch goes out as a plain photo or video send; the media group API
// needs at least two entries.
func (b *Bot) SendMediaBatch(chatID string, items []models.BatchItem) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	if len(items) == 1 {
		return b.sendSingle(id, items[0])
	}

	group := make([]interface{}, 0, len(items))
	for _, item := range items {
		file := tgbotapi.FileBytes{Name: item.Filename, Bytes: item.Data}
		if item.Kind == models.KindVideo {
			group = append(group, tgbotapi.NewInputMediaVideo(file))
		} else {
			group = append(group, tgbotapi.NewInputMediaPhoto(file))
		}
	}

	if _, err := b.api.SendMediaGroup(tgbotapi.NewMediaGroup(id, group)); err != nil {
		return fmt.Errorf("failed to send media group: %w", err)
	}
	return nil
}

func (b *Bot) sendSingle(chatID int64, item models.BatchItem) error {
	file := tgbotapi.FileBytes{Name: item.Filename, Bytes: item.Data}

	var err error
	if item.Kind == models.KindVideo {
		_, err = b.api.Send(tgbotapi.NewVideo(chatID, file))
	} else {
		_, err = b.api.Send(tgbotapi.NewPhoto(chatID, file))
	}
	if err != nil {
		return fmt.Errorf("failed to send media: %w", err)
	}
	return nil
}

// Run polls for updates until the context is cancelled. Each update is
// handled in its own goroutine so a long delivery in one chat never
// blocks commands from another; /stop for the same chat stays reachable
// because it only flips the session's stop flag.
func (b *Bot) Run(ctx context.Context, controller *session.Controller) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, controller, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, controller *session.Controller, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(controller, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, controller, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, controller *session.Controller, msg *tgbotapi.Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	text := msg.Text

	if msg.IsCommand() {
		b.handleCommand(controller, msg)
		return
	}

	if strings.HasPrefix(strings.TrimSpace(text), reportPrefix) {
		b.saveReport(chatID, msg.From, text)
		return
	}

	controller.Route(ctx, chatID, text)
}

func (b *Bot) handleCommand(controller *session.Controller, msg *tgbotapi.Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	b.logger.DebugWithFields("command received", map[string]interface{}{
		"chat_id": chatID,
		"command": msg.Command(),
	})

	switch msg.Command() {
	case "start", "hello":
		name := "there"
		if msg.From != nil && msg.From.FirstName != "" {
			name = msg.From.FirstName
		}
		b.send(chatID, fmt.Sprintf("Hello %s 👋\nPick a feature with /features, or see /help first.", name))
	case "help":
		b.send(chatID, helpText)
	case "features":
		b.sendFeatureKeyboard(msg.Chat.ID)
	case "stop":
		controller.RequestStop(chatID)
		b.send(chatID, "OK, stopping after the current item...")
	case "report":
		b.send(chatID, reportText)
	default:
		b.send(chatID, "Unrecognized command. Say what?")
	}
}

func (b *Bot) handleCallback(controller *session.Controller, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := strconv.FormatInt(cb.Message.Chat.ID, 10)

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.WithError(err).Warn("failed to acknowledge callback")
	}

	mode, ok := models.ModeFromFeature(cb.Data)
	if !ok {
		b.send(chatID, "Unrecognized command. Say what?")
		return
	}

	controller.SelectFeature(chatID, mode)
}

func (b *Bot) sendFeatureKeyboard(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("All Media", "All Media"),
			tgbotapi.NewInlineKeyboardButtonData("Images", "Images"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Videos", "Videos"),
			tgbotapi.NewInlineKeyboardButtonData("Link Downloader", "Link Downloader"),
		),
	)

	msg := tgbotapi.NewMessage(chatID, "Choose a feature:")
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).Warn("failed to send feature keyboard")
	}
}

func (b *Bot) saveReport(chatID string, from *tgbotapi.User, text string) {
	user := chatID
	if from != nil && from.UserName != "" {
		user = from.UserName
	}

	path, err := b.report.Save(user, text)
	if err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Error("failed to save report")
		b.send(chatID, "😥 Could not save your report, please try again.")
		return
	}

	b.logger.InfoWithFields("report saved", map[string]interface{}{
		"chat_id": chatID,
		"path":    path,
	})
	b.send(chatID, "🙏 Thanks! Your report has been recorded.")
}

// send logs and swallows transport failures; a dead chat must not take
// the update loop down with it.
func (b *Bot) send(chatID string, text string) {
	if err := b.SendText(chatID, text); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Warn("failed to send text message")
	}
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	return id, nil
}
