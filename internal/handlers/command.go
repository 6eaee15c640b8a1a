package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/openrouter-tgbot-go/internal/config"
	"github.com/openrouter-tgbot-go/internal/i18n"
	"github.com/openrouter-tgbot-go/internal/middleware"
	"github.com/openrouter-tgbot-go/internal/models"
	"github.com/openrouter-tgbot-go/internal/services/confirm"
	"github.com/openrouter-tgbot-go/internal/services/profilesvc"
	"github.com/openrouter-tgbot-go/internal/services/storage"
)

// CommandHandler handles telegram commands and confirmation callbacks
type CommandHandler struct {
	bot           *tgbotapi.BotAPI
	config        *config.Config
	profiles      *profilesvc.Service
	storage       *storage.Manager
	confirmations *confirm.Manager
	metrics       *middleware.Metrics
	localizer     *i18n.Localizer
	logger        *logrus.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(
	bot *tgbotapi.BotAPI,
	cfg *config.Config,
	profiles *profilesvc.Service,
	storageManager *storage.Manager,
	confirmations *confirm.Manager,
	metrics *middleware.Metrics,
	localizer *i18n.Localizer,
	logger *logrus.Logger,
) *CommandHandler {
	return &CommandHandler{
		bot:           bot,
		config:        cfg,
		profiles:      profiles,
		storage:       storageManager,
		confirmations: confirmations,
		metrics:       metrics,
		localizer:     localizer,
		logger:        logger,
	}
}

// HandleCommand processes telegram commands
func (h *CommandHandler) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID
	lang := h.userLanguage(ctx, userID, message.From.LanguageCode)

	switch message.Command() {
	case "start":
		return h.handleStart(ctx, message, lang)
	case "help":
		return h.handleHelp(chatID, message.MessageID, lang)
	case "profile":
		return h.handleProfile(ctx, chatID, message.MessageID, userID, lang)
	case "stats":
		return h.handleStats(ctx, chatID, message.MessageID, userID, lang)
	case "set_model":
		return h.handleSetModel(ctx, message, lang)
	case "set_temp":
		return h.handleSetTemp(ctx, message, lang)
	case "clear_history":
		return h.handleClearHistory(ctx, message, lang)
	default:
		return h.reply(chatID, message.MessageID, h.localizer.Get(lang, i18n.MsgUnknownCommand, nil))
	}
}

// HandleCallbackQuery processes confirmation keyboard callbacks. Data is
// "confirm:<token>:<choice>". Already-resolved tokens are acknowledged but
// trigger no store mutation.
func (h *CommandHandler) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	// Always release the button spinner, even for stale callbacks.
	defer h.bot.Request(tgbotapi.NewCallback(callback.ID, ""))

	parts := strings.Split(callback.Data, ":")
	if len(parts) != 3 || parts[0] != "confirm" {
		return nil
	}
	token, choice := parts[1], parts[2]

	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	lang := h.userLanguage(ctx, userID, callback.From.LanguageCode)

	resolution, ok := h.confirmations.Resolve(token, choice == "yes")
	if !ok {
		h.metrics.RecordConfirmation("stale")
		return nil
	}

	if resolution.State == confirm.Cancelled {
		h.metrics.RecordConfirmation("cancelled")
		return h.edit(chatID, messageID, h.localizer.Get(lang, i18n.MsgClearCancelled, nil))
	}

	if err := h.storage.ClearHistory(ctx, resolution.UserID); err != nil {
		h.logger.WithError(err).WithField("user_id", resolution.UserID).Error("Failed to clear history")
		h.metrics.RecordHistoryOperation("clear", "error")
		return h.edit(chatID, messageID, h.localizer.Get(lang, i18n.MsgClearFailed, nil))
	}

	h.metrics.RecordConfirmation("confirmed")
	h.metrics.RecordHistoryOperation("clear", "success")
	return h.edit(chatID, messageID, h.localizer.Get(lang, i18n.MsgHistoryCleared, nil))
}

func (h *CommandHandler) handleStart(ctx context.Context, message *tgbotapi.Message, lang string) error {
	from := message.From
	profile, err := h.profiles.Ensure(ctx, models.UserProfile{
		UserID:       from.ID,
		Username:     from.UserName,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		LanguageCode: from.LanguageCode,
		IsBot:        from.IsBot,
	})
	if err != nil {
		h.logger.WithError(err).WithField("user_id", from.ID).Error("Failed to ensure profile")
		return h.reply(message.Chat.ID, message.MessageID, h.localizer.Get(lang, i18n.MsgInternalError, nil))
	}

	lang = h.pickLanguage(profile.LanguageCode)
	text := h.localizer.Get(lang, i18n.MsgWelcome, map[string]interface{}{
		"Name": profile.FirstName,
	})
	return h.reply(message.Chat.ID, message.MessageID, text)
}

func (h *CommandHandler) handleHelp(chatID int64, messageID int, lang string) error {
	return h.reply(chatID, messageID, h.localizer.Get(lang, i18n.MsgHelp, nil))
}

func (h *CommandHandler) handleProfile(ctx context.Context, chatID int64, messageID int, userID int64, lang string) error {
	profile, err := h.profiles.Get(ctx, userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to load profile")
		return h.reply(chatID, messageID, h.localizer.Get(lang, i18n.MsgInternalError, nil))
	}
	if profile == nil {
		return h.reply(chatID, messageID, h.localizer.Get(lang, i18n.MsgUserUnknown, nil))
	}

	notSet := h.localizer.Get(lang, i18n.MsgNotSet, nil)
	text := h.localizer.Get(lang, i18n.MsgProfile, map[string]interface{}{
		"ID":          profile.UserID,
		"Username":    orDefault(profile.Username, notSet),
		"FirstName":   orDefault(profile.FirstName, notSet),
		"LastName":    orDefault(profile.LastName, notSet),
		"Language":    orDefault(profile.LanguageCode, notSet),
		"Model":       profile.AIModel,
		"Temperature": profile.Temperature,
		"CreatedAt":   profile.CreatedAt.Format("2006-01-02"),
		"LastSeen":    profile.LastSeen.Format("2006-01-02 15:04:05"),
	})

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	msg.ParseMode = "HTML"
	_, err = h.bot.Send(msg)
	return err
}

func (h *CommandHandler) handleStats(ctx context.Context, chatID int64, messageID int, userID int64, lang string) error {
	if !h.isAdmin(userID) {
		return h.reply(chatID, messageID, h.localizer.Get(lang, i18n.MsgStatsDenied, nil))
	}

	stats, err := h.storage.Stats(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load stats")
		return h.reply(chatID, messageID, h.localizer.Get(lang, i18n.MsgStatsFailed, nil))
	}

	text := h.localizer.Get(lang, i18n.MsgStats, map[string]interface{}{
		"TotalUsers":        stats.TotalUsers,
		"ActiveToday":       stats.ActiveToday,
		"UsersWithSettings": stats.UsersWithSettings,
	})
	return h.reply(chatID, messageID, text)
}

func (h *CommandHandler) handleSetModel(ctx context.Context, message *tgbotapi.Message, lang string) error {
	chatID := message.Chat.ID
	userID := message.From.ID

	if known, err := h.requireProfile(ctx, chatID, message.MessageID, userID, lang); err != nil || !known {
		return err
	}

	args := strings.Fields(message.CommandArguments())
	if len(args) == 0 {
		return h.reply(chatID, message.MessageID, h.localizer.Get(lang, i18n.MsgSetModelUsage, nil))
	}

	model := args[0]
	if !h.profiles.UpdateModel(ctx, userID, model) {
		return h.reply(chatID, message.MessageID, h.localizer.Get(lang, i18n.MsgModelFailed, nil))
	}

	return h.reply(chatID, message.MessageID, h.localizer.Get(lang, i18n.MsgModelChanged, map[string]interface{}{
		"Model": model,
	}))
}

func (h *CommandHandler) handleSetTemp(ctx context.Context, message *tgbotapi.Message, lang string) error {
	chatID := message.Chat.ID
	userID := message.From.ID

	if known, err := h.requireProfile(ctx, chatID, message.MessageID, userID, lang); err != nil || !known {
		return err
	}

	args := strings.Fields(message.CommandArguments())
	if len(args) == 0 {
		return h.reply(chatID, message.MessageID, h.localizer.Get(lang, i18n.MsgSetTempUsage, nil))
	}

	temp, ok := profilesvc.ParseTemperature(args[0])
	if !ok {
		return h.reply(chatID, message.MessageID, h.localizer.Get(lang, i18n.MsgTempInvalid, nil))
	}

	if !h.profiles.UpdateTemperature(ctx, userID, temp) {
		return h.reply(chatID, message.MessageID, h.localizer.Get(lang, i18n.MsgTempFailed, nil))
	}

	return h.reply(chatID, message.MessageID, h.localizer.Get(lang, i18n.MsgTempChanged, map[string]interface{}{
		"Temperature": temp,
	}))
}

func (h *CommandHandler) handleClearHistory(ctx context.Context, message *tgbotapi.Message, lang string) error {
	chatID := message.Chat.ID
	userID := message.From.ID

	if known, err := h.requireProfile(ctx, chatID, message.MessageID, userID, lang); err != nil || !known {
		return err
	}

	token := h.confirmations.Begin(userID, confirm.ActionClearHistory)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				h.localizer.Get(lang, i18n.MsgClearYes, nil), "confirm:"+token+":yes"),
			tgbotapi.NewInlineKeyboardButtonData(
				h.localizer.Get(lang, i18n.MsgClearNo, nil), "confirm:"+token+":no"),
		),
	)

	msg := tgbotapi.NewMessage(chatID, h.localizer.Get(lang, i18n.MsgClearConfirm, nil))
	msg.ReplyToMessageID = message.MessageID
	msg.ReplyMarkup = keyboard
	_, err := h.bot.Send(msg)
	return err
}

// requireProfile replies with the initialization prompt when the user has no
// profile yet. Settings commands never create one implicitly.
func (h *CommandHandler) requireProfile(ctx context.Context, chatID int64, messageID int, userID int64, lang string) (bool, error) {
	profile, err := h.profiles.Get(ctx, userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to load profile")
		return false, h.reply(chatID, messageID, h.localizer.Get(lang, i18n.MsgInternalError, nil))
	}
	if profile == nil {
		return false, h.reply(chatID, messageID, h.localizer.Get(lang, i18n.MsgUserUnknown, nil))
	}
	return true, nil
}

func (h *CommandHandler) reply(chatID int64, messageID int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	_, err := h.bot.Send(msg)
	return err
}

func (h *CommandHandler) edit(chatID int64, messageID int, text string) error {
	_, err := h.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func (h *CommandHandler) isAdmin(userID int64) bool {
	for _, id := range h.config.Bot.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// userLanguage prefers the stored profile language, then the transport hint.
func (h *CommandHandler) userLanguage(ctx context.Context, userID int64, hint string) string {
	profile, err := h.profiles.Get(ctx, userID)
	if err == nil && profile != nil && profile.LanguageCode != "" {
		return h.pickLanguage(profile.LanguageCode)
	}
	return h.pickLanguage(hint)
}

func (h *CommandHandler) pickLanguage(code string) string {
	for _, lang := range h.config.I18n.Languages {
		if lang == code {
			return lang
		}
	}
	return h.config.I18n.DefaultLanguage
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
