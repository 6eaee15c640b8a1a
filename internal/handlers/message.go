package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/openrouter-tgbot-go/internal/config"
	"github.com/openrouter-tgbot-go/internal/i18n"
	"github.com/openrouter-tgbot-go/internal/middleware"
	"github.com/openrouter-tgbot-go/internal/services/profilesvc"
	"github.com/openrouter-tgbot-go/internal/services/responder"
	"github.com/openrouter-tgbot-go/internal/services/storage"
	"github.com/openrouter-tgbot-go/pkg/markdown"
)

const maxMessageBytes = 4096

// MessageHandler handles ordinary text messages
type MessageHandler struct {
	config      *config.Config
	bot         *tgbotapi.BotAPI
	responder   *responder.Responder
	profiles    *profilesvc.Service
	storage     *storage.Manager
	rateLimiter middleware.RateLimiter
	metrics     *middleware.Metrics
	localizer   *i18n.Localizer
	logger      *logrus.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(
	cfg *config.Config,
	bot *tgbotapi.BotAPI,
	resp *responder.Responder,
	profiles *profilesvc.Service,
	storageManager *storage.Manager,
	rateLimiter middleware.RateLimiter,
	metrics *middleware.Metrics,
	localizer *i18n.Localizer,
	logger *logrus.Logger,
) *MessageHandler {
	return &MessageHandler{
		config:      cfg,
		bot:         bot,
		responder:   resp,
		profiles:    profiles,
		storage:     storageManager,
		rateLimiter: rateLimiter,
		metrics:     metrics,
		localizer:   localizer,
		logger:      logger,
	}
}

// HandleMessage generates and delivers a reply for a plain text message
func (h *MessageHandler) HandleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.Text == "" || message.From.IsBot {
		return nil
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	lang := h.userLanguage(ctx, userID, message.From.LanguageCode)

	if len(message.Text) > maxMessageBytes {
		h.logger.WithField("user_id", userID).Warn("Message too long, ignoring")
		return nil
	}

	if !h.rateLimiter.Allow(userID) {
		h.metrics.RecordRateLimited()
		return h.reply(chatID, message.MessageID, h.localizer.Get(lang, i18n.MsgRateLimited, nil))
	}

	// Show "typing" while the completion is in flight.
	if _, err := h.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		h.logger.WithError(err).Debug("Failed to send chat action")
	}

	if err := h.storage.MarkActive(ctx, userID); err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Debug("Failed to mark activity")
	}
	h.profiles.Touch(ctx, userID)

	started := time.Now()
	reply, err := h.responder.Generate(ctx, userID, message.Text)
	if err != nil {
		text, kind := replyForOutcome(h.localizer, lang, err)
		h.metrics.RecordGeneration(kind)
		if kind != "user_unknown" {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"outcome": kind,
			}).Warn("Generation failed")
		}
		return h.reply(chatID, message.MessageID, text)
	}

	h.metrics.RecordGeneration("success")
	if profile, err := h.profiles.Get(ctx, userID); err == nil && profile != nil {
		h.metrics.RecordCompletion(profile.AIModel, time.Since(started))
	}
	h.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"duration": time.Since(started),
	}).Debug("Generated reply")

	return h.sendFormatted(chatID, message.MessageID, reply)
}

// sendFormatted delivers the reply as Telegram HTML, falling back to plain
// text when the converted markup is rejected.
func (h *MessageHandler) sendFormatted(chatID int64, messageID int, reply string) error {
	msg := tgbotapi.NewMessage(chatID, markdown.ToTelegramHTML(reply))
	msg.ReplyToMessageID = messageID
	msg.ParseMode = "HTML"

	if _, err := h.bot.Send(msg); err != nil {
		h.logger.WithError(err).Warn("Failed to send HTML reply, trying plain text")
		plain := tgbotapi.NewMessage(chatID, reply)
		plain.ReplyToMessageID = messageID
		_, err = h.bot.Send(plain)
		return err
	}
	return nil
}

func (h *MessageHandler) reply(chatID int64, messageID int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	_, err := h.bot.Send(msg)
	return err
}

func (h *MessageHandler) userLanguage(ctx context.Context, userID int64, hint string) string {
	profile, err := h.profiles.Get(ctx, userID)
	code := hint
	if err == nil && profile != nil && profile.LanguageCode != "" {
		code = profile.LanguageCode
	}
	for _, lang := range h.config.I18n.Languages {
		if lang == code {
			return lang
		}
	}
	return h.config.I18n.DefaultLanguage
}
