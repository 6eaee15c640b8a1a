package i18n

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/openrouter-tgbot-go/internal/config"
)

// Localizer manages internationalization
type Localizer struct {
	bundle          *i18n.Bundle
	defaultLanguage string
	localizers      map[string]*i18n.Localizer
}

// NewLocalizer creates a new localizer
func NewLocalizer(cfg *config.I18nConfig) (*Localizer, error) {
	bundle := i18n.NewBundle(language.Russian)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, lang := range cfg.Languages {
		path := filepath.Join(cfg.Directory, lang+".json")
		if _, err := bundle.LoadMessageFile(path); err != nil {
			return nil, fmt.Errorf("failed to load language file %s: %w", path, err)
		}
	}

	localizers := make(map[string]*i18n.Localizer)
	for _, lang := range cfg.Languages {
		localizers[lang] = i18n.NewLocalizer(bundle, lang)
	}

	return &Localizer{
		bundle:          bundle,
		defaultLanguage: cfg.DefaultLanguage,
		localizers:      localizers,
	}, nil
}

// Get returns localized message
func (l *Localizer) Get(lang, messageID string, data map[string]interface{}) string {
	localizer, exists := l.localizers[lang]
	if !exists {
		localizer = l.localizers[l.defaultLanguage]
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID // Fallback to message ID
	}

	return msg
}

// Message IDs
const (
	MsgWelcome          = "welcome"
	MsgHelp             = "help"
	MsgProfile          = "profile"
	MsgUserUnknown      = "user_unknown"
	MsgConfigError      = "config_error"
	MsgTransientError   = "transient_error"
	MsgFormatError      = "format_error"
	MsgInternalError    = "internal_error"
	MsgRateLimited      = "rate_limited"
	MsgProcessing       = "processing"
	MsgSetModelUsage    = "set_model_usage"
	MsgModelChanged     = "model_changed"
	MsgModelFailed      = "model_failed"
	MsgSetTempUsage     = "set_temp_usage"
	MsgTempChanged      = "temp_changed"
	MsgTempInvalid      = "temp_invalid"
	MsgTempFailed       = "temp_failed"
	MsgClearConfirm     = "clear_confirm"
	MsgClearYes         = "clear_yes"
	MsgClearNo          = "clear_no"
	MsgHistoryCleared   = "history_cleared"
	MsgClearFailed      = "clear_failed"
	MsgClearCancelled   = "clear_cancelled"
	MsgStats            = "stats"
	MsgStatsDenied      = "stats_denied"
	MsgStatsFailed      = "stats_failed"
	MsgUnknownCommand   = "unknown_command"
	MsgNotSet           = "not_set"
)
