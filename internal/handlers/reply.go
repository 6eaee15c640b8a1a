package handlers

import (
	"errors"

	"github.com/openrouter-tgbot-go/internal/i18n"
	"github.com/openrouter-tgbot-go/internal/outcome"
)

// replyForOutcome maps a generation outcome to a localized user-facing
// message. This is the only place outcomes become text; raw causes never
// reach the user.
func replyForOutcome(localizer *i18n.Localizer, lang string, err error) (string, string) {
	switch {
	case errors.Is(err, outcome.ErrUserUnknown):
		return localizer.Get(lang, i18n.MsgUserUnknown, nil), "user_unknown"
	case errors.Is(err, outcome.ErrConfig):
		return localizer.Get(lang, i18n.MsgConfigError, nil), "config_error"
	case errors.Is(err, outcome.ErrBadFormat):
		return localizer.Get(lang, i18n.MsgFormatError, nil), "format_error"
	case errors.Is(err, outcome.ErrTransient):
		return localizer.Get(lang, i18n.MsgTransientError, nil), "transient"
	default:
		return localizer.Get(lang, i18n.MsgInternalError, nil), "internal"
	}
}
