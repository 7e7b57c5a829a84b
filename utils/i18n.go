package utils

import (
	"embed"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// SupportedLanguages lists the locales shipped in locales/
var SupportedLanguages = []string{"en", "pt-BR"}

var (
	// Bundle is the global translation bundle
	Bundle *i18n.Bundle
	// Localizer is the default localizer
	Localizer *i18n.Localizer

	matcher = language.NewMatcher([]language.Tag{language.English, language.BrazilianPortuguese})
)

// InitI18n loads the embedded message files. It is safe to call more than once.
func InitI18n() error {
	Bundle = i18n.NewBundle(language.English)
	Bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, lang := range SupportedLanguages {
		path := "locales/active." + lang + ".toml"
		if _, err := Bundle.LoadMessageFileFS(localeFS, path); err != nil {
			Log.Warn("Failed to load locale %s: %v", lang, err)
		}
	}

	Localizer = i18n.NewLocalizer(Bundle, language.English.String())

	Log.Debug("i18n system initialized")
	return nil
}

// MatchLanguage picks the best supported language for an Accept-Language
// header or an explicit tag. Anything unrecognized maps to "en".
func MatchLanguage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "en"
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "en"
	}
	return SupportedLanguages[idx]
}

// GetLocalizer returns a localizer for the specified language
func GetLocalizer(lang string) *i18n.Localizer {
	if Bundle == nil {
		InitI18n()
	}
	if lang == "" {
		lang = "en"
	}
	return i18n.NewLocalizer(Bundle, lang)
}

// T translates a message ID, returning the ID itself when no translation exists
func T(localizer *i18n.Localizer, messageID string) string {
	if localizer == nil {
		localizer = GetLocalizer("en")
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID: messageID,
	})
	if err != nil {
		Log.Debug("Translation error for '%s': %v", messageID, err)
		return messageID
	}
	return msg
}
