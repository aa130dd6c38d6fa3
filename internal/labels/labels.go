// Package labels renders domain values as user-facing text. Spanish is the
// default language; English is available for the admin tooling.
package labels

import (
	"embed"
	"encoding/json"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"polimata/pkg/domain"
	"polimata/pkg/leads"
)

//go:embed locales/*.json
var locales embed.FS

const DefaultLanguage = "es"

var bundle = loadBundle()

func loadBundle() *i18n.Bundle {
	b := i18n.NewBundle(language.Spanish)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, name := range []string{"locales/es.json", "locales/en.json"} {
		if _, err := b.LoadMessageFileFS(locales, name); err != nil {
			panic("labels: load " + name + ": " + err.Error())
		}
	}
	return b
}

// Translator resolves labels for one language.
type Translator struct {
	lang      string
	localizer *i18n.Localizer
}

// New returns a translator for lang, falling back to Spanish for unknown or empty input.
func New(lang string) *Translator {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = DefaultLanguage
	}
	return &Translator{
		lang:      lang,
		localizer: i18n.NewLocalizer(bundle, lang, DefaultLanguage),
	}
}

func (t *Translator) Language() string { return t.lang }

// Status labels a contact status. Unknown values render as "new".
func (t *Translator) Status(s domain.ContactStatus) string {
	switch s {
	case domain.StatusContacted:
		return t.message("StatusContacted")
	case domain.StatusClosed:
		return t.message("StatusClosed")
	default:
		return t.message("StatusNew")
	}
}

// Priority labels an AI priority; unknown or empty values render as "".
func (t *Translator) Priority(p domain.Priority) string {
	switch p {
	case domain.PriorityLow:
		return t.message("PriorityLow")
	case domain.PriorityMedium:
		return t.message("PriorityMedium")
	case domain.PriorityHigh:
		return t.message("PriorityHigh")
	case domain.PriorityUrgent:
		return t.message("PriorityUrgent")
	default:
		return ""
	}
}

func (t *Translator) Source(s domain.DataSource) string {
	if s == domain.SourceMock {
		return t.message("SourceMock")
	}
	return t.message("SourceBackend")
}

func (t *Translator) ScoreBand(b leads.Band) string {
	switch b {
	case leads.BandExcellent:
		return t.message("BandExcellent")
	case leads.BandGood:
		return t.message("BandGood")
	case leads.BandFair:
		return t.message("BandFair")
	case leads.BandPoor:
		return t.message("BandPoor")
	default:
		return t.message("BandNone")
	}
}

func (t *Translator) message(id string) string {
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil {
		return ""
	}
	return msg
}
