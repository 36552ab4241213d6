package forms

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed messages/*.toml
var messageFiles embed.FS

// Messages localizes validation and notification strings.
type Messages struct {
	bundle *i18n.Bundle
}

// NewMessages loads the embedded catalogues with English as the source
// language.
func NewMessages() (*Messages, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	paths, err := fs.Glob(messageFiles, "messages/*.toml")
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		if _, err := bundle.LoadMessageFileFS(messageFiles, path); err != nil {
			return nil, fmt.Errorf("forms: load %s: %w", path, err)
		}
	}
	return &Messages{bundle: bundle}, nil
}

// MustMessages panics when the embedded catalogues cannot be loaded.
func MustMessages() *Messages {
	m, err := NewMessages()
	if err != nil {
		panic(err)
	}
	return m
}

// Localizer returns a translator for code with English fallback.
func (m *Messages) Localizer(code string) *Localizer {
	return &Localizer{inner: i18n.NewLocalizer(m.bundle, code, language.English.String())}
}

// Localizer translates message ids for one locale.
type Localizer struct {
	inner *i18n.Localizer
}

// T returns the translation of id, or id itself when no catalogue has it.
func (l *Localizer) T(id string, data map[string]any) string {
	out, err := l.inner.Localize(&i18n.LocalizeConfig{
		MessageID:      id,
		DefaultMessage: &i18n.Message{ID: id, Other: id},
		TemplateData:   data,
	})
	if err != nil {
		return id
	}
	return out
}
