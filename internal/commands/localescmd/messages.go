package localescmd

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const bootstrapMessageType = "cms.locales.bootstrap"

var localeCodePattern = regexp.MustCompile(`^[a-z]{2,3}$`)

// BootstrapLocalesCommand makes sure every listed locale is persisted and
// that DefaultLocale is the only default.
type BootstrapLocalesCommand struct {
	DefaultLocale string   `json:"default_locale"`
	Locales       []string `json:"locales"`
}

// Type implements command.Message.
func (BootstrapLocalesCommand) Type() string { return bootstrapMessageType }

// Validate ensures the default locale is one of the listed codes.
func (cmd BootstrapLocalesCommand) Validate() error {
	codes := make([]any, 0, len(cmd.Locales))
	for _, code := range cmd.Locales {
		codes = append(codes, strings.ToLower(strings.TrimSpace(code)))
	}
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Locales,
			validation.Required.Error("at least one locale is required"),
			validation.Each(validation.By(func(value any) error {
				code, _ := value.(string)
				if !localeCodePattern.MatchString(strings.ToLower(strings.TrimSpace(code))) {
					return validation.NewError("cms.locales.bootstrap.code_invalid", "locale codes must be two or three letters")
				}
				return nil
			})),
		),
		validation.Field(&cmd.DefaultLocale,
			validation.Required.Error("default locale is required"),
			validation.By(func(value any) error {
				code := strings.ToLower(strings.TrimSpace(value.(string)))
				return validation.Validate(code, validation.In(codes...).Error("default locale must be listed in locales"))
			}),
		),
	)
}
