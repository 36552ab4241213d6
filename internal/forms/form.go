package forms

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-cms-locales/internal/documents"
)

// Collection holds form definitions as localized records.
const Collection = "forms"

// Field types understood by the validator.
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldEmail    = "email"
	FieldNumber   = "number"
	FieldSelect   = "select"
	FieldRadio    = "radio"
	FieldCheckbox = "checkbox"
	FieldDate     = "date"
	FieldFile     = "file"
)

// VisibilityPublic marks fields exposed by the public projection.
const VisibilityPublic = "public"

// Form is a published form definition in one locale.
type Form struct {
	ID                 int64
	DocumentID         string
	Locale             string
	Name               string
	Slug               string
	Description        string
	SuccessMessage     string
	Active             bool
	Fields             []Field
	RateLimitPerIP     int
	StorePDF           bool
	SendPDF            bool
	NotificationEmails []string
}

// Field describes one input of a form.
type Field struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Type        string      `json:"type"`
	Options     Options     `json:"options,omitempty"`
	Required    bool        `json:"required"`
	Visibility  string      `json:"visibility,omitempty"`
	Validation  *Validation `json:"validation,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	HelpText    string      `json:"helpText,omitempty"`
}

// Validation holds per-field constraints.
type Validation struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength int      `json:"minLength,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Regex     string   `json:"regex,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Options accepts either a list of values or an object with a values list.
type Options []string

func (o *Options) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*o = list
		return nil
	}
	var wrapped struct {
		Values []string `json:"values"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("forms: options must be a list or {values: [...]}: %w", err)
	}
	*o = wrapped.Values
	return nil
}

type formAttributes struct {
	Description        string   `json:"description"`
	SuccessMessage     string   `json:"successMessage"`
	Active             bool     `json:"active"`
	Fields             []Field  `json:"fields"`
	RateLimitPerIP     int      `json:"rateLimitPerIP"`
	StorePDF           bool     `json:"storePdf"`
	SendPDF            bool     `json:"sendPdf"`
	NotificationEmails []string `json:"notificationEmails"`
}

// FromRecord decodes a form definition stored as a localized record. The
// record title is the form name; the remaining attributes live in its fields.
func FromRecord(record *documents.Record) (*Form, error) {
	if record == nil {
		return nil, fmt.Errorf("forms: nil record")
	}
	raw, err := json.Marshal(record.Fields)
	if err != nil {
		return nil, err
	}
	var attrs formAttributes
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("forms: decode %s/%s: %w", record.DocumentID, record.Locale, err)
	}
	emails := make([]string, 0, len(attrs.NotificationEmails))
	for _, email := range attrs.NotificationEmails {
		if email = strings.TrimSpace(email); email != "" {
			emails = append(emails, email)
		}
	}
	return &Form{
		ID:                 record.ID,
		DocumentID:         record.DocumentID,
		Locale:             record.Locale,
		Name:               record.Title,
		Slug:               record.Slug,
		Description:        attrs.Description,
		SuccessMessage:     attrs.SuccessMessage,
		Active:             attrs.Active,
		Fields:             attrs.Fields,
		RateLimitPerIP:     attrs.RateLimitPerIP,
		StorePDF:           attrs.StorePDF,
		SendPDF:            attrs.SendPDF,
		NotificationEmails: emails,
	}, nil
}

// PublicForm is the unauthenticated projection of a form.
type PublicForm struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Slug           string        `json:"slug"`
	Description    string        `json:"description,omitempty"`
	SuccessMessage string        `json:"successMessage,omitempty"`
	Fields         []PublicField `json:"fields"`
}

// PublicField omits visibility and other admin attributes.
type PublicField struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Type        string      `json:"type"`
	Options     Options     `json:"options,omitempty"`
	Required    bool        `json:"required"`
	Validation  *Validation `json:"validation,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	HelpText    string      `json:"helpText,omitempty"`
}

// Public returns the projection containing only public fields.
func (f *Form) Public() PublicForm {
	out := PublicForm{
		ID:             f.ID,
		Name:           f.Name,
		Slug:           f.Slug,
		Description:    f.Description,
		SuccessMessage: f.SuccessMessage,
		Fields:         []PublicField{},
	}
	for _, field := range f.Fields {
		if field.Visibility != VisibilityPublic {
			continue
		}
		out.Fields = append(out.Fields, PublicField{
			Key:         field.Key,
			Label:       field.Label,
			Type:        field.Type,
			Options:     field.Options,
			Required:    field.Required,
			Validation:  field.Validation,
			Placeholder: field.Placeholder,
			HelpText:    field.HelpText,
		})
	}
	return out
}
