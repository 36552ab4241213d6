package forms

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/goliatone/go-cms-locales/internal/markdown"
)

var submissionTemplate = template.Must(template.New("submission").Parse(`<!DOCTYPE html>
<html lang="{{.Locale}}" dir="{{.Dir}}">
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; padding: 20px; }
.header { border-bottom: 2px solid #333; padding-bottom: 10px; margin-bottom: 20px; }
.meta { margin-bottom: 20px; color: #666; font-size: 14px; }
table { width: 100%; border-collapse: collapse; }
td { padding: 8px; border-bottom: 1px solid #ddd; }
td.label { font-weight: bold; width: 30%; }
.footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #ddd; font-size: 12px; color: #666; text-align: center; }
</style>
</head>
<body>
<div class="header"><h1>{{.Form}}</h1>{{.Description}}</div>
<div class="meta">
<p><strong>{{.SubmittedLabel}}:</strong> {{.SubmittedAt}}</p>
<p><strong>{{.IDLabel}}:</strong> {{.SubmissionID}}</p>
</div>
<table>
{{range .Rows}}<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
{{if .AdminURL}}<p><a href="{{.AdminURL}}">{{.AdminURL}}</a></p>{{end}}
<div class="footer"><p>{{.Footer}}</p></div>
</body>
</html>
`))

type documentRow struct {
	Label string
	Value string
}

type documentView struct {
	Locale         string
	Dir            string
	Form           string
	Description    template.HTML
	SubmittedLabel string
	SubmittedAt    string
	IDLabel        string
	SubmissionID   string
	Rows           []documentRow
	AdminURL       string
	Footer         string
}

var rtlLocales = map[string]bool{"ar": true, "fa": true, "ur": true}

// RenderDocument renders the HTML body shared by the PDF copy and the
// notification email of a submission.
func RenderDocument(form *Form, submission *Submission, loc *Localizer, md *markdown.GoldmarkParser, adminURL string) ([]byte, error) {
	view := documentView{
		Locale:         submission.Locale,
		Dir:            "ltr",
		Form:           form.Name,
		SubmittedLabel: loc.T("DocumentSubmitted", nil),
		SubmittedAt:    submission.SubmittedAt.UTC().Format(time.RFC1123),
		IDLabel:        loc.T("DocumentSubmissionID", nil),
		SubmissionID:   submission.ID.String(),
		AdminURL:       adminURL,
		Footer:         loc.T("DocumentFooter", map[string]any{"Form": form.Name}),
	}
	if rtlLocales[submission.Locale] {
		view.Dir = "rtl"
	}
	if md != nil {
		description, err := md.HTML(form.Description)
		if err != nil {
			return nil, err
		}
		view.Description = description
	}
	for _, field := range form.Fields {
		value, ok := submission.Data[field.Key]
		if !ok || isBlank(value) {
			continue
		}
		view.Rows = append(view.Rows, documentRow{Label: field.Label, Value: displayValue(field, value, loc)})
	}

	var buf bytes.Buffer
	if err := submissionTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("forms: render document: %w", err)
	}
	return buf.Bytes(), nil
}

func displayValue(field Field, value any, loc *Localizer) string {
	switch field.Type {
	case FieldCheckbox:
		if truthy(value) {
			return loc.T("BooleanYes", nil)
		}
		return loc.T("BooleanNo", nil)
	case FieldDate:
		if s, ok := value.(string); ok {
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if parsed, err := time.Parse(layout, s); err == nil {
					return parsed.Format("2006-01-02")
				}
			}
		}
	}
	if list, ok := value.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	}
	if n, ok := value.(float64); ok {
		return formatNumber(n)
	}
	return fmt.Sprint(value)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != "" && v != "false" && v != "0"
	case float64:
		return v != 0
	default:
		return value != nil
	}
}
