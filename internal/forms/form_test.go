package forms_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/forms"
)

func admissionRecord(code string) *documents.Record {
	return &documents.Record{
		Collection:  forms.Collection,
		DocumentID:  "admission",
		Locale:      code,
		Title:       "Admission Form",
		Slug:        "admission",
		Status:      documents.StatusPublished,
		PublishedAt: &published,
		Fields: map[string]any{
			"description":        "Apply **today**",
			"successMessage":     "We received your application",
			"active":             true,
			"rateLimitPerIP":     float64(2),
			"storePdf":           true,
			"sendPdf":            true,
			"notificationEmails": []any{"office@example.org", " "},
			"fields": []any{
				map[string]any{"key": "name", "label": "Full name", "type": "text", "required": true, "visibility": "public", "validation": map[string]any{"minLength": float64(3)}},
				map[string]any{"key": "email", "label": "Email", "type": "email", "required": true, "visibility": "public"},
				map[string]any{"key": "age", "label": "Age", "type": "number", "visibility": "public", "validation": map[string]any{"min": float64(4), "max": float64(18)}},
				map[string]any{"key": "grade", "label": "Grade", "type": "select", "visibility": "public", "options": map[string]any{"values": []any{"KG", "1", "2"}}},
				map[string]any{"key": "cnic", "label": "CNIC", "type": "text", "visibility": "public", "validation": map[string]any{"regex": `^\d{5}-\d{7}-\d$`}},
				map[string]any{"key": "photo", "label": "Photo", "type": "file", "visibility": "public"},
				map[string]any{"key": "notes", "label": "Internal notes", "type": "textarea", "visibility": "admin"},
			},
		},
	}
}

func TestFromRecordDecodesAttributes(t *testing.T) {
	form, err := forms.FromRecord(admissionRecord("en"))
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if form.Name != "Admission Form" || !form.Active || form.RateLimitPerIP != 2 || !form.StorePDF {
		t.Fatalf("unexpected form %+v", form)
	}
	if diff := cmp.Diff([]string{"office@example.org"}, form.NotificationEmails); diff != "" {
		t.Fatalf("emails mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(forms.Options{"KG", "1", "2"}, form.Fields[3].Options); diff != "" {
		t.Fatalf("options object not decoded (-want +got):\n%s", diff)
	}
}

func TestPublicProjectionHidesAdminFields(t *testing.T) {
	form, err := forms.FromRecord(admissionRecord("en"))
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	public := form.Public()
	keys := []string{}
	for _, field := range public.Fields {
		keys = append(keys, field.Key)
	}
	if diff := cmp.Diff([]string{"name", "email", "age", "grade", "cnic", "photo"}, keys); diff != "" {
		t.Fatalf("public fields mismatch (-want +got):\n%s", diff)
	}
}
