package forms_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/files"
	"github.com/goliatone/go-cms-locales/internal/forms"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

var published = time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

type stubRenderer struct {
	html []byte
	err  error
}

func (s *stubRenderer) Render(_ context.Context, html []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.html = html
	return []byte("%PDF-stub"), nil
}

type captureMailer struct {
	mu   sync.Mutex
	sent []interfaces.MailMessage
}

func (c *captureMailer) Send(_ context.Context, msg interfaces.MailMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureMailer) messages() []interfaces.MailMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interfaces.MailMessage(nil), c.sent...)
}

type outcomes struct {
	mu   sync.Mutex
	seen []string
}

func (o *outcomes) ObserveSubmission(_ string, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, outcome)
}

type fixture struct {
	svc         *forms.Service
	store       documents.Store
	submissions *forms.MemorySubmissionRepository
	files       *files.MemoryStore
	renderer    *stubRenderer
	mailer      *captureMailer
	outcomes    *outcomes
	now         time.Time
}

func newFixture(t *testing.T, opts ...forms.Option) *fixture {
	t.Helper()
	f := &fixture{
		store:       documents.NewMemoryStore(),
		submissions: forms.NewMemorySubmissionRepository(),
		files:       files.NewMemoryStore(),
		renderer:    &stubRenderer{},
		mailer:      &captureMailer{},
		outcomes:    &outcomes{},
		now:         time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	if _, err := f.store.Create(context.Background(), admissionRecord("en")); err != nil {
		t.Fatalf("seed form: %v", err)
	}
	base := []forms.Option{
		forms.WithFileStore(f.files),
		forms.WithPDFRenderer(f.renderer),
		forms.WithMailer(f.mailer),
		forms.WithObserver(f.outcomes),
		forms.WithAdminURL("https://cms.example.org/admin/"),
		forms.WithClock(func() time.Time { return f.now }),
	}
	f.svc = forms.NewService(f.store, locale.MustSet("en", "en", "ur", "ar", "fa"), f.submissions, append(base, opts...)...)
	return f
}

func validData() map[string]any {
	return map[string]any{"name": "Ayesha Khan", "email": "ayesha@example.org", "age": float64(9)}
}

func TestFindBySlugFallsBackToDefaultLocale(t *testing.T) {
	f := newFixture(t)

	form, err := f.svc.FindBySlug(context.Background(), "admission", "ur")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if form.Locale != "en" {
		t.Fatalf("expected English fallback, got %q", form.Locale)
	}

	if _, err := f.svc.FindBySlug(context.Background(), "missing", "en"); !documents.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindBySlugSkipsInactiveAndDrafts(t *testing.T) {
	f := newFixture(t)
	inactive := admissionRecord("ar")
	inactive.Fields["active"] = false
	if _, err := f.store.Create(context.Background(), inactive); err != nil {
		t.Fatalf("seed: %v", err)
	}
	draft := admissionRecord("fa")
	draft.Status = documents.StatusDraft
	draft.PublishedAt = nil
	if _, err := f.store.Create(context.Background(), draft); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, code := range []locale.Code{"ar", "fa"} {
		form, err := f.svc.FindBySlug(context.Background(), "admission", code)
		if err != nil {
			t.Fatalf("FindBySlug(%s): %v", code, err)
		}
		if form.Locale != "en" {
			t.Fatalf("%s: expected English form, got %q", code, form.Locale)
		}
	}
}

func TestSubmitStoresSubmissionPDFAndNotifies(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Submit(context.Background(), forms.SubmitRequest{
		Slug:      "admission",
		Locale:    "ar",
		Data:      validData(),
		Files:     []interfaces.FileUpload{{Field: "photo", Name: "me.jpg", ContentType: "image/jpeg", Data: []byte("jpg")}, {Field: "name", Name: "ignored.txt"}},
		IP:        "203.0.113.9",
		UserAgent: "test-agent",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Message != "We received your application" {
		t.Fatalf("expected form success message, got %q", result.Message)
	}

	stored, err := f.submissions.Get(context.Background(), result.SubmissionID)
	if err != nil {
		t.Fatalf("Get submission: %v", err)
	}
	if stored.Locale != "ar" || stored.IP != "203.0.113.9" || stored.UserAgent != "test-agent" || len(stored.Files) != 1 {
		t.Fatalf("unexpected stored submission %+v", stored)
	}
	if stored.PDF == "" {
		t.Fatalf("expected PDF key recorded on submission")
	}
	if !strings.Contains(string(f.renderer.html), `dir="rtl"`) || !strings.Contains(string(f.renderer.html), "<strong>today</strong>") {
		t.Fatalf("expected RTL document with rendered description, got %s", f.renderer.html)
	}

	sent := f.mailer.messages()
	if len(sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(sent))
	}
	if diff := cmp.Diff([]string{"office@example.org"}, sent[0].To); diff != "" {
		t.Fatalf("recipients mismatch (-want +got):\n%s", diff)
	}
	if sent[0].Subject != "New Form Submission: Admission Form" || len(sent[0].Attachments) != 1 {
		t.Fatalf("unexpected notification %+v", sent[0])
	}
	if !strings.Contains(sent[0].HTML, "https://cms.example.org/admin/form-submissions/"+result.SubmissionID.String()) {
		t.Fatalf("expected admin link in email")
	}

	file, data, err := f.svc.DownloadPDF(context.Background(), result.SubmissionID)
	if err != nil {
		t.Fatalf("DownloadPDF: %v", err)
	}
	if file.ContentType != "application/pdf" || string(data) != "%PDF-stub" {
		t.Fatalf("unexpected pdf %+v %q", file, data)
	}
}

func TestSubmitRejectsInvalidData(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), forms.SubmitRequest{Slug: "admission", Locale: "en", Data: map[string]any{"email": "x"}})
	var validationErr *forms.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validationErr.Issues) != 2 {
		t.Fatalf("expected two issues, got %+v", validationErr.Issues)
	}
	if len(f.mailer.messages()) != 0 {
		t.Fatalf("expected no notification for rejected submission")
	}
}

func TestSubmitEnforcesRateLimitWithinWindow(t *testing.T) {
	f := newFixture(t)
	submit := func() error {
		_, err := f.svc.Submit(context.Background(), forms.SubmitRequest{Slug: "admission", Data: validData(), IP: "198.51.100.7"})
		return err
	}

	for i := 0; i < 2; i++ {
		if err := submit(); err != nil {
			t.Fatalf("submission %d: %v", i, err)
		}
	}
	var limited *forms.RateLimitError
	if err := submit(); !errors.As(err, &limited) || limited.Limit != 2 {
		t.Fatalf("expected rate limit error, got %v", err)
	}

	other, err := f.svc.Submit(context.Background(), forms.SubmitRequest{Slug: "admission", Data: validData(), IP: "198.51.100.8"})
	if err != nil || other == nil {
		t.Fatalf("expected other address to pass, got %v", err)
	}

	f.now = f.now.Add(61 * time.Minute)
	if err := submit(); err != nil {
		t.Fatalf("expected window to expire, got %v", err)
	}

	want := []string{"accepted", "accepted", "rate_limited", "accepted", "accepted"}
	if diff := cmp.Diff(want, f.outcomes.seen); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitSurvivesPDFFailure(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = errors.New("renderer offline")

	result, err := f.svc.Submit(context.Background(), forms.SubmitRequest{Slug: "admission", Data: validData()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, _, err := f.svc.DownloadPDF(context.Background(), result.SubmissionID); !errors.Is(err, forms.ErrPDFUnavailable) {
		t.Fatalf("expected ErrPDFUnavailable, got %v", err)
	}
	sent := f.mailer.messages()
	if len(sent) != 1 || len(sent[0].Attachments) != 0 {
		t.Fatalf("expected notification without attachment, got %+v", sent)
	}
}

func TestSubmitDispatchesOnPool(t *testing.T) {
	pool, err := forms.NewPoolDispatcher(2, nil)
	if err != nil {
		t.Fatalf("NewPoolDispatcher: %v", err)
	}
	f := newFixture(t, forms.WithDispatcher(pool))

	if _, err := f.svc.Submit(context.Background(), forms.SubmitRequest{Slug: "admission", Data: validData()}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	pool.Close()
	if len(f.mailer.messages()) != 1 {
		t.Fatalf("expected notification delivered by pool")
	}
}

func TestDownloadPDFUnknownSubmission(t *testing.T) {
	f := newFixture(t)
	if _, _, err := f.svc.DownloadPDF(context.Background(), uuid.New()); !errors.Is(err, forms.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}
