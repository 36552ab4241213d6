package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/internal/markdown"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

var (
	// ErrPDFUnavailable is returned when a submission has no stored PDF.
	ErrPDFUnavailable = errors.New("forms: pdf not available for this submission")
	// ErrUpload is returned when an uploaded file cannot be stored.
	ErrUpload = errors.New("forms: file upload failed")
)

// RateLimitError is returned when an address exceeded the per-form limit.
type RateLimitError struct {
	Limit   int
	Message string
}

func (e *RateLimitError) Error() string { return e.Message }

// SubmitRequest carries one public submission.
type SubmitRequest struct {
	Slug      string
	Locale    locale.Code
	Data      map[string]any
	Files     []interfaces.FileUpload
	IP        string
	UserAgent string
}

// SubmitResult acknowledges a stored submission.
type SubmitResult struct {
	SubmissionID uuid.UUID `json:"submissionId"`
	Message      string    `json:"message"`
}

// SubmissionObserver receives one outcome per Submit call.
type SubmissionObserver interface {
	ObserveSubmission(form, outcome string)
}

// Option customises a Service.
type Option func(*Service)

func WithFileStore(files interfaces.FileStore) Option {
	return func(s *Service) { s.files = files }
}

func WithPDFRenderer(renderer interfaces.PDFRenderer) Option {
	return func(s *Service) { s.pdf = renderer }
}

func WithMailer(mailer interfaces.Mailer) Option {
	return func(s *Service) { s.mailer = mailer }
}

// WithDispatcher runs PDF generation and notifications through dispatcher.
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(s *Service) {
		if dispatcher != nil {
			s.dispatcher = dispatcher
		}
	}
}

// WithSender sets the From and Reply-To address of notifications.
func WithSender(sender string) Option {
	return func(s *Service) { s.sender = strings.TrimSpace(sender) }
}

// WithAdminURL sets the base URL linked from notification emails.
func WithAdminURL(url string) Option {
	return func(s *Service) { s.adminURL = strings.TrimRight(url, "/") }
}

// WithRateLimitWindow sets the window over which submissions per address are counted.
func WithRateLimitWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(observer SubmissionObserver) Option {
	return func(s *Service) { s.observer = observer }
}

func WithMessages(messages *Messages) Option {
	return func(s *Service) {
		if messages != nil {
			s.messages = messages
		}
	}
}

// Service finds forms and processes public submissions.
type Service struct {
	store       documents.Store
	locales     *locale.Set
	submissions SubmissionRepository
	messages    *Messages
	markdown    *markdown.GoldmarkParser
	files       interfaces.FileStore
	pdf         interfaces.PDFRenderer
	mailer      interfaces.Mailer
	dispatcher  Dispatcher
	observer    SubmissionObserver
	logger      interfaces.Logger
	sender      string
	adminURL    string
	window      time.Duration
	now         func() time.Time
}

// NewService wires the form service.
func NewService(store documents.Store, locales *locale.Set, submissions SubmissionRepository, opts ...Option) *Service {
	if store == nil || locales == nil || submissions == nil {
		panic("forms: store, locales and submissions are required")
	}
	s := &Service{
		store:       store,
		locales:     locales,
		submissions: submissions,
		markdown:    markdown.NewGoldmarkParser(interfaces.ParseOptions{SafeMode: true}),
		dispatcher:  InlineDispatcher(),
		logger:      logging.NoOp(),
		sender:      "no-reply@localhost",
		window:      time.Hour,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.messages == nil {
		s.messages = MustMessages()
	}
	return s
}

// FindBySlug returns the active published form in code, falling back to
// the default locale.
func (s *Service) FindBySlug(ctx context.Context, slug string, code locale.Code) (*Form, error) {
	code = s.normalize(code)
	candidates := []locale.Code{code}
	if code != s.locales.Default() {
		candidates = append(candidates, s.locales.Default())
	}
	for _, candidate := range candidates {
		records, err := s.store.FindMany(ctx, Collection, documents.Filter{Slug: slug, PublishedOnly: true}, candidate.String(), 0)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			form, err := FromRecord(record)
			if err != nil {
				s.logger.WithContext(ctx).Warn("forms.decode_failed", "slug", slug, "locale", candidate.String(), "error", err)
				continue
			}
			if form.Active {
				return form, nil
			}
		}
	}
	return nil, &documents.NotFoundError{Resource: Collection, Key: slug}
}

// Submit validates and stores a submission, then hands PDF generation and
// notifications to the dispatcher.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	code := s.normalize(req.Locale)
	form, err := s.FindBySlug(ctx, req.Slug, code)
	if err != nil {
		return nil, err
	}
	logger := logging.WithDocumentContext(s.logger.WithContext(ctx), Collection, form.DocumentID, code.String())
	loc := s.messages.Localizer(code.String())
	ip := orUnknown(req.IP)
	now := s.now().UTC()

	if form.RateLimitPerIP > 0 {
		recent, err := s.submissions.CountRecent(ctx, form.DocumentID, ip, now.Add(-s.window))
		if err != nil {
			return nil, err
		}
		if recent >= form.RateLimitPerIP {
			s.observe(form.Slug, "rate_limited")
			return nil, &RateLimitError{
				Limit:   form.RateLimitPerIP,
				Message: loc.T("RateLimited", map[string]any{"Limit": form.RateLimitPerIP}),
			}
		}
	}

	data := req.Data
	if data == nil {
		data = map[string]any{}
	}
	if issues := Validate(form, data, req.Files, loc); len(issues) > 0 {
		s.observe(form.Slug, "invalid")
		return nil, &ValidationError{Issues: issues}
	}

	stored, err := s.storeUploads(ctx, form, req.Files)
	if err != nil {
		s.observe(form.Slug, "upload_failed")
		return nil, err
	}

	submission, err := s.submissions.Create(ctx, &Submission{
		FormID:         form.ID,
		FormDocumentID: form.DocumentID,
		FormSlug:       form.Slug,
		Data:           data,
		Files:          stored,
		IP:             ip,
		UserAgent:      orUnknown(req.UserAgent),
		Locale:         code.String(),
		SubmittedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("forms.submission.created", "submission_id", submission.ID.String())

	deliveryCtx := context.WithoutCancel(ctx)
	if err := s.dispatcher.Dispatch(func() { s.deliver(deliveryCtx, form, submission, loc) }); err != nil {
		logger.Warn("forms.dispatch.rejected", "submission_id", submission.ID.String(), "error", err)
	}
	s.observe(form.Slug, "accepted")

	message := form.SuccessMessage
	if message == "" {
		message = loc.T("SubmissionAccepted", nil)
	}
	return &SubmitResult{SubmissionID: submission.ID, Message: message}, nil
}

// DownloadPDF returns the stored PDF of a submission.
func (s *Service) DownloadPDF(ctx context.Context, id uuid.UUID) (*interfaces.StoredFile, []byte, error) {
	submission, err := s.submissions.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if submission.PDF == "" || s.files == nil {
		return nil, nil, ErrPDFUnavailable
	}
	file, data, err := s.files.Get(ctx, submission.PDF)
	if errors.Is(err, interfaces.ErrFileNotFound) {
		return nil, nil, fmt.Errorf("%w: %v", ErrPDFUnavailable, err)
	}
	if err != nil {
		return nil, nil, err
	}
	return file, data, nil
}

func (s *Service) storeUploads(ctx context.Context, form *Form, uploads []interfaces.FileUpload) ([]string, error) {
	keys := []string{}
	fileFields := map[string]bool{}
	for _, field := range form.Fields {
		if field.Type == FieldFile {
			fileFields[field.Key] = true
		}
	}
	for _, upload := range uploads {
		if !fileFields[upload.Field] {
			continue
		}
		if s.files == nil {
			return nil, fmt.Errorf("%w: no file store configured", ErrUpload)
		}
		name := upload.Name
		if name == "" {
			name = fmt.Sprintf("file-%d", s.now().UnixNano())
		}
		stored, err := s.files.Put(ctx, name, upload.ContentType, upload.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUpload, upload.Field, err)
		}
		keys = append(keys, stored.Key)
	}
	return keys, nil
}

// deliver generates the PDF copy and sends notifications. Failures are
// logged and never affect the stored submission.
func (s *Service) deliver(ctx context.Context, form *Form, submission *Submission, loc *Localizer) {
	logger := s.logger.WithContext(ctx)
	var pdf []byte

	if (form.StorePDF || form.SendPDF) && s.pdf != nil && s.files != nil {
		html, err := RenderDocument(form, submission, loc, s.markdown, "")
		if err == nil {
			pdf, err = s.pdf.Render(ctx, html)
		}
		if err == nil {
			var stored *interfaces.StoredFile
			stored, err = s.files.Put(ctx, fmt.Sprintf("form-submission-%s.pdf", submission.ID), "application/pdf", pdf)
			if err == nil {
				submission.PDF = stored.Key
				_, err = s.submissions.Update(ctx, submission)
			}
		}
		if err != nil {
			pdf = nil
			logger.Error("forms.pdf.failed", "submission_id", submission.ID.String(), "error", err)
		}
	}

	if len(form.NotificationEmails) == 0 || s.mailer == nil {
		return
	}
	adminLoc := s.messages.Localizer(s.locales.Default().String())
	link := ""
	if s.adminURL != "" {
		link = s.adminURL + "/form-submissions/" + submission.ID.String()
	}
	html, err := RenderDocument(form, submission, adminLoc, s.markdown, link)
	if err != nil {
		logger.Error("forms.email.render_failed", "submission_id", submission.ID.String(), "error", err)
		return
	}
	msg := interfaces.MailMessage{
		From:    s.sender,
		ReplyTo: s.sender,
		To:      form.NotificationEmails,
		Subject: adminLoc.T("EmailSubject", map[string]any{"Form": form.Name}),
		HTML:    string(html),
	}
	if form.SendPDF && pdf != nil {
		msg.Attachments = []interfaces.Attachment{{
			Name:        fmt.Sprintf("submission-%s.pdf", submission.ID),
			ContentType: "application/pdf",
			Data:        pdf,
		}}
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.Error("forms.email.failed", "submission_id", submission.ID.String(), "error", err)
		return
	}
	logger.Info("forms.email.sent", "submission_id", submission.ID.String(), "recipients", len(msg.To))
}

func (s *Service) normalize(code locale.Code) locale.Code {
	code = locale.Normalize(code.String())
	if code == "" || !s.locales.Supports(code) {
		return s.locales.Default()
	}
	return code
}

func (s *Service) observe(form, outcome string) {
	if s.observer != nil {
		s.observer.ObserveSubmission(form, outcome)
	}
}

func orUnknown(value string) string {
	if value = strings.TrimSpace(value); value == "" {
		return "unknown"
	}
	return value
}
