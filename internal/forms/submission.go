package forms

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrSubmissionNotFound is returned for unknown submission ids.
var ErrSubmissionNotFound = errors.New("forms: submission not found")

// Submission is a stored form submission.
type Submission struct {
	bun.BaseModel `bun:"table:form_submissions,alias:fs"`

	ID             uuid.UUID      `bun:"id,pk,type:uuid" json:"id"`
	FormID         int64          `bun:"form_id,notnull" json:"formId"`
	FormDocumentID string         `bun:"form_document_id,notnull" json:"formDocumentId"`
	FormSlug       string         `bun:"form_slug,notnull" json:"formSlug"`
	Data           map[string]any `bun:"data,type:jsonb" json:"data"`
	Files          []string       `bun:"files,type:jsonb" json:"files"`
	IP             string         `bun:"ip" json:"ip"`
	UserAgent      string         `bun:"user_agent" json:"userAgent"`
	Locale         string         `bun:"locale" json:"locale"`
	PDF            string         `bun:"pdf" json:"pdf,omitempty"`
	SubmittedAt    time.Time      `bun:"submitted_at,nullzero,notnull" json:"submittedAt"`
}

// SubmissionRepository persists submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *Submission) (*Submission, error)
	Update(ctx context.Context, submission *Submission) (*Submission, error)
	Get(ctx context.Context, id uuid.UUID) (*Submission, error)
	// CountRecent counts submissions to a form from ip strictly after since.
	CountRecent(ctx context.Context, formDocumentID, ip string, since time.Time) (int, error)
}

// MemorySubmissionRepository keeps submissions in memory.
type MemorySubmissionRepository struct {
	mu      sync.RWMutex
	records []*Submission
}

// NewMemorySubmissionRepository constructs an empty repository.
func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{}
}

func (m *MemorySubmissionRepository) Create(ctx context.Context, submission *Submission) (*Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *submission
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	m.records = append(m.records, &copied)
	out := copied
	return &out, nil
}

func (m *MemorySubmissionRepository) Update(ctx context.Context, submission *Submission) (*Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := slices.IndexFunc(m.records, func(s *Submission) bool { return s.ID == submission.ID })
	if idx < 0 {
		return nil, ErrSubmissionNotFound
	}
	copied := *submission
	m.records[idx] = &copied
	out := copied
	return &out, nil
}

func (m *MemorySubmissionRepository) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, record := range m.records {
		if record.ID == id {
			out := *record
			return &out, nil
		}
	}
	return nil, ErrSubmissionNotFound
}

func (m *MemorySubmissionRepository) CountRecent(ctx context.Context, formDocumentID, ip string, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, record := range m.records {
		if record.FormDocumentID == formDocumentID && record.IP == ip && record.SubmittedAt.After(since) {
			total++
		}
	}
	return total, nil
}

// NewSubmissionRepository builds the go-repository-bun repository for submissions.
func NewSubmissionRepository(db *bun.DB) repository.Repository[*Submission] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Submission]{
		NewRecord: func() *Submission { return &Submission{} },
		GetID: func(s *Submission) uuid.UUID {
			return s.ID
		},
		SetID: func(s *Submission, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(s *Submission) string {
			return s.ID.String()
		},
	})
}

// BunSubmissionRepository implements SubmissionRepository with bun.
type BunSubmissionRepository struct {
	db   *bun.DB
	repo repository.Repository[*Submission]
}

// NewBunSubmissionRepository constructs the SQL-backed repository.
func NewBunSubmissionRepository(db *bun.DB) *BunSubmissionRepository {
	return &BunSubmissionRepository{db: db, repo: NewSubmissionRepository(db)}
}

func (r *BunSubmissionRepository) Create(ctx context.Context, submission *Submission) (*Submission, error) {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	created, err := r.repo.Create(ctx, submission)
	if err != nil {
		return nil, fmt.Errorf("submission repository error: %w", err)
	}
	return created, nil
}

func (r *BunSubmissionRepository) Update(ctx context.Context, submission *Submission) (*Submission, error) {
	updated, err := r.repo.Update(ctx, submission,
		repository.UpdateByID(submission.ID.String()),
		repository.UpdateColumns("pdf", "files", "data"),
	)
	if err != nil {
		return nil, mapSubmissionError(err)
	}
	return updated, nil
}

func (r *BunSubmissionRepository) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapSubmissionError(err)
	}
	return record, nil
}

func (r *BunSubmissionRepository) CountRecent(ctx context.Context, formDocumentID, ip string, since time.Time) (int, error) {
	return r.db.NewSelect().
		Model((*Submission)(nil)).
		Where("?TableAlias.form_document_id = ?", formDocumentID).
		Where("?TableAlias.ip = ?", ip).
		Where("?TableAlias.submitted_at > ?", since).
		Count(ctx)
}

func mapSubmissionError(err error) error {
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return ErrSubmissionNotFound
	}
	return fmt.Errorf("submission repository error: %w", err)
}
