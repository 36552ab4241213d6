package documents

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Publication states.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// PopulateAll requests every relation payload.
const PopulateAll = "*"

// Record is one locale variant of a logical document. ID is the numeric key
// and is only meaningful together with the locale it was assigned in;
// DocumentID is shared by every variant of the same document.
type Record struct {
	bun.BaseModel `bun:"table:localized_records,alias:lr"`

	RowID       uuid.UUID      `bun:"id,pk,type:uuid"                                 json:"-"`
	ID          int64          `bun:"numeric_id,notnull,unique:collection_numeric_id" json:"id"`
	DocumentID  string         `bun:"document_id,notnull"                             json:"documentId"`
	Collection  string         `bun:"collection,notnull,unique:collection_numeric_id" json:"-"`
	Locale      string         `bun:"locale,notnull"                                  json:"locale"`
	Status      string         `bun:"status,notnull,default:'draft'"                  json:"status"`
	Title       string         `bun:"title"                                           json:"title,omitempty"`
	Slug        string         `bun:"slug"                                            json:"slug,omitempty"`
	PublishedAt *time.Time     `bun:"published_at,nullzero"                           json:"publishedAt"`
	StartAt     *time.Time     `bun:"start_at,nullzero"                               json:"startAt,omitempty"`
	EndAt       *time.Time     `bun:"end_at,nullzero"                                 json:"endAt,omitempty"`
	Fields      map[string]any `bun:"fields,type:jsonb"                               json:"-"`
	Relations   map[string]any `bun:"relations,type:jsonb"                            json:"-"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,default:current_timestamp"   json:"createdAt"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,default:current_timestamp"   json:"updatedAt"`
}

// IsPublished reports whether the record is visible to public reads.
func (r *Record) IsPublished() bool {
	return r != nil && r.Status == StatusPublished && r.PublishedAt != nil
}

// Key returns the numeric key as a string.
func (r *Record) Key() string {
	return fmt.Sprintf("%d", r.ID)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	copied := *r
	copied.PublishedAt = cloneTime(r.PublishedAt)
	copied.StartAt = cloneTime(r.StartAt)
	copied.EndAt = cloneTime(r.EndAt)
	copied.Fields = cloneMap(r.Fields)
	copied.Relations = cloneMap(r.Relations)
	return &copied
}

// WithPopulate returns a copy of r carrying only the requested relations.
func (r *Record) WithPopulate(populate []string) *Record {
	copied := r.Clone()
	if copied == nil {
		return nil
	}
	if slices.Contains(populate, PopulateAll) {
		return copied
	}
	if len(populate) == 0 || len(copied.Relations) == 0 {
		copied.Relations = nil
		return copied
	}
	kept := make(map[string]any, len(populate))
	for _, name := range populate {
		if value, ok := copied.Relations[strings.TrimSpace(name)]; ok {
			kept[name] = value
		}
	}
	copied.Relations = kept
	return copied
}

// MarshalJSON flattens free-form fields and populated relations into the
// record payload. Core attributes always win over field keys.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	core, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	if len(r.Fields) == 0 && len(r.Relations) == 0 {
		return core, nil
	}
	out := make(map[string]json.RawMessage, len(r.Fields)+len(r.Relations)+12)
	for key, value := range r.Fields {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode field %s: %w", key, err)
		}
		out[key] = encoded
	}
	for key, value := range r.Relations {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode relation %s: %w", key, err)
		}
		out[key] = encoded
	}
	var coreFields map[string]json.RawMessage
	if err := json.Unmarshal(core, &coreFields); err != nil {
		return nil, err
	}
	maps.Copy(out, coreFields)
	return json.Marshal(out)
}

// Locator addresses the base record a localization is created from.
type Locator struct {
	Collection string
	DocumentID string
	// SourceLocale is the locale of the base record.
	SourceLocale string
	// Locale is the locale of the variant to create.
	Locale string
}

// SortField orders FindMany results.
type SortField struct {
	Field string
	Desc  bool
}

// Filter narrows FindMany and Count queries.
type Filter struct {
	Key           *int64
	DocumentID    string
	Slug          string
	PublishedOnly bool
	// StartFrom and StartTo bound StartAt inclusively.
	StartFrom *time.Time
	StartTo   *time.Time
	Sort      []SortField
	// Offset is only honoured together with a positive limit.
	Offset   int
	Populate []string
}

// Narrows reports whether the filter identifies specific records rather than
// a whole collection.
func (f Filter) Narrows() bool {
	return f.Key != nil || f.DocumentID != "" || f.Slug != ""
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return typed
	}
}
