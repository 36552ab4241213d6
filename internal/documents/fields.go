package documents

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Reserved payload keys are never written by ApplyFields.
var reservedKeys = []string{"id", "documentId", "locale", "createdAt", "updatedAt"}

// StripKeys returns a copy of data without the named keys.
func StripKeys(data map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(data))
	maps.Copy(out, data)
	for _, key := range keys {
		delete(out, key)
	}
	return out
}

// ApplyFields writes a request payload onto record. Known attributes are
// mapped to their columns, keys named in relations go to the relation
// payloads and everything else lands in Fields. A nil value clears the key.
func ApplyFields(record *Record, data map[string]any, relations ...string) error {
	if record == nil {
		return ErrInvalidRecord
	}
	if status, ok := data["status"]; ok {
		value, err := asString(status)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		switch value {
		case StatusDraft:
			record.Status = StatusDraft
			record.PublishedAt = nil
		case StatusPublished:
			record.Status = StatusPublished
		default:
			return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, value)
		}
	}

	keys := slices.Sorted(maps.Keys(data))
	for _, key := range keys {
		value := data[key]
		if slices.Contains(reservedKeys, key) || key == "status" {
			continue
		}
		var err error
		switch key {
		case "title":
			record.Title, err = asString(value)
		case "slug":
			record.Slug, err = asString(value)
		case "publishedAt":
			record.PublishedAt, err = asTime(value)
			if err == nil && record.PublishedAt != nil {
				record.Status = StatusPublished
			}
		case "startAt":
			record.StartAt, err = asTime(value)
		case "endAt":
			record.EndAt, err = asTime(value)
		default:
			if slices.Contains(relations, key) {
				record.Relations = setOrDelete(record.Relations, key, value)
			} else {
				record.Fields = setOrDelete(record.Fields, key, value)
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if record.StartAt != nil && record.EndAt != nil && record.EndAt.Before(*record.StartAt) {
		return fmt.Errorf("%w: endAt precedes startAt", ErrInvalidRecord)
	}
	return nil
}

func setOrDelete(target map[string]any, key string, value any) map[string]any {
	if value == nil {
		delete(target, key)
		return target
	}
	if target == nil {
		target = map[string]any{}
	}
	target[key] = cloneValue(value)
	return target
}

func asString(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(typed), nil
	case fmt.Stringer:
		return strings.TrimSpace(typed.String()), nil
	default:
		return "", fmt.Errorf("%w: expected string, got %T", ErrInvalidRecord, value)
	}
}

// ParseTime accepts RFC 3339 timestamps and plain dates.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid time %q", ErrInvalidRecord, value)
}

func asTime(value any) (*time.Time, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		utc := typed.UTC()
		return &utc, nil
	case *time.Time:
		return cloneTime(typed), nil
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil, nil
		}
		parsed, err := ParseTime(typed)
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	default:
		return nil, fmt.Errorf("%w: expected timestamp, got %T", ErrInvalidRecord, value)
	}
}

// ParseSort parses "field:asc,other:desc" expressions. Unknown fields are rejected.
func ParseSort(expr string) ([]SortField, error) {
	var out []SortField
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		field = strings.TrimSpace(field)
		if _, ok := sortColumns[field]; !ok {
			return nil, fmt.Errorf("documents: unsupported sort field %q", field)
		}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
			out = append(out, SortField{Field: field})
		case "desc":
			out = append(out, SortField{Field: field, Desc: true})
		default:
			return nil, fmt.Errorf("documents: unsupported sort direction %q", dir)
		}
	}
	return out, nil
}

// sortColumns maps API sort fields to their column names.
var sortColumns = map[string]string{
	"id":          "numeric_id",
	"title":       "title",
	"slug":        "slug",
	"startAt":     "start_at",
	"endAt":       "end_at",
	"publishedAt": "published_at",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}
