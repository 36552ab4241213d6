package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must prefix keys by domain so two entity kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// LocaleUUID returns the row id used for a locale code.
func LocaleUUID(code string) uuid.UUID {
	return UUID("cms:locale:" + strings.ToLower(strings.TrimSpace(code)))
}

// SeedDocumentID returns the stable document id assigned to a seeded record so
// repeated seed runs address the same logical document.
func SeedDocumentID(collection, slug string) string {
	id := UUID("cms:seed:" + strings.ToLower(strings.TrimSpace(collection)) + ":" + strings.ToLower(strings.TrimSpace(slug)))
	return strings.ReplaceAll(id.String(), "-", "")
}

// RecordUUID returns the row id for one locale variant of a document.
func RecordUUID(collection, documentID, locale string) uuid.UUID {
	return UUID("cms:record:" + strings.TrimSpace(collection) + ":" + strings.TrimSpace(documentID) + ":" + strings.ToLower(strings.TrimSpace(locale)))
}
