package interfaces

import (
	"context"
	"errors"
)

// ErrFileNotFound is returned by FileStore implementations for unknown keys.
var ErrFileNotFound = errors.New("file not found")

// StoredFile describes an uploaded or generated file.
type StoredFile struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url,omitempty"`
}

// FileUpload is a file received with a form submission.
type FileUpload struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// FileStore persists binary payloads such as submission uploads and PDFs.
type FileStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (*StoredFile, error)
	Get(ctx context.Context, key string) (*StoredFile, []byte, error)
}
