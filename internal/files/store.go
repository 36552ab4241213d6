package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// MemoryStore keeps files in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	meta  map[string]interfaces.StoredFile
	blobs map[string][]byte
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{meta: map[string]interfaces.StoredFile{}, blobs: map[string][]byte{}}
}

func (m *MemoryStore) Put(ctx context.Context, name, contentType string, data []byte) (*interfaces.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file := describe(name, contentType, data)
	m.mu.Lock()
	m.meta[file.Key] = file
	m.blobs[file.Key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return &file, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*interfaces.StoredFile, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	file, ok := m.meta[key]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", interfaces.ErrFileNotFound, key)
	}
	return &file, append([]byte(nil), m.blobs[key]...), nil
}

// DiskStore writes files below a root directory with a JSON sidecar holding
// the metadata.
type DiskStore struct {
	root string
}

// NewDiskStore creates root when missing.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("files: create %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

func (d *DiskStore) Put(ctx context.Context, name, contentType string, data []byte) (*interfaces.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file := describe(name, contentType, data)
	if err := os.WriteFile(filepath.Join(d.root, file.Key), data, 0o644); err != nil {
		return nil, fmt.Errorf("files: write %s: %w", file.Key, err)
	}
	meta, err := json.Marshal(file)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(d.root, file.Key+".json"), meta, 0o644); err != nil {
		return nil, fmt.Errorf("files: write metadata %s: %w", file.Key, err)
	}
	return &file, nil
}

func (d *DiskStore) Get(ctx context.Context, key string) (*interfaces.StoredFile, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if key == "" || key != filepath.Base(key) {
		return nil, nil, fmt.Errorf("%w: %s", interfaces.ErrFileNotFound, key)
	}
	raw, err := os.ReadFile(filepath.Join(d.root, key+".json"))
	if os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: %s", interfaces.ErrFileNotFound, key)
	}
	if err != nil {
		return nil, nil, err
	}
	var file interfaces.StoredFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("files: decode metadata %s: %w", key, err)
	}
	data, err := os.ReadFile(filepath.Join(d.root, key))
	if err != nil {
		return nil, nil, err
	}
	return &file, data, nil
}

func describe(name, contentType string, data []byte) interfaces.StoredFile {
	name = filepath.Base(strings.TrimSpace(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return interfaces.StoredFile{
		Key:         uuid.NewString() + strings.ToLower(filepath.Ext(name)),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
	}
}
