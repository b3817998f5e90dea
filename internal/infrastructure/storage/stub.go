package storage

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
)

// StubObjectStorage is an in-process ObjectStorage for development and tests.
// Upload URLs point at BaseURL and nothing is transferred; MarkUploaded
// simulates a completed client upload.
type StubObjectStorage struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string]bool
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage(baseURL string) *StubObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}
	return &StubObjectStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]bool),
	}
}

var _ catalogapp.ObjectStorage = (*StubObjectStorage)(nil)

// GenerateUploadURL returns a fake presigned URL
func (s *StubObjectStorage) GenerateUploadURL(_ context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{}
	q.Set("content_type", contentType)
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	return s.ObjectURL(key) + "?" + q.Encode(), expiresAt, nil
}

// MarkUploaded records key as present
func (s *StubObjectStorage) MarkUploaded(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = true
}

// ObjectExists reports whether key was marked uploaded
func (s *StubObjectStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key], nil
}

// DeleteObject forgets key
func (s *StubObjectStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// ObjectURL returns BaseURL/key
func (s *StubObjectStorage) ObjectURL(key string) string {
	if key == "" {
		return ""
	}
	return s.BaseURL + "/" + (&url.URL{Path: key}).EscapedPath()
}
