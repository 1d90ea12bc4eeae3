package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseStore talks to the Supabase Storage REST API.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	bucket     string
	client     *http.Client
}

// NewSupabaseStore targets bucket on the project at baseURL.
// PRE: serviceKey is a service-role key; the bucket is public
func NewSupabaseStore(baseURL, serviceKey, bucket string) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStore) objectURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)
}

func (s *SupabaseStore) do(ctx context.Context, method, url, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("x-upsert", "true")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase %s: %w", method, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("supabase %s: status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// Put uploads data, overwriting an existing object.
func (s *SupabaseStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.do(ctx, http.MethodPost, s.objectURL(key), contentType, data)
	return err
}

// Open downloads the object at key.
func (s *SupabaseStore) Open(ctx context.Context, key string) ([]byte, error) {
	return s.do(ctx, http.MethodGet, s.objectURL(key), "", nil)
}

// Delete removes the object at key; a missing object is not an error.
func (s *SupabaseStore) Delete(ctx context.Context, key string) error {
	_, err := s.do(ctx, http.MethodDelete, s.objectURL(key), "", nil)
	if err == ErrNotFound {
		return nil
	}
	return err
}

// URL is the public-bucket address of key.
func (s *SupabaseStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
}
