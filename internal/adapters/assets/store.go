// Package assets stores branding images (logo, banner, certificate template,
// signature) on local disk, Supabase Storage or Alibaba Cloud OSS.
package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"meetdesk/internal/domain/domainerr"
)

// ErrNotFound is returned by Open for a missing object.
var ErrNotFound = domainerr.NotFound("asset not found")

// Store is an object store addressed by slash-separated keys.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Open(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey returns "<kind>/<yyyymmdd>-<uuid><ext>" for a fresh upload.
func NewKey(kind, ext string, now time.Time) string {
	return fmt.Sprintf("%s/%s-%s%s", kind, now.UTC().Format("20060102"), uuid.NewString(), ext)
}
