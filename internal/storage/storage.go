// Package storage provides the file storage abstraction.
//
// Two implementations are provided:
// - LocalStorage: filesystem storage for development
// - R2Storage: Cloudflare R2 (S3-compatible) object storage for production
//
// Stored objects are uploaded utility bill images, their thumbnails, and
// rendered report artifacts. All objects are keyed under the owning
// tenant so cleanup and access control stay tenant-scoped.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Storage defines file storage operations. All methods are context-aware.
type Storage interface {
	// Put stores data at the specified key. Returns ErrKeyExists if the
	// key is taken and opts.Overwrite is false, ErrTooLarge if the data
	// exceeds opts.MaxSize.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the object at the key. The caller must close the
	// reader. Returns ErrNotFound for a missing key.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object. Idempotent.
	Delete(ctx context.Context, key string) error

	// URL returns an access URL for the object: permanent when the
	// backend has a public base, presigned for the given duration
	// otherwise.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at the key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type; auto-detected when empty.
	ContentType string

	// MaxSize caps the object size in bytes. Zero means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory, e.g. "./storage".
	BasePath string

	// BaseURL is the public URL prefix, e.g. "http://localhost:8080/files".
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's custom-domain URL. When empty, access
	// goes through presigned URLs.
	PublicURL string

	// Region is required by the AWS SDK; R2 accepts "auto".
	Region string
}

// Storage provider names accepted in configuration.
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// BillImageKey generates a storage key for an uploaded bill image.
// Format: tenants/{tenantID}/bills/{uuid}.{ext}
func BillImageKey(tenantID uuid.UUID, filename string) string {
	return fmt.Sprintf("tenants/%s/bills/%s%s", tenantID, uuid.New(), filepath.Ext(filename))
}

// ThumbnailKey generates a storage key for a bill image thumbnail.
// Format: tenants/{tenantID}/thumbnails/{uuid}.jpg
func ThumbnailKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("tenants/%s/thumbnails/%s.jpg", tenantID, uuid.New())
}

// ReportKey generates a storage key for a rendered report artifact.
// Format: tenants/{tenantID}/reports/{reportID}.{format}
func ReportKey(tenantID, reportID uuid.UUID, format string) string {
	return fmt.Sprintf("tenants/%s/reports/%s.%s", tenantID, reportID, format)
}
