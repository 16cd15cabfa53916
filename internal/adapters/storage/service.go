// Package storage keeps complaint media in an S3-compatible bucket.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL is a time-limited download link for one object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService is the object store used by ComplaintImageStore.
type StorageService interface {
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)
	// UploadFile stores reader under folder and returns the generated key.
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	EnsureBucketExists(ctx context.Context, bucket string) error
	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
}

// Config is the MinIO subset of the application config.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
