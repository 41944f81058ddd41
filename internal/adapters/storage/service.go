// Package storage provides file storage infrastructure for evidence files
// and generated rental agreements.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL carries a time-limited URL for direct client access.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService abstracts object storage operations used by the modules.
type StorageService interface {
	EnsureBucketExists(ctx context.Context, bucket string) error
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)
	DeleteObject(ctx context.Context, bucket, fileKey string) error
	GetMaxFileSize() int64
}

// Config provides the settings the MinIO client needs.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
