/*
Package storage talks to the S3-compatible object store that holds avatars and
chat images.
*/
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by GetObjectMetadata for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
}

// ObjectMetadata describes a stored object.
type ObjectMetadata struct {
	ContentType   string
	ContentLength int64
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// Upload streams body to key.
	Upload(ctx context.Context, key, contentType string, body io.Reader) error

	// PresignUpload generates a pre-signed URL for uploading a file.
	PresignUpload(ctx context.Context, key, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the file specified by the given key.
	Delete(ctx context.Context, key string) error

	// GetObjectMetadata returns ErrObjectNotFound when key does not exist.
	GetObjectMetadata(ctx context.Context, key string) (ObjectMetadata, error)
}

// NewStorageService is the factory function for StorageService.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	return newS3Client(ctx, cfg)
}
