// Package storage provides the object storage abstraction for finished audio
// artifacts, with AWS S3 for deployed environments and the local filesystem
// for single-machine runs.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Interface defines the storage operations the conversion service needs.
type Interface interface {
	// Put uploads the reader's content under the given key.
	Put(ctx context.Context, key string, reader io.Reader) error

	// GetStream returns a readable stream for the object.
	// Caller is responsible for closing the reader.
	GetStream(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns a time-limited retrieval URL for the object.
	GetURL(ctx context.Context, key string) (string, error)

	// Exists checks whether an object is present under the key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object. Absent objects are not an error.
	Delete(ctx context.Context, key string) error
}

// URLExpiry is how long retrieval URLs stay valid. Handles expire
// independently of the job record's own retention, so pollers re-resolve
// a fresh one on every poll of a completed job.
const URLExpiry = time.Hour

// Config holds configuration for storage providers.
type Config struct {
	Provider string // "s3" or "filesystem"
	ID       string // access key id
	Secret   string // secret access key
	Region   string
	Bucket   string // bucket name, or local directory for filesystem
	Endpoint string // custom endpoint for S3-compatible services
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	switch c.Provider {
	case "filesystem", "local", "":
		c.Provider = "filesystem"
		if c.Bucket == "" {
			c.Bucket = "./downloads"
		}
	case "s3", "aws-s3", "aws":
		c.Provider = "s3"
		if c.ID == "" || c.Secret == "" || c.Bucket == "" {
			return errors.New("id, secret, and bucket are required for AWS S3")
		}
		if c.Region == "" {
			c.Region = "us-east-1"
		}
	default:
		return errors.New("unsupported storage provider: " + c.Provider)
	}
	return nil
}

// NewStorage builds a storage backend from configuration.
func NewStorage(c *Config) (Interface, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Provider {
	case "s3":
		return NewS3Adapter(c.ID, c.Secret, c.Region, c.Bucket, c.Endpoint)
	default:
		return NewFilesystemAdapter(c.Bucket)
	}
}
