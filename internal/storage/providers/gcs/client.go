// Package gcs stores blobs in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	blobstore "github.com/mrlokans/bookshare/internal/storage"
)

// Client implements storage.Client for a single GCS bucket.
type Client struct {
	client     *storage.Client
	bucket     string
	publicBase string
}

// NewClient connects to GCS. When endpoint is set, the client talks to that
// endpoint without credentials (fake-gcs-server and similar emulators).
func NewClient(ctx context.Context, bucket, publicBaseURL, endpoint string) (*Client, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: GCS_BUCKET is required", blobstore.ErrNotConfigured)
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	base := strings.TrimRight(publicBaseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return &Client{
		client:     sc,
		bucket:     bucket,
		publicBase: base + "/" + bucket,
	}, nil
}

func (c *Client) Upload(ctx context.Context, content io.Reader, contentType, folder, filename string) (string, error) {
	key := blobstore.ObjectName(folder, filename)

	w := c.client.Bucket(c.bucket).Object(key).NewWriter(ctx)
	w.ContentType = blobstore.ContentType(contentType, filename)
	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object: %w", err)
	}
	return c.PublicURL(key), nil
}

// Delete removes the object. A missing object is not an error.
func (c *Client) Delete(ctx context.Context, pathOrURL string) error {
	key := blobstore.ExtractObjectPath(c.publicBase, pathOrURL)
	if key == "" {
		return fmt.Errorf("empty object path")
	}
	err := c.client.Bucket(c.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (c *Client) PublicURL(key string) string {
	return c.publicBase + "/" + key
}

func (c *Client) Close() error {
	return c.client.Close()
}
