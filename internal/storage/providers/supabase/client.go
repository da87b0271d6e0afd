// Package supabase stores blobs in a Supabase Storage bucket through its
// REST API.
package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mrlokans/bookshare/internal/storage"
)

// Client implements storage.Client for Supabase Storage.
type Client struct {
	baseURL    string
	bucket     string
	key        string
	httpClient *http.Client
}

func NewClient(baseURL, bucket, key string) (*Client, error) {
	if baseURL == "" || bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: SUPABASE_URL, SUPABASE_BUCKET and SUPABASE_KEY are required", storage.ErrNotConfigured)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		key:     key,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

func (c *Client) objectURL(object string) string {
	return c.baseURL + "/storage/v1/object/" + c.bucket + "/" + object
}

func (c *Client) publicBase() string {
	return c.baseURL + "/storage/v1/object/public/" + c.bucket
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
}

func (c *Client) Upload(ctx context.Context, content io.Reader, contentType, folder, filename string) (string, error) {
	object := storage.ObjectName(folder, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.objectURL(object), content)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", storage.ContentType(contentType, filename))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return c.publicBase() + "/" + object, nil
}

// Delete removes the object. A 404 from the API is not an error.
func (c *Client) Delete(ctx context.Context, pathOrURL string) error {
	object := storage.ExtractObjectPath(c.publicBase(), pathOrURL)
	if object == "" {
		return fmt.Errorf("empty object path")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(object), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
