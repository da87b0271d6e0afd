// Package storage defines the blob store used for book photos and study
// material files. Providers live in storage/providers.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned by providers missing required settings.
var ErrNotConfigured = errors.New("storage provider not configured")

// Client stores files and returns public URLs for them.
type Client interface {
	// Upload writes content under folder and returns the object's public URL.
	Upload(ctx context.Context, content io.Reader, contentType, folder, filename string) (string, error)

	// Delete removes an object given its public URL or object path.
	Delete(ctx context.Context, pathOrURL string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectName builds a collision-free object path: folder/<uuid>_<filename>.
func ObjectName(folder, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "_" {
		base = "file"
	}
	name := uuid.NewString() + "_" + base
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// ExtractObjectPath maps a public URL under publicBase back to the object
// path. Values that are not under publicBase are treated as object paths.
func ExtractObjectPath(publicBase, pathOrURL string) string {
	raw := strings.TrimSpace(pathOrURL)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	base := strings.TrimRight(publicBase, "/")
	if base != "" && strings.HasPrefix(raw, base+"/") {
		raw = raw[len(base)+1:]
	}
	return strings.TrimLeft(path.Clean("/"+raw), "/")
}

// ContentType returns declared when set, otherwise a type guessed from the
// filename extension.
func ContentType(declared, filename string) string {
	if declared != "" {
		return declared
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
