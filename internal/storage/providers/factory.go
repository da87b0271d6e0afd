// Package providers selects the blob storage backend from configuration.
package providers

import (
	"context"
	"fmt"

	"github.com/mrlokans/bookshare/internal/config"
	"github.com/mrlokans/bookshare/internal/logger"
	"github.com/mrlokans/bookshare/internal/storage"
	"github.com/mrlokans/bookshare/internal/storage/providers/gcs"
	"github.com/mrlokans/bookshare/internal/storage/providers/local"
	"github.com/mrlokans/bookshare/internal/storage/providers/supabase"
)

// New builds the configured storage client. The returned directory is
// non-empty only for the local provider and should be served under
// cfg.PublicBaseURL.
func New(ctx context.Context, cfg config.Storage, log *logger.Logger) (storage.Client, string, error) {
	switch cfg.Provider {
	case config.StorageProviderLocal, "":
		c, err := local.NewClient(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		log.Info("Using local blob storage", "dir", cfg.LocalDir)
		return c, c.Dir(), nil
	case config.StorageProviderSupabase:
		c, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseKey)
		if err != nil {
			return nil, "", err
		}
		log.Info("Using Supabase blob storage", "bucket", cfg.SupabaseBucket)
		return c, "", nil
	case config.StorageProviderGCS:
		c, err := gcs.NewClient(ctx, cfg.GCSBucket, cfg.GCSPublicBaseURL, cfg.GCSEndpoint)
		if err != nil {
			return nil, "", err
		}
		log.Info("Using GCS blob storage", "bucket", cfg.GCSBucket)
		return c, "", nil
	default:
		return nil, "", fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
