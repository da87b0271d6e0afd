package entrypoint

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshare/internal/config"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
)

func TestOriginChecker(t *testing.T) {
	assert.Nil(t, originChecker(nil))

	check := originChecker([]string{"http://localhost:5173"})
	req := httptest.NewRequest("GET", "/ws/book-requests/1", nil)
	assert.True(t, check(req), "requests without an Origin header are not browser requests")

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}

func TestLoadCSRFSecret(t *testing.T) {
	log := logger.NewNop()

	secret, err := loadCSRFSecret("00ff", log)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, secret)

	secret, err = loadCSRFSecret("not-hex", log)
	require.NoError(t, err)
	assert.Equal(t, []byte("not-hex"), secret)

	secret, err = loadCSRFSecret("", log)
	require.NoError(t, err)
	assert.Len(t, secret, 32)
}

func TestReconcile(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database = config.Database{Driver: config.DatabaseDriverSQLite, Path: filepath.Join(t.TempDir(), "app.db")}
	log := logger.NewNop()
	ctx := context.Background()

	core, err := OpenCore(cfg, log)
	require.NoError(t, err)

	owner := &entities.User{FirstName: "O", LastName: "W", Email: "owner@example.com"}
	alice := &entities.User{FirstName: "A", LastName: "L", Email: "alice@example.com"}
	bob := &entities.User{FirstName: "B", LastName: "O", Email: "bob@example.com"}
	for _, u := range []*entities.User{owner, alice, bob} {
		require.NoError(t, core.Users.Create(ctx, u))
	}
	book := &entities.Book{Title: "Topology", Author: "Munkres", OwnerID: owner.ID}
	require.NoError(t, core.Books.Create(ctx, book))
	require.NoError(t, core.BookRequests.Create(ctx, &entities.BookRequest{BookID: book.ID, RequesterID: alice.ID, Status: entities.RequestStatusApproved}))
	require.NoError(t, core.BookRequests.Create(ctx, &entities.BookRequest{BookID: book.ID, RequesterID: bob.ID, Status: entities.RequestStatusPending}))
	require.NoError(t, core.DB.Close())

	declined, err := Reconcile(ctx, cfg, log)
	require.NoError(t, err)
	assert.Equal(t, 1, declined)

	declined, err = Reconcile(ctx, cfg, log)
	require.NoError(t, err)
	assert.Zero(t, declined)
}

func TestRun_InvalidReconcileSchedule(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Database = config.Database{Driver: config.DatabaseDriverSQLite, Path: filepath.Join(dir, "app.db")}
	cfg.Storage.LocalDir = filepath.Join(dir, "uploads")
	cfg.Tasks.Enabled = true
	cfg.Reconcile.Enabled = true
	cfg.Reconcile.Schedule = "every now and then"

	err := Run(cfg, logger.NewNop(), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reconcile schedule")

	// The task database was released, so a second start fails the same way.
	err = Run(cfg, logger.NewNop(), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reconcile schedule")
}
