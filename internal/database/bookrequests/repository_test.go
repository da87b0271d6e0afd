package bookrequests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshare/internal/database/dbtest"
	"github.com/mrlokans/bookshare/internal/entities"
)

func create(t *testing.T, repo *Repository, bookID, requesterID uint, status entities.RequestStatus) *entities.BookRequest {
	t.Helper()
	req := &entities.BookRequest{BookID: bookID, RequesterID: requesterID, Status: status, Date: time.Now()}
	require.NoError(t, repo.Create(context.Background(), req))
	return req
}

func TestRepository_ExistsPending(t *testing.T) {
	repo := NewRepository(dbtest.New(t).DB)
	ctx := context.Background()

	create(t, repo, 1, 10, entities.RequestStatusDeclined)

	ok, err := repo.ExistsPending(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	create(t, repo, 1, 10, entities.RequestStatusPending)

	ok, err = repo.ExistsPending(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepository_ListQueries(t *testing.T) {
	repo := NewRepository(dbtest.New(t).DB)
	ctx := context.Background()

	a := create(t, repo, 1, 10, entities.RequestStatusPending)
	b := create(t, repo, 1, 11, entities.RequestStatusApproved)
	c := create(t, repo, 2, 10, entities.RequestStatusPending)
	create(t, repo, 3, 12, entities.RequestStatusPending)

	byBook, err := repo.ListByBook(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byBook, 2)

	pending, err := repo.ListByBooks(ctx, []uint{1, 2}, entities.RequestStatusPending)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, c.ID}, []uint{pending[0].ID, pending[1].ID})

	all, err := repo.ListByBooks(ctx, []uint{1, 2}, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := repo.ListByBooks(ctx, nil, "")
	require.NoError(t, err)
	assert.Empty(t, none)

	mine, err := repo.ListByRequester(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	approved, err := repo.ListByStatus(ctx, entities.RequestStatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, b.ID, approved[0].ID)
}

func TestRepository_DeleteByBook(t *testing.T) {
	repo := NewRepository(dbtest.New(t).DB)
	ctx := context.Background()

	create(t, repo, 1, 10, entities.RequestStatusPending)
	create(t, repo, 1, 11, entities.RequestStatusPending)
	create(t, repo, 2, 10, entities.RequestStatusPending)

	n, err := repo.DeleteByBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := repo.ListByBook(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
