package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshare/internal/apperr"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		date time.Time
		want string
	}{
		{now, "today"},
		{now.Add(-9 * time.Hour), "today"},
		{now.AddDate(0, 0, -1), "yesterday"},
		{time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC), "yesterday"},
		{now.AddDate(0, 0, -5), "5 days ago"},
		{now.AddDate(0, 0, -29), "29 days ago"},
		{now.AddDate(0, 0, -30), "1 months ago"},
		{now.AddDate(0, 0, -95), "3 months ago"},
		{now.AddDate(0, 0, -364), "12 months ago"},
		{now.AddDate(0, 0, -365), "1 years ago"},
		{now.AddDate(0, 0, -800), "2 years ago"},
		{now.AddDate(0, 0, 3), "today"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeAgo(tt.date, now))
		})
	}
}

func TestPostService_CreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author@example.com")

	post, err := f.postSvc.Create(ctx, CreatePostInput{Title: "Study group", Content: "Anyone?", Tags: []string{"biology"}, UserID: author.ID})
	require.NoError(t, err)
	assert.Empty(t, post.ReplyIDs)

	r1, err := f.replyTree.AddToPost(ctx, post.ID, author.ID, "me")
	require.NoError(t, err)
	_, err = f.replyTree.AddToReply(ctx, r1.ID, author.ID, "me too")
	require.NoError(t, err)

	list, err := f.postSvc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].RepliesCount)
	assert.Equal(t, "today", list[0].TimeAgo)
	require.NotNil(t, list[0].Author)
	assert.Equal(t, "Test", list[0].Author.FirstName)

	_, err = f.postSvc.Create(ctx, CreatePostInput{Title: " "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPostService_GetIncludesThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post, err := f.postSvc.Create(ctx, CreatePostInput{Title: "Q"})
	require.NoError(t, err)
	r1, err := f.replyTree.AddToPost(ctx, post.ID, 0, "a")
	require.NoError(t, err)
	_, err = f.replyTree.AddToReply(ctx, r1.ID, 0, "b")
	require.NoError(t, err)

	detail, err := f.postSvc.Get(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, detail.Thread, 1)
	assert.Len(t, detail.Thread[0].Children, 1)
	assert.Nil(t, detail.Author)

	_, err = f.postSvc.Get(ctx, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostService_SearchAndFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.postSvc.Create(ctx, CreatePostInput{Title: "Exam Tips", Tags: []string{"MATHEMATICS"}})
	require.NoError(t, err)
	_, err = f.postSvc.Create(ctx, CreatePostInput{Title: "Lab partners", Tags: []string{"CHEMISTRY"}})
	require.NoError(t, err)

	found, err := f.postSvc.SearchByTitle(ctx, "exam")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Exam Tips", found[0].Title)

	chem, err := f.postSvc.FilterByTag(ctx, "chemistry")
	require.NoError(t, err)
	require.Len(t, chem, 1)
	assert.Equal(t, "Lab partners", chem[0].Title)
}

func TestPostService_DeleteRemovesReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post, err := f.postSvc.Create(ctx, CreatePostInput{Title: "Q"})
	require.NoError(t, err)
	other, err := f.postSvc.Create(ctx, CreatePostInput{Title: "Other"})
	require.NoError(t, err)

	r1, err := f.replyTree.AddToPost(ctx, post.ID, 0, "a")
	require.NoError(t, err)
	_, err = f.replyTree.AddToReply(ctx, r1.ID, 0, "b")
	require.NoError(t, err)
	kept, err := f.replyTree.AddToPost(ctx, other.ID, 0, "c")
	require.NoError(t, err)

	require.NoError(t, f.postSvc.Delete(ctx, post.ID))

	all, err := f.replyTree.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)

	assert.ErrorIs(t, f.postSvc.Delete(ctx, post.ID), apperr.ErrNotFound)
}
