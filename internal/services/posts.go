package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
)

type PostService struct {
	tx      Transactor
	posts   PostStore
	replies ReplyStore
	users   UserStore
	tree    *ReplyService
	log     *logger.Logger
	now     func() time.Time
}

func NewPostService(tx Transactor, posts PostStore, replies ReplyStore, users UserStore, tree *ReplyService, log *logger.Logger) *PostService {
	return &PostService{tx: tx, posts: posts, replies: replies, users: users, tree: tree, log: log, now: time.Now}
}

type CreatePostInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	UserID  uint     `json:"user_id"`
}

// Author is the public part of a post's author.
type Author struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// PostSummary is a post as shown in listings.
type PostSummary struct {
	entities.Post
	Author       *Author `json:"user,omitempty"`
	RepliesCount int     `json:"replies_count"`
	TimeAgo      string  `json:"time_ago"`
}

// PostDetail is a post with its resolved reply tree.
type PostDetail struct {
	entities.Post
	Author  *Author     `json:"user,omitempty"`
	TimeAgo string      `json:"time_ago"`
	Thread  []ReplyNode `json:"thread"`
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*entities.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	tags, bad, ok := entities.ParseTags(in.Tags)
	if !ok {
		return nil, apperr.Validation("unknown tag %q", bad)
	}
	post := &entities.Post{
		Title:    title,
		Content:  in.Content,
		UserID:   in.UserID,
		Tags:     tags,
		ReplyIDs: entities.ReplyIDList(nil),
		Date:     startOfDay(s.now()),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, apperr.Unavailable("create post", err)
	}
	s.log.Info("Post created", "post_id", post.ID, "user_id", post.UserID)
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "post", id)
	}
	thread, err := s.tree.Thread(ctx, post.ReplyIDs)
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Post:    *post,
		Author:  s.authors(ctx)(post.UserID),
		TimeAgo: TimeAgo(post.Date, s.now()),
		Thread:  thread,
	}, nil
}

// List returns every post, newest first, with reply counts.
func (s *PostService) List(ctx context.Context) ([]PostSummary, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, apperr.Unavailable("list posts", err)
	}
	return s.summarize(ctx, posts)
}

func (s *PostService) SearchByTitle(ctx context.Context, title string) ([]PostSummary, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Validation("title is required")
	}
	posts, err := s.posts.SearchByTitle(ctx, title)
	if err != nil {
		return nil, apperr.Unavailable("search posts", err)
	}
	return s.summarize(ctx, posts)
}

func (s *PostService) FilterByTag(ctx context.Context, raw string) ([]PostSummary, error) {
	tag, ok := entities.ParseTag(raw)
	if !ok {
		return nil, apperr.Validation("unknown tag %q", raw)
	}
	posts, err := s.posts.ListByTag(ctx, tag)
	if err != nil {
		return nil, apperr.Unavailable("filter posts", err)
	}
	return s.summarize(ctx, posts)
}

func (s *PostService) summarize(ctx context.Context, posts []entities.Post) ([]PostSummary, error) {
	all, err := s.replies.ListAll(ctx)
	if err != nil {
		return nil, apperr.Unavailable("list replies", err)
	}
	byID := make(map[uint]entities.Reply, len(all))
	for _, r := range all {
		byID[r.ID] = r
	}

	author := s.authors(ctx)
	now := s.now()
	out := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, PostSummary{
			Post:         p,
			Author:       author(p.UserID),
			RepliesCount: CountReplies(p.ReplyIDs, byID),
			TimeAgo:      TimeAgo(p.Date, now),
		})
	}
	return out, nil
}

// authors returns a memoizing author lookup. Unknown authors resolve to nil.
func (s *PostService) authors(ctx context.Context) func(id uint) *Author {
	cache := make(map[uint]*Author)
	return func(id uint) *Author {
		if a, ok := cache[id]; ok {
			return a
		}
		var a *Author
		if u, err := s.users.GetByID(ctx, id); err == nil {
			a = &Author{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
		}
		cache[id] = a
		return a
	}
}

// Delete removes the post and every reply in its tree.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	var removed int
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		post, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, "post", id)
		}
		if err := s.posts.Delete(ctx, id); err != nil {
			return apperr.Unavailable("delete post", err)
		}
		removed, err = s.tree.DeleteTrees(ctx, post.ReplyIDs)
		return err
	})
	if err != nil {
		return err
	}
	s.log.Info("Post deleted", "post_id", id, "replies_removed", removed)
	return nil
}

// TimeAgo describes how long ago date was, counted in whole calendar days:
// "today", "yesterday", "N days ago", "N months ago" or "N years ago".
func TimeAgo(date, now time.Time) string {
	days := int(math.Round(startOfDay(now).Sub(startOfDay(date.In(now.Location()))).Hours() / 24))
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days < 30:
		return fmt.Sprintf("%d days ago", days)
	case days < 365:
		return fmt.Sprintf("%d months ago", days/30)
	default:
		return fmt.Sprintf("%d years ago", days/365)
	}
}
