package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
	"github.com/mrlokans/bookshare/internal/services"
)

// PostService is the forum logic the post endpoints need.
type PostService interface {
	Create(ctx context.Context, in services.CreatePostInput) (*entities.Post, error)
	Get(ctx context.Context, id uint) (*services.PostDetail, error)
	List(ctx context.Context) ([]services.PostSummary, error)
	SearchByTitle(ctx context.Context, title string) ([]services.PostSummary, error)
	FilterByTag(ctx context.Context, raw string) ([]services.PostSummary, error)
	Delete(ctx context.Context, id uint) error
}

// ReplyService is the reply-tree logic the reply endpoints need.
type ReplyService interface {
	AddToPost(ctx context.Context, postID, authorID uint, content string) (*entities.Reply, error)
	AddToReply(ctx context.Context, parentID, authorID uint, content string) (*entities.Reply, error)
	Delete(ctx context.Context, replyID uint) (int, error)
	ListAll(ctx context.Context) ([]entities.Reply, error)
}

type ForumController struct {
	posts   PostService
	replies ReplyService
	log     *logger.Logger
}

func NewForumController(posts PostService, replies ReplyService, log *logger.Logger) *ForumController {
	return &ForumController{posts: posts, replies: replies, log: log}
}

// CreatePost handles POST /api/posts
func (fc *ForumController) CreatePost(c *gin.Context) {
	var in services.CreatePostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid post payload")
		return
	}
	if in.UserID == 0 {
		in.UserID = GetUserID(c)
	}
	post, err := fc.posts.Create(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, fc.log, err, "create post")
		return
	}
	respondCreated(c, post)
}

// ListPosts handles GET /api/posts
func (fc *ForumController) ListPosts(c *gin.Context) {
	posts, err := fc.posts.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, fc.log, err, "list posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

// SearchPosts handles GET /api/posts/search?title=
func (fc *ForumController) SearchPosts(c *gin.Context) {
	posts, err := fc.posts.SearchByTitle(c.Request.Context(), c.Query("title"))
	if err != nil {
		respondServiceError(c, fc.log, err, "search posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

// FilterPosts handles GET /api/posts/filter?tag=
func (fc *ForumController) FilterPosts(c *gin.Context) {
	posts, err := fc.posts.FilterByTag(c.Request.Context(), c.Query("tag"))
	if err != nil {
		respondServiceError(c, fc.log, err, "filter posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost handles GET /api/posts/:id
func (fc *ForumController) GetPost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	post, err := fc.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, fc.log, err, "get post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/:id
func (fc *ForumController) DeletePost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := fc.posts.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, fc.log, err, "delete post")
		return
	}
	c.Status(http.StatusNoContent)
}

type replyRequest struct {
	Content string `json:"content"`
	UserID  uint   `json:"user_id"`
}

func (fc *ForumController) bindReply(c *gin.Context) (replyRequest, bool) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid reply payload")
		return req, false
	}
	if req.UserID == 0 {
		req.UserID = GetUserID(c)
	}
	return req, true
}

// ReplyToPost handles POST /api/replies/to-post/:postId
func (fc *ForumController) ReplyToPost(c *gin.Context) {
	postID, ok := parseIDParam(c, "postId")
	if !ok {
		return
	}
	req, ok := fc.bindReply(c)
	if !ok {
		return
	}
	reply, err := fc.replies.AddToPost(c.Request.Context(), postID, req.UserID, req.Content)
	if err != nil {
		respondServiceError(c, fc.log, err, "reply to post")
		return
	}
	respondCreated(c, reply)
}

// ReplyToReply handles POST /api/replies/to-reply/:replyId
func (fc *ForumController) ReplyToReply(c *gin.Context) {
	parentID, ok := parseIDParam(c, "replyId")
	if !ok {
		return
	}
	req, ok := fc.bindReply(c)
	if !ok {
		return
	}
	reply, err := fc.replies.AddToReply(c.Request.Context(), parentID, req.UserID, req.Content)
	if err != nil {
		respondServiceError(c, fc.log, err, "reply to reply")
		return
	}
	respondCreated(c, reply)
}

// DeleteReply handles DELETE /api/replies/:id. The whole subtree goes.
func (fc *ForumController) DeleteReply(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	deleted, err := fc.replies.Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, fc.log, err, "delete reply")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ListReplies handles GET /api/replies
func (fc *ForumController) ListReplies(c *gin.Context) {
	replies, err := fc.replies.ListAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, fc.log, err, "list replies")
		return
	}
	c.JSON(http.StatusOK, replies)
}
