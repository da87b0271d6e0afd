package services

import (
	"context"
	"strings"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
)

// ReplyService manages forum reply trees. A reply has no parent pointer; it
// is reachable only through the ReplyIDs list of a post or another reply.
type ReplyService struct {
	tx      Transactor
	posts   PostStore
	replies ReplyStore
	log     *logger.Logger
}

func NewReplyService(tx Transactor, posts PostStore, replies ReplyStore, log *logger.Logger) *ReplyService {
	return &ReplyService{tx: tx, posts: posts, replies: replies, log: log}
}

// ReplyNode is a reply with its children resolved.
type ReplyNode struct {
	entities.Reply
	Children []ReplyNode `json:"children"`
}

func (s *ReplyService) AddToPost(ctx context.Context, postID, authorID uint, content string) (*entities.Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("reply content is required")
	}
	var reply *entities.Reply
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		post, err := s.posts.GetByID(ctx, postID)
		if err != nil {
			return lookupErr(err, "post", postID)
		}
		reply = newReply(authorID, content)
		if err := s.replies.Create(ctx, reply); err != nil {
			return apperr.Unavailable("create reply", err)
		}
		ids := append([]uint(post.ReplyIDs), reply.ID)
		if err := s.posts.UpdateReplyIDs(ctx, post.ID, ids); err != nil {
			return apperr.Unavailable("attach reply to post", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Reply added to post", "reply_id", reply.ID, "post_id", postID)
	return reply, nil
}

func (s *ReplyService) AddToReply(ctx context.Context, parentID, authorID uint, content string) (*entities.Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("reply content is required")
	}
	var reply *entities.Reply
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		parent, err := s.replies.GetByID(ctx, parentID)
		if err != nil {
			return lookupErr(err, "reply", parentID)
		}
		reply = newReply(authorID, content)
		if err := s.replies.Create(ctx, reply); err != nil {
			return apperr.Unavailable("create reply", err)
		}
		ids := append([]uint(parent.ReplyIDs), reply.ID)
		if err := s.replies.UpdateReplyIDs(ctx, parent.ID, ids); err != nil {
			return apperr.Unavailable("attach reply to reply", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Reply added to reply", "reply_id", reply.ID, "parent_id", parentID)
	return reply, nil
}

func newReply(authorID uint, content string) *entities.Reply {
	return &entities.Reply{
		Content:  content,
		UserID:   authorID,
		ReplyIDs: entities.ReplyIDList(nil),
	}
}

// Delete removes the reply and every reply below it, then drops the removed
// ids from every post and reply that still lists them. It returns the number
// of replies deleted.
func (s *ReplyService) Delete(ctx context.Context, replyID uint) (int, error) {
	if _, err := s.replies.GetByID(ctx, replyID); err != nil {
		return 0, lookupErr(err, "reply", replyID)
	}
	ids, err := s.collectSubtree(ctx, []uint{replyID})
	if err != nil {
		return 0, err
	}
	if err := s.deleteAndScrub(ctx, ids); err != nil {
		return 0, err
	}
	s.log.Info("Reply subtree deleted", "reply_id", replyID, "deleted", len(ids))
	return len(ids), nil
}

// DeleteTrees removes the subtrees rooted at roots. Missing roots are skipped.
func (s *ReplyService) DeleteTrees(ctx context.Context, roots []uint) (int, error) {
	if len(roots) == 0 {
		return 0, nil
	}
	ids, err := s.collectSubtree(ctx, roots)
	if err != nil {
		return 0, err
	}
	if err := s.deleteAndScrub(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// collectSubtree walks the reply graph depth-first from roots. The visited
// set stops cycles and shared children from being visited twice. Ids that
// no longer resolve are skipped.
func (s *ReplyService) collectSubtree(ctx context.Context, roots []uint) ([]uint, error) {
	visited := make(map[uint]struct{})
	var ids []uint
	stack := append([]uint(nil), roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}

		reply, err := s.replies.GetByID(ctx, id)
		if err != nil {
			if database.IsNotFound(err) {
				continue
			}
			return nil, apperr.Unavailable("load reply", err)
		}
		ids = append(ids, id)
		for i := len(reply.ReplyIDs) - 1; i >= 0; i-- {
			stack = append(stack, reply.ReplyIDs[i])
		}
	}
	return ids, nil
}

func (s *ReplyService) deleteAndScrub(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.replies.DeleteMany(ctx, ids); err != nil {
			return apperr.Unavailable("delete replies", err)
		}

		posts, err := s.posts.ListAll(ctx)
		if err != nil {
			return apperr.Unavailable("list posts", err)
		}
		for _, p := range posts {
			kept, changed := entities.RemoveIDs(p.ReplyIDs, drop)
			if !changed {
				continue
			}
			if err := s.posts.UpdateReplyIDs(ctx, p.ID, kept); err != nil {
				return apperr.Unavailable("update post replies", err)
			}
		}

		remaining, err := s.replies.ListAll(ctx)
		if err != nil {
			return apperr.Unavailable("list replies", err)
		}
		for _, r := range remaining {
			kept, changed := entities.RemoveIDs(r.ReplyIDs, drop)
			if !changed {
				continue
			}
			if err := s.replies.UpdateReplyIDs(ctx, r.ID, kept); err != nil {
				return apperr.Unavailable("update reply children", err)
			}
		}
		return nil
	})
}

func (s *ReplyService) ListAll(ctx context.Context) ([]entities.Reply, error) {
	replies, err := s.replies.ListAll(ctx)
	if err != nil {
		return nil, apperr.Unavailable("list replies", err)
	}
	return replies, nil
}

// Thread resolves the reply tree under the given top-level ids, keeping list
// order. A reply already placed higher in the tree is not repeated.
func (s *ReplyService) Thread(ctx context.Context, topLevel []uint) ([]ReplyNode, error) {
	all, err := s.replies.ListAll(ctx)
	if err != nil {
		return nil, apperr.Unavailable("list replies", err)
	}
	byID := make(map[uint]entities.Reply, len(all))
	for _, r := range all {
		byID[r.ID] = r
	}
	return buildNodes(topLevel, byID, make(map[uint]struct{})), nil
}

func buildNodes(ids []uint, byID map[uint]entities.Reply, seen map[uint]struct{}) []ReplyNode {
	nodes := make([]ReplyNode, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		nodes = append(nodes, ReplyNode{Reply: r, Children: buildNodes(r.ReplyIDs, byID, seen)})
	}
	return nodes
}

// CountReplies counts every reply reachable from ids.
func CountReplies(ids []uint, byID map[uint]entities.Reply) int {
	seen := make(map[uint]struct{})
	stack := append([]uint(nil), ids...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		r, ok := byID[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		stack = append(stack, r.ReplyIDs...)
	}
	return len(seen)
}
