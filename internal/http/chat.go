package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/chat"
	"github.com/mrlokans/bookshare/internal/logger"
)

// ChatRelay answers a conversation with the assistant's next message.
type ChatRelay interface {
	Reply(ctx context.Context, messages []chat.Message) (string, error)
}

type ChatController struct {
	relay ChatRelay
	log   *logger.Logger
}

func NewChatController(relay ChatRelay, log *logger.Logger) *ChatController {
	return &ChatController{relay: relay, log: log}
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

// Chat handles POST /api/chat
func (cc *ChatController) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid chat payload")
		return
	}
	reply, err := cc.relay.Reply(c.Request.Context(), req.Messages)
	if err != nil {
		respondServiceError(c, cc.log, err, "chat")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
