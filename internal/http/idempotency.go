package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/idempotency"
	"github.com/mrlokans/bookshare/internal/logger"
)

// IdempotencyHeader carries the client's retry key.
const IdempotencyHeader = "Idempotency-Key"

// idempotent runs op at most once per Idempotency-Key within scope.
//
// Without a key or a store, op simply runs. On a replay, replay is called
// with the recorded resource ID instead of op. op returns the ID to record
// and whether it succeeded; a failed op releases the key.
func idempotent(
	c *gin.Context,
	store idempotency.Store,
	log *logger.Logger,
	scope string,
	op func() (uint, bool),
	replay func(resourceID uint),
) {
	key, err := idempotency.NormalizeKey(c.GetHeader(IdempotencyHeader))
	if err != nil {
		respondBadRequest(c, "invalid "+IdempotencyHeader)
		return
	}
	if store == nil || key == "" {
		op()
		return
	}

	ctx := c.Request.Context()
	resourceID, fresh, err := store.Reserve(ctx, scope, key)
	if errors.Is(err, idempotency.ErrInProgress) {
		respondError(c, http.StatusConflict, "a request with this idempotency key is in progress")
		return
	}
	if err != nil {
		respondInternalError(c, log, err, "reserve idempotency key")
		return
	}
	if !fresh {
		c.Header("Idempotent-Replayed", "true")
		replay(resourceID)
		return
	}

	id, ok := op()
	// The request context may already be cancelled once the response is out.
	bg := context.WithoutCancel(ctx)
	if !ok {
		if err := store.Release(bg, scope, key); err != nil {
			log.Warn("Failed to release idempotency key", "scope", scope, "error", err)
		}
		return
	}
	if err := store.Complete(bg, scope, key, id); err != nil {
		log.Warn("Failed to complete idempotency key", "scope", scope, "error", err)
	}
}
