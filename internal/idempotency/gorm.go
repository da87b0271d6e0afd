package idempotency

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/entities"
)

// GormStore keeps keys in the idempotency_keys table.
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewGormStore creates a table-backed store. Keys older than ttl are treated
// as absent; ttl <= 0 keeps them forever.
func NewGormStore(db *gorm.DB, ttl time.Duration) *GormStore {
	return &GormStore{db: db, ttl: ttl, now: time.Now}
}

func (s *GormStore) Reserve(ctx context.Context, scope, key string) (uint, bool, error) {
	conn := database.Conn(ctx, s.db)

	if s.ttl > 0 {
		cutoff := s.now().Add(-s.ttl)
		if err := conn.Where(keyCond(scope, key)).Where("created_at < ?", cutoff).
			Delete(&entities.IdempotencyKey{}).Error; err != nil {
			return 0, false, fmt.Errorf("failed to expire idempotency key: %w", err)
		}
	}

	row := entities.IdempotencyKey{Scope: scope, Key: key, CreatedAt: s.now()}
	err := conn.Create(&row).Error
	if err == nil {
		return 0, true, nil
	}
	if !database.IsUniqueViolation(err) {
		return 0, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}

	var existing entities.IdempotencyKey
	if err := conn.Where(keyCond(scope, key)).First(&existing).Error; err != nil {
		return 0, false, fmt.Errorf("failed to load idempotency key: %w", err)
	}
	if !existing.Completed {
		return 0, false, ErrInProgress
	}
	return existing.ResourceID, false, nil
}

func (s *GormStore) Complete(ctx context.Context, scope, key string, resourceID uint) error {
	return database.Conn(ctx, s.db).Model(&entities.IdempotencyKey{}).
		Where(keyCond(scope, key)).
		Updates(map[string]any{"resource_id": resourceID, "completed": true}).Error
}

// Release forgets an uncompleted reservation so the request can be retried.
func (s *GormStore) Release(ctx context.Context, scope, key string) error {
	return database.Conn(ctx, s.db).
		Where(keyCond(scope, key)).Where(map[string]any{"completed": false}).
		Delete(&entities.IdempotencyKey{}).Error
}

// Purge deletes keys older than the configured ttl and returns how many were
// removed.
func (s *GormStore) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	result := database.Conn(ctx, s.db).
		Where("created_at < ?", s.now().Add(-s.ttl)).
		Delete(&entities.IdempotencyKey{})
	return result.RowsAffected, result.Error
}

func keyCond(scope, key string) map[string]any {
	return map[string]any{"scope": scope, "key": key}
}
