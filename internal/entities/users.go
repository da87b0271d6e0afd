package entities

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	LastName     string    `gorm:"size:100" json:"last_name"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IdempotencyKey records the outcome of a non-idempotent request so that a
// retried call with the same key returns the original result.
type IdempotencyKey struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Scope      string    `gorm:"uniqueIndex:idx_idempotency_scope_key;size:64" json:"scope"`
	Key        string    `gorm:"uniqueIndex:idx_idempotency_scope_key;size:255" json:"key"`
	ResourceID uint      `json:"resource_id"`
	Completed  bool      `gorm:"default:false" json:"completed"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}
