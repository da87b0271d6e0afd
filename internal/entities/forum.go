package entities

import (
	"time"

	"gorm.io/datatypes"
)

type Post struct {
	ID        uint                      `gorm:"primaryKey" json:"id"`
	Title     string                    `gorm:"index;size:512" json:"title"`
	Content   string                    `gorm:"type:text" json:"content"`
	UserID    uint                      `gorm:"index" json:"user_id"`
	Tags      datatypes.JSONSlice[Tag]  `json:"tags"`
	ReplyIDs  datatypes.JSONSlice[uint] `json:"replies"` // Top-level replies, in insertion order
	Date      time.Time                 `json:"date"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

// Reply has no parent pointer; it is reachable only through the ReplyIDs of
// a Post or of another Reply.
type Reply struct {
	ID        uint                      `gorm:"primaryKey" json:"id"`
	Content   string                    `gorm:"type:text" json:"content"`
	UserID    uint                      `gorm:"index" json:"user_id"`
	ReplyIDs  datatypes.JSONSlice[uint] `json:"replies"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

func (Reply) TableName() string {
	return "replies"
}

// RemoveIDs returns ids without any member of drop, and whether anything was removed.
func RemoveIDs(ids []uint, drop map[uint]struct{}) ([]uint, bool) {
	kept := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, gone := drop[id]; gone {
			continue
		}
		kept = append(kept, id)
	}
	return kept, len(kept) != len(ids)
}

// ReplyIDList converts ids to the stored list form, never nil so the column
// holds [] rather than null.
func ReplyIDList(ids []uint) datatypes.JSONSlice[uint] {
	if ids == nil {
		return datatypes.JSONSlice[uint]{}
	}
	return datatypes.JSONSlice[uint](ids)
}
