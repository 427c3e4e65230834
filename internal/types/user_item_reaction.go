package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// UserItemReaction holds the current reaction state, at most one row per
// (user, item). Toggling overwrites the row; removal deletes it.
type UserItemReaction struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_user_item" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ItemID    int64     `gorm:"not null;uniqueIndex:idx_reactions_user_item" json:"item_id"`
	Reaction  string    `gorm:"type:varchar(16);not null" json:"reaction"`
	Source    string    `gorm:"type:varchar(32);not null" json:"source"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserItemReaction) TableName() string { return "user_item_reactions" }
