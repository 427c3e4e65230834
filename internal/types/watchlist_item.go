package types

import (
	"time"

	"github.com/google/uuid"
)

// WatchlistItem is current-state, at most one row per (user, item).
type WatchlistItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_watchlist_user_item" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ItemID    int64     `gorm:"not null;uniqueIndex:idx_watchlist_user_item" json:"item_id"`
	Source    string    `gorm:"type:varchar(32);not null" json:"source"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (WatchlistItem) TableName() string { return "watchlist_items" }
