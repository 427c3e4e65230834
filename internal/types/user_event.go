package types

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded in the append-only interaction log.
const (
	EventTypeView                = "view"
	EventTypeLike                = "like"
	EventTypeRemoveLike          = "remove_like"
	EventTypeDislike             = "dislike"
	EventTypeRemoveDislike       = "remove_dislike"
	EventTypeAddToWatchlist      = "add_to_watchlist"
	EventTypeRemoveFromWatchlist = "remove_from_watchlist"
)

const EventSourceCatalog = "catalog"

// UserEvent rows are created once per user action and never mutated or deleted.
type UserEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_user_events_user_created" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ItemID     int64     `gorm:"not null;index" json:"item_id"`
	EventType  string    `gorm:"type:varchar(32);not null;index" json:"event_type"`
	EventValue *float64  `json:"event_value"`
	Source     string    `gorm:"type:varchar(32);not null" json:"source"`
	CreatedAt  time.Time `gorm:"not null;index:idx_user_events_user_created" json:"created_at"`
}

func (UserEvent) TableName() string { return "user_events" }
