package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProfileSchemaVersion is a schema version for the snapshot shape, not a
// per-aggregation counter. Each aggregation replaces the prior row wholesale.
const ProfileSchemaVersion = 1

// ProfileStats is the activity/derived-metrics block stored inside the
// profile snapshot. Field names match the stored JSON.
type ProfileStats struct {
	EventsTotal90d int        `json:"events_total_90d"`
	LastEventAt    *time.Time `json:"last_event_at"`
	ActiveDays90d  int        `json:"active_days_90d"`

	ViewsCount90d           int `json:"views_count_90d"`
	LikesCount90d           int `json:"likes_count_90d"`
	UnlikesCount90d         int `json:"unlikes_count_90d"`
	WatchlistAddCount90d    int `json:"watchlist_add_count_90d"`
	WatchlistRemoveCount90d int `json:"watchlist_remove_count_90d"`

	LikedItemsCount     int `json:"liked_items_count"`
	WatchlistItemsCount int `json:"watchlist_items_count"`

	PreferenceConfidence float64 `json:"preference_confidence"`
	TasteDiversity       float64 `json:"taste_diversity"`
}

// UserProfile is the versioned preference snapshot, one current row per user,
// overwritten wholesale on each aggregation.
type UserProfile struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	ProfileVersion int       `gorm:"not null;default:1" json:"profile_version"`
	WindowDays     int       `gorm:"not null;default:90" json:"window_days"`
	ComputedAt     time.Time `gorm:"not null" json:"computed_at"`

	GenreWeights    datatypes.JSON `gorm:"type:jsonb" json:"genre_weights"`
	DecadeWeights   datatypes.JSON `gorm:"type:jsonb" json:"decade_weights"`
	LanguageWeights datatypes.JSON `gorm:"type:jsonb" json:"language_weights"`
	Stats           datatypes.JSON `gorm:"type:jsonb" json:"stats"`

	// Legacy counters kept for backward compatibility with older readers.
	TotalEvents   int            `gorm:"not null;default:0" json:"total_events"`
	LikeCount     int            `gorm:"not null;default:0" json:"like_count"`
	DislikeCount  int            `gorm:"not null;default:0" json:"dislike_count"`
	LikedItems    datatypes.JSON `gorm:"type:jsonb" json:"liked_items"`
	DislikedItems datatypes.JSON `gorm:"type:jsonb" json:"disliked_items"`
	LastEventAt   *time.Time     `json:"last_event_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profiles" }

// GenreWeightMap decodes the stored genre weights. A missing or malformed
// column decodes to an empty map rather than an error.
func (p *UserProfile) GenreWeightMap() map[string]float64 {
	return decodeWeights(p.GenreWeights)
}

func (p *UserProfile) DecadeWeightMap() map[string]float64 {
	return decodeWeights(p.DecadeWeights)
}

func (p *UserProfile) LanguageWeightMap() map[string]float64 {
	return decodeWeights(p.LanguageWeights)
}

func (p *UserProfile) StatsBlock() ProfileStats {
	var stats ProfileStats
	if len(p.Stats) > 0 {
		_ = json.Unmarshal(p.Stats, &stats)
	}
	return stats
}

func decodeWeights(raw datatypes.JSON) map[string]float64 {
	weights := map[string]float64{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &weights)
	}
	return weights
}
