package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

type WatchlistItemRepo interface {
	GetByUserAndItem(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemID int64) (*types.WatchlistItem, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.WatchlistItem, error)
	Create(ctx context.Context, tx *gorm.DB, item *types.WatchlistItem) error
	Delete(ctx context.Context, tx *gorm.DB, item *types.WatchlistItem) error
}

type watchlistItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWatchlistItemRepo(db *gorm.DB, baseLog *logger.Logger) WatchlistItemRepo {
	return &watchlistItemRepo{db: db, log: baseLog.With("repo", "WatchlistItemRepo")}
}

func (r *watchlistItemRepo) GetByUserAndItem(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemID int64) (*types.WatchlistItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.WatchlistItem
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *watchlistItemRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.WatchlistItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.WatchlistItem
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *watchlistItemRepo) Create(ctx context.Context, tx *gorm.DB, item *types.WatchlistItem) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(item).Error
}

func (r *watchlistItemRepo) Delete(ctx context.Context, tx *gorm.DB, item *types.WatchlistItem) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Delete(item).Error
}
