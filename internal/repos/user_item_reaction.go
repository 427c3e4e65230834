package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

type UserItemReactionRepo interface {
	GetByUserAndItem(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemID int64) (*types.UserItemReaction, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserItemReaction, error)
	GetLikedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserItemReaction, error)
	Create(ctx context.Context, tx *gorm.DB, reaction *types.UserItemReaction) error
	Save(ctx context.Context, tx *gorm.DB, reaction *types.UserItemReaction) error
	Delete(ctx context.Context, tx *gorm.DB, reaction *types.UserItemReaction) error
}

type userItemReactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserItemReactionRepo(db *gorm.DB, baseLog *logger.Logger) UserItemReactionRepo {
	return &userItemReactionRepo{db: db, log: baseLog.With("repo", "UserItemReactionRepo")}
}

func (r *userItemReactionRepo) GetByUserAndItem(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemID int64) (*types.UserItemReaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.UserItemReaction
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

func (r *userItemReactionRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserItemReaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserItemReaction
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userItemReactionRepo) GetLikedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserItemReaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserItemReaction
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND reaction = ?", userID, types.ReactionLike).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userItemReactionRepo) Create(ctx context.Context, tx *gorm.DB, reaction *types.UserItemReaction) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(reaction).Error
}

func (r *userItemReactionRepo) Save(ctx context.Context, tx *gorm.DB, reaction *types.UserItemReaction) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(reaction).Error
}

func (r *userItemReactionRepo) Delete(ctx context.Context, tx *gorm.DB, reaction *types.UserItemReaction) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Delete(reaction).Error
}
