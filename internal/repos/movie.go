package repos

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

// MovieRepo reads the catalog. The catalog is reference data: this repo never
// writes outside of bulk import tooling.
type MovieRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Movie, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.Movie, error)
	GetPopular(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Movie, error)
	GetRecent(ctx context.Context, tx *gorm.DB, since time.Time, limit int) ([]*types.Movie, error)
	GetByGenre(ctx context.Context, tx *gorm.DB, genre string, limit int) ([]*types.Movie, error)
	List(ctx context.Context, tx *gorm.DB, search string, limit, offset int) ([]*types.Movie, int64, error)
}

type movieRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMovieRepo(db *gorm.DB, baseLog *logger.Logger) MovieRepo {
	return &movieRepo{db: db, log: baseLog.With("repo", "MovieRepo")}
}

func (mr *movieRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Movie, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var result types.Movie
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (mr *movieRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.Movie, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.Movie
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *movieRepo) GetPopular(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Movie, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.Movie
	if err := transaction.WithContext(ctx).
		Where("popularity IS NOT NULL").
		Order("popularity DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *movieRepo) GetRecent(ctx context.Context, tx *gorm.DB, since time.Time, limit int) ([]*types.Movie, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.Movie
	if err := transaction.WithContext(ctx).
		Where("release_date IS NOT NULL").
		Where("release_date >= ?", since).
		Order("release_date DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *movieRepo) GetByGenre(ctx context.Context, tx *gorm.DB, genre string, limit int) ([]*types.Movie, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.Movie
	pattern := "%" + strings.ToLower(strings.TrimSpace(genre)) + "%"
	if err := transaction.WithContext(ctx).
		Where("genres IS NOT NULL").
		Where("LOWER(genres) LIKE ?", pattern).
		Order("popularity DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *movieRepo) List(ctx context.Context, tx *gorm.DB, search string, limit, offset int) ([]*types.Movie, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	q := transaction.WithContext(ctx).Model(&types.Movie{})
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.Movie
	if err := q.
		Order("popularity DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
