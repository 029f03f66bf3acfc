package repositories

import (
	"github.com/pulseboard/pulse/internal/apperrors"
	"github.com/pulseboard/pulse/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(follow *models.Follow) error
	DeleteFollow(followerID, authorID uint) error
	IsFollowing(followerID, authorID uint) (bool, error)
	GetFollowedAuthorIDs(followerID uint) ([]uint, error)
	CountFollowRows(followerID, authorID uint) (int64, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) CreateFollow(follow *models.Follow) error {
	return r.db.Create(follow).Error
}

func (r *PostgresFollowRepository) DeleteFollow(followerID, authorID uint) error {
	res := r.db.Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresFollowRepository) IsFollowing(followerID, authorID uint) (bool, error) {
	count, err := r.CountFollowRows(followerID, authorID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFollowedAuthorIDs returns the ids of every author the user follows.
func (r *PostgresFollowRepository) GetFollowedAuthorIDs(followerID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follow{}).Where("follower_id = ?", followerID).
		Pluck("author_id", &ids).Error
	return ids, err
}

func (r *PostgresFollowRepository) CountFollowRows(followerID, authorID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Count(&count).Error
	return count, err
}
