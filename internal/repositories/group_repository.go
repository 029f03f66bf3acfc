package repositories

import (
	"errors"

	"github.com/pulseboard/pulse/internal/apperrors"
	"github.com/pulseboard/pulse/internal/models"
	"gorm.io/gorm"
)

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	CreateGroup(group *models.Group) error
	GetGroupBySlug(slug string) (*models.Group, error)
	ListGroups() ([]models.Group, error)
	DeleteGroup(id uint) error
}

// PostgresGroupRepository implements GroupRepository for PostgreSQL
type PostgresGroupRepository struct {
	db *gorm.DB
}

// NewPostgresGroupRepository creates a new PostgresGroupRepository
func NewPostgresGroupRepository(db *gorm.DB) *PostgresGroupRepository {
	return &PostgresGroupRepository{db: db}
}

func (r *PostgresGroupRepository) CreateGroup(group *models.Group) error {
	return r.db.Create(group).Error
}

func (r *PostgresGroupRepository) GetGroupBySlug(slug string) (*models.Group, error) {
	var group models.Group
	if err := r.db.Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *PostgresGroupRepository) ListGroups() ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Order("title").Find(&groups).Error
	return groups, err
}

// DeleteGroup removes the group; dependent posts keep existing with their
// group reference cleared.
func (r *PostgresGroupRepository) DeleteGroup(id uint) error {
	res := r.db.Delete(&models.Group{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
