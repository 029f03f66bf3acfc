package repositories

import (
	"errors"

	"github.com/pulseboard/pulse/internal/apperrors"
	"github.com/pulseboard/pulse/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations. Listing
// methods return posts ordered by creation time descending and take an
// offset/limit pair computed by the pagination package.
type PostRepository interface {
	CreatePost(post *models.Post) error
	GetPostByID(id uint) (*models.Post, error)
	UpdatePost(post *models.Post) error
	ListAllPosts(offset, limit int) ([]models.Post, error)
	CountAllPosts() (int64, error)
	ListPostsByGroup(groupID uint, offset, limit int) ([]models.Post, error)
	CountPostsByGroup(groupID uint) (int64, error)
	ListPostsByAuthor(authorID uint, offset, limit int) ([]models.Post, error)
	CountPostsByAuthor(authorID uint) (int64, error)
	ListPostsByAuthors(authorIDs []uint, offset, limit int) ([]models.Post, error)
	CountPostsByAuthors(authorIDs []uint) (int64, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// listScope applies the preloads and ordering shared by every listing.
// The id tie-break keeps pages stable when posts share a timestamp.
func (r *PostgresPostRepository) listScope() *gorm.DB {
	return r.db.Preload("Author").Preload("Group").
		Order("created_at DESC, id DESC")
}

func (r *PostgresPostRepository) CreatePost(post *models.Post) error {
	return r.db.Create(post).Error
}

func (r *PostgresPostRepository) GetPostByID(id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.Preload("Author").Preload("Group").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// UpdatePost overwrites text, group and image in place. Select is explicit so
// a cleared group or image actually persists as NULL/empty.
func (r *PostgresPostRepository) UpdatePost(post *models.Post) error {
	res := r.db.Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresPostRepository) ListAllPosts(offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.listScope().Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) CountAllPosts() (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Count(&count).Error
	return count, err
}

func (r *PostgresPostRepository) ListPostsByGroup(groupID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.listScope().Where("group_id = ?", groupID).
		Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) CountPostsByGroup(groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

func (r *PostgresPostRepository) ListPostsByAuthor(authorID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.listScope().Where("author_id = ?", authorID).
		Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) CountPostsByAuthor(authorID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func (r *PostgresPostRepository) ListPostsByAuthors(authorIDs []uint, offset, limit int) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	err := r.listScope().Where("author_id IN ?", authorIDs).
		Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) CountPostsByAuthors(authorIDs []uint) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Post{}).Where("author_id IN ?", authorIDs).Count(&count).Error
	return count, err
}
