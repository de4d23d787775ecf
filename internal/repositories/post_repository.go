package repositories

import (
	"context"
	"time"

	"github.com/anonto42/yatube/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a listing. The zero value matches every post.
type PostFilter struct {
	GroupID *uint
	// ByAuthors restricts results to AuthorIDs; an empty AuthorIDs then matches nothing.
	ByAuthors bool
	AuthorIDs []uint
}

func (f PostFilter) matchesNothing() bool {
	return f.ByAuthors && len(f.AuthorIDs) == 0
}

// PostRepository defines the interface for post data operations.
// Listings are ordered newest first, ties broken by id descending.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)
	FindPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error)
}

// GormPostRepository implements PostRepository on the relational store
type GormPostRepository struct {
	db *gorm.DB
}

func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error)
}

func (r *GormPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// UpdatePost writes the editable columns only; author and created_at are never touched.
func (r *GormPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", post.ID).
		Select("text", "group_id", "image", "updated_at").
		Updates(map[string]interface{}{
			"text":       post.Text,
			"group_id":   post.GroupID,
			"image":      post.Image,
			"updated_at": post.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormPostRepository) CountPosts(ctx context.Context, filter PostFilter) (int64, error) {
	if filter.matchesNothing() {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(postFilterScope(filter)).Count(&count).Error
	return count, err
}

func (r *GormPostRepository) FindPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	if filter.matchesNothing() {
		return posts, nil
	}
	err := r.db.WithContext(ctx).
		Scopes(postFilterScope(filter)).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func postFilterScope(filter PostFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.GroupID != nil {
			db = db.Where("group_id = ?", *filter.GroupID)
		}
		if filter.ByAuthors {
			db = db.Where("author_id IN ?", filter.AuthorIDs)
		}
		return db
	}
}

var _ PostRepository = (*GormPostRepository)(nil)
