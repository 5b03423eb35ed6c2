package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/blogpress/models"
)

// GormPostRepository stores posts in a relational database.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a post repository backed by db.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) Create(ctx context.Context, post *models.Post) error {
	return translateGormError(r.db.WithContext(ctx).Create(post).Error)
}

func (r *GormPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &post, nil
}

func (r *GormPostRepository) List(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	var posts []models.Post
	if err := r.listQuery(ctx, filter).Find(&posts).Error; err != nil {
		return nil, translateGormError(err)
	}
	return posts, nil
}

// likeEscaper makes LIKE wildcards in a search term match literally under ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *GormPostRepository) listQuery(ctx context.Context, filter models.PostFilter) *gorm.DB {
	f := NormalizeFilter(filter)
	order := "updated_at DESC"
	if f.Ascending {
		order = "updated_at ASC"
	}

	query := r.db.WithContext(ctx).Model(&models.Post{}).Order(order)
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Slug != "" {
		query = query.Where("slug = ?", f.Slug)
	}
	if f.PostID != "" {
		query = query.Where("id = ?", f.PostID)
	}
	if f.SearchTerm != "" {
		like := "%" + likeEscaper.Replace(f.SearchTerm) + "%"
		query = query.Where("title LIKE ? ESCAPE '!' OR content LIKE ? ESCAPE '!'", like, like)
	}
	return query.Offset(f.StartIndex).Limit(f.Limit)
}

func (r *GormPostRepository) Count(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	query := r.db.WithContext(ctx).Model(&models.Post{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if err := query.Count(&n).Error; err != nil {
		return 0, translateGormError(err)
	}
	return n, nil
}

func (r *GormPostRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(post).Select("title", "slug", "category", "content", "image", "updated_at").Updates(post)
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormPostRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ PostRepository = (*GormPostRepository)(nil)
var _ UserRepository = (*GormUserRepository)(nil)

// AutoMigrateModels lists the models managed by the relational backend.
func AutoMigrateModels() []interface{} {
	return []interface{}{&models.User{}, &models.Post{}}
}
