package repository

import (
	"context"
	"errors"
	"time"

	"blog-api/internal/model"
	"blog-api/internal/query"
	"blog-api/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindBySlug(ctx context.Context, slug string) (*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	// List runs the query spec; optional scopes pre-narrow the set
	// (e.g. to the caller's own posts) before client filters apply.
	List(ctx context.Context, cfg query.Config, spec query.Spec, scopes ...func(*gorm.DB) *gorm.DB) (*query.Page[model.Post], error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// PostQueryConfig is the allow-list for the authenticated post listing.
func PostQueryConfig() query.Config {
	return query.Config{
		Filters: map[string]query.Filter{
			"title":     query.Partial("posts.title"),
			"status":    query.Exact("posts.status"),
			"user_id":   query.Exact("posts.user_id"),
			"search":    query.Scope(scopeSearch),
			"published": query.Scope(scopePublished),
			"draft":     query.Scope(scopeDraft),
		},
		Sorts:       postSorts(),
		Includes:    map[string]string{"user": "User"},
		DefaultSort: []query.Order{{Key: "created_at", Desc: true}},
	}
}

// OwnedPostsQueryConfig backs the my-posts listing; the ownership scope is
// applied by the service, so user_id and include are not client-selectable.
func OwnedPostsQueryConfig() query.Config {
	return query.Config{
		Filters: map[string]query.Filter{
			"title":  query.Partial("posts.title"),
			"status": query.Exact("posts.status"),
			"search": query.Scope(scopeSearch),
		},
		Sorts:       postSorts(),
		DefaultSort: []query.Order{{Key: "created_at", Desc: true}},
	}
}

// PublishedPostsQueryConfig backs the public published listing.
func PublishedPostsQueryConfig() query.Config {
	return query.Config{
		Filters: map[string]query.Filter{
			"title":   query.Partial("posts.title"),
			"user_id": query.Exact("posts.user_id"),
			"search":  query.Scope(scopeSearch),
		},
		Sorts:       postSorts(),
		Includes:    map[string]string{"user": "User"},
		DefaultSort: []query.Order{{Key: "published_at", Desc: true}},
	}
}

func postSorts() map[string]query.Sort {
	return map[string]query.Sort{
		"title":        {Column: "posts.title"},
		"status":       {Column: "posts.status"},
		"published_at": {Column: "posts.published_at"},
		"created_at":   {Column: "posts.created_at"},
		"updated_at":   {Column: "posts.updated_at"},
		"author":       {Column: "users.name", Join: "LEFT JOIN users ON users.id = posts.user_id"},
	}
}

func scopeSearch(db *gorm.DB, arg string) (*gorm.DB, error) {
	if arg == "" {
		return db, nil
	}
	pattern := query.PartialPattern(arg)
	return db.Where(query.Like("posts.title")+" OR "+query.Like("posts.content"), pattern, pattern), nil
}

// scopePublished narrows to effectively published posts; scheduled posts
// with a future published_at are excluded. The client argument is ignored.
func scopePublished(db *gorm.DB, _ string) (*gorm.DB, error) {
	return Published(db), nil
}

func scopeDraft(db *gorm.DB, _ string) (*gorm.DB, error) {
	return db.Where("posts.status = ?", model.StatusDraft), nil
}

// Published narrows a post query to effectively published rows.
func Published(db *gorm.DB) *gorm.DB {
	return db.Where("posts.status = ? AND posts.published_at <= ?", model.StatusPublished, time.Now())
}

// OwnedBy narrows a post query to one author's rows.
func OwnedBy(userID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.user_id = ?", userID)
	}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (r *postRepository) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Preload("User").Where("slug = ?", slug).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Post")
		}
		return nil, apperror.Storage(err)
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.Post{}, "id = ?", id).Error; err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Post{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, apperror.Storage(err)
	}
	return count > 0, nil
}

func (r *postRepository) List(ctx context.Context, cfg query.Config, spec query.Spec, scopes ...func(*gorm.DB) *gorm.DB) (*query.Page[model.Post], error) {
	// The author relation is loaded only when the spec includes it; the
	// projection omits author keys for unloaded relations.
	return query.Run[model.Post](ctx, r.db.Scopes(scopes...), cfg, spec)
}
