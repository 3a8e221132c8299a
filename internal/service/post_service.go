package service

import (
	"context"
	"net/url"
	"time"

	"blog-api/internal/authz"
	"blog-api/internal/lifecycle"
	"blog-api/internal/model"
	"blog-api/internal/query"
	"blog-api/internal/repository"
	"blog-api/internal/resource"
	"blog-api/pkg/apperror"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreatePostInput struct {
	Title         string        `json:"title" binding:"required,max=255"`
	Slug          string        `json:"slug" binding:"omitempty,max=255"`
	Content       string        `json:"content" binding:"required"`
	Excerpt       string        `json:"excerpt" binding:"omitempty,max=500"`
	Status        string        `json:"status" binding:"required,oneof=draft published archived"`
	FeaturedImage *string       `json:"featured_image" binding:"omitempty,max=255"`
	MetaData      model.JSONMap `json:"meta_data"`
	PublishedAt   *time.Time    `json:"published_at"`
}

type UpdatePostInput struct {
	Title         *string        `json:"title" binding:"omitempty,max=255"`
	Content       *string        `json:"content"`
	Excerpt       *string        `json:"excerpt" binding:"omitempty,max=500"`
	FeaturedImage *string        `json:"featured_image" binding:"omitempty,max=255"`
	MetaData      *model.JSONMap `json:"meta_data"`
}

type PostService interface {
	List(ctx context.Context, id *authz.Identity, values url.Values) (gin.H, error)
	ListMine(ctx context.Context, id *authz.Identity, values url.Values) (gin.H, error)
	ListPublished(ctx context.Context, id *authz.Identity, values url.Values) (gin.H, error)
	Get(ctx context.Context, id *authz.Identity, slug string) (gin.H, error)
	Create(ctx context.Context, id *authz.Identity, input CreatePostInput) (gin.H, error)
	Update(ctx context.Context, id *authz.Identity, slug string, input UpdatePostInput) (gin.H, error)
	Delete(ctx context.Context, id *authz.Identity, slug string) error
	Publish(ctx context.Context, id *authz.Identity, slug string) (gin.H, error)
	Archive(ctx context.Context, id *authz.Identity, slug string) (gin.H, error)
}

type postService struct {
	posts repository.PostRepository
}

func NewPostService(posts repository.PostRepository) PostService {
	return &postService{posts: posts}
}

func (s *postService) List(ctx context.Context, id *authz.Identity, values url.Values) (gin.H, error) {
	cfg := repository.PostQueryConfig()
	spec := query.Parse(values, cfg)

	page, err := s.posts.List(ctx, cfg, spec)
	if err != nil {
		return nil, err
	}
	return resource.Posts(page, id), nil
}

func (s *postService) ListMine(ctx context.Context, id *authz.Identity, values url.Values) (gin.H, error) {
	cfg := repository.OwnedPostsQueryConfig()
	spec := query.Parse(values, cfg)

	page, err := s.posts.List(ctx, cfg, spec, repository.OwnedBy(id.UserID))
	if err != nil {
		return nil, err
	}
	return resource.Posts(page, id), nil
}

func (s *postService) ListPublished(ctx context.Context, id *authz.Identity, values url.Values) (gin.H, error) {
	cfg := repository.PublishedPostsQueryConfig()
	spec := query.Parse(values, cfg)

	page, err := s.posts.List(ctx, cfg, spec, func(db *gorm.DB) *gorm.DB {
		return repository.Published(db)
	})
	if err != nil {
		return nil, err
	}
	return resource.Posts(page, id), nil
}

func (s *postService) Get(ctx context.Context, id *authz.Identity, slug string) (gin.H, error) {
	post, err := s.posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return resource.Post(post, id), nil
}

func (s *postService) Create(ctx context.Context, id *authz.Identity, input CreatePostInput) (gin.H, error) {
	slug := input.Slug
	if slug == "" {
		slug = lifecycle.Slugify(input.Title)
	}
	if err := s.ensureSlugFree(ctx, slug); err != nil {
		return nil, err
	}

	excerpt := input.Excerpt
	if excerpt == "" {
		excerpt = lifecycle.Excerpt(input.Content)
	}

	post := &model.Post{
		Title:         input.Title,
		Slug:          slug,
		Content:       input.Content,
		Excerpt:       excerpt,
		Status:        input.Status,
		FeaturedImage: input.FeaturedImage,
		MetaData:      input.MetaData,
		UserID:        id.UserID,
		PublishedAt:   input.PublishedAt,
	}

	if post.Status == model.StatusPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	post, err := s.posts.FindBySlug(ctx, post.Slug)
	if err != nil {
		return nil, err
	}
	return resource.Post(post, id), nil
}

func (s *postService) Update(ctx context.Context, id *authz.Identity, slug string, input UpdatePostInput) (gin.H, error) {
	post, err := s.authorizedPost(ctx, id, slug)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		post.Title = *input.Title
		// Slugs stay stable once set so published URLs do not break; only
		// an empty slug is re-derived from the new title.
		if post.Slug == "" {
			post.Slug = lifecycle.Slugify(post.Title)
		}
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	if input.Excerpt != nil {
		post.Excerpt = *input.Excerpt
	}
	if post.Excerpt == "" {
		post.Excerpt = lifecycle.Excerpt(post.Content)
	}
	if input.FeaturedImage != nil {
		post.FeaturedImage = input.FeaturedImage
	}
	if input.MetaData != nil {
		post.MetaData = *input.MetaData
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return resource.Post(post, id), nil
}

func (s *postService) Delete(ctx context.Context, id *authz.Identity, slug string) error {
	post, err := s.authorizedPost(ctx, id, slug)
	if err != nil {
		return err
	}
	return s.posts.Delete(ctx, post.ID)
}

// Publish marks the post published. Re-publishing keeps the original
// published_at, so the operation is idempotent.
func (s *postService) Publish(ctx context.Context, id *authz.Identity, slug string) (gin.H, error) {
	post, err := s.authorizedPost(ctx, id, slug)
	if err != nil {
		return nil, err
	}

	post.Status = model.StatusPublished
	if post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return resource.Post(post, id), nil
}

// Archive changes only the status; published_at is untouched.
func (s *postService) Archive(ctx context.Context, id *authz.Identity, slug string) (gin.H, error) {
	post, err := s.authorizedPost(ctx, id, slug)
	if err != nil {
		return nil, err
	}

	post.Status = model.StatusArchived

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return resource.Post(post, id), nil
}

func (s *postService) authorizedPost(ctx context.Context, id *authz.Identity, slug string) (*model.Post, error) {
	post, err := s.posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !id.Owns(post.UserID) && !id.HasRole("admin") {
		return nil, apperror.ErrForbidden
	}
	return post, nil
}

func (s *postService) ensureSlugFree(ctx context.Context, slug string) error {
	exists, err := s.posts.SlugExists(ctx, slug)
	if err != nil {
		return err
	}
	if exists {
		return &apperror.ValidationError{Fields: map[string][]string{
			"slug": {"The slug has already been taken."},
		}}
	}
	return nil
}
