package service_test

import (
	"context"
	"testing"
	"time"

	"blog-api/internal/authz"
	"blog-api/internal/model"
	"blog-api/internal/repository"
	"blog-api/internal/service"
	"blog-api/internal/testutil"
	"blog-api/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPostService(t *testing.T) (service.PostService, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	return service.NewPostService(repository.NewPostRepository(db)), db
}

func identityFor(u *model.User) *authz.Identity {
	return &authz.Identity{UserID: u.ID, Roles: u.RoleNames()}
}

func TestCreateDerivesSlugAndExcerpt(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.CreateUser(t, db, "Author", "author@example.com")

	out, err := svc.Create(context.Background(), identityFor(author), service.CreatePostInput{
		Title:   "Hello World!",
		Content: "<p>Some <strong>rich</strong> content for the first post.</p>",
		Status:  model.StatusDraft,
	})
	require.NoError(t, err)

	assert.Equal(t, "hello-world", out["slug"])
	assert.Equal(t, "Some rich content for the first post.", out["excerpt"])
	assert.Nil(t, out["published_at"])
}

func TestCreateKeepsExplicitSlugAndExcerpt(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.CreateUser(t, db, "Author", "author@example.com")

	out, err := svc.Create(context.Background(), identityFor(author), service.CreatePostInput{
		Title:   "Hello World!",
		Slug:    "custom-slug",
		Content: "body",
		Excerpt: "my summary",
		Status:  model.StatusDraft,
	})
	require.NoError(t, err)

	assert.Equal(t, "custom-slug", out["slug"])
	assert.Equal(t, "my summary", out["excerpt"])
}

func TestCreatePublishedStampsPublishedAt(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.CreateUser(t, db, "Author", "author@example.com")

	out, err := svc.Create(context.Background(), identityFor(author), service.CreatePostInput{
		Title:   "Going Live",
		Content: "body",
		Status:  model.StatusPublished,
	})
	require.NoError(t, err)

	publishedAt, ok := out["published_at"].(*time.Time)
	require.True(t, ok)
	require.NotNil(t, publishedAt)
	assert.WithinDuration(t, time.Now(), *publishedAt, time.Minute)
	assert.Equal(t, true, out["is_published"])
}

func TestCreateRejectsTakenSlug(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.CreateUser(t, db, "Author", "author@example.com")
	id := identityFor(author)

	_, err := svc.Create(context.Background(), id, service.CreatePostInput{
		Title: "Same Title", Content: "body", Status: model.StatusDraft,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), id, service.CreatePostInput{
		Title: "Same Title", Content: "other body", Status: model.StatusDraft,
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPublishIsIdempotent(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.CreateUser(t, db, "Author", "author@example.com")
	id := identityFor(author)

	_, err := svc.Create(context.Background(), id, service.CreatePostInput{
		Title: "Draft", Content: "body", Status: model.StatusDraft,
	})
	require.NoError(t, err)

	first, err := svc.Publish(context.Background(), id, "draft")
	require.NoError(t, err)
	firstAt := first["published_at"].(*time.Time)
	require.NotNil(t, firstAt)

	second, err := svc.Publish(context.Background(), id, "draft")
	require.NoError(t, err)
	secondAt := second["published_at"].(*time.Time)
	require.NotNil(t, secondAt)

	assert.WithinDuration(t, *firstAt, *secondAt, time.Second, "re-publishing must not move published_at")
}

func TestArchiveKeepsPublishedAt(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.CreateUser(t, db, "Author", "author@example.com")
	id := identityFor(author)

	_, err := svc.Create(context.Background(), id, service.CreatePostInput{
		Title: "Live Post", Content: "body", Status: model.StatusPublished,
	})
	require.NoError(t, err)

	out, err := svc.Archive(context.Background(), id, "live-post")
	require.NoError(t, err)

	assert.Equal(t, model.StatusArchived, out["status"])
	assert.NotNil(t, out["published_at"])
	assert.Equal(t, false, out["is_published"])
}

func TestUpdateKeepsStatusAndSlug(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.CreateUser(t, db, "Author", "author@example.com")
	id := identityFor(author)

	_, err := svc.Create(context.Background(), id, service.CreatePostInput{
		Title: "Stable Post", Content: "body", Status: model.StatusPublished,
	})
	require.NoError(t, err)

	newTitle := "A Brand New Title"
	out, err := svc.Update(context.Background(), id, "stable-post", service.UpdatePostInput{Title: &newTitle})
	require.NoError(t, err)

	assert.Equal(t, "A Brand New Title", out["title"])
	assert.Equal(t, "stable-post", out["slug"])
	assert.Equal(t, model.StatusPublished, out["status"])
}

func TestUpdateRederivesClearedExcerpt(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.CreateUser(t, db, "Author", "author@example.com")
	id := identityFor(author)

	_, err := svc.Create(context.Background(), id, service.CreatePostInput{
		Title: "Post", Content: "original body", Excerpt: "manual excerpt", Status: model.StatusDraft,
	})
	require.NoError(t, err)

	empty := ""
	newContent := "replacement body text"
	out, err := svc.Update(context.Background(), id, "post", service.UpdatePostInput{
		Content: &newContent,
		Excerpt: &empty,
	})
	require.NoError(t, err)

	assert.Equal(t, "replacement body text", out["excerpt"])
}

func TestMutationsForbiddenForNonOwner(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.CreateUser(t, db, "Author", "author@example.com")
	stranger := testutil.CreateUser(t, db, "Stranger", "stranger@example.com", "client")

	_, err := svc.Create(context.Background(), identityFor(author), service.CreatePostInput{
		Title: "Private", Content: "body", Status: model.StatusDraft,
	})
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.Update(context.Background(), identityFor(stranger), "private", service.UpdatePostInput{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	err = svc.Delete(context.Background(), identityFor(stranger), "private")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Publish(context.Background(), identityFor(stranger), "private")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestAdminMayMutateAnyPost(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.CreateUser(t, db, "Author", "author@example.com")
	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", "admin")

	_, err := svc.Create(context.Background(), identityFor(author), service.CreatePostInput{
		Title: "Moderated", Content: "body", Status: model.StatusDraft,
	})
	require.NoError(t, err)

	out, err := svc.Publish(context.Background(), identityFor(admin), "moderated")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, out["status"])

	require.NoError(t, svc.Delete(context.Background(), identityFor(admin), "moderated"))

	_, err = svc.Get(context.Background(), identityFor(admin), "moderated")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListMineOnlyReturnsOwnPosts(t *testing.T) {
	svc, db := newPostService(t)
	mine := testutil.CreateUser(t, db, "Mine", "mine@example.com")
	other := testutil.CreateUser(t, db, "Other", "other@example.com")

	_, err := svc.Create(context.Background(), identityFor(mine), service.CreatePostInput{
		Title: "Mine One", Content: "body", Status: model.StatusDraft,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), identityFor(other), service.CreatePostInput{
		Title: "Theirs", Content: "body", Status: model.StatusDraft,
	})
	require.NoError(t, err)

	out, err := svc.ListMine(context.Background(), identityFor(mine), nil)
	require.NoError(t, err)

	items, ok := out["items"].([]gin.H)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Mine One", items[0]["title"])
}
