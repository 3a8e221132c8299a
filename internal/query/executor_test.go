package query_test

import (
	"context"
	"testing"
	"time"

	"blog-api/internal/model"
	"blog-api/internal/query"
	"blog-api/internal/testutil"
	"blog-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func postConfig() query.Config {
	return query.Config{
		Filters: map[string]query.Filter{
			"title":     query.Partial("posts.title"),
			"status":    query.Exact("posts.status"),
			"published": query.Scope(func(db *gorm.DB, _ string) (*gorm.DB, error) {
				return db.Where("posts.status = ? AND posts.published_at <= ?", model.StatusPublished, time.Now()), nil
			}),
			"broken": query.Scope(func(db *gorm.DB, arg string) (*gorm.DB, error) {
				return nil, apperror.InvalidFilter("broken", "always fails")
			}),
		},
		Sorts: map[string]query.Sort{
			"title":      {Column: "posts.title"},
			"created_at": {Column: "posts.created_at"},
		},
		DefaultSort: []query.Order{{Key: "title", Desc: false}},
	}
}

func seedPosts(t *testing.T, db *gorm.DB, owner *model.User, titles []string, status string) {
	t.Helper()
	now := time.Now().Add(-time.Hour)
	for i, title := range titles {
		var publishedAt *time.Time
		if status == model.StatusPublished {
			ts := now.Add(time.Duration(i) * time.Minute)
			publishedAt = &ts
		}
		post := &model.Post{
			Title:       title,
			Slug:        title + "-slug",
			Content:     "content of " + title,
			Status:      status,
			UserID:      owner.ID,
			PublishedAt: publishedAt,
		}
		require.NoError(t, db.Create(post).Error)
	}
}

func TestRunExactFilter(t *testing.T) {
	db := testutil.OpenTestDB(t)
	owner := testutil.CreateUser(t, db, "Author", "author@example.com")
	seedPosts(t, db, owner, []string{"a", "b"}, model.StatusDraft)
	seedPosts(t, db, owner, []string{"c"}, model.StatusArchived)

	spec := query.Spec{
		Filters:  []query.AppliedFilter{{Key: "status", Value: model.StatusDraft}},
		Page:     1,
		PageSize: 10,
	}
	page, err := query.Run[model.Post](context.Background(), db, postConfig(), spec)
	require.NoError(t, err)

	assert.Equal(t, int64(2), page.Meta.TotalItems)
	assert.Len(t, page.Items, 2)
}

func TestRunPartialFilterMatchesLiterally(t *testing.T) {
	db := testutil.OpenTestDB(t)
	owner := testutil.CreateUser(t, db, "Author", "author@example.com")
	seedPosts(t, db, owner, []string{"Save 50% Today", "Save Nothing", "x50zToday"}, model.StatusDraft)

	// "%" must match only the literal character, never act as a wildcard.
	spec := query.Spec{
		Filters:  []query.AppliedFilter{{Key: "title", Value: "50%"}},
		Page:     1,
		PageSize: 10,
	}
	page, err := query.Run[model.Post](context.Background(), db, postConfig(), spec)
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "Save 50% Today", page.Items[0].Title)
}

func TestRunPartialFilterIsCaseInsensitive(t *testing.T) {
	db := testutil.OpenTestDB(t)
	owner := testutil.CreateUser(t, db, "Author", "author@example.com")
	seedPosts(t, db, owner, []string{"Getting Started With Go"}, model.StatusDraft)

	spec := query.Spec{
		Filters:  []query.AppliedFilter{{Key: "title", Value: "started WITH"}},
		Page:     1,
		PageSize: 10,
	}
	page, err := query.Run[model.Post](context.Background(), db, postConfig(), spec)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestRunScopeFilterErrorPropagates(t *testing.T) {
	db := testutil.OpenTestDB(t)

	spec := query.Spec{
		Filters:  []query.AppliedFilter{{Key: "broken", Value: "x"}},
		Page:     1,
		PageSize: 10,
	}
	_, err := query.Run[model.Post](context.Background(), db, postConfig(), spec)
	assert.ErrorIs(t, err, apperror.ErrInvalidFilter)
}

func TestRunFiltersCombineConjunctively(t *testing.T) {
	db := testutil.OpenTestDB(t)
	owner := testutil.CreateUser(t, db, "Author", "author@example.com")
	seedPosts(t, db, owner, []string{"go tips", "go tricks"}, model.StatusPublished)
	seedPosts(t, db, owner, []string{"go drafts"}, model.StatusDraft)

	spec := query.Spec{
		Filters: []query.AppliedFilter{
			{Key: "title", Value: "go"},
			{Key: "published", Value: "true"},
		},
		Page:     1,
		PageSize: 10,
	}
	page, err := query.Run[model.Post](context.Background(), db, postConfig(), spec)
	require.NoError(t, err)

	assert.Equal(t, int64(2), page.Meta.TotalItems)
}

func TestRunSortsExplicitAndDefault(t *testing.T) {
	db := testutil.OpenTestDB(t)
	owner := testutil.CreateUser(t, db, "Author", "author@example.com")
	seedPosts(t, db, owner, []string{"banana", "apple", "cherry"}, model.StatusDraft)

	// Explicit descending sort.
	spec := query.Spec{
		Sorts:    []query.Order{{Key: "title", Desc: true}},
		Page:     1,
		PageSize: 10,
	}
	page, err := query.Run[model.Post](context.Background(), db, postConfig(), spec)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "cherry", page.Items[0].Title)

	// No sorts requested: the default ascending title sort applies.
	spec = query.Spec{Page: 1, PageSize: 10}
	page, err = query.Run[model.Post](context.Background(), db, postConfig(), spec)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "apple", page.Items[0].Title)
}

func TestRunPaginationMeta(t *testing.T) {
	db := testutil.OpenTestDB(t)
	owner := testutil.CreateUser(t, db, "Author", "author@example.com")
	seedPosts(t, db, owner, []string{"p1", "p2", "p3", "p4", "p5"}, model.StatusPublished)

	spec := query.Spec{Page: 2, PageSize: 2}
	page, err := query.Run[model.Post](context.Background(), db, postConfig(), spec)
	require.NoError(t, err)

	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Meta.CurrentPage)
	assert.Equal(t, 2, page.Meta.PerPage)
	assert.Equal(t, int64(5), page.Meta.TotalItems)
	assert.Equal(t, 3, page.Meta.TotalPages)
}

func TestRunPageBeyondRange(t *testing.T) {
	db := testutil.OpenTestDB(t)
	owner := testutil.CreateUser(t, db, "Author", "author@example.com")
	seedPosts(t, db, owner, []string{"p1", "p2"}, model.StatusDraft)

	spec := query.Spec{Page: 9, PageSize: 10}
	page, err := query.Run[model.Post](context.Background(), db, postConfig(), spec)
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Equal(t, int64(2), page.Meta.TotalItems)
	assert.Equal(t, 1, page.Meta.TotalPages)
}
