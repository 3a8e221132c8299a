package query_test

import (
	"net/url"
	"testing"

	"blog-api/internal/query"
	"github.com/stretchr/testify/assert"
)

func testConfig() query.Config {
	return query.Config{
		Filters: map[string]query.Filter{
			"name":   query.Partial("users.name"),
			"email":  query.Partial("users.email"),
			"status": query.Exact("users.status"),
		},
		Sorts: map[string]query.Sort{
			"name":       {Column: "users.name"},
			"created_at": {Column: "users.created_at"},
		},
		Includes: map[string]string{
			"roles":             "Roles",
			"roles.permissions": "Roles.Permissions",
		},
		DefaultSort: []query.Order{{Key: "created_at", Desc: true}},
	}
}

func TestParseIgnoresUnknownFilterKeys(t *testing.T) {
	values := url.Values{}
	values.Set("filter[name]", "alice")
	values.Set("filter[password]", "oops")
	values.Set("filter[is_admin]", "true")

	spec := query.Parse(values, testConfig())

	assert.Equal(t, []query.AppliedFilter{{Key: "name", Value: "alice"}}, spec.Filters)
}

func TestParseAppliesFiltersInStableOrder(t *testing.T) {
	values := url.Values{}
	values.Set("filter[status]", "active")
	values.Set("filter[email]", "example.com")
	values.Set("filter[name]", "ali")

	spec := query.Parse(values, testConfig())

	assert.Equal(t, []query.AppliedFilter{
		{Key: "email", Value: "example.com"},
		{Key: "name", Value: "ali"},
		{Key: "status", Value: "active"},
	}, spec.Filters)
}

func TestParseSorts(t *testing.T) {
	values := url.Values{}
	values.Set("sort", "-created_at,name,secret_column")

	spec := query.Parse(values, testConfig())

	assert.Equal(t, []query.Order{
		{Key: "created_at", Desc: true},
		{Key: "name", Desc: false},
	}, spec.Sorts)
}

func TestParseIncludes(t *testing.T) {
	values := url.Values{}
	values.Set("include", "roles,roles.permissions,posts,roles")

	spec := query.Parse(values, testConfig())

	assert.Equal(t, []string{"roles", "roles.permissions"}, spec.Includes)
	assert.True(t, spec.HasInclude("roles"))
	assert.False(t, spec.HasInclude("posts"))
}

func TestHasIncludeImpliesPrefixes(t *testing.T) {
	values := url.Values{}
	values.Set("include", "roles.permissions")

	spec := query.Parse(values, testConfig())

	// The nested path loads its parent relation, so the parent counts as
	// included even though it was not requested by name.
	assert.True(t, spec.HasInclude("roles"))
	assert.True(t, spec.HasInclude("roles.permissions"))
	assert.False(t, spec.HasInclude("permissions"))
}

func TestParseRejectsNestedIncludeWithUnlistedPrefix(t *testing.T) {
	cfg := testConfig()
	// Nested path allow-listed, but its prefix is not.
	cfg.Includes = map[string]string{"roles.permissions": "Roles.Permissions"}

	values := url.Values{}
	values.Set("include", "roles.permissions")

	spec := query.Parse(values, cfg)
	assert.Empty(t, spec.Includes)
}

func TestParsePaginationDefaults(t *testing.T) {
	spec := query.Parse(url.Values{}, testConfig())
	assert.Equal(t, 1, spec.Page)
	assert.Equal(t, 15, spec.PageSize)
}

func TestParsePaginationMalformedFallsBack(t *testing.T) {
	values := url.Values{}
	values.Set("page[number]", "banana")
	values.Set("page[size]", "-3")

	spec := query.Parse(values, testConfig())
	assert.Equal(t, 1, spec.Page)
	assert.Equal(t, 15, spec.PageSize)
}

func TestParsePaginationCapsPageSize(t *testing.T) {
	values := url.Values{}
	values.Set("page[size]", "5000")

	spec := query.Parse(values, testConfig())
	assert.Equal(t, 100, spec.PageSize)
}

func TestParsePaginationAlternateKeys(t *testing.T) {
	values := url.Values{}
	values.Set("page", "3")
	values.Set("per_page", "25")

	spec := query.Parse(values, testConfig())
	assert.Equal(t, 3, spec.Page)
	assert.Equal(t, 25, spec.PageSize)
}

func TestPartialPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, query.PartialPattern("50%_Off"))
	assert.Equal(t, `%c:\\temp%`, query.PartialPattern(`C:\temp`))
}
