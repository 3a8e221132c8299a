package query

import "gorm.io/gorm"

type FilterKind int

const (
	// FilterExact matches the column for equality.
	FilterExact FilterKind = iota
	// FilterPartial matches a case-insensitive literal substring.
	FilterPartial
	// FilterScope dispatches to a registered predicate function.
	FilterScope
)

// ScopeFunc narrows a query with a named domain predicate. The raw client
// argument is passed through; the function must validate its own shape and
// return apperror.ErrInvalidFilter on malformed input.
type ScopeFunc func(db *gorm.DB, arg string) (*gorm.DB, error)

type Filter struct {
	Kind   FilterKind
	Column string
	Scope  ScopeFunc
}

// Sort maps an allow-listed sort key onto a sortable column. Join, when set,
// is applied before ordering so computed keys can sort across relations.
type Sort struct {
	Column string
	Join   string
}

// Order is one requested sort key with its direction.
type Order struct {
	Key  string
	Desc bool
}

// Config is the per-entity allow-list. Any client-supplied filter, sort, or
// include key not present here is silently ignored.
type Config struct {
	Filters  map[string]Filter
	Sorts    map[string]Sort
	Includes map[string]string // query path -> preload path, e.g. "roles.permissions" -> "Roles.Permissions"

	// DefaultSort is applied when the client sends no sort keys, keeping
	// pagination deterministic. Keys must exist in Sorts.
	DefaultSort []Order

	DefaultPageSize int
	MaxPageSize     int
}

const (
	defaultPageSize = 15
	maxPageSize     = 100
)

func (c Config) defaultSize() int {
	if c.DefaultPageSize > 0 {
		return c.DefaultPageSize
	}
	return defaultPageSize
}

func (c Config) maxSize() int {
	if c.MaxPageSize > 0 {
		return c.MaxPageSize
	}
	return maxPageSize
}

// Exact builds an equality filter definition.
func Exact(column string) Filter {
	return Filter{Kind: FilterExact, Column: column}
}

// Partial builds a case-insensitive substring filter definition.
func Partial(column string) Filter {
	return Filter{Kind: FilterPartial, Column: column}
}

// Scope builds a named-predicate filter definition.
func Scope(fn ScopeFunc) Filter {
	return Filter{Kind: FilterScope, Scope: fn}
}
