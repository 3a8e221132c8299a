package query

import (
	"context"
	"fmt"
	"strings"

	"blog-api/pkg/apperror"
	"gorm.io/gorm"
)

// Meta is the pagination block attached to every list payload.
type Meta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

// Page holds one page of records plus pagination metadata.
type Page[T any] struct {
	Items []T
	Meta  Meta
}

// Run applies the spec against the entity's storage: conjunctive filters in
// order, a count over the filtered set, ordering (explicit or default),
// eager loads, then the page slice. A page number past the end yields an
// empty item list with the total intact.
func Run[T any](ctx context.Context, db *gorm.DB, cfg Config, spec Spec) (*Page[T], error) {
	q := db.WithContext(ctx).Model(new(T))

	for _, f := range spec.Filters {
		def := cfg.Filters[f.Key]
		switch def.Kind {
		case FilterExact:
			q = q.Where(def.Column+" = ?", f.Value)
		case FilterPartial:
			q = q.Where("LOWER("+def.Column+") LIKE ? ESCAPE '\\'", PartialPattern(f.Value))
		case FilterScope:
			narrowed, err := def.Scope(q, f.Value)
			if err != nil {
				return nil, err
			}
			q = narrowed
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, apperror.Storage(err)
	}

	orders := spec.Sorts
	if len(orders) == 0 {
		orders = cfg.DefaultSort
	}
	for _, o := range orders {
		def, ok := cfg.Sorts[o.Key]
		if !ok {
			continue
		}
		if def.Join != "" {
			q = q.Joins(def.Join)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		q = q.Order(def.Column + " " + dir)
	}

	for _, path := range spec.Includes {
		q = q.Preload(cfg.Includes[path])
	}

	var items []T
	offset := (spec.Page - 1) * spec.PageSize
	if err := q.Offset(offset).Limit(spec.PageSize).Find(&items).Error; err != nil {
		return nil, apperror.Storage(err)
	}

	totalPages := int((total + int64(spec.PageSize) - 1) / int64(spec.PageSize))

	return &Page[T]{
		Items: items,
		Meta: Meta{
			CurrentPage: spec.Page,
			PerPage:     spec.PageSize,
			TotalItems:  total,
			TotalPages:  totalPages,
		},
	}, nil
}

// PartialPattern builds the LIKE argument for a partial filter. The value is
// lowercased and escaped so it always matches literally, never as a pattern.
func PartialPattern(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(value))
	return "%" + escaped + "%"
}

// Like builds a case-insensitive literal substring predicate for use inside
// scope filters, e.g. search over several columns.
func Like(column string) string {
	return fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", column)
}
