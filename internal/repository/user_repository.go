package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"blog-api/internal/model"
	"blog-api/internal/query"
	"blog-api/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID, preloads ...string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// Delete removes the user, their role/permission links, and every post
	// they own in a single transaction.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, cfg query.Config, spec query.Spec) (*query.Page[model.User], error)
	FindRolesByNames(ctx context.Context, names []string) ([]model.Role, error)
	AssignRoles(ctx context.Context, user *model.User, roles []model.Role) error
	RemoveRole(ctx context.Context, user *model.User, role *model.Role) error

	// authz.PermissionSource
	PermissionsForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
	UserIDsWithRole(ctx context.Context, roleID uint) ([]uuid.UUID, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// UserQueryConfig is the allow-list for user list endpoints. Keys outside
// this configuration are ignored by the parser.
func UserQueryConfig() query.Config {
	return query.Config{
		Filters: map[string]query.Filter{
			"id":             query.Exact("users.id"),
			"name":           query.Partial("users.name"),
			"email":          query.Partial("users.email"),
			"created_after":  query.Scope(scopeCreatedAfter),
			"created_before": query.Scope(scopeCreatedBefore),
			"has_role":       query.Scope(scopeHasRole),
			"has_any_role":   query.Scope(scopeHasAnyRole),
			"has_permission": query.Scope(scopeHasPermission),
		},
		Sorts: map[string]query.Sort{
			"name":       {Column: "users.name"},
			"email":      {Column: "users.email"},
			"created_at": {Column: "users.created_at"},
			"updated_at": {Column: "users.updated_at"},
			"latest":     {Column: "users.created_at"},
		},
		Includes: map[string]string{
			"roles":             "Roles",
			"roles.permissions": "Roles.Permissions",
			"permissions":       "Permissions",
		},
		DefaultSort: []query.Order{{Key: "created_at", Desc: true}},
	}
}

func scopeCreatedAfter(db *gorm.DB, arg string) (*gorm.DB, error) {
	t, err := parseDate(arg)
	if err != nil {
		return nil, apperror.InvalidFilter("created_after", "expected a date (YYYY-MM-DD or RFC3339)")
	}
	return db.Where("users.created_at >= ?", t), nil
}

func scopeCreatedBefore(db *gorm.DB, arg string) (*gorm.DB, error) {
	t, err := parseDate(arg)
	if err != nil {
		return nil, apperror.InvalidFilter("created_before", "expected a date (YYYY-MM-DD or RFC3339)")
	}
	return db.Where("users.created_at <= ?", t), nil
}

func scopeHasRole(db *gorm.DB, arg string) (*gorm.DB, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, apperror.InvalidFilter("has_role", "role name required")
	}
	return db.Where(
		"EXISTS (SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = users.id AND r.name = ?)",
		arg,
	), nil
}

func scopeHasAnyRole(db *gorm.DB, arg string) (*gorm.DB, error) {
	var names []string
	for _, name := range strings.Split(arg, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, apperror.InvalidFilter("has_any_role", "at least one role name required")
	}
	return db.Where(
		"EXISTS (SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = users.id AND r.name IN ?)",
		names,
	), nil
}

func scopeHasPermission(db *gorm.DB, arg string) (*gorm.DB, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, apperror.InvalidFilter("has_permission", "permission name required")
	}
	return db.Where(
		`EXISTS (
			SELECT 1 FROM permissions p
			JOIN role_permissions rp ON rp.permission_id = p.id
			JOIN user_roles ur ON ur.role_id = rp.role_id
			WHERE ur.user_id = users.id AND p.name = ?
		) OR EXISTS (
			SELECT 1 FROM permissions p
			JOIN user_permissions up ON up.permission_id = p.id
			WHERE up.user_id = users.id AND p.name = ?
		)`,
		arg, arg,
	), nil
}

func parseDate(arg string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", arg); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, arg)
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID, preloads ...string) (*model.User, error) {
	q := r.db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}

	var user model.User
	if err := q.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User")
		}
		return nil, apperror.Storage(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User")
		}
		return nil, apperror.Storage(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_roles WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_permissions WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, "id = ?", id).Error
	})
	if err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, cfg query.Config, spec query.Spec) (*query.Page[model.User], error) {
	return query.Run[model.User](ctx, r.db, cfg, spec)
}

func (r *userRepository) FindRolesByNames(ctx context.Context, names []string) ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&roles).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	return roles, nil
}

func (r *userRepository) AssignRoles(ctx context.Context, user *model.User, roles []model.Role) error {
	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Append(&roles); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (r *userRepository) RemoveRole(ctx context.Context, user *model.User, role *model.Role) error {
	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Delete(role); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (r *userRepository) PermissionsForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT p.name FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = ?
		UNION
		SELECT p.name FROM permissions p
		JOIN user_permissions up ON up.permission_id = p.id
		WHERE up.user_id = ?`, userID, userID).Scan(&names).Error
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return names, nil
}

func (r *userRepository) UserIDsWithRole(ctx context.Context, roleID uint) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Raw("SELECT user_id FROM user_roles WHERE role_id = ?", roleID).
		Scan(&ids).Error
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return ids, nil
}
