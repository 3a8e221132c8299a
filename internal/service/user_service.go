package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"blog-api/internal/authz"
	"blog-api/internal/model"
	"blog-api/internal/query"
	"blog-api/internal/repository"
	"blog-api/internal/resource"
	"blog-api/pkg/apperror"
	"blog-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type CreateUserInput struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
}

type UpdateUserInput struct {
	Name     *string `json:"name" binding:"omitempty,max=255"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

type AssignRolesInput struct {
	Roles []string `json:"roles" binding:"required,min=1"`
}

type UserService interface {
	List(ctx context.Context, values url.Values) (gin.H, error)
	Get(ctx context.Context, id uuid.UUID, values url.Values) (gin.H, error)
	Create(ctx context.Context, input CreateUserInput) (gin.H, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (gin.H, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AssignRoles(ctx context.Context, id uuid.UUID, input AssignRolesInput) (gin.H, error)
	RemoveRole(ctx context.Context, id uuid.UUID, roleName string) (gin.H, error)
}

type userService struct {
	users repository.UserRepository
	perms *authz.PermissionCache
}

func NewUserService(users repository.UserRepository, perms *authz.PermissionCache) UserService {
	return &userService{users: users, perms: perms}
}

func (s *userService) List(ctx context.Context, values url.Values) (gin.H, error) {
	cfg := repository.UserQueryConfig()
	spec := query.Parse(values, cfg)

	page, err := s.users.List(ctx, cfg, spec)
	if err != nil {
		return nil, err
	}
	return resource.Users(page, spec), nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID, values url.Values) (gin.H, error) {
	cfg := repository.UserQueryConfig()
	spec := query.Parse(values, cfg)

	user, err := s.users.FindByID(ctx, id, preloadPaths(cfg, spec)...)
	if err != nil {
		return nil, err
	}
	return resource.User(user, spec), nil
}

func (s *userService) Create(ctx context.Context, input CreateUserInput) (gin.H, error) {
	if err := s.ensureEmailFree(ctx, input.Email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return resource.User(user, query.Spec{}), nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (gin.H, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		if err := s.ensureEmailFree(ctx, *input.Email, user.ID); err != nil {
			return nil, err
		}
		user.Email = *input.Email
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return resource.User(user, query.Spec{}), nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.perms.Invalidate(ctx, id); err != nil {
		logger.Log.Warn("permission cache invalidation failed", zap.Error(err))
	}
	return nil
}

func (s *userService) AssignRoles(ctx context.Context, id uuid.UUID, input AssignRolesInput) (gin.H, error) {
	user, err := s.users.FindByID(ctx, id, "Roles")
	if err != nil {
		return nil, err
	}

	roles, err := s.users.FindRolesByNames(ctx, input.Roles)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(input.Roles) {
		known := make(map[string]struct{}, len(roles))
		for _, r := range roles {
			known[r.Name] = struct{}{}
		}
		var messages []string
		for _, name := range input.Roles {
			if _, ok := known[name]; !ok {
				messages = append(messages, fmt.Sprintf("The role %q does not exist.", name))
			}
		}
		return nil, &apperror.ValidationError{Fields: map[string][]string{"roles": messages}}
	}

	if err := s.users.AssignRoles(ctx, user, roles); err != nil {
		return nil, err
	}
	if err := s.perms.Invalidate(ctx, user.ID); err != nil {
		logger.Log.Warn("permission cache invalidation failed", zap.Error(err))
	}

	return s.Get(ctx, user.ID, url.Values{"include": []string{"roles"}})
}

func (s *userService) RemoveRole(ctx context.Context, id uuid.UUID, roleName string) (gin.H, error) {
	user, err := s.users.FindByID(ctx, id, "Roles")
	if err != nil {
		return nil, err
	}

	roles, err := s.users.FindRolesByNames(ctx, []string{roleName})
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, apperror.NotFound("Role")
	}

	if err := s.users.RemoveRole(ctx, user, &roles[0]); err != nil {
		return nil, err
	}
	if err := s.perms.Invalidate(ctx, user.ID); err != nil {
		logger.Log.Warn("permission cache invalidation failed", zap.Error(err))
	}

	return s.Get(ctx, user.ID, url.Values{"include": []string{"roles"}})
}

func (s *userService) ensureEmailFree(ctx context.Context, email string, selfID uuid.UUID) error {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return &apperror.ValidationError{Fields: map[string][]string{
		"email": {"The email has already been taken."},
	}}
}

// preloadPaths maps the spec's allowed include paths to gorm preload paths.
func preloadPaths(cfg query.Config, spec query.Spec) []string {
	paths := make([]string, 0, len(spec.Includes))
	for _, p := range spec.Includes {
		paths = append(paths, cfg.Includes[p])
	}
	return paths
}
