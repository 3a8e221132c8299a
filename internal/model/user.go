package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultGuard scopes role and permission names.
const DefaultGuard = "api"

type Permission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_permissions_name_guard" json:"name"`
	GuardName string    `gorm:"size:50;not null;default:api;uniqueIndex:idx_permissions_name_guard" json:"guard_name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:100;not null;uniqueIndex:idx_roles_name_guard" json:"name"`
	GuardName   string       `gorm:"size:50;not null;default:api;uniqueIndex:idx_roles_name_guard" json:"guard_name"`
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

type User struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string       `gorm:"size:255;not null" json:"name"`
	Email           string       `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash    string       `gorm:"size:255;not null" json:"-"`
	EmailVerifiedAt *time.Time   `json:"email_verified_at"`
	Roles           []Role       `gorm:"many2many:user_roles" json:"roles,omitempty"`
	Permissions     []Permission `gorm:"many2many:user_permissions" json:"permissions,omitempty"`
	Posts           []Post       `gorm:"constraint:OnDelete:CASCADE" json:"posts,omitempty"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RoleNames returns the names of the user's directly assigned roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
