// Package testutil spins up in-memory backing stores for integration-style
// tests: SQLite instead of Postgres, miniredis instead of Redis. No Docker
// required, fast and isolated.
package testutil

import (
	"fmt"
	"testing"

	"blog-api/internal/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenTestDB creates an in-memory SQLite database with the full schema
// migrated. Each call gets its own database, so parallel tests stay isolated.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A unique name keeps the shared-cache memory DB private to this test
	// while still surviving across the pool's connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&model.Permission{}, &model.Role{}, &model.User{}, &model.Post{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// OpenTestRedis starts a miniredis server and returns a client bound to it.
func OpenTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return server, client
}

// CreateUser persists a user with the given roles, creating any role that
// does not exist yet.
func CreateUser(t *testing.T, db *gorm.DB, name, email string, roleNames ...string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	roles := make([]model.Role, 0, len(roleNames))
	for _, rn := range roleNames {
		var role model.Role
		err := db.Where("name = ?", rn).
			FirstOrCreate(&role, model.Role{Name: rn, GuardName: model.DefaultGuard}).Error
		if err != nil {
			t.Fatalf("failed to create role %q: %v", rn, err)
		}
		roles = append(roles, role)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        roles,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %q: %v", email, err)
	}
	return user
}

// GrantPermission attaches a permission to a role, creating the permission
// if needed.
func GrantPermission(t *testing.T, db *gorm.DB, roleName, permName string) {
	t.Helper()

	var role model.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		t.Fatalf("role %q not found: %v", roleName, err)
	}

	var perm model.Permission
	err := db.Where("name = ?", permName).
		FirstOrCreate(&perm, model.Permission{Name: permName, GuardName: model.DefaultGuard}).Error
	if err != nil {
		t.Fatalf("failed to create permission %q: %v", permName, err)
	}

	if err := db.Model(&role).Association("Permissions").Append(&perm); err != nil {
		t.Fatalf("failed to grant %q to %q: %v", permName, roleName, err)
	}
}
