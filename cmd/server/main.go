package main

import (
	"blog-api/internal/authz"
	"blog-api/internal/config"
	"blog-api/internal/handler"
	"blog-api/internal/middleware"
	"blog-api/internal/model"
	"blog-api/internal/repository"
	"blog-api/internal/router"
	"blog-api/internal/service"
	"blog-api/pkg/database"
	"blog-api/pkg/logger"
	"blog-api/pkg/response"
	"blog-api/pkg/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.AppEnv == "development"); err != nil {
		panic(err)
	}
	defer logger.Sync()

	response.SetDebug(cfg.Debug)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Log.Fatal("database connection failed", zap.Error(err))
	}

	if err := migrate(db); err != nil {
		logger.Log.Fatal("migration failed", zap.Error(err))
	}
	if err := seedRolesAndPermissions(db); err != nil {
		logger.Log.Fatal("failed to seed roles and permissions", zap.Error(err))
	}
	if cfg.AppEnv == "development" {
		if err := seedAdminUser(db); err != nil {
			logger.Log.Fatal("failed to seed admin user", zap.Error(err))
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("invalid redis url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)

	fileStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		logger.Log.Fatal("failed to initialize cloudinary storage", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	permCache := authz.NewPermissionCache(redisClient, userRepo, cfg.PermissionCacheTTL)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	userService := service.NewUserService(userRepo, permCache)
	postService := service.NewPostService(postRepo)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, permCache, cfg.JWTSecret)

	r := router.New(cfg, authMiddleware, router.Handlers{
		Auth:   handler.NewAuthHandler(authService, userService),
		Users:  handler.NewUserHandler(userService),
		Posts:  handler.NewPostHandler(postService),
		Files:  handler.NewFileHandler(fileStorage, cfg.UploadFolder),
		Health: handler.NewHealthHandler(db, redisClient, cfg.AppName),
	})

	logger.Log.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("server exited with error", zap.Error(err))
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Permission{},
		&model.Role{},
		&model.User{},
		&model.Post{},
	)
}

func seedRolesAndPermissions(db *gorm.DB) error {
	permissionNames := []string{
		"manage users",
		"create posts",
		"edit posts",
		"delete posts",
		"publish posts",
		"view reports",
	}

	permissions := make(map[string]model.Permission, len(permissionNames))
	for _, name := range permissionNames {
		var perm model.Permission
		err := db.Where("name = ? AND guard_name = ?", name, model.DefaultGuard).
			FirstOrCreate(&perm, model.Permission{Name: name, GuardName: model.DefaultGuard}).Error
		if err != nil {
			return err
		}
		permissions[name] = perm
	}

	grants := map[string][]string{
		"admin":  permissionNames,
		"editor": {"create posts", "edit posts", "publish posts"},
		"client": {},
		"guest":  {},
	}

	for roleName, permNames := range grants {
		var role model.Role
		err := db.Where("name = ? AND guard_name = ?", roleName, model.DefaultGuard).
			FirstOrCreate(&role, model.Role{Name: roleName, GuardName: model.DefaultGuard}).Error
		if err != nil {
			return err
		}

		perms := make([]model.Permission, 0, len(permNames))
		for _, name := range permNames {
			perms = append(perms, permissions[name])
		}
		if len(perms) > 0 {
			if err := db.Model(&role).Association("Permissions").Replace(&perms); err != nil {
				return err
			}
		}
	}

	return nil
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", "admin@example.com").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var adminRole model.Role
	if err := db.Where("name = ?", "admin").First(&adminRole).Error; err != nil {
		return err
	}

	admin := model.User{
		Name:         "Admin User",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Roles:        []model.Role{adminRole},
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Log.Info("admin user seeded", zap.String("email", admin.Email))
	return nil
}
