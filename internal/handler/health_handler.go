package handler

import (
	"net/http"
	"time"

	"blog-api/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	service string
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, service string) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, service: service}
}

// Check is the basic liveness probe.
func (h *HealthHandler) Check(c *gin.Context) {
	response.Success(c, http.StatusOK, "healthy", gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   h.service,
	})
}

// Detailed reports reachability and latency of the backing subsystems.
func (h *HealthHandler) Detailed(c *gin.Context) {
	checks := gin.H{
		"database": h.checkDatabase(c),
		"cache":    h.checkCache(c),
	}

	healthy := true
	for _, v := range checks {
		if check, ok := v.(gin.H); ok && check["status"] != "healthy" {
			healthy = false
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, response.Envelope{
		Success: healthy,
		Message: status,
		Data: gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   h.service,
			"checks":    checks,
		},
	})
}

func (h *HealthHandler) checkDatabase(c *gin.Context) gin.H {
	start := time.Now()
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		return gin.H{"status": "unhealthy", "message": "Database connection failed"}
	}
	return gin.H{
		"status":     "healthy",
		"message":    "Database connection successful",
		"latency_ms": time.Since(start).Milliseconds(),
	}
}

func (h *HealthHandler) checkCache(c *gin.Context) gin.H {
	if h.redis == nil {
		return gin.H{"status": "unhealthy", "message": "Cache not configured"}
	}
	start := time.Now()
	if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
		return gin.H{"status": "unhealthy", "message": "Cache connection failed"}
	}
	return gin.H{
		"status":     "healthy",
		"message":    "Cache connection successful",
		"latency_ms": time.Since(start).Milliseconds(),
	}
}
