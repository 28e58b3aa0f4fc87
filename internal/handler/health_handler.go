package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Probe проверяет внешнюю зависимость. nil означает, что зависимость отключена.
type Probe func(ctx context.Context) error

type HealthHandler struct {
	database Probe
	cache    Probe
	version  func(ctx context.Context) (string, error)
	storage  string
}

func NewHealthHandler(storage string, database, cache Probe, version func(ctx context.Context) (string, error)) *HealthHandler {
	return &HealthHandler{
		database: database,
		cache:    cache,
		version:  version,
		storage:  storage,
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	check := func(p Probe) string {
		if p == nil {
			return "disabled"
		}
		if err := p(ctx); err != nil {
			status = "degraded"
			return "unhealthy"
		}
		return "healthy"
	}

	services := gin.H{
		"database": check(h.database),
		"cache":    check(h.cache),
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"storage":  h.storage,
		"services": services,
	})
}

func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"service":       "linkpulse",
		"version":       "1.0.0",
		"storage":       h.storage,
		"cache_enabled": h.cache != nil,
	}

	if h.version != nil {
		info["database_driver"] = "pgx"
		if v, err := h.version(c.Request.Context()); err == nil {
			info["database_version"] = v
		}
	}
	if h.cache != nil {
		info["cache_driver"] = "redis"
	}

	c.JSON(http.StatusOK, info)
}
