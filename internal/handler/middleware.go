package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kosench/linkpulse/internal/auth"
	"github.com/Kosench/linkpulse/internal/cache"
	"github.com/Kosench/linkpulse/internal/device"
	"github.com/Kosench/linkpulse/internal/model"
)

// Ключи значений в gin.Context
const (
	ctxDevice   = "device"
	ctxUserID   = "userID"
	ctxUsername = "username"
)

// rateLimitTimeout - сколько ждем Redis, прежде чем пропустить запрос
const rateLimitTimeout = 100 * time.Millisecond

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// DeviceMiddleware определяет класс устройства по User-Agent
func DeviceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxDevice, device.Classify(c.GetHeader("User-Agent")))
		c.Next()
	}
}

func deviceFrom(c *gin.Context) model.Device {
	if d, ok := c.Get(ctxDevice); ok {
		if dev, ok := d.(model.Device); ok {
			return dev
		}
	}
	return device.Classify(c.GetHeader("User-Agent"))
}

// AuthMiddleware пускает только запросы с валидным bearer-токеном
func AuthMiddleware(tokens TokenVerifier, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.ExtractToken(c.GetHeader("Authorization"))
		if err != nil {
			handleError(c, log, err)
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			log.Debug("token rejected", slog.Any("error", err))
			handleError(c, log, err)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			fail(c, http.StatusUnauthorized, codeUnauthorized, "Not Allowed")
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxUsername, claims.Username)
		c.Next()
	}
}

func currentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// RateLimitMiddleware ограничивает число запросов с ключа за окно.
// При ошибке счетчика запрос пропускается.
func RateLimitMiddleware(limiter cache.RateLimiter, key func(*gin.Context) string, maxRequests int, window time.Duration, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxRequests <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), rateLimitTimeout)
		defer cancel()

		k := key(c)
		count, err := limiter.IncrementRateLimit(ctx, k, window)
		if err != nil {
			log.Warn("rate limit check failed", slog.String("key", k), slog.Any("error", err))
			c.Next()
			return
		}

		remaining := int64(maxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(maxRequests) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			fail(c, http.StatusTooManyRequests, codeRateLimited, "Too many requests. Please try again later.")
			return
		}

		c.Next()
	}
}

// RequestLogger пишет по строке на запрос
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		log.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}
