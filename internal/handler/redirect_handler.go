package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Kosench/linkpulse/internal/errors"
	"github.com/Kosench/linkpulse/internal/metrics"
	"github.com/Kosench/linkpulse/internal/model"
)

type Resolver interface {
	Resolve(ctx context.Context, visit model.Visit) (string, error)
}

type RedirectHandler struct {
	resolver Resolver
	log      *slog.Logger
}

func NewRedirectHandler(resolver Resolver, log *slog.Logger) *RedirectHandler {
	return &RedirectHandler{
		resolver: resolver,
		log:      log,
	}
}

// Redirect засчитывает клик и отвечает 302 на оригинальную ссылку.
// Клик пишется синхронно, до ответа клиенту.
func (h *RedirectHandler) Redirect(c *gin.Context) {
	visit := model.Visit{
		ShortCode: c.Param("shortCode"),
		IPAddress: c.ClientIP(),
		Device:    deviceFrom(c),
	}

	target, err := h.resolver.Resolve(c.Request.Context(), visit)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrLinkNotFound):
			metrics.ObserveRedirect(metrics.OutcomeNotFound)
		case errors.Is(err, apperrors.ErrLinkExpired):
			metrics.ObserveRedirect(metrics.OutcomeExpired)
		default:
			metrics.ObserveRedirect(metrics.OutcomeError)
		}
		handleError(c, h.log, err)
		return
	}

	metrics.ObserveRedirect(metrics.OutcomeRedirected)
	metrics.ObserveClick(string(visit.Device))

	c.Redirect(http.StatusFound, target)
}
