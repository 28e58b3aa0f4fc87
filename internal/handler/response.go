package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/Kosench/linkpulse/internal/errors"
)

// Коды ошибок в поле "error"
const (
	codeInvalidRequest     = "invalid_request"
	codeValidation         = "validation_error"
	codeLinkNotFound       = "link_not_found"
	codeLinkExpired        = "link_expired"
	codeNoLinks            = "no_links"
	codeUserNotFound       = "user_not_found"
	codeUserExists         = "user_exists"
	codeInvalidCredentials = "invalid_credentials"
	codeUnauthorized       = "unauthorized"
	codeRateLimited        = "rate_limit_exceeded"
	codeInternal           = "internal_error"
)

const (
	msgLinkNotFound = "Short link not found"
	msgLinkExpired  = "This link has expired and is no longer active"
	msgInternal     = "Internal server error"
)

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"error":   code,
	})
}

func ok(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

// handleError переводит ошибки сервисов в HTTP ответ
func handleError(c *gin.Context, log *slog.Logger, err error) {
	if ve := apperrors.GetValidationError(err); ve != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": ve.Message,
			"error":   codeValidation,
			"field":   ve.Field,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrLinkNotFound):
		fail(c, http.StatusNotFound, codeLinkNotFound, msgLinkNotFound)
	case errors.Is(err, apperrors.ErrLinkExpired):
		fail(c, http.StatusGone, codeLinkExpired, msgLinkExpired)
	case errors.Is(err, apperrors.ErrNoLinks):
		fail(c, http.StatusNotFound, codeNoLinks, "No links found for this user")
	case errors.Is(err, apperrors.ErrUserNotFound):
		fail(c, http.StatusNotFound, codeUserNotFound, "User Not found! Please Register")
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		fail(c, http.StatusBadRequest, codeUserExists, "User Already Exist")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Wrong Username OR Password !")
	case errors.Is(err, apperrors.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, codeUnauthorized, "Not Allowed")
	default:
		code := codeInternal
		if be := apperrors.GetBusinessError(err); be != nil {
			code = be.Code
		}
		log.Error("request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("code", code),
			slog.Any("error", err),
		)
		fail(c, http.StatusInternalServerError, code, msgInternal)
	}
}

// handleBindError различает битый JSON и незаполненные обязательные поля
func handleBindError(c *gin.Context, err error, requiredMessage string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		field := ""
		if len(verrs) > 0 {
			field = verrs[0].Field()
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": requiredMessage,
			"error":   codeValidation,
			"field":   field,
		})
		return
	}

	fail(c, http.StatusBadRequest, codeInvalidRequest, "Invalid JSON format")
}
