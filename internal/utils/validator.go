package utils

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/Kosench/linkpulse/internal/errors"
)

const maxURLLength = 2048

// ValidateURL проверяет, что ссылка - абсолютный http(s) URL с хостом
func ValidateURL(field, rawURL string) error {
	if rawURL == "" {
		return apperrors.NewValidationError(field, "URL cannot be empty")
	}

	if len(rawURL) > maxURLLength {
		return apperrors.NewValidationError(field, fmt.Sprintf("URL is too long (max %d characters)", maxURLLength))
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewValidationError(field, fmt.Sprintf("invalid URL format: %v", err))
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return apperrors.NewValidationError(field, "URL must start with http:// or https://")
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError(field, "URL must contain a valid host")
	}

	return nil
}

// RequireFields возвращает ValidationError для первого пустого поля.
// Поля передаются парами имя/значение.
func RequireFields(message string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return apperrors.NewValidationError(pairs[i], message)
		}
	}
	return nil
}

func SanitizeInput(input string) string {
	// Удаляем управляющие символы и обрезаем пробелы
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1 // удаляем символ
		}
		return r
	}, input)

	return strings.TrimSpace(result)
}
