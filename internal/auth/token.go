// Package auth выпускает и проверяет bearer-токены (HS256 JWT).
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/Kosench/linkpulse/internal/errors"
)

const issuer = "linkpulse"

// Claims - полезная нагрузка токена: {id, username}
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue подписывает токен со сроком жизни ttl (по умолчанию 12 часов)
func (i *TokenIssuer) Issue(userID uuid.UUID, username string) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID:   userID.String(),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify проверяет подпись и срок действия. Любая ошибка - ErrUnauthorized.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, apperrors.ErrUnauthorized
	}

	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, fmt.Errorf("%w: bad subject", apperrors.ErrUnauthorized)
	}

	return claims, nil
}

// ExtractToken принимает "Bearer <token>" или голый токен
func ExtractToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.Join(apperrors.ErrUnauthorized, errors.New("authorization header is required"))
	}

	// "Bearer" без токена после TrimSpace теряет пробел
	if strings.EqualFold(header, "bearer") {
		return "", errors.Join(apperrors.ErrUnauthorized, errors.New("empty bearer token"))
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return header, nil
	}
	if !strings.EqualFold(scheme, "bearer") {
		return "", errors.Join(apperrors.ErrUnauthorized, errors.New("authorization header must be in format: Bearer {token}"))
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.Join(apperrors.ErrUnauthorized, errors.New("empty bearer token"))
	}
	return token, nil
}
