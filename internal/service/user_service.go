package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kosench/linkpulse/internal/auth"
	apperrors "github.com/Kosench/linkpulse/internal/errors"
	"github.com/Kosench/linkpulse/internal/model"
	"github.com/Kosench/linkpulse/internal/repository"
	"github.com/Kosench/linkpulse/internal/utils"
)

const bcryptCost = 10

type UserService struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
	log    *slog.Logger
	now    func() time.Time
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenIssuer, log *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if err := utils.RequireFields("All fields are Required",
		"username", req.Username,
		"email", req.Email,
		"mobile", req.Mobile,
		"password", req.Password,
	); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.ErrUserAlreadyExists
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return nil, storeError("failed to check email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New(),
		Username:     utils.SanitizeInput(req.Username),
		Email:        email,
		Mobile:       utils.SanitizeInput(req.Mobile),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeError("failed to create user", err)
	}

	s.log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login проверяет пароль и выдает bearer-токен
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if err := utils.RequireFields("All Fields are Required !",
		"email", req.Email,
		"password", req.Password,
	); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, storeError("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{Token: token, User: user}, nil
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*model.ProfileResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError("failed to get user", err)
	}

	return &model.ProfileResponse{
		Username: user.Username,
		Email:    user.Email,
		Mobile:   user.Mobile,
	}, nil
}

// UpdateProfile меняет только непустые поля
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return storeError("failed to get user", err)
	}

	if v := utils.SanitizeInput(req.Username); v != "" {
		user.Username = v
	}
	if v := normalizeEmail(req.Email); v != "" {
		user.Email = v
	}
	if v := utils.SanitizeInput(req.Mobile); v != "" {
		user.Mobile = v
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return storeError("failed to update user", err)
	}
	return nil
}

// Delete удаляет пользователя, его ссылки и клики
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return storeError("failed to delete user", err)
	}

	s.log.Info("user deleted", slog.String("user_id", userID.String()))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(utils.SanitizeInput(email))
}
