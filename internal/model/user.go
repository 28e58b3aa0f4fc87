package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Mobile       string    `json:"mobile"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
}

type ProfileResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
}

type DateWiseClicks struct {
	Date        string `json:"date"`
	TotalClicks int64  `json:"totalClicks"`
}

type DeviceWiseClicks struct {
	Device Device `json:"device"`
	Clicks int64  `json:"clicks"`
}

type DashboardSummary struct {
	Links            []*Link            `json:"LinkData"`
	TotalClicks      int64              `json:"totalClicks"`
	DateWiseClicks   []DateWiseClicks   `json:"dateWiseClicks"`
	DeviceWiseClicks []DeviceWiseClicks `json:"deviceWiseClicks"`
}
