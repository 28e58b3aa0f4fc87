package model

import (
	"time"

	"github.com/google/uuid"
)

type ActiveStatus string

const (
	StatusActive   ActiveStatus = "Active"
	StatusInactive ActiveStatus = "Inactive"
)

// StatusAt вычисляет activeStatus относительно момента сохранения.
// Ссылка неактивна, только если expireDate задан и строго раньше now.
func StatusAt(expireDate *time.Time, now time.Time) ActiveStatus {
	if expireDate != nil && expireDate.Before(now) {
		return StatusInactive
	}
	return StatusActive
}

type Link struct {
	ID           uuid.UUID    `json:"_id"`
	OriginalLink string       `json:"originalLink"`
	ShortLink    string       `json:"shortLink"`
	Remark       string       `json:"remark"`
	ExpireDate   *time.Time   `json:"expireDate"`
	UserID       uuid.UUID    `json:"user"`
	ActiveStatus ActiveStatus `json:"activeStatus"`
	TotalClicks  int64        `json:"totalClicks"`
	DateClicks   []DateClick  `json:"dateClicks"`
	DeviceClicks DeviceClicks `json:"deviceClicks"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Expired проверяет хранимый expireDate, а не activeStatus
func (l *Link) Expired(now time.Time) bool {
	return l.ExpireDate != nil && l.ExpireDate.Before(now)
}

// Touch пересчитывает activeStatus и updatedAt перед записью
func (l *Link) Touch(now time.Time) {
	l.ActiveStatus = StatusAt(l.ExpireDate, now)
	l.UpdatedAt = now
}

type DateClick struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type DeviceClicks struct {
	Mobile  int64 `json:"mobile"`
	Desktop int64 `json:"desktop"`
	Tablet  int64 `json:"tablet"`
}

// Add увеличивает счетчик нужного устройства
func (d *DeviceClicks) Add(device Device, n int64) {
	switch device {
	case DeviceMobile:
		d.Mobile += n
	case DeviceTablet:
		d.Tablet += n
	default:
		d.Desktop += n
	}
}

// DayKey возвращает календарный день клика в UTC (YYYY-MM-DD)
func DayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// AddDateClick увеличивает счетчик дня или добавляет новую запись в конец.
// Порядок записей - порядок вставки.
func AddDateClick(entries []DateClick, day string) []DateClick {
	for i := range entries {
		if entries[i].Date == day {
			entries[i].Count++
			return entries
		}
	}
	return append(entries, DateClick{Date: day, Count: 1})
}

type CreateLinkRequest struct {
	OriginalLink string
	Remark       string
	ExpireDate   *time.Time
}

// UpdateLinkRequest различает отсутствующий expireDate и явный null
type UpdateLinkRequest struct {
	OriginalLink  string
	Remark        string
	ExpireDate    *time.Time
	SetExpireDate bool
}

type LinkDetailsResponse struct {
	OriginalLink string     `json:"originalLink"`
	Remark       string     `json:"remark"`
	Date         *time.Time `json:"date"`
}

type LinkListParams struct {
	Limit  int
	Offset int
	Search string
}
