package model

import (
	"time"

	"github.com/google/uuid"
)

type Device string

const (
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
	DeviceDesktop Device = "desktop"
)

const UnknownIP = "Unknown IP"

type Click struct {
	ID           uuid.UUID `json:"_id"`
	LinkID       uuid.UUID `json:"link"`
	Timestamp    time.Time `json:"timestamp"`
	IPAddress    string    `json:"ipAddress"`
	UserDevice   Device    `json:"userDevice"`
	OriginalLink string    `json:"originalLink"`
	ShortLink    string    `json:"shortLink"`
}

// NewClick снимает копию полей ссылки на момент клика
func NewClick(link *Link, ip string, device Device, now time.Time) *Click {
	if ip == "" {
		ip = UnknownIP
	}
	return &Click{
		ID:           uuid.New(),
		LinkID:       link.ID,
		Timestamp:    now,
		IPAddress:    ip,
		UserDevice:   device,
		OriginalLink: link.OriginalLink,
		ShortLink:    link.ShortLink,
	}
}

type Visit struct {
	ShortCode string
	IPAddress string
	Device    Device
}

type PageParams struct {
	Limit  int
	Offset int
}
