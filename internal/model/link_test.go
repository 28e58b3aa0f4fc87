package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.Equal(t, StatusActive, StatusAt(nil, now))
	assert.Equal(t, StatusActive, StatusAt(&future, now))
	assert.Equal(t, StatusActive, StatusAt(&now, now), "equal instant is not strictly earlier")
	assert.Equal(t, StatusInactive, StatusAt(&past, now))
}

func TestLinkTouch(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	link := &Link{ExpireDate: &future}

	link.Touch(now)
	assert.Equal(t, StatusActive, link.ActiveStatus)
	assert.Equal(t, now, link.UpdatedAt)

	past := now.Add(-24 * time.Hour)
	link.ExpireDate = &past
	link.Touch(now)
	assert.Equal(t, StatusInactive, link.ActiveStatus)
	assert.True(t, link.Expired(now))
}

func TestAddDateClick(t *testing.T) {
	var entries []DateClick

	entries = AddDateClick(entries, "2026-03-10")
	entries = AddDateClick(entries, "2026-03-10")
	entries = AddDateClick(entries, "2026-03-08")
	entries = AddDateClick(entries, "2026-03-10")

	require.Len(t, entries, 2)
	assert.Equal(t, DateClick{Date: "2026-03-10", Count: 3}, entries[0])
	assert.Equal(t, DateClick{Date: "2026-03-08", Count: 1}, entries[1], "insertion order, not sorted")
}

func TestDayKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	local := time.Date(2026, 3, 11, 2, 0, 0, 0, loc)

	assert.Equal(t, "2026-03-10", DayKey(local))
}

func TestDeviceClicksAdd(t *testing.T) {
	var d DeviceClicks
	d.Add(DeviceMobile, 1)
	d.Add(DeviceTablet, 2)
	d.Add(DeviceDesktop, 3)

	assert.Equal(t, DeviceClicks{Mobile: 1, Tablet: 2, Desktop: 3}, d)
}

func TestNewClickFallsBackToUnknownIP(t *testing.T) {
	link := &Link{ID: uuid.New(), OriginalLink: "https://example.com", ShortLink: "abc123"}
	now := time.Now()

	click := NewClick(link, "", DeviceMobile, now)

	assert.Equal(t, UnknownIP, click.IPAddress)
	assert.Equal(t, link.ID, click.LinkID)
	assert.Equal(t, "https://example.com", click.OriginalLink)
	assert.Equal(t, "abc123", click.ShortLink)
	assert.Equal(t, DeviceMobile, click.UserDevice)
	assert.NotEqual(t, uuid.Nil, click.ID)
}
