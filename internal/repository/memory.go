package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Kosench/linkpulse/internal/errors"
	"github.com/Kosench/linkpulse/internal/model"
)

// MemoryStore - хранилище в памяти процесса (app.storage: memory и тесты).
// Все операции выполняются под одним мьютексом, RecordVisit атомарен так же,
// как транзакция в PostgreSQL. Наружу отдаются копии записей.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*model.User
	links  map[uuid.UUID]*model.Link
	codes  map[string]uuid.UUID
	clicks []*model.Click
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uuid.UUID]*model.User),
		links: make(map[uuid.UUID]*model.Link),
		codes: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Links() *MemoryLinkRepository   { return &MemoryLinkRepository{s} }
func (s *MemoryStore) Clicks() *MemoryClickRepository { return &MemoryClickRepository{s} }
func (s *MemoryStore) Users() *MemoryUserRepository   { return &MemoryUserRepository{s} }

// === Links ===

type MemoryLinkRepository struct {
	s *MemoryStore
}

func (r *MemoryLinkRepository) Create(_ context.Context, link *model.Link) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.codes[link.ShortLink]; exists {
		return apperrors.ErrShortCodeExists
	}

	stored := cloneLink(link)
	if stored.DateClicks == nil {
		stored.DateClicks = make([]model.DateClick, 0)
	}
	r.s.links[link.ID] = stored
	r.s.codes[link.ShortLink] = link.ID
	return nil
}

func (r *MemoryLinkRepository) GetByShortCode(_ context.Context, shortCode string) (*model.Link, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.codes[shortCode]
	if !ok {
		return nil, fmt.Errorf("link with short code '%s': %w", shortCode, apperrors.ErrLinkNotFound)
	}
	return cloneLink(r.s.links[id]), nil
}

func (r *MemoryLinkRepository) GetByID(_ context.Context, ownerID, id uuid.UUID) (*model.Link, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	link, ok := r.s.links[id]
	if !ok || link.UserID != ownerID {
		return nil, fmt.Errorf("link %s: %w", id, apperrors.ErrLinkNotFound)
	}
	return cloneLink(link), nil
}

func (r *MemoryLinkRepository) ExistsByShortCode(_ context.Context, shortCode string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.codes[shortCode]
	return ok, nil
}

func (r *MemoryLinkRepository) Update(_ context.Context, link *model.Link) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.links[link.ID]
	if !ok || stored.UserID != link.UserID {
		return fmt.Errorf("link %s: %w", link.ID, apperrors.ErrLinkNotFound)
	}

	stored.OriginalLink = link.OriginalLink
	stored.Remark = link.Remark
	stored.ExpireDate = cloneTime(link.ExpireDate)
	stored.ActiveStatus = link.ActiveStatus
	stored.UpdatedAt = link.UpdatedAt
	return nil
}

func (r *MemoryLinkRepository) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	link, ok := r.s.links[id]
	if !ok || link.UserID != ownerID {
		return fmt.Errorf("link %s: %w", id, apperrors.ErrLinkNotFound)
	}

	r.s.deleteLinksLocked(map[uuid.UUID]bool{id: true})
	return nil
}

func (r *MemoryLinkRepository) ListByOwner(_ context.Context, ownerID uuid.UUID, params model.LinkListParams) ([]*model.Link, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(params.Search)
	matched := make([]*model.Link, 0)
	for _, link := range r.s.ownedLocked(ownerID) {
		if search != "" &&
			!strings.Contains(strings.ToLower(link.Remark), search) &&
			!strings.Contains(strings.ToLower(link.OriginalLink), search) {
			continue
		}
		matched = append(matched, link)
	}

	total := int64(len(matched))
	return page(matched, params.Offset, params.Limit), total, nil
}

func (r *MemoryLinkRepository) AllByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.Link, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.ownedLocked(ownerID), nil
}

func (r *MemoryLinkRepository) CountByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, link := range r.s.links {
		if link.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryLinkRepository) RecordVisit(_ context.Context, click *model.Click, day string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	link, ok := r.s.links[click.LinkID]
	if !ok {
		return fmt.Errorf("link %s: %w", click.LinkID, apperrors.ErrLinkNotFound)
	}

	stored := *click
	r.s.clicks = append(r.s.clicks, &stored)

	link.TotalClicks++
	link.DeviceClicks.Add(click.UserDevice, 1)
	link.DateClicks = model.AddDateClick(link.DateClicks, day)
	link.Touch(now)
	return nil
}

// === Clicks ===

type MemoryClickRepository struct {
	s *MemoryStore
}

func (r *MemoryClickRepository) ListByOwner(_ context.Context, ownerID uuid.UUID, params model.PageParams) ([]*model.Click, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	owned := make([]*model.Click, 0)
	for _, click := range r.s.clicks {
		if link, ok := r.s.links[click.LinkID]; ok && link.UserID == ownerID {
			c := *click
			owned = append(owned, &c)
		}
	}

	total := int64(len(owned))
	return page(owned, params.Offset, params.Limit), total, nil
}

func (r *MemoryClickRepository) CountByLink(_ context.Context, linkID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, click := range r.s.clicks {
		if click.LinkID == linkID {
			n++
		}
	}
	return n, nil
}

// === Users ===

type MemoryUserRepository struct {
	s *MemoryStore
}

func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.emailTakenLocked(user.Email, uuid.Nil) {
		return apperrors.ErrUserAlreadyExists
	}

	u := *user
	r.s.users[user.ID] = &u
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperrors.ErrUserNotFound)
	}
	u := *user
	return &u, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if user.Email == email {
			u := *user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email '%s': %w", email, apperrors.ErrUserNotFound)
}

func (r *MemoryUserRepository) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.ID, apperrors.ErrUserNotFound)
	}
	if r.s.emailTakenLocked(user.Email, user.ID) {
		return apperrors.ErrUserAlreadyExists
	}

	stored.Username = user.Username
	stored.Email = user.Email
	stored.Mobile = user.Mobile
	stored.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, apperrors.ErrUserNotFound)
	}

	owned := make(map[uuid.UUID]bool)
	for linkID, link := range r.s.links {
		if link.UserID == id {
			owned[linkID] = true
		}
	}
	r.s.deleteLinksLocked(owned)
	delete(r.s.users, id)
	return nil
}

// === helpers ===

func (s *MemoryStore) ownedLocked(ownerID uuid.UUID) []*model.Link {
	owned := make([]*model.Link, 0)
	for _, link := range s.links {
		if link.UserID == ownerID {
			owned = append(owned, cloneLink(link))
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID.String() < owned[j].ID.String()
		}
		return owned[i].CreatedAt.Before(owned[j].CreatedAt)
	})
	return owned
}

// deleteLinksLocked удаляет ссылки и каскадом их клики
func (s *MemoryStore) deleteLinksLocked(ids map[uuid.UUID]bool) {
	if len(ids) == 0 {
		return
	}

	for id := range ids {
		if link, ok := s.links[id]; ok {
			delete(s.codes, link.ShortLink)
			delete(s.links, id)
		}
	}

	kept := s.clicks[:0]
	for _, click := range s.clicks {
		if !ids[click.LinkID] {
			kept = append(kept, click)
		}
	}
	s.clicks = kept
}

func (s *MemoryStore) emailTakenLocked(email string, except uuid.UUID) bool {
	for id, user := range s.users {
		if id != except && user.Email == email {
			return true
		}
	}
	return false
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return make([]T, 0)
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func cloneLink(link *model.Link) *model.Link {
	c := *link
	c.ExpireDate = cloneTime(link.ExpireDate)
	if link.DateClicks != nil {
		c.DateClicks = append(make([]model.DateClick, 0, len(link.DateClicks)), link.DateClicks...)
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
