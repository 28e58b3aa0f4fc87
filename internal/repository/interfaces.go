package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Kosench/linkpulse/internal/model"
)

type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Link, error)
	ExistsByShortCode(ctx context.Context, shortCode string) (bool, error)
	Update(ctx context.Context, link *model.Link) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, params model.LinkListParams) ([]*model.Link, int64, error)
	AllByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Link, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// RecordVisit сохраняет клик и обновляет счетчики ссылки одной операцией:
	// totalClicks+1, deviceClicks[device]+1, dateClicks[day]+1 и пересчет activeStatus.
	RecordVisit(ctx context.Context, click *model.Click, day string, now time.Time) error
}

type ClickRepository interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID, page model.PageParams) ([]*model.Click, int64, error)
	CountByLink(ctx context.Context, linkID uuid.UUID) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error

	// Delete удаляет пользователя вместе с его ссылками и кликами
	Delete(ctx context.Context, id uuid.UUID) error
}

// Проверяем, что реализации удовлетворяют интерфейсам
var (
	_ LinkRepository  = (*PostgresLinkRepository)(nil)
	_ ClickRepository = (*PostgresClickRepository)(nil)
	_ UserRepository  = (*PostgresUserRepository)(nil)
	_ LinkRepository  = (*MemoryLinkRepository)(nil)
	_ ClickRepository = (*MemoryClickRepository)(nil)
	_ UserRepository  = (*MemoryUserRepository)(nil)
)
