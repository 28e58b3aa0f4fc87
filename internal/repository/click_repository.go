package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	apperrors "github.com/Kosench/linkpulse/internal/errors"
	"github.com/Kosench/linkpulse/internal/model"
)

// PostgresClickRepository читает клики; запись идет через LinkRepository.RecordVisit
type PostgresClickRepository struct {
	db *sql.DB
}

func NewPostgresClickRepository(db *sql.DB) *PostgresClickRepository {
	return &PostgresClickRepository{db: db}
}

func (r *PostgresClickRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, page model.PageParams) ([]*model.Click, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*)
	FROM clicks c
	JOIN links l ON l.id = c.link_id
	WHERE l.user_id = $1
	`, ownerID).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.NewDatabaseError("failed to count clicks", err)
	}

	rows, err := r.db.QueryContext(ctx, `
	SELECT c.id, c.link_id, c.clicked_at, c.ip_address, c.user_device, c.original_link, c.short_link
	FROM clicks c
	JOIN links l ON l.id = c.link_id
	WHERE l.user_id = $1
	ORDER BY c.clicked_at, c.id
	LIMIT $2 OFFSET $3
	`, ownerID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, apperrors.NewDatabaseError("failed to query clicks", err)
	}
	defer rows.Close()

	clicks := make([]*model.Click, 0)
	for rows.Next() {
		click := &model.Click{}
		var device string
		if err := rows.Scan(
			&click.ID,
			&click.LinkID,
			&click.Timestamp,
			&click.IPAddress,
			&device,
			&click.OriginalLink,
			&click.ShortLink,
		); err != nil {
			return nil, 0, apperrors.NewDatabaseError("failed to scan click", err)
		}
		click.UserDevice = model.Device(device)
		clicks = append(clicks, click)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewDatabaseError("failed to iterate clicks", err)
	}

	return clicks, total, nil
}

func (r *PostgresClickRepository) CountByLink(ctx context.Context, linkID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clicks WHERE link_id = $1`, linkID).Scan(&count); err != nil {
		return 0, apperrors.NewDatabaseError("failed to count clicks", err)
	}
	return count, nil
}
