package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/Kosench/linkpulse/internal/errors"
	"github.com/Kosench/linkpulse/internal/model"
)

const uniqueViolation = "23505"

const linkColumns = `id, user_id, original_link, short_link, remark, expire_date, active_status,
	total_clicks, mobile_clicks, desktop_clicks, tablet_clicks, created_at, updated_at`

// deviceColumns - белый список колонок для инкремента по устройству
var deviceColumns = map[model.Device]string{
	model.DeviceMobile:  "mobile_clicks",
	model.DeviceDesktop: "desktop_clicks",
	model.DeviceTablet:  "tablet_clicks",
}

type PostgresLinkRepository struct {
	db *sql.DB
}

func NewPostgresLinkRepository(db *sql.DB) *PostgresLinkRepository {
	return &PostgresLinkRepository{
		db: db,
	}
}

func (r *PostgresLinkRepository) Create(ctx context.Context, link *model.Link) error {
	query := `
	INSERT INTO links (id, user_id, original_link, short_link, remark, expire_date, active_status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		link.ID,
		link.UserID,
		link.OriginalLink,
		link.ShortLink,
		link.Remark,
		nullTime(link.ExpireDate),
		string(link.ActiveStatus),
		link.CreatedAt,
		link.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperrors.ErrShortCodeExists
	}
	if err != nil {
		return apperrors.NewDatabaseError("failed to create link", err)
	}

	return nil
}

func (r *PostgresLinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_link = $1`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, shortCode))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("link with short code '%s': %w", shortCode, apperrors.ErrLinkNotFound)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to get link", err)
	}

	if err := r.loadDateClicks(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

func (r *PostgresLinkRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1 AND user_id = $2`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("link %s: %w", id, apperrors.ErrLinkNotFound)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to get link", err)
	}

	if err := r.loadDateClicks(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

func (r *PostgresLinkRepository) ExistsByShortCode(ctx context.Context, shortCode string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM links WHERE short_link = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, shortCode).Scan(&exists); err != nil {
		return false, apperrors.NewDatabaseError("failed to check short code existence", err)
	}

	return exists, nil
}

// Update сохраняет редактируемые поля; счетчики не трогает
func (r *PostgresLinkRepository) Update(ctx context.Context, link *model.Link) error {
	query := `
	UPDATE links
	SET original_link = $3, remark = $4, expire_date = $5, active_status = $6, updated_at = $7
	WHERE id = $1 AND user_id = $2
	`

	res, err := r.db.ExecContext(ctx, query,
		link.ID,
		link.UserID,
		link.OriginalLink,
		link.Remark,
		nullTime(link.ExpireDate),
		string(link.ActiveStatus),
		link.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseError("failed to update link", err)
	}

	return expectAffected(res, fmt.Errorf("link %s: %w", link.ID, apperrors.ErrLinkNotFound))
}

// Delete удаляет ссылку; клики и счетчики по дням удаляются каскадом
func (r *PostgresLinkRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return apperrors.NewDatabaseError("failed to delete link", err)
	}

	return expectAffected(res, fmt.Errorf("link %s: %w", id, apperrors.ErrLinkNotFound))
}

func (r *PostgresLinkRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, params model.LinkListParams) ([]*model.Link, int64, error) {
	where := `WHERE user_id = $1`
	args := []any{ownerID}

	if params.Search != "" {
		where += ` AND (remark ILIKE $2 OR original_link ILIKE $2)`
		args = append(args, "%"+escapeLike(params.Search)+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links `+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewDatabaseError("failed to count links", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM links %s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		linkColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	links, err := r.queryLinks(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return links, total, nil
}

func (r *PostgresLinkRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE user_id = $1`, ownerID).Scan(&n)
	if err != nil {
		return 0, apperrors.NewDatabaseError("failed to count links", err)
	}
	return n, nil
}

func (r *PostgresLinkRepository) AllByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1 ORDER BY created_at, id`
	return r.queryLinks(ctx, query, ownerID)
}

// RecordVisit выполняет вставку клика и атомарный инкремент счетчиков
// в одной транзакции, поэтому клик не может разойтись со счетчиками.
func (r *PostgresLinkRepository) RecordVisit(ctx context.Context, click *model.Click, day string, now time.Time) error {
	column, ok := deviceColumns[click.UserDevice]
	if !ok {
		return apperrors.NewValidationError("userDevice", fmt.Sprintf("unknown device %q", click.UserDevice))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	// Сначала UPDATE: он берет блокировку строки и отсекает удаленную ссылку
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`
	UPDATE links
	SET total_clicks = total_clicks + 1,
	    %[1]s = %[1]s + 1,
	    active_status = CASE WHEN expire_date IS NOT NULL AND expire_date < $2 THEN 'Inactive' ELSE 'Active' END,
	    updated_at = $2
	WHERE id = $1
	`, column), click.LinkID, now)
	if err != nil {
		return apperrors.NewDatabaseError("failed to increment link counters", err)
	}
	if err := expectAffected(res, fmt.Errorf("link %s: %w", click.LinkID, apperrors.ErrLinkNotFound)); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO clicks (id, link_id, clicked_at, ip_address, user_device, original_link, short_link)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		click.ID,
		click.LinkID,
		click.Timestamp,
		click.IPAddress,
		string(click.UserDevice),
		click.OriginalLink,
		click.ShortLink,
	)
	if err != nil {
		return apperrors.NewDatabaseError("failed to record click", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO link_date_clicks (link_id, day, count)
	VALUES ($1, $2, 1)
	ON CONFLICT (link_id, day) DO UPDATE SET count = link_date_clicks.count + 1
	`, click.LinkID, day)
	if err != nil {
		return apperrors.NewDatabaseError("failed to increment date clicks", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewDatabaseError("failed to commit click", err)
	}

	return nil
}

func (r *PostgresLinkRepository) queryLinks(ctx context.Context, query string, args ...any) ([]*model.Link, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to query links", err)
	}
	defer rows.Close()

	links := make([]*model.Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseError("failed to scan link", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("failed to iterate links", err)
	}

	if err := r.loadDateClicksBatch(ctx, links); err != nil {
		return nil, err
	}

	return links, nil
}

func (r *PostgresLinkRepository) loadDateClicks(ctx context.Context, link *model.Link) error {
	return r.loadDateClicksBatch(ctx, []*model.Link{link})
}

// loadDateClicksBatch подгружает dateClicks одним запросом в порядке вставки
func (r *PostgresLinkRepository) loadDateClicksBatch(ctx context.Context, links []*model.Link) error {
	if len(links) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*model.Link, len(links))
	ids := make([]string, 0, len(links))
	for _, link := range links {
		link.DateClicks = make([]model.DateClick, 0)
		byID[link.ID] = link
		ids = append(ids, link.ID.String())
	}

	rows, err := r.db.QueryContext(ctx, `
	SELECT link_id, day, count
	FROM link_date_clicks
	WHERE link_id = ANY($1::uuid[])
	ORDER BY seq
	`, ids)
	if err != nil {
		return apperrors.NewDatabaseError("failed to load date clicks", err)
	}
	defer rows.Close()

	for rows.Next() {
		var linkID uuid.UUID
		var entry model.DateClick
		if err := rows.Scan(&linkID, &entry.Date, &entry.Count); err != nil {
			return apperrors.NewDatabaseError("failed to scan date clicks", err)
		}
		if link, ok := byID[linkID]; ok {
			link.DateClicks = append(link.DateClicks, entry)
		}
	}

	if err := rows.Err(); err != nil {
		return apperrors.NewDatabaseError("failed to iterate date clicks", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*model.Link, error) {
	link := &model.Link{}
	var expire sql.NullTime
	var status string

	err := row.Scan(
		&link.ID,
		&link.UserID,
		&link.OriginalLink,
		&link.ShortLink,
		&link.Remark,
		&expire,
		&status,
		&link.TotalClicks,
		&link.DeviceClicks.Mobile,
		&link.DeviceClicks.Desktop,
		&link.DeviceClicks.Tablet,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expire.Valid {
		t := expire.Time
		link.ExpireDate = &t
	}
	link.ActiveStatus = model.ActiveStatus(status)

	return link, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewDatabaseError("failed to read affected rows", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
