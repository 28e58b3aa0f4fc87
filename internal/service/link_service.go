package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Kosench/linkpulse/internal/errors"
	"github.com/Kosench/linkpulse/internal/model"
	"github.com/Kosench/linkpulse/internal/repository"
	"github.com/Kosench/linkpulse/internal/utils"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// reservedCodes совпадают со статическими маршрутами и перекрыли бы редирект
var reservedCodes = map[string]bool{
	"health":    true,
	"info":      true,
	"metrics":   true,
	"user":      true,
	"dashboard": true,
}

type LinkService struct {
	links      repository.LinkRepository
	clicks     repository.ClickRepository
	generate   func() (string, error)
	maxRetries int
	log        *slog.Logger
	now        func() time.Time
}

func NewLinkService(links repository.LinkRepository, clicks repository.ClickRepository, codeLength, maxRetries int, log *slog.Logger) *LinkService {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &LinkService{
		links:      links,
		clicks:     clicks,
		generate:   utils.NewCodeGenerator(codeLength).Generate,
		maxRetries: maxRetries,
		log:        log,
		now:        time.Now,
	}
}

// Resolve находит ссылку по короткому коду и засчитывает переход.
// Для ненайденной и истекшей ссылки ничего не пишется.
func (s *LinkService) Resolve(ctx context.Context, visit model.Visit) (string, error) {
	if visit.ShortCode == "" {
		return "", fmt.Errorf("empty short code: %w", apperrors.ErrLinkNotFound)
	}

	link, err := s.links.GetByShortCode(ctx, visit.ShortCode)
	if err != nil {
		return "", storeError("failed to get link", err)
	}

	now := s.now()
	if link.Expired(now) {
		return "", fmt.Errorf("link '%s': %w", link.ShortLink, apperrors.ErrLinkExpired)
	}

	device := visit.Device
	if device == "" {
		device = model.DeviceDesktop
	}

	click := model.NewClick(link, visit.IPAddress, device, now)
	if err := s.links.RecordVisit(ctx, click, model.DayKey(now), now); err != nil {
		return "", storeError("failed to record click", err)
	}

	s.log.Debug("click recorded",
		slog.String("short_code", link.ShortLink),
		slog.String("device", string(click.UserDevice)),
		slog.String("ip", click.IPAddress),
	)

	return link.OriginalLink, nil
}

func (s *LinkService) CreateLink(ctx context.Context, ownerID uuid.UUID, req *model.CreateLinkRequest) (*model.Link, error) {
	if err := utils.RequireFields("All Fields Required !",
		"originalLink", req.OriginalLink,
		"remark", req.Remark,
	); err != nil {
		return nil, err
	}

	original := utils.SanitizeInput(req.OriginalLink)
	if err := utils.ValidateURL("originalLink", original); err != nil {
		return nil, err
	}

	now := s.now()
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		code, err := s.generateShortCode(ctx)
		if err != nil {
			return nil, err
		}
		if code == "" {
			continue
		}

		link := &model.Link{
			ID:           uuid.New(),
			UserID:       ownerID,
			OriginalLink: original,
			ShortLink:    code,
			Remark:       utils.SanitizeInput(req.Remark),
			ExpireDate:   req.ExpireDate,
			DateClicks:   make([]model.DateClick, 0),
			CreatedAt:    now,
		}
		link.Touch(now)

		err = s.links.Create(ctx, link)
		if errors.Is(err, apperrors.ErrShortCodeExists) {
			// Код заняли между проверкой и вставкой
			continue
		}
		if err != nil {
			return nil, storeError("failed to create link", err)
		}

		s.log.Info("link created",
			slog.String("short_code", code),
			slog.String("user_id", ownerID.String()),
		)
		return link, nil
	}

	return nil, apperrors.NewBusinessError("SHORT_CODE_EXHAUSTED",
		fmt.Sprintf("failed to generate unique short code after %d attempts", s.maxRetries), nil)
}

// generateShortCode возвращает пустую строку, если код занят или зарезервирован
func (s *LinkService) generateShortCode(ctx context.Context) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	if reservedCodes[strings.ToLower(code)] {
		return "", nil
	}

	exists, err := s.links.ExistsByShortCode(ctx, code)
	if err != nil {
		return "", storeError("failed to check short code", err)
	}
	if exists {
		return "", nil
	}
	return code, nil
}

func (s *LinkService) GetLink(ctx context.Context, ownerID, id uuid.UUID) (*model.LinkDetailsResponse, error) {
	link, err := s.links.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, storeError("failed to get link", err)
	}

	return &model.LinkDetailsResponse{
		OriginalLink: link.OriginalLink,
		Remark:       link.Remark,
		Date:         link.ExpireDate,
	}, nil
}

// UpdateLink меняет только переданные поля и пересчитывает activeStatus
func (s *LinkService) UpdateLink(ctx context.Context, ownerID, id uuid.UUID, req *model.UpdateLinkRequest) (*model.Link, error) {
	link, err := s.links.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, storeError("failed to get link", err)
	}

	if req.OriginalLink != "" {
		original := utils.SanitizeInput(req.OriginalLink)
		if err := utils.ValidateURL("originalLink", original); err != nil {
			return nil, err
		}
		link.OriginalLink = original
	}
	if req.Remark != "" {
		link.Remark = utils.SanitizeInput(req.Remark)
	}
	if req.SetExpireDate {
		link.ExpireDate = req.ExpireDate
	}

	link.Touch(s.now())

	if err := s.links.Update(ctx, link); err != nil {
		return nil, storeError("failed to update link", err)
	}

	return link, nil
}

func (s *LinkService) DeleteLink(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.links.Delete(ctx, ownerID, id); err != nil {
		return storeError("failed to delete link", err)
	}

	s.log.Info("link deleted",
		slog.String("link_id", id.String()),
		slog.String("user_id", ownerID.String()),
	)
	return nil
}

func (s *LinkService) ListLinks(ctx context.Context, ownerID uuid.UUID, params model.LinkListParams) ([]*model.Link, int64, error) {
	params.Limit, params.Offset = normalizePage(params.Limit, params.Offset)

	links, total, err := s.links.ListByOwner(ctx, ownerID, params)
	if err != nil {
		return nil, 0, storeError("failed to list links", err)
	}
	return links, total, nil
}

// ListClicks отдает клики по всем ссылкам пользователя.
// Если ссылок нет совсем, возвращает ErrNoLinks.
func (s *LinkService) ListClicks(ctx context.Context, ownerID uuid.UUID, params model.PageParams) ([]*model.Click, int64, error) {
	owned, err := s.links.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, storeError("failed to count links", err)
	}
	if owned == 0 {
		return nil, 0, apperrors.ErrNoLinks
	}

	params.Limit, params.Offset = normalizePage(params.Limit, params.Offset)

	clicks, total, err := s.clicks.ListByOwner(ctx, ownerID, params)
	if err != nil {
		return nil, 0, storeError("failed to list clicks", err)
	}
	return clicks, total, nil
}

// Dashboard агрегирует счетчики всех ссылок пользователя
func (s *LinkService) Dashboard(ctx context.Context, ownerID uuid.UUID) (*model.DashboardSummary, error) {
	links, err := s.links.AllByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError("failed to load links", err)
	}

	summary := &model.DashboardSummary{Links: links}

	var devices model.DeviceClicks
	dateIndex := make(map[string]int)
	dates := make([]model.DateWiseClicks, 0)

	for _, link := range links {
		summary.TotalClicks += link.TotalClicks
		devices.Mobile += link.DeviceClicks.Mobile
		devices.Desktop += link.DeviceClicks.Desktop
		devices.Tablet += link.DeviceClicks.Tablet

		for _, dc := range link.DateClicks {
			if i, ok := dateIndex[dc.Date]; ok {
				dates[i].TotalClicks += dc.Count
				continue
			}
			dateIndex[dc.Date] = len(dates)
			dates = append(dates, model.DateWiseClicks{Date: dc.Date, TotalClicks: dc.Count})
		}
	}

	sort.SliceStable(dates, func(i, j int) bool {
		return dates[i].TotalClicks > dates[j].TotalClicks
	})

	byDevice := []model.DeviceWiseClicks{
		{Device: model.DeviceMobile, Clicks: devices.Mobile},
		{Device: model.DeviceDesktop, Clicks: devices.Desktop},
		{Device: model.DeviceTablet, Clicks: devices.Tablet},
	}
	sort.SliceStable(byDevice, func(i, j int) bool {
		return byDevice[i].Clicks > byDevice[j].Clicks
	})

	summary.DateWiseClicks = dates
	summary.DeviceWiseClicks = byDevice
	return summary, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// storeError пропускает доменные ошибки как есть, остальное - DATABASE_ERROR
func storeError(message string, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrLinkNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrShortCodeExists),
		errors.Is(err, apperrors.ErrUserAlreadyExists),
		apperrors.IsBusinessError(err):
		return err
	}
	return apperrors.NewDatabaseError(message, err)
}
