package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/Kosench/linkpulse/internal/errors"
	"github.com/Kosench/linkpulse/internal/model"
)

type LinkService interface {
	CreateLink(ctx context.Context, ownerID uuid.UUID, req *model.CreateLinkRequest) (*model.Link, error)
	GetLink(ctx context.Context, ownerID, id uuid.UUID) (*model.LinkDetailsResponse, error)
	UpdateLink(ctx context.Context, ownerID, id uuid.UUID, req *model.UpdateLinkRequest) (*model.Link, error)
	DeleteLink(ctx context.Context, ownerID, id uuid.UUID) error
	ListLinks(ctx context.Context, ownerID uuid.UUID, params model.LinkListParams) ([]*model.Link, int64, error)
	ListClicks(ctx context.Context, ownerID uuid.UUID, params model.PageParams) ([]*model.Click, int64, error)
	Dashboard(ctx context.Context, ownerID uuid.UUID) (*model.DashboardSummary, error)
}

type DashboardHandler struct {
	links LinkService
	log   *slog.Logger
}

func NewDashboardHandler(links LinkService, log *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		links: links,
		log:   log,
	}
}

type addLinkBody struct {
	OriginalLink string        `json:"originalLink" binding:"required"`
	Remark       string        `json:"remark" binding:"required"`
	ExpireDate   *flexibleTime `json:"expireDate"`
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.links.Dashboard(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"LinkData":         summary.Links,
		"totalClicks":      summary.TotalClicks,
		"dateWiseClicks":   summary.DateWiseClicks,
		"deviceWiseClicks": summary.DeviceWiseClicks,
	})
}

func (h *DashboardHandler) ListLinks(c *gin.Context) {
	params := model.LinkListParams{
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
		Search: c.Query("search"),
	}

	links, total, err := h.links.ListLinks(c.Request.Context(), currentUserID(c), params)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"LinkData": links,
		"count":    total,
	})
}

func (h *DashboardHandler) AddLink(c *gin.Context) {
	var body addLinkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		handleBindError(c, err, "All Fields Required !")
		return
	}

	req := &model.CreateLinkRequest{
		OriginalLink: body.OriginalLink,
		Remark:       body.Remark,
		ExpireDate:   body.ExpireDate.ptr(),
	}

	link, err := h.links.CreateLink(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Link added successfully",
		"link":    link,
	})
}

func (h *DashboardHandler) ListClicks(c *gin.Context) {
	params := model.PageParams{
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}

	clicks, total, err := h.links.ListClicks(c.Request.Context(), currentUserID(c), params)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"clicks":  clicks,
		"count":   total,
	})
}

func (h *DashboardHandler) GetLink(c *gin.Context) {
	id, okID := linkIDParam(c)
	if !okID {
		return
	}

	details, err := h.links.GetLink(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// UpdateLink принимает частичное тело. "expireDate": null снимает срок,
// отсутствие ключа оставляет его как есть.
func (h *DashboardHandler) UpdateLink(c *gin.Context) {
	id, okID := linkIDParam(c)
	if !okID {
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		fail(c, http.StatusBadRequest, codeInvalidRequest, "Invalid JSON format")
		return
	}

	req, err := decodeUpdateLink(raw)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	if _, err := h.links.UpdateLink(c.Request.Context(), currentUserID(c), id, req); err != nil {
		handleError(c, h.log, err)
		return
	}

	ok(c, "Updated successfully")
}

func (h *DashboardHandler) DeleteLink(c *gin.Context) {
	id, okID := linkIDParam(c)
	if !okID {
		return
	}

	if err := h.links.DeleteLink(c.Request.Context(), currentUserID(c), id); err != nil {
		handleError(c, h.log, err)
		return
	}

	ok(c, "Link deleted successfully")
}

func decodeUpdateLink(raw map[string]json.RawMessage) (*model.UpdateLinkRequest, error) {
	req := &model.UpdateLinkRequest{}

	for field, dst := range map[string]*string{
		"originalLink": &req.OriginalLink,
		"remark":       &req.Remark,
	} {
		v, ok := raw[field]
		if !ok || isJSONNull(v) {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return nil, apperrors.NewValidationError(field, "must be a string")
		}
	}

	if v, ok := raw["expireDate"]; ok {
		req.SetExpireDate = true
		if !isJSONNull(v) {
			var t flexibleTime
			if err := json.Unmarshal(v, &t); err != nil {
				return nil, apperrors.NewValidationError("expireDate", err.Error())
			}
			req.ExpireDate = t.ptr()
		}
	}

	return req, nil
}

func linkIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// Чужой или несуществующий id неотличимы для клиента
		fail(c, http.StatusNotFound, codeLinkNotFound, msgLinkNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt возвращает 0 для пустого или нечислового значения
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func isJSONNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// flexibleTime принимает RFC 3339 или дату YYYY-MM-DD (полночь UTC).
// Пустая строка означает "срок не задан".
type flexibleTime struct {
	time.Time
}

func (f *flexibleTime) UnmarshalJSON(b []byte) error {
	if isJSONNull(b) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expireDate must be a string")
	}
	if s == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("expireDate must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

func (f *flexibleTime) ptr() *time.Time {
	if f == nil || f.IsZero() {
		return nil
	}
	t := f.Time
	return &t
}
