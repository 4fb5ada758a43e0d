package record

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/frontdesk-api/internal/handler"
	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/session"
	"github.com/jwalitptl/frontdesk-api/pkg/errors"
	"github.com/jwalitptl/frontdesk-api/pkg/httputil"
)

type Service interface {
	Create(ctx context.Context, actor session.User, req model.CreateRecordRequest) (*model.Record, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Record, error)
	GetBySeq(ctx context.Context, kind model.RecordKind, seq int64) (*model.Record, error)
	List(ctx context.Context, date string, kind model.RecordKind, limit int) ([]*model.Record, error)
	Update(ctx context.Context, actor session.User, id uuid.UUID, req model.UpdateRecordRequest) (*model.Record, error)
	Delete(ctx context.Context, actor session.User, id uuid.UUID) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/records")
	{
		records.POST("", h.CreateRecord)
		records.GET("", h.ListRecords)
		records.GET("/:id", h.GetRecord)
		records.GET("/seq/:kind/:seq", h.GetRecordBySeq)
		records.PUT("/:id", h.UpdateRecord)
		records.DELETE("/:id", h.DeleteRecord)
	}
}

func (h *Handler) CreateRecord(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.CreateRecordRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	record, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, record)
}

func (h *Handler) GetRecord(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	record, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) GetRecordBySeq(c *gin.Context) {
	seq, err := strconv.ParseInt(c.Param("seq"), 10, 64)
	if err != nil || seq <= 0 {
		httputil.RespondWithError(c, errors.BadRequest("invalid sequence id", err))
		return
	}

	record, err := h.service.GetBySeq(c.Request.Context(), model.RecordKind(c.Param("kind")), seq)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) ListRecords(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.RespondWithError(c, errors.BadRequest("invalid limit", err))
			return
		}
		limit = n
	}

	records, err := h.service.List(c.Request.Context(), c.Query("date"), model.RecordKind(c.Query("kind")), limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) UpdateRecord(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateRecordRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	record, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"id": id})
}
