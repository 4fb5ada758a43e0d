package receipt

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/frontdesk-api/internal/delivery"
	"github.com/jwalitptl/frontdesk-api/internal/handler"
	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/service/receipt"
	"github.com/jwalitptl/frontdesk-api/internal/session"
	"github.com/jwalitptl/frontdesk-api/pkg/httputil"
)

type Service interface {
	PreviewHTML(ctx context.Context, ref model.RecordRef, types []model.ReceiptType) ([]byte, error)
	Print(ctx context.Context, ref model.RecordRef, types []model.ReceiptType) (*delivery.Preview, error)
	Share(ctx context.Context, actor session.User, ref model.RecordRef, types []model.ReceiptType, opts receipt.ShareOptions) (*delivery.ShareResult, error)
}

type printRequest struct {
	Types []string `json:"types" binding:"omitempty,dive,receipttype"`
}

type shareRequest struct {
	Types []string `json:"types" binding:"omitempty,dive,receipttype"`
	Phone string   `json:"phone" binding:"omitempty,max=20"`
	Email string   `json:"email" binding:"omitempty,email"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	receipts := r.Group("/records/:id/receipts")
	{
		receipts.GET("/html", h.PreviewHTML)
		receipts.POST("/print", h.Print)
		receipts.POST("/share", h.Share)
	}
}

func (h *Handler) PreviewHTML(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	types, ok := handler.ReceiptTypes(c, c.QueryArray("types")...)
	if !ok {
		return
	}

	html, err := h.service.PreviewHTML(c.Request.Context(), model.RecordRef{ID: id}, types)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (h *Handler) Print(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req printRequest
	if hasBody(c) && !handler.BindJSON(c, &req) {
		return
	}
	types, ok := handler.ReceiptTypes(c, append(req.Types, c.QueryArray("types")...)...)
	if !ok {
		return
	}

	preview, err := h.service.Print(c.Request.Context(), model.RecordRef{ID: id}, types)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, preview)
}

func (h *Handler) Share(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req shareRequest
	if hasBody(c) && !handler.BindJSON(c, &req) {
		return
	}
	types, ok := handler.ReceiptTypes(c, append(req.Types, c.QueryArray("types")...)...)
	if !ok {
		return
	}

	res, err := h.service.Share(c.Request.Context(), actor, model.RecordRef{ID: id}, types, receipt.ShareOptions{
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, res)
}

func hasBody(c *gin.Context) bool {
	return c.Request.Body != nil && c.Request.Body != http.NoBody && c.Request.ContentLength != 0
}
