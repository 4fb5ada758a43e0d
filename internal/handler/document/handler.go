package document

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/frontdesk-api/internal/delivery"
	"github.com/jwalitptl/frontdesk-api/pkg/errors"
	"github.com/jwalitptl/frontdesk-api/pkg/httputil"
)

// Store is where assembled documents wait to be fetched.
type Store interface {
	Get(id string) (delivery.StoredDocument, bool)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the document route. It sits outside the session
// group: preview windows cannot attach a bearer token, and ids are random.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/documents/:id", h.GetDocument)
}

func (h *Handler) GetDocument(c *gin.Context) {
	doc, ok := h.store.Get(c.Param("id"))
	if !ok {
		httputil.RespondWithError(c, errors.NotFound("document", nil))
		return
	}

	disposition := "inline"
	if download, _ := strconv.ParseBool(c.Query("download")); download {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.Filename))
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, "application/pdf", doc.Bytes)
}
