// Package handler holds the request helpers shared by the resource handlers.
package handler

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/session"
	"github.com/jwalitptl/frontdesk-api/pkg/errors"
	"github.com/jwalitptl/frontdesk-api/pkg/httputil"
)

// ParseID reads a UUID path parameter, answering 400 when it is malformed.
func ParseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest(fmt.Sprintf("invalid %s", name), err))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes the body into req. On failure the error is attached to
// the context for the validation middleware and nothing is written.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return false
	}
	return true
}

// Actor returns the signed-in operator of a protected route.
func Actor(c *gin.Context) (session.User, bool) {
	u, ok := session.From(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
	}
	return u, ok
}

// ReceiptTypes parses the comma separated lists in raw, in order.
// Unknown names fail the request.
func ReceiptTypes(c *gin.Context, raw ...string) ([]model.ReceiptType, bool) {
	types, bad := model.ParseReceiptTypes(strings.Join(raw, ","))
	if len(bad) > 0 {
		httputil.RespondWithError(c, errors.BadRequest(
			fmt.Sprintf("unknown receipt type: %s", strings.Join(bad, ", ")), nil))
		return nil, false
	}
	return types, true
}
