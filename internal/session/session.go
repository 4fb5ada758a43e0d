// Package session carries the signed-in operator through a request.
package session

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextKey = "session.user"

// User is the acting operator. It is resolved once per request by the auth
// middleware and passed explicitly to services from there on.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Admin     bool      `json:"admin"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (u User) IsZero() bool {
	return u.ID == uuid.Nil
}

// Actor is the name stamped into created-by fields and events.
func (u User) Actor() string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID.String()
}

func Set(c *gin.Context, u User) {
	c.Set(contextKey, u)
}

func From(c *gin.Context) (User, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return User{}, false
	}
	u, ok := v.(User)
	return u, ok
}
