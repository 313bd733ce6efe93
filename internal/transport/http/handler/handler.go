// Package handler binds the HTTP contract to the services. Handlers
// implement MountAPI and/or MountAdmin and are wired by the router.
package handler

import (
	"github.com/gin-gonic/gin"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/transport/http/ez"
	mdw "mangazone-api/internal/transport/http/middleware"
)

// guard authorizes actions that name a target user in the body.
type guard struct {
	sessions mdw.SessionChecker
}

// self lets the caller act on userID when it is their own account or when
// they are an admin. An empty userID is left to the service to reject.
func (g guard) self(c *gin.Context, userID string) error {
	uid := ez.UserID(c)
	if uid == "" {
		return domain.Unauthorized("missing token")
	}
	if userID == "" || userID == uid {
		return nil
	}
	st, ok := mdw.Session(c)
	if !ok {
		var err error
		if st, err = g.sessions.SessionState(c.Request.Context(), uid); err != nil {
			return err
		}
	}
	if !st.IsAdmin {
		return domain.Forbidden("cannot act on another user")
	}
	return nil
}
