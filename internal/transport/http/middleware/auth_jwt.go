package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mangazone-api/internal/core/auth"
	"mangazone-api/internal/domain"
	resp "mangazone-api/internal/transport/http/response"
)

// Context keys set by the auth middleware.
const (
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyClaims = "claims"
)

// AuthJWT requires a valid bearer token and exposes its uid and role.
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// SessionChecker loads the stored state a session is authorized by.
type SessionChecker interface {
	SessionState(ctx context.Context, userID string) (domain.SessionState, error)
}

// KeySession holds the domain.SessionState loaded by RequireActive.
const KeySession = "session"

// Session returns the state loaded earlier in the chain, if any.
func Session(c *gin.Context) (domain.SessionState, bool) {
	v, ok := c.Get(KeySession)
	if !ok {
		return domain.SessionState{}, false
	}
	st, ok := v.(domain.SessionState)
	return st, ok
}

// RequireActive runs after AuthJWT. A token is only as good as the account
// behind it: deleted accounts get 401 and banned ones 403, whatever the
// token's expiry.
func RequireActive(sessions SessionChecker, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, ok := loadSession(c, sessions, l)
		if !ok {
			return
		}
		if !st.Exists {
			resp.Abort(c, http.StatusUnauthorized, "account no longer exists")
			return
		}
		if st.Banned {
			resp.Abort(c, http.StatusForbidden, "account is banned")
			return
		}
		c.Next()
	}
}

// RequireAdmin runs after AuthJWT, usually behind RequireActive. The token
// role is only a hint: the stored flag decides, so a revoked admin loses
// access immediately.
func RequireAdmin(sessions SessionChecker, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, ok := loadSession(c, sessions, l)
		if !ok {
			return
		}
		if !st.IsAdmin || st.Banned {
			resp.Abort(c, http.StatusForbidden, "admin only")
			return
		}
		c.Next()
	}
}

// loadSession reuses the state already on the context or reads it from the
// store. It aborts the request and reports false on failure.
func loadSession(c *gin.Context, sessions SessionChecker, l *zap.Logger) (domain.SessionState, bool) {
	if st, ok := Session(c); ok {
		return st, true
	}
	uid := c.GetString(KeyUserID)
	if uid == "" {
		resp.Abort(c, http.StatusUnauthorized, "missing token")
		return domain.SessionState{}, false
	}
	st, err := sessions.SessionState(c.Request.Context(), uid)
	if err != nil {
		l.Error("load session",
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("uid", uid),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		resp.Abort(c, http.StatusInternalServerError, "")
		return domain.SessionState{}, false
	}
	c.Set(KeySession, st)
	return st, true
}
