// Package ez registers typed request/response actions on gin groups and
// maps returned errors to HTTP statuses in one place.
package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mangazone-api/internal/domain"
	mdw "mangazone-api/internal/transport/http/middleware"
	resp "mangazone-api/internal/transport/http/response"
)

type EZ struct {
	g     *gin.RouterGroup
	log   *zap.Logger
	debug bool
}

// New wraps g. With debug set, internal errors carry their cause in the
// response body.
func New(g *gin.RouterGroup, log *zap.Logger, debug bool) EZ {
	return EZ{g: g, log: log, debug: debug}
}

// Group returns an EZ on a sub-group of e with the given middleware.
func (e EZ) Group(path string, mw ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, mw...), log: e.log, debug: e.debug}
}

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindURI   Binder = "uri"
	BindNone  Binder = "none"
)

// Action describes one endpoint: I is bound from the request, O is
// rendered as JSON with Status (200 when zero).
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool // require a session; the group must run AuthJWT
	Status  int
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth && UserID(c) == "" {
			resp.Abort(c, http.StatusUnauthorized, "missing token")
			return
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
			if errors.Is(bindErr, io.EOF) {
				bindErr = nil // empty body: let the handler report missing fields
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindURI:
			bindErr = c.ShouldBindUri(&in)
		}
		if bindErr != nil {
			e.fail(c, bindError(bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			e.fail(c, err)
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &statusError{status: http.StatusRequestEntityTooLarge}
	}
	return domain.BadRequest("invalid request body")
}

// statusError carries a transport-level status that has no domain kind.
type statusError struct{ status int }

func (e *statusError) Error() string { return resp.MsgMap[e.status] }

func (e EZ) fail(c *gin.Context, err error) {
	var se *statusError
	if errors.As(err, &se) {
		resp.Abort(c, se.status, "")
		return
	}

	kind := domain.KindOf(err)
	status := resp.StatusFor(kind)
	if kind != domain.KindInternal {
		resp.Abort(c, status, err.Error())
		return
	}

	e.log.Error("request failed",
		zap.String("rid", c.GetString(mdw.KeyRequestID)),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	body := resp.Error(status, "")
	if e.debug {
		body.Detail = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

func UserID(c *gin.Context) string { return c.GetString(mdw.KeyUserID) }
