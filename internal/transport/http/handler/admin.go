package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/service"
	"mangazone-api/internal/transport/http/ez"
)

// AdminHandler mounts on the admin group, which already enforces an
// authenticated caller whose stored account is an admin.
type AdminHandler struct {
	admin *service.AdminService
	prop  *service.Propagator
}

func NewAdminHandler(admin *service.AdminService, prop *service.Propagator) *AdminHandler {
	return &AdminHandler{admin: admin, prop: prop}
}

type manageIn struct {
	TargetID string             `json:"targetId"`
	Action   domain.AdminAction `json:"action"`
}

func (h *AdminHandler) MountAdmin(admin ez.EZ) {
	ez.RegisterAction(admin, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			return h.admin.Roster(c.Request.Context())
		},
	})

	ez.RegisterAction(admin, ez.Action[manageIn, []domain.User]{
		Method: http.MethodPost,
		Path:   "/manage",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *manageIn) ([]domain.User, error) {
			return h.admin.Manage(c.Request.Context(), in.TargetID, in.Action)
		},
	})

	ez.RegisterAction(admin, ez.Action[struct{}, []domain.Propagation]{
		Method: http.MethodGet,
		Path:   "/propagations",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Propagation, error) {
			pending, err := h.prop.Pending(c.Request.Context())
			if pending == nil && err == nil {
				pending = []domain.Propagation{}
			}
			return pending, err
		},
	})

	ez.RegisterAction(admin, ez.Action[struct{}, service.Report]{
		Method: http.MethodPost,
		Path:   "/propagations/retry",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (service.Report, error) {
			return h.prop.RetryPending(c.Request.Context())
		},
	})
}
