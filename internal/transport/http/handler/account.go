package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mangazone-api/internal/core/auth"
	"mangazone-api/internal/domain"
	"mangazone-api/internal/service"
	"mangazone-api/internal/transport/http/ez"
)

type AccountHandler struct {
	accounts *service.AccountService
	jwt      *auth.JWTer
	authn    gin.HandlersChain
	guard    guard
}

func NewAccountHandler(accounts *service.AccountService, jwt *auth.JWTer, authn gin.HandlersChain) *AccountHandler {
	return &AccountHandler{accounts: accounts, jwt: jwt, authn: authn, guard: guard{sessions: accounts}}
}

func (h *AccountHandler) Priority() int { return 10 }

type credentialsIn struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// session is the user record plus a bearer token for later calls.
type session struct {
	domain.User
	Token string `json:"token"`
}

func (h *AccountHandler) session(u *domain.User) (session, error) {
	tok, err := h.jwt.Issue(u.ID, auth.RoleFor(u.IsAdmin))
	if err != nil {
		return session{}, err
	}
	return session{User: *u, Token: tok}, nil
}

type updateIn struct {
	UserID      string  `json:"userId"`
	NewUsername *string `json:"newUsername"`
	NewAvatar   *string `json:"newAvatar"`
}

type upgradeIn struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (h *AccountHandler) MountAPI(api ez.EZ) {
	authed := api.Group("", h.authn...)

	ez.RegisterAction(api, ez.Action[credentialsIn, session]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *credentialsIn) (session, error) {
			u, err := h.accounts.Register(c.Request.Context(), in.Username, in.Password)
			if err != nil {
				return session{}, err
			}
			return h.session(u)
		},
	})

	ez.RegisterAction(api, ez.Action[credentialsIn, session]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *credentialsIn) (session, error) {
			u, err := h.accounts.Login(c.Request.Context(), in.Username, in.Password)
			if err != nil {
				return session{}, err
			}
			return h.session(u)
		},
	})

	ez.RegisterAction(api, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/user/:username",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.accounts.GetByUsername(c.Request.Context(), c.Param("username"))
		},
	})

	ez.RegisterAction(authed, ez.Action[updateIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/user/update",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *updateIn) (*domain.User, error) {
			if err := h.guard.self(c, in.UserID); err != nil {
				return nil, err
			}
			return h.accounts.UpdateProfile(c.Request.Context(), service.ProfileUpdate{
				UserID:      in.UserID,
				NewUsername: in.NewUsername,
				NewAvatar:   in.NewAvatar,
			})
		},
	})

	ez.RegisterAction(authed, ez.Action[upgradeIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/upgrade",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *upgradeIn) (*domain.User, error) {
			ctx := c.Request.Context()
			if in.UserID == "" && in.Username != "" {
				target, err := h.accounts.GetByUsername(ctx, in.Username)
				if err != nil {
					return nil, err
				}
				if err := h.guard.self(c, target.ID); err != nil {
					return nil, err
				}
				return h.accounts.UpgradeByUsername(ctx, in.Username)
			}
			if err := h.guard.self(c, in.UserID); err != nil {
				return nil, err
			}
			return h.accounts.UpgradeByID(ctx, in.UserID)
		},
	})
}
