package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/service"
	"mangazone-api/internal/transport/http/ez"
)

type CommentHandler struct {
	comments *service.CommentService
	accounts *service.AccountService
	authn    gin.HandlersChain
}

func NewCommentHandler(comments *service.CommentService, accounts *service.AccountService, authn gin.HandlersChain) *CommentHandler {
	return &CommentHandler{comments: comments, accounts: accounts, authn: authn}
}

func (h *CommentHandler) Priority() int { return 20 }

// commentIn still accepts username and avatar from older clients; both
// are replaced by the caller's stored identity.
type commentIn struct {
	MangaID  looseString `json:"mangaId"`
	Message  string      `json:"message"`
	Username string      `json:"username"`
	Avatar   string      `json:"avatar"`
}

func (h *CommentHandler) MountAPI(api ez.EZ) {
	ez.RegisterAction(api, ez.Action[struct{}, []domain.Comment]{
		Method: http.MethodGet,
		Path:   "/comments/:mangaId",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Comment, error) {
			return h.comments.List(c.Request.Context(), c.Param("mangaId"))
		},
	})

	ez.RegisterAction(api.Group("", h.authn...), ez.Action[commentIn, *domain.Comment]{
		Method: http.MethodPost,
		Path:   "/comments",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *commentIn) (*domain.Comment, error) {
			ctx := c.Request.Context()
			author, err := h.accounts.GetByID(ctx, ez.UserID(c))
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Unauthorized("account no longer exists")
			}
			if err != nil {
				return nil, err
			}
			return h.comments.Post(ctx, domain.Comment{
				MangaID:  string(in.MangaID),
				AuthorID: author.ID,
				Username: author.Username,
				Avatar:   author.Avatar,
				Message:  in.Message,
			})
		},
	})
}
