package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/service"
	"mangazone-api/internal/transport/http/ez"
	mdw "mangazone-api/internal/transport/http/middleware"
)

type LibraryHandler struct {
	library *service.LibraryService
	authn   gin.HandlersChain
	guard   guard
}

func NewLibraryHandler(library *service.LibraryService, sessions mdw.SessionChecker, authn gin.HandlersChain) *LibraryHandler {
	return &LibraryHandler{library: library, authn: authn, guard: guard{sessions: sessions}}
}

func (h *LibraryHandler) Priority() int { return 30 }

// mangaIn takes both the MangaDex and the Jikan-shaped payloads.
type mangaIn struct {
	MangaID looseString `json:"mangaId"`
	ID      looseString `json:"id"`
	Title   string      `json:"title"`
	Image   string      `json:"image"`
	Cover   string      `json:"cover"`
	Score   looseNumber `json:"score"`
}

func (m *mangaIn) mangaID() string { return firstNonEmpty(string(m.MangaID), string(m.ID)) }

func (m *mangaIn) image() string { return firstNonEmpty(m.Image, m.Cover) }

type chapterIn struct {
	Ch        looseNumber `json:"ch"`
	ID        looseString `json:"id"`
	ChapterID looseString `json:"chapterId"`
}

type favoriteAddIn struct {
	UserID string   `json:"userId"`
	Manga  *mangaIn `json:"manga"`
}

type favoriteRemoveIn struct {
	UserID  string      `json:"userId"`
	MangaID looseString `json:"mangaId"`
}

type historyAddIn struct {
	UserID  string     `json:"userId"`
	Manga   *mangaIn   `json:"manga"`
	Chapter *chapterIn `json:"chapter"`
}

func (h *LibraryHandler) MountAPI(api ez.EZ) {
	authed := api.Group("", h.authn...)

	ez.RegisterAction(authed, ez.Action[favoriteAddIn, []domain.FavoriteEntry]{
		Method: http.MethodPost,
		Path:   "/favorites/add",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *favoriteAddIn) ([]domain.FavoriteEntry, error) {
			if in.UserID == "" || in.Manga == nil {
				return nil, domain.BadRequest("userId and manga are required")
			}
			if err := h.guard.self(c, in.UserID); err != nil {
				return nil, err
			}
			return h.library.AddFavorite(c.Request.Context(), in.UserID, domain.FavoriteEntry{
				MangaID: in.Manga.mangaID(),
				Title:   in.Manga.Title,
				Image:   in.Manga.image(),
				Score:   float64(in.Manga.Score),
			})
		},
	})

	ez.RegisterAction(authed, ez.Action[favoriteRemoveIn, []domain.FavoriteEntry]{
		Method: http.MethodPost,
		Path:   "/favorites/remove",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *favoriteRemoveIn) ([]domain.FavoriteEntry, error) {
			if in.UserID == "" || in.MangaID == "" {
				return nil, domain.BadRequest("userId and mangaId are required")
			}
			if err := h.guard.self(c, in.UserID); err != nil {
				return nil, err
			}
			return h.library.RemoveFavorite(c.Request.Context(), in.UserID, string(in.MangaID))
		},
	})

	ez.RegisterAction(authed, ez.Action[historyAddIn, []domain.HistoryEntry]{
		Method: http.MethodPost,
		Path:   "/history/add",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *historyAddIn) ([]domain.HistoryEntry, error) {
			if in.UserID == "" || in.Manga == nil {
				return nil, domain.BadRequest("userId and manga are required")
			}
			if err := h.guard.self(c, in.UserID); err != nil {
				return nil, err
			}
			e := domain.HistoryEntry{
				MangaID:   in.Manga.mangaID(),
				Title:     in.Manga.Title,
				Image:     in.Manga.image(),
				ChapterID: "0",
			}
			if ch := in.Chapter; ch != nil {
				e.ChapterNumber = float64(ch.Ch)
				e.ChapterID = firstNonEmpty(string(ch.ID), string(ch.ChapterID), "0")
			}
			return h.library.AddHistory(c.Request.Context(), in.UserID, e)
		},
	})
}
