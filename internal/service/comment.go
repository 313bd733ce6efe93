package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"mangazone-api/internal/core/cache"
	"mangazone-api/internal/domain"
)

const CommentPageSize = 50

// CommentCache fronts per-manga comment listings.
type CommentCache interface {
	Comments(ctx context.Context, mangaID string, load func(context.Context) ([]domain.Comment, error)) ([]domain.Comment, error)
	Invalidate(ctx context.Context, mangaIDs ...string) error
}

// NoCache always loads from the store.
type NoCache struct{}

func (NoCache) Comments(ctx context.Context, _ string, load func(context.Context) ([]domain.Comment, error)) ([]domain.Comment, error) {
	return load(ctx)
}

func (NoCache) Invalidate(context.Context, ...string) error { return nil }

// RedisCommentCache keeps listings in redis for a short TTL; writers
// invalidate the affected mangas.
type RedisCommentCache struct {
	c   *cache.Cache
	ttl time.Duration
}

func NewRedisCommentCache(c *cache.Cache, ttl time.Duration) *RedisCommentCache {
	return &RedisCommentCache{c: c, ttl: ttl}
}

func commentsKey(mangaID string) string { return "comments:" + mangaID }

func (r *RedisCommentCache) Comments(ctx context.Context, mangaID string, load func(context.Context) ([]domain.Comment, error)) ([]domain.Comment, error) {
	return cache.GetOrLoadJSON(r.c, ctx, commentsKey(mangaID), r.ttl, load)
}

func (r *RedisCommentCache) Invalidate(ctx context.Context, mangaIDs ...string) error {
	keys := make([]string, len(mangaIDs))
	for i, id := range mangaIDs {
		keys[i] = commentsKey(id)
	}
	return r.c.Delete(ctx, keys...)
}

type CommentService struct {
	store domain.Store
	cache CommentCache
	log   *zap.Logger
	now   clock
}

func NewCommentService(store domain.Store, c CommentCache, log *zap.Logger) *CommentService {
	if c == nil {
		c = NoCache{}
	}
	return &CommentService{store: store, cache: c, log: log, now: systemClock}
}

// List returns the newest comments for the manga.
func (s *CommentService) List(ctx context.Context, mangaID string) ([]domain.Comment, error) {
	if mangaID == "" {
		return nil, domain.BadRequest("mangaId is required")
	}
	return s.cache.Comments(ctx, mangaID, func(ctx context.Context) ([]domain.Comment, error) {
		return s.store.Comments().ListByManga(ctx, mangaID, CommentPageSize)
	})
}

// Post stores c stamped with the current time. Identity fields are taken
// as given; callers resolve them from the session.
func (s *CommentService) Post(ctx context.Context, c domain.Comment) (*domain.Comment, error) {
	if c.MangaID == "" || c.Username == "" || strings.TrimSpace(c.Message) == "" {
		return nil, domain.BadRequest("mangaId, username and message are required")
	}
	c.ID = ""
	c.CreatedAt = s.now()
	if err := s.store.Comments().Create(ctx, &c); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, c.MangaID); err != nil {
		s.log.Warn("invalidate comments cache", zap.String("manga_id", c.MangaID), zap.Error(err))
	}
	return &c, nil
}
