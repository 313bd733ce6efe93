package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangazone-api/internal/domain"
)

// memCache records invalidations and serves from a map.
type memCache struct {
	mu          sync.Mutex
	entries     map[string][]domain.Comment
	invalidated []string
}

func newMemCache() *memCache { return &memCache{entries: map[string][]domain.Comment{}} }

func (m *memCache) Comments(ctx context.Context, mangaID string, load func(context.Context) ([]domain.Comment, error)) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.entries[mangaID]; ok {
		return v, nil
	}
	v, err := load(ctx)
	if err == nil {
		m.entries[mangaID] = v
	}
	return v, err
}

func (m *memCache) Invalidate(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
		m.invalidated = append(m.invalidated, id)
	}
	return nil
}

func TestComments_PostAndList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for i := 0; i < 55; i++ {
		e.clock.Advance(time.Second)
		_, err := e.comments.Post(ctx, domain.Comment{MangaID: "m1", Username: "alice", Message: "hi"})
		require.NoError(t, err)
	}
	e.clock.Advance(time.Second)
	c, err := e.comments.Post(ctx, domain.Comment{MangaID: "m1", Username: "alice", Message: "latest", CreatedAt: t0})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.True(t, c.CreatedAt.Equal(e.clock.now), "creation time is server assigned")

	list, err := e.comments.List(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, list, CommentPageSize)
	assert.Equal(t, "latest", list[0].Message)

	empty, err := e.comments.List(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestComments_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, c := range []domain.Comment{
		{Username: "a", Message: "m"},
		{MangaID: "x", Message: "m"},
		{MangaID: "x", Username: "a", Message: "   "},
	} {
		_, err := e.comments.Post(ctx, c)
		requireKind(t, err, domain.ErrBadRequest)
	}
	_, err := e.comments.List(ctx, "")
	requireKind(t, err, domain.ErrBadRequest)
}

func TestComments_CacheInvalidatedOnPost(t *testing.T) {
	e := newEnv(t)
	mc := newMemCache()
	e.comments = NewCommentService(e.store, mc, e.comments.log)
	e.comments.now = e.clock.Now
	ctx := context.Background()

	list, err := e.comments.List(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = e.comments.Post(ctx, domain.Comment{MangaID: "m1", Username: "alice", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, mc.invalidated)

	list, err = e.comments.List(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
