package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/repo/repotest"
)

func TestPropagator_ConvergesAfterOutOfOrderRetry(t *testing.T) {
	flaky := &flakyStore{Store: repotest.NewStore(t)}
	e := newEnvWithStore(t, flaky)
	ctx := context.Background()
	u := e.register(t, "a", "pw")

	_, err := e.comments.Post(ctx, domain.Comment{MangaID: "m1", Username: "a", Message: "legacy"})
	require.NoError(t, err)

	// a -> b fails, b -> c succeeds, then the first job is replayed
	flaky.broken = true
	_, err = e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: u.ID, NewUsername: strp("b")})
	require.NoError(t, err)
	flaky.broken = false
	_, err = e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: u.ID, NewUsername: strp("c")})
	require.NoError(t, err)

	list, err := e.comments.List(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "a", list[0].Username, "legacy comment still waits on the failed job")

	report, err := e.prop.RetryPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Retried: 1}, report)

	list, err = e.comments.List(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "c", list[0].Username)
	assert.Equal(t, u.ID, list[0].AuthorID)
}

func TestPropagator_RetryReportsFailures(t *testing.T) {
	flaky := &flakyStore{Store: repotest.NewStore(t)}
	e := newEnvWithStore(t, flaky)
	ctx := context.Background()
	u := e.register(t, "a", "pw")

	flaky.broken = true
	_, err := e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: u.ID, NewAvatar: strp("x.png")})
	require.NoError(t, err)

	report, err := e.prop.RetryPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Retried: 1, Failed: 1, Pending: 1}, report)

	pending, err := e.prop.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Attempts)
}

func TestPropagator_DeletedAuthorCompletes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	job := domain.Propagation{UserID: "gone", OldUsername: "a", NewUsername: "b"}
	require.NoError(t, e.store.Propagations().Enqueue(ctx, &job))

	require.NoError(t, e.prop.Run(ctx, job))
	pending, err := e.prop.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPropagator_InvalidatesTouchedMangas(t *testing.T) {
	store := repotest.NewStore(t)
	mc := newMemCache()
	prop := NewPropagator(store, mc, zap.NewNop())
	ctx := context.Background()

	u := &domain.User{Username: "a", PasswordHash: "h"}
	require.NoError(t, store.Users().Create(ctx, u))
	for _, m := range []string{"m1", "m2"} {
		require.NoError(t, store.Comments().Create(ctx, &domain.Comment{MangaID: m, AuthorID: u.ID, Username: "a", Message: "x"}))
	}
	job := domain.Propagation{UserID: u.ID, OldUsername: "a", NewUsername: "a"}
	require.NoError(t, store.Propagations().Enqueue(ctx, &job))

	require.NoError(t, prop.Run(ctx, job))
	assert.ElementsMatch(t, []string{"m1", "m2"}, mc.invalidated)
}
