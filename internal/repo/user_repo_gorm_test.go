package repo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/repo/repotest"
)

func newUser(t *testing.T, s domain.Store, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, PasswordHash: "hash", LastActive: time.Now()}
	require.NoError(t, s.Users().Create(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func TestUserRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	u := newUser(t, s, "alice")

	got, err := s.Users().FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Empty(t, got.Favorites)

	byID, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	missing, err := s.Users().FindByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Nil(t, missing, "usernames are case-sensitive")
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	s := repotest.NewStore(t)
	newUser(t, s, "bob")

	err := s.Users().Create(context.Background(), &domain.User{Username: "bob", PasswordHash: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestUserRepo_SaveScalars(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	u := newUser(t, s, "carol")

	exp := time.Now().Add(time.Hour).UTC()
	u.Username = "caroline"
	u.IsPremium = true
	u.PremiumExpiresAt = &exp
	require.NoError(t, s.Users().Save(ctx, u))

	got, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "caroline", got.Username)
	assert.True(t, got.IsPremium)
	require.NotNil(t, got.PremiumExpiresAt)

	u.IsPremium = false
	u.PremiumExpiresAt = nil
	require.NoError(t, s.Users().Save(ctx, u))
	got, err = s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PremiumExpiresAt)
}

func TestUserRepo_SaveRenameConflict(t *testing.T) {
	s := repotest.NewStore(t)
	newUser(t, s, "dave")
	u := newUser(t, s, "erin")

	u.Username = "dave"
	err := s.Users().Save(context.Background(), u)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestUserRepo_ListOrdersByLastActive(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	base := time.Now()
	for i, name := range []string{"old", "newest", "middle"} {
		offset := map[int]time.Duration{0: -2 * time.Hour, 1: 0, 2: -time.Hour}[i]
		u := &domain.User{Username: name, PasswordHash: "h", LastActive: base.Add(offset)}
		require.NoError(t, s.Users().Create(ctx, u))
	}

	users, err := s.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"newest", "middle", "old"}, []string{users[0].Username, users[1].Username, users[2].Username})
}

func TestUserRepo_DeleteRemovesLists(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	u := newUser(t, s, "frank")
	_, err := s.Users().AddFavorite(ctx, u.ID, domain.FavoriteEntry{MangaID: "m1"}, 10)
	require.NoError(t, err)

	require.NoError(t, s.Users().Delete(ctx, u.ID))
	got, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// re-creating the same name starts with empty lists
	again := newUser(t, s, "frank")
	got, err = s.Users().FindByID(ctx, again.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Favorites)

	assert.NoError(t, s.Users().Delete(ctx, "does-not-exist"))
}

func TestUserRepo_Favorites(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	u := newUser(t, s, "gina")

	favs, err := s.Users().AddFavorite(ctx, u.ID, domain.FavoriteEntry{MangaID: "m1", Title: "One"}, 10)
	require.NoError(t, err)
	require.Len(t, favs, 1)

	favs, err = s.Users().AddFavorite(ctx, u.ID, domain.FavoriteEntry{MangaID: "m2", Title: "Two"}, 10)
	require.NoError(t, err)
	assert.Equal(t, "m2", favs[0].MangaID, "newest first")

	favs, err = s.Users().AddFavorite(ctx, u.ID, domain.FavoriteEntry{MangaID: "m1", Title: "changed"}, 10)
	require.NoError(t, err)
	require.Len(t, favs, 2, "duplicate add is a no-op")
	assert.Equal(t, "One", favs[1].Title)

	favs, err = s.Users().RemoveFavorite(ctx, u.ID, "m1")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "m2", favs[0].MangaID)

	favs, err = s.Users().RemoveFavorite(ctx, u.ID, "absent")
	require.NoError(t, err)
	assert.Len(t, favs, 1)
}

func TestUserRepo_FavoritesCap(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	u := newUser(t, s, "hank")

	var favs []domain.FavoriteEntry
	var err error
	for i := 0; i < 5; i++ {
		favs, err = s.Users().AddFavorite(ctx, u.ID, domain.FavoriteEntry{MangaID: fmt.Sprintf("m%d", i)}, 3)
		require.NoError(t, err)
	}
	require.Len(t, favs, 3)
	assert.Equal(t, "m4", favs[0].MangaID)
	assert.Equal(t, "m2", favs[2].MangaID)
}

func TestUserRepo_ListOpsUnknownUser(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)

	_, err := s.Users().AddFavorite(ctx, "ghost", domain.FavoriteEntry{MangaID: "m"}, 10)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = s.Users().RemoveFavorite(ctx, "ghost", "m")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = s.Users().PushHistory(ctx, "ghost", domain.HistoryEntry{MangaID: "m"}, 20, time.Now())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserRepo_PushHistory(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	u := newUser(t, s, "ivy")
	active := time.Now().Add(time.Minute).UTC().Truncate(time.Second)

	for i := 0; i < 25; i++ {
		_, err := s.Users().PushHistory(ctx, u.ID, domain.HistoryEntry{MangaID: fmt.Sprintf("m%d", i)}, 20, active)
		require.NoError(t, err)
	}
	hist, err := s.Users().PushHistory(ctx, u.ID, domain.HistoryEntry{MangaID: "m10", ChapterNumber: 12.5, ChapterID: "c"}, 20, active)
	require.NoError(t, err)
	require.Len(t, hist, 20)
	assert.Equal(t, "m10", hist[0].MangaID)
	assert.Equal(t, 12.5, hist[0].ChapterNumber)
	assert.Equal(t, "m24", hist[1].MangaID)

	seen := map[string]bool{}
	for _, h := range hist {
		assert.False(t, seen[h.MangaID], "duplicate %s", h.MangaID)
		seen[h.MangaID] = true
	}

	got, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActive.Equal(active))
	assert.Len(t, got.History, 20)
}
