package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/repo/repotest"
	"mangazone-api/pkg/utils"
)

func strp(s string) *string { return &s }

func TestRegister(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u := e.register(t, "alice", "pw")
	assert.NotEmpty(t, u.ID)
	assert.Empty(t, u.PasswordHash)
	assert.False(t, u.IsPremium)
	assert.False(t, u.IsAdmin)
	assert.Equal(t, t0, u.LastActive)
	assert.NotNil(t, u.Favorites)
	assert.NotNil(t, u.History)

	stored := e.stored(t, u.ID)
	assert.True(t, utils.CheckPassword("pw", stored.PasswordHash))

	_, err := e.accounts.Register(ctx, "alice", "other")
	requireKind(t, err, domain.ErrConflict)

	_, err = e.accounts.Register(ctx, "", "pw")
	requireKind(t, err, domain.ErrBadRequest)
	_, err = e.accounts.Register(ctx, "bob", "")
	requireKind(t, err, domain.ErrBadRequest)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "pw")

	e.clock.Advance(time.Hour)
	got, err := e.accounts.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Empty(t, got.PasswordHash)
	assert.True(t, e.stored(t, u.ID).LastActive.Equal(t0.Add(time.Hour)))

	_, err = e.accounts.Login(ctx, "alice", "bad")
	requireKind(t, err, domain.ErrUnauthorized)
	_, err = e.accounts.Login(ctx, "nobody", "pw")
	requireKind(t, err, domain.ErrNotFound)
	_, err = e.accounts.Login(ctx, "alice", "")
	requireKind(t, err, domain.ErrBadRequest)
}

func TestLogin_BannedIsCheckedBeforePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "mallory", "pw")
	_, err := e.admin.Manage(ctx, u.ID, domain.ActionToggleBan)
	require.NoError(t, err)

	_, err = e.accounts.Login(ctx, "mallory", "wrong")
	requireKind(t, err, domain.ErrForbidden)
	_, err = e.accounts.Login(ctx, "mallory", "pw")
	requireKind(t, err, domain.ErrForbidden)
}

func TestLogin_ExpiresPremium(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "pw")
	_, err := e.accounts.UpgradeByID(ctx, u.ID)
	require.NoError(t, err)

	e.clock.Advance(29 * 24 * time.Hour)
	got, err := e.accounts.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.True(t, got.IsPremium)

	e.clock.Advance(2 * 24 * time.Hour)
	got, err = e.accounts.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.False(t, got.IsPremium)
	assert.Nil(t, got.PremiumExpiresAt)
	assert.False(t, e.stored(t, u.ID).IsPremium)
}

func TestLogin_Bootstrap(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	got, err := e.accounts.Login(ctx, "JOSHUA", "7465")
	require.NoError(t, err)
	assert.Equal(t, "joshua", got.Username)
	assert.True(t, got.IsAdmin)
	assert.True(t, got.IsPremium)
	assert.Nil(t, got.PremiumExpiresAt)

	// banned and demoted: the reserved credential still restores it
	_, err = e.admin.Manage(ctx, got.ID, domain.ActionToggleBan)
	require.NoError(t, err)
	_, err = e.admin.Manage(ctx, got.ID, domain.ActionToggleVIP)
	require.NoError(t, err)

	e.clock.Advance(time.Minute)
	again, err := e.accounts.Login(ctx, "joshua", "7465")
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
	assert.True(t, again.IsPremium)
	assert.True(t, again.IsBanned, "ban flag is left alone")
	assert.True(t, again.LastActive.Equal(t0.Add(time.Minute)))

	// any other password goes down the normal path, where the ban applies
	_, err = e.accounts.Login(ctx, "joshua", "7466")
	requireKind(t, err, domain.ErrForbidden)
}

func TestLogin_BootstrapDisabled(t *testing.T) {
	e := newEnv(t)
	e.accounts.boot = NewBootstrapper(e.store, "", "", nil)

	_, err := e.accounts.Login(context.Background(), "joshua", "7465")
	requireKind(t, err, domain.ErrNotFound)
}

func TestUpdateProfile_RenamePropagates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "pw")
	other := e.register(t, "bob", "pw")

	_, err := e.comments.Post(ctx, domain.Comment{MangaID: "m1", AuthorID: u.ID, Username: "alice", Message: "first"})
	require.NoError(t, err)
	_, err = e.comments.Post(ctx, domain.Comment{MangaID: "m2", Username: "alice", Message: "legacy"})
	require.NoError(t, err)
	_, err = e.comments.Post(ctx, domain.Comment{MangaID: "m1", AuthorID: other.ID, Username: "bob", Message: "other"})
	require.NoError(t, err)

	got, err := e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: u.ID, NewUsername: strp("alicia"), NewAvatar: strp("pic.png")})
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Username)
	assert.Equal(t, "pic.png", got.Avatar)

	for _, manga := range []string{"m1", "m2"} {
		list, err := e.comments.List(ctx, manga)
		require.NoError(t, err)
		for _, c := range list {
			if c.AuthorID == other.ID {
				assert.Equal(t, "bob", c.Username)
				continue
			}
			assert.Equal(t, "alicia", c.Username)
			assert.Equal(t, "pic.png", c.Avatar)
			assert.Equal(t, u.ID, c.AuthorID)
		}
	}

	pending, err := e.prop.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUpdateProfile_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "pw")
	e.register(t, "bob", "pw")

	_, err := e.accounts.UpdateProfile(ctx, ProfileUpdate{})
	requireKind(t, err, domain.ErrBadRequest)
	_, err = e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: "missing", NewUsername: strp("x")})
	requireKind(t, err, domain.ErrNotFound)
	_, err = e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: u.ID, NewUsername: strp("bob")})
	requireKind(t, err, domain.ErrConflict)

	same, err := e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: u.ID, NewUsername: strp("alice")})
	require.NoError(t, err)
	assert.Equal(t, "alice", same.Username)

	empty, err := e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: u.ID, NewUsername: strp("")})
	require.NoError(t, err)
	assert.Equal(t, "alice", empty.Username)
}

func TestUpdateProfile_ClearAvatar(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "pw")
	_, err := e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: u.ID, NewAvatar: strp("a.png")})
	require.NoError(t, err)
	_, err = e.comments.Post(ctx, domain.Comment{MangaID: "m", AuthorID: u.ID, Username: "alice", Avatar: "a.png", Message: "hi"})
	require.NoError(t, err)

	got, err := e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: u.ID, NewAvatar: strp("")})
	require.NoError(t, err)
	assert.Empty(t, got.Avatar)

	list, err := e.comments.List(ctx, "m")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Avatar)
}

func TestUpdateProfile_FailedPropagationStaysPending(t *testing.T) {
	flaky := &flakyStore{Store: repotest.NewStore(t)}
	e := newEnvWithStore(t, flaky)
	ctx := context.Background()

	u := e.register(t, "alice", "pw")
	_, err := e.comments.Post(ctx, domain.Comment{MangaID: "m", AuthorID: u.ID, Username: "alice", Message: "hi"})
	require.NoError(t, err)

	flaky.broken = true
	got, err := e.accounts.UpdateProfile(ctx, ProfileUpdate{UserID: u.ID, NewUsername: strp("alicia")})
	require.NoError(t, err, "the rename stands")
	assert.Equal(t, "alicia", got.Username)
	assert.Equal(t, "alicia", e.stored(t, u.ID).Username)

	pending, err := e.prop.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "alice", pending[0].OldUsername)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Contains(t, pending[0].LastError, "comments unavailable")

	flaky.broken = false
	report, err := e.prop.RetryPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Retried: 1}, report)

	list, err := e.comments.List(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, "alicia", list[0].Username)
}

func TestGetByUsername_LazyExpiry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "pw")
	_, err := e.accounts.UpgradeByUsername(ctx, "alice")
	require.NoError(t, err)

	got, err := e.accounts.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.IsPremium)
	assert.Empty(t, got.PasswordHash)

	e.clock.Advance(31 * 24 * time.Hour)
	got, err = e.accounts.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, got.IsPremium)
	assert.False(t, e.stored(t, u.ID).IsPremium, "expiry is persisted")

	_, err = e.accounts.GetByUsername(ctx, "ghost")
	requireKind(t, err, domain.ErrNotFound)
}

func TestUpgrade_ResetsWindow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "pw")

	got, err := e.accounts.UpgradeByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PremiumExpiresAt)
	assert.True(t, got.PremiumExpiresAt.Equal(t0.AddDate(0, 0, 30)))

	e.clock.Advance(10 * 24 * time.Hour)
	got, err = e.accounts.UpgradeByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.PremiumExpiresAt.Equal(t0.AddDate(0, 0, 40)), "window restarts, not extended")

	_, err = e.accounts.UpgradeByID(ctx, "")
	requireKind(t, err, domain.ErrBadRequest)
	_, err = e.accounts.UpgradeByID(ctx, "missing")
	requireKind(t, err, domain.ErrNotFound)
	_, err = e.accounts.UpgradeByUsername(ctx, "ghost")
	requireKind(t, err, domain.ErrNotFound)
}

func TestIsAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "pw")
	boss, err := e.accounts.Login(ctx, "joshua", "7465")
	require.NoError(t, err)

	ok, err := e.accounts.IsAdmin(ctx, boss.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.accounts.IsAdmin(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = e.accounts.IsAdmin(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "pw")
	boss, err := e.accounts.Login(ctx, "Joshua", "7465")
	require.NoError(t, err)

	st, err := e.accounts.SessionState(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionState{Exists: true}, st)

	for _, id := range []string{u.ID, boss.ID} {
		_, err = e.admin.Manage(ctx, id, domain.ActionToggleBan)
		require.NoError(t, err)
	}
	st, err = e.accounts.SessionState(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, st.Banned)

	st, err = e.accounts.SessionState(ctx, boss.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionState{Exists: true, IsAdmin: true}, st, "bans never apply to the reserved account")

	st, err = e.accounts.SessionState(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, st.Exists)
}
