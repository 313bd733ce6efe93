package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantPremium_ResetsWindow(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	u := &User{}

	u.GrantPremium(now, 30)
	require.True(t, u.IsPremium)
	require.NotNil(t, u.PremiumExpiresAt)
	assert.Equal(t, now.AddDate(0, 0, 30), *u.PremiumExpiresAt)

	later := now.Add(5 * 24 * time.Hour)
	u.GrantPremium(later, 30)
	assert.Equal(t, later.AddDate(0, 0, 30), *u.PremiumExpiresAt)
}

func TestExpirePremium(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	cases := []struct {
		name    string
		user    User
		changed bool
	}{
		{"expired", User{IsPremium: true, PremiumExpiresAt: &past}, true},
		{"still valid", User{IsPremium: true, PremiumExpiresAt: &future}, false},
		{"no expiry", User{IsPremium: true}, false},
		{"not premium", User{PremiumExpiresAt: &past}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.user
			assert.Equal(t, tc.changed, u.ExpirePremium(now))
			if tc.changed {
				assert.False(t, u.IsPremium)
				assert.Nil(t, u.PremiumExpiresAt)
			}
		})
	}
}

func TestSanitized(t *testing.T) {
	u := User{Username: "alice", PasswordHash: "hash"}
	s := u.Sanitized()
	assert.Empty(t, s.PasswordHash)
	assert.NotNil(t, s.Favorites)
	assert.NotNil(t, s.History)
	assert.Equal(t, "hash", u.PasswordHash)
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NotFound("user not found"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "wrap: user not found", err.Error())
}

func TestAdminActionValid(t *testing.T) {
	assert.True(t, ActionToggleVIP.Valid())
	assert.True(t, ActionDelete.Valid())
	assert.False(t, AdminAction("promote").Valid())
}
