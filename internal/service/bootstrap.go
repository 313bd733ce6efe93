package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mangazone-api/internal/domain"
	"mangazone-api/pkg/utils"
)

// Bootstrapper owns the reserved super-user account. Logging in with the
// configured credential always yields an admin with permanent premium.
type Bootstrapper struct {
	store    domain.Store
	username string
	password string
	log      *zap.Logger
	now      clock
}

// NewBootstrapper stores the account under the lowercase form of username.
// An empty username disables the account.
func NewBootstrapper(store domain.Store, username, password string, log *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		store:    store,
		username: strings.ToLower(strings.TrimSpace(username)),
		password: password,
		log:      log,
		now:      systemClock,
	}
}

func (b *Bootstrapper) Enabled() bool { return b != nil && b.username != "" }

func (b *Bootstrapper) Username() string { return b.username }

// Owns reports whether username is the reserved account. Bans never
// apply to it.
func (b *Bootstrapper) Owns(username string) bool {
	return b.Enabled() && strings.EqualFold(username, b.username)
}

// Matches compares the username case-insensitively and the password exactly.
func (b *Bootstrapper) Matches(username, password string) bool {
	if !b.Enabled() || !strings.EqualFold(username, b.username) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(b.password)) == 1
}

// Ensure finds or creates the account and re-applies its privileges.
// The ban flag is left as it is.
func (b *Bootstrapper) Ensure(ctx context.Context) (*domain.User, error) {
	if !b.Enabled() {
		return nil, errors.New("bootstrap account is disabled")
	}
	users := b.store.Users()
	now := b.now()

	u, err := users.FindByUsername(ctx, b.username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		hash, err := utils.HashPassword(b.password)
		if err != nil {
			return nil, fmt.Errorf("hash bootstrap password: %w", err)
		}
		u = &domain.User{
			Username:     b.username,
			PasswordHash: hash,
			IsAdmin:      true,
			IsPremium:    true,
			LastActive:   now,
			CreatedAt:    now,
		}
		err = users.Create(ctx, u)
		if err == nil {
			b.log.Info("bootstrap account created", zap.String("username", b.username))
			return sanitized(u), nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		// created concurrently; fall through to the update path
		if u, err = users.FindByUsername(ctx, b.username); err != nil {
			return nil, err
		}
		if u == nil {
			return nil, errors.New("bootstrap account vanished during creation")
		}
	}

	u.IsAdmin = true
	u.IsPremium = true
	u.PremiumExpiresAt = nil
	u.LastActive = now
	if err := users.Save(ctx, u); err != nil {
		return nil, err
	}
	return sanitized(u), nil
}
