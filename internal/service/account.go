package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mangazone-api/internal/domain"
	"mangazone-api/pkg/utils"
)

type AccountDeps struct {
	Store       domain.Store
	Bootstrap   *Bootstrapper
	Propagator  *Propagator
	Avatars     AvatarStore // nil keeps avatars as submitted
	PremiumDays int
	Log         *zap.Logger
}

type AccountService struct {
	store       domain.Store
	boot        *Bootstrapper
	prop        *Propagator
	avatars     AvatarStore
	premiumDays int
	log         *zap.Logger
	now         clock
}

func NewAccountService(d AccountDeps) *AccountService {
	if d.Avatars == nil {
		d.Avatars = PassthroughAvatars{}
	}
	if d.PremiumDays <= 0 {
		d.PremiumDays = domain.DefaultPremiumDays
	}
	return &AccountService{
		store:       d.Store,
		boot:        d.Bootstrap,
		prop:        d.Propagator,
		avatars:     d.Avatars,
		premiumDays: d.PremiumDays,
		log:         d.Log,
		now:         systemClock,
	}
}

func (s *AccountService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, domain.BadRequest("username and password are required")
	}
	existing, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict("username already exists")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	u := &domain.User{
		Username:     username,
		PasswordHash: hash,
		LastActive:   now,
		CreatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID))
	return sanitized(u), nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.BadRequest("username and password are required")
	}
	if s.boot.Matches(username, password) {
		return s.boot.Ensure(ctx)
	}

	u, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	if u.IsBanned {
		return nil, domain.Forbidden("account is banned")
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return nil, domain.Unauthorized("wrong password")
	}

	now := s.now()
	u.ExpirePremium(now)
	u.LastActive = now
	if err := s.store.Users().Save(ctx, u); err != nil {
		return nil, err
	}
	return sanitized(u), nil
}

// ProfileUpdate leaves a field unchanged when it is nil. An empty
// NewUsername is ignored; an empty NewAvatar clears the avatar.
type ProfileUpdate struct {
	UserID      string
	NewUsername *string
	NewAvatar   *string
}

// UpdateProfile saves the new identity together with a pending
// propagation, then rewrites the author's comments. A failed rewrite is
// logged and left pending for retry; the profile change stands.
func (s *AccountService) UpdateProfile(ctx context.Context, in ProfileUpdate) (*domain.User, error) {
	if in.UserID == "" {
		return nil, domain.BadRequest("userId is required")
	}
	u, err := s.store.Users().FindByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	oldName, oldAvatar := u.Username, u.Avatar

	if in.NewUsername != nil && *in.NewUsername != "" && *in.NewUsername != u.Username {
		taken, err := s.store.Users().FindByUsername(ctx, *in.NewUsername)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, domain.Conflict("username already taken")
		}
		u.Username = *in.NewUsername
	}
	if in.NewAvatar != nil {
		avatar, err := s.avatars.Store(ctx, u.ID, *in.NewAvatar)
		if err != nil {
			return nil, fmt.Errorf("store avatar: %w", err)
		}
		u.Avatar = avatar
	}
	if u.Username == oldName && u.Avatar == oldAvatar {
		return sanitized(u), nil
	}

	job := domain.Propagation{
		UserID:      u.ID,
		OldUsername: oldName,
		NewUsername: u.Username,
		NewAvatar:   u.Avatar,
		CreatedAt:   s.now(),
	}
	err = s.store.Atomic(ctx, func(tx domain.Store) error {
		if err := tx.Users().Save(ctx, u); err != nil {
			return err
		}
		return tx.Propagations().Enqueue(ctx, &job)
	})
	if err != nil {
		return nil, err
	}

	// the rewrite outlives a disconnecting client
	_ = s.prop.Run(context.WithoutCancel(ctx), job)
	return sanitized(u), nil
}

// GetByUsername applies lazy premium expiry and persists the correction.
func (s *AccountService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return s.expire(ctx, u), nil
}

func (s *AccountService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return s.expire(ctx, u), nil
}

func (s *AccountService) expire(ctx context.Context, u *domain.User) *domain.User {
	if u.ExpirePremium(s.now()) {
		if err := s.store.Users().Save(ctx, u); err != nil {
			s.log.Warn("persist premium expiry", zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	return sanitized(u)
}

// SessionState reads the flags a session is authorized by. An unknown
// user yields the zero state.
func (s *AccountService) SessionState(ctx context.Context, id string) (domain.SessionState, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil || u == nil {
		return domain.SessionState{}, err
	}
	return domain.SessionState{
		Exists:  true,
		IsAdmin: u.IsAdmin,
		Banned:  u.IsBanned && !s.boot.Owns(u.Username),
	}, nil
}

// IsAdmin reports the stored admin flag; an unknown user is not an admin.
func (s *AccountService) IsAdmin(ctx context.Context, id string) (bool, error) {
	st, err := s.SessionState(ctx, id)
	return st.IsAdmin, err
}

func (s *AccountService) UpgradeByID(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.BadRequest("userId is required")
	}
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.upgrade(ctx, u)
}

func (s *AccountService) UpgradeByUsername(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, domain.BadRequest("username is required")
	}
	u, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.upgrade(ctx, u)
}

// upgrade starts a fresh premium window; remaining time is not carried over.
func (s *AccountService) upgrade(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	u.GrantPremium(s.now(), s.premiumDays)
	if err := s.store.Users().Save(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("premium granted", zap.String("user_id", u.ID), zap.Timep("expires_at", u.PremiumExpiresAt))
	return sanitized(u), nil
}
