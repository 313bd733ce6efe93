package service

import (
	"context"

	"go.uber.org/zap"

	"mangazone-api/internal/domain"
)

type AdminService struct {
	store       domain.Store
	premiumDays int
	log         *zap.Logger
	now         clock
}

func NewAdminService(store domain.Store, premiumDays int, log *zap.Logger) *AdminService {
	if premiumDays <= 0 {
		premiumDays = domain.DefaultPremiumDays
	}
	return &AdminService{store: store, premiumDays: premiumDays, log: log, now: systemClock}
}

// Roster lists every user, most recently active first.
func (s *AdminService) Roster(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

// Manage applies action to the target and returns the refreshed roster.
// Deleting an unknown id succeeds; the user's comments are kept.
func (s *AdminService) Manage(ctx context.Context, targetID string, action domain.AdminAction) ([]domain.User, error) {
	if targetID == "" || action == "" {
		return nil, domain.BadRequest("targetId and action are required")
	}
	if !action.Valid() {
		return nil, domain.BadRequest("unknown action")
	}

	if action == domain.ActionDelete {
		if err := s.store.Users().Delete(ctx, targetID); err != nil {
			return nil, err
		}
	} else {
		u, err := s.store.Users().FindByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, domain.NotFound("user not found")
		}
		switch action {
		case domain.ActionToggleVIP:
			if u.IsPremium {
				u.RevokePremium()
			} else {
				u.GrantPremium(s.now(), s.premiumDays)
			}
		case domain.ActionToggleBan:
			u.IsBanned = !u.IsBanned
		}
		if err := s.store.Users().Save(ctx, u); err != nil {
			return nil, err
		}
	}
	s.log.Info("admin action", zap.String("target_id", targetID), zap.String("action", string(action)))
	return s.Roster(ctx)
}
