// Package service holds the account, library, comment and moderation use
// cases. Services depend on domain.Store only; HTTP and session concerns
// stay in the transport layer.
package service

import (
	"time"

	"mangazone-api/internal/domain"
)

type clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func sanitized(u *domain.User) *domain.User {
	s := u.Sanitized()
	return &s
}

func sanitizeAll(users []domain.User) []domain.User {
	for i := range users {
		users[i] = users[i].Sanitized()
	}
	return users
}
