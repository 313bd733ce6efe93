package domain

import (
	"context"
	"time"
)

// UserRepository finders return (nil, nil) when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	// Save writes the scalar fields of u; favorites and history are
	// only changed through the list operations below.
	Save(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
	// List returns every user ordered by lastActive, newest first.
	List(ctx context.Context) ([]User, error)

	// List operations fail with ErrNotFound when the user is absent.
	AddFavorite(ctx context.Context, userID string, e FavoriteEntry, limit int) ([]FavoriteEntry, error)
	RemoveFavorite(ctx context.Context, userID, mangaID string) ([]FavoriteEntry, error)
	PushHistory(ctx context.Context, userID string, e HistoryEntry, limit int, activeAt time.Time) ([]HistoryEntry, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	// ListByManga returns the newest comments first.
	ListByManga(ctx context.Context, mangaID string, limit int) ([]Comment, error)
	MangaIDsByAuthor(ctx context.Context, ref AuthorRef) ([]string, error)
	// RewriteAuthor stamps the identity onto every comment matching ref
	// and records ref.UserID as their author.
	RewriteAuthor(ctx context.Context, ref AuthorRef, username, avatar string) (int64, error)
}

type PropagationRepository interface {
	Enqueue(ctx context.Context, p *Propagation) error
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id string, reason string) error
	// Pending returns unconfirmed propagations, oldest first.
	Pending(ctx context.Context) ([]Propagation, error)
}

// Store is the document store behind every service.
type Store interface {
	Users() UserRepository
	Comments() CommentRepository
	Propagations() PropagationRepository
	// Atomic runs fn against a store whose writes commit together when
	// the backend supports transactions, and sequentially otherwise.
	Atomic(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}
