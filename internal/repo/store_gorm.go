package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/feature/comment"
	"mangazone-api/internal/feature/user"
)

// GormStore backs the services with a SQL database. Favorites and history
// live in child tables keyed by (user_id, manga_id).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Users() domain.UserRepository { return NewUserRepo(s.db) }

func (s *GormStore) Comments() domain.CommentRepository { return NewCommentRepo(s.db) }

func (s *GormStore) Propagations() domain.PropagationRepository { return NewPropagationRepo(s.db) }

func (s *GormStore) Atomic(ctx context.Context, fn func(domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&user.UserModel{},
		&user.FavoriteModel{},
		&user.HistoryModel{},
		&comment.CommentModel{},
		&comment.PropagationModel{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ domain.Store = (*GormStore)(nil)
