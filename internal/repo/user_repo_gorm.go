package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/feature/user"
	"mangazone-api/pkg/utils"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func newestFirst(db *gorm.DB) *gorm.DB { return db.Order("id DESC") }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	if m.ID == "" {
		m.ID = utils.NewID()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		if isDupKey(err) {
			return domain.Conflict("username already exists")
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	return nil
}

func (r *UserRepo) find(ctx context.Context, query string, arg any) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).
		Preload("Favorites", newestFirst).
		Preload("History", newestFirst).
		Where(query, arg).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u := m.ToDomain()
	return &u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.find(ctx, "username = ?", username)
}

func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Model(&user.UserModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"username":           u.Username,
		"password_hash":      u.PasswordHash,
		"avatar":             u.Avatar,
		"is_premium":         u.IsPremium,
		"premium_expires_at": u.PremiumExpiresAt,
		"is_admin":           u.IsAdmin,
		"is_banned":          u.IsBanned,
		"last_active":        u.LastActive,
	}).Error
	if isDupKey(err) {
		return domain.Conflict("username already taken")
	}
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&user.FavoriteModel{}).Error; err != nil {
			return fmt.Errorf("delete favorites: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&user.HistoryModel{}).Error; err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&user.UserModel{}).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var ms []user.UserModel
	err := r.db.WithContext(ctx).
		Preload("Favorites", newestFirst).
		Preload("History", newestFirst).
		Order("last_active DESC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]domain.User, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToDomain())
	}
	return out, nil
}

// --- favorites / history ---

func mustExist(tx *gorm.DB, userID string) error {
	var n int64
	if err := tx.Model(&user.UserModel{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if n == 0 {
		return domain.NotFound("user not found")
	}
	return nil
}

// trimTo keeps the newest limit rows of model for the user.
func trimTo(tx *gorm.DB, model any, userID string, limit int) error {
	var ids []uint64
	if err := tx.Model(model).Where("user_id = ?", userID).Order("id DESC").Pluck("id", &ids).Error; err != nil {
		return err
	}
	if limit <= 0 || len(ids) <= limit {
		return nil
	}
	return tx.Where("id IN ?", ids[limit:]).Delete(model).Error
}

func favoritesOf(tx *gorm.DB, userID string) ([]domain.FavoriteEntry, error) {
	var rows []user.FavoriteModel
	if err := newestFirst(tx.Where("user_id = ?", userID)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	return user.FavoritesToDomain(rows), nil
}

func historyOf(tx *gorm.DB, userID string) ([]domain.HistoryEntry, error) {
	var rows []user.HistoryModel
	if err := newestFirst(tx.Where("user_id = ?", userID)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return user.HistoryToDomain(rows), nil
}

// AddFavorite inserts against the (user_id, manga_id) unique key, so a
// duplicate add is a no-op even when two requests race.
func (r *UserRepo) AddFavorite(ctx context.Context, userID string, e domain.FavoriteEntry, limit int) ([]domain.FavoriteEntry, error) {
	var out []domain.FavoriteEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, userID); err != nil {
			return err
		}
		row := user.FavoriteModel{UserID: userID, MangaID: e.MangaID, Title: e.Title, Image: e.Image, Score: e.Score}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "manga_id"}},
			DoNothing: true,
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("insert favorite: %w", err)
		}
		if err := trimTo(tx, &user.FavoriteModel{}, userID, limit); err != nil {
			return fmt.Errorf("trim favorites: %w", err)
		}
		out, err = favoritesOf(tx, userID)
		return err
	})
	return out, err
}

func (r *UserRepo) RemoveFavorite(ctx context.Context, userID, mangaID string) ([]domain.FavoriteEntry, error) {
	var out []domain.FavoriteEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, userID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND manga_id = ?", userID, mangaID).Delete(&user.FavoriteModel{}).Error; err != nil {
			return fmt.Errorf("delete favorite: %w", err)
		}
		var err error
		out, err = favoritesOf(tx, userID)
		return err
	})
	return out, err
}

// PushHistory moves the manga to the front of the user's history.
func (r *UserRepo) PushHistory(ctx context.Context, userID string, e domain.HistoryEntry, limit int, activeAt time.Time) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, userID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND manga_id = ?", userID, e.MangaID).Delete(&user.HistoryModel{}).Error; err != nil {
			return fmt.Errorf("delete history entry: %w", err)
		}
		row := user.HistoryModel{
			UserID:        userID,
			MangaID:       e.MangaID,
			Title:         e.Title,
			Image:         e.Image,
			ChapterNumber: e.ChapterNumber,
			ChapterID:     e.ChapterID,
			LastRead:      e.LastRead,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}
		if err := trimTo(tx, &user.HistoryModel{}, userID, limit); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		if err := tx.Model(&user.UserModel{}).Where("id = ?", userID).Update("last_active", activeAt).Error; err != nil {
			return fmt.Errorf("touch user: %w", err)
		}
		var err error
		out, err = historyOf(tx, userID)
		return err
	})
	return out, err
}
