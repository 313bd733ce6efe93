package user

import (
	"time"

	"mangazone-api/internal/domain"
)

type UserModel struct {
	ID               string `gorm:"primaryKey;size:36"`
	Username         string `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash     string `gorm:"size:100;not null"`
	Avatar           string
	IsPremium        bool
	PremiumExpiresAt *time.Time
	IsAdmin          bool
	IsBanned         bool
	LastActive       time.Time `gorm:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Favorites []FavoriteModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	History   []HistoryModel  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (UserModel) TableName() string { return "users" }

// FavoriteModel rows are ordered by ID: a higher ID is a more recent add.
type FavoriteModel struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	UserID  string `gorm:"size:36;not null;uniqueIndex:uq_favorites_user_manga"`
	MangaID string `gorm:"size:191;not null;uniqueIndex:uq_favorites_user_manga"`
	Title   string
	Image   string
	Score   float64
}

func (FavoriteModel) TableName() string { return "favorites" }

// HistoryModel rows are re-inserted on every read, so ID order is read order.
type HistoryModel struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	UserID        string `gorm:"size:36;not null;uniqueIndex:uq_history_user_manga"`
	MangaID       string `gorm:"size:191;not null;uniqueIndex:uq_history_user_manga"`
	Title         string
	Image         string
	ChapterNumber float64
	ChapterID     string `gorm:"size:191"`
	LastRead      time.Time
}

func (HistoryModel) TableName() string { return "history" }

func FromDomain(u *domain.User) *UserModel {
	return &UserModel{
		ID:               u.ID,
		Username:         u.Username,
		PasswordHash:     u.PasswordHash,
		Avatar:           u.Avatar,
		IsPremium:        u.IsPremium,
		PremiumExpiresAt: u.PremiumExpiresAt,
		IsAdmin:          u.IsAdmin,
		IsBanned:         u.IsBanned,
		LastActive:       u.LastActive,
		CreatedAt:        u.CreatedAt,
	}
}

func (m *UserModel) ToDomain() domain.User {
	u := domain.User{
		ID:               m.ID,
		Username:         m.Username,
		PasswordHash:     m.PasswordHash,
		Avatar:           m.Avatar,
		IsPremium:        m.IsPremium,
		PremiumExpiresAt: m.PremiumExpiresAt,
		IsAdmin:          m.IsAdmin,
		IsBanned:         m.IsBanned,
		LastActive:       m.LastActive,
		CreatedAt:        m.CreatedAt,
		Favorites:        FavoritesToDomain(m.Favorites),
		History:          HistoryToDomain(m.History),
	}
	return u
}

func FavoritesToDomain(rows []FavoriteModel) []domain.FavoriteEntry {
	out := make([]domain.FavoriteEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.FavoriteEntry{MangaID: r.MangaID, Title: r.Title, Image: r.Image, Score: r.Score})
	}
	return out
}

func HistoryToDomain(rows []HistoryModel) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.HistoryEntry{
			MangaID:       r.MangaID,
			Title:         r.Title,
			Image:         r.Image,
			ChapterNumber: r.ChapterNumber,
			ChapterID:     r.ChapterID,
			LastRead:      r.LastRead,
		})
	}
	return out
}
