package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mangazone-api/internal/domain"
)

// Document is the users collection layout; favorites and history are
// embedded arrays kept newest first.
type Document struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Username         string             `bson:"username"`
	Password         string             `bson:"password"`
	Avatar           string             `bson:"avatar"`
	IsPremium        bool               `bson:"isPremium"`
	PremiumExpiresAt *time.Time         `bson:"premiumExpiresAt"`
	IsAdmin          bool               `bson:"isAdmin"`
	IsBanned         bool               `bson:"isBanned"`
	LastActive       time.Time          `bson:"lastActive"`
	CreatedAt        time.Time          `bson:"createdAt"`
	Favorites        []FavoriteDocument `bson:"favorites"`
	History          []HistoryDocument  `bson:"history"`
}

type FavoriteDocument struct {
	MangaID string  `bson:"mangaId"`
	Title   string  `bson:"title"`
	Image   string  `bson:"image"`
	Score   float64 `bson:"score"`
}

type HistoryDocument struct {
	MangaID   string    `bson:"mangaId"`
	Title     string    `bson:"title"`
	Image     string    `bson:"image"`
	ChapterCh float64   `bson:"chapterCh"`
	ChapterID string    `bson:"chapterId"`
	LastRead  time.Time `bson:"lastRead"`
}

func NewFavoriteDocument(e domain.FavoriteEntry) FavoriteDocument {
	return FavoriteDocument{MangaID: e.MangaID, Title: e.Title, Image: e.Image, Score: e.Score}
}

func NewHistoryDocument(e domain.HistoryEntry) HistoryDocument {
	return HistoryDocument{
		MangaID:   e.MangaID,
		Title:     e.Title,
		Image:     e.Image,
		ChapterCh: e.ChapterNumber,
		ChapterID: e.ChapterID,
		LastRead:  e.LastRead,
	}
}

func (d *Document) ToDomain() domain.User {
	return domain.User{
		ID:               d.ID.Hex(),
		Username:         d.Username,
		PasswordHash:     d.Password,
		Avatar:           d.Avatar,
		IsPremium:        d.IsPremium,
		PremiumExpiresAt: d.PremiumExpiresAt,
		IsAdmin:          d.IsAdmin,
		IsBanned:         d.IsBanned,
		LastActive:       d.LastActive,
		CreatedAt:        d.CreatedAt,
		Favorites:        FavoriteDocsToDomain(d.Favorites),
		History:          HistoryDocsToDomain(d.History),
	}
}

func FavoriteDocsToDomain(docs []FavoriteDocument) []domain.FavoriteEntry {
	out := make([]domain.FavoriteEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.FavoriteEntry{MangaID: d.MangaID, Title: d.Title, Image: d.Image, Score: d.Score})
	}
	return out
}

func HistoryDocsToDomain(docs []HistoryDocument) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.HistoryEntry{
			MangaID:       d.MangaID,
			Title:         d.Title,
			Image:         d.Image,
			ChapterNumber: d.ChapterCh,
			ChapterID:     d.ChapterID,
			LastRead:      d.LastRead,
		})
	}
	return out
}
