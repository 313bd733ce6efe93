package comment

import (
	"time"

	"mangazone-api/internal/domain"
)

type CommentModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	MangaID   string `gorm:"size:191;not null;index:idx_comments_manga_created,priority:1"`
	AuthorID  string `gorm:"size:36;index"`
	Username  string `gorm:"size:191;not null;index"`
	Avatar    string
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_comments_manga_created,priority:2"`
}

func (CommentModel) TableName() string { return "comments" }

func FromDomain(c *domain.Comment) *CommentModel {
	return &CommentModel{
		ID:        c.ID,
		MangaID:   c.MangaID,
		AuthorID:  c.AuthorID,
		Username:  c.Username,
		Avatar:    c.Avatar,
		Message:   c.Message,
		CreatedAt: c.CreatedAt,
	}
}

func (m *CommentModel) ToDomain() domain.Comment {
	return domain.Comment{
		ID:        m.ID,
		MangaID:   m.MangaID,
		AuthorID:  m.AuthorID,
		Username:  m.Username,
		Avatar:    m.Avatar,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}

type PropagationModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      string `gorm:"size:36;not null;index"`
	OldUsername string `gorm:"size:191;not null"`
	NewUsername string `gorm:"size:191;not null"`
	NewAvatar   string
	Status      string `gorm:"size:16;not null;index"`
	Attempts    int
	LastError   string
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (PropagationModel) TableName() string { return "comment_propagations" }

func (m *PropagationModel) ToDomain() domain.Propagation {
	return domain.Propagation{
		ID:          m.ID,
		UserID:      m.UserID,
		OldUsername: m.OldUsername,
		NewUsername: m.NewUsername,
		NewAvatar:   m.NewAvatar,
		Status:      domain.PropagationStatus(m.Status),
		Attempts:    m.Attempts,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
	}
}
