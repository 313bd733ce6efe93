package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/feature/comment"
	"mangazone-api/pkg/utils"
)

type CommentRepo struct{ db *gorm.DB }

func NewCommentRepo(db *gorm.DB) *CommentRepo { return &CommentRepo{db: db} }

func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	m := comment.FromDomain(c)
	if m.ID == "" {
		m.ID = utils.NewID()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	c.ID = m.ID
	c.CreatedAt = m.CreatedAt
	return nil
}

func (r *CommentRepo) ListByManga(ctx context.Context, mangaID string, limit int) ([]domain.Comment, error) {
	var ms []comment.CommentModel
	err := r.db.WithContext(ctx).
		Where("manga_id = ?", mangaID).
		Order("created_at DESC").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	out := make([]domain.Comment, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToDomain())
	}
	return out, nil
}

// byAuthor matches comments recorded under ref.UserID, plus unattributed
// comments posted under ref.LegacyUsername.
func byAuthor(db *gorm.DB, ref domain.AuthorRef) *gorm.DB {
	q := db.Model(&comment.CommentModel{})
	legacy := "(author_id = '' OR author_id IS NULL) AND username = ?"
	switch {
	case ref.UserID != "" && ref.LegacyUsername != "":
		return q.Where("author_id = ? OR ("+legacy+")", ref.UserID, ref.LegacyUsername)
	case ref.UserID != "":
		return q.Where("author_id = ?", ref.UserID)
	default:
		return q.Where(legacy, ref.LegacyUsername)
	}
}

func (r *CommentRepo) MangaIDsByAuthor(ctx context.Context, ref domain.AuthorRef) ([]string, error) {
	var ids []string
	if err := byAuthor(r.db.WithContext(ctx), ref).Distinct().Pluck("manga_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("comment mangas: %w", err)
	}
	return ids, nil
}

func (r *CommentRepo) RewriteAuthor(ctx context.Context, ref domain.AuthorRef, username, avatar string) (int64, error) {
	set := map[string]any{"username": username, "avatar": avatar}
	if ref.UserID != "" {
		set["author_id"] = ref.UserID
	}
	res := byAuthor(r.db.WithContext(ctx), ref).Updates(set)
	if res.Error != nil {
		return 0, fmt.Errorf("rewrite comments: %w", res.Error)
	}
	return res.RowsAffected, nil
}
