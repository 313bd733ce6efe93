package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/feature/comment"
	"mangazone-api/pkg/utils"
)

type PropagationRepo struct{ db *gorm.DB }

func NewPropagationRepo(db *gorm.DB) *PropagationRepo { return &PropagationRepo{db: db} }

func (r *PropagationRepo) Enqueue(ctx context.Context, p *domain.Propagation) error {
	if p.ID == "" {
		p.ID = utils.NewID()
	}
	p.Status = domain.PropagationPending
	m := comment.PropagationModel{
		ID:          p.ID,
		UserID:      p.UserID,
		OldUsername: p.OldUsername,
		NewUsername: p.NewUsername,
		NewAvatar:   p.NewAvatar,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("enqueue propagation: %w", err)
	}
	p.CreatedAt = m.CreatedAt
	return nil
}

func (r *PropagationRepo) Complete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&comment.PropagationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(domain.PropagationDone), "last_error": ""}).Error
	if err != nil {
		return fmt.Errorf("complete propagation: %w", err)
	}
	return nil
}

func (r *PropagationRepo) Fail(ctx context.Context, id string, reason string) error {
	err := r.db.WithContext(ctx).Model(&comment.PropagationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
	if err != nil {
		return fmt.Errorf("fail propagation: %w", err)
	}
	return nil
}

func (r *PropagationRepo) Pending(ctx context.Context) ([]domain.Propagation, error) {
	var ms []comment.PropagationModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.PropagationPending)).
		Order("created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("pending propagations: %w", err)
	}
	out := make([]domain.Propagation, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToDomain())
	}
	return out, nil
}
