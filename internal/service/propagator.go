package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mangazone-api/internal/domain"
)

// Propagator copies a user's current username and avatar onto their
// comments. Work items are the pending propagation records written
// alongside the profile change, so an interrupted rewrite can be replayed.
type Propagator struct {
	store domain.Store
	cache CommentCache
	log   *zap.Logger
}

func NewPropagator(store domain.Store, c CommentCache, log *zap.Logger) *Propagator {
	if c == nil {
		c = NoCache{}
	}
	return &Propagator{store: store, cache: c, log: log}
}

type Report struct {
	Retried int `json:"retried"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// Run rewrites the comments for job and marks it done. The identity
// written is re-read from the user, so replaying an old job after later
// renames still lands on the latest name.
func (p *Propagator) Run(ctx context.Context, job domain.Propagation) error {
	if err := p.rewrite(ctx, job); err != nil {
		p.log.Error("comment propagation failed",
			zap.String("propagation_id", job.ID),
			zap.String("user_id", job.UserID),
			zap.Error(err))
		if ferr := p.store.Propagations().Fail(ctx, job.ID, err.Error()); ferr != nil {
			p.log.Error("record propagation failure", zap.String("propagation_id", job.ID), zap.Error(ferr))
		}
		return err
	}
	return nil
}

func (p *Propagator) rewrite(ctx context.Context, job domain.Propagation) error {
	u, err := p.store.Users().FindByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("load author: %w", err)
	}
	if u == nil {
		// deleted users keep their comments as they are
		p.log.Info("propagation author gone", zap.String("user_id", job.UserID))
		return p.store.Propagations().Complete(ctx, job.ID)
	}

	ref := domain.AuthorRef{UserID: u.ID, LegacyUsername: job.OldUsername}
	mangas, err := p.store.Comments().MangaIDsByAuthor(ctx, ref)
	if err != nil {
		return err
	}
	n, err := p.store.Comments().RewriteAuthor(ctx, ref, u.Username, u.Avatar)
	if err != nil {
		return err
	}
	if err := p.store.Propagations().Complete(ctx, job.ID); err != nil {
		return err
	}
	if len(mangas) > 0 {
		if err := p.cache.Invalidate(ctx, mangas...); err != nil {
			p.log.Warn("invalidate comments cache", zap.Error(err))
		}
	}
	p.log.Info("comments propagated",
		zap.String("user_id", u.ID),
		zap.String("username", u.Username),
		zap.Int64("comments", n))
	return nil
}

// RetryPending replays every pending job, oldest first.
func (p *Propagator) RetryPending(ctx context.Context) (Report, error) {
	jobs, err := p.store.Propagations().Pending(ctx)
	if err != nil {
		return Report{}, err
	}
	var r Report
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		r.Retried++
		if err := p.Run(ctx, job); err != nil {
			r.Failed++
		}
	}
	r.Pending = len(jobs) - r.Retried + r.Failed
	return r, ctx.Err()
}

func (p *Propagator) Pending(ctx context.Context) ([]domain.Propagation, error) {
	return p.store.Propagations().Pending(ctx)
}
