package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/feature/comment"
)

type MongoPropagationRepo struct{ col *mongo.Collection }

func NewMongoPropagationRepo(db *mongo.Database) *MongoPropagationRepo {
	return &MongoPropagationRepo{col: db.Collection(propagationsCollection)}
}

func (r *MongoPropagationRepo) Enqueue(ctx context.Context, p *domain.Propagation) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Status = domain.PropagationPending
	doc := comment.PropagationDocument{
		ID:          primitive.NewObjectID(),
		UserID:      p.UserID,
		OldUsername: p.OldUsername,
		NewUsername: p.NewUsername,
		NewAvatar:   p.NewAvatar,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("enqueue propagation: %w", err)
	}
	p.ID = doc.ID.Hex()
	return nil
}

func (r *MongoPropagationRepo) update(ctx context.Context, id string, update bson.M) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.NotFound("propagation not found")
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *MongoPropagationRepo) Complete(ctx context.Context, id string) error {
	err := r.update(ctx, id, bson.M{"$set": bson.M{"status": string(domain.PropagationDone), "lastError": ""}})
	if err != nil {
		return fmt.Errorf("complete propagation: %w", err)
	}
	return nil
}

func (r *MongoPropagationRepo) Fail(ctx context.Context, id string, reason string) error {
	err := r.update(ctx, id, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"lastError": reason},
	})
	if err != nil {
		return fmt.Errorf("fail propagation: %w", err)
	}
	return nil
}

func (r *MongoPropagationRepo) Pending(ctx context.Context) ([]domain.Propagation, error) {
	cur, err := r.col.Find(ctx,
		bson.M{"status": string(domain.PropagationPending)},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("pending propagations: %w", err)
	}
	defer cur.Close(ctx)

	var docs []comment.PropagationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode propagations: %w", err)
	}
	out := make([]domain.Propagation, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].ToDomain())
	}
	return out, nil
}
