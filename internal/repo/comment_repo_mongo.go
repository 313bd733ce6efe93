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

type MongoCommentRepo struct{ col *mongo.Collection }

func NewMongoCommentRepo(db *mongo.Database) *MongoCommentRepo {
	return &MongoCommentRepo{col: db.Collection(commentsCollection)}
}

func (r *MongoCommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	doc := comment.Document{
		ID:        primitive.NewObjectID(),
		MangaID:   c.MangaID,
		AuthorID:  c.AuthorID,
		Username:  c.Username,
		Avatar:    c.Avatar,
		Message:   c.Message,
		CreatedAt: c.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	c.ID = doc.ID.Hex()
	return nil
}

func (r *MongoCommentRepo) ListByManga(ctx context.Context, mangaID string, limit int) ([]domain.Comment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{"mangaId": mangaID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer cur.Close(ctx)

	var docs []comment.Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	out := make([]domain.Comment, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].ToDomain())
	}
	return out, nil
}

func authorFilter(ref domain.AuthorRef) bson.M {
	legacy := bson.M{
		"authorId": bson.M{"$in": bson.A{nil, ""}},
		"username": ref.LegacyUsername,
	}
	switch {
	case ref.UserID != "" && ref.LegacyUsername != "":
		return bson.M{"$or": bson.A{bson.M{"authorId": ref.UserID}, legacy}}
	case ref.UserID != "":
		return bson.M{"authorId": ref.UserID}
	default:
		return legacy
	}
}

func (r *MongoCommentRepo) MangaIDsByAuthor(ctx context.Context, ref domain.AuthorRef) ([]string, error) {
	vals, err := r.col.Distinct(ctx, "mangaId", authorFilter(ref))
	if err != nil {
		return nil, fmt.Errorf("comment mangas: %w", err)
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MongoCommentRepo) RewriteAuthor(ctx context.Context, ref domain.AuthorRef, username, avatar string) (int64, error) {
	set := bson.M{"username": username, "avatar": avatar}
	if ref.UserID != "" {
		set["authorId"] = ref.UserID
	}
	res, err := r.col.UpdateMany(ctx, authorFilter(ref), bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("rewrite comments: %w", err)
	}
	return res.MatchedCount, nil
}
