package repo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"mangazone-api/internal/domain"
)

const (
	usersCollection        = "users"
	commentsCollection     = "comments"
	propagationsCollection = "comment_propagations"
)

// MongoStore keeps the collection layout of the original Node service, so
// it can run against an existing database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, db: db}
}

func (s *MongoStore) Users() domain.UserRepository { return NewMongoUserRepo(s.db) }

func (s *MongoStore) Comments() domain.CommentRepository { return NewMongoCommentRepo(s.db) }

func (s *MongoStore) Propagations() domain.PropagationRepository {
	return NewMongoPropagationRepo(s.db)
}

// Atomic runs fn directly: standalone deployments have no multi-document
// transactions, and the pending propagation record covers a partial write.
func (s *MongoStore) Atomic(_ context.Context, fn func(domain.Store) error) error {
	return fn(s)
}

// Migrate creates the indexes; default names match the ones Mongoose
// created, so running it against an existing database is a no-op.
func (s *MongoStore) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "lastActive", Value: -1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "mangaId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "authorId", Value: 1}}},
			{Keys: bson.D{{Key: "username", Value: 1}}},
		},
		propagationsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ domain.Store = (*MongoStore)(nil)
