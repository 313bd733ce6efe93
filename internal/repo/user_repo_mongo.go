package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mangazone-api/internal/domain"
	"mangazone-api/internal/feature/user"
)

type MongoUserRepo struct{ col *mongo.Collection }

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{col: db.Collection(usersCollection)}
}

// objectID reports false for ids that cannot name a document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func (r *MongoUserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	doc := user.Document{
		ID:               primitive.NewObjectID(),
		Username:         u.Username,
		Password:         u.PasswordHash,
		Avatar:           u.Avatar,
		IsPremium:        u.IsPremium,
		PremiumExpiresAt: u.PremiumExpiresAt,
		IsAdmin:          u.IsAdmin,
		IsBanned:         u.IsBanned,
		LastActive:       u.LastActive,
		CreatedAt:        u.CreatedAt,
		Favorites:        []user.FavoriteDocument{},
		History:          []user.HistoryDocument{},
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict("username already exists")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*user.Document, error) {
	var doc user.Document
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &doc, nil
}

func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	doc, err := r.findOne(ctx, bson.M{"_id": oid})
	if err != nil || doc == nil {
		return nil, err
	}
	u := doc.ToDomain()
	return &u, nil
}

func (r *MongoUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	doc, err := r.findOne(ctx, bson.M{"username": username})
	if err != nil || doc == nil {
		return nil, err
	}
	u := doc.ToDomain()
	return &u, nil
}

func (r *MongoUserRepo) Save(ctx context.Context, u *domain.User) error {
	oid, ok := objectID(u.ID)
	if !ok {
		return domain.NotFound("user not found")
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"username":         u.Username,
		"password":         u.PasswordHash,
		"avatar":           u.Avatar,
		"isPremium":        u.IsPremium,
		"premiumExpiresAt": u.PremiumExpiresAt,
		"isAdmin":          u.IsAdmin,
		"isBanned":         u.IsBanned,
		"lastActive":       u.LastActive,
	}})
	if mongo.IsDuplicateKeyError(err) {
		return domain.Conflict("username already taken")
	}
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return nil
	}
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) List(ctx context.Context) ([]domain.User, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "lastActive", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []user.Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].ToDomain())
	}
	return out, nil
}

// reload fetches the user after a list update; a missing user is NotFound.
func (r *MongoUserRepo) reload(ctx context.Context, oid primitive.ObjectID) (*user.Document, error) {
	doc, err := r.findOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.NotFound("user not found")
	}
	return doc, nil
}

// AddFavorite pushes only when no entry for the manga exists, so racing
// duplicate adds leave a single entry.
func (r *MongoUserRepo) AddFavorite(ctx context.Context, userID string, e domain.FavoriteEntry, limit int) ([]domain.FavoriteEntry, error) {
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	filter := bson.M{"_id": oid, "favorites.mangaId": bson.M{"$ne": e.MangaID}}
	update := bson.M{"$push": bson.M{"favorites": bson.M{
		"$each":     bson.A{user.NewFavoriteDocument(e)},
		"$position": 0,
		"$slice":    limit,
	}}}
	if _, err := r.col.UpdateOne(ctx, filter, update); err != nil {
		return nil, fmt.Errorf("push favorite: %w", err)
	}
	doc, err := r.reload(ctx, oid)
	if err != nil {
		return nil, err
	}
	return user.FavoriteDocsToDomain(doc.Favorites), nil
}

func (r *MongoUserRepo) RemoveFavorite(ctx context.Context, userID, mangaID string) ([]domain.FavoriteEntry, error) {
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	var doc user.Document
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"favorites": bson.M{"mangaId": mangaID}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("pull favorite: %w", err)
	}
	return user.FavoriteDocsToDomain(doc.Favorites), nil
}

// historyAttempts bounds the pull/push retries of PushHistory.
const historyAttempts = 5

// historyPushFilter matches the user only while mangaID is absent from the
// history, so a push never duplicates an entry.
func historyPushFilter(oid primitive.ObjectID, mangaID string) bson.M {
	return bson.M{"_id": oid, "history.mangaId": bson.M{"$ne": mangaID}}
}

// PushHistory is two updates: the pull and the capped push cannot target
// the same array path in one Mongo update. The push is guarded, and when a
// concurrent writer re-adds the manga in between, the pair is retried.
func (r *MongoUserRepo) PushHistory(ctx context.Context, userID string, e domain.HistoryEntry, limit int, activeAt time.Time) ([]domain.HistoryEntry, error) {
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	for attempt := 1; ; attempt++ {
		res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
			"$pull": bson.M{"history": bson.M{"mangaId": e.MangaID}},
			"$set":  bson.M{"lastActive": activeAt},
		})
		if err != nil {
			return nil, fmt.Errorf("pull history: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.NotFound("user not found")
		}

		var doc user.Document
		err = r.col.FindOneAndUpdate(ctx,
			historyPushFilter(oid, e.MangaID),
			bson.M{"$push": bson.M{"history": bson.M{
				"$each":     bson.A{user.NewHistoryDocument(e)},
				"$position": 0,
				"$slice":    limit,
			}}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
		if err == nil {
			return user.HistoryDocsToDomain(doc.History), nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("push history: %w", err)
		}
		// deleted, or the manga came back; the next pull tells which
		if attempt == historyAttempts {
			return nil, fmt.Errorf("push history: manga %s re-added %d times concurrently", e.MangaID, attempt)
		}
	}
}
