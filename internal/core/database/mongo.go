package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoOpts struct {
	URI         string
	Name        string // used when the URI carries no database path
	MaxPoolSize uint64
}

// NewMongo connects and pings; the client is closed again if the ping fails.
func NewMongo(ctx context.Context, o MongoOpts) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(o.URI).
		SetServerSelectionTimeout(5 * time.Second).
		SetSocketTimeout(45 * time.Second)
	if o.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(o.MaxPoolSize)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(MongoDatabaseName(o.URI, o.Name)), nil
}

// MongoDatabaseName prefers the database named in the URI path.
func MongoDatabaseName(uri, fallback string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	if fallback == "" {
		return "mangazone"
	}
	return fallback
}
