package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	connectTimeout = 5 * time.Second
	// used when the connection string names no database
	DefaultMongoDatabase = "users"
)

func NewPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)

	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 5

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)

	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)

	if err != nil {
		return nil, err
	}

	err = pool.Ping(ctx)

	if err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// NewMongoClient connects and pings the primary. The returned database name
// comes from the URI path, falling back to DefaultMongoDatabase.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, string, error) {
	cs, err := connstring.ParseAndValidate(uri)

	if err != nil {
		return nil, "", fmt.Errorf("parse mongo uri: %w", err)
	}

	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)

	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)

	if err != nil {
		return nil, "", err
	}

	err = client.Ping(ctx, readpref.Primary())

	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, "", err
	}

	return client, dbName, nil
}
