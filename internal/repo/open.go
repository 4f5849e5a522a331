// Package repo selects and opens the users store named by a connection
// string.
package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/geocoder89/usersapi/internal/db"
	"github.com/geocoder89/usersapi/internal/observability"
	"github.com/geocoder89/usersapi/internal/repo/memory"
	"github.com/geocoder89/usersapi/internal/repo/mongodb"
	"github.com/geocoder89/usersapi/internal/repo/postgres"
	"github.com/geocoder89/usersapi/internal/users"
)

var ErrUnsupportedScheme = errors.New("unsupported store scheme")

// Open connects to the backend selected by the URI scheme and prepares its
// unique email index. It does not retry.
func Open(ctx context.Context, uri string, prom *observability.Prom, log *slog.Logger) (users.Store, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse store uri: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)

	switch scheme {
	case "mongodb", "mongodb+srv":
		client, dbName, err := db.NewMongoClient(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}

		store := mongodb.NewUsersRepo(client, dbName, prom)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(context.Background())
			return nil, err
		}

		log.Info("store connected", "backend", "mongodb", "database", dbName, "host", u.Host)
		return store, nil

	case "postgres", "postgresql":
		pool, err := db.NewPool(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		store := postgres.NewUsersRepo(pool, prom)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close(context.Background())
			return nil, err
		}

		log.Info("store connected", "backend", "postgres", "host", u.Host)
		return store, nil

	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		return memory.NewUsersRepo(), nil

	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
}
