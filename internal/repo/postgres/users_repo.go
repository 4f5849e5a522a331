package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/geocoder89/usersapi/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const usersTableDDL = `
CREATE TABLE IF NOT EXISTS users (
	id             UUID PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL,
	age            INTEGER NULL,
	favorite_foods TEXT[] NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT users_email_unique UNIQUE (email),
	CONSTRAINT users_age_range CHECK (age IS NULL OR age BETWEEN 0 AND 120)
)`

const userColumns = `id, name, email, age, favorite_foods, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (repo *UsersRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

// EnsureSchema creates the users table when it does not exist yet.
func (repo *UsersRepo) EnsureSchema(ctx context.Context) error {
	_, err := repo.pool.Exec(ctx, usersTableDDL)
	if err != nil {
		return fmt.Errorf("ensure users table: %w", mapErr(err))
	}
	return nil
}

func (repo *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := repo.observe("users.list", func() error {
		rows, err := repo.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
		if err != nil {
			return mapErr(err)
		}
		defer rows.Close()

		out = make([]user.User, 0)
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return mapErr(err)
			}
			out = append(out, u)
		}

		return mapErr(rows.Err())
	})

	return out, err
}

func (repo *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	var u user.User
	err = repo.observe("users.get", func() error {
		var err error
		u, err = scanUser(repo.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, uid))
		return mapErr(err)
	})

	return u, err
}

func (repo *UsersRepo) Insert(ctx context.Context, c user.Candidate) (user.User, error) {
	foods := c.FavoriteFoods
	if foods == nil {
		foods = []string{}
	}

	var u user.User
	err := repo.observe("users.insert", func() error {
		var err error
		u, err = scanUser(repo.pool.QueryRow(
			ctx,
			`INSERT INTO users (id, name, email, age, favorite_foods)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+userColumns,
			uuid.New(),
			c.Name,
			c.Email,
			c.Age,
			foods,
		))
		return mapErr(err)
	})

	return u, err
}

// Update replaces only the non-null parameters; updated_at always moves.
func (repo *UsersRepo) Update(ctx context.Context, id string, p user.Patch) (user.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	var foods interface{}
	if p.FavoriteFoods != nil {
		foods = *p.FavoriteFoods
	}

	var u user.User
	err = repo.observe("users.update", func() error {
		var err error
		u, err = scanUser(repo.pool.QueryRow(
			ctx,
			`UPDATE users
				SET name = COALESCE($2::text, name),
					email = COALESCE($3::text, email),
					age = COALESCE($4::integer, age),
					favorite_foods = COALESCE($5::text[], favorite_foods),
					updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			uid,
			p.Name,
			p.Email,
			p.Age,
			foods,
		))
		return mapErr(err)
	})

	return u, err
}

func (repo *UsersRepo) Delete(ctx context.Context, id string) (user.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	var u user.User
	err = repo.observe("users.delete", func() error {
		var err error
		u, err = scanUser(repo.pool.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, uid))
		return mapErr(err)
	})

	return u, err
}

func (repo *UsersRepo) Ping(ctx context.Context) error {
	return mapErr(repo.pool.Ping(ctx))
}

func (repo *UsersRepo) Close(ctx context.Context) error {
	repo.pool.Close()
	return nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u  user.User
		id uuid.UUID
	)

	err := row.Scan(&id, &u.Name, &u.Email, &u.Age, &u.FavoriteFoods, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}

	u.ID = id.String()
	if u.FavoriteFoods == nil {
		u.FavoriteFoods = []string{}
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()

	return u, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrNotFound
	}

	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", user.ErrDuplicateKey, err)
	}

	var (
		connectErr *pgconn.ConnectError
		netErr     net.Error
	)
	if errors.As(err, &connectErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", user.ErrStoreUnavailable, err)
	}

	return err
}
