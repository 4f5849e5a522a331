// Package users is the data access layer for the User resource. It owns the
// validation step and delegates persistence to a Store backend.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/usersapi/internal/domain/user"
)

// Store is implemented by each persistence backend. Implementations translate
// driver errors into user.ErrNotFound, user.ErrDuplicateKey and
// user.ErrStoreUnavailable.
type Store interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Insert(ctx context.Context, c user.Candidate) (user.User, error)
	Update(ctx context.Context, id string, p user.Patch) (user.User, error)
	Delete(ctx context.Context, id string) (user.User, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Service struct {
	store     Store
	validator *user.Validator
	log       *slog.Logger
}

func NewService(store Store, validator *user.Validator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, validator: validator, log: log}
}

// ListAll returns every user in creation order.
func (s *Service) ListAll(ctx context.Context) ([]user.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	if users == nil {
		users = []user.User{}
	}
	return users, nil
}

func (s *Service) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	c, err := s.validator.Create(req)
	if err != nil {
		return user.User{}, err
	}

	u, err := s.store.Insert(ctx, c)
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.DebugContext(ctx, "user created", "user_id", u.ID)
	return u, nil
}

// UpdateByID reports user.ErrNotFound before looking at the payload, so an
// unknown id never surfaces as a validation failure.
func (s *Service) UpdateByID(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return user.User{}, fmt.Errorf("update user %s: %w", id, err)
	}

	p, err := s.validator.Update(req)
	if err != nil {
		return user.User{}, err
	}

	u, err := s.store.Update(ctx, id, p)
	if err != nil {
		return user.User{}, fmt.Errorf("update user %s: %w", id, err)
	}

	s.log.DebugContext(ctx, "user updated", "user_id", u.ID)
	return u, nil
}

func (s *Service) DeleteByID(ctx context.Context, id string) (user.User, error) {
	u, err := s.store.Delete(ctx, id)
	if err != nil {
		return user.User{}, fmt.Errorf("delete user %s: %w", id, err)
	}

	s.log.DebugContext(ctx, "user deleted", "user_id", u.ID)
	return u, nil
}

// Ping is used by the readiness probe.
func (s *Service) Ping(ctx context.Context) error {
	err := s.store.Ping(ctx)
	if err != nil && !errors.Is(err, user.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %w", user.ErrStoreUnavailable, err)
	}
	return err
}
