package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/usersapi/internal/domain/user"
)

// UsersRepo keeps users in process memory. Insertion order is preserved and
// email uniqueness is enforced under the same lock as the write.
type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User
	order   []string
	byEmail map[string]string
	now     func() time.Time
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.items[id]))
	}
	return out, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return clone(u), nil
}

func (r *UsersRepo) Insert(ctx context.Context, c user.Candidate) (user.User, error) {
	u := user.NewFromCandidate(c, r.now())

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return user.User{}, user.ErrDuplicateKey
	}

	r.items[u.ID] = clone(u)
	r.order = append(r.order, u.ID)
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, p user.Patch) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	next := p.Apply(current)
	if next.Email != current.Email {
		if owner, taken := r.byEmail[next.Email]; taken && owner != id {
			return user.User{}, user.ErrDuplicateKey
		}
		delete(r.byEmail, current.Email)
		r.byEmail[next.Email] = id
	}

	next.UpdatedAt = r.now()
	r.items[id] = clone(next)

	return next, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	delete(r.items, id)
	delete(r.byEmail, u.Email)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return u, nil
}

func (r *UsersRepo) Ping(ctx context.Context) error { return nil }

func (r *UsersRepo) Close(ctx context.Context) error { return nil }

// clone detaches the slice and pointer fields so callers cannot mutate
// stored records.
func clone(u user.User) user.User {
	u.FavoriteFoods = append([]string{}, u.FavoriteFoods...)
	if u.Age != nil {
		age := *u.Age
		u.Age = &age
	}
	return u
}
