package user

import "time"

type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Age           *int      `json:"age,omitempty"`
	FavoriteFoods []string  `json:"favoriteFoods"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateUserRequest is the raw POST body. Nothing here is trusted until it
// has been through Validator.Create.
type CreateUserRequest struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Age           *int     `json:"age"`
	FavoriteFoods []string `json:"favoriteFoods"`
}

// UpdateUserRequest is the raw PUT body. A nil field was not supplied (or was
// sent as null) and is left untouched.
type UpdateUserRequest struct {
	Name          *string   `json:"name"`
	Email         *string   `json:"email"`
	Age           *int      `json:"age"`
	FavoriteFoods *[]string `json:"favoriteFoods"`
}

// Candidate is a normalized, validated create payload ready for a store.
type Candidate struct {
	Name          string
	Email         string
	Age           *int
	FavoriteFoods []string
}

// Patch is a normalized, validated subset of fields to replace.
type Patch struct {
	Name          *string
	Email         *string
	Age           *int
	FavoriteFoods *[]string
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Age == nil && p.FavoriteFoods == nil
}

// Apply returns u with every supplied field replaced. favoriteFoods is a full
// replace, not a merge.
func (p Patch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Age != nil {
		age := *p.Age
		u.Age = &age
	}
	if p.FavoriteFoods != nil {
		u.FavoriteFoods = append([]string{}, (*p.FavoriteFoods)...)
	}
	return u
}
