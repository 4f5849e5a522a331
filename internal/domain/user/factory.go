package user

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCandidate(c Candidate, now time.Time) User {
	foods := c.FavoriteFoods
	if foods == nil {
		foods = []string{}
	}

	return User{
		ID:            uuid.NewString(),
		Name:          c.Name,
		Email:         c.Email,
		Age:           c.Age,
		FavoriteFoods: foods,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
