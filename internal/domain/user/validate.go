package user

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type createRules struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,simple_email"`
	Age   *int   `json:"age" validate:"omitnil,min=0,max=120"`
}

type updateRules struct {
	Name  *string `json:"name" validate:"omitnil,min=2"`
	Email *string `json:"email" validate:"omitnil,simple_email"`
	Age   *int    `json:"age" validate:"omitnil,min=0,max=120"`
}

// Validator normalizes candidate users and enforces the field rules. It is
// safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return sf.Name
		}
		return name
	})

	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("simple_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Create trims name and email, lowercases email, defaults favoriteFoods to
// an empty list and validates the result.
func (val *Validator) Create(req CreateUserRequest) (Candidate, error) {
	c := Candidate{
		Name:          strings.TrimSpace(req.Name),
		Email:         normalizeEmail(req.Email),
		Age:           req.Age,
		FavoriteFoods: req.FavoriteFoods,
	}
	if c.FavoriteFoods == nil {
		c.FavoriteFoods = []string{}
	}

	err := val.check(createRules{Name: c.Name, Email: c.Email, Age: c.Age})
	if err != nil {
		return Candidate{}, err
	}

	return c, nil
}

// Update applies the same normalization and rules as Create, but only to the
// fields present in req.
func (val *Validator) Update(req UpdateUserRequest) (Patch, error) {
	var p Patch

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		p.Name = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		p.Email = &email
	}
	if req.Age != nil {
		age := *req.Age
		p.Age = &age
	}
	if req.FavoriteFoods != nil {
		foods := append([]string{}, (*req.FavoriteFoods)...)
		p.FavoriteFoods = &foods
	}

	err := val.check(updateRules{Name: p.Name, Email: p.Email, Age: p.Age})
	if err != nil {
		return Patch{}, err
	}

	return p, nil
}

func (val *Validator) check(rules interface{}) error {
	err := val.v.Struct(rules)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrors))}
	for _, fe := range fieldErrors {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: validationMessage(fe),
		})
	}

	return out
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func validationMessage(fe validator.FieldError) string {
	numeric := false
	switch fe.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		numeric = true
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "simple_email":
		return "format invalid"
	case "min":
		if numeric {
			return "out of range (must be at least " + fe.Param() + ")"
		}
		return "shorter than minimum length (" + fe.Param() + ")"
	case "max":
		if numeric {
			return "out of range (must be at most " + fe.Param() + ")"
		}
		return "longer than maximum length (" + fe.Param() + ")"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s validation (%s)", fe.Tag(), fe.Param())
		}
		return "failed " + fe.Tag() + " validation"
	}
}
