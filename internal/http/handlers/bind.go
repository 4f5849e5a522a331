package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// BindJSON decodes the body into out. On failure it writes the error
// response, prefixed with message, and returns false.
func BindJSON(ctx *gin.Context, out interface{}, message string) bool {
	err := ctx.ShouldBindJSON(out)

	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, message,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), nil)
		return false
	}

	reason, fields := parseBindError(err, out)
	RespondBadRequest(ctx, message, reason, fields)

	return false
}

func parseBindError(err error, out interface{}) (string, []user.FieldError) {
	if errors.Is(err, io.EOF) {
		return "request body is empty", nil
	}

	// in the event of bad json

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "invalid JSON syntax", nil
	}

	// in the event of a type mismatch

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := jsonPathFromDotPath(baseStructType(out), unmatchedTypeError.Field)

		if field == "" {
			field = strings.TrimSpace(unmatchedTypeError.Field)
		}

		msg := fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String())

		return field + " " + msg, []user.FieldError{
			{
				Field:   field,
				Rule:    "type",
				Message: msg,
			},
		}
	}

	// final fallback if the error could not be deciphered
	return err.Error(), nil
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// jsonPathFromDotPath rewrites a Go field path ("FavoriteFoods") into the
// JSON names the client sent ("favoriteFoods").
func jsonPathFromDotPath(rootType reflect.Type, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	current := rootType
	parts := strings.Split(dotPath, ".")
	out := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		jsonName := part
		var next reflect.Type

		if current != nil && current.Kind() == reflect.Struct {
			if sf, ok := current.FieldByName(part); ok {
				jsonName = jsonNameFromStructField(sf)
				next = unwind(sf.Type)
			}
		}

		out = append(out, jsonName)
		current = next
	}

	return strings.Join(out, ".")
}

func jsonNameFromStructField(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func unwind(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}

	return nil
}
