package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type signup struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,pwd"`
	Birthdate string   `json:"birthdate" validate:"omitempty,date"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	SortDir   string   `form:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestToDetails_FieldMessages(t *testing.T) {
	lat := 100.0
	err := newValidate().Struct(signup{Email: "nope", Password: "short", Birthdate: "15/06/2000", Latitude: &lat, SortDir: "up"})

	details := ToDetails(err)

	assert.Equal(t, map[string]string{
		"email":     "must be a valid email",
		"password":  "must be between 8 and 72 characters long",
		"birthdate": "must be a date formatted as YYYY-MM-DD",
		"latitude":  "must be a valid latitude",
		"sort_dir":  "must be one of: asc, desc",
	}, details)
}

func TestToDetails_Valid(t *testing.T) {
	err := newValidate().Struct(signup{Email: "a@example.com", Password: "long enough", Birthdate: "2000-06-15"})
	assert.NoError(t, err)
	assert.Nil(t, ToDetails(err))
}

func TestToDetails_PayloadErrors(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte("{"), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("eof")))
}
