package application

import (
	"errors"

	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

// validator collects field failures so a caller sees all of them in one Validation error.
type validator struct {
	fields map[string]string
}

func newValidator() *validator {
	return &validator{fields: map[string]string{}}
}

func (v *validator) add(field, msg string) {
	if _, ok := v.fields[field]; !ok {
		v.fields[field] = msg
	}
}

func (v *validator) check(field string, err error) {
	if err != nil {
		v.add(field, message(err))
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return apperror.Validation(v.fields)
}

func validationFrom(field string, err error) error {
	return apperror.Validation(map[string]string{field: message(err)})
}

func message(err error) string {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return err.Error()
}
