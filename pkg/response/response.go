package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// ErrorBody is the error payload for categorised failures.
type ErrorBody struct {
	Category string            `json:"category"`
	Field    string            `json:"field,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, resp)
	return resp
}

func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
	ctx.AbortWithStatusJSON(status, resp)
	return resp
}

// FromError answers with the status and category of an application error. Errors outside the
// taxonomy are reported as internal without leaking their text.
func FromError(ctx *gin.Context, err error) APIResponse[any] {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		_ = ctx.Error(err)
		return Error[any](ctx, http.StatusInternalServerError, "internal error", ErrorBody{Category: apperror.KindInternal.String()})
	}
	msg := ae.Msg
	if ae.Kind == apperror.KindInternal || ae.Kind == apperror.KindTransient {
		_ = ctx.Error(err)
		if ae.Kind == apperror.KindInternal {
			msg = "internal error"
		}
	}
	return Error[any](ctx, ae.HTTPStatus(), msg, ErrorBody{Category: ae.Category(), Field: ae.Field, Details: ae.Fields})
}
