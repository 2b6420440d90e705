package controllers

import (
	"errors"
	"net/http"

	"github.com/yeremiapane/qr-order-app/services"
)

// CustomError untuk error permission sederhana di layer controller
type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

var ErrNoPermission = &CustomError{"You do not have permission"}

// statusForError menerjemahkan taxonomy error service ke HTTP status code.
// ErrSessionExpired ikut 401 supaya client diner tahu harus scan ulang QR.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
