package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/roach88/todox/internal/todo"
)

// Error classes, used as metric labels.
const (
	classValidation = "validation"
	classNotFound   = "not_found"
	classStorage    = "storage"
)

// classify maps an error to its HTTP status and class.
// Anything unrecognised is a storage failure.
func classify(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, todo.ErrValidation):
		return http.StatusBadRequest, classValidation
	case errors.Is(err, todo.ErrNotFound):
		return http.StatusNotFound, classNotFound
	default:
		return http.StatusInternalServerError, classStorage
	}
}

// bindError turns a form binding failure into a validation error.
// Validator output names Go types, so only the field and rule survive.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return todo.Validationf("malformed request body: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			msgs = append(msgs, field+" must not be empty")
		} else {
			msgs = append(msgs, field+" is invalid")
		}
	}
	return todo.Validationf("%s", strings.Join(msgs, "; "))
}

// fail writes the error response for err and aborts the chain.
// Storage failures are logged; their details stay out of the response.
func (s *Server) fail(c *gin.Context, err error) {
	status, class := classify(err)
	s.metrics.Error(routeLabel(c), class)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			slog.String("route", routeLabel(c)),
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.Any("error", err))
		msg = http.StatusText(status)
	}
	c.Abort()
	c.String(status, "%s", msg)
}
