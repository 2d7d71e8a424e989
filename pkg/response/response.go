// Package response writes the JSON envelope every endpoint answers with:
//
//	{"status":200,"message":"...","data":...,"errors":...}
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
)

type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// StatusError is implemented by errors that know their HTTP status.
type StatusError interface {
	error
	HTTPStatus() int
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 with data.
func Success(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 with data.
func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Status: status, Message: message})
}

// ErrorWithData sends an error status that still carries a payload, such as
// the existing record behind a conflict.
func ErrorWithData(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, envelope{Status: status, Message: message, Data: data})
}

// ValidationError sends a 422 with a field → message map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	write(w, http.StatusUnprocessableEntity, envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Forbidden")
}

func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}

// FromError maps err to a status and writes it. Errors without a known
// status become a 500 whose details are logged, never sent. A known 5xx
// answers with its own message, not the wrapped cause.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var se StatusError
	if !errors.As(err, &se) {
		logger.WithCtx(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		Error(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	status := se.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		Error(w, status, se.Error())
		return
	}
	Error(w, status, err.Error())
}

// Status returns the HTTP status carried by err, or 500.
func Status(err error) int {
	var se StatusError
	if errors.As(err, &se) {
		return se.HTTPStatus()
	}
	return http.StatusInternalServerError
}
