// Package response provides shared JSON response helpers for HTTP handlers.
package response

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mediahub/catalog/internal/catalog"
)

// Envelope is the success response envelope.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// ErrorEnvelope is the failure response envelope.
type ErrorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	render.Status(r, status)
	render.JSON(w, r, payload)
}

// OK writes a 200 response with data.
func OK(w http.ResponseWriter, r *http.Request, data interface{}, message string) {
	JSON(w, r, http.StatusOK, Envelope{StatusCode: http.StatusOK, Data: data, Message: message, Success: true})
}

// Created writes a 201 response with data.
func Created(w http.ResponseWriter, r *http.Request, data interface{}, message string) {
	JSON(w, r, http.StatusCreated, Envelope{StatusCode: http.StatusCreated, Data: data, Message: message, Success: true})
}

// Error writes an error response with the given status, message and details.
func Error(w http.ResponseWriter, r *http.Request, status int, message string, details ...string) {
	if details == nil {
		details = []string{}
	}
	JSON(w, r, status, ErrorEnvelope{StatusCode: status, Message: message, Errors: details})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, r *http.Request, message string, details ...string) {
	Error(w, r, http.StatusBadRequest, message, details...)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusUnauthorized, message)
}

// InternalError writes a 500 response with a generic message.
func InternalError(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusInternalServerError, "internal server error")
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(k catalog.Kind) int {
	switch k {
	case catalog.KindValidation:
		return http.StatusBadRequest
	case catalog.KindForbidden:
		return http.StatusForbidden
	case catalog.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Err writes the envelope for a service error. Only the classified message and
// details reach the client.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	var cerr *catalog.Error
	if !errors.As(err, &cerr) {
		InternalError(w, r)
		return
	}
	Error(w, r, StatusFor(cerr.Kind), cerr.Message, cerr.Details...)
}
