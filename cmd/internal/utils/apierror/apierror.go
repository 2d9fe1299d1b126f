// Package apierror is the error surface of the HTTP API. Every failure a
// service reports is an ErrorResponse carrying its HTTP status and a kind
// clients can switch on.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

type Kind string

const (
	KindValidation     Kind = "validation_error"
	KindAuthentication Kind = "authentication_error"
	KindAuthorization  Kind = "authorization_error"
	KindNotFound       Kind = "not_found"
	KindStateConflict  Kind = "state_conflict"
	KindPersistence    Kind = "persistence_error"
)

type ErrorResponse interface {
	error
	Code() int
}

type APIError struct {
	Status  int
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Code() int {
	return e.Status
}

type body struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// MarshalJSON writes the failure envelope used by every error response.
func (e *APIError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success bool `json:"success"`
		Error   body `json:"error"`
	}{
		Success: false,
		Error:   body{Kind: e.Kind, Message: e.Message, Fields: e.Fields},
	})
}

func New(status int, kind Kind, message string) *APIError {
	return &APIError{Status: status, Kind: kind, Message: message}
}

// NewSimple picks the kind from the status code.
func NewSimple(status int, message string) *APIError {
	return New(status, kindFor(status), message)
}

func Validation(message string) *APIError {
	return New(http.StatusBadRequest, KindValidation, message)
}

func Forbidden(message string) *APIError {
	return New(http.StatusForbidden, KindAuthorization, message)
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, KindNotFound, message)
}

func Conflict(message string) *APIError {
	return New(http.StatusConflict, KindStateConflict, message)
}

func NewMissingParamError(name string) *APIError {
	e := Validation(fmt.Sprintf("Missing required parameter '%s'", name))
	e.Fields = map[string]string{name: "required"}
	return e
}

func NewInvalidParamTypeError(name, typ string) *APIError {
	e := Validation(fmt.Sprintf("Parameter '%s' must be of type %s", name, typ))
	e.Fields = map[string]string{name: typ}
	return e
}

// NewMoneyScaleError rejects amounts finer than the stored scale.
func NewMoneyScaleError(name string, places int32) *APIError {
	e := Validation(fmt.Sprintf("Parameter '%s' must have at most %d decimal places", name, places))
	e.Fields = map[string]string{name: "money"}
	return e
}

// FromValidationError converts validator failures into a validation_error
// listing the failing tag per field.
func FromValidationError(err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Validation("Request is invalid")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}

	e := Validation("One or more fields are invalid")
	e.Fields = fields
	return e
}

func kindFor(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindAuthorization
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindStateConflict
	}
	if status >= 500 {
		return KindPersistence
	}
	return KindValidation
}
