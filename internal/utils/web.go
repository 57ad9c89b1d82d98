package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/breemind-dev/breemind/internal/errors"
	"github.com/breemind-dev/breemind/internal/logger"
)

type errorResponse struct {
	Message string   `json:"message"`
	Field   string   `json:"field,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// WriteErrorAndStatusCode serializes application errors as a structured
// JSON body so clients can branch on the field/errors discriminators.
// Untyped errors default to 500.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	if e, ok := err.(*errors.ErrorWithStatusCode); ok {
		WriteJSON(w, e.StatusCode, errorResponse{Message: e.Message, Field: e.Field, Errors: e.Errors})
		return
	}
	// default error is 500
	logger.Log.Error("unexpected error", "error", err)
	WriteJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
}

func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest}
	}
	if err := validate.Struct(body); err != nil {
		return &errors.ErrorWithStatusCode{Message: "Required fields missing or invalid", StatusCode: http.StatusBadRequest}
	}
	return nil
}
