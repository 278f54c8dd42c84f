package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	writeErrorBody(w, statusCode, &types.ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

func writeErrorBody(w http.ResponseWriter, statusCode int, body *types.ServiceError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: *body})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// respondServiceError maps a domain error onto its HTTP status. System
// errors are logged and their message is not echoed to the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	catErr := apperrors.Categorize(err)
	logger := logging.FromContext(r.Context()).WithError(err)
	status := apperrors.GetHTTPStatusCode(catErr)

	if apperrors.IsSystemError(catErr) {
		logger.Error("request failed")
		respondError(w, status, catErr.Code, "An internal error occurred", nil)
		return
	}
	if apperrors.IsUserError(catErr) {
		logger.WithField("code", catErr.Code).Debug("request rejected")
	}
	writeErrorBody(w, status, catErr.ToServiceError())
}

// respondInvalidBody reports a malformed request body.
func respondInvalidBody(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, apperrors.CodeInvalidParameter, "Invalid request body", map[string]interface{}{
		"reason": err.Error(),
	})
}
