package apiserver

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/aurorasat/dtnsim/internal/apierr"
)

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("apiserver: encoding response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

// handleError maps an error from the engine/constellation/contact packages
// to an HTTP response. Only *apierr.Error instances surface their message;
// anything else is an unexpected engine fault and comes back as a generic
// 500, per §7's "only input validation and engine-fatal conditions cross
// the control-API boundary."
func handleError(w http.ResponseWriter, err error) {
	if apiErr, ok := apierr.As(err); ok {
		jsonError(w, apiErr.HTTPStatus(), string(apiErr.Kind), apiErr.Error())
		return
	}
	log.Printf("apiserver: unexpected error: %v", err)
	jsonError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
