package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/flow-heater/flow-heater/internal/apierrors"
	"github.com/flow-heater/flow-heater/internal/logger"
)

// errorEnvelope is the JSON shape every failed request renders.
type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	status := apierrors.HTTPStatus(err)
	msg := apierrors.Message(err)
	if status == http.StatusInternalServerError {
		log.WithField("error", err).Error("request failed")
	}
	writeJSON(w, status, errorEnvelope{Code: status, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
