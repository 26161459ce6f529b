package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-product-api/internal/model"
	"go-product-api/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, model.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := model.APIResponse{
		Success: false,
		Message: "Unexpected server error",
	}

	var vErr *apierror.ValidationError
	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &vErr):
		status = vErr.HTTPStatus
		body.Message = ""
		body.Error = vErr.Fields
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Message = apiErr.Message
	default:
		// Unclassified errors stay generic to the caller but must be
		// visible in the logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, body)
}
