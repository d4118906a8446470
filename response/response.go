package response

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const JSONContentType = "application/json"

type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is served by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	StoreSize int    `json:"store_size"`
}

func RenderFatal(w http.ResponseWriter, err error) {
	RenderError(w, err, http.StatusInternalServerError)
}

func RenderError(w http.ResponseWriter, err error, statusCode int) {
	body, marshalErr := json.Marshal(ErrorResponse{Error: err.Error()})
	if marshalErr != nil {
		body = []byte(`{"error":"internal error"}`)
	}

	w.Header().Set("Content-Type", JSONContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

func RenderJSONResponse(w http.ResponseWriter, data any) {
	RenderJSONWithStatus(w, data, http.StatusOK)
}

func RenderJSONWithStatus(w http.ResponseWriter, data any, statusCode int) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		RenderFatal(w, fmt.Errorf("failed to marshal data: %w", err))
		return
	}

	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(statusCode)
	_, _ = w.Write(jsonData)
}
