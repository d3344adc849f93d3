// Package handlers implements the HTTP/WS Front End's endpoint
// handlers: thin adapters translating validated requests into calls
// against the Auth, Query, Collection, and File Metadata services, and
// their results back into the standardized response envelope.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/swiftbase/swiftbase/internal/apperr"
	"github.com/swiftbase/swiftbase/internal/server/response"
)

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return apperr.InvalidInput("failed to read request body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.InvalidInput("malformed JSON: " + err.Error())
	}
	return nil
}

func writeOK(w http.ResponseWriter, r *http.Request, data any) {
	response.WriteData(w, r, http.StatusOK, data)
}

func writeCreated(w http.ResponseWriter, r *http.Request, data any) {
	response.WriteData(w, r, http.StatusCreated, data)
}
