package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
	"github.com/rs/zerolog/log"
)

const (
	// requestTimeout bounds single store reads and writes
	requestTimeout = 5 * time.Second
	// provisionTimeout bounds flows that call the external profile service
	provisionTimeout = 5 * time.Minute
	maxBodyBytes     = 1 << 20
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a short status message.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}

// internalError logs err and answers with a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(msg)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

var errInvalidBody = errors.New("invalid request body")

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	v := validate.Struct(dst)
	if !v.Validate() {
		return errors.New(v.Errors.One())
	}
	return nil
}

// badRequestText is the client-facing message for a decodeAndValidate error.
func badRequestText(err error) string {
	if errors.Is(err, errInvalidBody) {
		return "Invalid request body"
	}
	return err.Error()
}
