package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

type contextKey string

const jsonBodyKey contextKey = "jsonBody"

// JSONBodyParser reads and validates JSON request bodies before they reach
// the router. Parsed bodies are available through Body.
type JSONBodyParser struct {
	MaxBytes int64
}

// NewJSONBodyParser creates a parser accepting bodies up to maxBytes
func NewJSONBodyParser(maxBytes int64) *JSONBodyParser {
	return &JSONBodyParser{MaxBytes: maxBytes}
}

// Middleware returns an HTTP middleware that parses JSON bodies. Requests
// without a JSON content type pass through untouched.
func (p *JSONBodyParser) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody || !isJSON(r.Header.Get("Content-Type")) {
			next.ServeHTTP(w, r)
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, p.MaxBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 {
			// Only objects and arrays are accepted at the top level
			if (trimmed[0] != '{' && trimmed[0] != '[') || !json.Valid(trimmed) {
				writeError(w, http.StatusBadRequest, "malformed JSON body")
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), jsonBodyKey, json.RawMessage(trimmed)))
		}

		r.Body = io.NopCloser(bytes.NewReader(data))
		next.ServeHTTP(w, r)
	})
}

// Body returns the parsed JSON body of the request, or nil when the request
// carried none.
func Body(r *http.Request) json.RawMessage {
	body, _ := r.Context().Value(jsonBodyKey).(json.RawMessage)
	return body
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
