package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/mux"
)

// ParseJSON decodes a single JSON value from the request body into dest.
// Unknown fields and trailing data are rejected.
func ParseJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		return fmt.Errorf("invalid JSON: unexpected data after the request body")
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes error response on failure. Bodies
// cut off by MaxBytesMiddleware get a 413.
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteRequestTooLarge(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	str := mux.Vars(r)[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// ParsePathStringOrError extracts a string path parameter and writes error on failure
func ParsePathStringOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := ParsePathString(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return val, true
}

// ParseQueryString extracts a string query parameter
func ParseQueryString(r *http.Request, key string, defaultVal string) string {
	if val := r.URL.Query().Get(key); val != "" {
		return val
	}
	return defaultVal
}

// ParseQueryEnum extracts a query parameter that must be one of allowed
func ParseQueryEnum(r *http.Request, key, defaultVal string, allowed []string) (string, error) {
	val := ParseQueryString(r, key, defaultVal)
	if !slices.Contains(allowed, val) {
		return "", fmt.Errorf("invalid %s %q (must be one of: %s)", key, val, strings.Join(allowed, ", "))
	}
	return val, nil
}

// ParseQueryEnumOrError is ParseQueryEnum writing a 400 on failure
func ParseQueryEnumOrError(w http.ResponseWriter, r *http.Request, key, defaultVal string, allowed []string) (string, bool) {
	val, err := ParseQueryEnum(r, key, defaultVal, allowed)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return val, true
}

// RequireNonEmpty validates that a string field is not empty
func RequireNonEmpty(w http.ResponseWriter, value, fieldName string) bool {
	if value == "" {
		WriteBadRequest(w, fmt.Sprintf("%s is required", fieldName))
		return false
	}
	return true
}
