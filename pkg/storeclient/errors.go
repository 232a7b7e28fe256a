package storeclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx answer of the storefront API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storefront api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("storefront api: status %d: %s", e.StatusCode, e.Message)
}

// newAPIError consumes and closes resp.Body.
func newAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	e := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return e
	}
	var body struct {
		Message any `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != nil {
		e.Message = fmt.Sprint(body.Message)
		return e
	}
	e.Message = string(raw)
	return e
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusUnauthorized
}
