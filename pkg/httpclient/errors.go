package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/discovery/pkg/errors"
)

// downstreamError matches the error member of the platform response envelope.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response and returns an
// error preserving the downstream semantics: 404 maps to ErrNotFound, 503
// and other 5xx map to ErrServiceUnavail, and remaining statuses become an
// AppError carrying the downstream code.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	code, message := "", string(body)
	var env downstreamError
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		code, message = env.Error.Code, env.Error.Message
	}
	message = fmt.Sprintf("%s: %s", service, message)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", message, apperrors.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case resp.StatusCode == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s (status %d): %w", message, resp.StatusCode, apperrors.ErrServiceUnavail)
	default:
		if code == "" {
			code = "DOWNSTREAM_ERROR"
		}
		return &apperrors.AppError{
			Code:    code,
			Message: message,
			Status:  resp.StatusCode,
			Err:     apperrors.ErrInvalidInput,
		}
	}
}
