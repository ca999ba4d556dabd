package gotrue

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGrant covers rejected credentials: bad password, revoked or expired refresh token.
	ErrInvalidGrant = errors.New("gotrue: invalid grant")
	// ErrUnavailable covers transport failures and 5xx responses.
	ErrUnavailable = errors.New("gotrue: unavailable")
)

// APIError is a non-2xx response from the auth server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("gotrue: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gotrue: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap lets callers test the error class with errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status >= 500:
		return ErrUnavailable
	case e.Status == 400 || e.Status == 401 || e.Status == 403 || e.Status == 404 || e.Status == 422:
		return ErrInvalidGrant
	default:
		return nil
	}
}

// errorBody accepts both the OAuth-style and the newer GoTrue error shapes.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (b errorBody) apiError(status int) *APIError {
	e := &APIError{Status: status}
	switch {
	case b.ErrorCode != "":
		e.Code = b.ErrorCode
	case b.Error != "":
		e.Code = b.Error
	}
	switch {
	case b.ErrorDescription != "":
		e.Message = b.ErrorDescription
	case b.Msg != "":
		e.Message = b.Msg
	case b.Message != "":
		e.Message = b.Message
	default:
		e.Message = "request failed"
	}
	return e
}
