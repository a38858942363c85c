package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// ErrorKind classifies a failed provider call.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate_limited"
	KindAuth        ErrorKind = "authentication"
	KindMalformed   ErrorKind = "malformed_request"
	KindTransport   ErrorKind = "transport"
)

// CallError is a typed invocation failure.
type CallError struct {
	Kind ErrorKind
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("llm call failed (%s): %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient.
func (e *CallError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindRateLimited, KindTransport:
		return true
	}
	return false
}

// ConfigurationError is raised before any call is attempted: bad
// provider/model identifiers, missing credentials.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid llm configuration: %s", e.Reason)
}

// Classify wraps a provider error as a CallError, mapping the SDK error
// types onto the engine's taxonomy.
func Classify(err error) *CallError {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &CallError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &CallError{Kind: KindTimeout, Err: err}
	}

	var oaiErr *openai.APIError
	if errors.As(err, &oaiErr) {
		return &CallError{Kind: kindFromStatus(oaiErr.HTTPStatusCode), Err: err}
	}
	var oaiReqErr *openai.RequestError
	if errors.As(err, &oaiReqErr) {
		return &CallError{Kind: kindFromStatus(oaiReqErr.HTTPStatusCode), Err: err}
	}

	var antErr *anthropic.APIError
	if errors.As(err, &antErr) {
		switch {
		case antErr.IsRateLimitErr(), antErr.IsOverloadedErr():
			return &CallError{Kind: KindRateLimited, Err: err}
		case antErr.IsAuthenticationErr(), antErr.IsPermissionErr():
			return &CallError{Kind: KindAuth, Err: err}
		case antErr.IsInvalidRequestErr():
			return &CallError{Kind: KindMalformed, Err: err}
		}
		return &CallError{Kind: KindTransport, Err: err}
	}

	return &CallError{Kind: KindTransport, Err: err}
}

func kindFromStatus(status int) ErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindMalformed
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	}
	return KindTransport
}
