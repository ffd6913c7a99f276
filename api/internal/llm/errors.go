package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Reason classifies a provider failure.
type Reason string

const (
	ReasonRateLimit      Reason = "rate_limit"
	ReasonTimeout        Reason = "timeout"
	ReasonServerError    Reason = "server_error"
	ReasonAuth           Reason = "auth"
	ReasonInvalidRequest Reason = "invalid_request"
	ReasonEmptyResponse  Reason = "empty_response"
	ReasonUnknown        Reason = "unknown"
)

// Retryable reports whether another attempt may succeed.
func (r Reason) Retryable() bool {
	switch r {
	case ReasonRateLimit, ReasonTimeout, ReasonServerError:
		return true
	}
	return false
}

// ProviderError is the only error type adapters return for remote failures.
// Cause holds the vendor error for diagnostics.
type ProviderError struct {
	Provider Provider
	Model    string
	Status   int
	Reason   Reason
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	parts := []string{fmt.Sprintf("[%s]", e.Reason), string(e.Provider)}
	if e.Model != "" {
		parts = append(parts, "model="+e.Model)
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	switch {
	case e.Message != "":
		parts = append(parts, e.Message)
	case e.Cause != nil:
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

func (e *ProviderError) Unwrap() error { return e.Cause }

func (e *ProviderError) Retryable() bool { return e.Reason.Retryable() }

// NewProviderError classifies cause by status when known, else by message.
func NewProviderError(p Provider, model string, status int, cause error) *ProviderError {
	e := &ProviderError{Provider: p, Model: model, Status: status, Cause: cause, Reason: ReasonUnknown}
	if status != 0 {
		e.Reason = classifyStatus(status)
	}
	if e.Reason == ReasonUnknown && cause != nil {
		e.Reason = Classify(cause)
	}
	return e
}

// EmptyResponse reports a successful call that carried no text.
func EmptyResponse(p Provider, model string) *ProviderError {
	return &ProviderError{Provider: p, Model: model, Reason: ReasonEmptyResponse, Message: "response contained no text"}
}

// Classify inspects an unstructured error.
func Classify(err error) Reason {
	if err == nil {
		return ReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	s := strings.ToLower(err.Error())
	switch {
	case containsAny(s, "timeout", "deadline exceeded", "etimedout"):
		return ReasonTimeout
	case containsAny(s, "rate limit", "rate_limit", "too many requests", "resource exhausted", "429"):
		return ReasonRateLimit
	case containsAny(s, "unauthorized", "unauthenticated", "invalid api key", "invalid_api_key", "authentication", "permission denied", "401", "403"):
		return ReasonAuth
	case containsAny(s, "internal server", "server error", "unavailable", "500", "502", "503", "504"):
		return ReasonServerError
	case containsAny(s, "invalid argument", "invalid_request", "bad request", "400"):
		return ReasonInvalidRequest
	}
	return ReasonUnknown
}

func classifyStatus(status int) Reason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonAuth
	case status == http.StatusTooManyRequests:
		return ReasonRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ReasonTimeout
	case status >= 500:
		return ReasonServerError
	case status >= 400:
		return ReasonInvalidRequest
	}
	return ReasonUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return Classify(err).Retryable()
}
