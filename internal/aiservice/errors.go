package aiservice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/talenthub/ai-gateway/internal/utils"
)

// maxDetailLength bounds error messages carried from upstream response bodies.
const maxDetailLength = 512

// Stable machine-readable codes for upstream failures. Callers branch on these
// (or on Status) to decide the outward response.
const (
	CodeBadRequest         = "bad_request"
	CodeQuotaExceeded      = "quota_exceeded"
	CodeUnauthorized       = "unauthorized"
	CodeEndpointNotFound   = "endpoint_not_found"
	CodeRateLimited        = "rate_limited"
	CodeServiceUnavailable = "service_unavailable"
	CodeServiceError       = "service_error"
	CodeUpstream           = "upstream_error"
)

// Error is the typed failure surfaced by every gateway operation.
type Error struct {
	// Status is the HTTP status the platform should answer with, which is not
	// always the status the AI service returned (a 404 from the service means
	// the client is misconfigured, so callers see a 502).
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ai service: %s (%d): %s", e.Code, e.Status, e.Message)
}

// AsError unwraps err into the gateway error taxonomy.
func AsError(err error) (*Error, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// BadRequest builds the caller-input rejection raised before any network call.
func BadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: msg}
}

// quotaPattern recognises provider billing/quota failures that arrive as plain
// 400s from the service but must not be presented as caller mistakes.
var quotaPattern = regexp.MustCompile(`(?i)insufficient[_ ]quota|quota exceeded|exceeded your current quota|billing`)

// classify maps an upstream HTTP status and response body into the taxonomy.
func classify(status int, body []byte) *Error {
	detail := errorDetail(body)

	switch {
	case status == http.StatusBadRequest:
		if quotaPattern.MatchString(detail) {
			return &Error{Status: http.StatusPaymentRequired, Code: CodeQuotaExceeded, Message: detail}
		}
		return &Error{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: detail}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Status: status, Code: CodeUnauthorized, Message: detail}
	case status == http.StatusNotFound:
		return &Error{Status: http.StatusBadGateway, Code: CodeEndpointNotFound, Message: "ai service endpoint not found"}
	case status == http.StatusTooManyRequests:
		return &Error{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: detail}
	case status >= 500:
		return &Error{Status: http.StatusServiceUnavailable, Code: CodeServiceError, Message: detail}
	default:
		return &Error{Status: status, Code: CodeUpstream, Message: detail}
	}
}

// unreachable wraps a transport-level failure (timeout, refused connection,
// DNS) where no response arrived at all.
func unreachable(err error) *Error {
	return &Error{
		Status:  http.StatusServiceUnavailable,
		Code:    CodeServiceUnavailable,
		Message: fmt.Sprintf("ai service unreachable: %s", err),
	}
}

// retryable reports whether another attempt may succeed. Transport failures,
// 5xx responses and 429s qualify; every other 4xx is the caller's problem.
func (e *Error) retryable() bool {
	switch e.Code {
	case CodeServiceUnavailable, CodeServiceError, CodeRateLimited:
		return true
	}
	return false
}

// errorDetail extracts the service's {"detail": "..."} payload, falling back
// to the raw body.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Detail) != "" {
		return utils.TruncateForLog(parsed.Detail, maxDetailLength)
	}

	detail := utils.TruncateForLog(string(body), maxDetailLength)
	if detail == "" {
		detail = "no error detail provided"
	}
	return detail
}
