package probe

import (
	"context"
	"fmt"
	"time"
)

// Attempt is what a single successful fetch reports.
type Attempt struct {
	StatusCode int
	Elapsed    time.Duration
}

// Checker performs one fetch-and-validate attempt against a URL. It reports
// failures; it never retries.
type Checker interface {
	Check(ctx context.Context, target string) (Attempt, error)
}

// Kind classifies why an attempt failed.
type Kind int

const (
	KindRequest Kind = iota + 1
	KindMissingHeader
	KindHeaderMismatch
	KindBodyRead
	KindBodyValidation
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindMissingHeader:
		return "missing_header"
	case KindHeaderMismatch:
		return "header_mismatch"
	case KindBodyRead:
		return "body_read"
	case KindBodyValidation:
		return "body_validation"
	default:
		return "unknown"
	}
}

// CheckError is the failure of one attempt. Error() is the human-readable
// reason carried into the final result.
type CheckError struct {
	Kind     Kind
	Header   string
	Expected string
	Actual   string
	Err      error
}

func (e *CheckError) Error() string {
	switch e.Kind {
	case KindRequest:
		return fmt.Sprintf("request error: %v", e.Err)
	case KindMissingHeader:
		return "missing required header: " + e.Header
	case KindHeaderMismatch:
		return fmt.Sprintf("header mismatch: %s expected '%s' got '%s'", e.Header, e.Expected, e.Actual)
	case KindBodyRead:
		return fmt.Sprintf("body read error: %v", e.Err)
	case KindBodyValidation:
		return fmt.Sprintf("body validation failed: missing substring '%s'", e.Expected)
	default:
		return "unknown error"
	}
}

func (e *CheckError) Unwrap() error { return e.Err }
