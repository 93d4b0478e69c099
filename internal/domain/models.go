package domain

import (
	"encoding/json"
	"time"
)

// CheckResult is the final outcome of one URL in one round, produced after
// the retry policy either succeeded or ran out of attempts.
//
// A successful result carries the HTTP status code and the elapsed time of
// the successful attempt. A failed result carries the reason of the last
// attempt and reports zero elapsed time.
type CheckResult struct {
	URL        string
	Success    bool
	StatusCode int
	Reason     string
	Elapsed    time.Duration
	ObservedAt time.Time
}

// Succeeded builds a success outcome.
func Succeeded(url string, status int, elapsed time.Duration, at time.Time) CheckResult {
	return CheckResult{URL: url, Success: true, StatusCode: status, Elapsed: elapsed, ObservedAt: at.UTC()}
}

// Failed builds a failure outcome. Elapsed is always zero.
func Failed(url, reason string, at time.Time) CheckResult {
	return CheckResult{URL: url, Reason: reason, ObservedAt: at.UTC()}
}

// ElapsedMS returns the elapsed time in whole milliseconds.
func (r CheckResult) ElapsedMS() int64 {
	return r.Elapsed.Milliseconds()
}

type status struct {
	Ok  *int    `json:"Ok,omitempty"`
	Err *string `json:"Err,omitempty"`
}

type wireResult struct {
	URL          string    `json:"url"`
	Status       status    `json:"status"`
	ResponseTime int64     `json:"response_time"`
	Timestamp    time.Time `json:"timestamp"`
}

// MarshalJSON renders the result line consumed by log shippers:
// {"url":..,"status":{"Ok":200},"response_time":12,"timestamp":".."}
// or {"status":{"Err":"reason"}} for failures.
func (r CheckResult) MarshalJSON() ([]byte, error) {
	w := wireResult{
		URL:          r.URL,
		ResponseTime: r.ElapsedMS(),
		Timestamp:    r.ObservedAt.UTC(),
	}
	if r.Success {
		code := r.StatusCode
		w.Status.Ok = &code
	} else {
		reason := r.Reason
		w.Status.Err = &reason
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (r *CheckResult) UnmarshalJSON(b []byte) error {
	var w wireResult
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = CheckResult{
		URL:        w.URL,
		Elapsed:    time.Duration(w.ResponseTime) * time.Millisecond,
		ObservedAt: w.Timestamp,
	}
	switch {
	case w.Status.Ok != nil:
		r.Success = true
		r.StatusCode = *w.Status.Ok
	case w.Status.Err != nil:
		r.Reason = *w.Status.Err
	}
	return nil
}
