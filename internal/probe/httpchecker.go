package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/sitecheck/internal/config"
)

// MaxRedirects is how many redirects a single attempt follows.
const MaxRedirects = 2

// HTTPChecker issues one GET per attempt. A status of 400 or above fails the
// attempt; otherwise the response is validated against the configured header
// rules and body substring.
type HTTPChecker struct {
	Client   *http.Client
	Headers  []config.HeaderRule
	Contains string
}

// NewHTTPChecker builds a checker whose client applies timeout to connect,
// response read and the whole exchange.
func NewHTTPChecker(timeout time.Duration, headers []config.HeaderRule, contains string) *HTTPChecker {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   4,
	}
	return &HTTPChecker{
		Client: &http.Client{
			Timeout:       timeout,
			Transport:     tr,
			CheckRedirect: limitRedirects,
		},
		Headers:  headers,
		Contains: contains,
	}
}

func limitRedirects(_ *http.Request, via []*http.Request) error {
	if len(via) > MaxRedirects {
		return fmt.Errorf("stopped after %d redirects", MaxRedirects)
	}
	return nil
}

func (h *HTTPChecker) Check(ctx context.Context, target string) (Attempt, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Attempt{}, &CheckError{Kind: KindRequest, Err: err}
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return Attempt{}, &CheckError{Kind: KindRequest, Err: err}
	}
	// The body is only read when a substring is required; closing it is
	// enough to release the connection otherwise.
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Attempt{}, &CheckError{
			Kind: KindRequest,
			Err:  fmt.Errorf("%s: status code %d", target, resp.StatusCode),
		}
	}

	for _, rule := range h.Headers {
		values := resp.Header.Values(rule.Name)
		if len(values) == 0 {
			return Attempt{}, &CheckError{Kind: KindMissingHeader, Header: rule.Name}
		}
		if values[0] != rule.Value {
			return Attempt{}, &CheckError{
				Kind:     KindHeaderMismatch,
				Header:   rule.Name,
				Expected: rule.Value,
				Actual:   values[0],
			}
		}
	}

	if h.Contains != "" {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Attempt{}, &CheckError{Kind: KindBodyRead, Err: err}
		}
		if !strings.Contains(string(body), h.Contains) {
			return Attempt{}, &CheckError{Kind: KindBodyValidation, Expected: h.Contains}
		}
	}

	return Attempt{StatusCode: resp.StatusCode, Elapsed: time.Since(start)}, nil
}
