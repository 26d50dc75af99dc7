package httputil

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func makeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request: &http.Request{
			URL: &url.URL{Scheme: "https", Host: "api.example.com", Path: "/v1/thing"},
		},
	}
}

func TestParseErrorResponseSuccess(t *testing.T) {
	resp := makeResponse(200, `{"ok":true}`)
	if err := ParseErrorResponse(resp); err != nil {
		t.Fatalf("expected nil for 200, got %v", err)
	}
}

func TestParseErrorResponseFailure(t *testing.T) {
	resp := makeResponse(401, `{"message":"Authenticate"}`)
	err := ParseErrorResponse(resp)
	if err == nil {
		t.Fatal("expected error for 401")
	}

	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != 401 {
		t.Errorf("expected status 401, got %d", httpErr.StatusCode)
	}
	if !strings.Contains(httpErr.Body, "Authenticate") {
		t.Errorf("expected body in error, got %q", httpErr.Body)
	}

	// Body must still be readable after parsing
	bodyBytes, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(bodyBytes), "Authenticate") {
		t.Error("expected response body to be re-readable")
	}
}

func TestParseErrorResponseTruncatesBody(t *testing.T) {
	long := strings.Repeat("x", MaxErrorBodySize*2)
	err := ParseErrorResponse(makeResponse(500, long))

	httpErr := err.(*HTTPError)
	if len(httpErr.Body) > MaxErrorBodySize+3 {
		t.Errorf("expected truncated body, got %d bytes", len(httpErr.Body))
	}
	if !strings.HasSuffix(httpErr.Body, "...") {
		t.Error("expected truncation marker")
	}
}

func TestStatusOf(t *testing.T) {
	err := ParseErrorResponse(makeResponse(429, "slow down"))
	wrapped := fmt.Errorf("twilio send: %w", err)

	if got := StatusOf(wrapped); got != 429 {
		t.Errorf("expected 429 through wrap, got %d", got)
	}
	if got := StatusOf(fmt.Errorf("plain error")); got != 0 {
		t.Errorf("expected 0 for non-HTTP error, got %d", got)
	}
}
