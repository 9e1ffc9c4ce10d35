package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Checker performs a single health-check evaluation.
type Checker interface {
	Evaluate(ctx context.Context, req CheckRequest) CheckResult
}

// Evaluator runs health checks: one HTTP fetch, value extraction per the
// request's mode, comparison against the expected value, and classification
// into up/down/unknown. It holds no mutable state and is safe for
// concurrent use.
type Evaluator struct {
	client *http.Client
}

// New returns an Evaluator whose fetches are bounded by timeout.
func New(timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Evaluator{client: &http.Client{Timeout: timeout}}
}

// NewWithClient returns an Evaluator using the given HTTP client.
func NewWithClient(client *http.Client) *Evaluator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Evaluator{client: client}
}

// Evaluate classifies the service described by req. It never returns a Go
// error: every failure mode is folded into the result, and an unexpected
// fault yields status unknown.
func (e *Evaluator) Evaluate(ctx context.Context, req CheckRequest) (result CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			result = unknown(fmt.Sprintf("internal fault during evaluation: %v", r))
		}
	}()

	switch req.Mode {
	case ModeStructuredAPI:
		return e.evaluateStructured(ctx, req)
	case ModeMarkupPage:
		return e.evaluateMarkup(ctx, req)
	default:
		return unknown(fmt.Sprintf("unsupported check mode %q", req.Mode))
	}
}

// fetch performs the GET and handles the failure modes shared by both
// modes. A non-empty reason means the check is already classified down and
// the response must not be used.
func (e *Evaluator) fetch(ctx context.Context, rawURL string) (*http.Response, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Sprintf("creating request: %v", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Sprintf("fetch failed: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode)
	}
	return resp, ""
}

func (e *Evaluator) evaluateStructured(ctx context.Context, req CheckRequest) CheckResult {
	resp, reason := e.fetch(ctx, req.URL)
	if reason != "" {
		return down(reason)
	}
	defer resp.Body.Close()

	if name, ok := jsonContentType(resp.Header.Get("Content-Type")); !ok {
		return down(fmt.Sprintf("unexpected content type %q", name))
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return down("failed to parse response")
	}

	extracted := FromAny(body).Dig(req.ExtractionPath)
	result := CheckResult{Value: extracted.Interface()}

	if req.ExpectedValue != nil {
		if strings.EqualFold(extracted.Stringify(), *req.ExpectedValue) {
			result.Status = StatusUp
		} else {
			result.Status = StatusDown
		}
		return result
	}
	if extracted.Truthy() {
		result.Status = StatusUp
	} else {
		result.Status = StatusDown
	}
	return result
}

func (e *Evaluator) evaluateMarkup(ctx context.Context, req CheckRequest) CheckResult {
	resp, reason := e.fetch(ctx, req.URL)
	if reason != "" {
		return down(reason)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return down("failed to parse response")
	}

	sel := doc.Find(req.Selector).First()
	if sel.Length() == 0 {
		return down("element not found")
	}

	text := strings.TrimSpace(sel.Text())
	result := CheckResult{Value: text}

	if req.ExpectedValue != nil {
		if strings.EqualFold(text, *req.ExpectedValue) {
			result.Status = StatusUp
		} else {
			result.Status = StatusDown
		}
		return result
	}
	// Presence of the element alone counts as up, even with empty text.
	result.Status = StatusUp
	return result
}

// jsonContentType reports whether the Content-Type header declares
// JSON-like data, returning the name to report when it does not.
func jsonContentType(header string) (string, bool) {
	if header == "" {
		return "unknown", false
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return header, false
	}
	if mediaType == "application/json" || mediaType == "text/json" || strings.HasSuffix(mediaType, "+json") {
		return mediaType, true
	}
	return mediaType, false
}
