package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/gigfinder/internal/model"
)

const (
	// DefaultTimeout bounds a single source fetch.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxResults caps the records returned by one Search call.
	DefaultMaxResults = 50

	maxBodyBytes = 8 << 20
	userAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// challengeTitles are page titles served by anti-automation interstitials.
var challengeTitles = []string{
	"just a moment",
	"access denied",
	"attention required",
	"verify you are human",
}

const challengeSelector = "#challenge-form, #cf-challenge-running, .cf-browser-verification, #px-captcha"

// Options are the per-source settings shared by all adapters.
type Options struct {
	BaseURL    string        // overrides the public site, e.g. for tests
	Timeout    time.Duration // zero means DefaultTimeout
	MaxResults int           // zero means DefaultMaxResults
}

func (o Options) withDefaults(baseURL string) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	return o
}

// get performs one GET bounded by timeout and returns the body of a 2xx
// response. Challenge pages yield model.ErrBlocked, other non-2xx statuses a
// *model.HTTPError.
func get(ctx context.Context, client *http.Client, rawURL string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if looksLikeChallenge(body) {
			return nil, model.ErrBlocked
		}
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return body, nil
}

// getDocument fetches rawURL and parses it as HTML.
func getDocument(ctx context.Context, client *http.Client, rawURL string, timeout time.Duration) (*goquery.Document, error) {
	body, err := get(ctx, client, rawURL, timeout)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	if isChallenge(doc) {
		return nil, model.ErrBlocked
	}
	return doc, nil
}

// looksLikeChallenge reports whether a raw body is an HTML challenge page.
func looksLikeChallenge(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		return false
	}
	return isChallenge(doc)
}

func isChallenge(doc *goquery.Document) bool {
	title := strings.ToLower(cleanText(doc.Find("title").First().Text()))
	for _, marker := range challengeTitles {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return doc.Find(challengeSelector).Length() > 0
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
