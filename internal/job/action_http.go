package job

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wasilibs/go-re2"
)

// maxBodyBytes bounds how much of a response body is read for matching.
const maxBodyBytes = 1 << 20

// HTTPAction performs a single HTTP request and succeeds when the response
// status is below 400 and, if a match pattern is configured, the body
// matches it.
type HTTPAction struct {
	Method  string
	URL     string
	Body    string
	Headers map[string]string

	match  *re2.Regexp
	client *http.Client
}

// NewHTTPAction validates and builds an HTTP action. matchPattern, when
// non-empty, is compiled eagerly so a bad pattern is a load-time error.
func NewHTTPAction(method, rawURL, body string, headers map[string]string, matchPattern string) (*HTTPAction, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("http action requires a url")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("http action has invalid url %q", rawURL)
	}

	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)

	var match *re2.Regexp
	if matchPattern != "" {
		match, err = re2.Compile(matchPattern)
		if err != nil {
			return nil, fmt.Errorf("http action has invalid match pattern %q: %w", matchPattern, err)
		}
	}

	return &HTTPAction{
		Method:  method,
		URL:     rawURL,
		Body:    body,
		Headers: headers,
		match:   match,
		client:  http.DefaultClient,
	}, nil
}

func (a *HTTPAction) Kind() string { return "http" }

func (a *HTTPAction) Execute(ctx context.Context) (string, error) {
	var bodyReader io.Reader
	if a.Body != "" {
		bodyReader = strings.NewReader(a.Body)
	}

	req, err := http.NewRequestWithContext(ctx, a.Method, a.URL, bodyReader)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", a.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("request to %s returned %s", a.URL, resp.Status)
	}

	if a.match != nil && !a.match.Match(body) {
		return "", fmt.Errorf("response from %s did not match pattern %q", a.URL, a.match.String())
	}

	return fmt.Sprintf("%s %s (%d bytes)", resp.Status, a.URL, len(body)), nil
}
