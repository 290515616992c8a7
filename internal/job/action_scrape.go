package job

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// ScrapeAction fetches a page, selects elements with a CSS selector, and
// succeeds when at least MinMatches elements are present. The first matched
// element is converted to markdown and carried as the run output.
type ScrapeAction struct {
	URL        string
	Selector   string
	MinMatches int

	client    *http.Client
	converter *md.Converter
}

// NewScrapeAction validates and builds a scrape action.
func NewScrapeAction(rawURL, selector string, minMatches int) (*ScrapeAction, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("scrape action requires a url")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("scrape action has invalid url %q", rawURL)
	}
	if selector == "" {
		return nil, fmt.Errorf("scrape action requires a selector")
	}
	if minMatches <= 0 {
		minMatches = 1
	}

	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:    "atx",
		CodeBlockStyle:  "fenced",
		EmDelimiter:     "*",
		StrongDelimiter: "**",
	})

	return &ScrapeAction{
		URL:        rawURL,
		Selector:   selector,
		MinMatches: minMatches,
		client:     http.DefaultClient,
		converter:  converter,
	}, nil
}

func (a *ScrapeAction) Kind() string { return "scrape" }

func (a *ScrapeAction) Execute(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", a.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("request to %s returned %s", a.URL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page %s: %w", a.URL, err)
	}

	sel := doc.Find(a.Selector)
	if sel.Length() < a.MinMatches {
		return "", fmt.Errorf("selector %q matched %d element(s) on %s, want at least %d",
			a.Selector, sel.Length(), a.URL, a.MinMatches)
	}

	fragment, err := goquery.OuterHtml(sel.First())
	if err != nil {
		return "", fmt.Errorf("failed to render matched element: %w", err)
	}

	markdown, err := a.converter.ConvertString(fragment)
	if err != nil {
		// Selection succeeded; a conversion failure should not fail the job.
		return fmt.Sprintf("%d element(s) matched %q on %s", sel.Length(), a.Selector, a.URL), nil
	}

	return truncateOutput(strings.TrimSpace(markdown)), nil
}
