// Package content fetches pages under test and extracts their visible text.
// The excerpt enriches vision prompts with copy the screenshot may render
// too small to read reliably.
package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxBodySize limits the response body read when fetching page content.
// 5MB covers any sane HTML page while preventing memory exhaustion.
const maxBodySize = 5 * 1024 * 1024

// Fetcher retrieves visible page text over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// FetchText downloads a page and returns its visible text. Failures return
// an error; callers treat missing content as a prompt without an excerpt,
// not a failed analysis.
func (f *Fetcher) FetchText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("cannot build content request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot fetch page content: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page content fetch returned status %d", resp.StatusCode)
	}

	return ExtractText(io.LimitReader(resp.Body, maxBodySize))
}

// ExtractText parses HTML and returns its visible text with whitespace
// collapsed.
//
// Design decision: We use golang.org/x/net/html rather than regex because
// it correctly handles malformed HTML and gives a proper node tree to walk.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("cannot parse HTML: %w", err)
	}

	var b strings.Builder
	collectText(doc, &b)
	return collapseWhitespace(b.String()), nil
}

// collectText walks the node tree depth-first, appending text content.
// Script, style, and noscript bodies are code, not page copy; they are
// skipped entirely.
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// collapseWhitespace reduces any whitespace run to a single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
