// Package websearch fetches short background snippets for prompts.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"topicgraph/application/ports"

	"github.com/PuerkitoBio/goquery"
)

// DefaultEndpoint is the HTML-only DuckDuckGo frontend
const DefaultEndpoint = "https://lite.duckduckgo.com/lite/"

const userAgent = "Mozilla/5.0 (compatible; topicgraph/1.0)"

// DuckDuckGo scrapes result snippets from the lite frontend
type DuckDuckGo struct {
	endpoint string
	client   *http.Client
}

var _ ports.WebSearcher = (*DuckDuckGo)(nil)

func NewDuckDuckGo(endpoint string, timeout time.Duration) *DuckDuckGo {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &DuckDuckGo{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Search returns up to maxResults snippets that mention query
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}
	return extract(doc, query, maxResults), nil
}

func extract(doc *goquery.Document, query string, maxResults int) []string {
	needle := strings.ToLower(strings.TrimSpace(query))
	seen := make(map[string]struct{})
	var lines []string

	doc.Find(".result-snippet, .result__snippet").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		line := strings.Join(strings.Fields(s.Text()), " ")
		if line == "" || !strings.Contains(strings.ToLower(line), needle) {
			return true
		}
		if _, dup := seen[line]; dup {
			return true
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
		return maxResults <= 0 || len(lines) < maxResults
	})
	return lines
}
