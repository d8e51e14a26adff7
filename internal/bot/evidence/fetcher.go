// Package evidence retrieves a linked forum profile page and extracts the
// activity-post text blocks that may contain a verification phrase.
package evidence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/skobelev/gatewarden/internal/common"
	"github.com/skobelev/gatewarden/internal/logging"
)

// maxBodySize bounds how much of a profile page is read. Forum profile
// pages are well under this.
const maxBodySize = 2 << 20 // 2MB

// Fetcher produces the evidence strings for one verification link, in
// document order. An empty slice means the page had no activity posts.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]string, error)
}

// HTTPFetcher fetches profile pages over HTTP with a static session-cookie
// bundle and extracts text from elements carrying the configured CSS
// classes.
type HTTPFetcher struct {
	client  *http.Client
	cookies map[string]string
	classes []string
	logger  logging.Logger
}

// NewHTTPFetcher builds a fetcher. activityClass is the space-separated CSS
// class list an activity-post content block carries; timeout bounds each
// fetch end to end.
func NewHTTPFetcher(cookies map[string]string, activityClass string, timeout time.Duration, logger logging.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		cookies: cookies,
		classes: strings.Fields(activityClass),
		logger:  logger,
	}
}

// Fetch performs the GET and returns one string per activity post. A
// non-2xx response yields common.ErrFetch; the caller treats that as a
// retryable-by-the-user condition and mutates nothing.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrFetch, err)
	}
	for name, value := range f.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", common.ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", common.ErrFetch, err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing page: %v", common.ErrFetch, err)
	}

	posts := f.extractPosts(doc)
	for _, post := range posts {
		f.logger.Debug(ctx, "found activity post", "url", url, "text", post)
	}
	return posts, nil
}

// extractPosts walks the document and collects the text of every element
// whose class attribute carries all configured classes, in document order.
func (f *HTTPFetcher) extractPosts(doc *html.Node) []string {
	var posts []string

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && f.matchesClasses(n) {
			posts = append(posts, extractText(n))
			// nested matches would only repeat the parent's text
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return posts
}

func (f *HTTPFetcher) matchesClasses(n *html.Node) bool {
	if len(f.classes) == 0 {
		return false
	}

	var classAttr string
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			classAttr = attr.Val
			break
		}
	}
	if classAttr == "" {
		return false
	}

	have := map[string]struct{}{}
	for _, c := range strings.Fields(classAttr) {
		have[c] = struct{}{}
	}
	for _, want := range f.classes {
		if _, ok := have[want]; !ok {
			return false
		}
	}
	return true
}

// extractText joins all text nodes under n into one whitespace-normalized
// string.
func extractText(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			for _, word := range strings.Fields(node.Data) {
				if sb.Len() > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(word)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return sb.String()
}
