package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/bookmarkd/internal/utils"
)

const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxBodyBytes = 2 << 20
	DefaultFetchRate    = 2.0

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

var (
	ErrUnsupportedURL = errors.New("unsupported url")
	ErrBadStatus      = errors.New("unexpected status")
)

// Page is the readable part of a fetched document.
type Page struct {
	URL   string
	Title string
	Text  string
}

type FetcherOptions struct {
	Client       *http.Client
	Timeout      time.Duration
	RatePerSec   float64 // outbound requests per second, shared by every caller
	MaxBodyBytes int64
	UserAgent    string
}

// Fetcher downloads pages for title extraction and classification.
// Concurrent fetches of the same URL share one request.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	maxBody int64
	ua      string
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = DefaultFetchRate
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
		maxBody: opts.MaxBodyBytes,
		ua:      opts.UserAgent,
	}
}

// Fetch returns the parsed page at rawURL. A caller giving up does not cancel
// the request shared with other callers.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target, err := checkURL(rawURL)
	if err != nil {
		return nil, err
	}

	ch := f.group.DoChan(target, func() (any, error) {
		return f.fetch(context.WithoutCancel(ctx), target)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Page), nil
	}
}

func (f *Fetcher) fetch(ctx context.Context, target string) (*Page, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d from %s", ErrBadStatus, resp.StatusCode, target)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBody), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	page, err := ParsePage(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target, err)
	}
	page.URL = target
	return page, nil
}

func checkURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrUnsupportedURL)
	}
	return u.String(), nil
}

// ParsePage extracts the title and the visible text of an HTML document.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var (
		title string
		text  []string
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			case "title":
				if title == "" {
					title = collapse(nodeText(n))
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if s := collapse(n.Data); s != "" {
				text = append(text, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return &Page{Title: title, Text: strings.Join(text, " ")}, nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
