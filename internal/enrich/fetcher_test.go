package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html><head>
  <title>
    The Go   Programming Language
  </title>
  <style>body { color: red }</style>
  <script>var hidden = "nope";</script>
</head>
<body>
  <h1>Build simple, secure, scalable systems</h1>
  <noscript>enable js</noscript>
  <p>Go is an open source   programming language.</p>
</body></html>`

func newTestFetcher(client *http.Client) *Fetcher {
	return NewFetcher(FetcherOptions{Client: client, RatePerSec: 1000})
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage(strings.NewReader(samplePage))
	require.NoError(t, err)

	assert.Equal(t, "The Go Programming Language", page.Title)
	assert.Contains(t, page.Text, "Build simple, secure, scalable systems")
	assert.Contains(t, page.Text, "Go is an open source programming language.")
	assert.NotContains(t, page.Text, "hidden")
	assert.NotContains(t, page.Text, "color")
	assert.NotContains(t, page.Text, "enable js")
	assert.NotContains(t, page.Text, "The Go Programming Language")
}

func TestParsePageWithoutTitle(t *testing.T) {
	page, err := ParsePage(strings.NewReader("<p>just text</p>"))
	require.NoError(t, err)
	assert.Empty(t, page.Title)
	assert.Equal(t, "just text", page.Text)
}

func TestFetch(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	page, err := newTestFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "The Go Programming Language", page.Title)
	assert.Equal(t, srv.URL, page.URL)
	assert.Contains(t, ua, "Mozilla/5.0")
}

func TestFetchDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Café" in latin-1
		_, _ = w.Write([]byte("<title>Caf\xe9</title>"))
	}))
	defer srv.Close()

	page, err := newTestFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Café", page.Title)
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadStatus))
}

func TestFetchRejectsUnsupportedURLs(t *testing.T) {
	f := newTestFetcher(nil)
	for _, raw := range []string{"", "ftp://example.com/x", "file:///etc/passwd", "http://", "::not a url"} {
		_, err := f.Fetch(context.Background(), raw)
		assert.Truef(t, errors.Is(err, ErrUnsupportedURL), "url %q: %v", raw, err)
	}
}

func TestFetchLimitsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<title>kept</title><p>")
		fmt.Fprint(w, strings.Repeat("a", 4096))
		fmt.Fprint(w, "TAIL</p>")
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{Client: srv.Client(), RatePerSec: 1000, MaxBodyBytes: 1024})
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "kept", page.Title)
	assert.NotContains(t, page.Text, "TAIL")
}

func TestFetchCollapsesConcurrentRequests(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		fmt.Fprint(w, "<title>shared</title>")
	}))
	defer srv.Close()

	f := newTestFetcher(srv.Client())

	const callers = 8
	var wg sync.WaitGroup
	titles := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, err := f.Fetch(context.Background(), srv.URL)
			if err == nil {
				titles <- page.Title
			}
		}()
	}

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(titles)

	n := 0
	for title := range titles {
		assert.Equal(t, "shared", title)
		n++
	}
	assert.Equal(t, callers, n)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchCallerTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newTestFetcher(srv.Client()).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
