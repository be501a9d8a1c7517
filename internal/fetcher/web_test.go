package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}))
}

func TestWebFetchExtractsArticle(t *testing.T) {
	long := strings.Repeat("Useful article text. ", 30)
	srv := serveHTML(t, `<html><head>
		<title>My Post</title>
		<meta name="author" content="Ada">
		<meta property="og:image" content="/images/cover.png">
	</head><body>
		<nav>skip this menu</nav>
		<article>`+long+`</article>
		<footer>skip the footer</footer>
	</body></html>`)
	defer srv.Close()

	f := NewWebFetcher(srv.Client())
	content, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if content.Title != "My Post" {
		t.Fatalf("Title = %q", content.Title)
	}
	if !strings.Contains(content.Text, "Useful article text.") {
		t.Fatalf("Text missing article body: %q", content.Text)
	}
	if strings.Contains(content.Text, "skip this menu") || strings.Contains(content.Text, "skip the footer") {
		t.Fatalf("Text kept junk elements: %q", content.Text)
	}
	if content.CoverImage != srv.URL+"/images/cover.png" {
		t.Fatalf("CoverImage = %q", content.CoverImage)
	}
	if content.Metadata == nil || content.Metadata.Author != "Ada" {
		t.Fatalf("Metadata = %+v", content.Metadata)
	}
}

func TestWebFetchTitleFallbacks(t *testing.T) {
	srv := serveHTML(t, `<html><head></head><body><h1>  Heading
	Title </h1><p>text</p></body></html>`)
	defer srv.Close()

	f := NewWebFetcher(srv.Client())
	content, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if content.Title != "Heading Title" {
		t.Fatalf("Title = %q", content.Title)
	}
}

func TestWebFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewWebFetcher(srv.Client())
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 page")
	}
}

func TestWebFetchTruncatesLongContent(t *testing.T) {
	srv := serveHTML(t, "<html><head><title>Big</title></head><body><article>"+
		strings.Repeat("word ", 5000)+"</article></body></html>")
	defer srv.Close()

	f := NewWebFetcher(srv.Client())
	content, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len([]rune(content.Text)) > maxContentChars+3 {
		t.Fatalf("Text length = %d, want <= %d", len(content.Text), maxContentChars+3)
	}
	if !strings.HasSuffix(content.Text, "...") {
		t.Fatalf("truncated text should end with ellipsis: %q", content.Text[len(content.Text)-10:])
	}
}

func TestSelectBestCoverImage(t *testing.T) {
	cases := []struct {
		name       string
		candidates []imageCandidate
		want       string
	}{
		{"empty", nil, ""},
		{
			"og wins over earlier img",
			[]imageCandidate{
				{url: "https://x.test/inline.jpg"},
				{url: "https://x.test/og.jpg", fromOG: true},
			},
			"https://x.test/og.jpg",
		},
		{
			"skips icons and logos",
			[]imageCandidate{
				{url: "https://x.test/favicon.png"},
				{url: "https://x.test/logo.png"},
				{url: "https://x.test/photo.jpg"},
			},
			"https://x.test/photo.jpg",
		},
		{
			"extension checked without query string",
			[]imageCandidate{
				{url: "https://x.test/photo.webp?w=1200"},
			},
			"https://x.test/photo.webp?w=1200",
		},
		{
			"falls back to first candidate",
			[]imageCandidate{
				{url: "https://x.test/icon-large.png"},
				{url: "https://x.test/banner-no-ext"},
			},
			"https://x.test/icon-large.png",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := selectBestCoverImage(tc.candidates); got != tc.want {
				t.Fatalf("selectBestCoverImage = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractCoverImageResolvesRelative(t *testing.T) {
	srv := serveHTML(t, `<html><body><img src="../static/pic.jpg"></body></html>`)
	defer srv.Close()

	f := NewWebFetcher(srv.Client())
	content, err := f.Fetch(context.Background(), srv.URL+"/posts/1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasSuffix(content.CoverImage, "/static/pic.jpg") {
		t.Fatalf("CoverImage = %q", content.CoverImage)
	}
}
