package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"clipnote/internal/domain"
)

const (
	webUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	maxContentChars = 10000
	// Below this the selector pass is considered to have missed the
	// article and the readability fallback kicks in.
	minSelectorChars = 200
)

// contentSelectors are tried in order; the first match wins. The page
// body is the fallback.
var contentSelectors = []string{
	"article",
	"main",
	".content",
	".post-content",
	".entry-content",
	".article-content",
	"#content",
	".main-content",
}

var junkSelector = "script, style, nav, header, footer, aside, .advertisement, .ads, .sidebar"

var whitespaceRe = regexp.MustCompile(`\s+`)

// WebFetcher extracts readable text and a cover image from web pages.
type WebFetcher struct {
	client *http.Client
}

// NewWebFetcher wires an HTTP client; a nil client gets a 30s timeout default.
func NewWebFetcher(client *http.Client) *WebFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebFetcher{client: client}
}

// Fetch downloads the page and extracts title, main text, cover image
// and light metadata.
func (f *WebFetcher) Fetch(ctx context.Context, pageURL string) (*domain.SourceContent, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d %s", pageURL, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	title := extractTitle(doc)
	metadata := extractPageMetadata(doc)
	coverImage := extractCoverImage(doc, base)

	doc.Find(junkSelector).Remove()
	text := extractMainContent(doc)

	if len(text) < minSelectorChars {
		if fallback := readabilityText(body, base); len(fallback) > len(text) {
			text = fallback
		}
	}
	text = truncate(text, maxContentChars)

	return &domain.SourceContent{
		Title:      title,
		Text:       text,
		URL:        pageURL,
		CoverImage: coverImage,
		Metadata:   metadata,
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}
	if title = collapseWhitespace(title); title == "" {
		title = "Untitled"
	}
	return title
}

func extractMainContent(doc *goquery.Document) string {
	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			main = sel
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}
	return collapseWhitespace(main.Text())
}

func extractPageMetadata(doc *goquery.Document) *domain.MemoMetadata {
	meta := &domain.MemoMetadata{}
	if v, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok {
		meta.Author = strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		meta.PublishedDate = strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		meta.Description = strings.TrimSpace(v)
	}
	if *meta == (domain.MemoMetadata{}) {
		return nil
	}
	return meta
}

// imageCandidate tracks where a cover candidate came from so the
// Open Graph source can be preferred.
type imageCandidate struct {
	url    string
	fromOG bool
}

func extractCoverImage(doc *goquery.Document, base *url.URL) string {
	var candidates []imageCandidate

	add := func(src string, fromOG bool) {
		src = strings.TrimSpace(src)
		if src == "" {
			return
		}
		abs, err := base.Parse(src)
		if err != nil {
			return
		}
		candidates = append(candidates, imageCandidate{url: abs.String(), fromOG: fromOG})
	}

	doc.Find(`meta[property="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("content", ""), true)
	})
	doc.Find(`meta[name="twitter:image"], meta[name="twitter:image:src"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("content", ""), false)
	})
	doc.Find(`link[rel="apple-touch-icon"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("href", ""), false)
	})
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if src == "" {
			src = s.AttrOr("data-src", "")
		}
		if src == "" {
			src = s.AttrOr("data-lazy-src", "")
		}
		add(src, false)
	})

	return selectBestCoverImage(candidates)
}

var imageExtRe = regexp.MustCompile(`\.(jpg|jpeg|png|webp|gif)$`)

func selectBestCoverImage(candidates []imageCandidate) string {
	if len(candidates) == 0 {
		return ""
	}
	for _, c := range candidates {
		if c.fromOG {
			return c.url
		}
	}
	for _, c := range candidates {
		lower := strings.ToLower(c.url)
		if strings.Contains(lower, "icon") ||
			strings.Contains(lower, "logo") ||
			strings.Contains(lower, "avatar") ||
			strings.Contains(lower, "favicon") ||
			strings.Contains(lower, "apple-touch") {
			continue
		}
		path := lower
		if idx := strings.IndexAny(path, "?#"); idx >= 0 {
			path = path[:idx]
		}
		if imageExtRe.MatchString(path) {
			return c.url
		}
	}
	return candidates[0].url
}

func readabilityText(body []byte, base *url.URL) string {
	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(body), base)
	if err != nil {
		return ""
	}
	return collapseWhitespace(article.TextContent)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
