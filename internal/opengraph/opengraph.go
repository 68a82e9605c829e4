// Package opengraph fetches link previews for payment links pasted
// into the quote editor.
package opengraph

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

// Preview is the subset of OpenGraph metadata the editor shows.
type Preview struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
}

type Fetcher struct {
	client *resty.Client
}

func NewFetcher() *Fetcher {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", "PingQuote-LinkPreview/1.0").
		SetHeader("Accept", "text/html")
	return &Fetcher{client: client}
}

// metaRe matches <meta property="og:x" content="y"> in either
// attribute order.
var (
	metaRe        = regexp.MustCompile(`(?is)<meta[^>]+property=["']og:([a-z_:]+)["'][^>]*>`)
	contentRe     = regexp.MustCompile(`(?is)content=["']([^"']*)["']`)
	titleTagRe    = regexp.MustCompile(`(?is)<title[^>]*>([^<]*)</title>`)
	reversedRe    = regexp.MustCompile(`(?is)<meta[^>]+content=["']([^"']*)["'][^>]+property=["']og:([a-z_:]+)["']`)
	maxPreviewLen = 512
)

// Fetch downloads the page and extracts its OpenGraph tags. Only
// http(s) targets are accepted.
func (f *Fetcher) Fetch(ctx context.Context, raw string) (*Preview, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid preview url %q", raw)
	}

	resp, err := f.client.R().SetContext(ctx).Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("fetch preview: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch preview: status %d", resp.StatusCode())
	}

	p := parse(resp.String())
	p.URL = u.String()
	return p, nil
}

func parse(html string) *Preview {
	tags := make(map[string]string)
	for _, m := range metaRe.FindAllString(html, -1) {
		prop := metaRe.FindStringSubmatch(m)[1]
		if c := contentRe.FindStringSubmatch(m); c != nil {
			setTag(tags, prop, c[1])
		}
	}
	for _, m := range reversedRe.FindAllStringSubmatch(html, -1) {
		setTag(tags, m[2], m[1])
	}

	p := &Preview{
		Title:       tags["title"],
		Description: tags["description"],
		Image:       tags["image"],
		SiteName:    tags["site_name"],
	}
	if p.Title == "" {
		if t := titleTagRe.FindStringSubmatch(html); t != nil {
			p.Title = clip(t[1])
		}
	}
	return p
}

func setTag(tags map[string]string, prop, content string) {
	if _, seen := tags[prop]; !seen {
		tags[prop] = clip(content)
	}
}

// clip bounds a tag value, backing up to a rune boundary so a
// multi-byte character is never split.
func clip(s string) string {
	if len(s) <= maxPreviewLen {
		return s
	}
	cut := maxPreviewLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
