package opengraph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

const samplePage = `<!DOCTYPE html>
<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="Pay Invoice #42" />
<meta property="og:description" content="Secure checkout" />
<meta property="og:image" content="https://cdn.example.com/card.png" />
<meta content="Stripe" property="og:site_name" />
</head><body>hi</body></html>`

func TestFetchExtractsOpenGraphTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	p, err := NewFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.Title != "Pay Invoice #42" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Description != "Secure checkout" {
		t.Errorf("description = %q", p.Description)
	}
	if p.Image != "https://cdn.example.com/card.png" {
		t.Errorf("image = %q", p.Image)
	}
	if p.SiteName != "Stripe" {
		t.Errorf("siteName = %q (reversed attribute order should parse)", p.SiteName)
	}
}

func TestFetchFallsBackToTitleTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Plain Page</title></head><body></body></html>`))
	}))
	defer srv.Close()

	p, err := NewFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.Title != "Plain Page" {
		t.Errorf("title = %q, want title tag fallback", p.Title)
	}
}

func TestFetchRejectsNonHTTP(t *testing.T) {
	f := NewFetcher()
	for _, raw := range []string{"ftp://example.com", "javascript:alert(1)", "not a url", ""} {
		if _, err := f.Fetch(context.Background(), raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestClipKeepsRuneBoundary(t *testing.T) {
	// 3-byte runes put the 512-byte mark mid-rune.
	long := strings.Repeat("€", 200)
	got := clip(long)
	if len(got) > maxPreviewLen {
		t.Errorf("len = %d, want <= %d", len(got), maxPreviewLen)
	}
	if !utf8.ValidString(got) {
		t.Error("clip split a multi-byte rune")
	}
	if got != strings.Repeat("€", 170) {
		t.Errorf("unexpected cut point: %d bytes", len(got))
	}

	short := "plain title"
	if clip(short) != short {
		t.Error("short value must pass through unchanged")
	}
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewFetcher().Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 500 upstream")
	}
}
