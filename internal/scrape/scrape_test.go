package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Metadata
	}{
		{
			name: "title and plain meta",
			html: `<html><head><title> Go Proverbs </title>
				<meta name="description" content=" Simple, poetic. ">
				<meta property="og:description" content="ignored">
				<meta property="og:image" content="https://example.com/c.png">
				<meta name="twitter:image" content="https://example.com/t.png">
				</head><body></body></html>`,
			want: Metadata{Title: "Go Proverbs", Description: "Simple, poetic.", Cover: "https://example.com/c.png"},
		},
		{
			name: "open graph fallbacks",
			html: `<html><head>
				<meta property="og:title" content="OG Title">
				<meta property="og:description" content="OG description">
				<meta name="twitter:image" content="https://example.com/t.png">
				</head></html>`,
			want: Metadata{Title: "OG Title", Description: "OG description", Cover: "https://example.com/t.png"},
		},
		{
			name: "relative cover dropped",
			html: `<html><head><title>T</title><meta property="og:image" content="/img/c.png"></head></html>`,
			want: Metadata{Title: "T"},
		},
		{
			name: "uppercase tags and attributes",
			html: `<HTML><HEAD><TITLE>Upper</TITLE><META NAME="Description" CONTENT="desc"></HEAD></HTML>`,
			want: Metadata{Title: "Upper", Description: "desc"},
		},
		{
			name: "empty document",
			html: ``,
			want: Metadata{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMetadata(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("ParseMetadata failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFetchMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<title>Served</title>`))
	}))
	defer srv.Close()

	got, err := FetchMetadata(context.Background(), srv.Client(), srv.URL+"/page")
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}
	if got.Title != "Served" {
		t.Errorf("expected title %q, got %q", "Served", got.Title)
	}

	if _, err := FetchMetadata(context.Background(), srv.Client(), srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404 page")
	}
}

func TestFetchMetadata_NonHTTP(t *testing.T) {
	got, err := FetchMetadata(context.Background(), nil, "ftp://example.com")
	if err != nil || got != (Metadata{}) {
		t.Errorf("expected empty metadata without error, got %+v, %v", got, err)
	}
}
