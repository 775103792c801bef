// Package scrape extracts page metadata used to prefill manually added notes.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// maxBody caps how much of a page is read.
const maxBody = 2 << 20

// Metadata is what a page says about itself.
type Metadata struct {
	Title       string
	Description string
	Cover       string // absolute URL or empty
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchMetadata downloads url and parses its metadata. Non-http URLs yield
// empty metadata without a request.
func FetchMetadata(ctx context.Context, doer Doer, url string) (Metadata, error) {
	if !strings.HasPrefix(url, "http") {
		return Metadata{}, nil
	}
	if doer == nil {
		doer = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := doer.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Metadata{}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return ParseMetadata(io.LimitReader(resp.Body, maxBody))
}

// ParseMetadata reads the document title, description and cover image.
// The description comes from meta description, then og:description. The
// cover comes from og:image, then twitter:image. og:title stands in for a
// missing <title>.
func ParseMetadata(r io.Reader) (Metadata, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Metadata{}, err
	}

	var title string
	meta := make(map[string]string)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "title":
				if title == "" {
					title = getTextContent(n)
				}
				return
			case "meta":
				key := getAttr(n, "property")
				if key == "" {
					key = getAttr(n, "name")
				}
				key = strings.ToLower(key)
				if _, seen := meta[key]; key != "" && !seen {
					meta[key] = getAttr(n, "content")
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	md := Metadata{
		Title:       title,
		Description: firstOf(meta, "description", "og:description"),
		Cover:       firstOf(meta, "og:image", "twitter:image"),
	}
	if md.Title == "" {
		md.Title = meta["og:title"]
	}
	md.Title = strings.TrimSpace(md.Title)
	md.Description = strings.TrimSpace(md.Description)

	// Relative covers cannot be resolved without the page URL.
	if md.Cover != "" && !strings.HasPrefix(md.Cover, "http") {
		md.Cover = ""
	}
	return md, nil
}

func firstOf(meta map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := meta[k]; v != "" {
			return v
		}
	}
	return ""
}

func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
