// Package feed polls news and social feeds for disaster reports and submits
// each new item to the prediction service.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bluesky-social/indigo/xrpc"
	"github.com/mmcdole/gofeed"
)

// Item is one post or article fetched from a source. ID is stable across
// polls and is used to skip items already submitted.
type Item struct {
	ID     string
	Text   string
	Source string
}

// Source fetches the current items of one feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
}

// DefaultQueries are the Google News searches polled when no sources file is given.
var DefaultQueries = []string{
	"Flood India",
	"Earthquake India",
	"Landslide India",
	"Fire India",
	"Cyclone India",
	"Tsunami India",
	"Drought India",
}

// GoogleNewsURL returns the Google News RSS search URL for query, scoped to India.
func GoogleNewsURL(query string) string {
	return "https://news.google.com/rss/search?q=" + url.QueryEscape(query) + "&hl=en-IN&gl=IN&ceid=IN:en"
}

// RSSSource reads an RSS or Atom feed.
type RSSSource struct {
	name   string
	url    string
	parser *gofeed.Parser
}

// NewRSSSource creates a source for feedURL fetched with client.
func NewRSSSource(name, feedURL string, client *http.Client) *RSSSource {
	parser := gofeed.NewParser()
	parser.Client = client
	return &RSSSource{name: name, url: feedURL, parser: parser}
}

func (s *RSSSource) Name() string { return s.name }

// Fetch returns one item per entry, with text "title. summary".
func (s *RSSSource) Fetch(ctx context.Context) ([]Item, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", s.name, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		id := firstNonEmpty(entry.Link, entry.GUID, entry.Title)
		if id == "" {
			continue
		}
		title := firstNonEmpty(entry.Title, "No Title")
		items = append(items, Item{
			ID:     id,
			Text:   title + ". " + firstNonEmpty(entry.Description, entry.Content),
			Source: s.name,
		})
	}
	return items, nil
}

const (
	// BlueskyPublicHost serves unauthenticated feed reads.
	BlueskyPublicHost = "https://public.api.bsky.app"
	feedMethod        = "app.bsky.feed.getFeed"
	defaultFeedLimit  = 10
)

type feedResponse struct {
	Cursor string `json:"cursor"`
	Feed   []struct {
		Post struct {
			URI    string `json:"uri"`
			Record struct {
				Text string `json:"text"`
			} `json:"record"`
		} `json:"post"`
	} `json:"feed"`
}

// BlueskySource reads a Bluesky feed generator.
type BlueskySource struct {
	name    string
	feedURI string
	limit   int
	client  *xrpc.Client
}

// NewBlueskySource creates a source for the feed generator at feedURI.
// The limit is clamped to the API's 1..100 range.
func NewBlueskySource(name, feedURI string, limit int, client *xrpc.Client) *BlueskySource {
	switch {
	case limit <= 0:
		limit = defaultFeedLimit
	case limit > 100:
		limit = 100
	}
	return &BlueskySource{name: name, feedURI: feedURI, limit: limit, client: client}
}

// NewBlueskyClient returns an unauthenticated XRPC client for host.
func NewBlueskyClient(host string, httpClient *http.Client) *xrpc.Client {
	if host == "" {
		host = BlueskyPublicHost
	}
	return &xrpc.Client{Client: httpClient, Host: host}
}

func (s *BlueskySource) Name() string { return s.name }

// Fetch returns the posts of the feed that carry text.
func (s *BlueskySource) Fetch(ctx context.Context) ([]Item, error) {
	params := map[string]interface{}{
		"feed":  s.feedURI,
		"limit": s.limit,
	}
	var out feedResponse
	if err := s.client.Do(ctx, xrpc.Query, "json", feedMethod, params, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch bluesky feed %s: %w", s.name, err)
	}

	items := make([]Item, 0, len(out.Feed))
	for _, entry := range out.Feed {
		text := strings.TrimSpace(entry.Post.Record.Text)
		if entry.Post.URI == "" || text == "" {
			continue
		}
		items = append(items, Item{ID: entry.Post.URI, Text: text, Source: s.name})
	}
	return items, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
