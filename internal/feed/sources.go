package feed

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// SourcesFile is the YAML layout of FEED_SOURCES_PATH.
//
//	rss:
//	  - name: flood
//	    query: Flood India
//	  - name: ndma
//	    url: https://example.org/alerts.xml
//	bluesky:
//	  host: https://public.api.bsky.app
//	  feeds:
//	    - name: fire
//	      uri: at://did:plc:.../app.bsky.feed.generator/...
//	      limit: 10
type SourcesFile struct {
	RSS     []RSSEntry `yaml:"rss"`
	Bluesky struct {
		Host  string         `yaml:"host"`
		Feeds []BlueskyEntry `yaml:"feeds"`
	} `yaml:"bluesky"`
}

// RSSEntry is an RSS feed given either as a Google News query or a URL.
type RSSEntry struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
	URL   string `yaml:"url"`
}

// BlueskyEntry is a Bluesky feed generator.
type BlueskyEntry struct {
	Name  string `yaml:"name"`
	URI   string `yaml:"uri"`
	Limit int    `yaml:"limit"`
}

// DefaultSources returns the Google News searches for DefaultQueries.
func DefaultSources(client *http.Client) []Source {
	sources := make([]Source, 0, len(DefaultQueries))
	for _, q := range DefaultQueries {
		sources = append(sources, NewRSSSource(q, GoogleNewsURL(q), client))
	}
	return sources
}

// LoadSources builds the sources listed in the YAML file at path. An empty
// path yields DefaultSources.
func LoadSources(path string, client *http.Client) ([]Source, error) {
	if path == "" {
		return DefaultSources(client), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed sources: %w", err)
	}
	var file SourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse feed sources %s: %w", path, err)
	}
	return file.build(client)
}

func (f SourcesFile) build(client *http.Client) ([]Source, error) {
	var sources []Source
	for i, e := range f.RSS {
		name := firstNonEmpty(e.Name, e.Query, e.URL)
		switch {
		case e.URL != "":
			sources = append(sources, NewRSSSource(name, e.URL, client))
		case e.Query != "":
			sources = append(sources, NewRSSSource(name, GoogleNewsURL(e.Query), client))
		default:
			return nil, fmt.Errorf("rss source %d: needs a query or url", i)
		}
	}

	if len(f.Bluesky.Feeds) > 0 {
		xc := NewBlueskyClient(f.Bluesky.Host, client)
		for i, e := range f.Bluesky.Feeds {
			if e.URI == "" {
				return nil, fmt.Errorf("bluesky feed %d: uri is required", i)
			}
			sources = append(sources, NewBlueskySource(firstNonEmpty(e.Name, e.URI), e.URI, e.Limit, xc))
		}
	}

	if len(sources) == 0 {
		return nil, errors.New("feed sources file lists no sources")
	}
	return sources, nil
}
