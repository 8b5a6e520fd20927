// Package catalog builds the source audio collection: it searches
// Freesound, downloads the high-quality OGG previews, and persists the
// sound metadata next to the downloaded files.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-mosaic/logging"
)

const (
	defaultBaseURL  = "https://freesound.org/apiv2"
	defaultFilter   = "duration:[0 TO 30]"
	defaultPageSize = 10

	// Fields requested from the search endpoint; everything the
	// metadata table keeps plus the preview URLs.
	searchFields = "id,name,username,previews,license,tags"
)

// Query describes one text search against Freesound
type Query struct {
	Text       string `json:"query"`
	Filter     string `json:"filter,omitempty"`
	NumResults int    `json:"num_results,omitempty"`
}

// Sound is the subset of a Freesound sound record the pipeline uses
type Sound struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	License  string   `json:"license"`
	Tags     []string `json:"tags"`
	Previews struct {
		HQOgg string `json:"preview-hq-ogg"`
	} `json:"previews"`
}

type searchResponse struct {
	Results []Sound `json:"results"`
}

// Client talks to the Freesound API. The token comes from the
// FREESOUND_API_KEY environment variable unless set explicitly.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	maxRetries  int
	baseBackoff time.Duration
	logger      logging.Logger
}

// ClientConfig holds client construction options
type ClientConfig struct {
	BaseURL     string        `json:"base_url"`
	Token       string        `json:"-"`
	MaxRetries  int           `json:"max_retries"`
	BaseBackoff time.Duration `json:"base_backoff"`
}

// DefaultClientConfig returns the standard client configuration, with
// the API token read from the environment
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:     defaultBaseURL,
		Token:       os.Getenv("FREESOUND_API_KEY"),
		MaxRetries:  defaultMaxRetries,
		BaseBackoff: defaultBackoff,
	}
}

// NewClient constructs a Freesound client. An empty token is an error:
// every API endpoint requires one.
func NewClient(httpClient *http.Client, config ClientConfig) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("catalog: missing API token (set FREESOUND_API_KEY)")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       config.Token,
		maxRetries:  config.MaxRetries,
		baseBackoff: config.BaseBackoff,
		logger: logging.WithFields(logging.Fields{
			"component": "catalog_client",
		}),
	}, nil
}

// TextSearch runs one text query and returns the first page of results.
// An empty filter falls back to the short-sounds default so collections
// stay made of segmentable clips.
func (c *Client) TextSearch(ctx context.Context, query Query) ([]Sound, error) {
	filter := query.Filter
	if filter == "" {
		filter = defaultFilter
	}
	pageSize := query.NumResults
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	params := url.Values{}
	params.Set("query", query.Text)
	params.Set("filter", filter)
	params.Set("fields", searchFields)
	params.Set("group_by_pack", "1")
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("token", c.token)

	reqURL := fmt.Sprintf("%s/search/text/?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: search %q: status %d", query.Text, resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("catalog: decode search response: %w", err)
	}

	c.logger.Debug("Search complete", logging.Fields{
		"query":   query.Text,
		"filter":  filter,
		"results": len(sr.Results),
	})
	return sr.Results, nil
}

// DownloadPreview fetches the sound's high-quality OGG preview into dir
// and returns the local path. The filename is taken from the preview
// URL, matching what the metadata table records.
func (c *Client) DownloadPreview(ctx context.Context, sound Sound, dir string) (string, error) {
	if sound.Previews.HQOgg == "" {
		return "", fmt.Errorf("catalog: sound %d has no OGG preview", sound.ID)
	}

	previewURL := sound.Previews.HQOgg
	if strings.Contains(previewURL, "?") {
		previewURL += "&token=" + url.QueryEscape(c.token)
	} else {
		previewURL += "?token=" + url.QueryEscape(c.token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return "", fmt.Errorf("catalog: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("catalog: download sound %d: status %d", sound.ID, resp.StatusCode)
	}

	localPath := filepath.Join(dir, PreviewFilename(sound))
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("catalog: %w", err)
	}
	defer f.Close()

	if _, err := f.ReadFrom(resp.Body); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("catalog: save sound %d: %w", sound.ID, err)
	}
	return localPath, nil
}

// PreviewFilename returns the local filename for a sound's OGG preview
func PreviewFilename(sound Sound) string {
	base := path.Base(sound.Previews.HQOgg)
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == "." || base == "/" {
		base = fmt.Sprintf("%d.ogg", sound.ID)
	}
	return base
}

// DownloadCollection runs every query, downloads each resulting preview
// into dir, and returns the metadata entries in download order. The
// directory is created if missing.
func (c *Client) DownloadCollection(ctx context.Context, queries []Query, dir string) ([]Entry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	var sounds []Sound
	for _, q := range queries {
		results, err := c.TextSearch(ctx, q)
		if err != nil {
			return nil, err
		}
		sounds = append(sounds, results...)
	}

	entries := make([]Entry, 0, len(sounds))
	for i, sound := range sounds {
		c.logger.Info("Downloading sound", logging.Fields{
			"id":       sound.ID,
			"progress": fmt.Sprintf("%d/%d", i+1, len(sounds)),
		})
		localPath, err := c.DownloadPreview(ctx, sound, dir)
		if err != nil {
			return nil, err
		}
		entries = append(entries, NewEntry(sound, localPath))
	}

	c.logger.Info("Collection downloaded", logging.Fields{
		"sounds": len(entries),
		"dir":    dir,
	})
	return entries, nil
}
