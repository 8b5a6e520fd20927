package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(nil, ClientConfig{
		BaseURL:     baseURL,
		Token:       "test-token",
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(nil, ClientConfig{}); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestTextSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "organ" {
			t.Errorf("query = %q, want organ", got)
		}
		if got := r.URL.Query().Get("filter"); got != "duration:[0 TO 30]" {
			t.Errorf("filter = %q, want short-sounds default", got)
		}
		if got := r.URL.Query().Get("token"); got != "test-token" {
			t.Errorf("token = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [
			{"id": 1234, "name": "church organ", "username": "alice",
			 "license": "CC0", "tags": ["organ", "church"],
			 "previews": {"preview-hq-ogg": "https://cdn.example/previews/1234_hq.ogg"}}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	sounds, err := client.TextSearch(context.Background(), Query{Text: "organ"})
	if err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if len(sounds) != 1 {
		t.Fatalf("got %d sounds, want 1", len(sounds))
	}
	s := sounds[0]
	if s.ID != 1234 || s.Name != "church organ" || s.Username != "alice" {
		t.Errorf("sound = %+v", s)
	}
	if s.Previews.HQOgg != "https://cdn.example/previews/1234_hq.ogg" {
		t.Errorf("preview URL = %q", s.Previews.HQOgg)
	}
}

func TestTextSearchRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.TextSearch(context.Background(), Query{Text: "violin"}); err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d calls, want 2 (one retry)", calls.Load())
	}
}

func TestTextSearchGivesUpAfterMaxRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.TextSearch(context.Background(), Query{Text: "scream"}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestDownloadPreview(t *testing.T) {
	payload := []byte("OggS fake audio payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	sound := Sound{ID: 55}
	sound.Previews.HQOgg = server.URL + "/previews/55_hq.ogg"

	dir := t.TempDir()
	localPath, err := client.DownloadPreview(context.Background(), sound, dir)
	if err != nil {
		t.Fatalf("DownloadPreview: %v", err)
	}
	if filepath.Base(localPath) != "55_hq.ogg" {
		t.Errorf("local filename = %q, want 55_hq.ogg", filepath.Base(localPath))
	}
}

func TestDownloadPreviewMissingURL(t *testing.T) {
	client := newTestClient(t, "http://unused")
	if _, err := client.DownloadPreview(context.Background(), Sound{ID: 9}, t.TempDir()); err == nil {
		t.Fatal("expected error for sound without preview")
	}
}

func TestEntriesRoundTrip(t *testing.T) {
	entries := []Entry{
		{
			CollectionID: "1234",
			Name:         "church organ",
			Username:     "alice",
			License:      "CC0",
			Tags:         []string{"organ", "church"},
			Path:         "files/1234_hq.ogg",
		},
		{
			CollectionID: "5678",
			Name:         "violin, pizzicato",
			Username:     "bob",
			License:      "CC BY 4.0",
			Path:         "files/5678_hq.ogg",
		},
	}

	path := filepath.Join(t.TempDir(), "dataframe.csv")
	if err := SaveEntries(path, entries); err != nil {
		t.Fatalf("SaveEntries: %v", err)
	}

	loaded, err := LoadEntries(path)
	if err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	if len(loaded) != len(entries) {
		t.Fatalf("loaded %d entries, want %d", len(loaded), len(entries))
	}
	for i, e := range entries {
		got := loaded[i]
		if got.CollectionID != e.CollectionID || got.Name != e.Name ||
			got.Username != e.Username || got.License != e.License || got.Path != e.Path {
			t.Errorf("entry %d = %+v, want %+v", i, got, e)
		}
		if len(got.Tags) != len(e.Tags) {
			t.Errorf("entry %d has %d tags, want %d", i, len(got.Tags), len(e.Tags))
		}
	}
}
