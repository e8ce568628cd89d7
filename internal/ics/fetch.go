package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "ducktape/internal/log"
)

// maxBody caps remote calendars.
const maxBody = 10 << 20

// Payload is a calendar body and where it came from.
type Payload struct {
	Ref       string
	Body      []byte
	FromCache bool
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher loads calendars from disk or over HTTP. Remote bodies are kept
// in a disk cache and revalidated with ETag / Last-Modified.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher returns a Fetcher caching under cacheDir; an empty cacheDir
// disables the cache. A nil client gets a 15 second timeout.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// Load reads ref, which is a file path or an http(s)/webcal URL.
func (f *Fetcher) Load(ctx context.Context, ref string) (Payload, error) {
	if u, err := url.Parse(ref); err == nil && u.Host != "" {
		switch strings.ToLower(u.Scheme) {
		case "webcal":
			u.Scheme = "https"
			return f.Fetch(ctx, u.String())
		case "http", "https":
			return f.Fetch(ctx, ref)
		}
	}
	body, err := os.ReadFile(ref)
	if err != nil {
		return Payload{}, fmt.Errorf("ics: %w", err)
	}
	return Payload{Ref: ref, Body: body}, nil
}

// Fetch downloads rawURL. On 304, or on failure with a cached copy, the
// cached body is returned.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Payload, error) {
	dir := f.entryDir(rawURL)
	var (
		meta   cacheMeta
		cached []byte
	)
	if dir != "" {
		meta, _ = readMeta(dir)
		cached, _ = os.ReadFile(filepath.Join(dir, "body.ics"))
	}
	fallback := func(reason error) (Payload, error) {
		if len(cached) == 0 {
			return Payload{}, reason
		}
		appLog.Warn("ics fetch failed, using cached body", "url", redactURL(rawURL), "err", reason)
		return Payload{Ref: rawURL, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("ics: %w", err)
	}
	if len(cached) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(fmt.Errorf("ics: fetch %s: %w", redactURL(rawURL), err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return fallback(fmt.Errorf("ics: read %s: %w", redactURL(rawURL), err))
		}
		next := cacheMeta{
			URL:          rawURL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := writeCache(dir, next, body); err != nil {
			appLog.Error("ics cache save failed", err, "url", redactURL(rawURL))
		}
		appLog.Info("ics fetched", "url", redactURL(rawURL), "bytes", len(body))
		return Payload{Ref: rawURL, Body: body}, nil
	case http.StatusNotModified:
		if len(cached) == 0 {
			return Payload{}, errors.New("ics: 304 Not Modified without a cached body")
		}
		appLog.Info("ics not modified", "url", redactURL(rawURL))
		return Payload{Ref: rawURL, Body: cached, FromCache: true}, nil
	default:
		return fallback(fmt.Errorf("ics: fetch %s: HTTP %d", redactURL(rawURL), resp.StatusCode))
	}
}

// entryDir is empty when caching is off.
func (f *Fetcher) entryDir(rawURL string) string {
	if f.cacheDir == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func readMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

// writeCache stores the body before the metadata so the metadata never
// points at a missing body.
func writeCache(dir string, meta cacheMeta, body []byte) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host; calendar URLs often embed tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
