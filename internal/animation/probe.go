package animation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrAssetNotFound is returned by a Prober when the asset does not exist.
var ErrAssetNotFound = errors.New("animation asset not found")

// Prober checks that an animation asset exists without loading it and
// returns where it can be loaded from.
type Prober interface {
	Probe(ctx context.Context, name string) (string, error)
}

// HTTPProber issues HEAD {base}/static/animations/{name}.json.
type HTTPProber struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProber creates a prober rooted at baseURL. A nil client gets a
// default with a 5s timeout.
func NewHTTPProber(baseURL string, client *http.Client) *HTTPProber {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPProber{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *HTTPProber) Probe(ctx context.Context, name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	location := p.baseURL + "/static/animations/" + url.PathEscape(name) + ".json"

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, location, nil)
	if err != nil {
		return "", fmt.Errorf("building probe for %s: %w", name, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probing %s: %w", name, err)
	}
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return location, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	default:
		return "", fmt.Errorf("probing %s: status %d", name, resp.StatusCode)
	}
}

// DirProber looks for {dir}/{name}.json on the local filesystem.
type DirProber struct {
	dir string
}

// NewDirProber creates a prober over a local animations directory.
func NewDirProber(dir string) *DirProber {
	return &DirProber{dir: dir}
}

func (p *DirProber) Probe(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkName(name); err != nil {
		return "", err
	}
	path := filepath.Join(p.dir, name+".json")
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("probing %s: %w", name, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrAssetNotFound, name)
	}
	return path, nil
}

// checkName rejects names that would escape the animations directory.
func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: invalid name %q", ErrAssetNotFound, name)
	}
	return nil
}
