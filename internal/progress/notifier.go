package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// HTTPNotifier posts completions to {base}/update_progress. The server keys
// progress on a session cookie set by its index page. When the client has a
// cookie jar and holds no cookie for the server yet, the first completion
// fetches {base}/ to open the session. Without a jar no cookie is sent.
type HTTPNotifier struct {
	baseURL string
	client  *http.Client

	mu      sync.Mutex
	session bool
}

// NewHTTPNotifier creates a notifier rooted at baseURL.
func NewHTTPNotifier(baseURL string, client *http.Client) *HTTPNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPNotifier{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (n *HTTPNotifier) NotifyCompletion(ctx context.Context, c Completion) error {
	n.openSession(ctx)

	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/update_progress", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building progress request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting progress: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The response body is only logged.
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("progress update rejected: status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	slog.Debug("progress update accepted", "topic", c.Topic, "status", resp.StatusCode, "body", string(bytes.TrimSpace(data)))
	return nil
}

// openSession loads the index page once so the jar picks up the session
// cookie. Failures are logged and the post goes ahead without it.
func (n *HTTPNotifier) openSession(ctx context.Context) {
	if n.client.Jar == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.session {
		return
	}

	base, err := url.Parse(n.baseURL + "/")
	if err != nil {
		slog.Warn("progress session skipped", "error", err)
		return
	}
	if len(n.client.Jar.Cookies(base)) > 0 {
		n.session = true
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		slog.Warn("progress session skipped", "error", err)
		return
	}
	resp, err := n.client.Do(req)
	if err != nil {
		slog.Warn("opening progress session failed", "error", err)
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	n.session = len(n.client.Jar.Cookies(base)) > 0
	slog.Debug("progress session opened", "status", resp.StatusCode, "cookie", n.session)
}
