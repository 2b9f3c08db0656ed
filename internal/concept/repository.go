package concept

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// maxPayloadBytes caps a concept response body.
const maxPayloadBytes = 4 << 20

// Repository loads the concepts of a topic.
type Repository interface {
	Concepts(ctx context.Context, topic string) (*Set, error)
}

var knownTopics = []string{
	"astronomy",
	"biology",
	"chemistry",
	"electricity",
	"energy",
	"matter",
	"motion",
	"physics",
	"waves",
}

// KnownTopics returns the topic names the playground ships pages for.
func KnownTopics() []string {
	return slices.Clone(knownTopics)
}

// ValidTopic returns an error wrapping ErrUnknownTopic for names outside KnownTopics.
func ValidTopic(topic string) error {
	if slices.Contains(knownTopics, topic) {
		return nil
	}
	return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownTopic, topic, strings.Join(knownTopics, ", "))
}

// HTTPRepository fetches concepts from the content server's
// GET /get_concepts/{topic} endpoint.
type HTTPRepository struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRepository creates a repository rooted at baseURL. A nil client
// gets a default with a 10s timeout.
func NewHTTPRepository(baseURL string, client *http.Client) *HTTPRepository {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (r *HTTPRepository) Concepts(ctx context.Context, topic string) (*Set, error) {
	endpoint := r.baseURL + "/get_concepts/" + url.PathEscape(topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Topic: topic, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{Topic: topic, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Topic: topic, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, &FetchError{Topic: topic, Err: err}
	}

	set, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s concepts: %w", topic, err)
	}

	slog.Debug("concepts fetched", "topic", topic, "count", set.Len())
	return set, nil
}
