// Package progress tracks which concepts of a topic were completed in the
// current session and reports first-time completions to the score service.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// ErrUnknownConcept is returned when marking a key outside the topic.
var ErrUnknownConcept = errors.New("unknown concept")

const (
	defaultScore         = 10
	defaultNotifyTimeout = 5 * time.Second
)

// Completion is sent to the score service on a first-time completion.
type Completion struct {
	Topic   string `json:"topic"`
	Concept string `json:"concept,omitempty"`
	Score   int    `json:"score"`
}

// Notifier receives first-time completions.
type Notifier interface {
	NotifyCompletion(ctx context.Context, c Completion) error
}

// NopNotifier drops all completions.
type NopNotifier struct{}

func (NopNotifier) NotifyCompletion(context.Context, Completion) error {
	return nil
}

// Mark is the result of MarkCompleted.
type Mark struct {
	AlreadyCompleted bool
}

// TrackerConfig holds the tracker's collaborators.
type TrackerConfig struct {
	Notifier      Notifier
	Score         int           // score per first-time completion (default 10)
	NotifyTimeout time.Duration // per-notification timeout (default 5s)
}

// Tracker holds the completion set for one topic session. The set only grows
// until the next Reset.
type Tracker struct {
	mu            sync.Mutex
	topic         string
	keys          []string
	completed     map[string]time.Time
	notifier      Notifier
	score         int
	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

// NewTracker creates a tracker with no concepts.
func NewTracker(cfg TrackerConfig) *Tracker {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	score := cfg.Score
	if score == 0 {
		score = defaultScore
	}
	timeout := cfg.NotifyTimeout
	if timeout == 0 {
		timeout = defaultNotifyTimeout
	}
	return &Tracker{
		completed:     make(map[string]time.Time),
		notifier:      notifier,
		score:         score,
		notifyTimeout: timeout,
	}
}

// Reset starts a new session for topic over keys.
func (t *Tracker) Reset(topic string, keys []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.topic = topic
	t.keys = slices.Clone(keys)
	t.completed = make(map[string]time.Time)
}

// MarkCompleted records key as completed. Marking a key twice reports
// AlreadyCompleted and does not notify again.
func (t *Tracker) MarkCompleted(key string) (Mark, error) {
	t.mu.Lock()
	if !slices.Contains(t.keys, key) {
		t.mu.Unlock()
		return Mark{}, fmt.Errorf("%w: %q", ErrUnknownConcept, key)
	}
	if _, done := t.completed[key]; done {
		t.mu.Unlock()
		return Mark{AlreadyCompleted: true}, nil
	}
	t.completed[key] = time.Now()
	completion := Completion{Topic: t.topic, Concept: key, Score: t.score}
	t.mu.Unlock()

	t.notify(completion)
	return Mark{}, nil
}

// notify sends the completion in the background. Failures are logged only;
// local completion state is authoritative.
func (t *Tracker) notify(c Completion) {
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.notifyTimeout)
		defer cancel()
		if err := t.notifier.NotifyCompletion(ctx, c); err != nil {
			slog.Warn("score notification failed",
				"topic", c.Topic,
				"concept", c.Concept,
				"error", err,
			)
			return
		}
		slog.Debug("score notification sent", "topic", c.Topic, "concept", c.Concept, "score", c.Score)
	}()
}

// Wait blocks until in-flight notifications finish.
func (t *Tracker) Wait() {
	t.pending.Wait()
}

// IsCompleted reports whether key was completed this session.
func (t *Tracker) IsCompleted(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.completed[key]
	return ok
}

// CompletionRatio returns completed/total in [0,1]; 0 for an empty topic.
func (t *Tracker) CompletionRatio() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.keys) == 0 {
		return 0
	}
	return float64(len(t.completed)) / float64(len(t.keys))
}

// ConceptStatus is one row of a progress snapshot.
type ConceptStatus struct {
	Key         string
	Completed   bool
	CompletedAt time.Time
}

// Snapshot is a point-in-time copy of a session's progress.
type Snapshot struct {
	Topic    string
	Ratio    float64
	Score    int
	Concepts []ConceptStatus
}

// Snapshot returns the current progress in concept order.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{Topic: t.topic, Concepts: make([]ConceptStatus, len(t.keys))}
	for i, key := range t.keys {
		at, done := t.completed[key]
		s.Concepts[i] = ConceptStatus{Key: key, Completed: done, CompletedAt: at}
	}
	if len(t.keys) > 0 {
		s.Ratio = float64(len(t.completed)) / float64(len(t.keys))
	}
	s.Score = len(t.completed) * t.score
	return s
}
