// Package analytics records what learners do on concept pages.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event types.
const (
	ConceptViewed     = "concept_viewed"
	QuizAnswered      = "quiz_answered"
	ConceptCompleted  = "concept_completed"
	AnimationFallback = "animation_fallback"
	QuizMisconfigured = "quiz_misconfigured"
	MatchingSolved    = "matching_solved"
)

const dbTimeout = 5 * time.Second

var errTypeRequired = errors.New("event type is required")

// Event represents an analytics event persisted to the events table.
type Event struct {
	SessionID string
	Topic     string
	Concept   string
	Type      string
	Data      map[string]any
	CreatedAt time.Time
}

// TypeCount is the number of events of one type.
type TypeCount struct {
	Type  string
	Count int
}

// EventLogger defines event logging behavior.
type EventLogger interface {
	LogEvent(event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(Event) error {
	return nil
}

// MemoryEventLogger stores events in memory for tests.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		events: []Event{},
	}
}

func (l *MemoryEventLogger) LogEvent(event Event) error {
	if event.Type == "" {
		return errTypeRequired
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// OfType returns the recorded events of type typ.
func (l *MemoryEventLogger) OfType(typ string) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Summary counts events for topic by type, most frequent first.
func (l *MemoryEventLogger) Summary(_ context.Context, topic string) ([]TypeCount, error) {
	l.mu.Lock()
	counts := map[string]int{}
	for _, e := range l.events {
		if e.Topic == topic {
			counts[e.Type]++
		}
	}
	l.mu.Unlock()

	out := make([]TypeCount, 0, len(counts))
	for typ, n := range counts {
		out = append(out, TypeCount{Type: typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

// PostgresEventLogger inserts events into the events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

func (l *PostgresEventLogger) LogEvent(event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.Type == "" {
		return errTypeRequired
	}
	if event.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO events (session_id, topic, concept, event_type, data, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5::jsonb, $6)`,
		event.SessionID,
		event.Topic,
		nullIfEmpty(event.Concept),
		event.Type,
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.Type,
		"session_id", event.SessionID,
		"topic", event.Topic,
		"concept", event.Concept,
	)
	return nil
}

// Summary counts events for topic by type, most frequent first.
func (l *PostgresEventLogger) Summary(ctx context.Context, topic string) ([]TypeCount, error) {
	if l == nil || l.pool == nil {
		return nil, fmt.Errorf("event logger pool is nil")
	}

	rows, err := l.pool.Query(ctx,
		`SELECT event_type, count(*)::int
		 FROM events
		 WHERE topic = $1
		 GROUP BY event_type
		 ORDER BY count(*) DESC, event_type`,
		topic,
	)
	if err != nil {
		return nil, fmt.Errorf("query event summary: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TypeCount, error) {
		var tc TypeCount
		err := row.Scan(&tc.Type, &tc.Count)
		return tc, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan event summary: %w", err)
	}
	return counts, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
