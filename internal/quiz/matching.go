package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/p-n-ai/playground/internal/concept"
)

var (
	// ErrNoPuzzle is returned when placing on a board with no puzzle.
	ErrNoPuzzle = errors.New("no matching puzzle rendered")
	// ErrSolved is returned for placements after the puzzle is solved.
	ErrSolved = errors.New("puzzle already solved")
)

// Feedback shown on the matching pane.
const (
	MatchingTitle  = "Match the pairs"
	MatchedText    = "Great! All matched correctly! 🎉"
	KeepTryingText = "Keep trying..."
)

// MatchRow is one left item and the right item placed on it, if any.
type MatchRow struct {
	Left   string
	Placed string
}

// MatchBoard is the rendered state of a matching puzzle. Active is false
// when the concept has no puzzle.
type MatchBoard struct {
	Concept string
	Active  bool
	Rows    []MatchRow
	// Rights is the shuffled right column.
	Rights   []string
	Solved   bool
	Feedback string
}

// Matcher runs the matching puzzle of the current concept. Placements can be
// changed freely until every row holds its own right item; the outcome
// callback then fires once.
type Matcher struct {
	mu       sync.Mutex
	pairs    []concept.Pair
	board    MatchBoard
	onSolved func(Outcome)
	shuffle  func([]string)
}

// NewMatcher creates a matcher. A nil shuffle uses math/rand.
func NewMatcher(shuffle func([]string)) *Matcher {
	if shuffle == nil {
		shuffle = func(s []string) {
			rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		}
	}
	return &Matcher{shuffle: shuffle}
}

// Render shows m for the concept key. A nil or empty puzzle clears the
// board.
func (m *Matcher) Render(key string, mt *concept.Matching, onSolved func(Outcome)) MatchBoard {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onSolved = onSolved
	m.pairs = nil
	m.board = MatchBoard{Concept: key}
	if mt == nil || len(mt.Pairs) == 0 {
		return m.snapshotLocked()
	}

	m.pairs = slices.Clone(mt.Pairs)
	m.board.Active = true
	m.board.Rows = make([]MatchRow, len(m.pairs))
	m.board.Rights = make([]string, len(m.pairs))
	for i, p := range m.pairs {
		m.board.Rows[i] = MatchRow{Left: p.Left}
		m.board.Rights[i] = p.Right
	}
	m.shuffle(m.board.Rights)
	return m.snapshotLocked()
}

// Place puts the right item at index right onto row. Placing onto a row
// that already holds an item replaces it.
func (m *Matcher) Place(row, right int) (MatchBoard, error) {
	m.mu.Lock()

	switch {
	case !m.board.Active:
		m.mu.Unlock()
		return MatchBoard{}, ErrNoPuzzle
	case m.board.Solved:
		m.mu.Unlock()
		return MatchBoard{}, ErrSolved
	case row < 0 || row >= len(m.board.Rows):
		m.mu.Unlock()
		return MatchBoard{}, fmt.Errorf("%w: row %d", ErrNoOption, row)
	case right < 0 || right >= len(m.board.Rights):
		m.mu.Unlock()
		return MatchBoard{}, fmt.Errorf("%w: item %d", ErrNoOption, right)
	}

	m.board.Rows[row].Placed = m.board.Rights[right]

	solved := true
	for i, p := range m.pairs {
		if m.board.Rows[i].Placed != p.Right {
			solved = false
			break
		}
	}

	var cb func(Outcome)
	if solved {
		m.board.Solved = true
		m.board.Feedback = MatchedText
		cb = m.onSolved
	} else {
		m.board.Feedback = KeepTryingText
	}
	board := m.snapshotLocked()
	m.mu.Unlock()

	if cb != nil {
		cb(Outcome{Concept: board.Concept, Correct: true, Matching: true})
	}
	return board, nil
}

// Board returns a copy of the current board.
func (m *Matcher) Board() MatchBoard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Matcher) snapshotLocked() MatchBoard {
	b := m.board
	b.Rows = slices.Clone(m.board.Rows)
	b.Rights = slices.Clone(m.board.Rights)
	return b
}
