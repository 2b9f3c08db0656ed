// Package quiz runs the one-shot multiple-choice quiz and the matching
// puzzle shown on a concept page.
package quiz

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/p-n-ai/playground/internal/concept"
)

var (
	// ErrNoQuiz is returned when choosing on a board with no quiz.
	ErrNoQuiz = errors.New("no quiz rendered")
	// ErrLocked is returned for any choice after the first.
	ErrLocked = errors.New("quiz already answered")
	// ErrReadOnly is returned when choosing on a misconfigured quiz.
	ErrReadOnly = errors.New("quiz is read-only")
	// ErrNoOption is returned for an option index outside the board.
	ErrNoOption = errors.New("no such option")
)

// Mark is the highlight state of an option.
type Mark int

const (
	Unmarked Mark = iota
	MarkedCorrect
	MarkedIncorrect
)

func (m Mark) String() string {
	switch m {
	case MarkedCorrect:
		return "correct"
	case MarkedIncorrect:
		return "incorrect"
	default:
		return "unmarked"
	}
}

// Option is one rendered answer.
type Option struct {
	Text string
	Mark Mark
}

// Board is the rendered state of the quiz pane.
type Board struct {
	Concept  string
	Question string
	Options  []Option
	// Placeholder is set when the concept has no quiz.
	Placeholder bool
	// ReadOnly is set when the quiz is misconfigured and cannot be answered.
	ReadOnly bool
	// Locked is set once an answer has been chosen.
	Locked   bool
	Feedback string
}

// Outcome is the result of the single answer a board accepts.
type Outcome struct {
	Concept string
	Correct bool
	Chosen  string
	// Matching is set when the outcome comes from a solved matching puzzle.
	Matching bool
}

// Engine holds the currently rendered board. Render replaces it wholesale.
type Engine struct {
	mu        sync.Mutex
	quiz      *concept.Quiz
	board     Board
	onOutcome func(Outcome)
}

// NewEngine creates an engine showing an empty placeholder.
func NewEngine() *Engine {
	return &Engine{board: Board{Placeholder: true, Feedback: NoQuizText}}
}

// Feedback shown on the quiz pane.
const (
	NoQuizText    = "No quiz for this one!"
	CorrectText   = "Awesome! Correct! 🎉"
	IncorrectText = "Not quite! The correct answer is highlighted."
	ReadOnlyText  = "This quiz is being fixed. Try the next one!"
)

// Render shows quiz for the concept key and resets all lock state. A nil quiz
// renders the placeholder. A misconfigured quiz renders read-only and is
// logged; onOutcome never fires for either.
func (e *Engine) Render(key string, q *concept.Quiz, onOutcome func(Outcome)) Board {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onOutcome = onOutcome
	e.quiz = nil

	if q == nil {
		e.board = Board{Concept: key, Placeholder: true, Feedback: NoQuizText}
		return e.snapshotLocked()
	}

	e.quiz = &concept.Quiz{Question: q.Question, Options: slices.Clone(q.Options), Answer: q.Answer}
	e.board = Board{
		Concept:  key,
		Question: q.Question,
		Options:  make([]Option, len(q.Options)),
	}
	for i, text := range q.Options {
		e.board.Options[i] = Option{Text: text}
	}

	c := concept.Concept{Key: key, Quiz: e.quiz}
	if err := c.ValidateQuiz(); err != nil {
		slog.Warn("quiz rendered read-only", "concept", key, "error", err)
		e.board.ReadOnly = true
		e.board.Feedback = ReadOnlyText
	}

	return e.snapshotLocked()
}

// Choose answers the quiz with the option at index i. Only the first valid
// choice counts; the outcome callback runs once, after the board is updated.
func (e *Engine) Choose(i int) (Outcome, error) {
	e.mu.Lock()

	switch {
	case e.quiz == nil:
		e.mu.Unlock()
		return Outcome{}, ErrNoQuiz
	case e.board.ReadOnly:
		e.mu.Unlock()
		return Outcome{}, ErrReadOnly
	case e.board.Locked:
		e.mu.Unlock()
		return Outcome{}, ErrLocked
	case i < 0 || i >= len(e.board.Options):
		e.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %d", ErrNoOption, i)
	}

	e.board.Locked = true
	chosen := e.board.Options[i].Text
	out := Outcome{Concept: e.board.Concept, Chosen: chosen, Correct: chosen == e.quiz.Answer}

	if out.Correct {
		e.board.Options[i].Mark = MarkedCorrect
		e.board.Feedback = CorrectText
	} else {
		e.board.Options[i].Mark = MarkedIncorrect
		if j := e.quiz.AnswerIndex(); j >= 0 {
			e.board.Options[j].Mark = MarkedCorrect
		}
		e.board.Feedback = IncorrectText
	}

	cb := e.onOutcome
	e.mu.Unlock()

	if cb != nil {
		cb(out)
	}
	return out, nil
}

// Board returns a copy of the current board.
func (e *Engine) Board() Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Board {
	b := e.board
	b.Options = slices.Clone(e.board.Options)
	return b
}
