// Package concept holds the concept data model and the repositories that
// load a topic's concepts.
package concept

import (
	"fmt"
	"slices"
)

// Concept is one learnable unit within a topic.
type Concept struct {
	Key         string
	Title       string
	Explanation string
	Example     string
	Formula     string
	// Breakdown explains the formula one part at a time.
	Breakdown []FormulaPart
	Goal      string
	Animation string
	Quiz      *Quiz
	// Matching replaces the quiz with a pairing puzzle when set.
	Matching *Matching
}

// FormulaPart is one term of a formula breakdown.
type FormulaPart struct {
	Part        string
	Icon        string
	Description string
}

// Matching is a puzzle where each left item is paired with its right item.
type Matching struct {
	Pairs []Pair
}

// Pair is one left/right match.
type Pair struct {
	Left  string
	Right string
}

// DisplayTitle returns the title, falling back to the key.
func (c Concept) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Key
}

// HasExample reports whether the concept carries an example.
func (c Concept) HasExample() bool { return c.Example != "" }

// HasFormula reports whether the concept carries a formula.
func (c Concept) HasFormula() bool { return c.Formula != "" }

// HasBreakdown reports whether the formula carries a breakdown.
func (c Concept) HasBreakdown() bool { return len(c.Breakdown) > 0 }

// HasGoal reports whether the concept states a learning goal.
func (c Concept) HasGoal() bool { return c.Goal != "" }

// HasMatching reports whether the concept carries a matching puzzle with
// at least one pair.
func (c Concept) HasMatching() bool { return c.Matching != nil && len(c.Matching.Pairs) > 0 }

// HasAnimation reports whether the concept requests an animation.
func (c Concept) HasAnimation() bool { return c.Animation != "" }

// HasQuiz reports whether the concept carries a quiz.
func (c Concept) HasQuiz() bool { return c.Quiz != nil }

// Quiz is a single multiple-choice question.
type Quiz struct {
	Question string
	Options  []string
	Answer   string
}

// Validate checks that the quiz can be won: at least two options, and the
// answer matches one of them exactly (case-sensitive).
func (q Quiz) Validate() error {
	if len(q.Options) < 2 {
		return &ConfigurationError{Reason: fmt.Sprintf("quiz needs at least 2 options, got %d", len(q.Options))}
	}
	if !slices.Contains(q.Options, q.Answer) {
		return &ConfigurationError{Reason: fmt.Sprintf("answer %q is not one of the options", q.Answer)}
	}
	return nil
}

// AnswerIndex returns the index of the first option equal to the answer, or -1.
func (q Quiz) AnswerIndex() int {
	return slices.Index(q.Options, q.Answer)
}

// ValidateQuiz validates the concept's quiz, tagging errors with the concept key.
// A concept without a quiz is valid.
func (c Concept) ValidateQuiz() error {
	if c.Quiz == nil {
		return nil
	}
	if err := c.Quiz.Validate(); err != nil {
		if cfgErr, ok := err.(*ConfigurationError); ok {
			cfgErr.Concept = c.Key
			return cfgErr
		}
		return err
	}
	return nil
}

// Validate checks that every pair has both sides.
func (m Matching) Validate() error {
	for i, p := range m.Pairs {
		if p.Left == "" || p.Right == "" {
			return &ConfigurationError{Reason: fmt.Sprintf("matching pair %d needs both a left and a right side", i+1)}
		}
	}
	return nil
}

// ValidateMatching validates the concept's matching puzzle, tagging errors
// with the concept key.
func (c Concept) ValidateMatching() error {
	if c.Matching == nil {
		return nil
	}
	if err := c.Matching.Validate(); err != nil {
		if cfgErr, ok := err.(*ConfigurationError); ok {
			cfgErr.Concept = c.Key
			return cfgErr
		}
		return err
	}
	return nil
}

// clone returns a copy sharing no slices or pointers with c.
func (c Concept) clone() Concept {
	c.Quiz = c.Quiz.clone()
	c.Breakdown = slices.Clone(c.Breakdown)
	if c.Matching != nil {
		c.Matching = &Matching{Pairs: slices.Clone(c.Matching.Pairs)}
	}
	return c
}

func (q *Quiz) clone() *Quiz {
	if q == nil {
		return nil
	}
	cp := *q
	cp.Options = slices.Clone(q.Options)
	return &cp
}
