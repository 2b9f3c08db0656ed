package concept

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Set is an ordered, immutable collection of concepts. The order is the
// order in which the content source listed them and drives navigation.
type Set struct {
	keys  []string
	byKey map[string]Concept
}

// NewSet builds a set from concepts in order. A repeated key replaces the
// earlier concept but keeps the earlier position.
func NewSet(concepts ...Concept) *Set {
	s := &Set{byKey: make(map[string]Concept, len(concepts))}
	for _, c := range concepts {
		s.put(c)
	}
	return s
}

func (s *Set) put(c Concept) {
	if _, exists := s.byKey[c.Key]; !exists {
		s.keys = append(s.keys, c.Key)
	}
	s.byKey[c.Key] = c.clone()
}

// Len returns the number of concepts.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the concept keys in order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.keys)
}

// Get returns the concept with the given key.
func (s *Set) Get(key string) (Concept, bool) {
	if s == nil {
		return Concept{}, false
	}
	c, ok := s.byKey[key]
	if ok {
		c = c.clone()
	}
	return c, ok
}

// At returns the concept at position i.
func (s *Set) At(i int) (Concept, bool) {
	if s == nil || i < 0 || i >= len(s.keys) {
		return Concept{}, false
	}
	return s.Get(s.keys[i])
}

// All returns a copy of every concept in order.
func (s *Set) All() []Concept {
	out := make([]Concept, 0, s.Len())
	for i := range s.Len() {
		c, _ := s.At(i)
		out = append(out, c)
	}
	return out
}

// wireConcept accepts both the field names the content server emits and the
// longer aliases used by authoring tools.
type wireConcept struct {
	Title            string        `json:"title,omitempty"`
	Concept          string        `json:"concept,omitempty"`
	Definition       string        `json:"definition,omitempty"`
	ExplanationText  string        `json:"explanationText,omitempty"`
	Example          string        `json:"example,omitempty"`
	ExampleText      string        `json:"exampleText,omitempty"`
	Formula          string        `json:"formula,omitempty"`
	FormulaText      string        `json:"formulaText,omitempty"`
	FormulaBreakdown []wirePart    `json:"formula_breakdown,omitempty"`
	Goal             string        `json:"goal,omitempty"`
	Animation        string        `json:"animation,omitempty"`
	AnimationID      string        `json:"animationId,omitempty"`
	Quiz             *wireQuiz     `json:"quiz,omitempty"`
	Matching         *wireMatching `json:"matching,omitempty"`
}

type wirePart struct {
	Part        string `json:"part"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

type wireMatching struct {
	Pairs []wirePair `json:"pairs"`
}

type wirePair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type wireQuiz struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Answer        string   `json:"answer,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

func (w wireConcept) concept(key string) Concept {
	c := Concept{
		Key:         key,
		Title:       w.Title,
		Explanation: firstNonEmpty(w.Concept, w.Definition, w.ExplanationText),
		Example:     firstNonEmpty(w.Example, w.ExampleText),
		Formula:     firstNonEmpty(w.Formula, w.FormulaText),
		Goal:        w.Goal,
		Animation:   firstNonEmpty(w.Animation, w.AnimationID),
	}
	for _, p := range w.FormulaBreakdown {
		c.Breakdown = append(c.Breakdown, FormulaPart(p))
	}
	if w.Matching != nil {
		c.Matching = &Matching{}
		for _, p := range w.Matching.Pairs {
			c.Matching.Pairs = append(c.Matching.Pairs, Pair(p))
		}
	}
	if w.Quiz != nil {
		c.Quiz = &Quiz{
			Question: w.Quiz.Question,
			Options:  w.Quiz.Options,
			Answer:   firstNonEmpty(w.Quiz.Answer, w.Quiz.CorrectAnswer),
		}
	}
	return c
}

func toWire(c Concept) wireConcept {
	w := wireConcept{
		Title:      c.Title,
		Definition: c.Explanation,
		Example:    c.Example,
		Formula:    c.Formula,
		Goal:       c.Goal,
		Animation:  c.Animation,
	}
	for _, p := range c.Breakdown {
		w.FormulaBreakdown = append(w.FormulaBreakdown, wirePart(p))
	}
	if c.Matching != nil {
		w.Matching = &wireMatching{Pairs: []wirePair{}}
		for _, p := range c.Matching.Pairs {
			w.Matching.Pairs = append(w.Matching.Pairs, wirePair(p))
		}
	}
	if c.Quiz != nil {
		w.Quiz = &wireQuiz{
			Question: c.Quiz.Question,
			Options:  c.Quiz.Options,
			Answer:   c.Quiz.Answer,
		}
	}
	return w
}

// MarshalJSON encodes the set as a JSON object, keys in set order.
func (s *Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(toWire(s.byKey[key]))
		if err != nil {
			return nil, fmt.Errorf("encode concept %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of key -> concept, keeping key order.
func (s *Set) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected an object of concepts", ErrInvalidPayload)
	}

	out := NewSet()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected a concept key", ErrInvalidPayload)
		}
		var w wireConcept
		if err := dec.Decode(&w); err != nil {
			return fmt.Errorf("%w: concept %q: %v", ErrInvalidPayload, key, err)
		}
		out.put(w.concept(key))
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	*s = *out
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
