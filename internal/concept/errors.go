package concept

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch marks a concept list that could not be retrieved.
	ErrFetch = errors.New("concept fetch failed")
	// ErrInvalidPayload marks a response that is not a concept mapping.
	ErrInvalidPayload = errors.New("invalid concept payload")
	// ErrMalformedQuiz marks a quiz that no learner can answer correctly.
	ErrMalformedQuiz = errors.New("malformed quiz")
	// ErrUnknownTopic marks a topic name outside KnownTopics.
	ErrUnknownTopic = errors.New("unknown topic")
)

// FetchError describes a failed concept fetch.
type FetchError struct {
	Topic      string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetching %s concepts: status %d", e.Topic, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetching %s concepts: %v", e.Topic, e.Err)
	default:
		return fmt.Sprintf("fetching %s concepts failed", e.Topic)
	}
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

// ConfigurationError reports content that is well-formed JSON but not
// usable as authored, such as a quiz whose answer is not among its options.
type ConfigurationError struct {
	Concept string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Concept == "" {
		return "quiz configuration: " + e.Reason
	}
	return fmt.Sprintf("quiz configuration for %q: %s", e.Concept, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrMalformedQuiz
}
