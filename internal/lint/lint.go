// Package lint checks topic content for problems a learner would hit: topics
// that fail to load or are empty, quizzes and puzzles nobody can finish, and
// animations with no asset.
package lint

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/playground/internal/animation"
	"github.com/p-n-ai/playground/internal/concept"
)

// Kind classifies an issue.
type Kind string

const (
	FetchFailed       Kind = "fetch_failed"
	EmptyTopic        Kind = "empty_topic"
	MalformedQuiz     Kind = "malformed_quiz"
	MalformedMatching Kind = "malformed_matching"
	MissingAnimation  Kind = "missing_animation"
)

// Severity of an issue. Errors break a page; warnings degrade it.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

func (k Kind) severity() Severity {
	switch k {
	case FetchFailed, MalformedQuiz, MalformedMatching:
		return SeverityError
	default:
		return SeverityWarning
	}
}

// Issue is one problem found in a topic.
type Issue struct {
	Topic    string
	Concept  string
	Kind     Kind
	Severity Severity
	Detail   string
}

// TopicReport lists the issues of one topic.
type TopicReport struct {
	Topic    string
	Concepts int
	Issues   []Issue
}

// Report is the result of a Check.
type Report struct {
	Topics []TopicReport
}

// Issues returns all issues in topic order.
func (r Report) Issues() []Issue {
	var out []Issue
	for _, t := range r.Topics {
		out = append(out, t.Issues...)
	}
	return out
}

// ErrorCount returns the number of error-severity issues.
func (r Report) ErrorCount() int {
	n := 0
	for _, is := range r.Issues() {
		if is.Severity == SeverityError {
			n++
		}
	}
	return n
}

// HasErrors reports whether any issue has error severity.
func (r Report) HasErrors() bool {
	return r.ErrorCount() > 0
}

// Options tune a Check.
type Options struct {
	// Prober checks animation assets. Nil skips animation checks.
	Prober    animation.Prober
	Fallbacks animation.FallbackTable
	// Concurrency bounds the topics checked at once (default 4).
	Concurrency int
}

// Check loads every topic from repo and reports its issues. Only context
// cancellation aborts the run; per-topic failures become issues.
func Check(ctx context.Context, repo concept.Repository, topics []string, opts Options) (Report, error) {
	if opts.Fallbacks == nil {
		opts.Fallbacks = animation.DefaultFallbacks()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}

	reports := make([]TopicReport, len(topics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, topic := range topics {
		g.Go(func() error {
			rep, err := checkTopic(gctx, repo, topic, opts)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return Report{Topics: reports}, nil
}

func checkTopic(ctx context.Context, repo concept.Repository, topic string, opts Options) (TopicReport, error) {
	rep := TopicReport{Topic: topic}

	set, err := repo.Concepts(ctx, topic)
	if err != nil {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.add(Issue{Kind: FetchFailed, Detail: err.Error()})
		return rep, nil
	}

	rep.Concepts = set.Len()
	if set.Len() == 0 {
		rep.add(Issue{Kind: EmptyTopic, Detail: "topic has no concepts"})
		return rep, nil
	}

	for _, c := range set.All() {
		if err := c.ValidateQuiz(); err != nil {
			rep.add(Issue{Concept: c.Key, Kind: MalformedQuiz, Detail: reason(err)})
		}
		if err := c.ValidateMatching(); err != nil {
			rep.add(Issue{Concept: c.Key, Kind: MalformedMatching, Detail: reason(err)})
		}

		if !c.HasAnimation() || opts.Prober == nil {
			continue
		}
		found, err := resolveAnimation(ctx, opts.Prober, opts.Fallbacks, c.Animation)
		if err != nil {
			return rep, err
		}
		if !found {
			rep.add(Issue{
				Concept: c.Key,
				Kind:    MissingAnimation,
				Detail:  fmt.Sprintf("no asset for %q; the built-in simulation is shown", c.Animation),
			})
		}
	}

	sort.SliceStable(rep.Issues, func(i, j int) bool {
		return rep.Issues[i].Severity == SeverityError && rep.Issues[j].Severity != SeverityError
	})
	return rep, nil
}

// resolveAnimation probes id, then its fallback. Only context errors are
// returned; probe failures count as not found.
func resolveAnimation(ctx context.Context, p animation.Prober, fallbacks animation.FallbackTable, id string) (bool, error) {
	candidates := []string{id}
	if fb, ok := fallbacks.Resolve(id); ok && fb != id {
		candidates = append(candidates, fb)
	}
	for _, name := range candidates {
		_, err := p.Probe(ctx, name)
		if err == nil {
			return true, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
	}
	return false, nil
}

func (r *TopicReport) add(is Issue) {
	is.Topic = r.Topic
	is.Severity = is.Kind.severity()
	r.Issues = append(r.Issues, is)
}

func reason(err error) string {
	var cfgErr *concept.ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Reason
	}
	return err.Error()
}
