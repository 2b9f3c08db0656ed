package page

import (
	"github.com/p-n-ai/playground/internal/animation"
	"github.com/p-n-ai/playground/internal/concept"
	"github.com/p-n-ai/playground/internal/navigator"
	"github.com/p-n-ai/playground/internal/quiz"
	"github.com/p-n-ai/playground/internal/sim"
)

// State is the page lifecycle state.
type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Messages shown in place of page content.
const (
	LoadErrorText = "Error loading concepts. Please try refreshing the page."
	NoContentText = "No concepts here yet. Check back soon!"
)

// NavItem is one entry of the concept list.
type NavItem struct {
	navigator.Item
	Completed bool
}

// AnimationView is the state of the animation pane.
type AnimationView struct {
	Requested string
	// Pending is set while the asset probe chain runs.
	Pending  bool
	Loaded   bool
	Fallback bool
	Asset    animation.Asset
	// Simulation holds the latest frame of the built-in simulation shown
	// when no asset resolved.
	Simulation *sim.Frame
}

// ProgressView is the state of the progress bar.
type ProgressView struct {
	Ratio     float64
	Completed int
	Total     int
}

// Percent returns the ratio as a whole percentage.
func (p ProgressView) Percent() int {
	return int(p.Ratio*100 + 0.5)
}

// Snapshot is an immutable view of the whole page. Version increases with
// every snapshot so renderers can drop out-of-order deliveries.
type Snapshot struct {
	Version   uint64
	Topic     string
	State     State
	Empty     bool
	Message   string
	Items     []NavItem
	Selected  int
	Concept   *concept.Concept
	Quiz      quiz.Board
	Matching  quiz.MatchBoard
	Animation AnimationView
	Progress  ProgressView
	// Status is the latest announcement.
	Status string
}
