// Package page drives one topic's concept page: navigation, explanation,
// quiz, animation or simulation, and progress.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/p-n-ai/playground/internal/analytics"
	"github.com/p-n-ai/playground/internal/animation"
	"github.com/p-n-ai/playground/internal/concept"
	"github.com/p-n-ai/playground/internal/navigator"
	"github.com/p-n-ai/playground/internal/progress"
	"github.com/p-n-ai/playground/internal/quiz"
	"github.com/p-n-ai/playground/internal/sim"
)

var (
	// ErrNotReady is returned for interactions before the concepts loaded
	// or after loading failed.
	ErrNotReady = errors.New("page not ready")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("page closed")
	// ErrInitialized is returned when Initialize runs twice.
	ErrInitialized = errors.New("page already initialized")
)

// Sounds played on quiz outcomes.
const (
	SoundSuccess = "success"
	SoundPop     = "pop"
)

// SoundPlayer plays a named sound effect.
type SoundPlayer interface {
	Play(sound string)
}

// MessageAnnouncer shows a short message to the learner.
type MessageAnnouncer interface {
	Announce(message string)
}

// Renderer receives a snapshot after every change. Render may be called
// from several goroutines; Snapshot.Version orders the deliveries.
type Renderer interface {
	Render(Snapshot)
}

// AnimationMounter mounts an animation asset into a slot.
type AnimationMounter interface {
	Mount(ctx context.Context, slot *animation.Slot, id string) animation.MountResult
}

type nopSound struct{}

func (nopSound) Play(string) {}

type nopAnnouncer struct{}

func (nopAnnouncer) Announce(string) {}

type nopRenderer struct{}

func (nopRenderer) Render(Snapshot) {}

// Config wires a controller's collaborators. Topic, Repository and
// Animations are required.
type Config struct {
	Topic       string
	Repository  concept.Repository
	Animations  AnimationMounter
	Simulations *sim.Registry
	// Shuffle orders matching puzzles' right column. Nil shuffles randomly.
	Shuffle func([]string)
	// Tracker is created from Notifier and Score when nil.
	Tracker   *progress.Tracker
	Notifier  progress.Notifier
	Score     int
	Sound     SoundPlayer
	Announcer MessageAnnouncer
	Events    analytics.EventLogger
	Renderer  Renderer
	SessionID string
}

// Controller is the concept page for one topic.
type Controller struct {
	topic     string
	sessionID string
	repo      concept.Repository
	mounter   AnimationMounter
	sims      *sim.Registry
	tracker   *progress.Tracker
	sound     SoundPlayer
	announcer MessageAnnouncer
	events    analytics.EventLogger
	renderer  Renderer

	nav     *navigator.Navigator
	quiz    *quiz.Engine
	matcher *quiz.Matcher
	slot    *animation.Slot
	flight  sync.WaitGroup

	// pipeline serializes the synchronous part of selection changes.
	pipeline sync.Mutex

	mu          sync.Mutex
	initialized bool
	closed      bool
	state       State
	message     string
	status      string
	set         *concept.Set
	selection   navigator.Selection
	selected    bool
	anim        AnimationView
	loop        *sim.Loop
	ctx         context.Context
	cancel      context.CancelFunc
	selCancel   context.CancelFunc
	version     uint64
}

// New creates a controller in the Loading state.
func New(cfg Config) (*Controller, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if cfg.Repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if cfg.Animations == nil {
		return nil, fmt.Errorf("animation mounter is required")
	}

	c := &Controller{
		topic:     cfg.Topic,
		sessionID: cfg.SessionID,
		repo:      cfg.Repository,
		mounter:   cfg.Animations,
		sims:      cfg.Simulations,
		tracker:   cfg.Tracker,
		sound:     cfg.Sound,
		announcer: cfg.Announcer,
		events:    cfg.Events,
		renderer:  cfg.Renderer,
		nav:       navigator.New(),
		quiz:      quiz.NewEngine(),
		matcher:   quiz.NewMatcher(cfg.Shuffle),
		slot:      animation.NewSlot(),
		state:     Loading,
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	if c.sims == nil {
		c.sims = sim.ForTopic(cfg.Topic)
	}
	if c.tracker == nil {
		c.tracker = progress.NewTracker(progress.TrackerConfig{Notifier: cfg.Notifier, Score: cfg.Score})
	}
	if c.sound == nil {
		c.sound = nopSound{}
	}
	if c.announcer == nil {
		c.announcer = nopAnnouncer{}
	}
	if c.events == nil {
		c.events = analytics.NopEventLogger{}
	}
	if c.renderer == nil {
		c.renderer = nopRenderer{}
	}

	c.nav.Subscribe(c.onSelection)
	return c, nil
}

// SessionID identifies this page visit in analytics events.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Tracker returns the page's progress tracker.
func (c *Controller) Tracker() *progress.Tracker {
	return c.tracker
}

// Initialize fetches the topic's concepts and selects the first one. A fetch
// failure moves the page to Failed and is returned; there is no retry.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.initialized:
		c.mu.Unlock()
		return ErrInitialized
	}
	c.initialized = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()
	c.render()

	set, err := c.repo.Concepts(ctx, c.topic)
	if err != nil {
		slog.Error("loading concepts failed", "topic", c.topic, "error", err)
		c.mu.Lock()
		c.state = Failed
		c.message = LoadErrorText
		c.mu.Unlock()
		c.render()
		return fmt.Errorf("loading %s concepts: %w", c.topic, err)
	}

	c.nav.Initialize(set.Keys())
	c.tracker.Reset(c.topic, set.Keys())

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.set = set
	c.state = Ready
	if set.Len() == 0 {
		c.message = NoContentText
	}
	c.mu.Unlock()

	slog.Info("concepts loaded", "topic", c.topic, "count", set.Len())

	if set.Len() == 0 {
		c.render()
		return nil
	}
	if _, err := c.nav.SelectByIndex(0); err != nil {
		return err
	}
	return nil
}

// Select shows the concept at index i. Out-of-range indexes change nothing.
func (c *Controller) Select(i int) error {
	if err := c.ready(); err != nil {
		return err
	}
	_, err := c.nav.SelectByIndex(i)
	return err
}

// Next advances to the next concept, wrapping after the last.
func (c *Controller) Next() error {
	if err := c.ready(); err != nil {
		return err
	}
	_, err := c.nav.SelectNext()
	return err
}

// Choose answers the current concept's quiz with option i.
func (c *Controller) Choose(i int) error {
	if err := c.ready(); err != nil {
		return err
	}
	if _, err := c.quiz.Choose(i); err != nil {
		return err
	}
	return nil
}

// Match places item right of the current matching puzzle onto row.
func (c *Controller) Match(row, right int) error {
	if err := c.ready(); err != nil {
		return err
	}
	if _, err := c.matcher.Place(row, right); err != nil {
		return err
	}
	c.render()
	return nil
}

// Snapshot returns the current page view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close stops the running simulation, cancels any in-flight mount, and
// waits for background work including score notifications.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	loop := c.loop
	c.loop = nil
	if c.selCancel != nil {
		c.selCancel()
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.slot.Unmount()
	loop.Cancel()
	c.flight.Wait()
	c.tracker.Wait()
}

// Wait blocks until in-flight animation mounts have finished.
func (c *Controller) Wait() {
	c.flight.Wait()
}

func (c *Controller) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return ErrClosed
	case c.state != Ready:
		return ErrNotReady
	case c.set.Len() == 0:
		return navigator.ErrEmpty
	}
	return nil
}

// onSelection runs the render pipeline for a new selection: tear down the
// previous concept's mount and simulation, render text and quiz
// synchronously, then mount the animation in the background.
func (c *Controller) onSelection(sel navigator.Selection) {
	c.pipeline.Lock()
	defer c.pipeline.Unlock()

	c.mu.Lock()
	if c.closed || c.state != Ready || (c.selected && sel.Generation <= c.selection.Generation) {
		c.mu.Unlock()
		return
	}
	cn, ok := c.set.Get(sel.Key)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.selection = sel
	c.selected = true

	if c.selCancel != nil {
		c.selCancel()
	}
	selCtx, selCancel := context.WithCancel(c.ctx)
	c.selCancel = selCancel

	prevLoop := c.loop
	c.loop = nil
	c.anim = AnimationView{Requested: cn.Animation, Pending: cn.HasAnimation()}
	c.mu.Unlock()

	c.slot.Unmount()
	prevLoop.Cancel()

	// A matching puzzle takes the quiz pane's place.
	var board quiz.Board
	if cn.HasMatching() {
		board = c.quiz.Render(cn.Key, nil, nil)
		c.matcher.Render(cn.Key, cn.Matching, c.onOutcome)
	} else {
		board = c.quiz.Render(cn.Key, cn.Quiz, c.onOutcome)
		c.matcher.Render(cn.Key, nil, nil)
	}
	c.logEvent(analytics.ConceptViewed, cn.Key, map[string]any{"index": sel.Index})
	if board.ReadOnly {
		c.logEvent(analytics.QuizMisconfigured, cn.Key, map[string]any{"error": cn.ValidateQuiz().Error()})
	}
	if err := cn.ValidateMatching(); err != nil {
		slog.Warn("matching puzzle misconfigured", "concept", cn.Key, "error", err)
		c.logEvent(analytics.QuizMisconfigured, cn.Key, map[string]any{"error": err.Error()})
	}
	c.render()

	if !cn.HasAnimation() {
		c.startSimulation(selCtx, sel.Generation, cn.Key)
		return
	}

	c.flight.Add(1)
	go c.mountAnimation(selCtx, sel.Generation, cn.Key, cn.Animation)
}

func (c *Controller) isCurrentLocked(generation uint64) bool {
	return !c.closed && c.selected && c.selection.Generation == generation
}

func (c *Controller) mountAnimation(ctx context.Context, generation uint64, key, id string) {
	defer c.flight.Done()

	res := c.mounter.Mount(ctx, c.slot, id)
	if res.Stale {
		slog.Debug("dropped stale animation mount", "concept", key, "animation", id)
		return
	}

	c.mu.Lock()
	if !c.isCurrentLocked(generation) {
		c.mu.Unlock()
		return
	}
	if res.Loaded {
		c.anim = AnimationView{
			Requested: id,
			Loaded:    true,
			Fallback:  res.Fallback,
			Asset:     res.Asset,
		}
		c.mu.Unlock()
		if res.Fallback {
			c.logEvent(analytics.AnimationFallback, key, map[string]any{"requested": id, "mounted": res.Asset.Name})
		}
		c.render()
		return
	}
	c.anim.Pending = false
	c.mu.Unlock()

	slog.Debug("animation unresolved, starting simulation", "concept", key, "animation", id)
	c.startSimulation(ctx, generation, key)
}

// startSimulation mounts the registry simulation for key if generation is
// still the live selection.
func (c *Controller) startSimulation(ctx context.Context, generation uint64, key string) {
	surface := sim.SurfaceFunc(func(f sim.Frame) { c.drawFrame(generation, f) })
	loop := c.sims.Mount(ctx, key, surface)

	c.mu.Lock()
	if !c.isCurrentLocked(generation) {
		c.mu.Unlock()
		loop.Cancel()
		return
	}
	c.loop = loop
	c.anim.Pending = false
	c.mu.Unlock()
	c.render()
}

func (c *Controller) drawFrame(generation uint64, f sim.Frame) {
	c.mu.Lock()
	if !c.isCurrentLocked(generation) {
		c.mu.Unlock()
		return
	}
	c.anim.Simulation = &f
	c.mu.Unlock()
	c.render()
}

func (c *Controller) onOutcome(out quiz.Outcome) {
	if out.Matching {
		c.logEvent(analytics.MatchingSolved, out.Concept, nil)
	} else {
		c.logEvent(analytics.QuizAnswered, out.Concept, map[string]any{"correct": out.Correct, "chosen": out.Chosen})
	}

	if !out.Correct {
		c.sound.Play(SoundPop)
		c.announce(quiz.IncorrectText)
		c.render()
		return
	}

	mark, err := c.tracker.MarkCompleted(out.Concept)
	if err != nil {
		slog.Warn("marking concept completed failed", "topic", c.topic, "concept", out.Concept, "error", err)
	} else if !mark.AlreadyCompleted {
		c.logEvent(analytics.ConceptCompleted, out.Concept, map[string]any{"ratio": c.tracker.CompletionRatio()})
	}

	c.sound.Play(SoundSuccess)
	if out.Matching {
		c.announce(quiz.MatchedText)
	} else {
		c.announce(quiz.CorrectText)
	}
	c.render()
}

func (c *Controller) announce(msg string) {
	c.mu.Lock()
	c.status = msg
	c.mu.Unlock()
	c.announcer.Announce(msg)
}

func (c *Controller) logEvent(typ, key string, data map[string]any) {
	err := c.events.LogEvent(analytics.Event{
		SessionID: c.sessionID,
		Topic:     c.topic,
		Concept:   key,
		Type:      typ,
		Data:      data,
	})
	if err != nil {
		slog.Warn("failed to log event", "type", typ, "concept", key, "error", err)
	}
}

func (c *Controller) render() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.renderer.Render(snap)
}

func (c *Controller) snapshotLocked() Snapshot {
	c.version++
	snap := Snapshot{
		Version:  c.version,
		Topic:    c.topic,
		State:    c.state,
		Message:  c.message,
		Selected: navigator.Unselected,
		Status:   c.status,
	}
	if c.state != Ready {
		return snap
	}
	if c.set.Len() == 0 {
		snap.Empty = true
		return snap
	}

	label := func(key string) string {
		cn, _ := c.set.Get(key)
		return cn.DisplayTitle()
	}
	for _, item := range c.nav.Items(label) {
		snap.Items = append(snap.Items, NavItem{Item: item, Completed: c.tracker.IsCompleted(item.Key)})
	}

	prog := c.tracker.Snapshot()
	snap.Progress = ProgressView{Ratio: prog.Ratio, Total: len(prog.Concepts)}
	for _, cs := range prog.Concepts {
		if cs.Completed {
			snap.Progress.Completed++
		}
	}

	if c.selected {
		snap.Selected = c.selection.Index
		if cn, ok := c.set.Get(c.selection.Key); ok {
			snap.Concept = &cn
		}
		snap.Quiz = c.quiz.Board()
		snap.Matching = c.matcher.Board()
		snap.Animation = c.anim
	}
	return snap
}
