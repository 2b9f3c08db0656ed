// Package animation resolves animation ids to prebuilt assets and mounts
// them into slots, discarding probe results that arrive after the slot
// moved on.
package animation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// FallbackTable maps animation ids that have no asset of their own to a
// substitute asset.
type FallbackTable map[string]string

// DefaultFallbacks returns the substitutes shipped with the playground.
func DefaultFallbacks() FallbackTable {
	return FallbackTable{
		"periodic_table":     "bulb_glow",
		"dna_double_helix":   "bulb_glow",
		"momentum_collision": "wire_spark",
		"energy":             "bulb_glow",
		"gravity":            "wire_spark",
	}
}

// Resolve returns the substitute for id, if any.
func (t FallbackTable) Resolve(id string) (string, bool) {
	fb, ok := t[id]
	return fb, ok && fb != ""
}

// Asset is a mounted animation.
type Asset struct {
	Requested string // the id the concept asked for
	Name      string // the asset actually mounted
	Source    string // URL or path the asset loads from
}

// MountResult reports what Mount did.
type MountResult struct {
	Loaded   bool
	Asset    Asset
	Fallback bool
	// Stale is set when the slot was unmounted or remounted before the
	// probe chain finished; nothing was attached.
	Stale bool
}

// Slot is a container that holds at most one mounted asset.
type Slot struct {
	mu         sync.Mutex
	generation uint64
	asset      *Asset
	cancel     context.CancelFunc
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Current returns the mounted asset.
func (s *Slot) Current() (Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asset == nil {
		return Asset{}, false
	}
	return *s.asset, true
}

// Unmount detaches the mounted asset and cancels any pending probe chain.
func (s *Slot) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Slot) resetLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.asset = nil
}

// begin clears the slot and issues a ticket for a new mount.
func (s *Slot) begin(parent context.Context) (uint64, context.Context, context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	return s.generation, ctx, cancel
}

// commit attaches asset if ticket is still the slot's live generation.
func (s *Slot) commit(ticket uint64, asset Asset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.generation {
		return false
	}
	s.asset = &asset
	s.cancel = nil
	return true
}

// Host mounts animations into slots.
type Host struct {
	prober    Prober
	fallbacks FallbackTable
}

// NewHost creates a host. A nil fallback table uses DefaultFallbacks.
func NewHost(prober Prober, fallbacks FallbackTable) *Host {
	if fallbacks == nil {
		fallbacks = DefaultFallbacks()
	}
	return &Host{prober: prober, fallbacks: fallbacks}
}

// Mount replaces whatever slot holds with the asset for id. It probes id
// first, then its fallback; the first asset found is attached. An empty id
// mounts nothing. If all probes fail, or the slot is unmounted while probing,
// the slot stays empty.
func (h *Host) Mount(ctx context.Context, slot *Slot, id string) MountResult {
	if id == "" {
		slot.Unmount()
		return MountResult{}
	}

	ticket, probeCtx, cancel := slot.begin(ctx)
	defer cancel()

	candidates := []string{id}
	if fb, ok := h.fallbacks.Resolve(id); ok && fb != id {
		candidates = append(candidates, fb)
	}

	for i, name := range candidates {
		source, err := h.prober.Probe(probeCtx, name)
		if probeCtx.Err() != nil {
			return MountResult{Stale: true}
		}
		if err != nil {
			if !errors.Is(err, ErrAssetNotFound) {
				slog.Warn("animation probe failed", "animation", name, "error", err)
			}
			continue
		}

		asset := Asset{Requested: id, Name: name, Source: source}
		if !slot.commit(ticket, asset) {
			return MountResult{Stale: true}
		}
		return MountResult{Loaded: true, Asset: asset, Fallback: i > 0}
	}

	slog.Debug("no animation asset resolved", "animation", id)
	return MountResult{}
}
