package sim

import (
	"context"
	"math"
	"sync"
	"time"
)

// PlaceholderCaption is shown by the built-in placeholder simulation.
const PlaceholderCaption = "Coming soon!"

// MountFunc starts a simulation for concept key drawing onto s. The returned
// loop is cancelled when the concept is left.
type MountFunc func(ctx context.Context, key string, s Surface) *Loop

// Registry maps concept keys of one topic to simulations.
type Registry struct {
	mu       sync.RWMutex
	mounts   map[string]MountFunc
	fallback MountFunc
	interval time.Duration
}

// NewRegistry creates a registry whose unregistered keys mount the
// placeholder simulation.
func NewRegistry() *Registry {
	r := &Registry{mounts: make(map[string]MountFunc), interval: DefaultFrameInterval}
	r.fallback = r.placeholder
	return r
}

// ForTopic returns a registry preloaded with the built-in simulations for
// topic. Unknown topics get an empty registry.
func ForTopic(topic string) *Registry {
	r := NewRegistry()
	switch topic {
	case "motion":
		r.Register("speed", r.kinematic("🚗", "Constant speed: the car covers equal distance every frame.", cruise(0.01)))
		r.Register("velocity", r.kinematic("✈️", "Velocity is speed with a direction: heading east.", cruise(0.008)))
		r.Register("acceleration", r.kinematic("🚀", "Speed grows every frame while the engine pushes.", accelerate(0.0003)))
		r.Register("friction", r.kinematic("📦", "Friction on grass slows the box after each push.", coast(0.03, 0.98)))
		r.Register("newtons_first_law", r.kinematic("⚽", "The ball keeps rolling until something slows it.", coast(0.03, 0.99)))
	case "physics":
		r.Register("gravity", r.projectile("🏀", "Gravity bends the ball's path into an arc.", 45, 0.025, 0.0008))
		r.Register("friction", r.kinematic("📦", "Friction on grass slows the box after each push.", coast(0.03, 0.98)))
	}
	return r
}

// SetInterval changes the frame interval used by built-in simulations.
func (r *Registry) SetInterval(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.interval = d
	}
}

// Register binds key to fn, replacing any earlier binding.
func (r *Registry) Register(key string, fn MountFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mounts[key] = fn
}

// Lookup returns the simulation registered for key.
func (r *Registry) Lookup(key string) (MountFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.mounts[key]
	return fn, ok
}

// Mount starts the simulation for key, or the placeholder when none is
// registered.
func (r *Registry) Mount(ctx context.Context, key string, s Surface) *Loop {
	fn, ok := r.Lookup(key)
	if !ok {
		fn = r.fallback
	}
	return fn(ctx, key, s)
}

func (r *Registry) frameInterval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.interval
}

// placeholder pulses a sparkle across the surface under a "coming soon"
// caption.
func (r *Registry) placeholder(ctx context.Context, key string, s Surface) *Loop {
	return Start(ctx, r.frameInterval(), func(n uint64, _ time.Duration) bool {
		phase := float64(n%120) / 120
		s.Draw(Frame{
			Concept: key,
			N:       n,
			Caption: PlaceholderCaption,
			Sprites: []Sprite{{Glyph: "✨", X: 0.5 + 0.4*math.Sin(2*math.Pi*phase), Y: 0.5}},
		})
		return true
	})
}

// body is a glyph moving along the ground.
type body struct {
	x, v float64
	rest int
}

// motionRule advances a body one frame.
type motionRule func(b *body)

// cruise moves at constant speed and wraps at the right edge.
func cruise(speed float64) motionRule {
	return func(b *body) {
		b.x += speed
		if b.x > 1 {
			b.x = 0
		}
	}
}

// accelerate gains speed every frame and restarts from the left once off
// the surface.
func accelerate(gain float64) motionRule {
	return func(b *body) {
		b.v += gain
		b.x += b.v
		if b.x > 1 {
			b.x, b.v = 0, 0
		}
	}
}

// coast applies a push, decays speed by drag each frame, and pushes again
// from the start after resting a second.
func coast(push, drag float64) motionRule {
	const restFrames = 30
	return func(b *body) {
		if b.v == 0 {
			b.rest++
			if b.rest >= restFrames {
				b.rest = 0
				if b.x >= 0.9 {
					b.x = 0
				}
				b.v = push
			}
			return
		}
		b.x += b.v
		b.v *= drag
		if b.v < 0.0005 || b.x >= 0.9 {
			b.v = 0
			b.x = math.Min(b.x, 0.9)
		}
	}
}

func (r *Registry) kinematic(glyph, caption string, rule motionRule) MountFunc {
	return func(ctx context.Context, key string, s Surface) *Loop {
		b := &body{}
		return Start(ctx, r.frameInterval(), func(n uint64, _ time.Duration) bool {
			rule(b)
			s.Draw(Frame{
				Concept: key,
				N:       n,
				Caption: caption,
				Sprites: []Sprite{{Glyph: glyph, X: b.x, Y: 0.1}},
			})
			return true
		})
	}
}

// projectile launches at angle degrees with the given power and gravity per
// frame, then relaunches once it lands.
func (r *Registry) projectile(glyph, caption string, angle, power, gravity float64) MountFunc {
	rad := angle * math.Pi / 180
	return func(ctx context.Context, key string, s Surface) *Loop {
		var t float64
		return Start(ctx, r.frameInterval(), func(n uint64, _ time.Duration) bool {
			x := 0.05 + math.Cos(rad)*power*t
			y := math.Sin(rad)*power*t - 0.5*gravity*t*t
			if y < 0 || x > 1 {
				t, x, y = 0, 0.05, 0
			}
			t++
			s.Draw(Frame{
				Concept: key,
				N:       n,
				Caption: caption,
				Sprites: []Sprite{
					{Glyph: glyph, X: x, Y: y},
					{Glyph: "🎯", X: 0.9, Y: 0},
				},
			})
			return true
		})
	}
}
