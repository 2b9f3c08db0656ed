package sim

// Sprite is one glyph placed on the surface. X and Y are fractions of the
// surface size, with Y measured up from the bottom edge.
type Sprite struct {
	Glyph string
	X, Y  float64
}

// Frame is one rendered simulation frame.
type Frame struct {
	Concept string
	N       uint64
	Caption string
	Sprites []Sprite
}

// Surface receives frames. Draw is called from the loop goroutine.
type Surface interface {
	Draw(Frame)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(Frame)

func (f SurfaceFunc) Draw(fr Frame) { f(fr) }
