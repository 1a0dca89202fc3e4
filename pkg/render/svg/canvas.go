package svg

import (
	"sync"

	"github.com/matzehuels/gitdraw/pkg/graph"
)

// Canvas is a history.Renderer that renders every scene it is handed to SVG
// and keeps the result. With frames enabled it keeps every frame.
//
// A Canvas is safe for concurrent use.
type Canvas struct {
	mu       sync.Mutex
	opts     []Option
	keep     bool
	frames   [][]byte
	scene    graph.Scene
	drawn    bool
	previous string
	current  string
}

// NewCanvas returns a canvas rendering with opts.
func NewCanvas(opts ...Option) *Canvas {
	return &Canvas{opts: opts}
}

// KeepFrames makes the canvas retain every drawn frame, not only the last.
func (c *Canvas) KeepFrames() *Canvas {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keep = true
	return c
}

// Draw implements history.Renderer.
func (c *Canvas) Draw(scene graph.Scene) {
	out := Render(scene, c.opts...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene = scene
	c.drawn = true
	if c.keep || len(c.frames) == 0 {
		c.frames = append(c.frames, out)
	} else {
		c.frames[0] = out
	}
}

// Emphasize implements history.Renderer. The emphasis is already part of
// the drawn scene; the canvas only records which commits changed.
func (c *Canvas) Emphasize(previous, current string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previous, c.current = previous, current
}

// Bytes returns the latest frame, or nil before the first Draw.
func (c *Canvas) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

// Frames returns all retained frames in drawing order.
func (c *Canvas) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.frames))
	copy(out, c.frames)
	return out
}

// Scene returns the latest scene.
func (c *Canvas) Scene() (graph.Scene, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene, c.drawn
}

// HeadMove returns the commit ids of the last HEAD move.
func (c *Canvas) HeadMove() (previous, current string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previous, c.current
}
