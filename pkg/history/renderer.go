package history

import "github.com/matzehuels/gitdraw/pkg/graph"

// Renderer draws a history view. Draw is called with a fresh scene after
// every successful mutation; Emphasize is called after Draw when HEAD moves,
// with the previous and new HEAD commit ids (previous is empty when HEAD had
// no commit yet).
//
// Calls are synchronous and complete before the operation returns.
type Renderer interface {
	Draw(scene graph.Scene)
	Emphasize(previous, current string)
}

// NopRenderer discards all drawing.
type NopRenderer struct{}

func (NopRenderer) Draw(graph.Scene)         {}
func (NopRenderer) Emphasize(string, string) {}

// RendererFuncs adapts plain functions to a Renderer. Nil fields are skipped.
type RendererFuncs struct {
	DrawFunc      func(scene graph.Scene)
	EmphasizeFunc func(previous, current string)
}

func (f RendererFuncs) Draw(scene graph.Scene) {
	if f.DrawFunc != nil {
		f.DrawFunc(scene)
	}
}

func (f RendererFuncs) Emphasize(previous, current string) {
	if f.EmphasizeFunc != nil {
		f.EmphasizeFunc(previous, current)
	}
}
