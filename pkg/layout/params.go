package layout

import (
	"github.com/matzehuels/gitdraw/pkg/errors"
)

// Default view dimensions.
const (
	DefaultWidth  = 700.0
	DefaultHeight = 400.0
	DefaultRadius = 20.0
)

const (
	// stepRatio scales the commit radius into the horizontal and vertical
	// distance between neighbouring commits.
	stepRatio = 4.5

	// pointerRatio scales the commit radius into the pointer inset.
	pointerRatio = 1.3

	// arrowRatio extends the inset at the parent end to fit the arrowhead.
	arrowRatio = 1.2
)

// Params are the view parameters the layout depends on.
type Params struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
	Radius float64 `json:"commit_radius" toml:"commit_radius"`
}

// DefaultParams returns the standard 700×400 view with 20px commits.
func DefaultParams() Params {
	return Params{Width: DefaultWidth, Height: DefaultHeight, Radius: DefaultRadius}
}

// WithDefaults fills zero fields from [DefaultParams].
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.Width == 0 {
		p.Width = d.Width
	}
	if p.Height == 0 {
		p.Height = d.Height
	}
	if p.Radius == 0 {
		p.Radius = d.Radius
	}
	return p
}

// Validate rejects non-positive dimensions.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "view size must be positive, got %gx%g", p.Width, p.Height)
	}
	if p.Radius <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "commit radius must be positive, got %g", p.Radius)
	}
	return nil
}

// Step is the distance between a commit and its parent along each axis.
func (p Params) Step() float64 { return p.Radius * stepRatio }

// PointerMargin is the inset of a pointer line from a commit's center.
func (p Params) PointerMargin() float64 { return p.Radius * pointerRatio }

// Centerline is the y coordinate of the horizontal midline.
func (p Params) Centerline() float64 { return p.Height / 2 }

// Root is the fixed position of the synthetic root commit: left of the
// visible area, on the centerline.
func (p Params) Root() Point {
	return Point{X: -(p.Radius * 2), Y: p.Centerline()}
}
