package layout

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func near(a, b Point) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon
}

func TestPointerAnchors(t *testing.T) {
	tests := []struct {
		name          string
		child, parent Point
		margin        float64
		start, end    Point
	}{
		{
			name:   "horizontal",
			child:  Point{X: 140, Y: 200},
			parent: Point{X: 50, Y: 200},
			margin: 26,
			start:  Point{X: 114, Y: 200},
			end:    Point{X: 50 + 26*1.2, Y: 200},
		},
		{
			name:   "diagonal up",
			child:  Point{X: 140, Y: 110},
			parent: Point{X: 50, Y: 200},
			margin: 26,
			start:  Point{X: 140 - 26/math.Sqrt2, Y: 110 + 26/math.Sqrt2},
			end:    Point{X: 50 + 26*1.2/math.Sqrt2, Y: 200 - 26*1.2/math.Sqrt2},
		},
		{
			name:   "diagonal down",
			child:  Point{X: 140, Y: 290},
			parent: Point{X: 50, Y: 200},
			margin: 26,
			start:  Point{X: 140 - 26/math.Sqrt2, Y: 290 - 26/math.Sqrt2},
			end:    Point{X: 50 + 26*1.2/math.Sqrt2, Y: 200 + 26*1.2/math.Sqrt2},
		},
		{
			name:   "coincident",
			child:  Point{X: 10, Y: 10},
			parent: Point{X: 10, Y: 10},
			margin: 26,
			start:  Point{X: 10, Y: 10},
			end:    Point{X: 10, Y: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PointerAnchors(tt.child, tt.parent, tt.margin)
			if !near(start, tt.start) {
				t.Errorf("start = %+v, want %+v", start, tt.start)
			}
			if !near(end, tt.end) {
				t.Errorf("end = %+v, want %+v", end, tt.end)
			}
		})
	}
}

func TestTagY(t *testing.T) {
	tests := []struct {
		name    string
		commitY float64
		index   int
		want    float64
	}{
		{"above first", 110, 0, 65},
		{"above second", 110, 1, 40},
		{"centerline counts as below", 200, 0, 240},
		{"below third", 290, 2, 380},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TagY(tt.commitY, tt.index, 200); got != tt.want {
				t.Errorf("TagY() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTagIndex(t *testing.T) {
	tags := []string{"master", "HEAD"}
	if got := TagIndex(tags, "HEAD"); got != 1 {
		t.Errorf("TagIndex(HEAD) = %d, want 1", got)
	}
	if got := TagIndex(tags, "dev"); got != 2 {
		t.Errorf("TagIndex(dev) = %d, want 2", got)
	}
}

func TestClassifyTag(t *testing.T) {
	tests := []struct {
		name string
		want TagKind
	}{
		{"master", TagBranch},
		{"HEAD", TagHead},
		{"head", TagHead},
		{"origin/master", TagRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTag(tt.name); got != tt.want {
				t.Errorf("ClassifyTag(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLabelGeometry(t *testing.T) {
	if got := TagWidth("master"); got != 46 {
		t.Errorf("TagWidth(master) = %v, want 46", got)
	}
	if got := IDLabel(Point{X: 50, Y: 200}, 20); got != (Point{X: 50, Y: 234}) {
		t.Errorf("IDLabel() = %+v", got)
	}
}
