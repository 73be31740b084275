// Package render turns floor plans into visual outputs.
//
// Two renderers are provided: a to-scale floor-plan SVG drawn directly from
// the space geometry, and a Graphviz-based connectivity diagram showing
// spaces as boxes and door connections as edges. Format conversion of the
// diagram (SVG, PNG) goes through go-graphviz.
package render

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/matzehuels/floorsmith/pkg/plan"
)

const planCSS = `
    .room { fill: #f5efe0; stroke: #3d3527; }
    .room.locked { fill: #e8dfc8; }
    .room-label { font: 600 11px sans-serif; fill: #3d3527; text-anchor: middle; }
    .room-sub { font: 9px sans-serif; fill: #6b6250; text-anchor: middle; }
    .door { stroke: #f5efe0; }
    .door-arc { fill: none; stroke: #a39678; stroke-width: 0.8; stroke-dasharray: 2,2; }
    .badge { font: 9px sans-serif; fill: #8a6d1a; }
    .aside { font: 10px sans-serif; fill: #6b6250; }`

// SVGOptions configures the floor-plan renderer.
type SVGOptions struct {
	// Scale is the number of SVG units per foot. Defaults to 4.
	Scale float64

	// Labels draws space names and footprints. Defaults to true via
	// [DefaultSVGOptions]; zero-value SVGOptions omits them.
	Labels bool
}

// DefaultSVGOptions returns the renderer defaults.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Scale: 4, Labels: true}
}

// SVG draws the placed spaces of a plan to scale: rooms as filled rectangles
// with wall strokes, door openings cut out of the strokes, optional labels
// and a lock badge. Unplaced spaces cannot be drawn geometrically and are
// listed in an aside under the plan.
func SVG(spaces []plan.Space, walls plan.WallSettings, opts SVGOptions) []byte {
	if opts.Scale <= 0 {
		opts.Scale = 4
	}

	var placed, unplaced []*plan.Space
	for i := range spaces {
		if spaces[i].Placed() {
			placed = append(placed, &spaces[i])
		} else {
			unplaced = append(unplaced, &spaces[i])
		}
	}

	minX, minY, maxX, maxY := bounds(placed)
	margin := 20.0
	width := (maxX-minX)*opts.Scale + 2*margin
	height := (maxY-minY)*opts.Scale + 2*margin
	asideHeight := 0.0
	if len(unplaced) > 0 {
		asideHeight = float64(len(unplaced)+1) * 14
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height+asideHeight, width, height+asideHeight)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", planCSS)

	// feet → SVG coordinates
	tx := func(x float64) float64 { return (x-minX)*opts.Scale + margin }
	ty := func(y float64) float64 { return (y-minY)*opts.Scale + margin }

	for _, s := range placed {
		renderRoom(&buf, s, walls, opts, tx, ty)
	}
	for _, s := range placed {
		renderDoors(&buf, s, walls, opts, tx, ty)
	}
	if opts.Labels {
		for _, s := range placed {
			renderLabel(&buf, s, opts, tx, ty)
		}
	}

	if len(unplaced) > 0 {
		renderAside(&buf, unplaced, margin, height)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func bounds(placed []*plan.Space) (minX, minY, maxX, maxY float64) {
	if len(placed) == 0 {
		return 0, 0, 40, 30
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, s := range placed {
		minX = math.Min(minX, s.Position.X)
		minY = math.Min(minY, s.Position.Y)
		maxX = math.Max(maxX, s.Position.X+s.Size.Width)
		maxY = math.Max(maxY, s.Position.Y+s.Size.Height)
	}
	return minX, minY, maxX, maxY
}

func renderRoom(buf *bytes.Buffer, s *plan.Space, walls plan.WallSettings, opts SVGOptions, tx, ty func(float64) float64) {
	class := "room"
	if s.PositionLocked {
		class = "room locked"
	}
	stroke := walls.EffectiveThickness(s) * opts.Scale
	fmt.Fprintf(buf, `  <rect id="room-%s" class="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" stroke-width="%.1f"/>`+"\n",
		escape(s.Key()), class,
		tx(s.Position.X), ty(s.Position.Y),
		s.Size.Width*opts.Scale, s.Size.Height*opts.Scale, stroke)
}

// renderDoors paints each opening over the wall stroke in the floor color and
// adds a dashed swing arc on resolvable connections.
func renderDoors(buf *bytes.Buffer, s *plan.Space, walls plan.WallSettings, opts SVGOptions, tx, ty func(float64) float64) {
	stroke := walls.EffectiveThickness(s) * opts.Scale
	for _, d := range s.Doors {
		x1, y1, x2, y2 := doorSegment(s, d)
		fmt.Fprintf(buf, `  <line class="door" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke-width="%.1f"/>`+"\n",
			tx(x1), ty(y1), tx(x2), ty(y2), stroke+1)
		if d.Resolves() || d.LeadsTo == plan.LeadsToOutside {
			r := d.Width * opts.Scale / 2
			cx, cy := tx((x1+x2)/2), ty((y1+y2)/2)
			fmt.Fprintf(buf, `  <circle class="door-arc" cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, r)
		}
	}
}

// doorSegment returns the opening endpoints in feet-space.
func doorSegment(s *plan.Space, d plan.Door) (x1, y1, x2, y2 float64) {
	px, py := s.Position.X, s.Position.Y
	lo, hi := d.Interval()
	switch d.Wall {
	case plan.WallNorth:
		return px + lo, py, px + hi, py
	case plan.WallSouth:
		return px + lo, py + s.Size.Height, px + hi, py + s.Size.Height
	case plan.WallWest:
		return px, py + lo, px, py + hi
	case plan.WallEast:
		return px + s.Size.Width, py + lo, px + s.Size.Width, py + hi
	}
	return 0, 0, 0, 0
}

func renderLabel(buf *bytes.Buffer, s *plan.Space, opts SVGOptions, tx, ty func(float64) float64) {
	cx := tx(s.Position.X + s.Size.Width/2)
	cy := ty(s.Position.Y + s.Size.Height/2)
	fmt.Fprintf(buf, `  <text class="room-label" x="%.1f" y="%.1f">%s</text>`+"\n", cx, cy-2, escape(s.Key()))
	fmt.Fprintf(buf, `  <text class="room-sub" x="%.1f" y="%.1f">%.0f×%.0f ft</text>`+"\n",
		cx, cy+9, s.Size.Width, s.Size.Height)
	if s.PositionLocked {
		fmt.Fprintf(buf, `  <text class="badge" x="%.1f" y="%.1f">⚓</text>`+"\n",
			tx(s.Position.X)+4, ty(s.Position.Y)+11)
	}
}

func renderAside(buf *bytes.Buffer, unplaced []*plan.Space, margin, y float64) {
	fmt.Fprintf(buf, `  <text class="aside" x="%.1f" y="%.1f">Unplaced:</text>`+"\n", margin, y)
	sort.Slice(unplaced, func(i, j int) bool { return unplaced[i].Key() < unplaced[j].Key() })
	for i, s := range unplaced {
		fmt.Fprintf(buf, `  <text class="aside" x="%.1f" y="%.1f">%s (%.0f×%.0f ft)</text>`+"\n",
			margin+10, y+float64(i+1)*14, escape(s.Key()), s.Size.Width, s.Size.Height)
	}
}

func escape(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
