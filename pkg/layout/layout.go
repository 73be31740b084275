// Package layout positions spaces in 2D feet-space purely from their door
// connectivity.
//
// The engine expands breadth-first from a seed space: each door of a placed
// space pulls its target alongside, separated by the combined wall thickness
// of the two rooms and aligned so the two door centers coincide. Spaces
// unreachable from the seed are packed on a fallback grid east of everything
// placed. Locked spaces are never moved.
//
// [Compute] is pure over its input: it works on a deep copy and returns the
// input unchanged when the precondition fails, so callers can always keep
// their previous state on error.
package layout

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/floorsmith/pkg/plan"
)

// DefaultGridUnit is the grid unit in feet positions snap to. Five feet is
// the usual tabletop battle-map square.
const DefaultGridUnit = 5.0

const (
	// seedOffsetUnits is how far (in grid units) the seed space is placed
	// from the origin, leaving room to expand in any direction.
	seedOffsetUnits = 10

	// paddingUnits is the final padding (in grid units) between the origin
	// and the minimum unlocked coordinate.
	paddingUnits = 2

	// fallbackGapUnits separates the fallback grid from the placed plan.
	fallbackGapUnits = 4
)

// Options configures a layout run.
type Options struct {
	// GridUnit is the snap grid in feet. Defaults to [DefaultGridUnit].
	GridUnit float64

	// Walls supplies the global wall defaults used to compute the gap
	// between adjacent spaces.
	Walls plan.WallSettings

	// Logger receives per-space placement debug output.
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.GridUnit <= 0 {
		o.GridUnit = DefaultGridUnit
	}
	if o.Walls.Thickness <= 0 {
		o.Walls.Thickness = plan.DefaultWallThickness
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Compute assigns a position to every unlocked space and returns the new
// space list. The input list is never mutated.
//
// Every unlocked space must have at least one door or an access-point
// marker; otherwise Compute aborts with an [*InfeasibleError] naming each
// offending space and returns the input unchanged. Locked spaces are exempt
// from the precondition and keep their positions verbatim.
//
// Identical input (spaces, locks, wall settings, grid unit) always yields
// identical output positions.
func Compute(spaces []plan.Space, opts Options) ([]plan.Space, error) {
	opts = opts.withDefaults()

	if err := checkPrecondition(spaces); err != nil {
		return spaces, err
	}

	out := plan.CloneSpaces(spaces)
	index := plan.SpaceIndex(out)
	placed := make(map[string]bool, len(out))
	var queue []int

	// Locked spaces with positions anchor the expansion; unlocked spaces
	// start unplaced regardless of any stale position they carried.
	for i := range out {
		s := &out[i]
		if s.PositionLocked {
			if s.Placed() {
				placed[s.Key()] = true
				queue = append(queue, i)
			}
			continue
		}
		s.Position = nil
	}

	if seed := pickSeed(out); seed >= 0 && !placed[out[seed].Key()] {
		offset := seedOffsetUnits * opts.GridUnit
		out[seed].Position = &plan.Point{X: offset, Y: offset}
		placed[out[seed].Key()] = true
		queue = append(queue, seed)
		opts.Logger.Debug("seed placed", "space", out[seed].Key(), "x", offset, "y", offset)
	}

	expand(out, index, placed, queue, opts)
	packUnreached(out, placed, opts)
	normalize(out, opts)

	opts.Logger.Info("layout computed", "spaces", len(out))
	return out, nil
}

// checkPrecondition verifies that every unlocked space can be reached at
// all: it needs at least one door or an explicit access point.
func checkPrecondition(spaces []plan.Space) error {
	var missing []string
	for i := range spaces {
		s := &spaces[i]
		if s.PositionLocked || s.AccessPoint || len(s.Doors) > 0 {
			continue
		}
		missing = append(missing, s.Key())
	}
	if len(missing) > 0 {
		return &InfeasibleError{SpaceKeys: missing}
	}
	return nil
}

// pickSeed returns the index of the space with the most doors whose target
// resolves to another existing space, maximizing early branching. Ties keep
// the earliest space. A locked seed keeps its existing position and merely
// anchors the expansion; locked spaces without a position cannot anchor
// anything and are skipped. Returns -1 when no space qualifies.
func pickSeed(spaces []plan.Space) int {
	seed, best := -1, -1
	for i := range spaces {
		if spaces[i].PositionLocked && !spaces[i].Placed() {
			continue
		}
		count := 0
		for _, d := range spaces[i].Doors {
			if plan.Resolve(spaces, d.LeadsTo) != nil {
				count++
			}
		}
		if count > best {
			seed, best = i, count
		}
	}
	return seed
}

// expand runs the breadth-first placement from all already-placed spaces.
// The first edge to reach a target wins; later edges to an already-placed
// target are no-ops, which also terminates cycles.
func expand(spaces []plan.Space, index map[string]int, placed map[string]bool, queue []int, opts Options) {
	for len(queue) > 0 {
		cur := &spaces[queue[0]]
		queue = queue[1:]

		for _, d := range cur.Doors {
			if !d.Resolves() {
				continue
			}
			ti, ok := index[d.LeadsTo]
			if !ok {
				continue
			}
			target := &spaces[ti]
			if placed[target.Key()] || target.PositionLocked {
				continue
			}

			p := placeNeighbor(cur, target, d, opts)
			target.Position = &p
			placed[target.Key()] = true
			queue = append(queue, ti)
			opts.Logger.Debug("placed", "space", target.Key(), "via", cur.Key(), "wall", d.Wall, "x", p.X, "y", p.Y)
		}
	}
}

// placeNeighbor computes the target's position so that it sits on the far
// side of the door's wall, separated by both rooms' wall thickness, with the
// two door centers aligned on the shared axis.
func placeNeighbor(cur, target *plan.Space, d plan.Door, opts Options) plan.Point {
	// Read the mirror door's offset when one exists; otherwise assume the
	// mirror would sit at the same offset as the source door.
	mirrorPos := d.Position
	if m := findMirror(target, cur.Key(), d.Wall.Opposite()); m != nil {
		mirrorPos = m.Position
	}

	gap := opts.Walls.EffectiveThickness(cur) + opts.Walls.EffectiveThickness(target)

	var x, y float64
	switch d.Wall {
	case plan.WallEast:
		x = cur.Position.X + cur.Size.Width + gap
		y = cur.Position.Y + d.Position - mirrorPos
	case plan.WallWest:
		x = cur.Position.X - target.Size.Width - gap
		y = cur.Position.Y + d.Position - mirrorPos
	case plan.WallSouth:
		x = cur.Position.X + d.Position - mirrorPos
		y = cur.Position.Y + cur.Size.Height + gap
	case plan.WallNorth:
		x = cur.Position.X + d.Position - mirrorPos
		y = cur.Position.Y - target.Size.Height - gap
	}

	return plan.Point{
		X: plan.SnapToGrid(x, opts.GridUnit),
		Y: plan.SnapToGrid(y, opts.GridUnit),
	}
}

// findMirror returns the first door of target on the given wall pointing
// back at srcKey, or nil.
func findMirror(target *plan.Space, srcKey string, wall plan.Wall) *plan.Door {
	for i := range target.Doors {
		d := &target.Doors[i]
		if d.Wall == wall && d.LeadsTo == srcKey {
			return d
		}
	}
	return nil
}

// packUnreached places spaces the expansion never reached (disconnected
// subgraphs) on a square grid east of everything placed, in input order.
func packUnreached(spaces []plan.Space, placed map[string]bool, opts Options) {
	var rest []int
	for i := range spaces {
		if spaces[i].PositionLocked || placed[spaces[i].Key()] {
			continue
		}
		rest = append(rest, i)
	}
	if len(rest) == 0 {
		return
	}

	baseX := seedOffsetUnits * opts.GridUnit
	for i := range spaces {
		s := &spaces[i]
		if s.Placed() {
			baseX = math.Max(baseX, s.Position.X+s.Size.Width)
		}
	}
	baseX += fallbackGapUnits * opts.GridUnit
	baseY := paddingUnits * opts.GridUnit

	var cellW, cellH float64
	for _, i := range rest {
		cellW = math.Max(cellW, spaces[i].Size.Width)
		cellH = math.Max(cellH, spaces[i].Size.Height)
	}
	cellW += paddingUnits * opts.GridUnit
	cellH += paddingUnits * opts.GridUnit

	side := int(math.Ceil(math.Sqrt(float64(len(rest)))))
	for k, i := range rest {
		row, col := k/side, k%side
		spaces[i].Position = &plan.Point{
			X: plan.SnapToGrid(baseX+float64(col)*cellW, opts.GridUnit),
			Y: plan.SnapToGrid(baseY+float64(row)*cellH, opts.GridUnit),
		}
		placed[spaces[i].Key()] = true
		opts.Logger.Debug("packed unreached", "space", spaces[i].Key(), "row", row, "col", col)
	}
}

// normalize shifts all unlocked coordinates so their minimum sits at the
// standard padding from the origin. Locked coordinates never move; when any
// locked space is placed it pins the coordinate frame, and shifting the
// unlocked spaces would tear them away from their locked neighbors, so the
// shift is skipped entirely.
func normalize(spaces []plan.Space, opts Options) {
	minX, minY := math.Inf(1), math.Inf(1)
	for i := range spaces {
		s := &spaces[i]
		if !s.Placed() {
			continue
		}
		if s.PositionLocked {
			return
		}
		minX = math.Min(minX, s.Position.X)
		minY = math.Min(minY, s.Position.Y)
	}
	if math.IsInf(minX, 1) {
		return
	}

	pad := paddingUnits * opts.GridUnit
	dx, dy := pad-minX, pad-minY
	for i := range spaces {
		s := &spaces[i]
		if s.PositionLocked || !s.Placed() {
			continue
		}
		s.Position.X += dx
		s.Position.Y += dy
	}
}
