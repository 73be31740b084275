// Package doors maintains bidirectional door consistency across a floor plan.
//
// Every non-reciprocal door that leads to an existing space is expected to
// have exactly one mirror ("reciprocal") door in the target space, on the
// opposite wall, within a position tolerance, pointing back at the source.
// [Synchronize] is the idempotent batch pass that creates missing mirrors,
// drops stale ones left behind by moves and resizes, and falls back to a
// deterministic conflict search when the expected position is occupied.
//
// When no position on the target wall can fit the mirror at all, the mirror
// is omitted and a [Warning] is reported; the one-directional door remains.
// That is the only sanctioned exception to the reciprocity invariant.
package doors

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/floorsmith/pkg/plan"
)

// DefaultTolerance is the position tolerance in feet used to match a mirror
// door against its expected position. It bridges independent edits to both
// endpoints of a connection and defaults to twice the standard 5 ft grid
// unit; hosts using a coarser grid should raise it accordingly.
const DefaultTolerance = 10.0

// searchStep is the increment in feet for the conflict-search fallback.
const searchStep = 1.0

// Options configures a synchronization pass.
type Options struct {
	// Tolerance is the maximum distance in feet between a mirror door and
	// its expected position before the mirror counts as stale.
	// Defaults to [DefaultTolerance].
	Tolerance float64

	// Logger receives debug output and infeasibility warnings.
	// Defaults to a discard logger.
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Warning reports a connection whose mirror door could not be placed.
type Warning struct {
	SpaceKey  string    `json:"space" bson:"space" yaml:"space"`
	TargetKey string    `json:"target" bson:"target" yaml:"target"`
	Wall      plan.Wall `json:"wall" bson:"wall" yaml:"wall"`
	Message   string    `json:"message" bson:"message" yaml:"message"`
}

// String renders the warning as a single line.
func (w Warning) String() string {
	return fmt.Sprintf("%s→%s: %s", w.SpaceKey, w.TargetKey, w.Message)
}

// =============================================================================
// Geometry
// =============================================================================

// ReciprocalPosition computes where the mirror of d should sit on the
// opposite wall of dst. Equal wall lengths keep the same absolute position;
// unequal lengths scale by the length ratio so the relative position is
// preserved. The result is clamped so the door fits within the wall.
func ReciprocalPosition(src, dst *plan.Space, d plan.Door) float64 {
	srcLen := src.WallLength(d.Wall)
	dstLen := dst.WallLength(d.Wall.Opposite())

	pos := d.Position
	if srcLen > 0 && srcLen != dstLen {
		pos = d.Position / srcLen * dstLen
	}

	return clamp(pos, d.Width/2, dstLen-d.Width/2)
}

// FindOpenPosition searches the target wall for a position where d fits
// without conflicting with any existing door. The search starts at preferred
// and alternates outward in 1 ft steps (+1, −1, +2, −2, …) up to half the
// wall length, so results are deterministic. Returns false when the wall
// cannot fit the door anywhere.
func FindOpenPosition(s *plan.Space, d plan.Door, preferred float64) (float64, bool) {
	length := s.WallLength(d.Wall)
	if d.Width <= 0 || d.Width > length {
		return 0, false
	}

	lo, hi := d.Width/2, length-d.Width/2
	maxOffset := length / 2

	for offset := 0.0; offset <= maxOffset; offset += searchStep {
		for _, sign := range []float64{1, -1} {
			pos := preferred + sign*offset
			if pos < lo || pos > hi {
				continue
			}
			candidate := d
			candidate.Position = pos
			if !conflictsAny(s, candidate) {
				return pos, true
			}
			if offset == 0 {
				break // +0 and −0 are the same position
			}
		}
	}

	return 0, false
}

// conflictsAny reports whether d overlaps any existing door of s.
func conflictsAny(s *plan.Space, d plan.Door) bool {
	for i := range s.Doors {
		if d.Overlaps(s.Doors[i]) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		// Door wider than the wall; center it and let validation flag it.
		return (lo + hi) / 2
	}
	return math.Min(math.Max(v, lo), hi)
}

// =============================================================================
// Synchronization
// =============================================================================

// Synchronize runs the reciprocal-door pass over the whole plan, in place.
//
// For each connected space pair it first removes auto-created mirrors that
// no parent door accounts for anymore (drifted outside the tolerance, out
// of the wall's bounds), then walks every non-reciprocal door with a
// resolvable target and creates its mirror at the expected position unless
// a door pointing back within tolerance already satisfies it. Multiple
// doors between the same two spaces each get their own mirror. Running the
// pass repeatedly on the same input never accumulates duplicates.
func Synchronize(spaces []plan.Space, opts Options) []Warning {
	return synchronize(spaces, "", opts)
}

// SyncSpace runs the synchronization pass restricted to connections that
// involve the space with the given identity key, in either direction. Door
// commands use it to avoid touching unrelated connections.
func SyncSpace(spaces []plan.Space, key string, opts Options) []Warning {
	return synchronize(spaces, key, opts)
}

func synchronize(spaces []plan.Space, only string, opts Options) []Warning {
	opts = opts.withDefaults()

	var warnings []Warning

	for i := range spaces {
		src := &spaces[i]
		for _, dstKey := range parentTargets(src, only) {
			dst := plan.Resolve(spaces, dstKey)
			if dst == nil || dst == src {
				continue
			}

			parents := parentDoors(src, dstKey)
			dropStaleMirrors(src, dst, parents, opts)

			for _, d := range parents {
				if w := syncPair(src, dst, d, opts); w != nil {
					warnings = append(warnings, *w)
				}
			}
		}
	}

	return warnings
}

// parentTargets lists the distinct resolvable destinations of src's own
// non-reciprocal doors, in first-appearance order, honoring the only filter.
func parentTargets(src *plan.Space, only string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range src.Doors {
		if d.Reciprocal || !d.Resolves() {
			continue
		}
		if only != "" && src.Key() != only && d.LeadsTo != only {
			continue
		}
		if seen[d.LeadsTo] {
			continue
		}
		seen[d.LeadsTo] = true
		out = append(out, d.LeadsTo)
	}
	return out
}

// parentDoors returns src's non-reciprocal doors leading to dstKey.
func parentDoors(src *plan.Space, dstKey string) []plan.Door {
	var out []plan.Door
	for _, d := range src.Doors {
		if !d.Reciprocal && d.Resolves() && d.LeadsTo == dstKey {
			out = append(out, d)
		}
	}
	return out
}

// syncPair reconciles the mirror of d in dst. Returns a warning when the
// mirror cannot be placed.
func syncPair(src, dst *plan.Space, d plan.Door, opts Options) *Warning {
	expWall := d.Wall.Opposite()
	expPos := ReciprocalPosition(src, dst, d)

	// A door pointing back within tolerance satisfies the connection,
	// whether auto-created or placed by the author.
	for i := range dst.Doors {
		back := &dst.Doors[i]
		if back.Wall == expWall && back.LeadsTo == src.Key() &&
			math.Abs(back.Position-expPos) <= opts.Tolerance {
			return nil
		}
	}

	mirror := plan.Door{
		Wall:       expWall,
		Position:   expPos,
		Width:      d.Width,
		LeadsTo:    src.Key(),
		Reciprocal: true,
		Style:      d.Style,
		Material:   d.Material,
		Color:      d.Color,
		State:      d.State,
	}

	if res := plan.ValidateCandidate(dst, mirror); !res.Valid {
		pos, ok := FindOpenPosition(dst, mirror, expPos)
		if !ok {
			opts.Logger.Warn("reciprocal door unsatisfiable",
				"from", src.Key(), "to", dst.Key(), "wall", expWall)
			return &Warning{
				SpaceKey:  src.Key(),
				TargetKey: dst.Key(),
				Wall:      expWall,
				Message: fmt.Sprintf("no position on the %s wall of %q fits a %.1fft door; connection left one-directional",
					expWall, dst.Key(), mirror.Width),
			}
		}
		mirror.Position = pos
	}

	dst.Doors = append(dst.Doors, mirror)
	opts.Logger.Debug("created reciprocal door",
		"from", src.Key(), "to", dst.Key(), "wall", expWall, "position", mirror.Position)
	return nil
}

// dropStaleMirrors removes auto-created mirrors in dst that point back at
// src but that no parent door accounts for anymore: in bounds and within
// tolerance of the expected position of at least one parent. This handles
// resize and move drift without leaving duplicate mirrors behind, and never
// touches a sibling mirror that belongs to another door of the same pair.
func dropStaleMirrors(src, dst *plan.Space, parents []plan.Door, opts Options) {
	srcKey := src.Key()
	kept := dst.Doors[:0]
	for _, dr := range dst.Doors {
		if !dr.Reciprocal || dr.LeadsTo != srcKey {
			kept = append(kept, dr)
			continue
		}
		accounted := false
		for _, p := range parents {
			expWall := p.Wall.Opposite()
			if dr.Wall != expWall {
				continue
			}
			length := dst.WallLength(expWall)
			expPos := ReciprocalPosition(src, dst, p)
			if math.Abs(dr.Position-expPos) <= opts.Tolerance &&
				dr.Position-dr.Width/2 >= 0 && dr.Position+dr.Width/2 <= length {
				accounted = true
				break
			}
		}
		if !accounted {
			opts.Logger.Debug("removed stale reciprocal door",
				"space", dst.Key(), "wall", dr.Wall, "position", dr.Position)
			continue
		}
		kept = append(kept, dr)
	}
	dst.Doors = kept
}

// RemoveMirrors deletes every auto-created mirror in target that points back
// at srcKey, regardless of wall. Door-removal and space-deletion commands
// use it to clean up the other endpoint of a dropped connection.
func RemoveMirrors(target *plan.Space, srcKey string) int {
	kept := target.Doors[:0]
	removed := 0
	for _, dr := range target.Doors {
		if dr.Reciprocal && dr.LeadsTo == srcKey {
			removed++
			continue
		}
		kept = append(kept, dr)
	}
	target.Doors = kept
	return removed
}

// Describe summarizes a connection for logs and UI, e.g. "hall east→armory".
func Describe(srcKey string, d plan.Door) string {
	var b strings.Builder
	b.WriteString(srcKey)
	b.WriteString(" ")
	b.WriteString(string(d.Wall))
	b.WriteString("→")
	if d.LeadsTo == "" {
		b.WriteString(plan.LeadsToPending)
	} else {
		b.WriteString(d.LeadsTo)
	}
	return b.String()
}
