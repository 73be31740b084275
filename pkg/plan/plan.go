// Package plan defines the floor-plan data model: spaces, doors, and wall
// settings, together with the geometric validation rules that every committed
// plan must satisfy.
//
// A plan is an ordered list of [Space] values. Each space has a rectangular
// footprint sized in feet and an optional position (absent until placed by
// the layout engine or a move command). Doors sit on one of the four cardinal
// walls and reference the space they lead to by identity key.
//
// Coordinates are feet with x growing east and y growing south; a space's
// Position is the north-west corner of its bounding box. Circular and
// L-shaped footprints use their bounding-box walls for all door coordinates,
// identical to rectangles.
//
// All types in this package are plain data. Mutation policy (copy-on-write,
// command gating) is the concern of package editor; this package only
// provides deep copies and pure checks.
package plan

import (
	"fmt"
	"math"
)

// =============================================================================
// Walls
// =============================================================================

// Wall identifies one of the four cardinal sides of a space's bounding box.
type Wall string

// The four cardinal walls.
const (
	WallNorth Wall = "north"
	WallSouth Wall = "south"
	WallEast  Wall = "east"
	WallWest  Wall = "west"
)

// Walls lists all four walls in a fixed order, for deterministic iteration.
var Walls = []Wall{WallNorth, WallSouth, WallEast, WallWest}

// IsValid reports whether w is one of the four cardinal walls.
func (w Wall) IsValid() bool {
	switch w {
	case WallNorth, WallSouth, WallEast, WallWest:
		return true
	}
	return false
}

// Opposite returns the facing wall: north↔south, east↔west.
// Returns the receiver unchanged for invalid walls.
func (w Wall) Opposite() Wall {
	switch w {
	case WallNorth:
		return WallSouth
	case WallSouth:
		return WallNorth
	case WallEast:
		return WallWest
	case WallWest:
		return WallEast
	}
	return w
}

// Horizontal reports whether the wall runs east–west (north or south wall).
// Door positions on horizontal walls are measured from the west end; on
// vertical walls from the north end.
func (w Wall) Horizontal() bool {
	return w == WallNorth || w == WallSouth
}

// =============================================================================
// Geometry Primitives
// =============================================================================

// Point is a coordinate in feet-space.
type Point struct {
	X float64 `json:"x" bson:"x" yaml:"x"`
	Y float64 `json:"y" bson:"y" yaml:"y"`
}

// Size is a space footprint in feet. Both dimensions must be positive.
type Size struct {
	Width  float64 `json:"width" bson:"width" yaml:"width"`
	Height float64 `json:"height" bson:"height" yaml:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// =============================================================================
// Doors
// =============================================================================

// LeadsTo sentinels. A door whose target is pending or outside does not
// resolve to a space and is ignored by synchronization and layout.
const (
	// LeadsToPending marks a door whose destination has not been decided yet.
	// An empty LeadsTo is treated the same way.
	LeadsToPending = "pending"

	// LeadsToOutside marks a door leading out of the floor plan.
	LeadsToOutside = "outside"
)

// Door is a wall-mounted connector referencing a target space.
//
// Position is the door center's distance in feet from the wall's start (west
// end for north/south walls, north end for east/west walls). Only Wall,
// Position, Width, and LeadsTo participate in geometry; the decorative fields
// are opaque pass-through for content tooling.
type Door struct {
	Wall     Wall    `json:"wall" bson:"wall" yaml:"wall"`
	Position float64 `json:"position_on_wall" bson:"position_on_wall" yaml:"position_on_wall"`
	Width    float64 `json:"width" bson:"width" yaml:"width"`
	LeadsTo  string  `json:"leads_to,omitempty" bson:"leads_to,omitempty" yaml:"leads_to,omitempty"`

	// Reciprocal is true only for auto-created mirror doors maintained by
	// the synchronization pass. Manually added doors keep it false.
	Reciprocal bool `json:"is_reciprocal,omitempty" bson:"is_reciprocal,omitempty" yaml:"is_reciprocal,omitempty"`

	// Decorative fields, excluded from all layout and validation invariants.
	Style    string `json:"style,omitempty" bson:"style,omitempty" yaml:"style,omitempty"`
	Material string `json:"material,omitempty" bson:"material,omitempty" yaml:"material,omitempty"`
	Color    string `json:"color,omitempty" bson:"color,omitempty" yaml:"color,omitempty"`
	State    string `json:"state,omitempty" bson:"state,omitempty" yaml:"state,omitempty"`
}

// Resolves reports whether the door's target names an actual space rather
// than a sentinel. It does not check that the space exists; use [Resolve].
func (d Door) Resolves() bool {
	return d.LeadsTo != "" && d.LeadsTo != LeadsToPending && d.LeadsTo != LeadsToOutside
}

// Interval returns the occupied wall interval [lo, hi] in feet.
func (d Door) Interval() (lo, hi float64) {
	return d.Position - d.Width/2, d.Position + d.Width/2
}

// Overlaps reports whether two doors on the same wall occupy overlapping
// intervals. Touching edges do not count as overlap. Doors on different
// walls never overlap.
func (d Door) Overlaps(other Door) bool {
	if d.Wall != other.Wall {
		return false
	}
	aLo, aHi := d.Interval()
	bLo, bHi := other.Interval()
	return aLo < bHi && bLo < aHi
}

// Clone returns a copy of the door.
func (d Door) Clone() Door {
	return d
}

// String returns a short human-readable description, e.g. "east@10.0ft→armory".
func (d Door) String() string {
	target := d.LeadsTo
	if target == "" {
		target = LeadsToPending
	}
	return fmt.Sprintf("%s@%.1fft→%s", d.Wall, d.Position, target)
}

// =============================================================================
// Spaces
// =============================================================================

// Footprint shapes. All shapes use bounding-box walls for door coordinates.
const (
	ShapeRectangle = "rectangle"
	ShapeCircle    = "circle"
	ShapeLShape    = "l-shape"
)

// Space is a placeable room or chamber.
//
// Identity is Code when non-empty, otherwise Name; identity keys must be
// unique within a plan. Position is nil until the space has been placed.
type Space struct {
	Code        string   `json:"code,omitempty" bson:"code,omitempty" yaml:"code,omitempty"`
	Name        string   `json:"name" bson:"name" yaml:"name"`
	Purpose     string   `json:"purpose,omitempty" bson:"purpose,omitempty" yaml:"purpose,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Features    []string `json:"features,omitempty" bson:"features,omitempty" yaml:"features,omitempty"`
	Shape       string   `json:"shape,omitempty" bson:"shape,omitempty" yaml:"shape,omitempty"`

	Size     Size   `json:"size" bson:"size" yaml:"size"`
	Position *Point `json:"position,omitempty" bson:"position,omitempty" yaml:"position,omitempty"`

	// PositionLocked exempts the space from auto-layout repositioning.
	PositionLocked bool `json:"position_locked,omitempty" bson:"position_locked,omitempty" yaml:"position_locked,omitempty"`

	// AccessPoint marks stairs or entrances that satisfy the layout
	// precondition without any door.
	AccessPoint bool `json:"access_point,omitempty" bson:"access_point,omitempty" yaml:"access_point,omitempty"`

	// Per-space overrides of the global wall defaults. Nil/empty means the
	// global setting applies.
	WallThickness *float64 `json:"wall_thickness,omitempty" bson:"wall_thickness,omitempty" yaml:"wall_thickness,omitempty"`
	WallMaterial  string   `json:"wall_material,omitempty" bson:"wall_material,omitempty" yaml:"wall_material,omitempty"`

	// Doors in display order; the order carries no geometric meaning.
	Doors []Door `json:"doors,omitempty" bson:"doors,omitempty" yaml:"doors,omitempty"`
}

// Key returns the space's identity: Code if present, else Name.
func (s *Space) Key() string {
	if s.Code != "" {
		return s.Code
	}
	return s.Name
}

// WallLength returns the length in feet of the given wall: the space's width
// for north/south walls, its height for east/west walls.
func (s *Space) WallLength(w Wall) float64 {
	if w.Horizontal() {
		return s.Size.Width
	}
	return s.Size.Height
}

// Placed reports whether the space has a position.
func (s *Space) Placed() bool {
	return s.Position != nil
}

// Clone returns a deep copy of the space.
func (s *Space) Clone() Space {
	out := *s
	if s.Position != nil {
		p := *s.Position
		out.Position = &p
	}
	if s.WallThickness != nil {
		t := *s.WallThickness
		out.WallThickness = &t
	}
	if s.Features != nil {
		out.Features = append([]string(nil), s.Features...)
	}
	if s.Doors != nil {
		out.Doors = append([]Door(nil), s.Doors...)
	}
	return out
}

// =============================================================================
// Wall Settings
// =============================================================================

// Default wall settings.
const (
	DefaultWallThickness = 1.0
	DefaultWallMaterial  = "stone"
)

// WallSettings holds the global wall defaults applied to every space without
// a per-space override.
type WallSettings struct {
	Thickness float64 `json:"thickness" bson:"thickness" yaml:"thickness"`
	Material  string  `json:"material,omitempty" bson:"material,omitempty" yaml:"material,omitempty"`
}

// DefaultWallSettings returns the standard defaults (1 ft stone walls).
func DefaultWallSettings() WallSettings {
	return WallSettings{Thickness: DefaultWallThickness, Material: DefaultWallMaterial}
}

// EffectiveThickness returns the wall thickness for a space: its override if
// set, otherwise the global default.
func (ws WallSettings) EffectiveThickness(s *Space) float64 {
	if s.WallThickness != nil {
		return *s.WallThickness
	}
	return ws.Thickness
}

// EffectiveMaterial returns the wall material for a space: its override if
// set, otherwise the global default.
func (ws WallSettings) EffectiveMaterial(s *Space) string {
	if s.WallMaterial != "" {
		return s.WallMaterial
	}
	return ws.Material
}

// =============================================================================
// Plan Helpers
// =============================================================================

// CloneSpaces returns a deep copy of a space list.
func CloneSpaces(spaces []Space) []Space {
	if spaces == nil {
		return nil
	}
	out := make([]Space, len(spaces))
	for i := range spaces {
		out[i] = spaces[i].Clone()
	}
	return out
}

// SpaceIndex builds an identity key → slice index map. When keys collide the
// first occurrence wins; duplicate keys are reported by ValidateAll.
func SpaceIndex(spaces []Space) map[string]int {
	idx := make(map[string]int, len(spaces))
	for i := range spaces {
		key := spaces[i].Key()
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

// FindSpace returns a pointer to the space with the given identity key, or
// nil if no such space exists.
func FindSpace(spaces []Space, key string) *Space {
	for i := range spaces {
		if spaces[i].Key() == key {
			return &spaces[i]
		}
	}
	return nil
}

// Resolve returns the space a door leads to, or nil for sentinel targets and
// unknown keys.
func Resolve(spaces []Space, leadsTo string) *Space {
	if leadsTo == "" || leadsTo == LeadsToPending || leadsTo == LeadsToOutside {
		return nil
	}
	return FindSpace(spaces, leadsTo)
}

// SnapToGrid rounds v to the nearest multiple of unit. A non-positive unit
// returns v unchanged.
func SnapToGrid(v, unit float64) float64 {
	if unit <= 0 {
		return v
	}
	return math.Round(v/unit) * unit
}
