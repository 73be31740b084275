package plan

import "fmt"

// =============================================================================
// Validation Results
// =============================================================================

// Result is the outcome of validating a single door.
type Result struct {
	Valid      bool     `json:"valid" bson:"valid" yaml:"valid"`
	Violations []string `json:"violations,omitempty" bson:"violations,omitempty" yaml:"violations,omitempty"`
}

// Issue describes one invalid door (or a plan-level problem) found by
// [ValidateAll]. DoorIndex is -1 for plan-level issues such as duplicate
// space keys.
type Issue struct {
	SpaceKey   string   `json:"space" bson:"space" yaml:"space"`
	DoorIndex  int      `json:"door_index" bson:"door_index" yaml:"door_index"`
	Wall       Wall     `json:"wall,omitempty" bson:"wall,omitempty" yaml:"wall,omitempty"`
	Violations []string `json:"violations" bson:"violations" yaml:"violations"`
}

// String renders the issue as a single human-readable line.
func (i Issue) String() string {
	if i.DoorIndex < 0 {
		return fmt.Sprintf("%s: %s", i.SpaceKey, join(i.Violations))
	}
	return fmt.Sprintf("%s, door %d (%s wall): %s", i.SpaceKey, i.DoorIndex, i.Wall, join(i.Violations))
}

func join(violations []string) string {
	out := ""
	for i, v := range violations {
		if i > 0 {
			out += "; "
		}
		out += v
	}
	return out
}

// =============================================================================
// Door Validation
// =============================================================================

// ValidateDoor checks the door at index i of a space against the geometric
// invariants: positive width, width within the wall length, occupied interval
// inside [0, wall length], and no overlap with other doors on the same wall.
//
// The returned violations are ordered and human-readable. ValidateDoor is
// pure; it never mutates the space.
func ValidateDoor(s *Space, i int) Result {
	return validate(s, s.Doors[i], i)
}

// ValidateCandidate checks a door that is not (yet) part of the space, as
// when gating an add or update command. All existing doors count as
// potential conflicts.
func ValidateCandidate(s *Space, d Door) Result {
	return validate(s, d, -1)
}

// validate collects violations for door d against space s, ignoring the
// existing door at skip (-1 to ignore none).
func validate(s *Space, d Door, skip int) Result {
	var violations []string

	if !d.Wall.IsValid() {
		violations = append(violations, fmt.Sprintf("invalid wall %q", d.Wall))
		return Result{Valid: false, Violations: violations}
	}

	length := s.WallLength(d.Wall)
	if d.Width <= 0 {
		violations = append(violations, fmt.Sprintf("door width %.1fft must be positive", d.Width))
	}
	if d.Width > length {
		violations = append(violations, fmt.Sprintf("door width %.1fft exceeds %s wall length %.1fft", d.Width, d.Wall, length))
	}

	lo, hi := d.Interval()
	if lo < 0 {
		violations = append(violations, fmt.Sprintf("door extends %.1fft past the start of the %s wall", -lo, d.Wall))
	}
	if hi > length {
		violations = append(violations, fmt.Sprintf("door extends %.1fft past the end of the %s wall", hi-length, d.Wall))
	}

	for j := range s.Doors {
		if j == skip {
			continue
		}
		if d.Overlaps(s.Doors[j]) {
			violations = append(violations, fmt.Sprintf("overlaps door %d (%s) on the %s wall", j, s.Doors[j], d.Wall))
		}
	}

	return Result{Valid: len(violations) == 0, Violations: violations}
}

// =============================================================================
// Plan Validation
// =============================================================================

// ValidateAll scans every door of every space and returns one Issue per
// invalid door, in input order. Duplicate identity keys are reported as
// plan-level issues (DoorIndex -1) ahead of door issues for the same space.
//
// ValidateAll is pure and has no side effects; it gates command commits and
// feeds the live issue list shown to authors.
func ValidateAll(spaces []Space) []Issue {
	var issues []Issue

	seen := make(map[string]int, len(spaces))
	for i := range spaces {
		key := spaces[i].Key()
		if first, ok := seen[key]; ok {
			issues = append(issues, Issue{
				SpaceKey:  key,
				DoorIndex: -1,
				Violations: []string{
					fmt.Sprintf("duplicate space identity %q (also used by space %d)", key, first),
				},
			})
			continue
		}
		seen[key] = i
	}

	for i := range spaces {
		s := &spaces[i]
		for j := range s.Doors {
			if res := ValidateDoor(s, j); !res.Valid {
				issues = append(issues, Issue{
					SpaceKey:   s.Key(),
					DoorIndex:  j,
					Wall:       s.Doors[j].Wall,
					Violations: res.Violations,
				})
			}
		}
	}

	return issues
}
