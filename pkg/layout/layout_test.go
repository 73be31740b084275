package layout

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/floorsmith/pkg/plan"
	"github.com/matzehuels/floorsmith/pkg/plan/doors"
)

func ft(v float64) *float64 { return &v }

// Two 20×20 rooms with 10 ft walls each: after synchronization and layout, B
// sits one room width plus the 20 ft gap east of A, aligned via the doors.
func TestScenarioAdjacentRooms(t *testing.T) {
	spaces := []plan.Space{
		{
			Name:          "A",
			Size:          plan.Size{Width: 20, Height: 20},
			WallThickness: ft(10),
			Doors:         []plan.Door{{Wall: plan.WallEast, Position: 10, Width: 4, LeadsTo: "B"}},
		},
		{
			Name:          "B",
			Size:          plan.Size{Width: 20, Height: 20},
			WallThickness: ft(10),
		},
	}

	if w := doors.Synchronize(spaces, doors.Options{}); len(w) != 0 {
		t.Fatalf("unexpected sync warnings: %v", w)
	}

	out, err := Compute(spaces, Options{})
	if err != nil {
		t.Fatal(err)
	}

	a := plan.FindSpace(out, "A")
	b := plan.FindSpace(out, "B")
	if !a.Placed() || !b.Placed() {
		t.Fatal("both spaces should be placed")
	}
	if got, want := b.Position.X-a.Position.X, 20.0+20.0; got != want {
		t.Errorf("B.x - A.x = %v, want %v (width + gap)", got, want)
	}
	if b.Position.Y != a.Position.Y {
		t.Errorf("B.y = %v, want aligned with A.y = %v", b.Position.Y, a.Position.Y)
	}

	// The reciprocal door appeared on B's west wall at the matching offset.
	m := plan.FindSpace(out, "B").Doors
	if len(m) != 1 || m[0].Wall != plan.WallWest || m[0].Position != 10 || !m[0].Reciprocal {
		t.Errorf("B doors = %v, want single reciprocal west door at 10", m)
	}
}

// A space with no doors and no access point aborts the run with one itemized
// error; nothing is mutated.
func TestScenarioNoAccess(t *testing.T) {
	spaces := []plan.Space{
		{Name: "entry", Size: plan.Size{Width: 20, Height: 20}, AccessPoint: true},
		{Name: "C", Size: plan.Size{Width: 15, Height: 15}},
	}
	before := plan.CloneSpaces(spaces)

	out, err := Compute(spaces, Options{})

	var infeasible *InfeasibleError
	if !errors.As(err, &infeasible) {
		t.Fatalf("err = %v, want *InfeasibleError", err)
	}
	if len(infeasible.SpaceKeys) != 1 || infeasible.SpaceKeys[0] != "C" {
		t.Errorf("SpaceKeys = %v, want [C]", infeasible.SpaceKeys)
	}
	if len(infeasible.Items()) != 1 {
		t.Errorf("Items = %v, want one entry", infeasible.Items())
	}
	if !reflect.DeepEqual(out, before) {
		t.Error("failed layout must return the input unchanged")
	}
}

func TestLockedSpacesExemptFromPrecondition(t *testing.T) {
	spaces := []plan.Space{
		{Name: "anchor", Size: plan.Size{Width: 20, Height: 20}, PositionLocked: true, Position: &plan.Point{X: 5, Y: 5}},
		{Name: "hall", Size: plan.Size{Width: 20, Height: 20}, AccessPoint: true},
	}

	if _, err := Compute(spaces, Options{}); err != nil {
		t.Errorf("locked space without doors should not block layout: %v", err)
	}
}

func TestDeterminism(t *testing.T) {
	spaces := []plan.Space{
		{Name: "hall", Size: plan.Size{Width: 30, Height: 20}, Doors: []plan.Door{
			{Wall: plan.WallEast, Position: 10, Width: 4, LeadsTo: "armory"},
			{Wall: plan.WallSouth, Position: 15, Width: 4, LeadsTo: "crypt"},
		}},
		{Name: "armory", Size: plan.Size{Width: 20, Height: 20}},
		{Name: "crypt", Size: plan.Size{Width: 25, Height: 15}},
	}
	doors.Synchronize(spaces, doors.Options{})

	first, err := Compute(spaces, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compute(spaces, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical input must yield identical positions")
	}
}

func TestLockedInvariance(t *testing.T) {
	// Deliberately off-grid position; the engine must not touch it.
	locked := plan.Point{X: 37, Y: 23}
	spaces := []plan.Space{
		{
			Name:           "anchor",
			Size:           plan.Size{Width: 20, Height: 20},
			PositionLocked: true,
			Position:       &locked,
			Doors:          []plan.Door{{Wall: plan.WallEast, Position: 10, Width: 4, LeadsTo: "wing"}},
		},
		{Name: "wing", Size: plan.Size{Width: 20, Height: 20}},
	}
	doors.Synchronize(spaces, doors.Options{})

	out, err := Compute(spaces, Options{})
	if err != nil {
		t.Fatal(err)
	}

	a := plan.FindSpace(out, "anchor")
	if *a.Position != locked {
		t.Errorf("locked position moved to %+v", *a.Position)
	}

	// The neighbor is placed relative to the locked anchor, snapped to grid.
	w := plan.FindSpace(out, "wing")
	if !w.Placed() {
		t.Fatal("wing should be placed")
	}
	if got := w.Position.X; got != plan.SnapToGrid(37+20+2, 5) {
		t.Errorf("wing.x = %v, want %v", got, plan.SnapToGrid(37+20+2, 5))
	}
}

func TestDisconnectedFallbackGrid(t *testing.T) {
	spaces := []plan.Space{
		{Name: "hall", Size: plan.Size{Width: 20, Height: 20}, Doors: []plan.Door{
			{Wall: plan.WallEast, Position: 10, Width: 4, LeadsTo: "armory"},
		}},
		{Name: "armory", Size: plan.Size{Width: 20, Height: 20}},
		// Disconnected pair, reachable nowhere from the seed component.
		{Name: "cell-1", Size: plan.Size{Width: 10, Height: 10}, AccessPoint: true},
		{Name: "cell-2", Size: plan.Size{Width: 10, Height: 10}, AccessPoint: true},
	}
	doors.Synchronize(spaces, doors.Options{})

	out, err := Compute(spaces, Options{})
	if err != nil {
		t.Fatal(err)
	}

	maxConnectedX := 0.0
	for _, key := range []string{"hall", "armory"} {
		s := plan.FindSpace(out, key)
		if !s.Placed() {
			t.Fatalf("%s should be placed", key)
		}
		if x := s.Position.X + s.Size.Width; x > maxConnectedX {
			maxConnectedX = x
		}
	}

	c1 := plan.FindSpace(out, "cell-1")
	c2 := plan.FindSpace(out, "cell-2")
	if !c1.Placed() || !c2.Placed() {
		t.Fatal("disconnected spaces should be placed on the fallback grid")
	}
	if c1.Position.X <= maxConnectedX || c2.Position.X <= maxConnectedX {
		t.Errorf("fallback grid should sit east of the plan: %v %v (max %v)",
			c1.Position, c2.Position, maxConnectedX)
	}
	if *c1.Position == *c2.Position {
		t.Error("fallback cells must not stack")
	}
}

func TestNormalizePadding(t *testing.T) {
	spaces := []plan.Space{
		{Name: "solo", Size: plan.Size{Width: 20, Height: 20}, AccessPoint: true},
	}

	out, err := Compute(spaces, Options{})
	if err != nil {
		t.Fatal(err)
	}

	s := plan.FindSpace(out, "solo")
	// Minimum unlocked coordinate lands on the 2-grid-unit padding.
	if s.Position.X != 2*DefaultGridUnit || s.Position.Y != 2*DefaultGridUnit {
		t.Errorf("position = %+v, want (%v, %v)", *s.Position, 2*DefaultGridUnit, 2*DefaultGridUnit)
	}
}

func TestCycleTerminates(t *testing.T) {
	spaces := []plan.Space{
		{Name: "a", Size: plan.Size{Width: 20, Height: 20}, Doors: []plan.Door{
			{Wall: plan.WallEast, Position: 10, Width: 4, LeadsTo: "b"},
		}},
		{Name: "b", Size: plan.Size{Width: 20, Height: 20}, Doors: []plan.Door{
			{Wall: plan.WallSouth, Position: 10, Width: 4, LeadsTo: "c"},
		}},
		{Name: "c", Size: plan.Size{Width: 20, Height: 20}, Doors: []plan.Door{
			{Wall: plan.WallNorth, Position: 10, Width: 4, LeadsTo: "a"},
		}},
	}
	doors.Synchronize(spaces, doors.Options{})

	out, err := Compute(spaces, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range out {
		if !s.Placed() {
			t.Errorf("%s should be placed", s.Key())
		}
	}
}

func TestSeedPrefersMostConnected(t *testing.T) {
	spaces := []plan.Space{
		{Name: "leaf", Size: plan.Size{Width: 10, Height: 10}, Doors: []plan.Door{
			{Wall: plan.WallEast, Position: 5, Width: 2, LeadsTo: "hub"},
		}},
		{Name: "hub", Size: plan.Size{Width: 40, Height: 40}, Doors: []plan.Door{
			{Wall: plan.WallWest, Position: 5, Width: 2, LeadsTo: "leaf"},
			{Wall: plan.WallEast, Position: 20, Width: 4, LeadsTo: "east-wing"},
			{Wall: plan.WallSouth, Position: 20, Width: 4, LeadsTo: "south-wing"},
		}},
		{Name: "east-wing", Size: plan.Size{Width: 20, Height: 20}},
		{Name: "south-wing", Size: plan.Size{Width: 20, Height: 20}},
	}

	if got := pickSeed(spaces); got != 1 {
		t.Errorf("pickSeed = %d, want 1 (hub)", got)
	}
}

func TestGridSnapping(t *testing.T) {
	spaces := []plan.Space{
		{Name: "a", Size: plan.Size{Width: 17, Height: 13}, Doors: []plan.Door{
			{Wall: plan.WallEast, Position: 6, Width: 3, LeadsTo: "b"},
		}},
		{Name: "b", Size: plan.Size{Width: 11, Height: 9}},
	}
	doors.Synchronize(spaces, doors.Options{})

	out, err := Compute(spaces, Options{GridUnit: 5})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range out {
		if s.Position.X != plan.SnapToGrid(s.Position.X, 5) || s.Position.Y != plan.SnapToGrid(s.Position.Y, 5) {
			t.Errorf("%s at %+v is off-grid", s.Key(), *s.Position)
		}
	}
}
