package generate

import (
	"testing"

	"github.com/matzehuels/floorsmith/pkg/errors"
	"github.com/matzehuels/floorsmith/pkg/plan"
)

func TestRunBuildsDocument(t *testing.T) {
	src := `
set_walls({thickness: 2, material: "brick"})

hall := add_space({name: "hall", size: [40, 30], purpose: "feasting"})
add_space({name: "armory", size: [20, 20], features: ["rack", "anvil"]})

add_door(hall, {wall: "east", position: 15, width: 6, leads_to: "armory"})
add_door(hall, {wall: "south", position: 20, width: 8, leads_to: "outside"})

lock("armory", 60, 10)
set_access("hall", true)
`
	doc, err := Run([]byte(src))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if doc.Walls == nil || doc.Walls.Thickness != 2 || doc.Walls.Material != "brick" {
		t.Errorf("walls = %+v, want 2ft brick", doc.Walls)
	}
	if len(doc.Spaces) != 2 {
		t.Fatalf("spaces = %d, want 2", len(doc.Spaces))
	}

	hall := plan.FindSpace(doc.Spaces, "hall")
	if hall == nil || len(hall.Doors) != 2 {
		t.Fatalf("hall = %+v", hall)
	}
	if !hall.AccessPoint {
		t.Error("set_access did not stick")
	}
	if hall.Doors[1].LeadsTo != plan.LeadsToOutside {
		t.Errorf("door 1 leads to %q", hall.Doors[1].LeadsTo)
	}

	armory := plan.FindSpace(doc.Spaces, "armory")
	if armory == nil || !armory.PositionLocked || armory.Position == nil {
		t.Fatalf("armory = %+v, want locked with position", armory)
	}
	if armory.Position.X != 60 || armory.Position.Y != 10 {
		t.Errorf("armory at %+v, want (60,10)", armory.Position)
	}
	if len(armory.Features) != 2 {
		t.Errorf("features = %v", armory.Features)
	}
}

func TestRunProcedural(t *testing.T) {
	src := `
fmt := import("fmt")

for i := 0; i < 4; i++ {
    add_space({name: fmt.sprintf("cell-%d", i), size: [10, 10]})
}
`
	doc, err := Run([]byte(src))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(doc.Spaces) != 4 {
		t.Fatalf("spaces = %d, want 4", len(doc.Spaces))
	}
	if doc.Spaces[3].Name != "cell-3" {
		t.Errorf("last space = %q", doc.Spaces[3].Name)
	}
}

func TestRunBuilderErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
	}{
		{
			name: "duplicate space",
			src:  `add_space({name: "a", size: [10, 10]}); add_space({name: "a", size: [5, 5]})`,
			code: errors.ErrCodeDuplicateSpace,
		},
		{
			name: "missing identity",
			src:  `add_space({size: [10, 10]})`,
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "door on unknown space",
			src:  `add_door("ghost", {wall: "east", position: 5, width: 2})`,
			code: errors.ErrCodeSpaceNotFound,
		},
		{
			name: "door out of bounds",
			src:  `add_space({name: "a", size: [10, 10]}); add_door("a", {wall: "north", position: 9, width: 4})`,
			code: errors.ErrCodeInvalidDoor,
		},
		{
			name: "bad wall thickness",
			src:  `set_walls({thickness: -1})`,
			code: errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run([]byte(tt.src))
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRunSyntaxError(t *testing.T) {
	_, err := Run([]byte(`add_space({`))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}
