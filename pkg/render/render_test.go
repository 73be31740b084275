package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/floorsmith/pkg/plan"
)

func testSpaces() []plan.Space {
	return []plan.Space{
		{
			Name:     "hall",
			Size:     plan.Size{Width: 40, Height: 30},
			Position: &plan.Point{X: 10, Y: 10},
			Doors: []plan.Door{
				{Wall: plan.WallEast, Position: 15, Width: 6, LeadsTo: "armory"},
				{Wall: plan.WallSouth, Position: 20, Width: 8, LeadsTo: plan.LeadsToOutside},
				{Wall: plan.WallNorth, Position: 10, Width: 4}, // pending
			},
		},
		{
			Name:     "armory",
			Size:     plan.Size{Width: 20, Height: 20},
			Position: &plan.Point{X: 52, Y: 10},
			Doors: []plan.Door{
				{Wall: plan.WallWest, Position: 15, Width: 6, LeadsTo: "hall", Reciprocal: true},
			},
			PositionLocked: true,
		},
		{Name: "crypt", Size: plan.Size{Width: 15, Height: 15}},
	}
}

func TestSVG(t *testing.T) {
	out := string(SVG(testSpaces(), plan.DefaultWallSettings(), DefaultSVGOptions()))

	if !strings.HasPrefix(out, "<svg ") || !strings.HasSuffix(out, "</svg>\n") {
		t.Fatalf("output is not a complete svg document:\n%s", out)
	}
	for _, want := range []string{
		`id="room-hall"`,
		`id="room-armory"`,
		`class="room locked"`, // armory
		`class="door"`,
		`>hall</text>`,
		`40×30 ft`,
		`Unplaced:`,
		`crypt (15×15 ft)`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if strings.Contains(out, `id="room-crypt"`) {
		t.Error("unplaced space should not be drawn as a room")
	}
}

func TestSVGEscapesNames(t *testing.T) {
	spaces := []plan.Space{{
		Name:     `guard "post" <east>`,
		Size:     plan.Size{Width: 10, Height: 10},
		Position: &plan.Point{},
	}}
	out := string(SVG(spaces, plan.DefaultWallSettings(), DefaultSVGOptions()))
	if strings.Contains(out, "<east>") {
		t.Error("unescaped markup in label")
	}
	if !strings.Contains(out, "&lt;east&gt;") {
		t.Error("expected escaped label")
	}
}

func TestSVGEmptyPlan(t *testing.T) {
	out := string(SVG(nil, plan.DefaultWallSettings(), DefaultSVGOptions()))
	if !strings.HasPrefix(out, "<svg ") {
		t.Fatalf("empty plan should still render a document:\n%s", out)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testSpaces(), DOTOptions{})

	for _, want := range []string{
		`"hall" [`,
		`"armory" [`,
		`"hall" -- "armory" [label="east@15"]`,
		`"hall" -- outside [label="south@20"]`,
		`outside [shape=plaintext`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot missing %q in:\n%s", want, dot)
		}
	}

	if strings.Contains(dot, `"armory" -- "hall"`) {
		t.Error("reciprocal door must not produce a second edge")
	}
	if strings.Contains(dot, "north@10") {
		t.Error("pending door must not produce an edge")
	}
}

func TestToDOTDetailed(t *testing.T) {
	spaces := testSpaces()
	spaces[0].Purpose = "feasting"
	dot := ToDOT(spaces, DOTOptions{Detailed: true})
	if !strings.Contains(dot, "feasting") {
		t.Errorf("detailed label missing purpose:\n%s", dot)
	}
}
