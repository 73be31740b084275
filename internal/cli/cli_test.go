package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/floorsmith/pkg/planfile"
)

// execute runs the root command with the given args.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

// writePlan writes a two-room plan file and returns its path.
func writePlan(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "plan.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validPlan = `{
  "spaces": [
    {
      "name": "hall",
      "size": {"width": 40, "height": 30},
      "doors": [{"wall": "east", "position_on_wall": 15, "width": 4, "leads_to": "armory"}]
    },
    {"name": "armory", "size": {"width": 20, "height": 20}}
  ]
}`

const brokenPlan = `{
  "spaces": [
    {
      "name": "hall",
      "size": {"width": 40, "height": 30},
      "doors": [{"wall": "north", "position_on_wall": 100, "width": 4, "leads_to": "outside"}]
    }
  ]
}`

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"validate", "layout", "render", "generate", "edit", "serve", "sessions", "completion"}
	have := map[string]bool{}
	for _, cmd := range root.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	path := writePlan(t, t.TempDir(), validPlan)
	if err := execute(t, "validate", path); err != nil {
		t.Errorf("validate on clean plan: %v", err)
	}
}

func TestValidateCommandBrokenPlan(t *testing.T) {
	path := writePlan(t, t.TempDir(), brokenPlan)
	if err := execute(t, "validate", path); err == nil {
		t.Error("validate should fail on a plan with an out-of-bounds door")
	}
}

func TestValidateCommandMissingFile(t *testing.T) {
	if err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("validate should fail on a missing file")
	}
}

func TestLayoutCommand(t *testing.T) {
	dir := t.TempDir()
	path := writePlan(t, dir, validPlan)
	out := filepath.Join(dir, "placed.json")

	if err := execute(t, "layout", path, "-o", out); err != nil {
		t.Fatalf("layout: %v", err)
	}

	doc, err := planfile.Load(out)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	for i := range doc.Spaces {
		if !doc.Spaces[i].Placed() {
			t.Errorf("space %q not placed", doc.Spaces[i].Key())
		}
	}
}

func TestLayoutCommandInfeasible(t *testing.T) {
	// A door-less second room cannot be reached by expansion.
	const orphan = `{
  "spaces": [
    {"name": "hall", "size": {"width": 40, "height": 30}, "access_point": true},
    {"name": "oubliette", "size": {"width": 10, "height": 10}}
  ]
}`
	path := writePlan(t, t.TempDir(), orphan)
	if err := execute(t, "layout", path); err == nil {
		t.Error("layout should fail when a space has no doors and no access point")
	}
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "keep.tengo")
	src := `
add_space({name: "Keep", size: [40, 30]})
add_space({name: "Gatehouse", size: [20, 15], access: true})
add_door("Keep", {wall: "east", position: 15, width: 4, leads_to: "Gatehouse"})
`
	if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "keep.json")
	if err := execute(t, "generate", script, "-o", out); err != nil {
		t.Fatalf("generate: %v", err)
	}

	doc, err := planfile.Load(out)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if len(doc.Spaces) != 2 {
		t.Errorf("got %d spaces, want 2", len(doc.Spaces))
	}
}

func TestRenderCommandDOT(t *testing.T) {
	dir := t.TempDir()
	path := writePlan(t, dir, validPlan)
	out := filepath.Join(dir, "plan.dot")

	if err := execute(t, "render", path, "--view", "graph", "-f", "dot", "-o", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("rendered DOT output is empty")
	}
}

func TestRenderCommandRejectsUnknownView(t *testing.T) {
	path := writePlan(t, t.TempDir(), validPlan)
	if err := execute(t, "render", path, "--view", "elevation"); err == nil {
		t.Error("render should reject an unknown view")
	}
}
