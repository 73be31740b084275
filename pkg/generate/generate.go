// Package generate runs author scripts that build floor plans.
//
// Scripts are written in Tengo and drive a small builder API exposed as
// global functions (add_space, add_door, set_walls, lock, set_access). The
// runtime produces a plain document of spaces and wall defaults; feeding the
// result through the engine (sync, layout, validation) is the caller's job.
// Tengo's standard modules are available, so scripts can loop, randomize,
// and compose rooms procedurally.
package generate

import (
	"fmt"
	"os"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/matzehuels/floorsmith/pkg/errors"
	"github.com/matzehuels/floorsmith/pkg/plan"
	"github.com/matzehuels/floorsmith/pkg/planfile"
)

// Run compiles and executes a plan-generator script and returns the document
// it built. Builder misuse (duplicate keys, unknown spaces, bad walls) stops
// the script with a structured error.
func Run(src []byte) (*planfile.Document, error) {
	b := &builder{index: make(map[string]int)}

	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	for name, fn := range b.api() {
		if err := script.Add(name, fn); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "registering %s", name)
		}
	}

	if _, err := script.Run(); err != nil {
		if b.err != nil {
			return nil, b.err
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "running generator script")
	}
	if b.err != nil {
		return nil, b.err
	}

	return &planfile.Document{Spaces: b.spaces, Walls: b.walls}, nil
}

// RunFile reads and runs the script at path.
func RunFile(path string) (*planfile.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Run(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

type builder struct {
	spaces []plan.Space
	walls  *plan.WallSettings
	index  map[string]int

	// err keeps the first builder failure; the tengo runtime error it
	// triggers is replaced by this one when the script stops.
	err error
}

func (b *builder) fail(err error) (tengo.Object, error) {
	if b.err == nil {
		b.err = err
	}
	return nil, err
}

func (b *builder) api() map[string]tengo.Object {
	return map[string]tengo.Object{
		"add_space":  &tengo.UserFunction{Name: "add_space", Value: b.addSpace},
		"add_door":   &tengo.UserFunction{Name: "add_door", Value: b.addDoor},
		"set_walls":  &tengo.UserFunction{Name: "set_walls", Value: b.setWalls},
		"lock":       &tengo.UserFunction{Name: "lock", Value: b.lock},
		"set_access": &tengo.UserFunction{Name: "set_access", Value: b.setAccess},
	}
}

// addSpace implements add_space({name: ..., size: [w, h], ...}).
func (b *builder) addSpace(args ...tengo.Object) (tengo.Object, error) {
	m, err := mapArg(args, 0, "add_space")
	if err != nil {
		return b.fail(err)
	}

	s := plan.Space{
		Code:        stringField(m, "code"),
		Name:        stringField(m, "name"),
		Purpose:     stringField(m, "purpose"),
		Description: stringField(m, "description"),
		Shape:       stringField(m, "shape"),
		AccessPoint: boolField(m, "access"),
	}
	s.Size.Width, s.Size.Height = sizeField(m)
	for _, f := range listField(m, "features") {
		if str, ok := f.(string); ok {
			s.Features = append(s.Features, str)
		}
	}
	if t, ok := floatField(m, "wall_thickness"); ok {
		s.WallThickness = &t
	}
	if mat := stringField(m, "wall_material"); mat != "" {
		s.WallMaterial = mat
	}
	if x, okX := floatField(m, "x"); okX {
		y, _ := floatField(m, "y")
		s.Position = &plan.Point{X: x, Y: y}
		s.PositionLocked = boolField(m, "locked")
	}

	key := s.Key()
	if key == "" {
		return b.fail(errors.New(errors.ErrCodeInvalidInput, "add_space needs a code or name"))
	}
	if _, exists := b.index[key]; exists {
		return b.fail(errors.New(errors.ErrCodeDuplicateSpace, "add_space: %q already exists", key))
	}
	if !s.Size.Valid() {
		return b.fail(errors.New(errors.ErrCodeInvalidInput, "add_space %q: size must be positive", key))
	}

	b.index[key] = len(b.spaces)
	b.spaces = append(b.spaces, s)
	return &tengo.String{Value: key}, nil
}

// addDoor implements add_door(space, {wall: "east", position: 10, width: 4, leads_to: ...}).
func (b *builder) addDoor(args ...tengo.Object) (tengo.Object, error) {
	if len(args) < 2 {
		return b.fail(errors.New(errors.ErrCodeInvalidInput, "add_door needs a space key and a door map"))
	}
	key := asString(args[0])
	i, ok := b.index[key]
	if !ok {
		return b.fail(errors.New(errors.ErrCodeSpaceNotFound, "add_door: no space %q", key))
	}
	m, err := mapArg(args, 1, "add_door")
	if err != nil {
		return b.fail(err)
	}

	d := plan.Door{
		Wall:     plan.Wall(stringField(m, "wall")),
		LeadsTo:  stringField(m, "leads_to"),
		Style:    stringField(m, "style"),
		Material: stringField(m, "material"),
		Color:    stringField(m, "color"),
		State:    stringField(m, "state"),
	}
	d.Position, _ = floatField(m, "position")
	d.Width, _ = floatField(m, "width")

	if !d.Wall.IsValid() {
		return b.fail(errors.New(errors.ErrCodeInvalidInput, "add_door %q: invalid wall %q", key, d.Wall))
	}
	s := &b.spaces[i]
	if res := plan.ValidateCandidate(s, d); !res.Valid {
		return b.fail(errors.New(errors.ErrCodeInvalidDoor, "add_door %q: %s", key, strings.Join(res.Violations, "; ")))
	}

	s.Doors = append(s.Doors, d)
	return tengo.TrueValue, nil
}

// setWalls implements set_walls({thickness: 2, material: "brick"}).
func (b *builder) setWalls(args ...tengo.Object) (tengo.Object, error) {
	m, err := mapArg(args, 0, "set_walls")
	if err != nil {
		return b.fail(err)
	}

	ws := plan.DefaultWallSettings()
	if b.walls != nil {
		ws = *b.walls
	}
	if t, ok := floatField(m, "thickness"); ok {
		ws.Thickness = t
	}
	if mat := stringField(m, "material"); mat != "" {
		ws.Material = mat
	}
	if ws.Thickness <= 0 {
		return b.fail(errors.New(errors.ErrCodeInvalidInput, "set_walls: thickness must be positive"))
	}

	b.walls = &ws
	return tengo.TrueValue, nil
}

// lock implements lock(space, x, y): pin a space at a position.
func (b *builder) lock(args ...tengo.Object) (tengo.Object, error) {
	if len(args) < 3 {
		return b.fail(errors.New(errors.ErrCodeInvalidInput, "lock needs a space key, x, and y"))
	}
	key := asString(args[0])
	i, ok := b.index[key]
	if !ok {
		return b.fail(errors.New(errors.ErrCodeSpaceNotFound, "lock: no space %q", key))
	}

	b.spaces[i].Position = &plan.Point{X: asFloat(args[1]), Y: asFloat(args[2])}
	b.spaces[i].PositionLocked = true
	return tengo.TrueValue, nil
}

// setAccess implements set_access(space, true).
func (b *builder) setAccess(args ...tengo.Object) (tengo.Object, error) {
	if len(args) < 1 {
		return b.fail(errors.New(errors.ErrCodeInvalidInput, "set_access needs a space key"))
	}
	key := asString(args[0])
	i, ok := b.index[key]
	if !ok {
		return b.fail(errors.New(errors.ErrCodeSpaceNotFound, "set_access: no space %q", key))
	}

	access := true
	if len(args) > 1 {
		access = !args[1].IsFalsy()
	}
	b.spaces[i].AccessPoint = access
	return tengo.TrueValue, nil
}

// =============================================================================
// Argument helpers
// =============================================================================

func mapArg(args []tengo.Object, i int, fn string) (map[string]tengo.Object, error) {
	if len(args) <= i {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s needs a map argument", fn)
	}
	switch v := args[i].(type) {
	case *tengo.Map:
		return v.Value, nil
	case *tengo.ImmutableMap:
		return v.Value, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: argument %d must be a map, got %s", fn, i+1, v.TypeName())
	}
}

// sizeField reads size: [w, h] or the width/height pair.
func sizeField(m map[string]tengo.Object) (w, h float64) {
	if arr, ok := m["size"].(*tengo.Array); ok && len(arr.Value) >= 2 {
		return asFloat(arr.Value[0]), asFloat(arr.Value[1])
	}
	w, _ = floatField(m, "width")
	h, _ = floatField(m, "height")
	return w, h
}

func stringField(m map[string]tengo.Object, key string) string {
	if obj, ok := m[key]; ok {
		return asString(obj)
	}
	return ""
}

func floatField(m map[string]tengo.Object, key string) (float64, bool) {
	obj, ok := m[key]
	if !ok {
		return 0, false
	}
	switch v := obj.(type) {
	case *tengo.Float:
		return v.Value, true
	case *tengo.Int:
		return float64(v.Value), true
	default:
		return 0, false
	}
}

func boolField(m map[string]tengo.Object, key string) bool {
	obj, ok := m[key]
	return ok && !obj.IsFalsy()
}

func listField(m map[string]tengo.Object, key string) []any {
	arr, ok := m[key].(*tengo.Array)
	if !ok {
		return nil
	}
	out := make([]any, 0, len(arr.Value))
	for _, item := range arr.Value {
		out = append(out, tengo.ToInterface(item))
	}
	return out
}

func asString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	if s, ok := obj.(*tengo.String); ok {
		return s.Value
	}
	return strings.Trim(obj.String(), "\"")
}

func asFloat(obj tengo.Object) float64 {
	switch v := obj.(type) {
	case *tengo.Float:
		return v.Value
	case *tengo.Int:
		return float64(v.Value)
	default:
		return 0
	}
}
