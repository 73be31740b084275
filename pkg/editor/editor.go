// Package editor orchestrates all mutations of a floor plan.
//
// An [Editor] owns one plan (space list plus global wall settings) and
// accepts a closed set of discrete commands: add/update/delete space,
// move/resize, add/remove/update door, lock toggling, wall settings, layout
// recomputation, and undo/redo. Commands are synchronous and single-writer;
// a host serving multiple callers must serialize access to each Editor.
//
// Every mutating command follows the same copy-on-write discipline: the
// structural change is applied to a deep copy, validated, and aborted with
// no effect on failure; on success the copy is committed and pushed onto the
// snapshot history. Engine state is therefore never corrupted by a rejected
// command.
package editor

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/floorsmith/pkg/errors"
	"github.com/matzehuels/floorsmith/pkg/layout"
	"github.com/matzehuels/floorsmith/pkg/plan"
	"github.com/matzehuels/floorsmith/pkg/plan/doors"
)

// Options configures an Editor.
type Options struct {
	// GridUnit is the layout snap grid in feet. Defaults to
	// [layout.DefaultGridUnit].
	GridUnit float64

	// Tolerance is the reciprocal-door position tolerance in feet.
	// Defaults to [doors.DefaultTolerance].
	Tolerance float64

	// MaxHistory caps the snapshot stack. Defaults to [DefaultMaxHistory].
	MaxHistory int

	// Logger receives engine debug output. Defaults to a discard logger.
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.GridUnit <= 0 {
		o.GridUnit = layout.DefaultGridUnit
	}
	if o.Tolerance <= 0 {
		o.Tolerance = doors.DefaultTolerance
	}
	if o.MaxHistory <= 0 {
		o.MaxHistory = DefaultMaxHistory
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Result is returned by every command: the committed space list (deep
// copy), the live validation issues, any synchronization warnings produced
// by the command, and the history state for undo/redo availability.
type Result struct {
	Spaces   []plan.Space    `json:"spaces" bson:"spaces"`
	Issues   []plan.Issue    `json:"issues,omitempty" bson:"issues,omitempty"`
	Warnings []doors.Warning `json:"warnings,omitempty" bson:"warnings,omitempty"`

	// Infeasible carries the itemized report when a secondary layout
	// recompute (after unlock or wall changes) could not run. The primary
	// change is still committed.
	Infeasible []string `json:"infeasible,omitempty" bson:"infeasible,omitempty"`

	History HistoryState `json:"history" bson:"history"`
}

// Editor owns the mutable plan state for one editing session.
type Editor struct {
	spaces  []plan.Space
	walls   plan.WallSettings
	history *History
	opts    Options
}

// New creates an Editor over the given initial plan. The input list is
// deep-copied; the caller's slice is never referenced again. The initial
// state is seeded as the first history snapshot so a full undo returns to
// it exactly.
func New(spaces []plan.Space, walls plan.WallSettings, opts Options) *Editor {
	opts = opts.withDefaults()
	if walls.Thickness <= 0 {
		walls = plan.DefaultWallSettings()
	}

	e := &Editor{
		spaces:  plan.CloneSpaces(spaces),
		walls:   walls,
		history: NewHistory(opts.MaxHistory),
		opts:    opts,
	}
	e.history.Push("initial", e.spaces)
	return e
}

// Spaces returns a deep copy of the current space list.
func (e *Editor) Spaces() []plan.Space { return plan.CloneSpaces(e.spaces) }

// Walls returns the current global wall settings.
func (e *Editor) Walls() plan.WallSettings { return e.walls }

// State returns the current plan as a command result without mutating
// anything.
func (e *Editor) State() Result { return e.result(nil, nil) }

// =============================================================================
// Space Commands
// =============================================================================

// AddSpace appends a new space. The identity key must be non-empty and
// unique, the size positive. Doors carried on the new space are validated
// and mirrored like freshly added doors.
func (e *Editor) AddSpace(s plan.Space) (Result, error) {
	key := s.Key()
	if key == "" {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "space needs a code or name")
	}
	if plan.FindSpace(e.spaces, key) != nil {
		return Result{}, errors.New(errors.ErrCodeDuplicateSpace, "a space with identity %q already exists", key)
	}
	if !s.Size.Valid() {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "space %q needs positive width and height", key)
	}

	work := plan.CloneSpaces(e.spaces)
	work = append(work, s.Clone())

	added := plan.FindSpace(work, key)
	for i := range added.Doors {
		if res := plan.ValidateDoor(added, i); !res.Valid {
			return Result{}, invalidDoor(key, res)
		}
	}

	warnings := doors.SyncSpace(work, key, e.syncOpts())
	e.commit(work, fmt.Sprintf("add space %s", key))
	return e.result(warnings, nil), nil
}

// SpaceUpdate carries the optional field changes for [Editor.UpdateSpace].
// Nil pointers leave the field untouched.
type SpaceUpdate struct {
	Code        *string   `json:"code,omitempty"`
	Name        *string   `json:"name,omitempty"`
	Purpose     *string   `json:"purpose,omitempty"`
	Description *string   `json:"description,omitempty"`
	Features    *[]string `json:"features,omitempty"`
	Shape       *string   `json:"shape,omitempty"`

	// WallThickness sets the per-space override; ClearWallThickness removes
	// it so the global default applies again.
	WallThickness      *float64 `json:"wall_thickness,omitempty"`
	ClearWallThickness bool     `json:"clear_wall_thickness,omitempty"`
	WallMaterial       *string  `json:"wall_material,omitempty"`
}

// UpdateSpace changes a space's metadata and wall overrides. When the update
// changes the identity key, every door in the plan leading to the old key is
// retargeted to the new one.
func (e *Editor) UpdateSpace(key string, upd SpaceUpdate) (Result, error) {
	if plan.FindSpace(e.spaces, key) == nil {
		return Result{}, errors.New(errors.ErrCodeSpaceNotFound, "no space named %q", key)
	}

	work := plan.CloneSpaces(e.spaces)
	s := plan.FindSpace(work, key)

	if upd.Code != nil {
		s.Code = *upd.Code
	}
	if upd.Name != nil {
		s.Name = *upd.Name
	}
	if upd.Purpose != nil {
		s.Purpose = *upd.Purpose
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	if upd.Features != nil {
		s.Features = append([]string(nil), (*upd.Features)...)
	}
	if upd.Shape != nil {
		s.Shape = *upd.Shape
	}
	if upd.ClearWallThickness {
		s.WallThickness = nil
	} else if upd.WallThickness != nil {
		t := *upd.WallThickness
		s.WallThickness = &t
	}
	if upd.WallMaterial != nil {
		s.WallMaterial = *upd.WallMaterial
	}

	newKey := s.Key()
	if newKey == "" {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "space needs a code or name")
	}
	if newKey != key {
		if other := plan.FindSpace(e.spaces, newKey); other != nil {
			return Result{}, errors.New(errors.ErrCodeDuplicateSpace, "a space with identity %q already exists", newKey)
		}
		retarget(work, key, newKey)
	}

	warnings := doors.SyncSpace(work, newKey, e.syncOpts())
	e.commit(work, fmt.Sprintf("update space %s", key))
	return e.result(warnings, nil), nil
}

// DeleteSpace removes a space. Auto-created mirrors in other spaces that
// pointed back at it are removed with it; manually placed doors are
// retargeted to pending so the author can rewire them.
func (e *Editor) DeleteSpace(key string) (Result, error) {
	if plan.FindSpace(e.spaces, key) == nil {
		return Result{}, errors.New(errors.ErrCodeSpaceNotFound, "no space named %q", key)
	}

	work := make([]plan.Space, 0, len(e.spaces)-1)
	for i := range e.spaces {
		if e.spaces[i].Key() == key {
			continue
		}
		work = append(work, e.spaces[i].Clone())
	}
	for i := range work {
		doors.RemoveMirrors(&work[i], key)
		for j := range work[i].Doors {
			if work[i].Doors[j].LeadsTo == key {
				work[i].Doors[j].LeadsTo = plan.LeadsToPending
			}
		}
	}

	e.commit(work, fmt.Sprintf("delete space %s", key))
	return e.result(nil, nil), nil
}

// MoveSpace places a space at an explicit position. A direct move expresses
// author intent, so the space is locked against auto-layout afterwards.
func (e *Editor) MoveSpace(key string, pos plan.Point) (Result, error) {
	if plan.FindSpace(e.spaces, key) == nil {
		return Result{}, errors.New(errors.ErrCodeSpaceNotFound, "no space named %q", key)
	}

	work := plan.CloneSpaces(e.spaces)
	s := plan.FindSpace(work, key)
	s.Position = &plan.Point{X: pos.X, Y: pos.Y}
	s.PositionLocked = true

	e.commit(work, fmt.Sprintf("move space %s", key))
	return e.result(nil, nil), nil
}

// ResizeSpace changes a space's footprint. The command aborts when any of
// the space's own non-reciprocal doors would fall out of bounds or overlap
// on the shrunken wall; mirrors are re-synchronized to the new wall lengths.
func (e *Editor) ResizeSpace(key string, size plan.Size) (Result, error) {
	if plan.FindSpace(e.spaces, key) == nil {
		return Result{}, errors.New(errors.ErrCodeSpaceNotFound, "no space named %q", key)
	}
	if !size.Valid() {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "space %q needs positive width and height", key)
	}

	work := plan.CloneSpaces(e.spaces)
	s := plan.FindSpace(work, key)
	s.Size = size

	for i := range s.Doors {
		if s.Doors[i].Reciprocal {
			continue // mirrors are repositioned by the sync pass
		}
		if res := plan.ValidateDoor(s, i); !res.Valid {
			return Result{}, invalidDoor(key, res)
		}
	}

	warnings := doors.SyncSpace(work, key, e.syncOpts())
	e.commit(work, fmt.Sprintf("resize space %s", key))
	return e.result(warnings, nil), nil
}

// =============================================================================
// Door Commands
// =============================================================================

// AddDoor adds a door to a space's wall. The door is validated on a copy
// first; a width, bounds, or overlap violation rejects the command with no
// effect. Unless suppressed, the matching reciprocal door is created in the
// target space.
func (e *Editor) AddDoor(key string, d plan.Door, suppressReciprocal bool) (Result, error) {
	if plan.FindSpace(e.spaces, key) == nil {
		return Result{}, errors.New(errors.ErrCodeSpaceNotFound, "no space named %q", key)
	}
	if !d.Wall.IsValid() {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "invalid wall %q", d.Wall)
	}

	work := plan.CloneSpaces(e.spaces)
	s := plan.FindSpace(work, key)

	if res := plan.ValidateCandidate(s, d); !res.Valid {
		return Result{}, invalidDoor(key, res)
	}
	d.Reciprocal = false
	s.Doors = append(s.Doors, d)

	var warnings []doors.Warning
	if !suppressReciprocal {
		warnings = doors.SyncSpace(work, key, e.syncOpts())
	}

	e.commit(work, fmt.Sprintf("add door %s", doors.Describe(key, d)))
	return e.result(warnings, nil), nil
}

// RemoveDoor deletes the door at the given index. When the removed door had
// a resolvable target, the auto-created mirror on the other side is removed
// with it.
func (e *Editor) RemoveDoor(key string, index int) (Result, error) {
	s := plan.FindSpace(e.spaces, key)
	if s == nil {
		return Result{}, errors.New(errors.ErrCodeSpaceNotFound, "no space named %q", key)
	}
	if index < 0 || index >= len(s.Doors) {
		return Result{}, errors.New(errors.ErrCodeDoorNotFound, "space %q has no door %d", key, index)
	}

	work := plan.CloneSpaces(e.spaces)
	ws := plan.FindSpace(work, key)
	removed := ws.Doors[index]
	ws.Doors = append(ws.Doors[:index], ws.Doors[index+1:]...)

	if !removed.Reciprocal && removed.Resolves() {
		if target := plan.Resolve(work, removed.LeadsTo); target != nil {
			doors.RemoveMirrors(target, key)
		}
	}

	e.commit(work, fmt.Sprintf("remove door %s", doors.Describe(key, removed)))
	return e.result(nil, nil), nil
}

// UpdateDoor replaces the door at the given index. Validation gates the
// command exactly like AddDoor; when the target changes, the old target's
// mirror is cleaned up and, unless suppressed, a new one is created.
func (e *Editor) UpdateDoor(key string, index int, d plan.Door, suppressReciprocal bool) (Result, error) {
	s := plan.FindSpace(e.spaces, key)
	if s == nil {
		return Result{}, errors.New(errors.ErrCodeSpaceNotFound, "no space named %q", key)
	}
	if index < 0 || index >= len(s.Doors) {
		return Result{}, errors.New(errors.ErrCodeDoorNotFound, "space %q has no door %d", key, index)
	}
	if !d.Wall.IsValid() {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "invalid wall %q", d.Wall)
	}

	work := plan.CloneSpaces(e.spaces)
	ws := plan.FindSpace(work, key)
	old := ws.Doors[index]

	probe := *ws
	probe.Doors = append(append([]plan.Door(nil), ws.Doors[:index]...), ws.Doors[index+1:]...)
	if res := plan.ValidateCandidate(&probe, d); !res.Valid {
		return Result{}, invalidDoor(key, res)
	}

	d.Reciprocal = old.Reciprocal
	ws.Doors[index] = d

	if !old.Reciprocal && old.Resolves() && old.LeadsTo != d.LeadsTo {
		if target := plan.Resolve(work, old.LeadsTo); target != nil {
			doors.RemoveMirrors(target, key)
		}
	}

	var warnings []doors.Warning
	if !suppressReciprocal {
		warnings = doors.SyncSpace(work, key, e.syncOpts())
	}

	e.commit(work, fmt.Sprintf("update door %s", doors.Describe(key, d)))
	return e.result(warnings, nil), nil
}

// =============================================================================
// Lock, Walls, Layout
// =============================================================================

// SetLocked toggles a space's position lock. Unlocking hands the space back
// to the layout engine, so a full recompute runs; if that recompute is
// infeasible the lock change still commits and the report is carried in the
// result.
func (e *Editor) SetLocked(key string, locked bool) (Result, error) {
	if plan.FindSpace(e.spaces, key) == nil {
		return Result{}, errors.New(errors.ErrCodeSpaceNotFound, "no space named %q", key)
	}

	work := plan.CloneSpaces(e.spaces)
	plan.FindSpace(work, key).PositionLocked = locked

	var warnings []doors.Warning
	var infeasible []string
	if !locked {
		work, warnings, infeasible = e.relayout(work)
	}

	label := "lock"
	if !locked {
		label = "unlock"
	}
	e.commit(work, fmt.Sprintf("%s space %s", label, key))
	return e.result(warnings, infeasible), nil
}

// SetWallSettings replaces the global wall defaults. The gap between rooms
// depends on wall thickness, so the layout is recomputed when at least one
// space is unlocked; an infeasible recompute is reported in the result
// without reverting the settings change.
func (e *Editor) SetWallSettings(ws plan.WallSettings) (Result, error) {
	if ws.Thickness <= 0 {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "wall thickness must be positive")
	}
	e.walls = ws

	work := plan.CloneSpaces(e.spaces)
	var warnings []doors.Warning
	var infeasible []string
	if anyUnlocked(work) {
		work, warnings, infeasible = e.relayout(work)
	}

	e.commit(work, "set wall settings")
	return e.result(warnings, infeasible), nil
}

// Recalculate synchronizes reciprocal doors and recomputes the full layout.
// Unlike the secondary recomputes, an infeasible layout aborts the whole
// command with no effect.
func (e *Editor) Recalculate() (Result, error) {
	work := plan.CloneSpaces(e.spaces)
	warnings := doors.Synchronize(work, e.syncOpts())

	out, err := layout.Compute(work, e.layoutOpts())
	if err != nil {
		return Result{}, err
	}

	e.commit(out, "recalculate layout")
	return e.result(warnings, nil), nil
}

// =============================================================================
// Undo / Redo
// =============================================================================

// Undo replaces the current state with the previous snapshot verbatim: no
// re-validation, no re-layout.
func (e *Editor) Undo() (Result, error) {
	spaces, ok := e.history.Undo()
	if !ok {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "nothing to undo")
	}
	e.spaces = spaces
	return e.result(nil, nil), nil
}

// Redo replaces the current state with the next snapshot verbatim.
func (e *Editor) Redo() (Result, error) {
	spaces, ok := e.history.Redo()
	if !ok {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "nothing to redo")
	}
	e.spaces = spaces
	return e.result(nil, nil), nil
}

// History exposes the snapshot stack for hosts that list or label entries.
func (e *Editor) History() *History { return e.history }

// =============================================================================
// Internals
// =============================================================================

// relayout runs sync + layout on work. On infeasibility the input is kept
// and the itemized report returned for the result.
func (e *Editor) relayout(work []plan.Space) ([]plan.Space, []doors.Warning, []string) {
	warnings := doors.Synchronize(work, e.syncOpts())
	out, err := layout.Compute(work, e.layoutOpts())
	if err != nil {
		var infeasible *layout.InfeasibleError
		if stderrors.As(err, &infeasible) {
			return work, warnings, infeasible.Items()
		}
		return work, warnings, []string{err.Error()}
	}
	return out, warnings, nil
}

func (e *Editor) commit(work []plan.Space, label string) {
	e.spaces = work
	e.history.Push(label, work)
	e.opts.Logger.Debug("committed", "command", label, "spaces", len(work))
}

func (e *Editor) result(warnings []doors.Warning, infeasible []string) Result {
	return Result{
		Spaces:     plan.CloneSpaces(e.spaces),
		Issues:     plan.ValidateAll(e.spaces),
		Warnings:   warnings,
		Infeasible: infeasible,
		History:    e.history.State(),
	}
}

func (e *Editor) syncOpts() doors.Options {
	return doors.Options{Tolerance: e.opts.Tolerance, Logger: e.opts.Logger}
}

func (e *Editor) layoutOpts() layout.Options {
	return layout.Options{GridUnit: e.opts.GridUnit, Walls: e.walls, Logger: e.opts.Logger}
}

// retarget rewrites every leads_to in the plan from oldKey to newKey.
func retarget(spaces []plan.Space, oldKey, newKey string) {
	for i := range spaces {
		for j := range spaces[i].Doors {
			if spaces[i].Doors[j].LeadsTo == oldKey {
				spaces[i].Doors[j].LeadsTo = newKey
			}
		}
	}
}

func anyUnlocked(spaces []plan.Space) bool {
	for i := range spaces {
		if !spaces[i].PositionLocked {
			return true
		}
	}
	return false
}

func invalidDoor(key string, res plan.Result) error {
	return errors.New(errors.ErrCodeInvalidDoor, "invalid door on %q: %s", key, strings.Join(res.Violations, "; "))
}
