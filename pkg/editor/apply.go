package editor

import (
	"github.com/matzehuels/floorsmith/pkg/errors"
	"github.com/matzehuels/floorsmith/pkg/plan"
)

// Command operations. The set is closed; unknown operations are rejected.
const (
	OpAddSpace        = "add_space"
	OpUpdateSpace     = "update_space"
	OpDeleteSpace     = "delete_space"
	OpMoveSpace       = "move_space"
	OpResizeSpace     = "resize_space"
	OpAddDoor         = "add_door"
	OpRemoveDoor      = "remove_door"
	OpUpdateDoor      = "update_door"
	OpSetLocked       = "set_locked"
	OpSetWallSettings = "set_wall_settings"
	OpRecalculate     = "recalculate"
	OpUndo            = "undo"
	OpRedo            = "redo"
)

// Command is the JSON envelope hosts use to drive an Editor over the wire.
// Op selects the operation; the other fields carry its payload and are
// ignored when the operation does not use them.
type Command struct {
	Op string `json:"op"`

	Key       string             `json:"key,omitempty"`
	Space     *plan.Space        `json:"space,omitempty"`
	Update    *SpaceUpdate       `json:"update,omitempty"`
	Position  *plan.Point        `json:"position,omitempty"`
	Size      *plan.Size         `json:"size,omitempty"`
	Door      *plan.Door         `json:"door,omitempty"`
	DoorIndex int                `json:"door_index,omitempty"`
	Locked    bool               `json:"locked,omitempty"`
	Walls     *plan.WallSettings `json:"walls,omitempty"`

	// SuppressReciprocal skips mirror maintenance for door commands.
	SuppressReciprocal bool `json:"suppress_reciprocal,omitempty"`
}

// Apply dispatches a command envelope to the matching Editor method.
func (e *Editor) Apply(cmd Command) (Result, error) {
	switch cmd.Op {
	case OpAddSpace:
		if cmd.Space == nil {
			return Result{}, missing(cmd.Op, "space")
		}
		return e.AddSpace(*cmd.Space)

	case OpUpdateSpace:
		if cmd.Update == nil {
			return Result{}, missing(cmd.Op, "update")
		}
		return e.UpdateSpace(cmd.Key, *cmd.Update)

	case OpDeleteSpace:
		return e.DeleteSpace(cmd.Key)

	case OpMoveSpace:
		if cmd.Position == nil {
			return Result{}, missing(cmd.Op, "position")
		}
		return e.MoveSpace(cmd.Key, *cmd.Position)

	case OpResizeSpace:
		if cmd.Size == nil {
			return Result{}, missing(cmd.Op, "size")
		}
		return e.ResizeSpace(cmd.Key, *cmd.Size)

	case OpAddDoor:
		if cmd.Door == nil {
			return Result{}, missing(cmd.Op, "door")
		}
		return e.AddDoor(cmd.Key, *cmd.Door, cmd.SuppressReciprocal)

	case OpRemoveDoor:
		return e.RemoveDoor(cmd.Key, cmd.DoorIndex)

	case OpUpdateDoor:
		if cmd.Door == nil {
			return Result{}, missing(cmd.Op, "door")
		}
		return e.UpdateDoor(cmd.Key, cmd.DoorIndex, *cmd.Door, cmd.SuppressReciprocal)

	case OpSetLocked:
		return e.SetLocked(cmd.Key, cmd.Locked)

	case OpSetWallSettings:
		if cmd.Walls == nil {
			return Result{}, missing(cmd.Op, "walls")
		}
		return e.SetWallSettings(*cmd.Walls)

	case OpRecalculate:
		return e.Recalculate()

	case OpUndo:
		return e.Undo()

	case OpRedo:
		return e.Redo()
	}

	return Result{}, errors.New(errors.ErrCodeInvalidInput, "unknown operation %q", cmd.Op)
}

func missing(op, field string) error {
	return errors.New(errors.ErrCodeInvalidInput, "%s requires %q", op, field)
}
