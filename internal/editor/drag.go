package editor

import "math"

// DefaultActivationDistance is how far, in pixels, the pointer must travel
// after a press before a drag starts. Shorter movements stay clicks.
const DefaultActivationDistance = 8.0

// DragState is the phase of the drag engine
type DragState int

const (
	DragIdle DragState = iota
	// DragPending: pressed, not yet past the activation distance
	DragPending
	DragActive
)

func (s DragState) String() string {
	switch s {
	case DragPending:
		return "pending"
	case DragActive:
		return "dragging"
	default:
		return "idle"
	}
}

// Point is a pointer position in pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DropTarget is what the pointer hovers: a sibling block or a container slot
type DropTarget struct {
	BlockID string
	Slot    SlotRef
	IsSlot  bool
}

// ParseDropTarget decodes a hovered element key: "<containerId>:<index>" is a
// slot, anything else a sibling block id.
func ParseDropTarget(key string) (DropTarget, bool) {
	if key == "" {
		return DropTarget{}, false
	}
	if ref, ok := ParseSlotKey(key); ok {
		return DropTarget{Slot: ref, IsSlot: true}, true
	}
	return DropTarget{BlockID: key}, true
}

// Key is the inverse of ParseDropTarget
func (t DropTarget) Key() string {
	if t.IsSlot {
		return t.Slot.Key()
	}
	return t.BlockID
}

// Committer applies the structural move at the end of a drag. Each call is
// one history entry.
type Committer interface {
	Reorder(sourceID, targetID string) bool
	MoveAcross(sourceID, targetKey string) bool
}

// DropOutcome is how a drag session ended
type DropOutcome string

const (
	DropNone      DropOutcome = ""
	DropCommitted DropOutcome = "dropped"
	DropCancelled DropOutcome = "cancelled"
)

// DropResult reports the end of a drag session
type DropResult struct {
	Outcome  DropOutcome `json:"outcome"`
	SourceID string      `json:"source_id,omitempty"`
	Target   string      `json:"target,omitempty"`
	// Changed is false when the drop landed on a target the tree operations
	// rejected (for example a container dropped into its own slot).
	Changed bool `json:"changed"`
}

// DragEngine turns pointer gestures into at most one structural move.
// Nothing is mutated until Release.
type DragEngine struct {
	committer Committer
	threshold float64

	state    DragState
	sourceID string
	origin   Point
	pointer  Point
	target   DropTarget
	hasTgt   bool
}

// NewDragEngine creates an idle engine. A non-positive threshold uses
// DefaultActivationDistance.
func NewDragEngine(c Committer, threshold float64) *DragEngine {
	if threshold <= 0 {
		threshold = DefaultActivationDistance
	}
	return &DragEngine{committer: c, threshold: threshold}
}

func (e *DragEngine) State() DragState { return e.state }
func (e *DragEngine) Source() string   { return e.sourceID }

// Target returns the hovered drop target key ("" when none)
func (e *DragEngine) Target() string {
	if !e.hasTgt {
		return ""
	}
	return e.target.Key()
}

// Press starts tracking a potential drag of sourceID. Ignored unless idle.
func (e *DragEngine) Press(sourceID string, at Point) bool {
	if e.state != DragIdle || sourceID == "" {
		return false
	}
	e.state = DragPending
	e.sourceID = sourceID
	e.origin = at
	e.pointer = at
	e.hasTgt = false
	return true
}

// Move updates the pointer; a pending press becomes a drag once the pointer
// is further than the activation distance from where it was pressed.
func (e *DragEngine) Move(to Point) DragState {
	if e.state == DragIdle {
		return e.state
	}
	e.pointer = to
	if e.state == DragPending && math.Hypot(to.X-e.origin.X, to.Y-e.origin.Y) > e.threshold {
		e.state = DragActive
	}
	return e.state
}

// Hover records the drop target under the pointer. An empty key clears it.
// Only meaningful while dragging.
func (e *DragEngine) Hover(key string) {
	if e.state != DragActive {
		return
	}
	e.target, e.hasTgt = ParseDropTarget(key)
}

// Release ends the session. Over a valid target exactly one committer call
// is made; otherwise the drag is cancelled.
func (e *DragEngine) Release() DropResult {
	defer e.reset()

	res := DropResult{SourceID: e.sourceID, Target: e.Target()}
	switch {
	case e.state == DragIdle:
		res.Outcome = DropNone
		return res
	case e.state != DragActive, !e.hasTgt, e.target.BlockID == e.sourceID:
		res.Outcome = DropCancelled
		return res
	}

	res.Outcome = DropCommitted
	if e.committer == nil {
		return res
	}
	if e.target.IsSlot {
		res.Changed = e.committer.MoveAcross(e.sourceID, e.target.Key())
	} else {
		res.Changed = e.committer.Reorder(e.sourceID, e.target.BlockID)
	}
	return res
}

// Cancel aborts the session (escape key, pointer lost)
func (e *DragEngine) Cancel() DropResult {
	if e.state == DragIdle {
		return DropResult{Outcome: DropNone}
	}
	res := DropResult{Outcome: DropCancelled, SourceID: e.sourceID, Target: e.Target()}
	e.reset()
	return res
}

func (e *DragEngine) reset() {
	e.state = DragIdle
	e.sourceID = ""
	e.hasTgt = false
	e.target = DropTarget{}
}

// PointerKind is the kind of a recorded pointer event
type PointerKind string

const (
	PointerPress   PointerKind = "press"
	PointerMove    PointerKind = "move"
	PointerHover   PointerKind = "hover"
	PointerRelease PointerKind = "release"
	PointerCancel  PointerKind = "cancel"
)

// PointerEvent is one step of a recorded gesture
type PointerEvent struct {
	Kind    PointerKind `json:"kind" validate:"required,oneof=press move hover release cancel"`
	BlockID string      `json:"block_id,omitempty"`
	Target  string      `json:"target,omitempty"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
}

// Replay feeds a recorded gesture through the engine. A gesture that ends
// without release or cancel is cancelled.
func (e *DragEngine) Replay(events []PointerEvent) DropResult {
	for _, ev := range events {
		switch ev.Kind {
		case PointerPress:
			e.Press(ev.BlockID, Point{X: ev.X, Y: ev.Y})
		case PointerMove:
			e.Move(Point{X: ev.X, Y: ev.Y})
			if ev.Target != "" {
				e.Hover(ev.Target)
			}
		case PointerHover:
			e.Hover(ev.Target)
		case PointerRelease:
			return e.Release()
		case PointerCancel:
			return e.Cancel()
		}
	}
	return e.Cancel()
}
