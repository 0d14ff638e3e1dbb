package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCommitter struct {
	mock.Mock
}

func (m *mockCommitter) Reorder(sourceID, targetID string) bool {
	return m.Called(sourceID, targetID).Bool(0)
}

func (m *mockCommitter) MoveAcross(sourceID, targetKey string) bool {
	return m.Called(sourceID, targetKey).Bool(0)
}

func TestDrag_BelowThresholdIsAClick(t *testing.T) {
	c := new(mockCommitter)
	e := NewDragEngine(c, 0)

	require.True(t, e.Press("a", Point{X: 10, Y: 10}))
	assert.Equal(t, DragPending, e.Move(Point{X: 15, Y: 15}))
	e.Hover("b")
	assert.Empty(t, e.Target(), "hover ignored before activation")

	res := e.Release()
	assert.Equal(t, DropCancelled, res.Outcome)
	assert.Equal(t, DragIdle, e.State())
	c.AssertNotCalled(t, "Reorder", mock.Anything, mock.Anything)
}

func TestDrag_ReorderOnSibling(t *testing.T) {
	c := new(mockCommitter)
	c.On("Reorder", "a", "d").Return(true).Once()
	e := NewDragEngine(c, 0)

	e.Press("a", Point{})
	assert.Equal(t, DragActive, e.Move(Point{X: 6, Y: 6}))
	e.Hover("d")

	res := e.Release()
	assert.Equal(t, DropCommitted, res.Outcome)
	assert.True(t, res.Changed)
	assert.Equal(t, "d", res.Target)
	c.AssertExpectations(t)
}

func TestDrag_MoveAcrossOnSlot(t *testing.T) {
	c := new(mockCommitter)
	c.On("MoveAcross", "btn", "cols:1").Return(true).Once()
	e := NewDragEngine(c, 0)

	e.Press("btn", Point{})
	e.Move(Point{X: 0, Y: 20})
	e.Hover("cols:1")

	res := e.Release()
	assert.Equal(t, DropCommitted, res.Outcome)
	c.AssertExpectations(t)
}

func TestDrag_CancelledDrops(t *testing.T) {
	tests := []struct {
		name  string
		hover string
	}{
		{"no target", ""},
		{"onto itself", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(mockCommitter)
			e := NewDragEngine(c, 0)
			e.Press("a", Point{})
			e.Move(Point{X: 100})
			e.Hover(tt.hover)

			assert.Equal(t, DropCancelled, e.Release().Outcome)
			c.AssertExpectations(t)
		})
	}
}

func TestDrag_Escape(t *testing.T) {
	c := new(mockCommitter)
	e := NewDragEngine(c, 0)
	e.Press("a", Point{})
	e.Move(Point{X: 100})
	e.Hover("b")

	res := e.Cancel()
	assert.Equal(t, DropCancelled, res.Outcome)
	assert.Equal(t, DragIdle, e.State())
	assert.Equal(t, DropNone, e.Cancel().Outcome)
	assert.Equal(t, DropNone, e.Release().Outcome)
}

func TestDrag_CustomThreshold(t *testing.T) {
	e := NewDragEngine(nil, 20)
	e.Press("a", Point{})
	assert.Equal(t, DragPending, e.Move(Point{X: 12, Y: 12}))
	assert.Equal(t, DragActive, e.Move(Point{X: 15, Y: 15}))
	assert.False(t, e.Press("b", Point{}), "press while dragging is ignored")
}

func TestDrag_ThroughSessionIsOneHistoryEntry(t *testing.T) {
	s, _, _ := newTestSession(t, docOf("a", "b", "c", "d"))

	res := s.Drag().Replay([]PointerEvent{
		{Kind: PointerPress, BlockID: "a"},
		{Kind: PointerMove, X: 3, Y: 4},
		{Kind: PointerMove, X: 30, Y: 40, Target: "c"},
		{Kind: PointerHover, Target: "d"},
		{Kind: PointerRelease},
	})
	assert.Equal(t, DropCommitted, res.Outcome)
	assert.True(t, res.Changed)
	assert.Equal(t, []string{"b", "c", "d", "a"}, topIDs(s.Document()))
	assert.Equal(t, 2, s.History().Len())

	s.Undo()
	assert.Equal(t, []string{"a", "b", "c", "d"}, topIDs(s.Document()))
}

func TestDrag_ReplayWithoutReleaseCancels(t *testing.T) {
	s, _, _ := newTestSession(t, docOf("a", "b"))
	res := s.Drag().Replay([]PointerEvent{
		{Kind: PointerPress, BlockID: "a"},
		{Kind: PointerMove, X: 50, Target: "b"},
	})
	assert.Equal(t, DropCancelled, res.Outcome)
	assert.Equal(t, 1, s.History().Len())
}

func TestDrag_RejectedDropLeavesDocument(t *testing.T) {
	s, _, _ := newTestSession(t, sampleDoc())
	res := s.Drag().Replay([]PointerEvent{
		{Kind: PointerPress, BlockID: "cols"},
		{Kind: PointerMove, X: 50, Target: "cols:1"},
		{Kind: PointerRelease},
	})
	assert.Equal(t, DropCommitted, res.Outcome)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, s.History().Len())
}
