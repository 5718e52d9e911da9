package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
)

func testStroke(id string) *domain.Stroke {
	return &domain.Stroke{
		ID:    id,
		Color: "#000000",
		Size:  4,
		Mode:  "brush",
		Points: []domain.Point{
			{X: 10, Y: 10},
			{X: 20, Y: 25},
		},
	}
}

func TestAppendStrokeRelaysToOthers(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)
	bc.reset()

	require.NoError(t, svc.AppendStroke(ctx, roomID, alice, testStroke("s1")))

	sent, ok := bc.lastOfType(EventStroke)
	require.True(t, ok)
	assert.Equal(t, "except", sent.Scope)
	assert.Equal(t, alice, sent.Except)

	strokes, err := st.GetStrokes(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, strokes, 1)
	assert.Equal(t, "s1", strokes[0].ID)
}

func TestUpdateStrokeReachesEveryone(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)
	require.NoError(t, svc.AppendStroke(ctx, roomID, alice, testStroke("s1")))
	bc.reset()

	moved := testStroke("s1")
	moved.Points = []domain.Point{{X: 40, Y: 40}, {X: 55, Y: 60}}
	require.NoError(t, svc.UpdateStroke(ctx, roomID, moved))

	sent, ok := bc.lastOfType(EventStrokeUpdate)
	require.True(t, ok)
	assert.Equal(t, "room", sent.Scope, "author converges on the stored version too")

	strokes, err := st.GetStrokes(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, strokes, 1)
	assert.Equal(t, float64(40), strokes[0].Points[0].X)
}

func TestUpdateUnknownStrokeIgnored(t *testing.T) {
	svc, bc, _ := newTestService(t)
	ctx := context.Background()
	roomID, _, _ := twoPlayerRoom(t, svc)
	bc.reset()

	require.NoError(t, svc.UpdateStroke(ctx, roomID, testStroke("ghost")))
	assert.Empty(t, bc.sent)
}

func TestUndoRemovesMostRecentMatchOnly(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)
	require.NoError(t, svc.AppendStroke(ctx, roomID, alice, testStroke("s1")))
	require.NoError(t, svc.AppendStroke(ctx, roomID, alice, testStroke("s2")))
	require.NoError(t, svc.AppendStroke(ctx, roomID, alice, testStroke("s1")))
	bc.reset()

	require.NoError(t, svc.UndoStroke(ctx, roomID, alice, "s1"))

	strokes, err := st.GetStrokes(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, strokes, 2)
	assert.Equal(t, "s1", strokes[0].ID)
	assert.Equal(t, "s2", strokes[1].ID)

	sent, ok := bc.lastOfType(EventUndo)
	require.True(t, ok)
	assert.Equal(t, "except", sent.Scope)
	assert.Equal(t, "s1", sent.Event.Data.(UndoPayload).StrokeID)
}

func TestUndoUnknownStrokeIsSilent(t *testing.T) {
	svc, bc, _ := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)
	bc.reset()

	require.NoError(t, svc.UndoStroke(ctx, roomID, alice, "ghost"))
	assert.Empty(t, bc.sent)
}

func TestClearCanvasWipesLog(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)
	require.NoError(t, svc.AppendStroke(ctx, roomID, alice, testStroke("s1")))
	bc.reset()

	require.NoError(t, svc.ClearCanvas(ctx, roomID, alice))

	strokes, err := st.GetStrokes(ctx, roomID)
	require.NoError(t, err)
	assert.Empty(t, strokes)

	sent, ok := bc.lastOfType(EventClear)
	require.True(t, ok)
	assert.Equal(t, "except", sent.Scope)
	assert.Equal(t, alice, sent.Except)
}
