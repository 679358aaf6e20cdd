package router

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/layout"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/protocol"
)

// recordingTransmitter is an in-memory Transmitter double: every sent
// message is appended to its corresponding slice for assertion.
type recordingTransmitter struct {
	mu           sync.Mutex
	keyEvents    []protocol.KeyEventMessage
	mouseMoves   []protocol.MouseMoveMessage
	mouseButtons []protocol.MouseButtonMessage
	mouseScrolls []protocol.MouseScrollMessage
	failWith     error
}

func (r *recordingTransmitter) SendKeyEvent(_ context.Context, _ layout.ClientID, event protocol.KeyEventMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.keyEvents = append(r.keyEvents, event)
	return nil
}

func (r *recordingTransmitter) SendMouseMove(_ context.Context, _ layout.ClientID, event protocol.MouseMoveMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.mouseMoves = append(r.mouseMoves, event)
	return nil
}

func (r *recordingTransmitter) SendMouseButton(_ context.Context, _ layout.ClientID, event protocol.MouseButtonMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.mouseButtons = append(r.mouseButtons, event)
	return nil
}

func (r *recordingTransmitter) SendMouseScroll(_ context.Context, _ layout.ClientID, event protocol.MouseScrollMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.mouseScrolls = append(r.mouseScrolls, event)
	return nil
}

// recordingCursor is an in-memory CursorController double.
type recordingCursor struct {
	mu       sync.Mutex
	calls    [][2]int32
	x, y     int32
}

func (c *recordingCursor) TeleportCursor(x, y int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.x, c.y = x, y
	c.calls = append(c.calls, [2]int32{x, y})
}

func (c *recordingCursor) GetCursorPos() (int32, int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.x, c.y
}

func newRouterWithClient(t *testing.T) (*Router, uuid.UUID, *recordingTransmitter, *recordingCursor) {
	t.Helper()
	tx := &recordingTransmitter{}
	cursor := &recordingCursor{}
	r := New(1920, 1080, tx, cursor, 0x91) // ScrollLock hotkey

	cid := uuid.New()
	require.NoError(t, r.layout.AddClient(layout.ClientScreen{
		ClientID: cid,
		Region:   layout.Region{VirtualX: 1920, VirtualY: 0, Width: 1920, Height: 1080},
		Name:     "test-client",
	}))
	require.NoError(t, r.layout.SetAdjacency(layout.Adjacency{
		FromScreen: layout.Master, FromEdge: layout.EdgeRight,
		ToScreen: layout.Client(cid), ToEdge: layout.EdgeLeft,
	}))
	return r, cid, tx, cursor
}

func TestKeyEventRoutesToActiveClient(t *testing.T) {
	r, cid, tx, _ := newRouterWithClient(t)
	r.active = TargetClient(cid)

	err := r.HandleEvent(context.Background(), RawEvent{Kind: RawKeyDown, VKCode: 0x41, ScanCode: 0x1E})
	require.NoError(t, err)

	require.Len(t, tx.keyEvents, 1)
	require.Equal(t, protocol.KeyDown, tx.keyEvents[0].EventType)
}

func TestKeyEventDoesNotRouteWhenTargetIsMaster(t *testing.T) {
	r, _, tx, _ := newRouterWithClient(t)
	require.NoError(t, r.HandleEvent(context.Background(), RawEvent{Kind: RawKeyDown, VKCode: 0x41}))
	require.Empty(t, tx.keyEvents)
}

func TestHotkeyTogglesSharingAndResetsToMaster(t *testing.T) {
	r, cid, _, _ := newRouterWithClient(t)
	r.active = TargetClient(cid)

	require.NoError(t, r.HandleEvent(context.Background(), RawEvent{Kind: RawKeyDown, VKCode: 0x91}))
	require.False(t, r.SharingEnabled())
	require.Equal(t, TargetMaster, r.ActiveTarget())

	require.NoError(t, r.HandleEvent(context.Background(), RawEvent{Kind: RawKeyDown, VKCode: 0x91}))
	require.True(t, r.SharingEnabled())
}

func TestDisablingSharingSnapsToMaster(t *testing.T) {
	r, cid, _, _ := newRouterWithClient(t)
	r.active = TargetClient(cid)
	r.SetSharingEnabled(false)
	require.Equal(t, TargetMaster, r.ActiveTarget())
}

func TestMouseMoveCrossesEdgeAndTeleportsCursor(t *testing.T) {
	r, cid, tx, cursor := newRouterWithClient(t)

	err := r.HandleEvent(context.Background(), RawEvent{Kind: RawMouseMove, X: 1919, Y: 540})
	require.NoError(t, err)

	require.Equal(t, TargetClient(cid), r.ActiveTarget())
	require.Len(t, cursor.calls, 1)
	require.Equal(t, [2]int32{1, 540}, cursor.calls[0])
	require.Len(t, tx.mouseMoves, 1)
	require.Equal(t, int32(0), tx.mouseMoves[0].X)
}

func TestMouseMoveDebouncesRepeatedTransitions(t *testing.T) {
	r, cid, _, cursor := newRouterWithClient(t)

	require.NoError(t, r.HandleEvent(context.Background(), RawEvent{Kind: RawMouseMove, X: 1919, Y: 540}))
	require.Equal(t, TargetClient(cid), r.ActiveTarget())
	require.Len(t, cursor.calls, 1)

	// Give the client's left edge a way back to the master, so that without
	// the debounce the next move would transition again.
	require.NoError(t, r.layout.SetAdjacency(layout.Adjacency{
		FromScreen: layout.Client(cid), FromEdge: layout.EdgeLeft,
		ToScreen: layout.Master, ToEdge: layout.EdgeRight,
	}))

	// Virtual x=1919 maps to client-local x=-1, inside the client's left-edge
	// threshold; within the debounce window it must not fire a transition.
	require.NoError(t, r.HandleEvent(context.Background(), RawEvent{Kind: RawMouseMove, X: 1919, Y: 540}))
	require.Len(t, cursor.calls, 1)
	require.Equal(t, TargetClient(cid), r.ActiveTarget())
}

func TestMouseButtonRoutesWhenActiveOnClient(t *testing.T) {
	r, cid, tx, _ := newRouterWithClient(t)
	r.active = TargetClient(cid)

	err := r.HandleEvent(context.Background(), RawEvent{Kind: RawMouseButtonDown, Button: RawButtonLeft, X: 10, Y: 20})
	require.NoError(t, err)
	require.Len(t, tx.mouseButtons, 1)
	require.Equal(t, protocol.ButtonLeft, tx.mouseButtons[0].Button)
	require.Equal(t, protocol.ButtonPress, tx.mouseButtons[0].EventType)
}

func TestMouseScrollRoutesWhenActiveOnClient(t *testing.T) {
	r, cid, tx, _ := newRouterWithClient(t)
	r.active = TargetClient(cid)

	err := r.HandleEvent(context.Background(), RawEvent{Kind: RawMouseWheel, WheelDelta: 120, X: 1, Y: 2})
	require.NoError(t, err)
	require.Len(t, tx.mouseScrolls, 1)
	require.Equal(t, int16(120), tx.mouseScrolls[0].DeltaY)
	require.Equal(t, int16(0), tx.mouseScrolls[0].DeltaX)
}

func TestTransmitterFailurePropagates(t *testing.T) {
	r, cid, tx, _ := newRouterWithClient(t)
	r.active = TargetClient(cid)
	tx.failWith = context.DeadlineExceeded

	err := r.HandleEvent(context.Background(), RawEvent{Kind: RawKeyDown, VKCode: 0x41})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUpdateLayoutFallsBackToMasterWhenActiveClientRemoved(t *testing.T) {
	r, cid, _, _ := newRouterWithClient(t)
	r.active = TargetClient(cid)

	empty := layout.New(1920, 1080)
	r.UpdateLayout(empty)

	require.Equal(t, TargetMaster, r.ActiveTarget())
}
