package layout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func makeClient(x, y int32, w, h uint32) ClientScreen {
	return ClientScreen{
		ClientID: uuid.New(),
		Region:   Region{VirtualX: x, VirtualY: y, Width: w, Height: h},
		Name:     "test-client",
	}
}

func TestRegionRightAndBottom(t *testing.T) {
	r := Region{VirtualX: 100, VirtualY: 0, Width: 1920, Height: 1080}
	require.Equal(t, int32(2020), r.Right())
	r2 := Region{VirtualX: 0, VirtualY: 50, Width: 1920, Height: 1080}
	require.Equal(t, int32(1130), r2.Bottom())
}

func TestRegionOverlap(t *testing.T) {
	a := Region{VirtualX: 0, VirtualY: 0, Width: 100, Height: 100}
	b := Region{VirtualX: 50, VirtualY: 50, Width: 100, Height: 100}
	require.True(t, a.Overlaps(b))

	c := Region{VirtualX: 100, VirtualY: 0, Width: 100, Height: 100}
	require.False(t, a.Overlaps(c)) // adjacent, not overlapping (half-open)

	d := Region{VirtualX: 200, VirtualY: 200, Width: 100, Height: 100}
	require.False(t, a.Overlaps(d))
}

func TestAddClientRejectsOverlapWithMaster(t *testing.T) {
	l := New(1920, 1080)
	client := makeClient(500, 500, 800, 600)
	require.ErrorIs(t, l.AddClient(client), ErrOverlap)
}

func TestAddClientRejectsOverlapWithExisting(t *testing.T) {
	l := New(1920, 1080)
	c1 := makeClient(1920, 0, 800, 600)
	require.NoError(t, l.AddClient(c1))
	c2 := makeClient(2000, 0, 800, 600)
	require.ErrorIs(t, l.AddClient(c2), ErrOverlap)
}

func TestAddMultipleNonOverlappingClientsSucceeds(t *testing.T) {
	l := New(1920, 1080)
	require.NoError(t, l.AddClient(makeClient(1920, 0, 800, 600)))
	require.NoError(t, l.AddClient(makeClient(-800, 0, 800, 600)))
	require.Len(t, l.Clients(), 2)
}

func TestRemoveClientRemovesAdjacencies(t *testing.T) {
	l := New(1920, 1080)
	c := makeClient(1920, 0, 800, 600)
	require.NoError(t, l.AddClient(c))
	require.NoError(t, l.SetAdjacency(Adjacency{
		FromScreen: Master, FromEdge: EdgeRight,
		ToScreen: Client(c.ClientID), ToEdge: EdgeLeft,
	}))
	l.RemoveClient(c.ClientID)
	require.Empty(t, l.Clients())
	// The adjacency referencing the removed client must be gone too: a
	// subsequent transition check at the old edge position should find none.
	_, ok := l.CheckEdgeTransition(Master, 1919, 500)
	require.False(t, ok)
}

func TestResolveCursorOnMaster(t *testing.T) {
	l := New(1920, 1080)
	loc := l.ResolveCursor(960, 540)
	require.Equal(t, Master, loc.Screen)
	require.Equal(t, int32(960), loc.LocalX)

	loc = l.ResolveCursor(0, 0)
	require.Equal(t, int32(0), loc.LocalX)

	loc = l.ResolveCursor(1919, 1079)
	require.Equal(t, int32(1919), loc.LocalX)
}

func TestResolveCursorOnClient(t *testing.T) {
	l := New(1920, 1080)
	c := makeClient(1920, 0, 800, 600)
	require.NoError(t, l.AddClient(c))
	loc := l.ResolveCursor(2000, 100)
	require.Equal(t, Client(c.ClientID), loc.Screen)
	require.Equal(t, int32(80), loc.LocalX)
	require.Equal(t, int32(100), loc.LocalY)
}

func TestResolveCursorFallsBackToMasterOutsideAllRegions(t *testing.T) {
	l := New(1920, 1080)
	loc := l.ResolveCursor(-50, -50)
	require.Equal(t, Master, loc.Screen)
	require.Equal(t, int32(-50), loc.LocalX)
}

func TestCheckEdgeTransitionNoneWhenFarFromEdge(t *testing.T) {
	l := New(1920, 1080)
	c := makeClient(1920, 0, 800, 600)
	require.NoError(t, l.AddClient(c))
	require.NoError(t, l.SetAdjacency(Adjacency{
		FromScreen: Master, FromEdge: EdgeRight,
		ToScreen: Client(c.ClientID), ToEdge: EdgeLeft,
	}))
	_, ok := l.CheckEdgeTransition(Master, 960, 540)
	require.False(t, ok)
}

func TestCheckEdgeTransitionAtRightEdge(t *testing.T) {
	l := New(1920, 1080)
	c := makeClient(1920, 0, 800, 600)
	require.NoError(t, l.AddClient(c))
	require.NoError(t, l.SetAdjacency(Adjacency{
		FromScreen: Master, FromEdge: EdgeRight,
		ToScreen: Client(c.ClientID), ToEdge: EdgeLeft,
	}))
	transition, ok := l.CheckEdgeTransition(Master, 1919, 540)
	require.True(t, ok)
	require.Equal(t, Client(c.ClientID), transition.ToScreen)
	require.Equal(t, int32(0), transition.EntryX)
	require.Equal(t, int32(1), transition.MasterTeleportX)
	require.Equal(t, int32(540), transition.MasterTeleportY)
}

func TestCheckEdgeTransitionProportionalYMapping(t *testing.T) {
	l := New(1920, 1080)
	c := makeClient(1920, 0, 800, 1440)
	require.NoError(t, l.AddClient(c))
	require.NoError(t, l.SetAdjacency(Adjacency{
		FromScreen: Master, FromEdge: EdgeRight,
		ToScreen: Client(c.ClientID), ToEdge: EdgeLeft,
	}))
	transition, ok := l.CheckEdgeTransition(Master, 1919, 540)
	require.True(t, ok)
	require.Equal(t, int32(0), transition.EntryX)
	require.Equal(t, int32(720), transition.EntryY)
}

func TestSetAdjacencyRejectsIncompatibleEdges(t *testing.T) {
	l := New(1920, 1080)
	c := makeClient(1920, 0, 800, 600)
	require.NoError(t, l.AddClient(c))
	err := l.SetAdjacency(Adjacency{
		FromScreen: Master, FromEdge: EdgeRight,
		ToScreen: Client(c.ClientID), ToEdge: EdgeTop,
	})
	require.ErrorIs(t, err, ErrIncompatibleEdges)
}

func TestSetAdjacencyRejectsUnknownClient(t *testing.T) {
	l := New(1920, 1080)
	err := l.SetAdjacency(Adjacency{
		FromScreen: Master, FromEdge: EdgeRight,
		ToScreen: Client(uuid.New()), ToEdge: EdgeLeft,
	})
	require.ErrorIs(t, err, ErrInvalidAdjacency)
}

func TestSetAdjacencyReplacesExistingForSameEdge(t *testing.T) {
	l := New(1920, 1080)
	c1 := makeClient(1920, 0, 800, 600)
	c2 := makeClient(-800, 0, 800, 600)
	require.NoError(t, l.AddClient(c1))
	require.NoError(t, l.AddClient(c2))
	require.NoError(t, l.SetAdjacency(Adjacency{
		FromScreen: Master, FromEdge: EdgeRight, ToScreen: Client(c1.ClientID), ToEdge: EdgeLeft,
	}))
	require.NoError(t, l.SetAdjacency(Adjacency{
		FromScreen: Master, FromEdge: EdgeRight, ToScreen: Client(c2.ClientID), ToEdge: EdgeLeft,
	}))
	require.Len(t, l.adjacencies, 1)
	require.Equal(t, Client(c2.ClientID), l.adjacencies[0].ToScreen)
}

func TestMapEdgePosition(t *testing.T) {
	require.Equal(t, int32(540), MapEdgePosition(1080, 1080, 540))
	require.Equal(t, int32(720), MapEdgePosition(1080, 1440, 540))
	require.Equal(t, int32(0), MapEdgePosition(1080, 1440, 0))
	require.Equal(t, int32(1440), MapEdgePosition(1080, 1440, 1080))
	require.Equal(t, int32(0), MapEdgePosition(1080, 1440, -100))
	require.Equal(t, int32(0), MapEdgePosition(0, 1440, 500))
}

func TestUpdateClientRegion(t *testing.T) {
	l := New(1920, 1080)
	c := makeClient(1920, 0, 800, 600)
	require.NoError(t, l.AddClient(c))
	require.NoError(t, l.UpdateClientRegion(c.ClientID, Region{VirtualX: 1920, VirtualY: 100, Width: 800, Height: 600}))

	require.ErrorIs(t, l.UpdateClientRegion(uuid.New(), Region{}), ErrClientNotFound)

	err := l.UpdateClientRegion(c.ClientID, Region{VirtualX: 0, VirtualY: 0, Width: 800, Height: 600})
	require.ErrorIs(t, err, ErrOverlap)
}
