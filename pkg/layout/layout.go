// Package layout maintains the unified virtual 2D coordinate space the
// master uses to decide when the cursor should hop from one screen to
// another. The master screen is always anchored at (0, 0); client screens
// are positioned relative to it as non-overlapping rectangles connected by
// edge adjacencies.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// EdgeThreshold is the pixel distance within which a cursor is considered to
// be at the edge of its current screen.
const EdgeThreshold = 2

// ClientID identifies a client screen.
type ClientID = uuid.UUID

// ScreenID identifies either the master screen or a specific client screen.
type ScreenID struct {
	IsMaster bool
	ClientID ClientID
}

// Master is the sentinel ScreenID for the master's own screen.
var Master = ScreenID{IsMaster: true}

// Client builds the ScreenID for a client screen.
func Client(id ClientID) ScreenID { return ScreenID{ClientID: id} }

func (s ScreenID) String() string {
	if s.IsMaster {
		return "master"
	}
	return s.ClientID.String()
}

// Edge identifies one side of a rectangular screen region.
type Edge uint8

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

var (
	ErrOverlap           = errors.New("layout: screen regions overlap")
	ErrClientNotFound    = errors.New("layout: client not found")
	ErrInvalidAdjacency  = errors.New("layout: adjacency references a screen that does not exist")
	ErrIncompatibleEdges = errors.New("layout: adjacency edges must be opposite sides")
)

// Region is a rectangular area in virtual screen space. VirtualX/VirtualY is
// the top-left corner; the region is the half-open rectangle
// [VirtualX, Right) x [VirtualY, Bottom).
type Region struct {
	VirtualX int32
	VirtualY int32
	Width    uint32
	Height   uint32
}

// Right returns the exclusive rightmost X coordinate.
func (r Region) Right() int32 { return r.VirtualX + int32(r.Width) }

// Bottom returns the exclusive bottommost Y coordinate.
func (r Region) Bottom() int32 { return r.VirtualY + int32(r.Height) }

// Overlaps reports whether r and other share any area.
func (r Region) Overlaps(other Region) bool {
	return r.VirtualX < other.Right() && r.Right() > other.VirtualX &&
		r.VirtualY < other.Bottom() && r.Bottom() > other.VirtualY
}

// ClientScreen is a client positioned in virtual space.
type ClientScreen struct {
	ClientID ClientID
	Region   Region
	Name     string
}

// Adjacency says that crossing FromEdge of FromScreen lands the cursor on
// ToEdge of ToScreen at the proportionally equivalent position.
type Adjacency struct {
	FromScreen ScreenID
	FromEdge   Edge
	ToScreen   ScreenID
	ToEdge     Edge
}

func (a Adjacency) isValid() bool {
	switch {
	case a.FromEdge == EdgeRight && a.ToEdge == EdgeLeft:
	case a.FromEdge == EdgeLeft && a.ToEdge == EdgeRight:
	case a.FromEdge == EdgeBottom && a.ToEdge == EdgeTop:
	case a.FromEdge == EdgeTop && a.ToEdge == EdgeBottom:
	default:
		return false
	}
	return true
}

// CursorLocation is where the cursor currently resides, in that screen's
// local coordinate space.
type CursorLocation struct {
	Screen ScreenID
	LocalX int32
	LocalY int32
}

// EdgeTransition describes a cursor hop from one screen to another.
type EdgeTransition struct {
	ToScreen         ScreenID
	EntryX           int32
	EntryY           int32
	MasterTeleportX  int32
	MasterTeleportY  int32
}

// VirtualLayout tracks the master screen, all client screens, and the
// adjacencies between their edges. All cursor math happens in virtual
// screen space; the master is always anchored at (0, 0).
type VirtualLayout struct {
	Master      Region
	clients     map[ClientID]ClientScreen
	adjacencies []Adjacency
}

// New creates a layout with the master screen anchored at (0, 0).
func New(masterWidth, masterHeight uint32) *VirtualLayout {
	return &VirtualLayout{
		Master:  Region{Width: masterWidth, Height: masterHeight},
		clients: make(map[ClientID]ClientScreen),
	}
}

// SetMasterDimensions updates the master screen's size.
func (l *VirtualLayout) SetMasterDimensions(width, height uint32) {
	l.Master.Width = width
	l.Master.Height = height
}

// AddClient adds a client screen. Returns ErrOverlap if the region overlaps
// the master or any existing client.
func (l *VirtualLayout) AddClient(c ClientScreen) error {
	if c.Region.Overlaps(l.Master) {
		return ErrOverlap
	}
	for _, existing := range l.clients {
		if c.Region.Overlaps(existing.Region) {
			return ErrOverlap
		}
	}
	l.clients[c.ClientID] = c
	return nil
}

// RemoveClient removes a client and any adjacency referencing it.
func (l *VirtualLayout) RemoveClient(id ClientID) {
	delete(l.clients, id)
	kept := l.adjacencies[:0]
	for _, adj := range l.adjacencies {
		if (adj.FromScreen.IsMaster || adj.FromScreen.ClientID != id) &&
			(adj.ToScreen.IsMaster || adj.ToScreen.ClientID != id) {
			kept = append(kept, adj)
		}
	}
	l.adjacencies = kept
}

// UpdateClientRegion repositions an existing client screen.
func (l *VirtualLayout) UpdateClientRegion(id ClientID, region Region) error {
	if _, ok := l.clients[id]; !ok {
		return fmt.Errorf("%w: %s", ErrClientNotFound, id)
	}
	if region.Overlaps(l.Master) {
		return ErrOverlap
	}
	for existingID, existing := range l.clients {
		if existingID != id && region.Overlaps(existing.Region) {
			return ErrOverlap
		}
	}
	c := l.clients[id]
	c.Region = region
	l.clients[id] = c
	return nil
}

// SetAdjacency defines (or replaces, for the same FromScreen+FromEdge pair)
// an edge adjacency.
func (l *VirtualLayout) SetAdjacency(adj Adjacency) error {
	if !adj.isValid() {
		return ErrIncompatibleEdges
	}
	if err := l.validateScreenID(adj.FromScreen); err != nil {
		return err
	}
	if err := l.validateScreenID(adj.ToScreen); err != nil {
		return err
	}
	kept := l.adjacencies[:0]
	for _, a := range l.adjacencies {
		if !(a.FromScreen == adj.FromScreen && a.FromEdge == adj.FromEdge) {
			kept = append(kept, a)
		}
	}
	l.adjacencies = append(kept, adj)
	return nil
}

// ClearAdjacencies removes every configured adjacency.
func (l *VirtualLayout) ClearAdjacencies() {
	l.adjacencies = nil
}

// Clients returns all client screens.
func (l *VirtualLayout) Clients() []ClientScreen {
	out := make([]ClientScreen, 0, len(l.clients))
	for _, c := range l.clients {
		out = append(out, c)
	}
	return out
}

// ResolveCursor converts a virtual-space position into a CursorLocation.
// Falls back to OnMaster when the position lies outside every known region.
func (l *VirtualLayout) ResolveCursor(virtualX, virtualY int32) CursorLocation {
	if virtualX >= l.Master.VirtualX && virtualX < l.Master.Right() &&
		virtualY >= l.Master.VirtualY && virtualY < l.Master.Bottom() {
		return CursorLocation{
			Screen: Master,
			LocalX: virtualX - l.Master.VirtualX,
			LocalY: virtualY - l.Master.VirtualY,
		}
	}
	for _, c := range l.clients {
		if virtualX >= c.Region.VirtualX && virtualX < c.Region.Right() &&
			virtualY >= c.Region.VirtualY && virtualY < c.Region.Bottom() {
			return CursorLocation{
				Screen: Client(c.ClientID),
				LocalX: virtualX - c.Region.VirtualX,
				LocalY: virtualY - c.Region.VirtualY,
			}
		}
	}
	return CursorLocation{Screen: Master, LocalX: virtualX, LocalY: virtualY}
}

// CheckEdgeTransition reports whether the cursor, at (localX, localY) on
// currentScreen, is within EdgeThreshold pixels of a configured transition
// edge, and if so computes the entry point on the destination screen plus
// where to teleport the master's physical cursor so movement continues to
// flow naturally toward the client.
func (l *VirtualLayout) CheckEdgeTransition(currentScreen ScreenID, localX, localY int32) (EdgeTransition, bool) {
	fromRegion, ok := l.getRegion(currentScreen)
	if !ok {
		return EdgeTransition{}, false
	}

	for _, adj := range l.adjacencies {
		if adj.FromScreen != currentScreen {
			continue
		}

		atEdge := false
		switch adj.FromEdge {
		case EdgeRight:
			atEdge = localX >= int32(fromRegion.Width)-EdgeThreshold
		case EdgeLeft:
			atEdge = localX <= EdgeThreshold-1
		case EdgeBottom:
			atEdge = localY >= int32(fromRegion.Height)-EdgeThreshold
		case EdgeTop:
			atEdge = localY <= EdgeThreshold-1
		}
		if !atEdge {
			continue
		}

		toRegion, ok := l.getRegion(adj.ToScreen)
		if !ok {
			continue
		}

		var entryX, entryY int32
		switch {
		case adj.FromEdge == EdgeRight || adj.FromEdge == EdgeLeft:
			mappedY := MapEdgePosition(fromRegion.Height, toRegion.Height, localY)
			if adj.ToEdge == EdgeRight {
				entryX = int32(toRegion.Width) - 1
			}
			entryY = clamp(mappedY, 0, int32(toRegion.Height)-1)
		case adj.FromEdge == EdgeBottom || adj.FromEdge == EdgeTop:
			mappedX := MapEdgePosition(fromRegion.Width, toRegion.Width, localX)
			if adj.ToEdge == EdgeBottom {
				entryY = int32(toRegion.Height) - 1
			}
			entryX = clamp(mappedX, 0, int32(toRegion.Width)-1)
		default:
			continue
		}

		var teleportX, teleportY int32
		switch adj.FromEdge {
		case EdgeRight:
			teleportX, teleportY = 1, localY
		case EdgeLeft:
			teleportX, teleportY = int32(fromRegion.Width)-2, localY
		case EdgeBottom:
			teleportX, teleportY = localX, 1
		case EdgeTop:
			teleportX, teleportY = localX, int32(fromRegion.Height)-2
		}

		return EdgeTransition{
			ToScreen:        adj.ToScreen,
			EntryX:          entryX,
			EntryY:          entryY,
			MasterTeleportX: teleportX,
			MasterTeleportY: teleportY,
		}, true
	}

	return EdgeTransition{}, false
}

// MapEdgePosition maps pos, measured along an edge of length fromLength,
// proportionally onto an edge of length toLength.
func MapEdgePosition(fromLength, toLength uint32, pos int32) int32 {
	if fromLength == 0 {
		return 0
	}
	clamped := clamp(pos, 0, int32(fromLength))
	t := float64(clamped) / float64(fromLength)
	return int32(math.Round(t * float64(toLength)))
}

func (l *VirtualLayout) validateScreenID(id ScreenID) error {
	if id.IsMaster {
		return nil
	}
	if _, ok := l.clients[id.ClientID]; ok {
		return nil
	}
	return ErrInvalidAdjacency
}

func (l *VirtualLayout) getRegion(id ScreenID) (Region, bool) {
	if id.IsMaster {
		return l.Master, true
	}
	c, ok := l.clients[id.ClientID]
	if !ok {
		return Region{}, false
	}
	return c.Region, true
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
