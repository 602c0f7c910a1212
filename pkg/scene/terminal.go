// pkg/scene/terminal.go
package scene

import (
	"bufio"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/opd-ai/go-starfight/pkg/physics"
)

// TerminalView keeps the scene in memory and draws a top-down ASCII map of
// it, +Y pointing up the screen
type TerminalView struct {
	width     int
	height    int
	buffer    [][]rune
	scale     float64
	centerPos physics.Vector3D

	nodes       map[uint64]Node
	teamSymbols map[string]rune

	// ClearScreen emits the ANSI clear sequence before every frame
	ClearScreen bool
}

// NewTerminalView creates a view of width x height cells, each covering
// scale meters
func NewTerminalView(width, height int, scale float64) *TerminalView {
	if scale <= 0 {
		scale = 1
	}
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}
	return &TerminalView{
		width:       width,
		height:      height,
		buffer:      buffer,
		scale:       scale,
		nodes:       make(map[uint64]Node),
		teamSymbols: make(map[string]rune),
	}
}

// SetCenter sets the world position shown in the middle of the view
func (v *TerminalView) SetCenter(pos physics.Vector3D) {
	v.centerPos = pos
}

// Add implements Scene
func (v *TerminalView) Add(node Node) {
	v.nodes[node.ID] = node
}

// Move implements Scene
func (v *TerminalView) Move(id uint64, position physics.Vector3D, orientation physics.Matrix3) {
	node, ok := v.nodes[id]
	if !ok {
		return
	}
	node.Position = position
	node.Orientation = orientation
	v.nodes[id] = node
}

// Remove implements Scene
func (v *TerminalView) Remove(id uint64) {
	delete(v.nodes, id)
	for childID, node := range v.nodes {
		if node.Parent == id && node.Parent != 0 {
			delete(v.nodes, childID)
		}
	}
}

// Node returns a node by id
func (v *TerminalView) Node(id uint64) (Node, bool) {
	node, ok := v.nodes[id]
	return node, ok
}

// Nodes returns every node of the given kind ordered by id
func (v *TerminalView) Nodes(kind NodeKind) []Node {
	var found []Node
	for _, node := range v.nodes {
		if node.Kind == kind {
			found = append(found, node)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found
}

// Len returns the number of nodes in the scene
func (v *TerminalView) Len() int {
	return len(v.nodes)
}

// worldToScreen converts world coordinates to screen coordinates
func (v *TerminalView) worldToScreen(pos physics.Vector3D) (int, int) {
	screenX := int(math.Floor((pos.X-v.centerPos.X)/v.scale + float64(v.width)/2))
	screenY := int(math.Floor(float64(v.height)/2 - (pos.Y-v.centerPos.Y)/v.scale))
	return screenX, screenY
}

// Clear empties the frame buffer
func (v *TerminalView) Clear() {
	for y := range v.buffer {
		for x := range v.buffer[y] {
			v.buffer[y][x] = ' '
		}
	}
}

// symbolFor picks the map symbol of a node. Spacecraft get one letter per
// team in order of appearance and 'S' without a team.
func (v *TerminalView) symbolFor(node Node) (rune, bool) {
	switch node.Kind {
	case NodeSpacecraft:
		if node.Team == "" {
			return 'S', true
		}
		symbol, ok := v.teamSymbols[node.Team]
		if !ok {
			symbol = rune('A' + len(v.teamSymbols)%26)
			v.teamSymbols[node.Team] = symbol
		}
		return symbol, true
	case NodeExplosion:
		return '*', true
	case NodeMuzzleFlash:
		return '+', true
	default:
		return 0, false
	}
}

// Draw plots every node into the frame buffer. Effects are drawn first so
// spacecraft stay visible on top of them.
func (v *TerminalView) Draw() {
	v.Clear()
	for _, kind := range []NodeKind{NodeMuzzleFlash, NodeExplosion, NodeSpacecraft} {
		for _, node := range v.Nodes(kind) {
			v.plot(node)
		}
	}
}

func (v *TerminalView) plot(node Node) {
	symbol, ok := v.symbolFor(node)
	if !ok {
		return
	}
	x, y := v.worldToScreen(node.Position)
	if x >= 0 && x < v.width && y >= 0 && y < v.height {
		v.buffer[y][x] = symbol
	}
}

// Present writes the frame buffer framed by a border
func (v *TerminalView) Present(w io.Writer) error {
	out := bufio.NewWriter(w)
	if v.ClearScreen {
		out.WriteString("\033[H\033[2J")
	}
	border := "+" + strings.Repeat("-", v.width) + "+\n"
	out.WriteString(border)
	for y := range v.buffer {
		out.WriteByte('|')
		out.WriteString(string(v.buffer[y]))
		out.WriteString("|\n")
	}
	out.WriteString(border)
	return out.Flush()
}

// Render draws and presents one frame
func (v *TerminalView) Render(w io.Writer) error {
	v.Draw()
	return v.Present(w)
}
