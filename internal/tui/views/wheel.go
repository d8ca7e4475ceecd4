package views

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/f3rmion/dlgview/internal/resolve"
	"github.com/f3rmion/dlgview/internal/session"
)

const (
	wheelRows     = 13
	wheelLabelMax = 24
)

// WheelModel shows the response wheel at the selected line.
type WheelModel struct {
	sess   *session.Session
	opts   []resolve.Option
	cursor int
	err    error

	width  int
	height int
}

// NewWheelModel creates a wheel view over sess.
func NewWheelModel(sess *session.Session) WheelModel {
	m := WheelModel{sess: sess}
	m.Refresh()
	return m
}

// SetSize updates the view dimensions.
func (m *WheelModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Refresh re-resolves the options at the session's selection.
func (m *WheelModel) Refresh() {
	m.opts, m.err = m.sess.Options()
	if m.cursor >= len(m.opts) {
		m.cursor = 0
	}
}

// Update handles messages.
func (m WheelModel) Update(msg tea.Msg) (WheelModel, tea.Cmd) {
	if mouse, ok := msg.(tea.MouseMsg); ok {
		return m.click(mouse)
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch s := key.String(); s {
	case "j", "down", "tab":
		if len(m.opts) > 0 {
			m.cursor = (m.cursor + 1) % len(m.opts)
		}
	case "k", "up", "shift+tab":
		if len(m.opts) > 0 {
			m.cursor = (m.cursor - 1 + len(m.opts)) % len(m.opts)
		}
	case "enter":
		return m.choose(m.cursor)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		// The app leaves digits to the wheel while it has focus.
		return m.choose(int(s[0] - '1'))
	case "r":
		m.sess.Reset()
		m.cursor = 0
		m.Refresh()
		node := m.sess.Selected()
		return m, func() tea.Msg { return ChoiceMadeMsg{Node: node} }
	}
	return m, nil
}

func (m WheelModel) choose(i int) (WheelModel, tea.Cmd) {
	next, err := m.sess.Choose(i)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.cursor = 0
	m.Refresh()
	return m, func() tea.Msg { return ChoiceMadeMsg{Node: next} }
}

// click chooses the option under a left click. Coordinates are relative
// to the top-left corner of the view.
func (m WheelModel) click(msg tea.MouseMsg) (WheelModel, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft || len(m.opts) == 0 {
		return m, nil
	}
	left, top := m.gridOrigin()
	i := WheelHit(m.opts, m.gridWidth(), wheelRows, msg.X-left, msg.Y-top)
	if i < 0 {
		return m, nil
	}
	return m.choose(i)
}

func (m WheelModel) gridWidth() int {
	return min(max(m.width-8, 40), 100)
}

// gridOrigin returns the view offset of the first wheel grid cell: below
// the title, the speaker line when shown, and the box border.
func (m WheelModel) gridOrigin() (left, top int) {
	top = 2
	if m.speakerLine() != "" {
		top += 2
	}
	return 2, top + 1
}

func (m WheelModel) speakerLine() string {
	t := m.sess.Tree()
	if t == nil {
		return ""
	}
	it := t.FindFirstOccurrence(m.sess.Selected())
	if it == nil {
		return ""
	}
	return roleStyle(it.Role).Render(it.Label()+": ") +
		valueStyle.Render(runewidth.Truncate(it.SpokenText, max(m.width-20, 20), "..."))
}

// Options returns the options currently shown.
func (m WheelModel) Options() []resolve.Option {
	return m.opts
}

// View renders the wheel view.
func (m WheelModel) View() string {
	var b strings.Builder

	conv := m.sess.Conversation()
	if conv == nil {
		b.WriteString(titleStyle.Render("Response Wheel"))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("No conversation loaded."))
		return b.String()
	}

	sel := m.sess.Selected()
	b.WriteString(titleStyle.Render(fmt.Sprintf("Response Wheel  node %d", sel)))
	b.WriteString("\n\n")
	if line := m.speakerLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	if len(m.opts) == 0 {
		b.WriteString(dimStyle.Render("No player choices here."))
		b.WriteString("\n")
	} else {
		b.WriteString(boxStyle.Render(RenderWheel(m.opts, m.gridWidth(), wheelRows)))
		b.WriteString("\n")
		for i, o := range m.opts {
			line := fmt.Sprintf("%d. %s %s → %d", i+1, toneStyle(o.Color).Render("["+o.Label+"]"), o.Short(), o.Link.TargetNodeIndex)
			if o.Placed {
				line += dimStyle.Render(fmt.Sprintf("  (%d o'clock)", o.Clock))
			} else {
				line += errorStyle.Render("  (unplaced)")
			}
			if i == m.cursor {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("1-6/enter/click: choose • j/k: move • r: reset plot state"))
	return b.String()
}

// wheelGrid maps wheel coordinates onto a character grid.
type wheelGrid struct {
	cx, cy   int
	sx, sy   float64
	labelMax int
}

func newWheelGrid(opts []resolve.Option, width, height int) wheelGrid {
	width = max(width, 20)
	height = max(height, 5)

	radius := 0.0
	for _, o := range opts {
		if o.Placed {
			radius = math.Max(radius, math.Hypot(o.Position.X, o.Position.Y))
		}
	}
	if radius == 0 {
		radius = resolve.DefaultRadius
	}

	labelMax := min(wheelLabelMax, width/2-2)
	return wheelGrid{
		cx:       width / 2,
		cy:       height / 2,
		sx:       float64(width/2-labelMax/2-1) / radius,
		sy:       float64(height/2) / radius,
		labelMax: labelMax,
	}
}

// WheelHit returns the option under grid cell (col, row) of a wheel drawn
// by RenderWheel with the same size, or -1.
func WheelHit(opts []resolve.Option, width, height, col, row int) int {
	g := newWheelGrid(opts, width, height)
	if g.sx == 0 || g.sy == 0 {
		return -1
	}
	x := float64(col-g.cx) / g.sx
	y := float64(row-g.cy) / g.sy
	return resolve.HitTest(opts, x, y)
}

// RenderWheel draws placed options as "[n] text" labels on a character
// grid of the given size, centred on their wheel positions.
func RenderWheel(opts []resolve.Option, width, height int) string {
	if width < 20 {
		width = 20
	}
	if height < 5 {
		height = 5
	}
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", width))
	}
	g := newWheelGrid(opts, width, height)
	grid[g.cy][g.cx] = '+'

	for i, o := range opts {
		if !o.Placed {
			continue
		}
		label := []rune(truncateRunes(fmt.Sprintf("[%d] %s", i+1, o.Text), g.labelMax))
		col := g.cx + int(math.Round(o.Position.X*g.sx))
		row := g.cy + int(math.Round(o.Position.Y*g.sy))
		row = min(max(row, 0), height-1)

		start := col - len(label)/2
		start = min(max(start, 0), width-len(label))
		copy(grid[row][start:], label)
	}

	lines := make([]string, height)
	for y, r := range grid {
		lines[y] = strings.TrimRight(string(r), " ")
	}
	return strings.Join(lines, "\n")
}

// truncateRunes keeps at most n runes so labels fit the rune grid.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
