package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/f3rmion/dlgview/internal/audio"
	"github.com/f3rmion/dlgview/internal/clipboard"
	"github.com/f3rmion/dlgview/internal/resolve"
	"github.com/f3rmion/dlgview/internal/session"
	"github.com/f3rmion/dlgview/internal/text"
)

const detailHeight = 9

// AudioSource resolves the voice file of a line.
type AudioSource struct {
	Mapper *audio.Mapper
	Dir    string
	Gender text.Gender
}

// Path returns the audio file for a text id, or "".
func (a AudioSource) Path(id int32) string {
	if a.Mapper == nil || a.Dir == "" || id <= 0 {
		return ""
	}
	p, ok := a.Mapper.Resolve(a.Dir, id, a.Gender)
	if !ok {
		return ""
	}
	return p
}

// TreeModel is the conversation tree view.
type TreeModel struct {
	sess  *session.Session
	audio AudioSource

	rows   []resolve.Row
	cursor int
	offset int

	jump    textinput.Model
	jumping bool
	detail  viewport.Model

	status string
	err    error

	width  int
	height int
}

// NewTreeModel creates a tree view over sess.
func NewTreeModel(sess *session.Session, src AudioSource) TreeModel {
	ti := textinput.New()
	ti.Placeholder = "node index"
	ti.Prompt = "jump to: "
	ti.CharLimit = 10
	ti.Width = 20
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ecdc4"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffe66d"))

	m := TreeModel{
		sess:   sess,
		audio:  src,
		jump:   ti,
		detail: viewport.New(40, detailHeight),
	}
	m.Reload()
	return m
}

// SetSize updates the view dimensions.
func (m *TreeModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.detail.Width = max(width-4, 10)
	m.detail.Height = detailHeight
	m.adjustScroll()
	m.refreshDetail()
}

// Reload rebuilds the rows after a conversation load.
func (m *TreeModel) Reload() {
	m.cursor = 0
	m.offset = 0
	if t := m.sess.Tree(); t != nil {
		t.ExpandAll()
	}
	m.refreshRows()
	m.Focus(m.sess.Selected())
}

// Jumping reports whether the jump input has focus.
func (m TreeModel) Jumping() bool {
	return m.jumping
}

func (m *TreeModel) refreshRows() {
	m.rows = nil
	if t := m.sess.Tree(); t != nil {
		m.rows = t.Rows(false)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	m.adjustScroll()
	m.refreshDetail()
}

// Focus moves the cursor to the first occurrence of node, expanding its
// ancestors.
func (m *TreeModel) Focus(node int32) {
	t := m.sess.Tree()
	if t == nil || node < 0 {
		return
	}
	it := t.FindFirstOccurrence(node)
	if it == nil {
		return
	}
	t.Reveal(it)
	m.refreshRows()
	for i, r := range m.rows {
		if r.Item == it {
			m.cursor = i
			break
		}
	}
	m.adjustScroll()
	m.refreshDetail()
}

func (m *TreeModel) current() *resolve.Item {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].Item
}

func (m *TreeModel) visibleHeight() int {
	h := m.height - detailHeight - 6
	if h < 5 {
		h = 5
	}
	return h
}

func (m *TreeModel) adjustScroll() {
	vh := m.visibleHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+vh {
		m.offset = m.cursor - vh + 1
	}
}

func (m *TreeModel) move(delta int) {
	m.cursor += delta
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScroll()
	m.refreshDetail()
}

// Update handles messages.
func (m TreeModel) Update(msg tea.Msg) (TreeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.jumping {
			return m.updateJump(msg)
		}
		switch msg.String() {
		case "j", "down":
			m.move(1)
		case "k", "up":
			m.move(-1)
		case "ctrl+d":
			m.move(m.visibleHeight() / 2)
		case "ctrl+u":
			m.move(-m.visibleHeight() / 2)
		case "g":
			m.move(-len(m.rows))
		case "G":
			m.move(len(m.rows))
		case "enter", " ":
			if it := m.current(); it != nil && len(it.Children) > 0 {
				it.Expanded = !it.Expanded
				m.refreshRows()
			}
		case "E", "C":
			if it := m.current(); it != nil {
				resolve.SetBranch(it, msg.String() == "E")
				m.refreshRows()
			}
		case "e":
			if t := m.sess.Tree(); t != nil {
				t.ExpandAll()
				m.refreshRows()
			}
		case "c":
			if t := m.sess.Tree(); t != nil {
				t.CollapseAll()
				m.cursor = 0
				m.refreshRows()
			}
		case "r":
			if it := m.current(); it != nil && it.Reference {
				m.Focus(it.ReferencedNode)
			}
		case ":", "/":
			m.jumping = true
			m.err = nil
			m.jump.Reset()
			return m, m.jump.Focus()
		case "w":
			if it := m.current(); it != nil {
				node := it.NodeIndex
				return m, func() tea.Msg { return NodeSelectedMsg{Node: node} }
			}
		case "y":
			if it := m.current(); it != nil {
				line := clipboard.FormatLine(it.NodeIndex, it.Label(), it.SpokenText, it.ParaphraseText)
				if err := clipboard.Write(line); err != nil {
					m.err = err
					return m, nil
				}
				m.status = "Copied line " + strconv.Itoa(int(it.NodeIndex))
				return m, clearStatusAfter(2 * time.Second)
			}
		}
		return m, nil

	case clearStatusMsg:
		m.status = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m TreeModel) updateJump(msg tea.KeyMsg) (TreeModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.jumping = false
		m.jump.Blur()
		return m, nil
	case "enter":
		m.jumping = false
		m.jump.Blur()
		n, err := strconv.ParseInt(strings.TrimSpace(m.jump.Value()), 10, 32)
		if err != nil {
			m.err = fmt.Errorf("not a node index: %q", m.jump.Value())
			return m, nil
		}
		t := m.sess.Tree()
		if t == nil || t.FindFirstOccurrence(int32(n)) == nil {
			m.err = fmt.Errorf("node %d is not reachable", n)
			return m, nil
		}
		m.Focus(int32(n))
		return m, nil
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

// RefreshDetail redraws the detail pane, e.g. after the plot state changed.
func (m *TreeModel) RefreshDetail() {
	m.refreshDetail()
}

func (m *TreeModel) refreshDetail() {
	it := m.current()
	if it == nil {
		m.detail.SetContent(dimStyle.Render("No line selected"))
		return
	}
	m.detail.SetContent(m.detailContent(it))
	m.detail.GotoTop()
}

func (m *TreeModel) detailContent(it *resolve.Item) string {
	width := max(m.detail.Width-labelStyle.GetWidth()-1, 20)
	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(wordwrap.String(value, width)) + "\n"
	}

	var b strings.Builder
	turn := "player"
	if it.NPCTurn {
		turn = "npc"
	}
	b.WriteString(row("Node", fmt.Sprintf("%d  (%s turn, %d links)", it.NodeIndex, turn, it.LinkCount)))
	b.WriteString(labelStyle.Render("Speaker") +
		roleStyle(it.Role).Render(fmt.Sprintf("%s  (id %d, %s)", it.Label(), it.SpeakerID, it.Role)) + "\n")
	b.WriteString(row("Text", it.SpokenText))
	if it.ParaphraseText != "" {
		b.WriteString(row("Paraphrase", it.ParaphraseText))
	}
	if np, err := m.sess.PlotAt(it.NodeIndex); err == nil {
		if c := np.Condition; c != nil {
			verdict := "fails"
			if c.Holds != nil && *c.Holds {
				verdict = "holds"
			}
			b.WriteString(row("Condition", fmt.Sprintf("%s / %d / %s / %s", c.Plot, c.Flag, c.Op, verdict)))
		}
		if a := np.Action; a != nil {
			b.WriteString(row("Action", fmt.Sprintf("%s / %d / %s", a.Plot, a.Flag, a.Op)))
		}
	} else if ind := it.Indicator(); ind != "" {
		b.WriteString(row("Plot", ind))
	}
	if it.Reference {
		b.WriteString(row("Reference", fmt.Sprintf("node %d (r to jump)", it.ReferencedNode)))
	}
	if p := m.audio.Path(it.TextRef); p != "" {
		b.WriteString(row("Audio", p))
	}
	return b.String()
}

// View renders the tree view.
func (m TreeModel) View() string {
	var b strings.Builder

	t := m.sess.Tree()
	if t == nil || len(t.Roots) == 0 {
		b.WriteString(titleStyle.Render("Conversation"))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("No conversation loaded. Open one from the sidebar (4)."))
		return b.String()
	}

	header := fmt.Sprintf("%s  owner %s  %d lines", t.Conversation, ownerLabel(t.OwnerTag), t.Len())
	b.WriteString(titleStyle.Render(header))
	if n := len(t.Issues); n > 0 {
		b.WriteString(" ")
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d issues", n)))
	}
	b.WriteString("\n\n")

	selected := m.sess.Selected()
	vh := m.visibleHeight()
	end := min(m.offset+vh, len(m.rows))
	for i := m.offset; i < end; i++ {
		line := m.renderRow(m.rows[i], selected)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	for i := end - m.offset; i < vh; i++ {
		b.WriteString("\n")
	}

	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 10))))
	b.WriteString("\n")
	b.WriteString(m.detail.View())
	b.WriteString("\n")

	switch {
	case m.jumping:
		b.WriteString(m.jump.View())
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(copiedStyle.Render(m.status))
	default:
		b.WriteString(helpStyle.Render("enter: toggle • e/c: expand/collapse all • r: follow ref • :: jump • w: wheel • y: copy"))
	}
	return b.String()
}

func (m TreeModel) renderRow(r resolve.Row, selected int32) string {
	it := r.Item

	marker := "  "
	switch {
	case it.Reference:
		marker = "↪ "
	case len(it.Children) > 0 && it.Expanded:
		marker = "▾ "
	case len(it.Children) > 0:
		marker = "▸ "
	}
	current := " "
	if it.NodeIndex == selected && !it.Reference {
		current = "●"
	}

	prefix := strings.Repeat("  ", r.Depth) + marker + current + fmt.Sprintf("[%d] ", it.NodeIndex)
	label := it.Label() + ": "
	ind := ""
	if s := it.Indicator(); s != "" {
		ind = " [" + s + "]"
	}

	room := max(m.width-6-runewidth.StringWidth(prefix)-runewidth.StringWidth(label)-len(ind), 8)
	body := runewidth.Truncate(it.SpokenText, room, "...")
	return dimStyle.Render(prefix) + roleStyle(it.Role).Render(label) + body + dimStyle.Render(ind)
}

func ownerLabel(tag string) string {
	if tag == "" {
		return "(unknown)"
	}
	return tag
}
