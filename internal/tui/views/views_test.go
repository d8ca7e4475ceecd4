package views

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/dlgview/internal/dialog"
	"github.com/f3rmion/dlgview/internal/resolve"
	"github.com/f3rmion/dlgview/internal/session"
	"github.com/f3rmion/dlgview/internal/text"
)

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadSession(t *testing.T) *session.Session {
	t.Helper()
	conv, err := dialog.ParseFile(filepath.Join("..", "..", "session", "testdata", "greeting.xml"))
	require.NoError(t, err)

	tbl := text.NewTable(text.Male)
	tbl.Add(100, "Hello there.")
	tbl.Add(102, "Back off.")
	tbl.Add(103, "Good.")
	tbl.Add(200, "Let's talk.")
	tbl.Add(201, "Get lost.")

	s := session.New(tbl, resolve.DefaultRadius)
	s.Load(conv)
	return s
}

func TestRenderWheel(t *testing.T) {
	opts := []resolve.Option{
		{Genus: dialog.Diplomatic, Text: "Let's talk."},
		{Genus: dialog.Aggressive, Text: "Get lost."},
	}
	resolve.Layout(opts, resolve.DefaultRadius)

	lines := strings.Split(RenderWheel(opts, 60, 13), "\n")
	require.Len(t, lines, 13)
	assert.Contains(t, lines[1], "[1] Let's talk.")
	assert.Contains(t, lines[6], "+")
	assert.Contains(t, lines[11], "[2] Get lost.")

	// Right-hand slots sit right of centre.
	assert.Greater(t, strings.Index(lines[1], "[1]"), 30)
}

func TestRenderWheelSkipsUnplaced(t *testing.T) {
	opts := []resolve.Option{{Text: "nowhere"}}
	out := RenderWheel(opts, 40, 9)
	assert.NotContains(t, out, "nowhere")
	assert.Contains(t, out, "+")
}

// cellOf returns the grid cell of the first rune of needle.
func cellOf(t *testing.T, lines []string, needle string) (col, row int) {
	t.Helper()
	for y, l := range lines {
		if i := strings.Index(l, needle); i >= 0 {
			return utf8.RuneCountInString(l[:i]), y
		}
	}
	t.Fatalf("%q not found", needle)
	return 0, 0
}

func TestWheelHit(t *testing.T) {
	opts := []resolve.Option{
		{Genus: dialog.Diplomatic, Text: "Let's talk."},
		{Genus: dialog.Aggressive, Text: "Get lost."},
	}
	resolve.Layout(opts, resolve.DefaultRadius)
	lines := strings.Split(RenderWheel(opts, 60, 13), "\n")

	col, row := cellOf(t, lines, "[1]")
	assert.Equal(t, 0, WheelHit(opts, 60, 13, col+3, row))
	col, row = cellOf(t, lines, "[2]")
	assert.Equal(t, 1, WheelHit(opts, 60, 13, col+3, row))
	assert.Equal(t, -1, WheelHit(opts, 60, 13, 30, 6), "centre")
	assert.Equal(t, -1, WheelHit(opts, 60, 13, 2, 1), "far left")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "abcdefg...", truncateRunes("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncateRunes("abcdef", 2))
}

func TestTreeModelSendsSelection(t *testing.T) {
	s := loadSession(t)
	m := NewTreeModel(s, AudioSource{})
	m.SetSize(100, 40)
	require.GreaterOrEqual(t, len(m.rows), 3)
	assert.Equal(t, int32(0), m.rows[m.cursor].Item.NodeIndex)

	m, _ = m.Update(keys("j"))
	want := m.rows[1].Item.NodeIndex

	_, cmd := m.Update(keys("w"))
	require.NotNil(t, cmd)
	assert.Equal(t, NodeSelectedMsg{Node: want}, cmd())
}

func TestTreeModelDetailShowsPlot(t *testing.T) {
	s := loadSession(t)
	s.Conversation().Nodes[3].Condition = dialog.PlotReference{PlotName: "plt_test", FlagIndex: 3, Comparison: 255}
	m := NewTreeModel(s, AudioSource{})
	m.SetSize(100, 40)

	tree := s.Tree()
	start := m.detailContent(tree.FindFirstOccurrence(0))
	assert.Contains(t, start, "Action")
	assert.Contains(t, start, "plt_test / 3 / True (implicitly)")
	assert.NotContains(t, start, "Condition")

	gated := tree.FindFirstOccurrence(3)
	assert.Contains(t, m.detailContent(gated), "plt_test / 3 / True (implicitly) / fails")

	_, err := s.Choose(0)
	require.NoError(t, err)
	assert.Contains(t, m.detailContent(gated), "plt_test / 3 / True (implicitly) / holds")
}

func TestTreeModelJump(t *testing.T) {
	s := loadSession(t)
	m := NewTreeModel(s, AudioSource{})
	m.SetSize(100, 40)

	m, _ = m.Update(keys(":"))
	assert.True(t, m.Jumping())
	m.jump.SetValue("2")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Jumping())
	assert.NoError(t, m.err)
	assert.Equal(t, int32(2), m.current().NodeIndex)

	m, _ = m.Update(keys(":"))
	m.jump.SetValue("99")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Error(t, m.err)
}

func TestTreeModelEmpty(t *testing.T) {
	m := NewTreeModel(session.New(text.NewTable(text.Male), 0), AudioSource{})
	assert.Contains(t, m.View(), "No conversation loaded")
}

func TestWheelModelChoose(t *testing.T) {
	s := loadSession(t)
	m := NewWheelModel(s)
	require.Len(t, m.Options(), 2)

	m, cmd := m.Update(keys("1"))
	require.NotNil(t, cmd)
	assert.Equal(t, ChoiceMadeMsg{Node: 3}, cmd())
	assert.Equal(t, int32(3), s.Selected())
	assert.Empty(t, m.Options())

	_, cmd = m.Update(keys("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, ChoiceMadeMsg{Node: 0}, cmd())
	assert.Empty(t, s.Flags())
}

func TestWheelModelClick(t *testing.T) {
	s := loadSession(t)
	m := NewWheelModel(s)
	m.SetSize(100, 40)
	require.Len(t, m.Options(), 2)

	view := strings.Split(m.View(), "\n")
	col, row := cellOf(t, view, "[2] Get lost.")
	left, top := m.gridOrigin()
	grid := strings.Split(RenderWheel(m.Options(), m.gridWidth(), wheelRows), "\n")
	gcol, grow := cellOf(t, grid, "[2] Get lost.")
	assert.Equal(t, gcol+left, col, "grid origin matches the rendered view")
	assert.Equal(t, grow+top, row)

	_, cmd := m.Update(tea.MouseMsg{X: col + 4, Y: row, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	assert.Nil(t, cmd, "only presses choose")
	_, cmd = m.Update(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Nil(t, cmd)

	_, cmd = m.Update(tea.MouseMsg{X: col + 4, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.NotNil(t, cmd)
	assert.Equal(t, ChoiceMadeMsg{Node: 2}, cmd())
	assert.Equal(t, int32(2), s.Selected())
}

func TestWheelModelOutOfRange(t *testing.T) {
	s := loadSession(t)
	m := NewWheelModel(s)

	m, cmd := m.Update(keys("6"))
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.err, session.ErrOptionNotFound)
}

func TestPlotModelSetFlag(t *testing.T) {
	s := loadSession(t)
	m := NewPlotModel(s, nil)

	m, _ = m.Update(keys("a"))
	require.True(t, m.Editing())
	m.input.SetValue("plt_gate:2=5")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, m.Editing())

	flags := s.Flags()
	require.Len(t, flags, 1)
	assert.Equal(t, "plt_gate", flags[0].Plot)
	assert.Equal(t, int32(5), flags[0].Value)

	m, _ = m.Update(keys("t"))
	assert.Equal(t, int32(0), s.Flags()[0].Value)

	m, _ = m.Update(keys("a"))
	m.input.SetValue("nonsense")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Error(t, m.err)
}

func TestFilePicker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.xml", "a.XML", "notes.txt", ".hidden.xml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	m := NewFilePickerModel(dir, ".xml")
	var names []string
	for _, e := range m.Entries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"..", "sub", "a.XML", "b.xml"}, names)

	m, _ = m.Update(keys("/"))
	require.True(t, m.Filtering())
	m, _ = m.Update(keys("b."))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.Entries(), 2)

	m, _ = m.Update(keys("j"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, FileSelectedMsg{Path: filepath.Join(dir, "b.xml")}, cmd())
}

func TestFilePickerFallsBack(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	m := NewFilePickerModel(filepath.Join(wd, "does-not-exist"))
	assert.Equal(t, wd, m.Dir())
}
