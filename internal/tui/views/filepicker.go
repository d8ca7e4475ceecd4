package views

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fpPathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	fpDirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ecdc4")).
			Bold(true)

	fpFileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f1faee"))
)

// FileEntry is one row in the picker.
type FileEntry struct {
	Name  string
	IsDir bool
	Path  string
}

// FilePickerModel browses the file system for conversation files.
type FilePickerModel struct {
	currentDir string
	entries    []FileEntry
	visible    []int
	selected   int
	offset     int

	extensions []string

	filter    textinput.Model
	filtering bool

	err error

	width  int
	height int
}

// NewFilePickerModel creates a picker rooted at startDir, showing
// directories and files with one of exts. An unusable startDir falls back
// to the working directory.
func NewFilePickerModel(startDir string, exts ...string) FilePickerModel {
	if fi, err := os.Stat(startDir); startDir == "" || err != nil || !fi.IsDir() {
		startDir, _ = os.Getwd()
	}
	if abs, err := filepath.Abs(startDir); err == nil {
		startDir = abs
	}

	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "filter: "
	ti.CharLimit = 64
	ti.Width = 30
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ecdc4"))

	m := FilePickerModel{
		currentDir: startDir,
		extensions: exts,
		filter:     ti,
	}
	m.loadDir()
	return m
}

// SetSize updates the view dimensions.
func (m *FilePickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Dir returns the directory being shown.
func (m FilePickerModel) Dir() string {
	return m.currentDir
}

// Filtering reports whether the filter input has focus.
func (m FilePickerModel) Filtering() bool {
	return m.filtering
}

// Entries returns the rows that pass the current filter.
func (m FilePickerModel) Entries() []FileEntry {
	out := make([]FileEntry, 0, len(m.visible))
	for _, i := range m.visible {
		out = append(out, m.entries[i])
	}
	return out
}

func (m *FilePickerModel) loadDir() {
	m.entries = nil
	m.selected = 0
	m.offset = 0
	m.err = nil

	entries, err := os.ReadDir(m.currentDir)
	if err != nil {
		m.err = err
		m.applyFilter()
		return
	}

	if parent := filepath.Dir(m.currentDir); parent != m.currentDir {
		m.entries = append(m.entries, FileEntry{Name: "..", IsDir: true, Path: parent})
	}

	var dirs, files []FileEntry
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		fe := FileEntry{
			Name:  entry.Name(),
			IsDir: entry.IsDir(),
			Path:  filepath.Join(m.currentDir, entry.Name()),
		}
		if entry.IsDir() {
			dirs = append(dirs, fe)
		} else if m.matchesExtension(entry.Name()) {
			files = append(files, fe)
		}
	}

	byName := func(s []FileEntry) {
		sort.Slice(s, func(i, j int) bool {
			return strings.ToLower(s[i].Name) < strings.ToLower(s[j].Name)
		})
	}
	byName(dirs)
	byName(files)

	m.entries = append(m.entries, dirs...)
	m.entries = append(m.entries, files...)
	m.applyFilter()
}

func (m *FilePickerModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = nil
	for i, e := range m.entries {
		if q == "" || e.Name == ".." || strings.Contains(strings.ToLower(e.Name), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
	m.adjustScroll()
}

func (m *FilePickerModel) matchesExtension(name string) bool {
	if len(m.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range m.extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func (m *FilePickerModel) chdir(dir string) {
	m.currentDir = dir
	m.filter.Reset()
	m.loadDir()
}

// Update handles messages.
func (m FilePickerModel) Update(msg tea.Msg) (FilePickerModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filtering {
		switch key.String() {
		case "esc":
			m.filtering = false
			m.filter.Blur()
			m.filter.Reset()
			m.applyFilter()
			return m, nil
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(key)
		m.applyFilter()
		return m, cmd
	}

	switch key.String() {
	case "j", "down":
		m.move(1)
	case "k", "up":
		m.move(-1)
	case "ctrl+d":
		m.move(m.visibleHeight() / 2)
	case "ctrl+u":
		m.move(-m.visibleHeight() / 2)
	case "g":
		m.move(-len(m.visible))
	case "G":
		m.move(len(m.visible))
	case "enter", "l", "right":
		if m.selected < len(m.visible) {
			entry := m.entries[m.visible[m.selected]]
			if entry.IsDir {
				m.chdir(entry.Path)
				return m, nil
			}
			return m, func() tea.Msg { return FileSelectedMsg{Path: entry.Path} }
		}
	case "backspace", "h":
		if parent := filepath.Dir(m.currentDir); parent != m.currentDir {
			m.chdir(parent)
		}
	case "~":
		if home, _ := os.UserHomeDir(); home != "" {
			m.chdir(home)
		}
	case "/":
		m.filtering = true
		return m, m.filter.Focus()
	}
	return m, nil
}

func (m *FilePickerModel) move(delta int) {
	m.selected += delta
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.adjustScroll()
}

func (m *FilePickerModel) visibleHeight() int {
	return max(m.height-9, 5)
}

func (m *FilePickerModel) adjustScroll() {
	vh := m.visibleHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+vh {
		m.offset = m.selected - vh + 1
	}
}

// View renders the file picker.
func (m FilePickerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Open Conversation (" + strings.Join(m.extensions, ", ") + ")"))
	b.WriteString("\n\n")
	b.WriteString(fpPathStyle.Render(m.currentDir))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	rule := dividerStyle.Render(strings.Repeat("─", max(min(m.width-4, 60), 10)))
	b.WriteString(rule)
	b.WriteString("\n")

	if len(m.visible) == 0 {
		b.WriteString(helpStyle.Render("  (no matching files)"))
		b.WriteString("\n")
	}

	end := min(m.offset+m.visibleHeight(), len(m.visible))
	for i := m.offset; i < end; i++ {
		entry := m.entries[m.visible[i]]

		line := "[FILE] " + entry.Name
		style := fpFileStyle
		if entry.IsDir {
			line = "[DIR]  " + entry.Name
			style = fpDirStyle
		}
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + style.Render(line))
		}
		b.WriteString("\n")
	}

	if len(m.visible) > m.visibleHeight() {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d", m.selected+1, len(m.visible))))
		b.WriteString("\n")
	}

	b.WriteString(rule)
	b.WriteString("\n")
	if m.filtering {
		b.WriteString(m.filter.View())
	} else {
		b.WriteString(helpStyle.Render("enter: open • backspace: parent • ~: home • /: filter"))
	}
	return b.String()
}
