package tui

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/f3rmion/dlgview/internal/dialog"
	"github.com/f3rmion/dlgview/internal/plot"
	"github.com/f3rmion/dlgview/internal/session"
	"github.com/f3rmion/dlgview/internal/tui/views"
)

// ViewType represents the current active view
type ViewType int

const (
	ViewTree ViewType = iota
	ViewWheel
	ViewPlot
	ViewFilePicker
)

// MenuItem represents a sidebar menu entry
type MenuItem struct {
	Label    string
	View     ViewType
	Shortcut string
}

// ConversationLoadedMsg is sent when a conversation file has been parsed.
type ConversationLoadedMsg struct {
	Conversation *dialog.Conversation
	Path         string
	Err          error
}

// Deps are the collaborators the app drives.
type Deps struct {
	Session *session.Session
	Cache   *session.Cache
	Audio   views.AudioSource
	Plots   *plot.Database
	// DataDir is where the file picker starts.
	DataDir string
}

// AppModel is the main TUI model
type AppModel struct {
	sess  *session.Session
	cache *session.Cache

	// Layout state
	width        int
	height       int
	sidebarWidth int
	ready        bool

	// Navigation
	currentView   ViewType
	menuItems     []MenuItem
	selectedMenu  int
	sidebarActive bool

	treeView       views.TreeModel
	wheelView      views.WheelModel
	plotView       views.PlotModel
	filePickerView views.FilePickerModel

	path    string
	loading bool
	err     error

	showHelp bool
}

// NewApp creates the application model.
func NewApp(d Deps) AppModel {
	menuItems := []MenuItem{
		{Label: "Tree", View: ViewTree, Shortcut: "1"},
		{Label: "Wheel", View: ViewWheel, Shortcut: "2"},
		{Label: "Plot", View: ViewPlot, Shortcut: "3"},
		{Label: "Open", View: ViewFilePicker, Shortcut: "4"},
	}

	app := AppModel{
		sess:         d.Session,
		cache:        d.Cache,
		sidebarWidth: 22,
		currentView:  ViewFilePicker,
		selectedMenu: 3,
		menuItems:    menuItems,

		treeView:       views.NewTreeModel(d.Session, d.Audio),
		wheelView:      views.NewWheelModel(d.Session),
		plotView:       views.NewPlotModel(d.Session, d.Plots),
		filePickerView: views.NewFilePickerModel(d.DataDir, ".xml"),
	}
	if d.Session.Conversation() != nil {
		app.switchTo(ViewTree)
	}
	return app
}

// NewAppWithFile creates an app that opens path on start.
func NewAppWithFile(d Deps, path string) AppModel {
	app := NewApp(d)
	app.path = path
	app.loading = true
	return app
}

// Init initializes the model
func (m AppModel) Init() tea.Cmd {
	if m.loading && m.path != "" {
		return tea.Batch(textinput.Blink, m.loadConversation(m.path))
	}
	return textinput.Blink
}

// typing reports whether the focused view owns the keyboard.
func (m AppModel) typing() bool {
	switch m.currentView {
	case ViewTree:
		return m.treeView.Jumping()
	case ViewPlot:
		return m.plotView.Editing()
	case ViewFilePicker:
		return m.filePickerView.Filtering()
	}
	return false
}

func (m *AppModel) switchTo(v ViewType) {
	m.currentView = v
	m.sidebarActive = false
	for i, item := range m.menuItems {
		if item.View == v {
			m.selectedMenu = i
			break
		}
	}
	if v == ViewWheel {
		m.wheelView.Refresh()
	}
}

// Update handles messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if !m.typing() {
			if model, cmd, handled := m.handleGlobalKey(msg); handled {
				return model, cmd
			}
		}

	case tea.MouseMsg:
		if m.showHelp || m.sidebarActive || m.currentView != ViewWheel {
			return m, nil
		}
		msg.X -= m.sidebarWidth + SidebarStyle.GetHorizontalBorderSize() + ContentStyle.GetPaddingLeft()
		msg.Y -= ContentStyle.GetPaddingTop()
		var cmd tea.Cmd
		m.wheelView, cmd = m.wheelView.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentWidth := m.width - m.sidebarWidth - 4
		contentHeight := m.height - 2
		m.treeView.SetSize(contentWidth, contentHeight)
		m.wheelView.SetSize(contentWidth, contentHeight)
		m.plotView.SetSize(contentWidth, contentHeight)
		m.filePickerView.SetSize(contentWidth, contentHeight)
		return m, nil

	case views.FileSelectedMsg:
		m.loading = true
		m.err = nil
		m.path = msg.Path
		return m, m.loadConversation(msg.Path)

	case ConversationLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			slog.Error("loading conversation", "path", msg.Path, "error", msg.Err)
			return m, nil
		}
		m.err = nil
		m.path = msg.Path
		m.sess.Load(msg.Conversation)
		m.treeView.Reload()
		m.wheelView.Refresh()
		m.switchTo(ViewTree)
		return m, nil

	case views.NodeSelectedMsg:
		if err := m.sess.Select(msg.Node); err != nil {
			m.err = err
			return m, nil
		}
		m.switchTo(ViewWheel)
		return m, nil

	case views.ChoiceMadeMsg:
		m.treeView.Focus(msg.Node)
		return m, nil

	case views.StateChangedMsg:
		m.wheelView.Refresh()
		m.treeView.RefreshDetail()
	}

	if _, isKey := msg.(tea.KeyMsg); isKey && m.sidebarActive {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewTree:
		m.treeView, cmd = m.treeView.Update(msg)
	case ViewWheel:
		m.wheelView, cmd = m.wheelView.Update(msg)
	case ViewPlot:
		m.plotView, cmd = m.plotView.Update(msg)
	case ViewFilePicker:
		m.filePickerView, cmd = m.filePickerView.Update(msg)
	}
	return m, cmd
}

func (m AppModel) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit, true
	case "?":
		m.showHelp = true
		return m, nil, true
	case "esc":
		if m.sidebarActive {
			return m, tea.Quit, true
		}
		m.sidebarActive = true
		return m, nil, true
	case "tab":
		if m.currentView == ViewWheel && !m.sidebarActive {
			return m, nil, false
		}
		m.sidebarActive = !m.sidebarActive
		return m, nil, true
	case "1", "2", "3", "4":
		// Digits pick wheel options while the wheel has focus.
		if m.currentView == ViewWheel && !m.sidebarActive {
			return m, nil, false
		}
		m.switchTo(m.menuItems[key[0]-'1'].View)
		return m, nil, true
	}

	if !m.sidebarActive {
		return m, nil, false
	}
	switch key {
	case "j", "down":
		if m.selectedMenu < len(m.menuItems)-1 {
			m.selectedMenu++
		}
	case "k", "up":
		if m.selectedMenu > 0 {
			m.selectedMenu--
		}
	case "enter", "l", "right":
		m.switchTo(m.menuItems[m.selectedMenu].View)
	}
	return m, nil, true
}

func (m AppModel) loadConversation(path string) tea.Cmd {
	cache := m.cache
	return func() tea.Msg {
		conv, err := cache.Load(path)
		return ConversationLoadedMsg{Conversation: conv, Path: path, Err: err}
	}
}

// View renders the UI
func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var content string
	switch m.currentView {
	case ViewTree:
		content = m.treeView.View()
	case ViewWheel:
		content = m.wheelView.View()
	case ViewPlot:
		content = m.plotView.View()
	case ViewFilePicker:
		content = m.filePickerView.View()
	}

	mainContent := ContentStyle.
		Width(m.width - m.sidebarWidth - 4).
		Height(m.height - 2).
		Render(content)

	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), mainContent)
}

func (m AppModel) renderSidebar() string {
	var items []string

	items = append(items, SidebarTitleStyle.Render("  DLG VIEW  "), "")

	for i, item := range m.menuItems {
		label := item.Shortcut + ". " + item.Label

		style := SidebarItemStyle
		if i == m.selectedMenu {
			if m.sidebarActive {
				style = SidebarItemActiveStyle
			} else {
				style = SidebarItemStyle.Bold(true).Foreground(ColorSecondary)
			}
		}
		items = append(items, style.Render(label))
	}

	items = append(items, "")
	switch {
	case m.loading:
		items = append(items, LoadingStyle.Render(" loading..."))
	case m.err != nil:
		items = append(items, ErrorStyle.Width(m.sidebarWidth-2).Render(" "+m.err.Error()))
	case m.sess.Conversation() != nil:
		conv := m.sess.Conversation()
		items = append(items,
			SidebarInfoStyle.Render(filepath.Base(m.path)),
			SidebarItemStyle.Render(fmt.Sprintf("%d lines", len(conv.Nodes))),
			SidebarItemStyle.Render(fmt.Sprintf("%d flags set", len(m.sess.Flags()))),
		)
	}

	usedHeight := len(items) + 4
	for i := 0; i < m.height-usedHeight-2; i++ {
		items = append(items, "")
	}
	items = append(items, SidebarHelpStyle.Render("? Help  q Quit"))

	return SidebarStyle.
		Width(m.sidebarWidth).
		Height(m.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (m AppModel) renderHelp() string {
	row := func(key, desc string) string {
		return HelpKeyStyle.Render(key) + HelpDescStyle.Render(desc) + "\n"
	}

	help := HelpTitleStyle.Render("dlgview") + "\n\n"

	help += HelpSectionStyle.Render("Global") + "\n"
	help += row("1-4", "Switch views (not on the wheel)")
	help += row("tab/esc", "Sidebar focus")
	help += row("?", "Show this help")
	help += row("q", "Quit")

	help += HelpSectionStyle.Render("Tree") + "\n"
	help += row("j/k", "Move")
	help += row("enter", "Expand or collapse line")
	help += row("E/C", "Expand or collapse branch")
	help += row("r", "Follow reference")
	help += row(":", "Jump to node")
	help += row("w", "Open wheel at line")
	help += row("y", "Copy line")

	help += HelpSectionStyle.Render("Wheel") + "\n"
	help += row("1-9", "Choose option")
	help += row("enter", "Choose highlighted option")
	help += row("click", "Choose option under the mouse")
	help += row("r", "Reset plot state")

	help += HelpSectionStyle.Render("Plot") + "\n"
	help += row("a", "Set plot:flag=value")
	help += row("t", "Toggle flag")
	help += row("R", "Clear all flags")

	help += "\n" + lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true).
		Render("Press any key to close")

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, HelpBoxStyle.Render(help))
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(app AppModel) error {
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
