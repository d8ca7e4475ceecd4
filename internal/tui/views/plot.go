package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/f3rmion/dlgview/internal/plot"
	"github.com/f3rmion/dlgview/internal/session"
)

// PlotModel lists and edits the session's plot flags.
type PlotModel struct {
	sess  *session.Session
	plots *plot.Database

	input   textinput.Model
	editing bool
	cursor  int

	status string
	err    error

	width  int
	height int
}

// NewPlotModel creates a plot view. plots may be nil.
func NewPlotModel(sess *session.Session, plots *plot.Database) PlotModel {
	ti := textinput.New()
	ti.Placeholder = "plt_name:flag=value"
	ti.Prompt = "set: "
	ti.CharLimit = 80
	ti.Width = 40
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ecdc4"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffe66d"))

	return PlotModel{sess: sess, plots: plots, input: ti}
}

// SetSize updates the view dimensions.
func (m *PlotModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Editing reports whether the input has focus.
func (m PlotModel) Editing() bool {
	return m.editing
}

// Update handles messages.
func (m PlotModel) Update(msg tea.Msg) (PlotModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateInput(msg)
		}
		flags := m.sess.Flags()
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(flags)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "a", "/":
			m.editing = true
			m.err = nil
			m.input.Reset()
			return m, m.input.Focus()
		case "t":
			// Toggle between 0 and 1.
			if m.cursor < len(flags) {
				f := flags[m.cursor]
				v := int32(1)
				if f.Value != 0 {
					v = 0
				}
				m.sess.SetFlag(f.Plot, f.Index, v)
				return m, changed()
			}
		case "R":
			m.sess.Reset()
			m.cursor = 0
			m.status = "Plot state cleared"
			return m, tea.Batch(changed(), clearStatusAfter(2*time.Second))
		}
		return m, nil

	case clearStatusMsg:
		m.status = ""
	}
	return m, nil
}

func (m PlotModel) updateInput(msg tea.KeyMsg) (PlotModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.input.Blur()
		f, err := plot.ParseAssignment(m.input.Value())
		if err != nil {
			m.err = err
			return m, nil
		}
		m.sess.SetFlag(f.Plot, f.Index, f.Value)
		m.status = "Set " + f.String()
		return m, tea.Batch(changed(), clearStatusAfter(2*time.Second))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func changed() tea.Cmd {
	return func() tea.Msg { return StateChangedMsg{} }
}

// View renders the plot view.
func (m PlotModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Plot State"))
	b.WriteString("\n\n")

	flags := m.sess.Flags()
	if len(flags) == 0 {
		b.WriteString(dimStyle.Render("No flags set. Choosing options applies line actions here."))
		b.WriteString("\n")
	} else {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("%-32s %6s %6s  %s", "Plot", "Flag", "Value", "GUID")))
		b.WriteString("\n")
		for i, f := range flags {
			guid := ""
			if m.plots != nil {
				guid = m.plots.GUID(f.Plot)
			}
			line := fmt.Sprintf("%-32s %6d %6d  %s", f.Plot, f.Index, f.Value, guid)
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + valueStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.editing:
		b.WriteString(m.input.View())
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(copiedStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("a: set flag • t: toggle • R: clear all"))
	return b.String()
}
