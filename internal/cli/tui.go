package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/floorsmith/pkg/editor"
	"github.com/matzehuels/floorsmith/pkg/plan"
	"github.com/matzehuels/floorsmith/pkg/planfile"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// planEditorModel - Interactive plan editing
// =============================================================================

// planEditorModel is the bubbletea model for the interactive plan editor.
type planEditorModel struct {
	ed   *editor.Editor
	path string

	state  editor.Result
	cursor int
	height int
	offset int

	status    string
	statusErr bool
	dirty     bool
	savedOnce bool
}

// newPlanEditorModel creates an editor model over an already-loaded plan.
func newPlanEditorModel(ed *editor.Editor, path string) planEditorModel {
	return planEditorModel{
		ed:     ed,
		path:   path,
		state:  ed.State(),
		height: 15,
	}
}

func (m planEditorModel) Init() tea.Cmd {
	return nil
}

func (m planEditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.state.Spaces)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "l":
			m = m.toggleLock()
		case "r":
			m = m.command("recompute", func() (editor.Result, error) { return m.ed.Recalculate() })
		case "u":
			m = m.command("undo", m.ed.Undo)
		case "y":
			m = m.command("redo", m.ed.Redo)
		case "s":
			m = m.save()
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 10
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

// toggleLock flips the lock of the space under the cursor.
func (m planEditorModel) toggleLock() planEditorModel {
	if len(m.state.Spaces) == 0 {
		return m
	}
	s := &m.state.Spaces[m.cursor]
	key := s.Key()
	locked := !s.PositionLocked
	label := "lock"
	if !locked {
		label = "unlock"
	}
	return m.command(label, func() (editor.Result, error) {
		return m.ed.SetLocked(key, locked)
	})
}

// command runs one editor operation and folds the outcome into the model.
func (m planEditorModel) command(label string, fn func() (editor.Result, error)) planEditorModel {
	res, err := fn()
	if err != nil {
		m.status = fmt.Sprintf("%s failed: %v", label, err)
		m.statusErr = true
		return m
	}
	m.state = res
	m.dirty = true
	m.statusErr = false
	switch {
	case len(res.Infeasible) > 0:
		m.status = fmt.Sprintf("%s committed; layout not recomputed (%s)", label, strings.Join(res.Infeasible, "; "))
		m.statusErr = true
	case len(res.Warnings) > 0:
		m.status = fmt.Sprintf("%s: %s", label, res.Warnings[0].String())
	default:
		m.status = label
	}
	if m.cursor >= len(m.state.Spaces) && m.cursor > 0 {
		m.cursor = len(m.state.Spaces) - 1
	}
	return m
}

// save writes the current plan back to the input file.
func (m planEditorModel) save() planEditorModel {
	walls := m.ed.Walls()
	doc := &planfile.Document{Spaces: m.ed.Spaces(), Walls: &walls}
	if err := planfile.Save(m.path, doc); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		m.statusErr = true
		return m
	}
	m.status = "saved " + m.path
	m.statusErr = false
	m.dirty = false
	m.savedOnce = true
	return m
}

func (m planEditorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Floorsmith Editor"))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(m.path))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  l lock  r recompute  u undo  y redo  s save  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.state.Spaces) {
		end = len(m.state.Spaces)
	}

	broken := brokenSpaces(m.state.Issues)

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		s := &m.state.Spaces[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		pos := "—"
		if s.Placed() {
			pos = fmt.Sprintf("%.0f, %.0f", s.Position.X, s.Position.Y)
		}

		locked := ""
		if s.PositionLocked {
			locked = "⚓"
		}

		doors := "—"
		if len(s.Doors) > 0 {
			doors = fmt.Sprintf("%d", len(s.Doors))
		}

		state := iconSuccess
		if broken[s.Key()] {
			state = iconError
		}

		size := fmt.Sprintf("%.0f×%.0f", s.Size.Width, s.Size.Height)
		rows = append(rows, []string{cursor, s.Key(), size, pos, locked, doors, state})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Space", "Size", "Position", "Lock", "Doors", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.offset + row
			if actualIdx >= len(m.state.Spaces) {
				return lipgloss.NewStyle()
			}
			s := &m.state.Spaces[actualIdx]

			base := lipgloss.NewStyle()
			if broken[s.Key()] {
				base = base.Foreground(colorRed)
			} else if !s.Placed() {
				base = base.Foreground(colorDim)
			}
			if actualIdx == m.cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if len(m.state.Issues) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleError.Render(fmt.Sprintf("%d issue(s)", len(m.state.Issues))))
		b.WriteString("\n")
		for _, issue := range m.state.Issues {
			b.WriteString("  " + listDimStyle.Render(issue.String()) + "\n")
		}
	}

	b.WriteString("\n")
	h := m.state.History
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  history %d/%d", m.cursor+1, len(m.state.Spaces), h.Cursor+1, h.Depth)))
	if m.dirty {
		b.WriteString(StyleWarning.Render("  unsaved"))
	}
	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString("  " + StyleError.Render(m.status))
		} else {
			b.WriteString("  " + listDimStyle.Render(m.status))
		}
	}

	return b.String()
}

// brokenSpaces indexes validation issues by space key.
func brokenSpaces(issues []plan.Issue) map[string]bool {
	out := make(map[string]bool, len(issues))
	for _, issue := range issues {
		out[issue.SpaceKey] = true
	}
	return out
}
