// Package tui is an interactive browser for run results: the findings list
// with full detail, and the recorded phase transitions.
package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Hazy142/Hytale-Lab/internal/findings"
	"github.com/Hazy142/Hytale-Lab/internal/phase"
)

// Tab selects the active view.
type Tab int

const (
	TabFindings Tab = iota
	TabTransitions
)

type clipboardMsg struct {
	err error
}

// Model is the bubbletea model for the results browser.
type Model struct {
	styles Styles
	target string

	findings    []findings.Finding
	transitions []phase.Transition

	tab    Tab
	cursor int
	width  int
	height int
	status string
}

// NewModel builds the browser for one run's results.
func NewModel(target string, found []findings.Finding, transitions []phase.Transition) *Model {
	return &Model{
		styles:      DefaultStyles,
		target:      target,
		findings:    found,
		transitions: transitions,
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.status = "packet hex copied"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		if m.tab == TabFindings {
			m.tab = TabTransitions
		} else {
			m.tab = TabFindings
		}
		m.cursor = 0
		m.status = ""
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}
	case "c":
		if m.tab == TabFindings && m.cursor < len(m.findings) {
			hex := m.findings[m.cursor].PacketHex
			if hex == "" {
				m.status = "no packet hex on this finding"
				break
			}
			return m, func() tea.Msg {
				return clipboardMsg{err: clipboard.WriteAll(hex)}
			}
		}
	}
	return m, nil
}

func (m *Model) listLen() int {
	if m.tab == TabFindings {
		return len(m.findings)
	}
	return len(m.transitions)
}

func (m *Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("hytale-lab results  %s", m.target)
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n\n")

	if m.tab == TabFindings {
		b.WriteString(m.viewFindings())
	} else {
		b.WriteString(m.viewTransitions())
	}

	b.WriteString("\n")
	footer := "tab: switch view   j/k: move   c: copy packet hex   q: quit"
	if m.status != "" {
		footer = m.status + "   " + footer
	}
	b.WriteString(m.styles.Footer.Render(footer))
	return b.String()
}

func (m *Model) viewFindings() string {
	if len(m.findings) == 0 {
		return m.styles.Dim.Render("no findings recorded")
	}

	var list strings.Builder
	for i, f := range m.findings {
		line := fmt.Sprintf("%s %s", m.severityStyle(f.Severity)(string(f.Severity)), f.Title)
		if i == m.cursor {
			line = m.styles.Selected.Render("> ") + line
		} else {
			line = "  " + line
		}
		list.WriteString(line)
		list.WriteString("\n")
	}

	detail := m.viewDetail(m.findings[m.cursor])
	return list.String() + "\n" + m.styles.Panel.Render(detail)
}

func (m *Model) viewDetail(f findings.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.styles.Base.Bold(true).Render(f.Title))
	fmt.Fprintf(&b, "Kind: %s\n", f.Kind)
	fmt.Fprintf(&b, "%s\n", f.Description)
	if f.Impact != "" {
		fmt.Fprintf(&b, "Impact: %s\n", f.Impact)
	}
	if len(f.Reproduction) > 0 {
		b.WriteString("Reproduction:\n")
		for i, step := range f.Reproduction {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	}
	if f.Mitigation != "" {
		fmt.Fprintf(&b, "Mitigation: %s\n", f.Mitigation)
	}
	if f.PacketHex != "" {
		fmt.Fprintf(&b, "Packet: %s", m.styles.Dim.Render(truncate(f.PacketHex, 80)))
	}
	return b.String()
}

func (m *Model) viewTransitions() string {
	if len(m.transitions) == 0 {
		return m.styles.Dim.Render("no transitions recorded")
	}

	var b strings.Builder
	for i, tr := range m.transitions {
		marker := m.styles.Base.Render("ok     ")
		if !tr.Valid {
			marker = m.styles.High.Render("INVALID")
		}
		line := fmt.Sprintf("%s  %s -> %s  (%s)", marker, tr.From, tr.To, tr.Event)
		if i == m.cursor {
			line = m.styles.Selected.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) severityStyle(s findings.Severity) func(...string) string {
	var style = m.styles.Low
	switch s {
	case findings.SeverityCritical:
		style = m.styles.Critical
	case findings.SeverityHigh:
		style = m.styles.High
	case findings.SeverityMedium:
		style = m.styles.Medium
	}
	return style.Render
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Run starts the browser in the alternate screen.
func Run(target string, found []findings.Finding, transitions []phase.Transition) error {
	p := tea.NewProgram(NewModel(target, found, transitions), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
