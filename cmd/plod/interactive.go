package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	offsetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	bytesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateDetail
)

type interactiveModel struct {
	err      error
	typeName string
	data     []byte
	spans    []span
	detail   viewport.Model
	selected int
	offset   int
	height   int
	width    int
	state    modelState
}

func newInteractiveModel(typeName string, data []byte, spans []span, err error) *interactiveModel {
	return &interactiveModel{
		err:      err,
		typeName: typeName,
		data:     data,
		spans:    spans,
		detail:   viewport.New(80, 20),
		height:   24,
		width:    80,
		state:    stateBrowse,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.detail.Width = msg.Width
		m.detail.Height = max(msg.Height-6, 1)
		m.scroll()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
				m.scroll()
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.spans)-1 {
				m.selected++
				m.scroll()
			}

		case "enter":
			if m.state == stateBrowse && len(m.spans) > 0 {
				m.detail.SetContent(m.describe(m.spans[m.selected]))
				m.detail.GotoTop()
				m.state = stateDetail
				return m, nil
			}

		case "esc":
			if m.state == stateDetail {
				m.state = stateBrowse
				return m, nil
			}
		}
	}

	if m.state == stateDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

// rows is the number of span lines that fit between header and help.
func (m *interactiveModel) rows() int {
	return max(m.height-6, 1)
}

func (m *interactiveModel) scroll() {
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if last := m.offset + m.rows() - 1; m.selected > last {
		m.offset = m.selected - m.rows() + 1
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("plod inspect"))
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%s, %d bytes", m.typeName, len(m.data)))
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		if len(m.spans) == 0 {
			b.WriteString("No fields decoded.\n")
		}
		end := min(m.offset+m.rows(), len(m.spans))
		for i := m.offset; i < end; i++ {
			line := m.formatSpan(m.spans[i])
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter details • q quit"))

	case stateDetail:
		b.WriteString(m.detail.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatSpan(s span) string {
	indent := strings.Repeat("  ", len(s.path)-1)
	return offsetStyle.Render(fmt.Sprintf("%08x %5d", s.start, s.end-s.start)) +
		"  " + indent + fieldStyle.Render(s.name()) + " = " + summarize(s.value)
}

// describe renders the full path, the value and a hex dump of the bytes a
// field occupied.
func (m *interactiveModel) describe(s span) string {
	var b strings.Builder
	b.WriteString(fieldStyle.Render(strings.Join(s.path, ".")))
	b.WriteString(offsetStyle.Render(fmt.Sprintf("  [%d, %d)", s.start, s.end)))
	b.WriteString("\n\n")

	if s.value.IsValid() && s.value.CanInterface() {
		if out, err := json.MarshalIndent(s.value.Interface(), "", "  "); err == nil {
			b.Write(out)
		} else {
			b.WriteString(summarize(s.value))
		}
	}
	b.WriteString("\n\n")

	start, end := int(s.start), int(s.end)
	if start >= 0 && start <= end && end <= len(m.data) {
		b.WriteString(bytesStyle.Render(hexDump(m.data[start:end], s.start)))
	}
	return b.String()
}

// hexDump formats data sixteen bytes a line, labelling lines with stream
// offsets from base.
func hexDump(data []byte, base int64) string {
	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		line := data[i:min(i+16, len(data))]
		fmt.Fprintf(&b, "%08x  % x\n", base+int64(i), line)
	}
	return b.String()
}

func runInteractive(typeName string, data []byte, spans []span, err error) error {
	p := tea.NewProgram(newInteractiveModel(typeName, data, spans, err), tea.WithAltScreen())
	_, runErr := p.Run()
	return runErr
}
