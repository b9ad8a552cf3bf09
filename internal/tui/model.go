// Package tui is an interactive terminal console for querying ingested
// documentation.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"seqassist/internal/domain"
)

// Searcher is the retrieval capability the console needs.
type Searcher interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	distanceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	chunkStyle    = lipgloss.NewStyle().PaddingLeft(2)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type resultsMsg struct {
	query   string
	results []domain.SearchResult
	err     error
	took    time.Duration
}

// Model drives the search console.
type Model struct {
	searcher Searcher
	topK     int

	input    textinput.Model
	viewport viewport.Model
	ready    bool
	waiting  bool
	content  string
}

// New creates the console model.
func New(searcher Searcher, topK int) Model {
	ti := textinput.New()
	ti.Placeholder = "ask about the documentation..."
	ti.Prompt = promptStyle.Render("? ")
	ti.Focus()
	ti.CharLimit = 512
	return Model{
		searcher: searcher,
		topK:     topK,
		input:    ti,
		content:  helpStyle.Render("Type a question and press enter. Esc or ctrl+c quits."),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			query := strings.TrimSpace(m.input.Value())
			if query == "" || m.waiting {
				return m, nil
			}
			m.waiting = true
			m.input.SetValue("")
			return m, m.search(query)
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.content)

	case resultsMsg:
		m.waiting = false
		m.content = renderResults(msg)
		m.viewport.SetContent(m.content)
		m.viewport.GotoTop()
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	status := ""
	if m.waiting {
		status = helpStyle.Render(" searching...")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s%s",
		titleStyle.Render("seqassist console"),
		m.viewport.View(),
		m.input.View(),
		status,
	)
}

func (m Model) search(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		start := time.Now()
		results, err := m.searcher.Retrieve(ctx, query, m.topK)
		return resultsMsg{query: query, results: results, err: err, took: time.Since(start)}
	}
}

func renderResults(msg resultsMsg) string {
	if msg.err != nil {
		return errorStyle.Render("error: " + msg.err.Error())
	}
	if len(msg.results) == 0 {
		return helpStyle.Render("no matches; is anything ingested?")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n",
		titleStyle.Render(fmt.Sprintf("%d matches for %q", len(msg.results), msg.query)),
		distanceStyle.Render(fmt.Sprintf("(%.0fms)", float64(msg.took.Microseconds())/1000)))
	for i, r := range msg.results {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %s\n",
			promptStyle.Render(fmt.Sprintf("%d.", i+1)),
			distanceStyle.Render(fmt.Sprintf("distance %.4f  %s", r.Distance, r.Chunk.ID)))
		b.WriteString(chunkStyle.Render(strings.TrimSpace(r.Chunk.Content)))
		b.WriteString("\n")
	}
	return b.String()
}
