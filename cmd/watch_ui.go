package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"demproc/internal/core/services"
	"demproc/pkg/ui"
)

// Live view for watch mode: a spinner plus a scrolling log of derivations.

const watchLogLines = 12

type watchEventMsg services.WatchEvent

type watchClosedMsg struct{}

type watchModel struct {
	dir     string
	spinner spinner.Model
	events  <-chan services.WatchEvent
	log     []string
	derived int
	failed  int
}

func newWatchModel(dir string, events <-chan services.WatchEvent) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.StyleInfo

	return watchModel{
		dir:     dir,
		spinner: s,
		events:  events,
	}
}

// waitForWatchEvent relays the next derivation result into the update loop
func waitForWatchEvent(events <-chan services.WatchEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return watchClosedMsg{}
		}
		return watchEventMsg(ev)
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForWatchEvent(m.events))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case watchEventMsg:
		ev := services.WatchEvent(msg)
		if ev.Err != nil {
			m.failed++
		} else if ev.Path != "" {
			m.derived++
		}
		m.log = append(m.log, formatWatchEvent(ev))
		if len(m.log) > watchLogLines {
			m.log = m.log[len(m.log)-watchLogLines:]
		}
		return m, waitForWatchEvent(m.events)

	case watchClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) View() string {
	view := ui.FormatTitle("demproc watch") + "\n\n"
	view += m.spinner.View() + " watching " + ui.StyleBold.Render(m.dir) + "\n"
	view += ui.FormatMuted(fmt.Sprintf("%d derived, %d failed", m.derived, m.failed)) + "\n\n"

	if len(m.log) == 0 {
		view += ui.FormatMuted("Drop a TIFF into the directory to derive its layers.") + "\n"
	}
	for _, line := range m.log {
		view += line + "\n"
	}

	view += "\n" + ui.FormatMuted("q: quit") + "\n"
	return view
}

// watchLiveView runs the bubbletea program until the user quits or the
// event stream closes
func watchLiveView(dir string, events <-chan services.WatchEvent) error {
	p := tea.NewProgram(newWatchModel(dir, events))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running watch view: %w", err)
	}
	return nil
}
