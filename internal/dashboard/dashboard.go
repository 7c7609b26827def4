// Package dashboard implements pypmtop, a bubbletea dashboard that polls
// one process's cpu, mem, and stdout tail and renders them live. It is
// grounded on the teacher's internal/gui package (bubbletea model, tick
// loop, lipgloss styling), trimmed from the teacher's multi-pane
// process-list-plus-log-viewer dashboard down to a single selected
// process, since the daemon's own request/response contract is this
// spec's only specified surface and the dashboard is just a client of it.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/7c/pypm/internal/client"
	"github.com/7c/pypm/internal/protocol"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	logStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
	helpStyle = lipgloss.NewStyle().Faint(true)
)

type tickMsg time.Time

type model struct {
	c    *client.Client
	name string
	rate time.Duration

	pid    int32
	uptime string
	mem    float64
	cpu    float64
	tail   string
	err    error
}

// Run starts the bubbletea program, polling name's cpu/mem/stdout every
// rate on the daemon reachable via c.
func Run(c *client.Client, name string, rate time.Duration) error {
	m := model{c: c, name: name, rate: rate, pid: protocol.PIDSentinel}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.poll, tickCmd(m.rate))
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) poll() tea.Msg {
	next := m
	if pids, err := m.c.PID(m.name); err == nil && len(pids) == 1 {
		next.pid = pids[0].Value
	}
	if uptimes, err := m.c.Uptime(m.name); err == nil && len(uptimes) == 1 {
		next.uptime = uptimes[0][1]
	}
	if mems, err := m.c.Mem(m.name); err == nil && len(mems) == 1 {
		next.mem = mems[0].Value
	}
	if cpus, err := m.c.CPU(m.name); err == nil && len(cpus) == 1 {
		next.cpu = cpus[0].Value
	}
	if tail, err := m.c.Stdout(m.name); err == nil {
		next.tail = string(tail)
	} else {
		next.err = err
	}
	return polledMsg(next)
}

type polledMsg model

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		return m, m.poll
	case polledMsg:
		return model(msg), nil
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("pypmtop — %s", m.name)))
	b.WriteString("\n\n")

	active := m.pid != protocol.PIDSentinel
	status := "stopped"
	if active {
		status = "running"
	}

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("status:"), valueStyle.Render(status)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("pid:"), valueStyle.Render(fmt.Sprintf("%d", m.pid))))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("uptime:"), valueStyle.Render(m.uptime)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("cpu:"), valueStyle.Render(protocol.FormatPercent(m.cpu))))
	b.WriteString(fmt.Sprintf("%s %s\n\n", labelStyle.Render("mem:"), valueStyle.Render(protocol.FormatBytes(m.mem))))

	b.WriteString(logStyle.Render(tail(m.tail, 15)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: quit"))

	if m.err != nil {
		b.WriteString("\n" + labelStyle.Render(m.err.Error()))
	}
	return b.String()
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
