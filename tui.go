package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/wader/svgcast/internal/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7AA2F7"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#565656"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ECE6A"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E"))
)

type convertFn func(ctx context.Context, onProgress func(percent int)) (*pipeline.Result, error)

type progressMsg int

type doneMsg struct {
	res *pipeline.Result
	err error
}

type progressModel struct {
	title    string
	bar      progress.Model
	percent  int
	cancel   context.CancelFunc
	stopping bool
	done     *doneMsg
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// wait for the conversion to return before quitting
			m.stopping = true
			m.cancel()
		}
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-4, 60))
	case progressMsg:
		m.percent = int(msg)
	case doneMsg:
		m.done = &msg
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done != nil {
		return ""
	}
	status := dimStyle.Render(fmt.Sprintf("%d%%", m.percent))
	if m.stopping {
		status = errStyle.Render("stopping...")
	}
	return titleStyle.Render(m.title) + " " + status + "\n" + m.bar.ViewAs(float64(m.percent)/100) + "\n"
}

// runTUI shows a progress bar while fn runs
func runTUI(ctx context.Context, title string, fn convertFn) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := progressModel{
		title:  title,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		cancel: cancel,
	}
	p := tea.NewProgram(m)

	doneCh := make(chan doneMsg, 1)
	go func() {
		res, err := fn(ctx, func(percent int) { p.Send(progressMsg(percent)) })
		d := doneMsg{res: res, err: err}
		doneCh <- d
		p.Send(d)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-doneCh
		return nil, err
	}
	d := <-doneCh
	return d.res, d.err
}

// runLogged logs progress every 10 percent
func runLogged(ctx context.Context, l logrus.FieldLogger, fn convertFn) (*pipeline.Result, error) {
	next := 0
	return fn(ctx, func(percent int) {
		if percent < next {
			return
		}
		l.WithField("percent", percent).Info("progress")
		next = percent/10*10 + 10
	})
}

func summary(lines [][2]string) string {
	width := 0
	for _, l := range lines {
		width = max(width, len(l[0]))
	}
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%-*s", width, l[0])))
		sb.WriteString("  ")
		sb.WriteString(okStyle.Render(l[1]))
		sb.WriteString("\n")
	}
	return sb.String()
}
