package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertwitch/procwatch/internal/queue"
	"github.com/dustin/go-humanize"
)

const (
	// maxLogLines is the amount of log lines kept for the logs panel.
	maxLogLines = 100

	// progressInterval is the refresh interval of the progress panels.
	progressInterval = 100 * time.Millisecond
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	// infoStyle defines the style for a panel's text.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// helpStyle defines the style for the help panel's text.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

// QueueProgressMsg is a [tea.Msg] containing [queue.Progress] information.
type QueueProgressMsg struct {
	t                  time.Time
	enumerationData    queue.Progress
	fingerprintingData queue.Progress
}

// TeaModel is the principal [tea.Model] for the command-line user interface.
type TeaModel struct {
	width  int
	height int

	cancel context.CancelFunc

	uiHandler *Handler

	fullWidthWithBorders  int
	splitWidthWithBorders int

	enumerationData    queue.Progress
	fingerprintingData queue.Progress

	enumerationProgress    progress.Model
	fingerprintingProgress progress.Model
	logsViewport           viewport.Model
	logs                   []string

	ready bool
}

// NewTeaModel returns an initial new [TeaModel].
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, cancel context.CancelFunc) TeaModel {
	return TeaModel{
		uiHandler: uiHandler,
		enumerationProgress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(80),
		),
		fingerprintingProgress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(80),
		),
		logsViewport: viewport.New(80, 20),
		logs:         make([]string, 0, maxLogLines),
		cancel:       cancel,
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		updateQueueProgress(m.uiHandler.queueManager),
	)
}

// updateQueueProgress produces a [tea.Cmd] for later scheduling in a
// [tea.Program]. When executed, a [QueueProgressMsg] with the
// [queue.Manager]'s stage progress is returned.
func updateQueueProgress(q *queue.Manager) tea.Cmd {
	return tea.Tick(progressInterval, func(t time.Time) tea.Msg {
		return QueueProgressMsg{
			t:                  t,
			enumerationData:    q.Enumeration.Progress(),
			fingerprintingData: q.Fingerprinting.Progress(),
		}
	})
}

// Update is the principal message handling method of the model.
// It sets the internal state of the model, for later rendering.
//
//nolint:mnd,ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit
		case "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.fullWidthWithBorders = m.width - 2
		m.splitWidthWithBorders = (m.width / 2) - 2

		m.enumerationProgress.Width = m.splitWidthWithBorders
		m.fingerprintingProgress.Width = m.splitWidthWithBorders

		// Upper panels take about 40% of the height.
		upperHeight := m.height * 2 / 5
		lowerHeight := m.height - upperHeight

		m.logsViewport.Width = m.fullWidthWithBorders
		m.logsViewport.Height = max(1, lowerHeight-3)

		m.refreshLogs()

		if !m.ready {
			m.ready = true
			m.uiHandler.Initialized.Store(true)
		}

	case QueueProgressMsg:
		m.enumerationData = msg.enumerationData
		m.fingerprintingData = msg.fingerprintingData

		cmds = append(cmds,
			m.enumerationProgress.SetPercent(m.enumerationData.ProgressPct/100),
			m.fingerprintingProgress.SetPercent(m.fingerprintingData.ProgressPct/100),
			updateQueueProgress(m.uiHandler.queueManager),
		)

	case LogMsg:
		if len(m.logs) >= maxLogLines {
			m.logs = m.logs[1:]
		}
		m.logs = append(m.logs, string(msg))

		m.refreshLogs()

	case progress.FrameMsg:
		if updated, cmd := m.enumerationProgress.Update(msg); updated != nil {
			if progressModel, ok := updated.(progress.Model); ok {
				m.enumerationProgress = progressModel
			}
			cmds = append(cmds, cmd)
		}

		if updated, cmd := m.fingerprintingProgress.Update(msg); updated != nil {
			if progressModel, ok := updated.(progress.Model); ok {
				m.fingerprintingProgress = progressModel
			}
			cmds = append(cmds, cmd)
		}
	}

	m.logsViewport, cmd = m.logsViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// refreshLogs renders the kept log lines into the logs viewport.
func (m *TeaModel) refreshLogs() {
	if len(m.logs) == 0 {
		return
	}

	logs := lipgloss.NewStyle().
		Width(m.logsViewport.Width).
		Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

	m.logsViewport.SetContent(logs)
	m.logsViewport.GotoBottom()
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the GUI..."
	}

	enumerationView := m.formatProgressView("Enumeration", m.enumerationProgress.View(), m.enumerationData)
	fingerprintingView := m.formatProgressView("Fingerprinting", m.fingerprintingProgress.View(), m.fingerprintingData)

	progressSection := lipgloss.JoinHorizontal(
		lipgloss.Top,
		borderStyle.Width(m.splitWidthWithBorders).Render(enumerationView),
		borderStyle.Width(m.splitWidthWithBorders).Render(fingerprintingView),
	)

	logsSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Process Information"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.logsViewport.View()),
			),
		)

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render("q: quit gui • ctrl+c: quit program")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		progressSection,
		logsSection,
		helpSection,
	)
}

// formatProgressView is a helper function for rendering the progress panels.
func (m TeaModel) formatProgressView(title string, progressBar string, progress queue.Progress) string {
	var details string

	if !progress.HasFinished {
		var timeLeft string
		if !progress.ETA.IsZero() {
			timeLeft = humanize.RelTime(time.Now(), progress.ETA, "ago", "left")
		}

		details = fmt.Sprintf(
			"Progress: %.2f%% (%s/%s)\n"+
				"Items: InProgress=%d, Success=%s, Skipped=%s, Requeued=%d\n"+
				"Time: Started=%s, ETA=%s %s\n"+
				"Speed: %s %s\n",
			progress.ProgressPct,
			humanize.Comma(int64(progress.ProcessedItems)),
			humanize.Comma(int64(progress.TotalItems)),
			progress.InProgressItems,
			humanize.Comma(int64(progress.SuccessItems)),
			humanize.Comma(int64(progress.SkippedItems)),
			progress.RequeuedItems,
			progress.StartTime.Format("15:04:05"),
			progress.ETA.Format("15:04:05"),
			timeLeft,
			humanize.FormatFloat("#,###.##", progress.TransferSpeed),
			progress.TransferSpeedUnit,
		)
	} else {
		details = fmt.Sprintf(
			"Progress: %.2f%% (%s/%s)\n"+
				"Items: InProgress=%d, Success=%s, Skipped=%s, Requeued=%d\n"+
				"Time: Started=%s, Finished=%s\n\n",
			progress.ProgressPct,
			humanize.Comma(int64(progress.ProcessedItems)),
			humanize.Comma(int64(progress.TotalItems)),
			progress.InProgressItems,
			humanize.Comma(int64(progress.SuccessItems)),
			humanize.Comma(int64(progress.SkippedItems)),
			progress.RequeuedItems,
			progress.StartTime.Format("15:04:05"),
			progress.FinishTime.Format("15:04:05"),
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.splitWidthWithBorders).Render(title),
		"",
		progressBar,
		"",
		infoStyle.Width(m.splitWidthWithBorders).Render(details),
	)
}
