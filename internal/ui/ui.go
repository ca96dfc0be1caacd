package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nixflix/internal/tasks"
)

// maxHistory is the number of recent outcomes kept on screen.
const maxHistory = 5

// Trigger requests an out-of-schedule sync attempt. [tasks.Poller] implements it.
type Trigger interface {
	Trigger(force bool)
}

// Options configures the watch [Model].
type Options struct {
	Playlist string
	Album    string
	Interval time.Duration
	Trigger  Trigger
	Progress <-chan tasks.ProgressUpdate // fed by the poller, may be nil
	Results  <-chan *tasks.SyncResult    // fed by the poller's result callback, may be nil
	Now      func() time.Time
}

// Model represents the watch TUI state.
type Model struct {
	ctx      context.Context
	opts     Options
	now      time.Time
	nextAt   time.Time
	syncing  bool
	pending  string
	progress tasks.ProgressUpdate
	history  []*tasks.SyncResult
	spinner  spinner.Model
	bar      progress.Model
	help     help.Model
	keys     keyMap
	quitting bool
}

// NewModel creates a new watch model. The poller is expected to attempt a sync as soon as it starts.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &Model{
		ctx:     ctx,
		opts:    opts,
		now:     opts.Now(),
		syncing: true,
		spinner: sp,
		bar:     bar,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner, the countdown clock and both feed listeners.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick(), m.waitForProgress(), m.waitForResult())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		if w := msg.Width - 20; w > 20 {
			m.bar.Width = min(w, 80)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.sync):
		m.request(false)
	case key.Matches(msg, m.keys.force):
		m.request(true)
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) request(force bool) {
	if m.opts.Trigger == nil {
		return
	}
	m.opts.Trigger.Trigger(force)
	m.syncing = true
	if force {
		m.pending = "forced sync requested"
	} else {
		m.pending = "sync requested"
	}
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		m.pending = ""
		m.syncing = update.Phase != tasks.Finished
		return m, m.waitForProgress()

	case MsgSyncComplete:
		result := msg.data.(*tasks.SyncResult)
		m.history = append([]*tasks.SyncResult{result}, m.history...)
		if len(m.history) > maxHistory {
			m.history = m.history[:maxHistory]
		}
		m.syncing = false
		m.pending = ""

		completed := result.CompletedAt
		if completed.IsZero() {
			completed = m.opts.Now()
		}
		if m.opts.Interval > 0 {
			m.nextAt = completed.Add(m.opts.Interval)
		}
		return m, m.waitForResult()

	case MsgTick:
		m.now = msg.data.(time.Time)
		return m, m.tick()
	}

	return m, nil
}

// View renders the header, the current activity, recent outcomes and help.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("nixflix watch: %s <- %s", m.opts.Playlist, m.opts.Album)))
	b.WriteString("\n")
	b.WriteString(m.renderActivity())
	b.WriteString("\n\n")
	b.WriteString(m.renderHistory())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m *Model) renderActivity() string {
	if m.syncing {
		line := fmt.Sprintf("%s %s", m.spinner.View(), phaseLabel(m.progress))
		if m.pending != "" {
			line = fmt.Sprintf("%s %s", m.spinner.View(), m.pending)
		} else if m.progress.Message != "" {
			line += "\n  " + styles.help.Render(m.progress.Message)
		}
		if m.progress.Total > 0 && (m.progress.Phase == tasks.ClearItems || m.progress.Phase == tasks.InsertItems) {
			line += "\n  " + m.bar.ViewAs(float64(m.progress.Step)/float64(m.progress.Total))
		}
		return line
	}

	if m.opts.Interval <= 0 || m.nextAt.IsZero() {
		return "idle"
	}
	return "next sync in " + countdown(m.nextAt.Sub(m.now))
}

func (m *Model) renderHistory() string {
	if len(m.history) == 0 {
		return styles.help.Render("no attempts yet") + "\n"
	}

	var b strings.Builder
	for _, result := range m.history {
		line := fmt.Sprintf("%s  %s", result.CompletedAt.Local().Format("15:04:05"), result.Summary())
		if result.Forced {
			line += " (forced)"
		}
		b.WriteString(OutcomeLine(result.Outcome, line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg(m.opts.Now())
	})
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.opts.Progress == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update, ok := <-m.opts.Progress:
			if !ok {
				return closedMsg()
			}
			return progressUpdateMsg(update)
		case <-m.ctx.Done():
			return closedMsg()
		}
	}
}

func (m *Model) waitForResult() tea.Cmd {
	if m.opts.Results == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case result, ok := <-m.opts.Results:
			if !ok {
				return closedMsg()
			}
			return syncCompleteMsg(result)
		case <-m.ctx.Done():
			return closedMsg()
		}
	}
}

func phaseLabel(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.FetchDest:
		return "Reading playlist..."
	case tasks.FetchSource:
		return "Reading album..."
	case tasks.Compare:
		return "Comparing timestamps..."
	case tasks.ClearItems:
		return fmt.Sprintf("Clearing playlist (%d/%d)", u.Step, u.Total)
	case tasks.InsertItems:
		return fmt.Sprintf("Posting photos (page %d/%d)", u.Step, u.Total)
	case tasks.RemovePlaceholder:
		return "Removing placeholder..."
	case tasks.Finished:
		return "Done"
	default:
		return "Starting..."
	}
}

// countdown renders d rounded to the second, or "now" once it has elapsed.
func countdown(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	return d.Round(time.Second).String()
}

// Summary styles a finished attempt for plain CLI output.
func Summary(result *tasks.SyncResult) string {
	if result == nil {
		return Error("no result")
	}
	return OutcomeLine(result.Outcome, fmt.Sprintf("%s <- %s: %s", playlistName(result), albumName(result), result.Summary()))
}

func playlistName(r *tasks.SyncResult) string {
	if r.Playlist == nil {
		return "?"
	}
	return r.Playlist.Name
}

func albumName(r *tasks.SyncResult) string {
	if r.Album == nil {
		return "?"
	}
	return r.Album.Title
}
