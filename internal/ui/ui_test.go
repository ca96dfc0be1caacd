package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/tasks"
)

type fakeTrigger struct {
	calls []bool
}

func (f *fakeTrigger) Trigger(force bool) { f.calls = append(f.calls, force) }

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, trigger Trigger) (*Model, *time.Time) {
	t.Helper()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	m := NewModel(context.Background(), Options{
		Playlist: "My Playlist",
		Album:    "Favs",
		Interval: 5 * time.Minute,
		Trigger:  trigger,
		Now:      func() time.Time { return now },
	})
	return m, &now
}

func syncedResult(at time.Time) *tasks.SyncResult {
	return &tasks.SyncResult{
		Playlist:    &models.Playlist{Name: "My Playlist"},
		Album:       &models.Album{Title: "Favs"},
		Outcome:     models.OutcomeSynced,
		Replace:     &tasks.ReplaceResult{Inserted: 65, InsertCalls: 3},
		CompletedAt: at,
	}
}

func TestModelKeys(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		calls []bool
	}{
		{"sync now", "s", []bool{false}},
		{"force sync", "f", []bool{true}},
		{"unbound key", "x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := &fakeTrigger{}
			m, _ := newTestModel(t, trigger)
			m.syncing = false

			m.Update(runeKey(tt.key))

			if len(trigger.calls) != len(tt.calls) {
				t.Fatalf("expected %d trigger calls, got %v", len(tt.calls), trigger.calls)
			}
			for i := range tt.calls {
				if trigger.calls[i] != tt.calls[i] {
					t.Errorf("call %d: expected force=%t", i, tt.calls[i])
				}
			}
			if len(tt.calls) > 0 && !m.syncing {
				t.Error("expected model to show a pending sync")
			}
		})
	}

	t.Run("quit", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		_, cmd := m.Update(runeKey("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if m.View() != "" {
			t.Error("expected empty view after quitting")
		}
	})

	t.Run("ctrl+c quits", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd == nil {
			t.Fatal("expected quit command")
		}
	})

	t.Run("help toggle", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		m.Update(runeKey("?"))
		if !m.help.ShowAll {
			t.Error("expected full help")
		}
	})

	t.Run("sync without trigger", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		m.syncing = false
		m.Update(runeKey("s"))
		if m.syncing {
			t.Error("sync key should do nothing without a trigger")
		}
	})
}

func TestModelProgress(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.InsertItems, Step: 2, Total: 3, Message: "[2/3] Posted 30 photos (200 OK)"}))
	view := m.View()

	if !strings.Contains(view, "Posting photos (page 2/3)") {
		t.Errorf("view missing phase label:\n%s", view)
	}
	if !strings.Contains(view, "[2/3] Posted 30 photos") {
		t.Errorf("view missing progress message:\n%s", view)
	}
	if !strings.Contains(view, "My Playlist <- Favs") {
		t.Errorf("view missing title:\n%s", view)
	}

	m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.Finished, Step: 1, Total: 1}))
	if m.syncing {
		t.Error("expected syncing to end on the finished phase")
	}
}

func TestModelResults(t *testing.T) {
	m, now := newTestModel(t, nil)

	m.Update(syncCompleteMsg(syncedResult(*now)))
	m.Update(tickMsg(now.Add(90 * time.Second)))

	view := m.View()
	if !strings.Contains(view, "next sync in 3m30s") {
		t.Errorf("view missing countdown:\n%s", view)
	}
	if !strings.Contains(view, "synced 65 photos in 3 calls") {
		t.Errorf("view missing outcome:\n%s", view)
	}

	t.Run("history is capped and newest first", func(t *testing.T) {
		for i := 0; i < maxHistory+2; i++ {
			m.Update(syncCompleteMsg(&tasks.SyncResult{
				Outcome:     models.OutcomeFailed,
				Reason:      errors.New("boom"),
				CompletedAt: now.Add(time.Duration(i) * time.Minute),
			}))
		}
		if len(m.history) != maxHistory {
			t.Fatalf("expected %d entries, got %d", maxHistory, len(m.history))
		}
		if !m.history[0].CompletedAt.After(m.history[1].CompletedAt) {
			t.Error("expected newest entry first")
		}
	})

	t.Run("countdown elapsed", func(t *testing.T) {
		m.Update(tickMsg(now.Add(time.Hour)))
		if !strings.Contains(m.View(), "next sync in now") {
			t.Errorf("expected elapsed countdown:\n%s", m.View())
		}
	})
}

func TestModelFeeds(t *testing.T) {
	progress := make(chan tasks.ProgressUpdate, 1)
	results := make(chan *tasks.SyncResult, 1)

	m := NewModel(context.Background(), Options{Progress: progress, Results: results})

	progress <- tasks.ProgressUpdate{Phase: tasks.Compare}
	msg, ok := m.waitForProgress()().(Msg)
	if !ok || msg.kind != MsgProgressUpdate {
		t.Fatalf("expected progress message, got %#v", msg)
	}

	results <- syncedResult(time.Now())
	msg, ok = m.waitForResult()().(Msg)
	if !ok || msg.kind != MsgSyncComplete {
		t.Fatalf("expected sync complete message, got %#v", msg)
	}

	close(progress)
	if msg := m.waitForProgress()().(Msg); msg.kind != MsgClosed {
		t.Errorf("expected closed message, got %v", msg.kind)
	}

	t.Run("nil feeds", func(t *testing.T) {
		m := NewModel(context.Background(), Options{})
		if m.waitForProgress() != nil || m.waitForResult() != nil {
			t.Error("expected no listeners without feeds")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m := NewModel(ctx, Options{Results: make(chan *tasks.SyncResult)})
		if msg := m.waitForResult()().(Msg); msg.kind != MsgClosed {
			t.Errorf("expected closed message, got %v", msg.kind)
		}
	})
}

func TestPhaseLabel(t *testing.T) {
	tests := []struct {
		update tasks.ProgressUpdate
		want   string
	}{
		{tasks.ProgressUpdate{Phase: tasks.FetchDest}, "Reading playlist..."},
		{tasks.ProgressUpdate{Phase: tasks.FetchSource}, "Reading album..."},
		{tasks.ProgressUpdate{Phase: tasks.Compare}, "Comparing timestamps..."},
		{tasks.ProgressUpdate{Phase: tasks.ClearItems, Step: 30, Total: 69}, "Clearing playlist (30/69)"},
		{tasks.ProgressUpdate{Phase: tasks.RemovePlaceholder}, "Removing placeholder..."},
		{tasks.ProgressUpdate{Phase: tasks.Finished}, "Done"},
	}

	for _, tt := range tests {
		t.Run(tt.update.Phase.String(), func(t *testing.T) {
			if got := phaseLabel(tt.update); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	if got := Summary(syncedResult(time.Now())); !strings.Contains(got, "My Playlist <- Favs: synced 65 photos in 3 calls") {
		t.Errorf("unexpected summary %q", got)
	}
	if got := Summary(&tasks.SyncResult{Outcome: models.OutcomeUpToDate}); !strings.Contains(got, "? <- ?: nothing to do") {
		t.Errorf("unexpected summary %q", got)
	}
}
