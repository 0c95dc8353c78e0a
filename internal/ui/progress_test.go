package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kiranshivaraju/autodesign/internal/tracker"
	"github.com/kiranshivaraju/autodesign/pkg/models"
)

func TestModel_UpdateMsgStoresLastAndWaitsAgain(t *testing.T) {
	ch := make(chan tracker.Update, 1)
	m := NewModel(ch, tracker.Update{State: models.JobStatePolling, RequestID: "abc"})

	next, cmd := m.Update(updateMsg{State: models.JobStatePolling, RequestID: "abc", CodeMajor: "processing", Polls: 1, Polled: true})
	got := next.(Model)

	if got.Last().Polls != 1 || got.Last().CodeMajor != "processing" {
		t.Fatalf("unexpected last update: %+v", got.Last())
	}
	if cmd == nil {
		t.Fatal("expected a command waiting for the next update")
	}

	ch <- tracker.Update{State: models.JobStateSucceeded, Polls: 2}
	msg := cmd()
	if u, ok := msg.(updateMsg); !ok || u.State != models.JobStateSucceeded {
		t.Fatalf("expected success update, got %#v", msg)
	}
}

func TestModel_ChannelClosedQuits(t *testing.T) {
	ch := make(chan tracker.Update)
	close(ch)

	m := NewModel(ch, tracker.Update{})
	msg := waitForUpdate(ch)()
	if _, ok := msg.(watchDoneMsg); !ok {
		t.Fatalf("expected watchDoneMsg, got %#v", msg)
	}

	next, cmd := m.Update(msg)
	if !next.(Model).done {
		t.Error("expected model to be done")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_KeyQuit(t *testing.T) {
	m := NewModel(make(chan tracker.Update), tracker.Update{State: models.JobStatePolling})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	got := next.(Model)
	if !got.Quit() {
		t.Error("expected Quit to report early exit")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !strings.Contains(got.View(), "Stopped watching") {
		t.Errorf("unexpected view: %s", got.View())
	}
}

func TestModel_OtherKeysIgnored(t *testing.T) {
	m := NewModel(make(chan tracker.Update), tracker.Update{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if next.(Model).Quit() || cmd != nil {
		t.Error("expected key to be ignored")
	}
}

func TestModel_View(t *testing.T) {
	tests := []struct {
		name   string
		update tracker.Update
		want   []string
	}{
		{
			name:   "polling",
			update: tracker.Update{State: models.JobStatePolling, RequestID: "abc123", CodeMajor: "processing", Polls: 3},
			want:   []string{"Generating design", "processing", "abc123", "3 status checks"},
		},
		{
			name:   "succeeded",
			update: tracker.Update{State: models.JobStateSucceeded, CodeMajor: "success"},
			want:   []string{"Design generated", "success"},
		},
		{
			name:   "failed with error",
			update: tracker.Update{State: models.JobStateFailed, Err: errors.New("api unreachable")},
			want:   []string{"Design failed", "failed", "api unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewModel(nil, tt.update).View()
			for _, w := range tt.want {
				if !strings.Contains(view, w) {
					t.Errorf("view missing %q:\n%s", w, view)
				}
			}
		})
	}
}

func TestPlain(t *testing.T) {
	ch := make(chan tracker.Update, 4)
	ch <- tracker.Update{State: models.JobStatePolling, RequestID: "r1", CodeMajor: "processing", Polls: 1, Polled: true}
	ch <- tracker.Update{State: models.JobStatePolling, RequestID: "r1", CodeMajor: "processing", Polls: 1}
	ch <- tracker.Update{State: models.JobStateSucceeded, RequestID: "r1", CodeMajor: "success", Polls: 2, Polled: true}
	close(ch)

	var out bytes.Buffer
	last := Plain(&out, ch, tracker.Update{})

	if last.State != models.JobStateSucceeded {
		t.Errorf("expected succeeded, got %s", last.State)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out.String())
	}
	if lines[1] != "status=success polls=2 request_id=r1" {
		t.Errorf("unexpected line: %s", lines[1])
	}
}
