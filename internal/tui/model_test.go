package tui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/lock"
	"github.com/julianstephens/abstain/internal/storage"
	"github.com/julianstephens/abstain/internal/streak"
)

var baseTime = time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)

func setupTestModel(t *testing.T, quitDaysAgo int) (Model, *streak.Engine) {
	t.Helper()

	engine, err := streak.New(storage.NewMemoryStore())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	now := baseTime
	if quitDaysAgo >= 0 {
		if _, err := engine.Initialize(context.Background(), now.Add(-time.Duration(quitDaysAgo)*constants.Day)); err != nil {
			t.Fatalf("failed to initialize streak: %v", err)
		}
	}

	m := NewModel(engine, time.UTC, func() time.Time { return now })
	m = run(t, m, m.loadStatus())
	return m, engine
}

// run executes cmd and feeds its message back into the model
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

var cmdType = reflect.TypeOf(tea.Cmd(nil))

// pump runs cmd and everything it leads to through the model, the way the
// program loop would, until the recovery dialog closes. It returns the command
// issued as the dialog closed, or nil if the dialog stayed open. Commands that
// do not answer promptly, such as cursor blinks, are dropped.
func pump(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msgs := make(chan tea.Msg, 1)
		go func() { msgs <- next() }()
		var msg tea.Msg
		select {
		case msg = <-msgs:
		case <-time.After(100 * time.Millisecond):
			continue
		}
		if msg == nil {
			continue
		}

		// Batches and sequences are slices of commands
		if v := reflect.ValueOf(msg); v.Kind() == reflect.Slice && v.Type().Elem() == cmdType {
			for i := 0; i < v.Len(); i++ {
				queue = append(queue, v.Index(i).Interface().(tea.Cmd))
			}
			continue
		}

		wasOpen := m.state == stateRecovery
		updated, out := m.Update(msg)
		m = updated.(Model)
		if wasOpen && m.state != stateRecovery {
			return m, out
		}
		queue = append(queue, out)
	}
	return m, nil
}

func TestModel_Uninitialized(t *testing.T) {
	m, _ := setupTestModel(t, -1)

	if m.initialized {
		t.Error("expected model to report no streak")
	}
	if m.err != nil {
		t.Errorf("missing streak should not be an error, got %v", m.err)
	}
	if !strings.Contains(m.View(), "abstain init") {
		t.Errorf("view should point at init, got:\n%s", m.View())
	}

	// Check and recover are ignored without a streak
	if _, cmd := press(m, "c"); cmd != nil {
		t.Error("check should be a no-op without a streak")
	}
	if next, _ := press(m, "r"); next.state != stateDashboard {
		t.Error("recovery should not open without a streak")
	}
}

func TestModel_DashboardShowsStatus(t *testing.T) {
	m, _ := setupTestModel(t, 8)

	if !m.initialized {
		t.Fatal("expected model to be initialized")
	}
	if m.record.CurrentStreak != 8 {
		t.Errorf("expected current streak 8, got %d", m.record.CurrentStreak)
	}

	view := m.View()
	for _, want := range []string{"Current streak", "8 days", "Next milestone", "14 days", "6 days to go", "available"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_CheckMilestonesCelebrates(t *testing.T) {
	m, engine := setupTestModel(t, 8)

	m, cmd := press(m, "c")
	m = run(t, m, cmd)

	if len(m.celebration) != 3 {
		t.Fatalf("expected 3 new milestones, got %d", len(m.celebration))
	}
	view := m.View()
	for _, want := range []string{"Milestone reached: 1 day", "Milestone reached: 3 days", "Milestone reached: 7 days"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	ledger, err := engine.Ledger(context.Background())
	if err != nil {
		t.Fatalf("Ledger failed: %v", err)
	}
	if ledger.Len() != 3 {
		t.Errorf("expected 3 milestones in ledger, got %d", ledger.Len())
	}

	// A second check finds nothing new
	m, cmd = press(m, "c")
	m = run(t, m, cmd)
	if len(m.celebration) != 0 {
		t.Errorf("expected no new milestones, got %d", len(m.celebration))
	}
	if !strings.Contains(m.View(), "No new milestones yet") {
		t.Errorf("expected empty-check message:\n%s", m.View())
	}

	// Dismiss clears the message
	m, _ = press(m, "enter")
	if m.message != "" {
		t.Errorf("expected message cleared, got %q", m.message)
	}
}

func TestModel_RecoveryDialog(t *testing.T) {
	m, _ := setupTestModel(t, 8)

	m, _ = press(m, "r")
	if m.state != stateRecovery {
		t.Fatalf("expected recovery state, got %v", m.state)
	}
	if m.form == nil {
		t.Fatal("expected recovery form")
	}

	m, _ = press(m, "esc")
	if m.state != stateDashboard {
		t.Errorf("esc should close the dialog, got state %v", m.state)
	}
	if m.record.TotalRelapses != 0 {
		t.Error("cancelling the dialog must not change the record")
	}
}

func TestModel_RecoveryFormSubmitsOnce(t *testing.T) {
	m, engine := setupTestModel(t, 8)

	m, cmd := press(m, "r")
	m, _ = pump(t, m, cmd)
	if m.state != stateRecovery {
		t.Fatalf("expected recovery state, got %v", m.state)
	}

	m, cmd = press(m, "enter")
	m, submit := pump(t, m, cmd)
	if submit == nil {
		t.Fatal("expected the completed form to dispatch the recovery")
	}
	if m.state != stateDashboard || m.form != nil {
		t.Fatalf("completed form should close the dialog, state %v", m.state)
	}

	// Keys pressed while the recovery is saving must not dispatch it again
	for _, k := range []string{"enter", "r", "c"} {
		var again tea.Cmd
		m, again = press(m, k)
		if again != nil {
			m = run(t, m, again)
		}
	}
	if m.state != stateDashboard {
		t.Errorf("recovery reopened while saving, state %v", m.state)
	}

	m = run(t, m, submit)
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if m.record.TotalRelapses != 1 {
		t.Errorf("relapses = %d, want 1", m.record.TotalRelapses)
	}

	record, err := engine.GetStatus(context.Background(), baseTime)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if record.TotalRelapses != 1 {
		t.Errorf("stored relapses = %d, want 1", record.TotalRelapses)
	}

	// Once saved the dashboard accepts commands again
	if _, cmd := press(m, "c"); cmd == nil {
		t.Error("check should work after the recovery is saved")
	}
}

func TestModel_EngineCallsHoldLock(t *testing.T) {
	m, engine := setupTestModel(t, 8)

	var held, acquired int
	m = m.WithLock(func() (func(), error) {
		held++
		acquired++
		return func() { held-- }, nil
	})

	m = run(t, m, m.loadStatus())
	m = run(t, m, m.checkMilestones())
	m = run(t, m, m.recover(constants.RecoveryHardRestart))

	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if acquired != 3 {
		t.Errorf("lock acquired %d times, want 3", acquired)
	}
	if held != 0 {
		t.Errorf("lock still held %d times after the calls returned", held)
	}

	m = run(t, m, m.loadStatus())
	if acquired != 4 || held != 0 {
		t.Errorf("acquired = %d, held = %d after reload", acquired, held)
	}

	record, err := engine.GetStatus(context.Background(), baseTime)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if record.TotalRelapses != 1 {
		t.Errorf("relapses = %d, want 1", record.TotalRelapses)
	}
}

func TestModel_LockedStoreIsNotWritten(t *testing.T) {
	m, engine := setupTestModel(t, 8)

	m = m.WithLock(func() (func(), error) {
		return nil, lock.ErrLocked
	})

	m = run(t, m, m.recover(constants.RecoveryHardRestart))
	if !errors.Is(m.err, lock.ErrLocked) {
		t.Fatalf("err = %v, want lock.ErrLocked", m.err)
	}
	if m.record.TotalRelapses != 0 {
		t.Errorf("model relapses = %d, want 0", m.record.TotalRelapses)
	}

	m = run(t, m, m.checkMilestones())
	if !errors.Is(m.err, lock.ErrLocked) {
		t.Errorf("err = %v, want lock.ErrLocked", m.err)
	}

	ledger, err := engine.Ledger(context.Background())
	if err != nil {
		t.Fatalf("Ledger failed: %v", err)
	}
	if ledger.Len() != 0 {
		t.Errorf("ledger has %d milestones, want 0", ledger.Len())
	}
	record, err := engine.GetStatus(context.Background(), baseTime)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if record.TotalRelapses != 0 {
		t.Errorf("stored relapses = %d, want 0", record.TotalRelapses)
	}
}

func TestModel_RecoverActions(t *testing.T) {
	tests := []struct {
		name         string
		action       constants.RecoveryAction
		wantCurrent  int
		wantRelapses int
		wantGrace    bool
		wantMessage  string
	}{
		{
			name:         "hard restart",
			action:       constants.RecoveryHardRestart,
			wantCurrent:  0,
			wantRelapses: 1,
			wantGrace:    false,
			wantMessage:  "Streak restarted",
		},
		{
			name:         "grace period",
			action:       constants.RecoveryGracePeriod,
			wantCurrent:  8,
			wantRelapses: 0,
			wantGrace:    true,
			wantMessage:  "Grace period used",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := setupTestModel(t, 8)

			m = run(t, m, m.recover(tt.action))

			if m.err != nil {
				t.Fatalf("unexpected error: %v", m.err)
			}
			if m.record.CurrentStreak != tt.wantCurrent {
				t.Errorf("current streak = %d, want %d", m.record.CurrentStreak, tt.wantCurrent)
			}
			if m.record.TotalRelapses != tt.wantRelapses {
				t.Errorf("relapses = %d, want %d", m.record.TotalRelapses, tt.wantRelapses)
			}
			if m.record.GracePeriodUsed != tt.wantGrace {
				t.Errorf("grace used = %v, want %v", m.record.GracePeriodUsed, tt.wantGrace)
			}
			if m.record.LongestStreak != 8 {
				t.Errorf("longest streak = %d, want 8", m.record.LongestStreak)
			}
			if !strings.Contains(m.message, tt.wantMessage) {
				t.Errorf("message = %q, want it to contain %q", m.message, tt.wantMessage)
			}
		})
	}
}

func TestModel_GracePeriodTwiceShowsError(t *testing.T) {
	m, _ := setupTestModel(t, 8)

	m = run(t, m, m.recover(constants.RecoveryGracePeriod))
	m = run(t, m, m.recover(constants.RecoveryGracePeriod))

	if m.err == nil {
		t.Fatal("expected an error on second grace period")
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Errorf("view should show the error:\n%s", m.View())
	}
	if !strings.Contains(m.View(), "used") {
		t.Errorf("view should show grace as used:\n%s", m.View())
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := setupTestModel(t, 1)

	m, cmd := press(m, "q")
	if !m.quitting {
		t.Error("expected model to be quitting")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Error("view should be empty after quit")
	}
}

func TestModel_AllMilestonesReached(t *testing.T) {
	m, _ := setupTestModel(t, 400)

	if !strings.Contains(m.View(), "Every milestone reached") {
		t.Errorf("expected completion message:\n%s", m.View())
	}
}
