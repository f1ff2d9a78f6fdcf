package mute_test

import (
	"testing"

	"github.com/hushtab/hushcore/mute"
	"github.com/hushtab/hushcore/scoring"
)

func testConfig() *scoring.Config {
	cfg := scoring.DefaultConfig()
	cfg.MuteThreshold = 50
	cfg.UnmuteThreshold = 30
	return cfg
}

func result(score float64, active ...string) scoring.Result {
	return scoring.Result{Score: score, Active: active}
}

// ====================================================================================
// TRANSITIONS
// ====================================================================================

func TestMachineTransitions(t *testing.T) {
	cfg := testConfig()

	t.Run("InitialStateUnmuted", func(t *testing.T) {
		m := mute.NewMachine()
		if m.Decision().State != mute.Unmuted {
			t.Errorf("initial state = %s, want unmuted", m.Decision().State)
		}
	})

	t.Run("MuteAtThreshold", func(t *testing.T) {
		m := mute.NewMachine()

		tr := m.Step(1000, result(50, scoring.SignalNetworkAd, scoring.SignalControlsHidden), cfg)
		if tr == nil {
			t.Fatal("score at threshold must mute")
		}
		if tr.From != mute.Unmuted || tr.To != mute.Muted {
			t.Errorf("transition %s, want unmuted -> muted", tr)
		}
		if m.Decision().State != mute.Muted {
			t.Error("decision not updated")
		}
		if m.Decision().Since != 1000 {
			t.Errorf("Since = %d, want 1000", m.Decision().Since)
		}
	})

	t.Run("UnmuteBelowLowerThreshold", func(t *testing.T) {
		m := mute.NewMachine()
		m.Step(1000, result(80), cfg)

		tr := m.Step(2000, result(29), cfg)
		if tr == nil {
			t.Fatal("score below unmute threshold must unmute")
		}
		if tr.To != mute.Unmuted {
			t.Errorf("transition to %s, want unmuted", tr.To)
		}
	})

	t.Run("HysteresisHoldsBetweenThresholds", func(t *testing.T) {
		m := mute.NewMachine()

		// 40 is between the thresholds: no transition while unmuted
		if tr := m.Step(1000, result(40), cfg); tr != nil {
			t.Errorf("unexpected transition while unmuted: %s", tr)
		}

		m.Step(2000, result(80), cfg)

		// ...and no transition while muted either
		if tr := m.Step(3000, result(40), cfg); tr != nil {
			t.Errorf("unexpected transition while muted: %s", tr)
		}
		if m.Decision().State != mute.Muted {
			t.Error("state must hold between thresholds")
		}
	})

	t.Run("IdempotentInTargetState", func(t *testing.T) {
		m := mute.NewMachine()
		m.Step(1000, result(80), cfg)

		if tr := m.Step(2000, result(90), cfg); tr != nil {
			t.Errorf("repeated high score produced transition: %s", tr)
		}

		// LastConfidence still tracks even without a transition
		if m.Decision().LastConfidence != 90 {
			t.Errorf("LastConfidence = %g, want 90", m.Decision().LastConfidence)
		}
	})
}

// ====================================================================================
// STRICT ALTERNATION INVARIANT
// ====================================================================================

func TestTransitionsAlternate(t *testing.T) {
	cfg := testConfig()
	m := mute.NewMachine()

	scores := []float64{0, 60, 70, 20, 10, 55, 80, 5, 90, 90, 0}
	for i, s := range scores {
		m.Step(int64(i+1)*1000, result(s), cfg)
	}

	trs := m.Transitions()
	if len(trs) == 0 {
		t.Fatal("expected transitions")
	}

	for i, tr := range trs {
		if tr.From == tr.To {
			t.Errorf("transition %d is not a state change: %s", i, tr)
		}
		if i > 0 && trs[i-1].To != tr.From {
			t.Errorf("transition %d does not alternate: %s after %s", i, tr, trs[i-1])
		}
	}
}

// ====================================================================================
// EQUAL THRESHOLDS (DEGRADED HYSTERESIS)
// ====================================================================================

func TestEqualThresholds(t *testing.T) {
	cfg := testConfig()
	cfg.MuteThreshold = 50
	cfg.UnmuteThreshold = 50

	m := mute.NewMachine()

	if tr := m.Step(1000, result(50), cfg); tr == nil || tr.To != mute.Muted {
		t.Fatal("score at the shared threshold must mute")
	}
	if tr := m.Step(2000, result(49.9), cfg); tr == nil || tr.To != mute.Unmuted {
		t.Fatal("score below the shared threshold must unmute")
	}
}

// ====================================================================================
// AUDIT RECORDS
// ====================================================================================

func TestTransitionAudit(t *testing.T) {
	cfg := testConfig()
	m := mute.NewMachine()

	m.Step(5000, result(80, scoring.SignalNetworkAd, scoring.SignalControlsHidden), cfg)

	trs := m.Transitions()
	if len(trs) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(trs))
	}

	tr := trs[0]
	if tr.Timestamp != 5000 {
		t.Errorf("Timestamp = %d, want 5000", tr.Timestamp)
	}
	if tr.Score != 80 {
		t.Errorf("Score = %g, want 80", tr.Score)
	}
	if len(tr.ActiveSignals) != 2 {
		t.Errorf("ActiveSignals = %v, want two entries", tr.ActiveSignals)
	}
}

func TestReset(t *testing.T) {
	cfg := testConfig()
	m := mute.NewMachine()
	m.Step(1000, result(80), cfg)

	m.Reset()

	if m.Decision().State != mute.Unmuted {
		t.Error("reset must return to unmuted")
	}
	if len(m.Transitions()) != 0 {
		t.Error("reset must drop the audit log")
	}
}
