// Package mute holds the hysteresis state machine that turns confidence
// scores into mute/unmute actions.
//
// The machine is deliberately timer-free: debounce dwell lives in the
// window builder, so stepping the machine is a pure function and every
// edge case is testable without clocks.
package mute

import (
	"fmt"

	"github.com/hushtab/hushcore/scoring"
)

// State is the player's mute state
type State string

const (
	Unmuted State = "unmuted"
	Muted   State = "muted"
)

// Transition records one state change for audit and evaluation
type Transition struct {
	Timestamp     int64    `json:"timestamp"`
	From          State    `json:"from"`
	To            State    `json:"to"`
	Score         float64  `json:"score"`
	ActiveSignals []string `json:"activeSignals,omitempty"`
}

func (tr Transition) String() string {
	return fmt.Sprintf("%s -> %s at t=%d (score %g, signals %v)",
		tr.From, tr.To, tr.Timestamp, tr.Score, tr.ActiveSignals)
}

// Decision is the single per-player mute record
type Decision struct {
	State          State   `json:"state"`
	Since          int64   `json:"since"`
	LastConfidence float64 `json:"lastConfidence"`
}

// Machine drives the mute decision from a stream of confidence results.
// Exactly one Machine exists per player. Not safe for concurrent use; the
// engine serializes all scoring.
type Machine struct {
	decision    Decision
	transitions []Transition
}

// NewMachine creates a machine in the initial UNMUTED state
func NewMachine() *Machine {
	return &Machine{
		decision: Decision{State: Unmuted},
	}
}

// Step feeds one confidence result to the machine and returns the
// transition it caused, or nil when the state held.
//
// UNMUTED moves to MUTED at score >= muteThreshold; MUTED moves back at
// score < unmuteThreshold. Scores between the two thresholds hold the
// current state, which is the whole point of the hysteresis gap.
func (m *Machine) Step(ts int64, res scoring.Result, cfg *scoring.Config) *Transition {
	m.decision.LastConfidence = res.Score

	var next State
	switch m.decision.State {
	case Unmuted:
		if res.Score >= cfg.MuteThreshold {
			next = Muted
		}
	case Muted:
		if res.Score < cfg.UnmuteThreshold {
			next = Unmuted
		}
	}

	if next == "" {
		return nil
	}

	tr := Transition{
		Timestamp:     ts,
		From:          m.decision.State,
		To:            next,
		Score:         res.Score,
		ActiveSignals: res.Active,
	}

	m.decision.State = next
	m.decision.Since = ts
	m.transitions = append(m.transitions, tr)

	return &tr
}

// Decision returns the current mute decision
func (m *Machine) Decision() Decision {
	return m.decision
}

// Transitions returns the audit log of every state change so far
func (m *Machine) Transitions() []Transition {
	out := make([]Transition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// Reset returns the machine to its initial state, dropping the audit log
func (m *Machine) Reset() {
	m.decision = Decision{State: Unmuted}
	m.transitions = nil
}
