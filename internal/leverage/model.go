// Package leverage implements the compounding-stake progressions at the
// heart of the dashboard: a fixed stake grows by a per-step multiplier
// until the bet ceiling is reached or the owner closes it out.
package leverage

import (
	"math"
	"time"
)

// Status of a progression. A progression is created active and becomes
// completed exactly once; there is no transition out of completed.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Leverage is one tracked progression. InitialValue compounds by Odd once
// per day, so the value at day d is InitialValue * Odd^(d-1).
//
// FinalValue and Profit are snapshots taken when the progression is
// closed, computed from CurrentDay at that moment. They are distinct from
// TargetValue/TargetProfit, which project the theoretical full run to
// MaxBets and are valid at any time.
type Leverage struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	Name         string     `json:"name" db:"name"`
	InitialValue float64    `json:"initial_value" db:"initial_value"`
	Odd          float64    `json:"odd" db:"odd"`
	MaxBets      int        `json:"max_bets" db:"max_bets"`
	CurrentDay   int        `json:"current_day" db:"current_day"`
	Status       Status     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	FinalValue   *float64   `json:"final_value,omitempty" db:"final_value"`
	Profit       *float64   `json:"profit,omitempty" db:"profit"`
}

// valueAt returns the compounded value at the given day. Non-positive
// stakes, odds, or days clamp to 0 rather than erroring; malformed rows
// are rejected at the store boundary, this is only a guard for callers
// constructing values by hand.
func valueAt(initial, odd float64, day int) float64 {
	if initial <= 0 || odd <= 0 || day < 1 {
		return 0
	}
	return initial * math.Pow(odd, float64(day-1))
}

// CurrentValue returns the compounded value at CurrentDay.
func (l *Leverage) CurrentValue() float64 {
	return valueAt(l.InitialValue, l.Odd, l.CurrentDay)
}

// NextValue returns the value one day ahead, clamped to CurrentValue when
// the progression is already at its last day.
func (l *Leverage) NextValue() float64 {
	if l.CurrentDay >= l.MaxBets {
		return l.CurrentValue()
	}
	return valueAt(l.InitialValue, l.Odd, l.CurrentDay+1)
}

// TargetValue returns the theoretical value at MaxBets, independent of
// current progress.
func (l *Leverage) TargetValue() float64 {
	return valueAt(l.InitialValue, l.Odd, l.MaxBets)
}

// TargetProfit returns the theoretical profit of a full run to MaxBets.
// Realized profit is only known at close time and lives in Profit.
func (l *Leverage) TargetProfit() float64 {
	return l.TargetValue() - l.InitialValue
}

// ProgressPercent returns how far along the progression is, 0-100.
func (l *Leverage) ProgressPercent() float64 {
	if l.MaxBets <= 0 {
		return 0
	}
	return 100 * float64(l.CurrentDay) / float64(l.MaxBets)
}

// Advance moves the progression one day forward. It reports whether the
// day changed; at MaxBets it is a no-op.
func (l *Leverage) Advance() bool {
	if l.CurrentDay >= l.MaxBets {
		return false
	}
	l.CurrentDay++
	return true
}

// Retreat moves the progression one day back. It reports whether the day
// changed; at day 1 it is a no-op.
func (l *Leverage) Retreat() bool {
	if l.CurrentDay <= 1 {
		return false
	}
	l.CurrentDay--
	return true
}

// CloseSnapshot computes the values persisted when the progression is
// closed out: the compounded value and realized profit at CurrentDay.
func (l *Leverage) CloseSnapshot() (finalValue, profit float64) {
	finalValue = l.CurrentValue()
	return finalValue, finalValue - l.InitialValue
}
