package leverage

// BankrollFacts are the three numbers needed to derive a user's available
// bankroll. They are fetched fresh from the store on every read; the
// derived value is never persisted, so it cannot drift.
type BankrollFacts struct {
	InitialBankroll float64 `json:"initial_bankroll"`
	ActiveStake     float64 `json:"active_stake"`
	RealizedProfit  float64 `json:"realized_profit"`
}

// Available returns the bankroll a user can still commit: the declared
// initial bankroll, minus capital locked in active progressions, plus
// profit already realized from completed ones. A negative result is
// valid (over-committed bankroll) and is surfaced to the caller rather
// than treated as an error.
func Available(f BankrollFacts) float64 {
	return f.InitialBankroll - f.ActiveStake + f.RealizedProfit
}
