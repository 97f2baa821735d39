package leverage

import "testing"

func TestAvailable(t *testing.T) {
	tests := []struct {
		name  string
		facts BankrollFacts
		want  float64
	}{
		{
			"fresh account",
			BankrollFacts{InitialBankroll: 1000},
			1000,
		},
		{
			"active stakes lock capital",
			BankrollFacts{InitialBankroll: 1000, ActiveStake: 300},
			700,
		},
		{
			"realized profit frees capital",
			BankrollFacts{InitialBankroll: 1000, ActiveStake: 300, RealizedProfit: 50},
			750,
		},
		{
			"losses reduce availability",
			BankrollFacts{InitialBankroll: 1000, RealizedProfit: -200},
			800,
		},
		{
			"over-committed bankroll goes negative",
			BankrollFacts{InitialBankroll: 100, ActiveStake: 150},
			-50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Available(tt.facts); !almostEqual(got, tt.want) {
				t.Errorf("Available() = %v, want %v", got, tt.want)
			}
		})
	}
}
