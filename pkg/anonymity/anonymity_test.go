package anonymity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/coinjoind/pkg/anonymity"
)

func intPtr(i int) *int { return &i }

func TestBreakdownBalance(t *testing.T) {
	utxos := []anonymity.Utxo{
		{Address: "A", Amount: "100"},
		{Address: "B", Amount: "50"},
	}
	set := map[string]int{"A": 1, "B": 5}

	tests := []struct {
		name                      string
		target                    *int
		set                       map[string]int
		utxos                     []anonymity.Utxo
		notAnonymized, anonymized string
	}{
		{
			name:          "mixed",
			target:        intPtr(3),
			set:           set,
			utxos:         utxos,
			notAnonymized: "100",
			anonymized:    "50",
		},
		{
			name:          "all_anonymized",
			target:        intPtr(1),
			set:           set,
			utxos:         utxos,
			notAnonymized: "0",
			anonymized:    "150",
		},
		{
			name:          "unknown_address",
			target:        intPtr(1),
			set:           map[string]int{},
			utxos:         utxos,
			notAnonymized: "150",
			anonymized:    "0",
		},
		{
			name:          "missing_target",
			set:           set,
			utxos:         utxos,
			notAnonymized: "0",
			anonymized:    "0",
		},
		{
			name:          "missing_set",
			target:        intPtr(3),
			utxos:         utxos,
			notAnonymized: "0",
			anonymized:    "0",
		},
		{
			name:          "missing_utxos",
			target:        intPtr(3),
			set:           set,
			notAnonymized: "0",
			anonymized:    "0",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res := anonymity.BreakdownBalance(tt.target, tt.set, tt.utxos)
			require.Equal(t, tt.notAnonymized, res.NotAnonymized)
			require.Equal(t, tt.anonymized, res.Anonymized)
		})
	}
}

func TestBreakdownBalanceSumsToTotal(t *testing.T) {
	utxos := []anonymity.Utxo{
		{Address: "a", Amount: "0.1"},
		{Address: "b", Amount: "0.2"},
		{Address: "c", Amount: "123456789012345678901234567890"},
		{Address: "d", Amount: "7"},
	}
	set := map[string]int{"a": 2, "b": 10, "c": 4, "d": 1}
	total := decimal.RequireFromString("123456789012345678901234567897.3")

	for target := 0; target <= 12; target++ {
		res := anonymity.BreakdownBalance(intPtr(target), set, utxos)
		sum := decimal.RequireFromString(res.NotAnonymized).
			Add(decimal.RequireFromString(res.Anonymized))
		require.True(t, total.Equal(sum), "target %d: %s != %s", target, total, sum)
	}
}

func TestCalculateProgress(t *testing.T) {
	utxos := []anonymity.Utxo{
		{Address: "A", Amount: "100"},
		{Address: "B", Amount: "50"},
	}

	t.Run("target_one", func(t *testing.T) {
		for _, set := range []map[string]int{{}, {"A": 1}, {"A": 50, "B": 1}} {
			require.Equal(t, 100, anonymity.CalculateProgress(intPtr(1), set, utxos))
		}
	})

	t.Run("empty_utxos", func(t *testing.T) {
		set := map[string]int{"A": 5}
		require.Zero(t, anonymity.CalculateProgress(intPtr(5), set, nil))
		require.Zero(t, anonymity.CalculateProgress(intPtr(5), set, []anonymity.Utxo{}))
	})

	t.Run("missing_inputs", func(t *testing.T) {
		require.Zero(t, anonymity.CalculateProgress(nil, map[string]int{}, utxos))
		require.Zero(t, anonymity.CalculateProgress(intPtr(5), nil, utxos))
	})

	t.Run("weighted", func(t *testing.T) {
		// (100*0 + 50*2) / (150*2) = 1/3
		set := map[string]int{"A": 1, "B": 3}
		require.Equal(t, 33, anonymity.CalculateProgress(intPtr(3), set, utxos))
	})

	t.Run("all_above_target", func(t *testing.T) {
		set := map[string]int{"A": 10, "B": 20}
		require.Equal(t, 100, anonymity.CalculateProgress(intPtr(3), set, utxos))
	})

	t.Run("zero_amounts", func(t *testing.T) {
		zero := []anonymity.Utxo{{Address: "A", Amount: "0"}}
		require.Equal(t, 100, anonymity.CalculateProgress(intPtr(3), map[string]int{}, zero))
	})

	t.Run("monotonic", func(t *testing.T) {
		target := 8
		for _, other := range []int{0, 1, 4, 8, 20} {
			prev := -1
			for score := 0; score <= 12; score++ {
				set := map[string]int{"A": score, "B": other}
				progress := anonymity.CalculateProgress(&target, set, utxos)
				require.GreaterOrEqual(t, progress, prev)
				require.GreaterOrEqual(t, progress, 0)
				require.LessOrEqual(t, progress, 100)
				prev = progress
			}
		}
	})
}

func TestMaxRounds(t *testing.T) {
	est := anonymity.DefaultEstimates

	tests := []struct {
		name     string
		target   int
		set      map[string]int
		expected int
	}{
		{"empty_set", 5, map[string]int{}, est.MinRoundsNeeded},
		{"nil_set", 80, nil, 16},
		{"already_anonymized", 5, map[string]int{"a": 10}, est.MinRoundsNeeded},
		{"lowest_wins", 50, map[string]int{"a": 40, "b": 1}, 10},
		{"below_min", 10, map[string]int{"a": 1}, est.MinRoundsNeeded},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rounds := anonymity.MaxRounds(tt.target, tt.set, est)
			require.Equal(t, tt.expected, rounds)
			require.GreaterOrEqual(t, rounds, est.MinRoundsNeeded)
		})
	}

	t.Run("never_below_min", func(t *testing.T) {
		for target := -5; target < 100; target += 7 {
			rounds := anonymity.MaxRounds(target, map[string]int{"a": target * 2}, est)
			require.GreaterOrEqual(t, rounds, est.MinRoundsNeeded)
		}
		require.Equal(t, 7, anonymity.MaxRounds(5, nil, anonymity.Estimates{MinRoundsNeeded: 7}))
	})
}

func TestEstimatedTimePerRound(t *testing.T) {
	est := anonymity.DefaultEstimates
	require.Equal(t, time.Hour, anonymity.EstimatedTimePerRound(0, 0, est))
	require.Equal(t, 75*time.Minute, anonymity.EstimatedTimePerRound(4, 5, est))
}
