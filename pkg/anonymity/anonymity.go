// Package anonymity implements the estimates of how much of an account
// balance is anonymized with respect to a target anonymity level.
package anonymity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Utxo is the minimal view of an unspent output needed for the estimates.
// Amount is a decimal string in satoshis.
type Utxo struct {
	Address string
	Amount  string
}

// Breakdown splits a balance by anonymity status. Amounts are decimal
// strings.
type Breakdown struct {
	NotAnonymized string
	Anonymized    string
}

// Estimates are the tunable constants used to guess how many rounds, and
// how much time, a session needs.
type Estimates struct {
	AnonymityGainedPerRound float64
	RoundsFailRateBuffer    float64
	MinRoundsNeeded         int
	HoursPerRound           float64
}

// DefaultEstimates ...
var DefaultEstimates = Estimates{
	AnonymityGainedPerRound: 10,
	RoundsFailRateBuffer:    2,
	MinRoundsNeeded:         4,
	HoursPerRound:           1,
}

var hundred = decimal.NewFromInt(100)

// BreakdownBalance partitions the utxo amounts by whether the anonymity
// score of their address reaches the target. Addresses missing from the set
// have score 0. Zero totals are returned if any argument is missing.
func BreakdownBalance(
	targetAnonymity *int, anonymitySet map[string]int, utxos []Utxo,
) Breakdown {
	notAnonymized, anonymized := decimal.Zero, decimal.Zero

	if targetAnonymity != nil && anonymitySet != nil && utxos != nil {
		for _, u := range utxos {
			amount := parseAmount(u.Amount)
			if anonymitySet[u.Address] < *targetAnonymity {
				notAnonymized = notAnonymized.Add(amount)
			} else {
				anonymized = anonymized.Add(amount)
			}
		}
	}

	return Breakdown{
		NotAnonymized: notAnonymized.String(),
		Anonymized:    anonymized.String(),
	}
}

// CalculateProgress returns the percentage (0-100) of the balance anonymized
// relatively to the target, weighted by amount. Addresses missing from the
// set have score 1.
func CalculateProgress(
	targetAnonymity *int, anonymitySet map[string]int, utxos []Utxo,
) int {
	if targetAnonymity == nil || anonymitySet == nil || len(utxos) <= 0 {
		return 0
	}

	target := *targetAnonymity
	if target <= 1 {
		return 100
	}

	weightedCurrent, weightedTarget := decimal.Zero, decimal.Zero
	targetGain := decimal.NewFromInt(int64(target - 1))
	for _, u := range utxos {
		amount := parseAmount(u.Amount)
		current := anonymitySet[u.Address]
		if current < 1 {
			current = 1
		}
		if current > target {
			current = target
		}
		weightedCurrent = weightedCurrent.Add(
			amount.Mul(decimal.NewFromInt(int64(current - 1))),
		)
		weightedTarget = weightedTarget.Add(amount.Mul(targetGain))
	}

	if weightedTarget.IsZero() {
		return 100
	}

	progress := weightedCurrent.Div(weightedTarget).Mul(hundred).Round(0).IntPart()
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return int(progress)
}

// MaxRounds estimates how many rounds are needed to bring the least
// anonymized address to the target. The result is never below
// MinRoundsNeeded. The lowest anonymity defaults to 1 for an empty set.
func MaxRounds(
	targetAnonymity int, anonymitySet map[string]int, est Estimates,
) int {
	if est.AnonymityGainedPerRound <= 0 {
		return est.MinRoundsNeeded
	}

	lowest := 1
	first := true
	for _, level := range anonymitySet {
		if first || level < lowest {
			lowest = level
			first = false
		}
	}

	estimated := int(math.Ceil(
		float64(targetAnonymity-lowest) / est.AnonymityGainedPerRound *
			est.RoundsFailRateBuffer,
	))
	if estimated < est.MinRoundsNeeded {
		return est.MinRoundsNeeded
	}
	return estimated
}

// EstimatedTimePerRound returns the time a round takes on average, given
// that a session skips numerator rounds out of denominator. A zero ratio
// means no rounds are skipped.
func EstimatedTimePerRound(numerator, denominator int, est Estimates) time.Duration {
	hours := est.HoursPerRound
	if numerator > 0 && denominator > 0 {
		hours = hours * float64(denominator) / float64(numerator)
	}
	return time.Duration(hours * float64(time.Hour))
}

func parseAmount(amount string) decimal.Decimal {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}
