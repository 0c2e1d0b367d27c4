package circuitbreaker

import "github.com/sony/gobreaker"

var (
	// MaxNumOfFailingRequests ...
	MaxNumOfFailingRequests = 10
	// FailingRatio ...
	FailingRatio = 0.6
)

// Settings tweak the conditions making the breaker trip.
type Settings struct {
	MaxNumOfFailingRequests int
	FailingRatio            float64
}

// DefaultSettings returns the settings made of the package level defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxNumOfFailingRequests: MaxNumOfFailingRequests,
		FailingRatio:            FailingRatio,
	}
}

// NewCircuitBreaker is a factory function returning a *gobreaker.CircuitBreaker
// with the given name and a state-changing function that activates if the
// overall number of failing requests have reached the MaxNumOfFailingRequests
// cap and the failing ratio has met the FailingRatio. Zero settings fall back
// to the package defaults.
func NewCircuitBreaker(name string, settings Settings) *gobreaker.CircuitBreaker {
	if settings.MaxNumOfFailingRequests <= 0 {
		settings.MaxNumOfFailingRequests = MaxNumOfFailingRequests
	}
	if settings.FailingRatio <= 0 {
		settings.FailingRatio = FailingRatio
	}
	if name == "" {
		name = "circuitbreaker"
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > settings.MaxNumOfFailingRequests &&
				ratio >= settings.FailingRatio
		},
	})
}
