package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
)

const namespace = "coinjoin"

// Session states tracked by the sessions gauge.
const (
	SessionStateStarting    = "starting"
	SessionStateActive      = "active"
	SessionStatePaused      = "paused"
	SessionStateInterrupted = "interrupted"
)

// Recorder is an action observer collecting prometheus metrics about the
// coinjoin actions and sessions.
type Recorder struct {
	registry     *prometheus.Registry
	actions      *prometheus.CounterVec
	sessions     *prometheus.GaugeVec
	signed       *prometheus.CounterVec
	signedAction string
}

// NewRecorder returns a recorder with its own metrics registry. Actions of
// type signedAction increment the signed rounds counter.
func NewRecorder(signedAction string) *Recorder {
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_total",
		Help:      "Number of coinjoin actions by type and network.",
	}, []string{"type", "network"})
	sessions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions",
		Help:      "Number of coinjoin sessions by state.",
	}, []string{"state"})
	signed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signed_rounds_total",
		Help:      "Number of rounds signed by network.",
	}, []string{"network"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(actions, sessions, signed)

	return &Recorder{registry, actions, sessions, signed, signedAction}
}

// Notify implements ports.ActionObserver.
func (r *Recorder) Notify(action ports.Action) {
	r.actions.WithLabelValues(action.Type, action.Network).Inc()
	if action.Type == r.signedAction {
		r.signed.WithLabelValues(action.Network).Inc()
	}
}

// ObserveAccounts sets the sessions gauge from the given accounts.
func (r *Recorder) ObserveAccounts(accounts []domain.CoinjoinAccount) {
	counts := map[string]float64{
		SessionStateStarting:    0,
		SessionStateActive:      0,
		SessionStatePaused:      0,
		SessionStateInterrupted: 0,
	}
	for _, a := range accounts {
		s := a.Session
		if s == nil {
			continue
		}
		switch {
		case s.Interrupted:
			counts[SessionStateInterrupted]++
		case s.Paused:
			counts[SessionStatePaused]++
		case s.Starting:
			counts[SessionStateStarting]++
		default:
			counts[SessionStateActive]++
		}
	}
	for state, n := range counts {
		r.sessions.WithLabelValues(state).Set(n)
	}
}

// Gatherer returns the registry of the recorder metrics.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
