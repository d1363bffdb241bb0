// Copyright 2025 Zach Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/sentry"
)

const (
	// Component labels.
	ComponentControlLoop = "control_loop"
	ComponentSessionFSM  = "session_fsm"
	ComponentRiotLocal   = "riot_local"
	ComponentSession     = "session_service"
	ComponentReplayStore = "replay_store"
	ComponentMatchData   = "match_data"
	ComponentAPI         = "control_api"
	ComponentConfig      = "config_manager"
)

// Session state gauge values.
const (
	SessionStateUnknown  = -1
	SessionStateLobby    = 0
	SessionStateReplay   = 1
	SessionStateDegraded = 2
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "replaytool"
	subsystem = "agent"

	// Error counters.
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component", "instance"},
	)

	// Reconcile timing.
	reconcileTime = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconcile_duration_milliseconds",
			Help:      "Time taken to reconcile (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.9:  0.01,
				0.95: 0.01,
				0.99: 0.01,
			},
		},
		[]string{"component", "instance"},
	)

	// Session poll timing.
	sessionPollTime = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_poll_duration_milliseconds",
			Help:      "Time taken to fetch the remote session (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.95: 0.01,
				0.99: 0.01,
			},
		},
		[]string{"instance"},
	)

	// Starvation timer.
	starvationSeconds = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconcile_starved_total_seconds",
			Help:      "Total seconds the poll loop was starved",
		},
	)

	// File swap counters.
	injectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "injections_total",
			Help:      "Total number of replay file injections performed",
		},
	)

	restoresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "restores_total",
			Help:      "Total number of replay file restores performed",
		},
	)

	// Session state gauge (-1=Unknown, 0=Lobby, 1=Replay, 2=Degraded).
	sessionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_current_state",
			Help:      "Current detector state (-1=Unknown, 0=Lobby, 1=Replay, 2=Degraded)",
		},
		[]string{"instance"},
	)
)

// IncErrorCount increments the error counter for a component/instance pair.
func IncErrorCount(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Inc()
}

// InitErrorCounter pre-registers the error counter for a component so the
// series exists before the first error.
func InitErrorCounter(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Add(0)
}

// ObserveReconcileTime records the duration of a reconcile pass.
func ObserveReconcileTime(component, instance string, duration time.Duration) {
	reconcileTime.WithLabelValues(component, instance).Observe(float64(duration.Milliseconds()))
}

// ObserveSessionPollTime records the duration of a session fetch.
func ObserveSessionPollTime(instance string, duration time.Duration) {
	sessionPollTime.WithLabelValues(instance).Observe(float64(duration.Milliseconds()))
}

// AddStarvationTime adds to the starvation counter.
func AddStarvationTime(seconds float64) {
	starvationSeconds.Add(seconds)
}

// IncInjections counts a performed injection.
func IncInjections() {
	injectionsTotal.Inc()
}

// IncRestores counts a performed restore.
func IncRestores() {
	restoresTotal.Inc()
}

// SetSessionState updates the detector state gauge.
func SetSessionState(instance string, state int) {
	sessionState.WithLabelValues(instance).Set(float64(state))
}

// SetupMetricsEndpoint starts an HTTP server to expose metrics.
// This should be called once at application startup.
func SetupMetricsEndpoint(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.ReportIssue(err, sentry.IssueTypeFatal, logger.For("metrics"))
		}
	}()

	return server
}
