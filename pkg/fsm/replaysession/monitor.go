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

// Package replaysession implements the replay-loading detector: a small
// state machine over the session API's loopState. The lobby->replay edge
// swaps the armed injection file over the host replay; the replay->lobby
// edge restores the original from its backup.
//
// Only those two edges act. Live matches (PREGAME/INGAME) and polls that
// attach mid-replay leave the files untouched, so the detector can start
// in any client state without clobbering anything.
package replaysession

import (
	"context"
	"sync"

	looplabfsm "github.com/looplab/fsm"
	"go.uber.org/zap"

	internalfsm "github.com/zachleolewis/SoupsValorantReplayTool/internal/fsm"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/backoff"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/constants"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/metrics"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/region"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/sentry"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/replaystore"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/session"
)

// CredentialSource provides fresh credentials when the monitor needs them.
type CredentialSource interface {
	Bootstrap(ctx context.Context) (*models.Credentials, error)
}

// Monitor is the FSM instance that drives injection and restore.
type Monitor struct {
	base *internalfsm.BaseFSMInstance

	sessionService *session.Service
	store          *replaystore.Store
	credSource     CredentialSource
	regionStore    *region.Store

	logger *zap.SugaredLogger

	mu     sync.RWMutex
	active bool
	armed  *models.InjectionPair
	creds  *models.Credentials
}

// NewMonitor creates a Monitor in the detached state.
func NewMonitor(sessionService *session.Service, store *replaystore.Store, credSource CredentialSource, regionStore *region.Store) *Monitor {
	log := logger.For(logger.ComponentSessionFSM)

	m := &Monitor{
		sessionService: sessionService,
		store:          store,
		credSource:     credSource,
		regionStore:    regionStore,
		logger:         log,
	}

	m.base = internalfsm.NewBaseFSMInstance(internalfsm.BaseFSMInstanceConfig{
		ID:           constants.DefaultInstanceName,
		InitialState: StateDetached,
		OperationalTransitions: []looplabfsm.EventDesc{
			{Name: EventSessionLobby, Src: []string{StateDetached, StateReplay}, Dst: StateLobby},
			{Name: EventSessionReplay, Src: []string{StateDetached, StateLobby}, Dst: StateReplay},
			{Name: EventSessionLost, Src: []string{StateLobby, StateReplay}, Dst: StateDetached},
		},
	}, log)

	// The lobby->replay edge is the swap moment: the client has committed
	// to loading the host file but has not read it yet.
	m.base.AddCallback("enter_"+StateReplay, func(ctx context.Context, e *looplabfsm.Event) {
		if e.Src != StateLobby {
			return
		}
		m.onReplayStart(ctx)
	})

	// The replay->lobby edge means playback finished; put the original back.
	m.base.AddCallback("enter_"+StateLobby, func(ctx context.Context, e *looplabfsm.Event) {
		if e.Src != StateReplay {
			return
		}
		m.onReplayEnd(ctx)
	})

	metrics.SetSessionState(constants.DefaultInstanceName, metrics.SessionStateUnknown)

	return m
}

// Arm stores the injection pair applied on the next replay start.
func (m *Monitor) Arm(pair models.InjectionPair) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = &pair
	m.logger.Infof("armed injection: %s over %s", pair.InjectionPath, pair.HostPath)
}

// Disarm removes the armed injection pair.
func (m *Monitor) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = nil
	m.logger.Info("injection disarmed")
}

// Armed returns the armed injection pair, or nil.
func (m *Monitor) Armed() *models.InjectionPair {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.armed == nil {
		return nil
	}
	pair := *m.armed
	return &pair
}

// Start enables polling. Credentials are bootstrapped on the first
// reconcile so that starting with a closed client is not an error.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = true
	m.logger.Info("session monitoring started")
}

// Stop disables polling and clears any error backoff.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.active = false
	m.creds = nil
	m.mu.Unlock()

	m.base.ResetState()
	m.logger.Info("session monitoring stopped")
}

// IsActive reports whether the monitor polls the session API.
func (m *Monitor) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// CurrentState returns the detector state.
func (m *Monitor) CurrentState() string {
	return m.base.GetCurrentFSMState()
}

// LastError returns the last reconcile error, or nil.
func (m *Monitor) LastError() error {
	return m.base.GetLastError()
}

// IsDegraded reports whether the retry budget is exhausted.
func (m *Monitor) IsDegraded() bool {
	return m.base.IsPermanentlyFailed()
}

// ResetDegraded clears a permanent failure so polling can resume, e.g.
// after the user restarts the client.
func (m *Monitor) ResetDegraded() {
	m.base.ResetState()
}

// InvalidateCredentials drops the cached credentials; the next reconcile
// bootstraps fresh ones. Called when the region changes since the GLZ host
// is region-specific.
func (m *Monitor) InvalidateCredentials() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
}

// Reconcile performs one poll cycle: ensure credentials, fetch the session
// and emit the matching event. Returns (error, reconciled).
func (m *Monitor) Reconcile(ctx context.Context, tick uint64) (error, bool) {
	if !m.IsActive() {
		return nil, false
	}

	if m.base.ShouldSkipReconcileBecauseOfError(tick) {
		return nil, false
	}

	creds, err := m.ensureCredentials(ctx)
	if err != nil {
		m.handleError(ctx, backoff.CategorizeError(err), tick)
		return nil, false
	}

	info, err := m.sessionService.Fetch(ctx, region.GLZBase(m.regionStore.Current()), creds)
	if err != nil {
		m.handleError(ctx, backoff.CategorizeError(err), tick)
		return nil, false
	}

	m.base.ResetState()

	if err := m.applyLoopState(ctx, info.LoopState); err != nil {
		return err, false
	}
	return nil, true
}

func (m *Monitor) ensureCredentials(ctx context.Context) (*models.Credentials, error) {
	m.mu.RLock()
	creds := m.creds
	m.mu.RUnlock()
	if creds != nil {
		return creds, nil
	}

	creds, err := m.credSource.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.creds = creds
	m.mu.Unlock()

	m.logger.Infof("credentials bootstrapped for player %s", creds.PlayerID)
	return creds, nil
}

// applyLoopState translates an observed loopState into at most one FSM
// event. States other than MENUS and REPLAY are ignored.
func (m *Monitor) applyLoopState(ctx context.Context, loopState string) error {
	current := m.base.GetCurrentFSMState()

	var event string
	switch loopState {
	case constants.LoopStateMenus:
		if current == StateLobby {
			return nil
		}
		event = EventSessionLobby
	case constants.LoopStateReplay:
		if current == StateReplay {
			return nil
		}
		event = EventSessionReplay
	default:
		return nil
	}

	if err := m.base.SendEvent(ctx, event, loopState); err != nil {
		return err
	}

	m.publishStateMetric()
	return nil
}

func (m *Monitor) onReplayStart(ctx context.Context) {
	m.logger.Info("replay loading detected")

	pair := m.Armed()
	if pair == nil {
		m.logger.Debug("no injection armed, leaving files untouched")
		return
	}

	if err := m.store.Inject(ctx, *pair); err != nil {
		metrics.IncErrorCount(metrics.ComponentSessionFSM, m.base.GetID())
		sentry.ReportFSMErrorf(m.logger, m.base.GetID(), "SessionFSM", "inject", "injection failed: %v", err)
	}
}

func (m *Monitor) onReplayEnd(ctx context.Context) {
	m.logger.Info("replay ended")

	if m.store.CurrentBackup() == "" {
		return
	}

	if err := m.store.Restore(ctx); err != nil {
		metrics.IncErrorCount(metrics.ComponentSessionFSM, m.base.GetID())
		sentry.ReportFSMErrorf(m.logger, m.base.GetID(), "SessionFSM", "restore", "restore failed: %v", err)
		return
	}

	if err := m.store.Cleanup(ctx); err != nil {
		m.logger.Warnf("backup cleanup failed: %v", err)
	}
}

func (m *Monitor) handleError(ctx context.Context, err error, tick uint64) {
	metrics.IncErrorCount(metrics.ComponentSessionFSM, m.base.GetID())

	// A vanished session while attached is an edge, not only an error.
	current := m.base.GetCurrentFSMState()
	if current != StateDetached {
		if sendErr := m.base.SendEvent(ctx, EventSessionLost); sendErr != nil {
			m.logger.Debugf("failed to detach after error: %v", sendErr)
		} else {
			m.publishStateMetric()
		}
	}

	if m.base.SetError(err, tick) {
		metrics.SetSessionState(m.base.GetID(), metrics.SessionStateDegraded)
		sentry.ReportFSMErrorf(m.logger, m.base.GetID(), "SessionFSM", "poll", "monitor degraded after repeated errors: %v", err)
		return
	}

	m.logger.Debugf("session poll failed: %v", err)
}

func (m *Monitor) publishStateMetric() {
	switch m.base.GetCurrentFSMState() {
	case StateLobby:
		metrics.SetSessionState(m.base.GetID(), metrics.SessionStateLobby)
	case StateReplay:
		metrics.SetSessionState(m.base.GetID(), metrics.SessionStateReplay)
	default:
		metrics.SetSessionState(m.base.GetID(), metrics.SessionStateUnknown)
	}
}
