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

// Package fsm carries the shared state-machine scaffolding: a looplab/fsm
// wrapper with per-state callbacks, context protection on transitions and
// an error backoff manager.
package fsm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/backoff"
)

// ExpectedMaxExecutionTimePerEvent is the minimum context lifetime required
// before a transition is allowed to start. Transitions interrupted by a
// dying context leave looplab/fsm mid-transition and every later event
// fails, so short-lived contexts are rejected up front.
const ExpectedMaxExecutionTimePerEvent = 500 * time.Millisecond

// BaseFSMInstance implements the shared logic for FSM-driven components.
// Concrete instances (the session monitor) embed or wrap this and supply
// their operational transitions and callbacks.
type BaseFSMInstance struct {
	cfg BaseFSMInstanceConfig

	// mu protects concurrent access to fields
	mu sync.RWMutex

	// fsm is the finite state machine that manages instance state
	fsm *fsm.FSM

	// Registered "enter_state" callbacks, for side-effects on transitions.
	callbacks map[string]fsm.Callback

	// Handles exponential backoff for repeated transient errors,
	// culminating in a permanent failure if max retries are exceeded.
	backoffManager *backoff.BackoffManager

	logger *zap.SugaredLogger
}

// BaseFSMInstanceConfig holds parameters for setting up the base FSM.
type BaseFSMInstanceConfig struct {
	ID           string
	InitialState string

	// OperationalTransitions are the transitions that are allowed
	OperationalTransitions []fsm.EventDesc
}

// NewBaseFSMInstance sets up a new FSM with the supplied transitions.
func NewBaseFSMInstance(cfg BaseFSMInstanceConfig, logger *zap.SugaredLogger) *BaseFSMInstance {
	baseInstance := &BaseFSMInstance{
		cfg:       cfg,
		callbacks: make(map[string]fsm.Callback),
		logger:    logger,
	}

	backoffConfig := backoff.DefaultConfig(cfg.ID, logger)
	baseInstance.backoffManager = backoff.NewBackoffManager(backoffConfig)

	baseInstance.fsm = fsm.NewFSM(
		cfg.InitialState,
		fsm.Events(cfg.OperationalTransitions),
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				if cb, ok := baseInstance.callbacks["enter_"+e.Dst]; ok {
					cb(ctx, e)
				}
			},
		},
	)

	return baseInstance
}

// AddCallback adds a callback for a given event name, e.g. "enter_lobby".
func (s *BaseFSMInstance) AddCallback(eventName string, callback fsm.Callback) {
	s.callbacks[eventName] = callback
}

// GetCurrentFSMState returns the current state of the FSM.
func (s *BaseFSMInstance) GetCurrentFSMState() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fsm.Current()
}

// SetCurrentFSMState sets the current state of the FSM.
// This should only be called in tests.
func (s *BaseFSMInstance) SetCurrentFSMState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fsm.SetState(state)
}

// SendEvent sends an event to the FSM.
//
// A context that expires mid-transition leaves the FSM's internal
// transition flag set and every later event fails with "previous
// transition did not complete". To avoid that cascade, events are rejected
// when the context is already cancelled or has too little lifetime left to
// finish a transition.
func (s *BaseFSMInstance) SendEvent(ctx context.Context, eventName string, args ...interface{}) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) < ExpectedMaxExecutionTimePerEvent {
			return fmt.Errorf("context deadline exceeded")
		}
	}

	return s.fsm.Event(ctx, eventName, args...)
}

// SetError records an error that occurred during reconciliation and
// returns true if it is considered a permanent failure.
func (s *BaseFSMInstance) SetError(err error, tick uint64) bool {
	return s.backoffManager.SetError(err, tick)
}

// GetLastError returns the last error that occurred during reconciliation.
func (s *BaseFSMInstance) GetLastError() error {
	return s.backoffManager.GetLastError()
}

// ShouldSkipReconcileBecauseOfError returns true if the reconcile should be
// skipped because the backoff period after an error has not yet elapsed, or
// the FSM is in permanent failure state.
func (s *BaseFSMInstance) ShouldSkipReconcileBecauseOfError(tick uint64) bool {
	return s.backoffManager.ShouldSkipOperation(tick)
}

// GetBackoffError returns a structured error that includes backoff
// information, or nil when no backoff is active.
func (s *BaseFSMInstance) GetBackoffError(tick uint64) error {
	return s.backoffManager.GetBackoffError(tick)
}

// IsPermanentlyFailed returns true if the FSM has exceeded its retry budget.
func (s *BaseFSMInstance) IsPermanentlyFailed() bool {
	return s.backoffManager.IsPermanentlyFailed()
}

// ResetState clears the error and backoff after a successful reconcile.
func (s *BaseFSMInstance) ResetState() {
	s.backoffManager.Reset()
}

// GetID returns the instance ID.
func (s *BaseFSMInstance) GetID() string {
	return s.cfg.ID
}

// GetLogger returns the instance logger.
func (s *BaseFSMInstance) GetLogger() *zap.SugaredLogger {
	return s.logger
}
