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

// Package backoff provides tick-based retry suppression for the poll loop.
//
// The control loop advances a tick counter instead of wall-clock timers, so
// the manager expresses "wait before retrying" as "skip operations until
// tick X". Transient errors double the suppression window up to a cap;
// exceeding the retry budget escalates to a permanent failure that callers
// must clear explicitly.
package backoff

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const (
	// TemporaryBackoffError marks errors raised while an operation is
	// suppressed by an active backoff window.
	TemporaryBackoffError = "temporary backoff error"
	// PermanentFailureError marks errors raised after the retry budget is
	// exhausted.
	PermanentFailureError = "permanent failure"
)

// Config holds the knobs for a BackoffManager.
type Config struct {
	ID string

	// InitialSuppressionTicks is the first backoff window after an error.
	InitialSuppressionTicks uint64
	// MaxSuppressionTicks caps the window growth.
	MaxSuppressionTicks uint64
	// MaxRetries is how many consecutive transient errors are tolerated
	// before escalating to a permanent failure.
	MaxRetries uint64

	Logger *zap.SugaredLogger
}

// DefaultConfig returns the standard backoff settings used by the monitor:
// start at 2 ticks (1s at the 500ms cadence), double up to 60 ticks, give
// up after 10 consecutive failures.
func DefaultConfig(id string, logger *zap.SugaredLogger) Config {
	return Config{
		ID:                      id,
		InitialSuppressionTicks: 2,
		MaxSuppressionTicks:     60,
		MaxRetries:              10,
		Logger:                  logger,
	}
}

// BackoffManager tracks consecutive errors and decides when operations may
// run again. All methods are safe for concurrent use.
type BackoffManager struct {
	cfg Config

	mu                sync.Mutex
	lastErr           error
	failures          uint64
	suppressedUntil   uint64
	suppressionTicks  uint64
	permanentlyFailed bool
}

// NewBackoffManager creates a manager from the given config.
func NewBackoffManager(cfg Config) *BackoffManager {
	if cfg.InitialSuppressionTicks == 0 {
		cfg.InitialSuppressionTicks = 1
	}
	if cfg.MaxSuppressionTicks < cfg.InitialSuppressionTicks {
		cfg.MaxSuppressionTicks = cfg.InitialSuppressionTicks
	}
	return &BackoffManager{
		cfg:              cfg,
		suppressionTicks: cfg.InitialSuppressionTicks,
	}
}

// SetError records an error at the given tick and returns true if the
// manager escalated to a permanent failure. Ignored errors only refresh the
// last error; permanent errors escalate immediately.
func (m *BackoffManager) SetError(err error, tick uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastErr = err

	if IsIgnoredError(err) {
		return false
	}

	if IsPermanentError(err) {
		m.permanentlyFailed = true
		return true
	}

	m.failures++
	if m.cfg.MaxRetries > 0 && m.failures >= m.cfg.MaxRetries {
		m.permanentlyFailed = true
		if m.cfg.Logger != nil {
			m.cfg.Logger.Errorf("%s: %d consecutive failures, giving up: %v", m.cfg.ID, m.failures, err)
		}
		return true
	}

	m.suppressedUntil = tick + m.suppressionTicks
	if m.cfg.Logger != nil {
		m.cfg.Logger.Debugf("%s: backing off for %d ticks after error: %v", m.cfg.ID, m.suppressionTicks, err)
	}

	m.suppressionTicks *= 2
	if m.suppressionTicks > m.cfg.MaxSuppressionTicks {
		m.suppressionTicks = m.cfg.MaxSuppressionTicks
	}

	return false
}

// ShouldSkipOperation returns true while the backoff window is active or
// the manager is permanently failed.
func (m *BackoffManager) ShouldSkipOperation(tick uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.permanentlyFailed {
		return true
	}
	return tick < m.suppressedUntil
}

// GetBackoffError returns a structured error describing the current
// suppression, or nil when operations may run.
func (m *BackoffManager) GetBackoffError(tick uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.permanentlyFailed {
		return fmt.Errorf("%s for %s: %w", PermanentFailureError, m.cfg.ID, m.lastErr)
	}
	if tick < m.suppressedUntil {
		return fmt.Errorf("%s for %s: suppressed until tick %d: %w", TemporaryBackoffError, m.cfg.ID, m.suppressedUntil, m.lastErr)
	}
	return nil
}

// GetLastError returns the last recorded error.
func (m *BackoffManager) GetLastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// IsPermanentlyFailed returns true once the retry budget is exhausted.
func (m *BackoffManager) IsPermanentlyFailed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permanentlyFailed
}

// Reset clears the error state and restores the initial window. Called
// after a successful operation or an operator-driven recovery.
func (m *BackoffManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = nil
	m.failures = 0
	m.suppressedUntil = 0
	m.suppressionTicks = m.cfg.InitialSuppressionTicks
	m.permanentlyFailed = false
}
