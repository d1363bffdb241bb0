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

// Package control runs the single-threaded reconcile loop that drives the
// session monitor. One tick every 500ms: fetch config, reconcile the
// monitor, record timings. Errors inside the monitor are absorbed by its
// backoff manager; only loop-level failures stop the loop.
package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/backoff"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/config"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/constants"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/fsm/replaysession"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/metrics"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/sentry"
)

// ControlLoop coordinates the monitor's poll cycle against the ticker.
type ControlLoop struct {
	tickerTime    time.Duration
	monitor       *replaysession.Monitor
	configManager config.ConfigManager
	logger        *zap.SugaredLogger
	currentTick   uint64

	lastReconcile time.Time
}

// NewControlLoop creates a control loop over the given monitor.
func NewControlLoop(monitor *replaysession.Monitor, configManager config.ConfigManager) *ControlLoop {
	log := logger.For(logger.ComponentControlLoop)
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	metrics.InitErrorCounter(metrics.ComponentControlLoop, "main")

	return &ControlLoop{
		tickerTime:    constants.DefaultTickerTime,
		monitor:       monitor,
		configManager: configManager,
		logger:        log,
	}
}

// Execute runs the control loop until the context is cancelled.
//
// Error handling follows three patterns:
// - Deadline exceeded: log and continue, the poll was just slow
// - Context cancelled: clean shutdown
// - Other errors: abort the loop
func (c *ControlLoop) Execute(ctx context.Context) error {
	ticker := time.NewTicker(c.tickerTime)
	defer ticker.Stop()

	c.currentTick = 0
	c.lastReconcile = time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.currentTick++

			start := time.Now()

			// A starved loop means a previous cycle blocked far past its
			// budget, worth surfacing before the next one starts.
			if starved := start.Sub(c.lastReconcile); starved > constants.StarvationThreshold {
				metrics.AddStarvationTime(starved.Seconds())
				sentry.ReportIssuef(sentry.IssueTypeWarning, c.logger, "Control loop starved for %v", starved)
			}

			timeoutCtx, cancel := context.WithTimeout(ctx, constants.DefaultReconcileTimeout)
			err := c.Reconcile(timeoutCtx, c.currentTick)
			cancel()

			cycleTime := time.Since(start)
			c.lastReconcile = time.Now()

			if cycleTime > c.tickerTime {
				c.logger.Warnf("Reconcile cycle time exceeded ticker time: %v", cycleTime)
			}

			metrics.ObserveReconcileTime(metrics.ComponentControlLoop, "main", cycleTime)

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					sentry.ReportIssuef(sentry.IssueTypeWarning, c.logger, "Control loop reconcile timed out: %v", err)
				} else if errors.Is(err, context.Canceled) {
					c.logger.Infof("Control loop cancelled")
					return nil
				} else {
					metrics.IncErrorCount(metrics.ComponentControlLoop, "main")
					sentry.ReportIssuef(sentry.IssueTypeError, c.logger, "Control loop error: %v", err)
					return err
				}
			}
		}
	}
}

// Reconcile performs a single cycle: read config, then let the monitor
// poll. Config backoff errors skip the cycle instead of failing it.
func (c *ControlLoop) Reconcile(ctx context.Context, tick uint64) error {
	if c.configManager == nil {
		return fmt.Errorf("config manager is not set")
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	_, err := c.configManager.GetConfig(ctx, tick)
	if err != nil {
		if backoff.IsTemporaryBackoffError(err) {
			c.logger.Debugf("Skipping reconcile cycle due to temporary config backoff: %v", err)
			return nil
		}
		if backoff.IsPermanentFailureError(err) {
			originalErr := backoff.ExtractOriginalError(err)
			sentry.ReportIssuef(sentry.IssueTypeError, c.logger, "Config manager has permanently failed after max retries: %v (original error: %v)",
				err, originalErr)
			metrics.IncErrorCount(metrics.ComponentControlLoop, "config_permanent_failure")
			return fmt.Errorf("config permanently failed, system needs intervention: %w", err)
		}
		sentry.ReportIssuef(sentry.IssueTypeError, c.logger, "Config manager error: %v", err)
		return nil
	}

	reconcileErr, _ := c.monitor.Reconcile(ctx, tick)
	if reconcileErr != nil {
		return fmt.Errorf("monitor reconciliation failed: %w", reconcileErr)
	}

	return nil
}

// GetMonitor returns the monitor driven by this loop.
func (c *ControlLoop) GetMonitor() *replaysession.Monitor {
	return c.monitor
}

// GetConfigManager returns the config manager.
func (c *ControlLoop) GetConfigManager() config.ConfigManager {
	return c.configManager
}
