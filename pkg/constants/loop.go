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

package constants

import "time"

const (
	// DefaultTickerTime is the interval between session poll cycles.
	// The client flips loopState within a replay load screen, so the
	// detector has to sample faster than a load takes:
	// - Too small: hammers the local and GLZ APIs for no gain
	// - Too high: the MENUS->REPLAY edge is missed and the swap comes too late
	DefaultTickerTime = 500 * time.Millisecond

	// ErrorPauseTicks is the number of ticks a failed poll pauses the
	// monitor before the next attempt (2 ticks at 500ms = 1s).
	ErrorPauseTicks = 2

	// StarvationThreshold defines when to consider the poll loop starved.
	// If no reconcile has completed for this duration, a warning is logged
	// and the starvation metric is incremented.
	StarvationThreshold = 15 * time.Second

	// DefaultReconcileTimeout bounds a single reconcile pass, covering one
	// session fetch plus any triggered file action.
	DefaultReconcileTimeout = 10 * time.Second

	// DefaultInstanceName is the default name for the monitor instance.
	DefaultInstanceName = "Core"
)
