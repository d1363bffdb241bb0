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

// Package sentry wraps the Sentry SDK so that error reporting degrades to
// plain logging when no DSN is configured. The tool runs on end-user
// machines, so crash reports are opt-in via configuration.
package sentry

import (
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

var enabled atomic.Bool

// InitSentry initialises the Sentry SDK. An empty DSN leaves reporting
// disabled and every Report* call becomes log-only.
func InitSentry(dsn, appVersion string) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          appVersion,
		AttachStacktrace: true,
	})
	if err != nil {
		return err
	}

	enabled.Store(true)
	return nil
}

// Flush waits for buffered events to be sent. Safe to call when disabled.
func Flush(timeout time.Duration) {
	if enabled.Load() {
		sentry.Flush(timeout)
	}
}

// IsEnabled reports whether events are forwarded to Sentry.
func IsEnabled() bool {
	return enabled.Load()
}

func capture(level sentry.Level, err error) {
	if !enabled.Load() {
		return
	}

	event := sentry.NewEvent()
	event.Level = level
	event.Message = err.Error()
	event.Exception = []sentry.Exception{{
		Value: err.Error(),
		Type:  "error",
	}}
	sentry.CaptureEvent(event)
}
