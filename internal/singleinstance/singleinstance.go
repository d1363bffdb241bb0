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

// Package singleinstance guards against two agents fighting over the same
// replay files via a pid lock file in the temp directory.
package singleinstance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

const lockFileName = "valorant-replay-agent.lock"

// ErrAlreadyRunning is returned when another live agent holds the lock.
var ErrAlreadyRunning = fmt.Errorf("another instance is already running")

// Lock is a held single-instance lock.
type Lock struct {
	path string
}

// Acquire takes the single-instance lock. A lock file left behind by a
// dead process is treated as stale and replaced.
func Acquire(ctx context.Context) (*Lock, error) {
	path := filepath.Join(os.TempDir(), lockFileName)

	if data, err := os.ReadFile(path); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid != os.Getpid() {
			alive, err := process.PidExistsWithContext(ctx, int32(pid))
			if err == nil && alive {
				return nil, ErrAlreadyRunning
			}
		}
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() {
	_ = os.Remove(l.path)
}
