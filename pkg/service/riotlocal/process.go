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

package riotlocal

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// gameProcessNames are the executables that indicate a running game or
// Riot client.
var gameProcessNames = []string{
	"VALORANT-Win64-Shipping.exe",
	"RiotClientServices.exe",
}

// IsClientRunning reports whether a game or Riot client process exists.
// Used by the status endpoint so the UI can distinguish "client closed"
// from "client running but lockfile missing".
func IsClientRunning(ctx context.Context) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, err
	}

	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		for _, candidate := range gameProcessNames {
			if strings.EqualFold(name, candidate) {
				return true, nil
			}
		}
	}
	return false, nil
}
