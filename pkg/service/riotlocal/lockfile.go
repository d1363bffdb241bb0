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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrLockfileNotFound is returned when no lockfile exists, i.e. the Riot
// client is not running.
var ErrLockfileNotFound = errors.New("riot client lockfile not found")

// Lockfile is the parsed colon-delimited credential record the Riot client
// writes while it is running: name:pid:port:password:protocol.
type Lockfile struct {
	Name     string
	PID      int
	Port     int
	Password string
	Protocol string
}

// DefaultLockfilePaths returns the candidate lockfile locations, most
// specific first.
func DefaultLockfilePaths() []string {
	var paths []string
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		paths = append(paths, filepath.Join(localAppData, "Riot Games", "Riot Client", "Config", "lockfile"))
	}
	if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
		paths = append(paths, filepath.Join(userProfile, "AppData", "Local", "Riot Games", "Riot Client", "Config", "lockfile"))
	}
	return paths
}

// FindLockfile returns the first existing lockfile path.
func (s *Service) FindLockfile(ctx context.Context) (string, error) {
	for _, path := range s.lockfilePaths {
		exists, err := s.fsService.PathExists(ctx, path)
		if err != nil {
			return "", err
		}
		if exists {
			return path, nil
		}
	}
	return "", ErrLockfileNotFound
}

// ParseLockfile reads and parses the lockfile at the given path.
func (s *Service) ParseLockfile(ctx context.Context, path string) (Lockfile, error) {
	data, err := s.fsService.ReadFile(ctx, path)
	if err != nil {
		return Lockfile{}, fmt.Errorf("failed to read lockfile: %w", err)
	}

	parts := strings.Split(strings.TrimSpace(string(data)), ":")
	if len(parts) < 5 {
		return Lockfile{}, fmt.Errorf("malformed lockfile: expected 5 fields, got %d", len(parts))
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return Lockfile{}, fmt.Errorf("malformed lockfile pid %q: %w", parts[1], err)
	}
	port, err := strconv.Atoi(parts[2])
	if err != nil {
		return Lockfile{}, fmt.Errorf("malformed lockfile port %q: %w", parts[2], err)
	}

	return Lockfile{
		Name:     parts[0],
		PID:      pid,
		Port:     port,
		Password: parts[3],
		Protocol: parts[4],
	}, nil
}
