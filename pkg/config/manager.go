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

package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/backoff"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/filesystem"
)

// DefaultConfigPath is the default path to the config file, next to the
// binary's working directory.
const DefaultConfigPath = "config.yaml"

// ConfigManager is the interface for config management.
type ConfigManager interface {
	// GetConfig returns the current config
	GetConfig(ctx context.Context, tick uint64) (FullConfig, error)
	// AtomicSetRegion persists a region selection
	AtomicSetRegion(ctx context.Context, region string) error
}

// FileConfigManager implements ConfigManager by reading a YAML file.
// A missing file is created with defaults; repeated read failures go
// through the backoff manager so a corrupt file does not spin the loop.
type FileConfigManager struct {
	configPath string
	fsService  filesystem.Service
	logger     *zap.SugaredLogger

	// mu serializes read-modify-write cycles on the file.
	mu sync.Mutex

	backoffManager *backoff.BackoffManager
}

// NewFileConfigManager creates a FileConfigManager for the default path.
func NewFileConfigManager() *FileConfigManager {
	log := logger.For(logger.ComponentConfigManager)
	return &FileConfigManager{
		configPath:     DefaultConfigPath,
		fsService:      filesystem.NewDefaultService(),
		logger:         log,
		backoffManager: backoff.NewBackoffManager(backoff.DefaultConfig("ConfigManager", log)),
	}
}

// WithConfigPath overrides the config file location.
func (m *FileConfigManager) WithConfigPath(path string) *FileConfigManager {
	m.configPath = path
	return m
}

// WithFileSystemService allows setting a custom filesystem service,
// useful for testing.
func (m *FileConfigManager) WithFileSystemService(fsService filesystem.Service) *FileConfigManager {
	m.fsService = fsService
	return m
}

// GetConfig returns the current config, creating the file with defaults
// when it does not exist yet.
func (m *FileConfigManager) GetConfig(ctx context.Context, tick uint64) (FullConfig, error) {
	if ctx.Err() != nil {
		return FullConfig{}, ctx.Err()
	}

	if m.backoffManager.ShouldSkipOperation(tick) {
		return FullConfig{}, m.backoffManager.GetBackoffError(tick)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.readConfig(ctx)
	if err != nil {
		m.backoffManager.SetError(err, tick)
		return FullConfig{}, err
	}

	m.backoffManager.Reset()
	applyEnvOverrides(&cfg)

	// Callers get their own copy; mutating it never leaks into a later read.
	return cfg.Clone(), nil
}

// AtomicSetRegion persists the region selection with a full
// read-modify-write cycle under the manager mutex.
func (m *FileConfigManager) AtomicSetRegion(ctx context.Context, regionCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.readConfig(ctx)
	if err != nil {
		return err
	}

	updated := cfg.Clone()
	updated.Agent.Region = regionCode
	return m.writeConfig(ctx, updated)
}

func (m *FileConfigManager) readConfig(ctx context.Context) (FullConfig, error) {
	exists, err := m.fsService.PathExists(ctx, m.configPath)
	if err != nil {
		return FullConfig{}, fmt.Errorf("failed to check config file: %w", err)
	}

	if !exists {
		cfg := DefaultConfig()
		if err := m.writeConfig(ctx, cfg); err != nil {
			return FullConfig{}, err
		}
		m.logger.Infof("created default config at %s", m.configPath)
		return cfg, nil
	}

	data, err := m.fsService.ReadFile(ctx, m.configPath)
	if err != nil {
		return FullConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FullConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FullConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Fill zero values so a hand-edited partial file still works.
	defaults := DefaultConfig()
	if cfg.Agent.MetricsPort == 0 {
		cfg.Agent.MetricsPort = defaults.Agent.MetricsPort
	}
	if cfg.Agent.APIPort == 0 {
		cfg.Agent.APIPort = defaults.Agent.APIPort
	}
	if cfg.Agent.KeepBackups == 0 {
		cfg.Agent.KeepBackups = defaults.Agent.KeepBackups
	}

	return cfg, nil
}

func (m *FileConfigManager) writeConfig(ctx context.Context, cfg FullConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := m.fsService.WriteFile(ctx, m.configPath, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
