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
	"github.com/tiendc/go-deepcopy"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/constants"
)

// FullConfig is the on-disk configuration document.
type FullConfig struct {
	Agent AgentConfig `yaml:"agent"` // Agent config, requires restart to take effect
}

// AgentConfig configures the agent's surfaces and file locations.
type AgentConfig struct {
	// MetricsPort exposes Prometheus metrics on 127.0.0.1.
	MetricsPort int `yaml:"metricsPort"`
	// APIPort exposes the local control API on 127.0.0.1.
	APIPort int `yaml:"apiPort"`

	// Region is the persisted region selection; empty means undetected.
	Region string `yaml:"region,omitempty"`

	// ReplayDirectory overrides the auto-discovered demo directory.
	ReplayDirectory string `yaml:"replayDirectory,omitempty"`
	// BackupDirectory overrides where backups are written.
	BackupDirectory string `yaml:"backupDirectory,omitempty"`
	// KeepBackups is how many backups cleanup retains.
	KeepBackups int `yaml:"keepBackups,omitempty"`
	// CompressBackups stores backups zstd-compressed.
	CompressBackups bool `yaml:"compressBackups,omitempty"`

	// SentryDSN enables crash reporting when set.
	SentryDSN string `yaml:"sentryDsn,omitempty"`
}

// DefaultConfig returns the configuration written on first start.
func DefaultConfig() FullConfig {
	return FullConfig{
		Agent: AgentConfig{
			MetricsPort: 8485,
			APIPort:     8484,
			KeepBackups: constants.DefaultKeepBackups,
		},
	}
}

// Clone creates a deep copy of FullConfig.
func (c FullConfig) Clone() FullConfig {
	var clone FullConfig
	_ = deepcopy.Copy(&clone.Agent, &c.Agent)
	return clone
}
