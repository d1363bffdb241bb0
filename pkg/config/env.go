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
	"os"
	"strconv"
)

// Environment variables override the file so packaged installs can be
// tweaked without editing YAML.
const (
	envMetricsPort     = "REPLAY_AGENT_METRICS_PORT"
	envAPIPort         = "REPLAY_AGENT_API_PORT"
	envRegion          = "REPLAY_AGENT_REGION"
	envReplayDirectory = "REPLAY_AGENT_REPLAY_DIR"
	envBackupDirectory = "REPLAY_AGENT_BACKUP_DIR"
	envKeepBackups     = "REPLAY_AGENT_KEEP_BACKUPS"
	envCompressBackups = "REPLAY_AGENT_COMPRESS_BACKUPS"
	envSentryDSN       = "REPLAY_AGENT_SENTRY_DSN"
)

func applyEnvOverrides(cfg *FullConfig) {
	if v := os.Getenv(envMetricsPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Agent.MetricsPort = port
		}
	}
	if v := os.Getenv(envAPIPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Agent.APIPort = port
		}
	}
	if v := os.Getenv(envRegion); v != "" {
		cfg.Agent.Region = v
	}
	if v := os.Getenv(envReplayDirectory); v != "" {
		cfg.Agent.ReplayDirectory = v
	}
	if v := os.Getenv(envBackupDirectory); v != "" {
		cfg.Agent.BackupDirectory = v
	}
	if v := os.Getenv(envKeepBackups); v != "" {
		if keep, err := strconv.Atoi(v); err == nil && keep > 0 {
			cfg.Agent.KeepBackups = keep
		}
	}
	if v := os.Getenv(envCompressBackups); v != "" {
		if compress, err := strconv.ParseBool(v); err == nil {
			cfg.Agent.CompressBackups = compress
		}
	}
	if v := os.Getenv(envSentryDSN); v != "" {
		cfg.Agent.SentryDSN = v
	}
}
