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

const (
	// ReplayFileExtension is the extension of the client's replay files.
	ReplayFileExtension = ".vrf"

	// BackupDirectoryName is the directory backups are written to,
	// relative to the agent's working directory unless overridden.
	BackupDirectoryName = "replay_backups"

	// BackupMarker separates the original file stem from the backup
	// timestamp in backup filenames.
	BackupMarker = "_backup_"

	// DefaultKeepBackups is how many backups cleanup retains.
	DefaultKeepBackups = 5

	// DefaultHistoryScanDepth is how many recent matches the history
	// fallback scans when match details are unavailable.
	DefaultHistoryScanDepth = 50
)
