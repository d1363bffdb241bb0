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

// Package models holds the types shared between the services, the monitor
// and the control API.
package models

import "time"

// ReplayFile describes one .vrf file in the client's demo directory.
type ReplayFile struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
	// MatchID is the filename stem when it is a valid match UUID,
	// empty otherwise.
	MatchID string `json:"matchId,omitempty"`
}

// ReplayMetadata labels a replay file with human-readable match data.
// Fields that could not be resolved are "Unknown".
type ReplayMetadata struct {
	Filename        string `json:"filename"`
	Map             string `json:"map"`
	Mode            string `json:"mode"`
	Agent           string `json:"agent"`
	Score           string `json:"score"`
	MatchID         string `json:"matchId,omitempty"`
	GameStartMillis int64  `json:"gameStartMillis,omitempty"`
	GameVersion     string `json:"gameVersion,omitempty"`
	Checksum        string `json:"checksum,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Credentials is everything needed to call the local and regional APIs.
type Credentials struct {
	// Port and Password come from the lockfile.
	Port     int
	Password string

	// Tokens from the local entitlements endpoint.
	AccessToken       string
	EntitlementsToken string

	// PlayerID is the puuid (token subject).
	PlayerID string

	// ClientVersion as reported by external-sessions.
	ClientVersion string

	// ClientPlatform is the base64 platform JSON header value.
	ClientPlatform string
}

// SessionInfo is the subset of the GLZ session document the detector needs.
type SessionInfo struct {
	LoopState string `json:"loopState"`
}

// InjectionPair is an armed host/injection file combination. The host file
// is the one the client will load; the injection file replaces its content.
type InjectionPair struct {
	HostPath      string `json:"host"`
	InjectionPath string `json:"injection"`
}
