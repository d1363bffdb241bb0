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
	// LockfileUser is the fixed basic-auth user the Riot client accepts
	// for its local HTTPS API.
	LockfileUser = "riot"

	// LocalAPITimeout bounds requests against the local client API.
	LocalAPITimeout = 10 * time.Second

	// RemoteAPITimeout bounds requests against the regional pvp.net APIs.
	RemoteAPITimeout = 30 * time.Second

	// DefaultClientVersion is used when the external-sessions endpoint does
	// not report a valorant session version.
	DefaultClientVersion = "release-08.11-shipping-15-2813485"

	// ValorantProductID identifies the valorant entry in the
	// external-sessions response.
	ValorantProductID = "valorant"

	// LoopStateMenus is the lobby loop state reported by the session API.
	LoopStateMenus = "MENUS"
	// LoopStateReplay is the replay-playback loop state.
	LoopStateReplay = "REPLAY"
	// LoopStatePregame and LoopStateIngame occur during live matches and
	// are ignored by the detector.
	LoopStatePregame = "PREGAME"
	LoopStateIngame  = "INGAME"
)
