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

package replaysession

// Detector states.
const (
	// StateDetached: no session is observable (client closed, credentials
	// missing, or monitoring just started).
	StateDetached = "detached"
	// StateLobby: the player sits in the menus.
	StateLobby = "lobby"
	// StateReplay: the client is loading or playing a replay.
	StateReplay = "replay"
)

// Detector events.
const (
	// EventSessionLobby is emitted when a poll observes loopState MENUS.
	EventSessionLobby = "session_lobby"
	// EventSessionReplay is emitted when a poll observes loopState REPLAY.
	EventSessionReplay = "session_replay"
	// EventSessionLost is emitted when the session disappears.
	EventSessionLost = "session_lost"
)
