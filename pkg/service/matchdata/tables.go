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

package matchdata

import "strings"

// mapNames translates the internal map codename (the tail of the mapId
// asset path) to the display name.
var mapNames = map[string]string{
	"Ascent":   "Ascent",
	"Bonsai":   "Split",
	"Canyon":   "Fracture",
	"Duality":  "Bind",
	"Foxtrot":  "Breeze",
	"Triad":    "Haven",
	"Port":     "Icebox",
	"Pitt":     "Pearl",
	"Jam":      "Lotus",
	"Juliett":  "Sunset",
	"Infinity": "Abyss",
	"Rook":     "Corrode",
	// Team deathmatch maps
	"HURM_Alley":    "District",
	"HURM_Bowl":     "Kasbah",
	"HURM_Helix":    "Drift",
	"HURM_Yard":     "Piazza",
	"HURM_HighTide": "Glitch",
	// Range / training maps
	"Poveglia":   "The Range",
	"PovegliaV2": "The Range",
	"NPEV2":      "Basic Training",
}

// queueModes translates a queue ID to the display mode name.
var queueModes = map[string]string{
	"competitive": "Competitive",
	"unrated":     "Unrated",
	"spikerush":   "Spike Rush",
	"deathmatch":  "Deathmatch",
	"escalation":  "Escalation",
	"replication": "Replication",
	"snowball":    "Snowball Fight",
	"swiftplay":   "Swiftplay",
}

// agentNames translates a character UUID to the agent display name.
var agentNames = map[string]string{
	"add6443a-41bd-e414-f6ad-e58d267f4e95": "Jett",
	"f94c3b30-42be-e959-889c-5aa313dba261": "Raze",
	"a3bfb853-43b2-7238-a4f1-ad90e9e46bcc": "Reyna",
	"eb93336a-449b-9c1b-0a54-a891f7921d69": "Phoenix",
	"5f8d3a7f-467b-97f3-062c-13acf203c006": "Breach",
	"6f2a04ca-43e0-be17-7f36-b3908627744d": "Skye",
	"117ed9e3-49f3-6512-3ccf-0cada7e3823b": "Cypher",
	"1e58de9c-4950-5125-93e9-a0aee9f98746": "Killjoy",
	"569fdd95-4d10-43ab-ca70-79becc718b46": "Sage",
	"320b2a48-4d9b-a075-30f1-1f93a9b638fa": "Sova",
	"707eab51-4836-f488-046a-cda6bf494859": "Viper",
	"8e253930-4c05-31dd-1b6c-968525494517": "Omen",
	"9f0d8ba9-4140-b941-57d3-a7ad57c6b417": "Brimstone",
	"41fb69c1-4189-7b37-f117-bcaf1e96f1bf": "Astra",
	"7f94d92c-4234-0a36-9646-3a87eb8b5c89": "Yoru",
	"22697a3d-45bf-8dd7-4fec-84a9e28c69d7": "Chamber",
	"bb2a4828-46eb-8cd1-e765-15848195d751": "Neon",
	"a5e4c8a6-0ea5-4e0f-97a4-70a6e4e60ba4": "Fade",
	"95b78ed7-4637-86d9-7e41-71ba8c293152": "Harbor",
	"e370fa57-4757-3604-3648-499e1f642d3f": "Gekko",
	"cc8b64c8-4b25-4ff9-6e7f-37b4da43d235": "Deadlock",
	"0e38b510-41a8-5780-5e8f-568b2a4f2d6c": "Iso",
	"1dbf2edd-7729-4459-b1ad-0b8dc52a8afb": "Clove",
	"efba5359-4016-a1e5-7626-b1ae76895940": "Vyse",
}

// MapDisplayName converts a mapId asset path like
// /Game/Maps/Duality/Duality to its display name. Unmapped tails pass
// through unchanged.
func MapDisplayName(mapID string) string {
	tail := mapID
	if idx := strings.LastIndex(mapID, "/"); idx >= 0 {
		tail = mapID[idx+1:]
	}
	if name, ok := mapNames[tail]; ok {
		return name
	}
	return tail
}

// ModeDisplayName converts a queue ID to its display name. Unmapped IDs
// pass through unchanged.
func ModeDisplayName(queueID string) string {
	if name, ok := queueModes[strings.ToLower(queueID)]; ok {
		return name
	}
	return queueID
}

// AgentDisplayName converts a character UUID to the agent name. Unmapped
// IDs pass through unchanged.
func AgentDisplayName(characterID string) string {
	if name, ok := agentNames[strings.ToLower(characterID)]; ok {
		return name
	}
	return characterID
}
