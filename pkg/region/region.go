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

// Package region maps a region code to the vendor's API hostnames.
//
// Every player account lives on a shard; several regions share one shard
// (latam and br ride on na). The PD, GLZ and Shared hosts derive from the
// shard, the match-history-query hosts have their own per-shard table.
package region

import (
	"fmt"
	"sync"
)

// Region codes selectable by the user.
const (
	NA    = "na"
	EU    = "eu"
	AP    = "ap"
	KR    = "kr"
	LATAM = "latam"
	BR    = "br"
	PBE   = "pbe"
)

// regionShards maps a region code to its shard.
var regionShards = map[string]string{
	NA:    "na",
	LATAM: "na",
	BR:    "na",
	EU:    "eu",
	AP:    "ap",
	KR:    "kr",
	PBE:   "pbe",
}

// matchHistoryQueryHosts maps a shard to its match-history-query host.
// PBE has no dedicated deployment and uses the NA one.
var matchHistoryQueryHosts = map[string]string{
	"na":  "usw2.pp.sgp.pvp.net",
	"eu":  "euw3.pp.sgp.pvp.net",
	"ap":  "apse1.pp.sgp.pvp.net",
	"kr":  "kr.pp.sgp.pvp.net",
	"pbe": "usw2.pp.sgp.pvp.net",
}

// displayNames in selection order.
var displayNames = []struct {
	Code string
	Name string
}{
	{NA, "North America"},
	{EU, "Europe"},
	{AP, "Asia Pacific"},
	{KR, "Korea"},
	{LATAM, "Latin America"},
	{BR, "Brazil"},
	{PBE, "PBE (Beta)"},
}

// IsValid reports whether code is a selectable region.
func IsValid(code string) bool {
	for _, r := range displayNames {
		if r.Code == code {
			return true
		}
	}
	return false
}

// Available returns the selectable region codes in display order.
func Available() []string {
	codes := make([]string, 0, len(displayNames))
	for _, r := range displayNames {
		codes = append(codes, r.Code)
	}
	return codes
}

// DisplayName returns the human-readable name for a region code.
func DisplayName(code string) string {
	for _, r := range displayNames {
		if r.Code == code {
			return r.Name
		}
	}
	return "Unknown Region"
}

// Shard returns the shard for a region, falling back to na for unknown codes.
func Shard(regionCode string) string {
	if shard, ok := regionShards[regionCode]; ok {
		return shard
	}
	return "na"
}

// PDBase returns the Player Data API base URL for a region.
func PDBase(regionCode string) string {
	return fmt.Sprintf("https://pd.%s.a.pvp.net", Shard(regionCode))
}

// GLZBase returns the GLZ (game lifecycle) API base URL for a region.
// GLZ hosts carry the region itself, not just the shard.
func GLZBase(regionCode string) string {
	return fmt.Sprintf("https://glz-%s-1.%s.a.pvp.net", regionCode, Shard(regionCode))
}

// SharedBase returns the Shared API base URL for a region.
func SharedBase(regionCode string) string {
	return fmt.Sprintf("https://shared.%s.a.pvp.net", Shard(regionCode))
}

// MatchHistoryQueryBase returns the match-history-query API base URL for a region.
func MatchHistoryQueryBase(regionCode string) string {
	host, ok := matchHistoryQueryHosts[Shard(regionCode)]
	if !ok {
		host = matchHistoryQueryHosts["na"]
	}
	return "https://" + host
}

// Endpoints bundles all API base URLs for one region.
type Endpoints struct {
	PD                string `json:"playerData"`
	GLZ               string `json:"glz"`
	Shared            string `json:"shared"`
	MatchHistoryQuery string `json:"matchHistoryQuery"`
}

// AllEndpoints returns every API base URL for the given region.
func AllEndpoints(regionCode string) Endpoints {
	return Endpoints{
		PD:                PDBase(regionCode),
		GLZ:               GLZBase(regionCode),
		Shared:            SharedBase(regionCode),
		MatchHistoryQuery: MatchHistoryQueryBase(regionCode),
	}
}

// Store holds the currently selected region in memory. Persistence
// happens through the agent config.
type Store struct {
	mu      sync.RWMutex
	current string
}

// NewStore creates a Store with the given initial region, defaulting to na
// when the code is unknown.
func NewStore(initial string) *Store {
	if !IsValid(initial) {
		initial = NA
	}
	return &Store{current: initial}
}

// Current returns the selected region code.
func (s *Store) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set selects a region. Unknown codes are rejected.
func (s *Store) Set(code string) error {
	if !IsValid(code) {
		return fmt.Errorf("unknown region %q", code)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = code
	return nil
}
