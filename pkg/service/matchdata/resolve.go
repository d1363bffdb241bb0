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

import (
	"context"
	"fmt"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/constants"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/replaystore"
)

const unknown = "Unknown"

// ResolveMetadata labels a replay file. Resolution order: match details
// (authoritative), then a scan of recent match history, then the replay
// summary. Each fallback fills less than the one before it; whatever
// cannot be resolved stays "Unknown". The returned metadata always carries
// the filename, even on total failure.
func (s *Service) ResolveMetadata(ctx context.Context, creds *models.Credentials, regionCode, filename string) models.ReplayMetadata {
	meta := models.ReplayMetadata{
		Filename: filename,
		Map:      unknown,
		Mode:     unknown,
		Agent:    unknown,
		Score:    unknown,
	}

	matchID := replaystore.MatchIDFromFilename(filename)
	if matchID == "" {
		meta.Error = "filename is not a match id"
		return meta
	}
	meta.MatchID = matchID

	if details, err := s.MatchDetails(ctx, creds, regionCode, matchID); err == nil {
		s.fillFromDetails(&meta, details, creds.PlayerID)
		return meta
	} else {
		s.logger.Debugf("match details unavailable for %s: %v", matchID, err)
	}

	if history, err := s.MatchHistory(ctx, creds, regionCode, 0, constants.DefaultHistoryScanDepth, ""); err == nil {
		for _, entry := range history {
			if entry.MatchID == matchID {
				meta.Map = MapDisplayName(entry.MapID)
				meta.Mode = ModeDisplayName(entry.QueueID)
				meta.GameStartMillis = entry.GameStartTime
				return meta
			}
		}
	} else {
		s.logger.Debugf("match history unavailable: %v", err)
	}

	if summary, err := s.ReplaySummary(ctx, creds, regionCode, matchID); err == nil {
		meta.GameVersion = summary.GameVersion
		meta.Checksum = summary.Checksum
		return meta
	} else {
		s.logger.Debugf("replay summary unavailable for %s: %v", matchID, err)
	}

	meta.Error = "could not fetch match data"
	return meta
}

func (s *Service) fillFromDetails(meta *models.ReplayMetadata, details *MatchDetails, playerID string) {
	meta.Map = MapDisplayName(details.MatchInfo.MapID)
	meta.Mode = ModeDisplayName(details.MatchInfo.QueueID)
	meta.GameStartMillis = details.MatchInfo.GameStartMillis
	if details.MatchInfo.MatchID != "" {
		meta.MatchID = details.MatchInfo.MatchID
	}

	playerTeam := ""
	for _, player := range details.Players {
		if player.Subject == playerID {
			meta.Agent = AgentDisplayName(player.CharacterID)
			playerTeam = player.TeamID
			break
		}
	}

	meta.Score = FormatScore(details, playerTeam)
}

// FormatScore renders the final score from the player's perspective with a
// (W)/(L)/(T) suffix. Without a resolvable player team the raw scores are
// shown in document order.
func FormatScore(details *MatchDetails, playerTeam string) string {
	if len(details.Teams) < 2 {
		return unknown
	}

	scores := make(map[string]int, len(details.Teams))
	order := make([]string, 0, len(details.Teams))
	for _, team := range details.Teams {
		scores[team.TeamID] = team.RoundsWon
		order = append(order, team.TeamID)
	}

	if playerTeam != "" {
		if playerScore, ok := scores[playerTeam]; ok {
			for _, teamID := range order {
				if teamID == playerTeam {
					continue
				}
				opponentScore := scores[teamID]
				switch {
				case playerScore > opponentScore:
					return fmt.Sprintf("%d-%d (W)", playerScore, opponentScore)
				case playerScore < opponentScore:
					return fmt.Sprintf("%d-%d (L)", playerScore, opponentScore)
				default:
					return fmt.Sprintf("%d-%d (T)", playerScore, opponentScore)
				}
			}
		}
	}

	return fmt.Sprintf("%d-%d", scores[order[0]], scores[order[1]])
}
