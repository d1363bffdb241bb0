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

// Package matchdata fetches match metadata from the regional PD and
// match-history-query APIs and resolves replay labels from it.
package matchdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/region"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/httpclient"
)

// Service fetches match metadata.
type Service struct {
	client httpclient.HTTPClient
	logger *zap.SugaredLogger
}

// NewService creates a matchdata Service using the given HTTP client.
func NewService(client httpclient.HTTPClient) *Service {
	return &Service{
		client: client,
		logger: logger.For(logger.ComponentMatchData),
	}
}

// HistoryEntry is one match in the player's history.
type HistoryEntry struct {
	MatchID       string `json:"MatchID"`
	MapID         string `json:"MapID"`
	QueueID       string `json:"QueueID"`
	GameStartTime int64  `json:"GameStartTime"`
}

type historyResponse struct {
	History []HistoryEntry `json:"History"`
}

// MatchDetails is the detailed match document.
type MatchDetails struct {
	MatchInfo struct {
		MatchID         string `json:"matchId"`
		MapID           string `json:"mapId"`
		QueueID         string `json:"queueID"`
		GameStartMillis int64  `json:"gameStartMillis"`
	} `json:"matchInfo"`
	Players []struct {
		Subject     string `json:"subject"`
		CharacterID string `json:"characterId"`
		TeamID      string `json:"teamId"`
	} `json:"players"`
	Teams []struct {
		TeamID    string `json:"teamId"`
		RoundsWon int    `json:"roundsWon"`
	} `json:"teams"`
}

// ReplaySummary is the match-history-query summary document.
type ReplaySummary struct {
	GameVersion string `json:"GameVersion"`
	Checksum    string `json:"Checksum"`
}

// get performs an authenticated GET against a regional API.
func (s *Service) get(ctx context.Context, creds *models.Credentials, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("X-Riot-Entitlements-JWT", creds.EntitlementsToken)
	req.Header.Set("X-Riot-ClientPlatform", creds.ClientPlatform)
	req.Header.Set("X-Riot-ClientVersion", creds.ClientVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// MatchHistory fetches a slice of the player's match history. queue may be
// empty to fetch all queues.
func (s *Service) MatchHistory(ctx context.Context, creds *models.Credentials, regionCode string, startIndex, endIndex int, queue string) ([]HistoryEntry, error) {
	query := url.Values{}
	query.Set("startIndex", strconv.Itoa(startIndex))
	query.Set("endIndex", strconv.Itoa(endIndex))
	if queue != "" {
		query.Set("queue", queue)
	}

	rawURL := fmt.Sprintf("%s/match-history/v1/history/%s?%s",
		region.PDBase(regionCode), creds.PlayerID, query.Encode())

	body, err := s.get(ctx, creds, rawURL)
	if err != nil {
		return nil, fmt.Errorf("match history: %w", err)
	}

	var parsed historyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode match history: %w", err)
	}
	return parsed.History, nil
}

// MatchDetails fetches the detailed document for one match.
func (s *Service) MatchDetails(ctx context.Context, creds *models.Credentials, regionCode, matchID string) (*MatchDetails, error) {
	rawURL := fmt.Sprintf("%s/match-details/v1/matches/%s", region.PDBase(regionCode), matchID)

	body, err := s.get(ctx, creds, rawURL)
	if err != nil {
		return nil, fmt.Errorf("match details: %w", err)
	}

	var parsed MatchDetails
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode match details: %w", err)
	}
	return &parsed, nil
}

// ReplaySummary fetches the replay summary for one match from the
// match-history-query API.
func (s *Service) ReplaySummary(ctx context.Context, creds *models.Credentials, regionCode, matchID string) (*ReplaySummary, error) {
	rawURL := fmt.Sprintf("%s/match-history-query/v3/product/valorant/matchId/%s/infoType/summary",
		region.MatchHistoryQueryBase(regionCode), matchID)

	body, err := s.get(ctx, creds, rawURL)
	if err != nil {
		return nil, fmt.Errorf("replay summary: %w", err)
	}

	var parsed ReplaySummary
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode replay summary: %w", err)
	}
	return &parsed, nil
}
