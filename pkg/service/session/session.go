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

// Package session fetches the player's live session document from the
// regional GLZ API. The detector only cares about its loopState field.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/constants"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/metrics"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/httpclient"
)

// Service fetches session documents.
type Service struct {
	client httpclient.HTTPClient
	logger *zap.SugaredLogger
}

// NewService creates a session Service using the given HTTP client.
func NewService(client httpclient.HTTPClient) *Service {
	return &Service{
		client: client,
		logger: logger.For(logger.ComponentSession),
	}
}

// Fetch retrieves the session for the credential's player from the given
// GLZ base URL.
func (s *Service) Fetch(ctx context.Context, glzBase string, creds *models.Credentials) (*models.SessionInfo, error) {
	url := fmt.Sprintf("%s/session/v1/sessions/%s", glzBase, creds.PlayerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("X-Riot-Entitlements-JWT", creds.EntitlementsToken)
	req.Header.Set("X-Riot-ClientPlatform", creds.ClientPlatform)
	req.Header.Set("X-Riot-ClientVersion", creds.ClientVersion)

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.ObserveSessionPollTime(constants.DefaultInstanceName, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session request returned status %d", resp.StatusCode)
	}

	var info models.SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	return &info, nil
}
