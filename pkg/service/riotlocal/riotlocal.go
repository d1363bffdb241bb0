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

// Package riotlocal bootstraps API credentials from the Riot client's
// local HTTPS API: lockfile discovery, entitlement tokens, the player
// UUID and the running client version.
package riotlocal

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/constants"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/filesystem"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/httpclient"
)

// platformInfo is the canonical platform document the remote APIs expect,
// base64-encoded, in the X-Riot-ClientPlatform header.
var platformInfo = map[string]string{
	"platformType":      "PC",
	"platformOS":        "Windows",
	"platformOSVersion": "10.0.19041.1.256.64bit",
	"platformChipset":   "Unknown",
}

// Service bootstraps credentials from the local client API.
type Service struct {
	lockfilePaths  []string
	fsService      filesystem.Service
	newLocalClient func(password string) httpclient.HTTPClient
	logger         *zap.SugaredLogger
}

// Option configures a Service.
type Option func(*Service)

// WithLockfilePaths overrides the lockfile candidate paths.
func WithLockfilePaths(paths ...string) Option {
	return func(s *Service) { s.lockfilePaths = paths }
}

// WithLocalClientFactory overrides how the basic-auth local client is
// built. Tests use this to inject intercepted clients.
func WithLocalClientFactory(factory func(password string) httpclient.HTTPClient) Option {
	return func(s *Service) { s.newLocalClient = factory }
}

// NewService creates a riotlocal Service.
func NewService(fsService filesystem.Service, opts ...Option) *Service {
	s := &Service{
		lockfilePaths: DefaultLockfilePaths(),
		fsService:     fsService,
		newLocalClient: func(password string) httpclient.HTTPClient {
			return httpclient.NewLocalHTTPClient(password)
		},
		logger: logger.For(logger.ComponentRiotLocal),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type entitlementsResponse struct {
	AccessToken string `json:"accessToken"`
	Token       string `json:"token"`
	Subject     string `json:"subject"`
}

type userinfoResponse struct {
	Sub string `json:"sub"`
}

type externalSession struct {
	ProductID string `json:"productId"`
	Version   string `json:"version"`
}

// LocalClient returns the basic-auth client for the given lockfile password.
func (s *Service) LocalClient(password string) httpclient.HTTPClient {
	return s.newLocalClient(password)
}

// Bootstrap discovers the lockfile and assembles a full credential set.
func (s *Service) Bootstrap(ctx context.Context) (*models.Credentials, error) {
	lockfilePath, err := s.FindLockfile(ctx)
	if err != nil {
		return nil, err
	}

	lockfile, err := s.ParseLockfile(ctx, lockfilePath)
	if err != nil {
		return nil, err
	}

	client := s.newLocalClient(lockfile.Password)
	baseURL := fmt.Sprintf("https://127.0.0.1:%d", lockfile.Port)

	entitlements, err := s.fetchEntitlements(ctx, client, baseURL)
	if err != nil {
		return nil, err
	}

	playerID := entitlements.Subject
	if playerID == "" {
		playerID, err = s.fetchPlayerID(ctx, client, baseURL, entitlements.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	clientVersion := s.fetchClientVersion(ctx, client, baseURL)

	return &models.Credentials{
		Port:              lockfile.Port,
		Password:          lockfile.Password,
		AccessToken:       entitlements.AccessToken,
		EntitlementsToken: entitlements.Token,
		PlayerID:          playerID,
		ClientVersion:     clientVersion,
		ClientPlatform:    PlatformHeader(),
	}, nil
}

func (s *Service) fetchEntitlements(ctx context.Context, client httpclient.HTTPClient, baseURL string) (*entitlementsResponse, error) {
	resp, body, err := client.GetWithBody(ctx, baseURL+"/entitlements/v1/token")
	if err != nil {
		return nil, fmt.Errorf("entitlements request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("entitlements request returned status %d", resp.StatusCode)
	}

	var parsed entitlementsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode entitlements response: %w", err)
	}
	if parsed.AccessToken == "" || parsed.Token == "" {
		return nil, fmt.Errorf("entitlements response missing tokens")
	}
	return &parsed, nil
}

// fetchPlayerID resolves the player UUID from the userinfo endpoint, falling
// back to the access token's JWT payload when that endpoint misbehaves.
func (s *Service) fetchPlayerID(ctx context.Context, client httpclient.HTTPClient, baseURL, accessToken string) (string, error) {
	resp, body, err := client.GetWithBody(ctx, baseURL+"/rso-auth/v1/authorization/userinfo")
	if err == nil && resp.StatusCode == http.StatusOK {
		var parsed userinfoResponse
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Sub != "" {
			return parsed.Sub, nil
		}
	}

	s.logger.Debugf("userinfo endpoint unavailable, extracting player id from access token")

	sub, err := subjectFromJWT(accessToken)
	if err != nil {
		return "", fmt.Errorf("failed to resolve player id: %w", err)
	}
	return sub, nil
}

// fetchClientVersion scans external-sessions for the valorant product and
// returns its version, or the default when none is reported.
func (s *Service) fetchClientVersion(ctx context.Context, client httpclient.HTTPClient, baseURL string) string {
	resp, body, err := client.GetWithBody(ctx, baseURL+"/product-session/v1/external-sessions")
	if err != nil || resp.StatusCode != http.StatusOK {
		s.logger.Debugf("external-sessions unavailable, using default client version")
		return constants.DefaultClientVersion
	}

	var sessions map[string]externalSession
	if err := json.Unmarshal(body, &sessions); err != nil {
		return constants.DefaultClientVersion
	}

	for _, session := range sessions {
		if session.ProductID == constants.ValorantProductID && session.Version != "" {
			return session.Version
		}
	}
	return constants.DefaultClientVersion
}

// subjectFromJWT decodes the payload of a JWT and returns its sub claim.
func subjectFromJWT(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("token is not a JWT")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode token payload: %w", err)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("failed to parse token payload: %w", err)
	}
	if claims.Sub == "" {
		return "", fmt.Errorf("token payload has no sub claim")
	}
	return claims.Sub, nil
}

// PlatformHeader returns the base64 platform JSON for the
// X-Riot-ClientPlatform header.
func PlatformHeader() string {
	raw, _ := json.Marshal(platformInfo)
	return base64.StdEncoding.EncodeToString(raw)
}
