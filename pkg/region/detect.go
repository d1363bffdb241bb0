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

package region

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/httpclient"
)

// regionAliases normalizes the long-form names the region-locale endpoint
// sometimes reports.
var regionAliases = map[string]string{
	"north_america": NA,
	"latin_america": LATAM,
	"europe":        EU,
	"asia_pacific":  AP,
	"korea":         KR,
	"brasil":        BR,
	"brazil":        BR,
}

type regionLocaleResponse struct {
	Region string `json:"region"`
	Locale string `json:"locale"`
}

// Detect asks the local Riot client for its configured region via
// /riotclient/region-locale and normalizes the answer to a selectable
// region code.
func Detect(ctx context.Context, client httpclient.HTTPClient, port int) (string, error) {
	url := fmt.Sprintf("https://127.0.0.1:%d/riotclient/region-locale", port)

	resp, body, err := client.GetWithBody(ctx, url)
	if err != nil {
		return "", fmt.Errorf("region detection request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("region detection returned status %d", resp.StatusCode)
	}

	var parsed regionLocaleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode region-locale response: %w", err)
	}

	detected := strings.ToLower(parsed.Region)
	if IsValid(detected) {
		return detected, nil
	}

	if mapped, ok := regionAliases[strings.ReplaceAll(detected, "-", "_")]; ok {
		return mapped, nil
	}

	return "", fmt.Errorf("client reported unknown region %q", detected)
}
