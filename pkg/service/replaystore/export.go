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

package replaystore

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/constants"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
)

// filenameSanitizer strips everything that is not safe in a filename part.
var filenameSanitizer = regexp.MustCompile(`[^A-Za-z0-9()-]+`)

// Export copies a replay into destDir under a descriptive name built from
// its metadata: VALORANT_{map}_{mode}_{score}_{timestamp}.vrf.
func (s *Store) Export(ctx context.Context, filename, destDir string, meta models.ReplayMetadata) (string, error) {
	srcPath := filepath.Join(s.replayDir, filepath.Base(filename))
	exists, err := s.fsService.PathExists(ctx, srcPath)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("replay %s not found", filename)
	}

	if err := s.fsService.EnsureDirectory(ctx, destDir); err != nil {
		return "", err
	}

	exportName := fmt.Sprintf("VALORANT_%s_%s_%s_%s%s",
		sanitizePart(meta.Map),
		sanitizePart(meta.Mode),
		sanitizePart(meta.Score),
		time.Now().Format("20060102_150405"),
		constants.ReplayFileExtension,
	)
	exportPath := filepath.Join(destDir, exportName)

	if err := s.fsService.CopyFile(ctx, srcPath, exportPath); err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	s.logger.Infof("exported %s as %s", filename, exportName)
	return exportPath, nil
}

func sanitizePart(part string) string {
	part = strings.TrimSpace(part)
	if part == "" {
		part = "Unknown"
	}
	sanitized := filenameSanitizer.ReplaceAllString(part, "-")
	return strings.Trim(sanitized, "-")
}
