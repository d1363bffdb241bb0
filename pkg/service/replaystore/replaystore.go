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

// Package replaystore manages the client's .vrf replay files: listing,
// backup, injection (swapping a host file's content), restore and backup
// cleanup.
//
// Injection never renames anything. The client loads a replay by the name
// it downloaded it under, so the swap copies the injection file's bytes
// over the host file and the backup keeps the host's original bytes for
// the restore after playback.
package replaystore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/constants"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/metrics"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/filesystem"
)

const zstdSuffix = ".zst"

// DefaultReplayDirectories returns the candidate demo directories, most
// specific first.
func DefaultReplayDirectories() []string {
	var paths []string
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		paths = append(paths, filepath.Join(localAppData, "VALORANT", "Saved", "Demos"))
	}
	if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
		paths = append(paths, filepath.Join(userProfile, "AppData", "Local", "VALORANT", "Saved", "Demos"))
	}
	return paths
}

// Store manages replay files and their backups.
type Store struct {
	replayDir       string
	backupDir       string
	keepBackups     int
	compressBackups bool

	fsService filesystem.Service
	logger    *zap.SugaredLogger

	mu            sync.Mutex
	currentBackup string
}

// Option configures a Store.
type Option func(*Store)

// WithKeepBackups overrides how many backups cleanup retains.
func WithKeepBackups(n int) Option {
	return func(s *Store) { s.keepBackups = n }
}

// WithCompression enables zstd compression of backup files.
func WithCompression(enabled bool) Option {
	return func(s *Store) { s.compressBackups = enabled }
}

// NewStore creates a Store for the given replay and backup directories.
func NewStore(fsService filesystem.Service, replayDir, backupDir string, opts ...Option) *Store {
	s := &Store{
		replayDir:   replayDir,
		backupDir:   backupDir,
		keepBackups: constants.DefaultKeepBackups,
		fsService:   fsService,
		logger:      logger.For(logger.ComponentReplayStore),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DiscoverReplayDirectory returns the first existing candidate demo
// directory, or an error when the client has never saved a replay.
func DiscoverReplayDirectory(ctx context.Context, fsService filesystem.Service) (string, error) {
	for _, dir := range DefaultReplayDirectories() {
		exists, err := fsService.PathExists(ctx, dir)
		if err != nil {
			return "", err
		}
		if exists {
			return dir, nil
		}
	}
	return "", fmt.Errorf("replay directory not found")
}

// ReplayDirectory returns the directory the store manages.
func (s *Store) ReplayDirectory() string {
	return s.replayDir
}

// List returns the .vrf files in the replay directory, newest first.
func (s *Store) List(ctx context.Context) ([]models.ReplayFile, error) {
	paths, err := s.fsService.Glob(ctx, filepath.Join(s.replayDir, "*"+constants.ReplayFileExtension))
	if err != nil {
		return nil, err
	}

	replays := make([]models.ReplayFile, 0, len(paths))
	for _, path := range paths {
		info, err := s.fsService.Stat(ctx, path)
		if err != nil {
			s.logger.Warnf("skipping unreadable replay %s: %v", path, err)
			continue
		}

		filename := filepath.Base(path)
		replays = append(replays, models.ReplayFile{
			Filename:   filename,
			Path:       path,
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
			MatchID:    MatchIDFromFilename(filename),
		})
	}

	sort.Slice(replays, func(i, j int) bool {
		return replays[i].ModifiedAt.After(replays[j].ModifiedAt)
	})
	return replays, nil
}

// MatchIDFromFilename returns the filename stem when it is a valid match
// UUID, empty otherwise.
func MatchIDFromFilename(filename string) string {
	stem := strings.TrimSuffix(filename, constants.ReplayFileExtension)
	if _, err := uuid.Parse(stem); err != nil {
		return ""
	}
	return strings.ToLower(stem)
}

// Backup copies the given replay file into the backup directory under
// {stem}_backup_{unix}.vrf and remembers it as the current backup.
func (s *Store) Backup(ctx context.Context, replayPath string) (string, error) {
	if err := s.fsService.EnsureDirectory(ctx, s.backupDir); err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(replayPath), constants.ReplayFileExtension)
	backupName := fmt.Sprintf("%s%s%d%s", stem, constants.BackupMarker, time.Now().Unix(), constants.ReplayFileExtension)
	backupPath := filepath.Join(s.backupDir, backupName)

	if s.compressBackups {
		backupPath += zstdSuffix
		if err := s.copyCompressed(ctx, replayPath, backupPath); err != nil {
			return "", fmt.Errorf("backup failed: %w", err)
		}
	} else {
		if err := s.fsService.CopyFile(ctx, replayPath, backupPath); err != nil {
			return "", fmt.Errorf("backup failed: %w", err)
		}
	}

	s.mu.Lock()
	s.currentBackup = backupPath
	s.mu.Unlock()

	s.logger.Infof("backup created: %s", filepath.Base(backupPath))
	return backupPath, nil
}

// Inject backs up the host file, then copies the injection file's bytes
// over it.
func (s *Store) Inject(ctx context.Context, pair models.InjectionPair) error {
	if _, err := s.Backup(ctx, pair.HostPath); err != nil {
		return err
	}

	if err := s.fsService.CopyFile(ctx, pair.InjectionPath, pair.HostPath); err != nil {
		return fmt.Errorf("injection failed: %w", err)
	}

	metrics.IncInjections()
	s.logger.Infof("injected %s -> %s", filepath.Base(pair.InjectionPath), filepath.Base(pair.HostPath))
	return nil
}

// CurrentBackup returns the path of the most recent backup, or empty.
func (s *Store) CurrentBackup() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentBackup
}

// Restore copies the current backup back over the original host file.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	backupPath := s.currentBackup
	s.mu.Unlock()

	if backupPath == "" {
		return fmt.Errorf("no backup to restore")
	}
	exists, err := s.fsService.PathExists(ctx, backupPath)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("backup %s no longer exists", filepath.Base(backupPath))
	}

	originalName, err := originalNameFromBackup(backupPath)
	if err != nil {
		return err
	}
	originalPath := filepath.Join(s.replayDir, originalName)

	if strings.HasSuffix(backupPath, zstdSuffix) {
		err = s.copyDecompressed(ctx, backupPath, originalPath)
	} else {
		err = s.fsService.CopyFile(ctx, backupPath, originalPath)
	}
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	metrics.IncRestores()
	s.logger.Infof("restored original file: %s", originalName)
	return nil
}

// originalNameFromBackup derives the original replay filename from a
// backup filename: everything before the backup marker plus the extension.
func originalNameFromBackup(backupPath string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(backupPath), zstdSuffix)
	stem := strings.TrimSuffix(name, constants.ReplayFileExtension)

	idx := strings.Index(stem, constants.BackupMarker)
	if idx < 0 {
		return "", fmt.Errorf("%s is not a backup file", name)
	}
	return stem[:idx] + constants.ReplayFileExtension, nil
}

// Cleanup removes all but the newest keepBackups backup files.
func (s *Store) Cleanup(ctx context.Context) error {
	pattern := filepath.Join(s.backupDir, "*"+constants.BackupMarker+"*")
	paths, err := s.fsService.Glob(ctx, pattern)
	if err != nil {
		return err
	}
	if len(paths) <= s.keepBackups {
		return nil
	}

	type backup struct {
		path    string
		modTime time.Time
	}
	backups := make([]backup, 0, len(paths))
	for _, path := range paths {
		info, err := s.fsService.Stat(ctx, path)
		if err != nil {
			continue
		}
		backups = append(backups, backup{path: path, modTime: info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	for _, old := range backups[min(s.keepBackups, len(backups)):] {
		if err := s.fsService.Remove(ctx, old.path); err != nil {
			s.logger.Warnf("failed to clean up %s: %v", filepath.Base(old.path), err)
			continue
		}
		s.logger.Debugf("cleaned up old backup: %s", filepath.Base(old.path))
	}
	return nil
}

func (s *Store) copyCompressed(ctx context.Context, src, dst string) error {
	data, err := s.fsService.ReadFile(ctx, src)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	compressed := enc.EncodeAll(data, make([]byte, 0, len(data)/2))
	if err := enc.Close(); err != nil {
		return err
	}

	return s.fsService.WriteFile(ctx, dst, compressed, 0o644)
}

func (s *Store) copyDecompressed(ctx context.Context, src, dst string) error {
	data, err := s.fsService.ReadFile(ctx, src)
	if err != nil {
		return err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return err
	}

	return s.fsService.WriteFile(ctx, dst, raw, 0o644)
}
