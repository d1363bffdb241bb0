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

package replaystore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/filesystem"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/replaystore"
)

const (
	matchA = "0189e3fc-7a55-44f5-8e36-9a0d2b7e8f10"
	matchB = "9b2c1de4-1111-4ccc-bb55-0e9f8a7d6c5b"
)

var _ = Describe("Store", func() {
	var (
		ctx       context.Context
		replayDir string
		backupDir string
		store     *replaystore.Store
	)

	writeReplay := func(name, content string, modTime time.Time) string {
		path := filepath.Join(replayDir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		Expect(os.Chtimes(path, modTime, modTime)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		replayDir, err = os.MkdirTemp("", "replays")
		Expect(err).ToNot(HaveOccurred())
		backupDir = filepath.Join(replayDir, "replay_backups")

		store = replaystore.NewStore(filesystem.NewDefaultService(), replayDir, backupDir)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(replayDir)).To(Succeed())
	})

	Describe("List", func() {
		It("lists .vrf files newest first with their match ids", func() {
			now := time.Now()
			writeReplay(matchA+".vrf", "old", now.Add(-time.Hour))
			writeReplay(matchB+".vrf", "new", now)
			writeReplay("notes.txt", "ignored", now)

			replays, err := store.List(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(replays).To(HaveLen(2))
			Expect(replays[0].Filename).To(Equal(matchB + ".vrf"))
			Expect(replays[0].MatchID).To(Equal(matchB))
			Expect(replays[1].Filename).To(Equal(matchA + ".vrf"))
			Expect(replays[1].Size).To(Equal(int64(3)))
		})

		It("returns an empty list for an empty directory", func() {
			replays, err := store.List(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(replays).To(BeEmpty())
		})
	})

	Describe("MatchIDFromFilename", func() {
		It("returns the lowercased stem for a valid match uuid", func() {
			Expect(replaystore.MatchIDFromFilename(strings.ToUpper(matchA) + ".vrf")).To(Equal(matchA))
		})

		It("returns empty for non-uuid stems", func() {
			Expect(replaystore.MatchIDFromFilename("notes.vrf")).To(BeEmpty())
		})
	})

	Describe("Backup and Inject", func() {
		It("backs up the host bytes and remembers the backup", func() {
			hostPath := writeReplay(matchA+".vrf", "host bytes", time.Now())

			backupPath, err := store.Backup(ctx, hostPath)
			Expect(err).ToNot(HaveOccurred())
			Expect(filepath.Base(backupPath)).To(HavePrefix(matchA + "_backup_"))
			Expect(filepath.Base(backupPath)).To(HaveSuffix(".vrf"))
			Expect(store.CurrentBackup()).To(Equal(backupPath))

			data, err := os.ReadFile(backupPath)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("host bytes"))
		})

		It("swaps the injection bytes over the host file", func() {
			hostPath := writeReplay(matchA+".vrf", "host bytes", time.Now())
			injectionPath := writeReplay(matchB+".vrf", "injected bytes", time.Now())

			err := store.Inject(ctx, models.InjectionPair{HostPath: hostPath, InjectionPath: injectionPath})
			Expect(err).ToNot(HaveOccurred())

			data, err := os.ReadFile(hostPath)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("injected bytes"))

			backup, err := os.ReadFile(store.CurrentBackup())
			Expect(err).ToNot(HaveOccurred())
			Expect(string(backup)).To(Equal("host bytes"))
		})
	})

	Describe("Restore", func() {
		It("puts the original bytes back after an injection", func() {
			hostPath := writeReplay(matchA+".vrf", "host bytes", time.Now())
			injectionPath := writeReplay(matchB+".vrf", "injected bytes", time.Now())

			Expect(store.Inject(ctx, models.InjectionPair{HostPath: hostPath, InjectionPath: injectionPath})).To(Succeed())
			Expect(store.Restore(ctx)).To(Succeed())

			data, err := os.ReadFile(hostPath)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("host bytes"))
		})

		It("fails when no backup exists", func() {
			Expect(store.Restore(ctx)).To(MatchError(ContainSubstring("no backup")))
		})

		It("fails when the backup file vanished", func() {
			hostPath := writeReplay(matchA+".vrf", "host bytes", time.Now())
			backupPath, err := store.Backup(ctx, hostPath)
			Expect(err).ToNot(HaveOccurred())
			Expect(os.Remove(backupPath)).To(Succeed())

			Expect(store.Restore(ctx)).To(MatchError(ContainSubstring("no longer exists")))
		})
	})

	Describe("Compressed backups", func() {
		BeforeEach(func() {
			store = replaystore.NewStore(filesystem.NewDefaultService(), replayDir, backupDir,
				replaystore.WithCompression(true))
		})

		It("writes zstd backups and restores them transparently", func() {
			hostPath := writeReplay(matchA+".vrf", "host bytes", time.Now())
			injectionPath := writeReplay(matchB+".vrf", "injected bytes", time.Now())

			Expect(store.Inject(ctx, models.InjectionPair{HostPath: hostPath, InjectionPath: injectionPath})).To(Succeed())
			Expect(store.CurrentBackup()).To(HaveSuffix(".vrf.zst"))

			Expect(store.Restore(ctx)).To(Succeed())

			data, err := os.ReadFile(hostPath)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("host bytes"))
		})
	})

	Describe("Cleanup", func() {
		BeforeEach(func() {
			store = replaystore.NewStore(filesystem.NewDefaultService(), replayDir, backupDir,
				replaystore.WithKeepBackups(2))
		})

		It("keeps only the newest backups", func() {
			Expect(os.MkdirAll(backupDir, 0o755)).To(Succeed())

			now := time.Now()
			names := []string{
				matchA + "_backup_1000.vrf",
				matchA + "_backup_2000.vrf",
				matchA + "_backup_3000.vrf",
				matchA + "_backup_4000.vrf",
			}
			for i, name := range names {
				path := filepath.Join(backupDir, name)
				Expect(os.WriteFile(path, []byte("backup"), 0o644)).To(Succeed())
				modTime := now.Add(time.Duration(i-len(names)) * time.Minute)
				Expect(os.Chtimes(path, modTime, modTime)).To(Succeed())
			}

			Expect(store.Cleanup(ctx)).To(Succeed())

			remaining, err := filepath.Glob(filepath.Join(backupDir, "*"))
			Expect(err).ToNot(HaveOccurred())
			Expect(remaining).To(HaveLen(2))
			Expect(remaining).To(ContainElement(filepath.Join(backupDir, names[2])))
			Expect(remaining).To(ContainElement(filepath.Join(backupDir, names[3])))
		})

		It("leaves everything alone under the limit", func() {
			Expect(os.MkdirAll(backupDir, 0o755)).To(Succeed())
			path := filepath.Join(backupDir, matchA+"_backup_1000.vrf")
			Expect(os.WriteFile(path, []byte("backup"), 0o644)).To(Succeed())

			Expect(store.Cleanup(ctx)).To(Succeed())
			Expect(path).To(BeAnExistingFile())
		})
	})

	Describe("Export", func() {
		It("builds the descriptive export name from metadata", func() {
			writeReplay(matchA+".vrf", "replay bytes", time.Now())
			destDir := filepath.Join(replayDir, "exports")

			meta := models.ReplayMetadata{Map: "Bind", Mode: "Competitive", Score: "13-7 (W)"}
			exportPath, err := store.Export(ctx, matchA+".vrf", destDir, meta)
			Expect(err).ToNot(HaveOccurred())

			base := filepath.Base(exportPath)
			Expect(base).To(HavePrefix("VALORANT_Bind_Competitive_13-7-(W)_"))
			Expect(base).To(HaveSuffix(".vrf"))

			data, err := os.ReadFile(exportPath)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("replay bytes"))
		})

		It("labels missing metadata parts as Unknown", func() {
			writeReplay(matchA+".vrf", "replay bytes", time.Now())
			destDir := filepath.Join(replayDir, "exports")

			exportPath, err := store.Export(ctx, matchA+".vrf", destDir, models.ReplayMetadata{})
			Expect(err).ToNot(HaveOccurred())
			Expect(filepath.Base(exportPath)).To(HavePrefix("VALORANT_Unknown_Unknown_Unknown_"))
		})

		It("fails for a replay that does not exist", func() {
			_, err := store.Export(ctx, "missing.vrf", filepath.Join(replayDir, "exports"), models.ReplayMetadata{})
			Expect(err).To(MatchError(ContainSubstring("not found")))
		})
	})
})
