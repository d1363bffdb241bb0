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

package control_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/config"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/control"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/fsm/replaysession"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/region"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/filesystem"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/httpclient"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/replaystore"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/riotlocal"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/session"
)

var _ = Describe("ControlLoop", func() {
	var (
		tmpDir        string
		monitor       *replaysession.Monitor
		configManager *config.FileConfigManager
		loop          *control.ControlLoop
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "control")
		Expect(err).ToNot(HaveOccurred())

		fsService := filesystem.NewDefaultService()
		store := replaystore.NewStore(fsService, tmpDir, filepath.Join(tmpDir, "replay_backups"))
		riotService := riotlocal.NewService(fsService,
			riotlocal.WithLockfilePaths(filepath.Join(tmpDir, "lockfile")))
		sessionService := session.NewService(httpclient.NewDefaultHTTPClient())

		monitor = replaysession.NewMonitor(sessionService, store, riotService, region.NewStore(region.NA))
		configManager = config.NewFileConfigManager().WithConfigPath(filepath.Join(tmpDir, "config.yaml"))
		loop = control.NewControlLoop(monitor, configManager)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(tmpDir)).To(Succeed())
	})

	Describe("Reconcile", func() {
		It("succeeds with an inactive monitor", func() {
			Expect(loop.Reconcile(context.Background(), 1)).To(Succeed())
		})

		It("returns the context error when already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(loop.Reconcile(ctx, 1)).To(MatchError(context.Canceled))
		})

		It("creates the default config on the first cycle", func() {
			Expect(loop.Reconcile(context.Background(), 1)).To(Succeed())
			Expect(filepath.Join(tmpDir, "config.yaml")).To(BeAnExistingFile())
		})
	})

	Describe("Execute", func() {
		It("runs ticks and stops on context cancel", func() {
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() {
				done <- loop.Execute(ctx)
			}()

			// Let at least one tick fire before shutting down.
			time.Sleep(700 * time.Millisecond)
			cancel()

			Eventually(done, "2s").Should(Receive(BeNil()))
		})
	})

	It("exposes its collaborators", func() {
		Expect(loop.GetMonitor()).To(BeIdenticalTo(monitor))
		Expect(loop.GetConfigManager()).To(BeIdenticalTo(configManager))
	})
})
