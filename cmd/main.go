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

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/zachleolewis/SoupsValorantReplayTool/internal/singleinstance"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/api"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/config"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/constants"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/control"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/fsm/replaysession"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/metrics"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/region"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/sentry"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/filesystem"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/httpclient"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/matchdata"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/replaystore"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/riotlocal"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/session"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/version"
)

func main() {
	// Initialize the global logger first thing
	logger.Initialize()
	defer logger.Sync()

	log := logger.For(logger.ComponentCore)
	log.Infof("Starting replay agent %s...", version.GetAppVersion())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Two agents swapping the same files would corrupt each other's backups.
	lock, err := singleinstance.Acquire(ctx)
	if err != nil {
		log.Errorf("Startup aborted: %v", err)
		os.Exit(1)
	}
	defer lock.Release()

	configManager := config.NewFileConfigManager()
	cfg, err := configManager.GetConfig(ctx, 0)
	if err != nil {
		log.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}

	if err := sentry.InitSentry(cfg.Agent.SentryDSN, version.GetAppVersion()); err != nil {
		log.Warnf("Sentry disabled: %v", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Start the metrics server
	metricsServer := metrics.SetupMetricsEndpoint(fmt.Sprintf("127.0.0.1:%d", cfg.Agent.MetricsPort))
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to shutdown metrics server: %v", err)
		}
	}()

	fsService := filesystem.NewDefaultService()

	replayDir := cfg.Agent.ReplayDirectory
	if replayDir == "" {
		replayDir, err = replaystore.DiscoverReplayDirectory(ctx, fsService)
		if err != nil {
			sentry.ReportIssuef(sentry.IssueTypeFatal, log, "No replay directory found: %v", err)
			os.Exit(1)
		}
	}
	backupDir := cfg.Agent.BackupDirectory
	if backupDir == "" {
		backupDir = filepath.Join(replayDir, constants.BackupDirectoryName)
	}
	log.Infof("Replay directory: %s", replayDir)

	store := replaystore.NewStore(fsService, replayDir, backupDir,
		replaystore.WithKeepBackups(cfg.Agent.KeepBackups),
		replaystore.WithCompression(cfg.Agent.CompressBackups),
	)

	riotService := riotlocal.NewService(fsService)

	remoteClient := httpclient.NewDefaultHTTPClient()
	sessionService := session.NewService(remoteClient)
	matchService := matchdata.NewService(remoteClient)

	regionStore := region.NewStore(cfg.Agent.Region)

	monitor := replaysession.NewMonitor(sessionService, store, riotService, regionStore)

	// Start the local control API
	apiServer := api.NewServer(monitor, store, riotService, matchService, regionStore, configManager, fsService)
	httpServer := apiServer.HTTPServer(cfg.Agent.APIPort)
	go func() {
		log.Infof("Control API listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Control API failed: %v", err)
			cancel()
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Failed to shutdown control API: %v", err)
		}
	}()

	// Start the control loop
	controlLoop := control.NewControlLoop(monitor, configManager)
	if err := controlLoop.Execute(ctx); err != nil {
		log.Errorf("Control loop failed: %v", err)
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Control loop failed: %v", err)
	}

	log.Info("Replay agent stopped")
}
