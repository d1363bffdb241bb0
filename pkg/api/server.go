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

// Package api exposes the local control surface as a REST API bound to
// 127.0.0.1. Everything the agent can do is reachable here: arm and disarm
// injections, start and stop monitoring, manage the region, list and
// export replays, and restore backups.
package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/config"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/fsm/replaysession"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/region"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/filesystem"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/matchdata"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/replaystore"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/riotlocal"
)

var ginModeOnce sync.Once

// Server wires the agent's services behind the REST routes.
type Server struct {
	monitor       *replaysession.Monitor
	store         *replaystore.Store
	riotService   *riotlocal.Service
	matchService  *matchdata.Service
	regionStore   *region.Store
	configManager config.ConfigManager
	fsService     filesystem.Service

	logger *zap.SugaredLogger
	router *gin.Engine
}

// NewServer creates a Server and registers all routes.
func NewServer(
	monitor *replaysession.Monitor,
	store *replaystore.Store,
	riotService *riotlocal.Service,
	matchService *matchdata.Service,
	regionStore *region.Store,
	configManager config.ConfigManager,
	fsService filesystem.Service,
) *Server {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		monitor:       monitor,
		store:         store,
		riotService:   riotService,
		matchService:  matchService,
		regionStore:   regionStore,
		configManager: configManager,
		fsService:     fsService,
		logger:        logger.For(logger.ComponentAPI),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)

		v1.GET("/region", s.handleGetRegion)
		v1.PUT("/region", s.handleSetRegion)
		v1.POST("/region/detect", s.handleDetectRegion)

		v1.GET("/replays", s.handleListReplays)
		v1.POST("/replays/export", s.handleExportReplay)

		v1.POST("/inject/arm", s.handleArm)
		v1.POST("/inject/disarm", s.handleDisarm)

		v1.POST("/monitor/start", s.handleMonitorStart)
		v1.POST("/monitor/stop", s.handleMonitorStop)

		v1.POST("/restore", s.handleRestore)
	}

	s.router = router
	return s
}

// Router returns the configured gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// HTTPServer builds an http.Server bound to loopback on the given port.
func (s *Server) HTTPServer(port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debugf("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func errorResponse(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
