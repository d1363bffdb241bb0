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

package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/region"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/riotlocal"
)

type statusResponse struct {
	ClientRunning bool   `json:"clientRunning"`
	Monitoring    bool   `json:"monitoring"`
	State         string `json:"state"`
	Degraded      bool   `json:"degraded"`
	LastError     string `json:"lastError,omitempty"`

	Region        string                `json:"region"`
	Armed         *models.InjectionPair `json:"armed,omitempty"`
	CurrentBackup string                `json:"currentBackup,omitempty"`
}

func (s *Server) handleStatus(c *gin.Context) {
	running, err := riotlocal.IsClientRunning(c.Request.Context())
	if err != nil {
		s.logger.Debugf("client process check failed: %v", err)
	}

	resp := statusResponse{
		ClientRunning: running,
		Monitoring:    s.monitor.IsActive(),
		State:         s.monitor.CurrentState(),
		Degraded:      s.monitor.IsDegraded(),
		Region:        s.regionStore.Current(),
		Armed:         s.monitor.Armed(),
		CurrentBackup: s.store.CurrentBackup(),
	}
	if lastErr := s.monitor.LastError(); lastErr != nil {
		resp.LastError = lastErr.Error()
	}

	c.JSON(http.StatusOK, resp)
}

type regionEntry struct {
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
}

func (s *Server) handleGetRegion(c *gin.Context) {
	current := s.regionStore.Current()

	available := make([]regionEntry, 0, len(region.Available()))
	for _, code := range region.Available() {
		available = append(available, regionEntry{Code: code, DisplayName: region.DisplayName(code)})
	}

	c.JSON(http.StatusOK, gin.H{
		"region":      current,
		"displayName": region.DisplayName(current),
		"endpoints":   region.AllEndpoints(current),
		"available":   available,
	})
}

type setRegionRequest struct {
	Region string `json:"region" binding:"required"`
}

func (s *Server) handleSetRegion(c *gin.Context) {
	var req setRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	if !region.IsValid(req.Region) {
		errorResponse(c, http.StatusBadRequest, fmt.Errorf("unknown region %q", req.Region))
		return
	}

	if err := s.regionStore.Set(req.Region); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	if err := s.configManager.AtomicSetRegion(c.Request.Context(), req.Region); err != nil {
		s.logger.Warnf("failed to persist region: %v", err)
	}

	// The GLZ host changed, so cached session credentials are stale.
	s.monitor.InvalidateCredentials()

	c.JSON(http.StatusOK, gin.H{"region": req.Region, "displayName": region.DisplayName(req.Region)})
}

func (s *Server) handleDetectRegion(c *gin.Context) {
	ctx := c.Request.Context()

	lockPath, err := s.riotService.FindLockfile(ctx)
	if err != nil {
		errorResponse(c, http.StatusServiceUnavailable, fmt.Errorf("client not running: %w", err))
		return
	}
	lock, err := s.riotService.ParseLockfile(ctx, lockPath)
	if err != nil {
		errorResponse(c, http.StatusServiceUnavailable, err)
		return
	}

	detected, err := region.Detect(ctx, s.riotService.LocalClient(lock.Password), lock.Port)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err)
		return
	}

	if err := s.regionStore.Set(detected); err != nil {
		errorResponse(c, http.StatusBadGateway, err)
		return
	}
	if err := s.configManager.AtomicSetRegion(ctx, detected); err != nil {
		s.logger.Warnf("failed to persist region: %v", err)
	}
	s.monitor.InvalidateCredentials()

	c.JSON(http.StatusOK, gin.H{"region": detected, "displayName": region.DisplayName(detected)})
}

type replayEntry struct {
	models.ReplayFile

	Metadata *models.ReplayMetadata `json:"metadata,omitempty"`
}

func (s *Server) handleListReplays(c *gin.Context) {
	ctx := c.Request.Context()

	files, err := s.store.List(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	entries := make([]replayEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, replayEntry{ReplayFile: f})
	}

	// Metadata needs credentials from a running client; without one the
	// plain file list is still useful.
	if c.Query("metadata") != "false" && len(entries) > 0 {
		creds, err := s.riotService.Bootstrap(ctx)
		if err != nil {
			s.logger.Debugf("metadata skipped, credential bootstrap failed: %v", err)
			c.JSON(http.StatusOK, gin.H{"replays": entries, "metadataError": err.Error()})
			return
		}

		regionCode := s.regionStore.Current()
		for i := range entries {
			meta := s.matchService.ResolveMetadata(ctx, creds, regionCode, entries[i].Filename)
			entries[i].Metadata = &meta
		}
	}

	c.JSON(http.StatusOK, gin.H{"replays": entries})
}

type exportRequest struct {
	Filename string `json:"filename" binding:"required"`
	DestDir  string `json:"destDir" binding:"required"`
}

func (s *Server) handleExportReplay(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()

	// Best effort: an export without metadata still works, the name just
	// says Unknown.
	meta := models.ReplayMetadata{Filename: req.Filename}
	if creds, err := s.riotService.Bootstrap(ctx); err == nil {
		meta = s.matchService.ResolveMetadata(ctx, creds, s.regionStore.Current(), req.Filename)
	} else {
		s.logger.Debugf("export metadata skipped: %v", err)
	}

	exported, err := s.store.Export(ctx, req.Filename, req.DestDir, meta)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exported": exported})
}

type armRequest struct {
	Host      string `json:"host" binding:"required"`
	Injection string `json:"injection" binding:"required"`
}

func (s *Server) handleArm(c *gin.Context) {
	var req armRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	for _, path := range []string{req.Host, req.Injection} {
		exists, err := s.fsService.PathExists(ctx, path)
		if err != nil {
			errorResponse(c, http.StatusInternalServerError, err)
			return
		}
		if !exists {
			errorResponse(c, http.StatusBadRequest, fmt.Errorf("file not found: %s", path))
			return
		}
	}

	pair := models.InjectionPair{HostPath: req.Host, InjectionPath: req.Injection}
	s.monitor.Arm(pair)

	c.JSON(http.StatusOK, gin.H{"armed": pair})
}

func (s *Server) handleDisarm(c *gin.Context) {
	s.monitor.Disarm()
	c.JSON(http.StatusOK, gin.H{"armed": nil})
}

func (s *Server) handleMonitorStart(c *gin.Context) {
	// A degraded monitor restarts clean; the user asking for a start is
	// the intervention the backoff was waiting for.
	if s.monitor.IsDegraded() {
		s.monitor.ResetDegraded()
	}
	s.monitor.Start()
	c.JSON(http.StatusOK, gin.H{"monitoring": true, "state": s.monitor.CurrentState()})
}

func (s *Server) handleMonitorStop(c *gin.Context) {
	s.monitor.Stop()
	c.JSON(http.StatusOK, gin.H{"monitoring": false, "state": s.monitor.CurrentState()})
}

func (s *Server) handleRestore(c *gin.Context) {
	if err := s.store.Restore(c.Request.Context()); err != nil {
		errorResponse(c, http.StatusConflict, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": true})
}
