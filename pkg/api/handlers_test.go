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

package api_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/api"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/config"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/fsm/replaysession"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/region"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/filesystem"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/httpclient"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/matchdata"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/replaystore"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/riotlocal"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/session"
)

const matchID = "0189e3fc-7a55-44f5-8e36-9a0d2b7e8f10"

var _ = Describe("Control API", func() {
	var (
		tmpDir        string
		replayDir     string
		hostPath      string
		server        *api.Server
		monitor       *replaysession.Monitor
		store         *replaystore.Store
		regionStore   *region.Store
		configManager *config.FileConfigManager
	)

	doJSON := func(method, path string, body any) *httptest.ResponseRecorder {
		var reader *bytes.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			Expect(err).ToNot(HaveOccurred())
			reader = bytes.NewReader(raw)
		} else {
			reader = bytes.NewReader(nil)
		}

		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) map[string]any {
		var parsed map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &parsed)).To(Succeed())
		return parsed
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "api")
		Expect(err).ToNot(HaveOccurred())

		replayDir = filepath.Join(tmpDir, "demos")
		Expect(os.MkdirAll(replayDir, 0o755)).To(Succeed())
		hostPath = filepath.Join(replayDir, matchID+".vrf")
		Expect(os.WriteFile(hostPath, []byte("host bytes"), 0o644)).To(Succeed())

		fsService := filesystem.NewDefaultService()
		store = replaystore.NewStore(fsService, replayDir, filepath.Join(replayDir, "replay_backups"))

		// No lockfile candidates exist, so credential-dependent paths
		// behave like the client being closed.
		riotService := riotlocal.NewService(fsService,
			riotlocal.WithLockfilePaths(filepath.Join(tmpDir, "lockfile")))

		remoteClient := httpclient.NewDefaultHTTPClient()
		matchService := matchdata.NewService(remoteClient)
		sessionService := session.NewService(remoteClient)

		regionStore = region.NewStore(region.NA)
		configManager = config.NewFileConfigManager().WithConfigPath(filepath.Join(tmpDir, "config.yaml"))

		monitor = replaysession.NewMonitor(sessionService, store, riotService, regionStore)

		server = api.NewServer(monitor, store, riotService, matchService, regionStore, configManager, fsService)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(tmpDir)).To(Succeed())
	})

	Describe("GET /api/v1/status", func() {
		It("reports the idle baseline", func() {
			rec := doJSON(http.MethodGet, "/api/v1/status", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			status := decode(rec)
			Expect(status["monitoring"]).To(BeFalse())
			Expect(status["state"]).To(Equal(replaysession.StateDetached))
			Expect(status["region"]).To(Equal(region.NA))
			Expect(status).ToNot(HaveKey("armed"))
		})
	})

	Describe("region endpoints", func() {
		It("lists the current and available regions", func() {
			rec := doJSON(http.MethodGet, "/api/v1/region", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			body := decode(rec)
			Expect(body["region"]).To(Equal(region.NA))
			Expect(body["available"]).To(HaveLen(7))
		})

		It("selects and persists a valid region", func() {
			rec := doJSON(http.MethodPut, "/api/v1/region", map[string]string{"region": "eu"})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(regionStore.Current()).To(Equal(region.EU))

			cfg, err := configManager.GetConfig(context.Background(), 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Agent.Region).To(Equal("eu"))
		})

		It("rejects an unknown region", func() {
			rec := doJSON(http.MethodPut, "/api/v1/region", map[string]string{"region": "atlantis"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(regionStore.Current()).To(Equal(region.NA))
		})

		It("answers 503 on detect while the client is closed", func() {
			rec := doJSON(http.MethodPost, "/api/v1/region/detect", nil)
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("GET /api/v1/replays", func() {
		It("lists replay files without metadata on request", func() {
			rec := doJSON(http.MethodGet, "/api/v1/replays?metadata=false", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			body := decode(rec)
			replays := body["replays"].([]any)
			Expect(replays).To(HaveLen(1))

			entry := replays[0].(map[string]any)
			Expect(entry["filename"]).To(Equal(matchID + ".vrf"))
			Expect(entry["matchId"]).To(Equal(matchID))
		})

		It("degrades to a plain list when credentials are unavailable", func() {
			rec := doJSON(http.MethodGet, "/api/v1/replays", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			body := decode(rec)
			Expect(body["replays"]).To(HaveLen(1))
			Expect(body["metadataError"]).ToNot(BeEmpty())
		})
	})

	Describe("injection arming", func() {
		It("arms a valid pair", func() {
			injectPath := filepath.Join(replayDir, "9b2c1de4-1111-4ccc-bb55-0e9f8a7d6c5b.vrf")
			Expect(os.WriteFile(injectPath, []byte("injected"), 0o644)).To(Succeed())

			rec := doJSON(http.MethodPost, "/api/v1/inject/arm",
				map[string]string{"host": hostPath, "injection": injectPath})
			Expect(rec.Code).To(Equal(http.StatusOK))

			armed := monitor.Armed()
			Expect(armed).ToNot(BeNil())
			Expect(armed.HostPath).To(Equal(hostPath))
		})

		It("rejects a pair with a missing file", func() {
			rec := doJSON(http.MethodPost, "/api/v1/inject/arm",
				map[string]string{"host": hostPath, "injection": filepath.Join(replayDir, "missing.vrf")})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(monitor.Armed()).To(BeNil())
		})

		It("rejects a body without both paths", func() {
			rec := doJSON(http.MethodPost, "/api/v1/inject/arm", map[string]string{"host": hostPath})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("disarms", func() {
			monitor.Arm(models.InjectionPair{HostPath: hostPath, InjectionPath: hostPath})

			rec := doJSON(http.MethodPost, "/api/v1/inject/disarm", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(monitor.Armed()).To(BeNil())
		})
	})

	Describe("monitor lifecycle", func() {
		It("starts and stops monitoring", func() {
			rec := doJSON(http.MethodPost, "/api/v1/monitor/start", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(monitor.IsActive()).To(BeTrue())

			rec = doJSON(http.MethodPost, "/api/v1/monitor/stop", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(monitor.IsActive()).To(BeFalse())
		})
	})

	Describe("POST /api/v1/restore", func() {
		It("answers 409 without a backup", func() {
			rec := doJSON(http.MethodPost, "/api/v1/restore", nil)
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})

		It("restores the current backup", func() {
			injectPath := filepath.Join(replayDir, "9b2c1de4-1111-4ccc-bb55-0e9f8a7d6c5b.vrf")
			Expect(os.WriteFile(injectPath, []byte("injected"), 0o644)).To(Succeed())
			Expect(store.Inject(context.Background(), models.InjectionPair{HostPath: hostPath, InjectionPath: injectPath})).To(Succeed())

			rec := doJSON(http.MethodPost, "/api/v1/restore", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			data, err := os.ReadFile(hostPath)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("host bytes"))
		})
	})

	Describe("POST /api/v1/replays/export", func() {
		It("exports under a descriptive name even without metadata", func() {
			destDir := filepath.Join(tmpDir, "exports")

			rec := doJSON(http.MethodPost, "/api/v1/replays/export",
				map[string]string{"filename": matchID + ".vrf", "destDir": destDir})
			Expect(rec.Code).To(Equal(http.StatusOK))

			exported := decode(rec)["exported"].(string)
			Expect(filepath.Base(exported)).To(HavePrefix("VALORANT_"))
			Expect(exported).To(BeAnExistingFile())
		})

		It("rejects an incomplete body", func() {
			rec := doJSON(http.MethodPost, "/api/v1/replays/export", map[string]string{"filename": "x.vrf"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
