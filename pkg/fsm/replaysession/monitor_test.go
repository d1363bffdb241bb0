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

package replaysession_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/h2non/gock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/fsm/replaysession"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/models"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/region"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/filesystem"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/httpclient"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/replaystore"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/service/session"
)

const glzBase = "https://glz-na-1.na.a.pvp.net"

// fakeCredSource counts bootstraps and can be told to fail.
type fakeCredSource struct {
	calls int
	err   error
}

func (f *fakeCredSource) Bootstrap(ctx context.Context) (*models.Credentials, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Credentials{
		AccessToken:       "access-token",
		EntitlementsToken: "entitlements-token",
		PlayerID:          "player-uuid",
		ClientVersion:     "release-10.01-shipping-9-1234567",
		ClientPlatform:    "cGxhdGZvcm0=",
	}, nil
}

var _ = Describe("Monitor", func() {
	var (
		ctx        context.Context
		replayDir  string
		hostPath   string
		injectPath string
		store      *replaystore.Store
		credSource *fakeCredSource
		monitor    *replaysession.Monitor
		tick       uint64
	)

	mockLoopState := func(state string) {
		gock.New(glzBase).
			Get("/session/v1/sessions/player-uuid").
			Reply(200).
			JSON(map[string]string{"loopState": state})
	}

	// reconcile runs one poll cycle on a fresh tick far enough from the
	// previous one that no backoff window is active.
	reconcile := func() error {
		tick += 100
		err, _ := monitor.Reconcile(ctx, tick)
		return err
	}

	BeforeEach(func() {
		ctx = context.Background()
		tick = 0

		var err error
		replayDir, err = os.MkdirTemp("", "monitor")
		Expect(err).ToNot(HaveOccurred())

		hostPath = filepath.Join(replayDir, "0189e3fc-7a55-44f5-8e36-9a0d2b7e8f10.vrf")
		injectPath = filepath.Join(replayDir, "9b2c1de4-1111-4ccc-bb55-0e9f8a7d6c5b.vrf")
		Expect(os.WriteFile(hostPath, []byte("host bytes"), 0o644)).To(Succeed())
		Expect(os.WriteFile(injectPath, []byte("injected bytes"), 0o644)).To(Succeed())

		store = replaystore.NewStore(filesystem.NewDefaultService(), replayDir, filepath.Join(replayDir, "replay_backups"))

		httpClient := &http.Client{}
		gock.InterceptClient(httpClient)
		sessionService := session.NewService(httpclient.Wrap(httpClient))

		credSource = &fakeCredSource{}
		monitor = replaysession.NewMonitor(sessionService, store, credSource, region.NewStore(region.NA))
	})

	AfterEach(func() {
		gock.OffAll()
		Expect(os.RemoveAll(replayDir)).To(Succeed())
	})

	It("starts detached and inactive", func() {
		Expect(monitor.IsActive()).To(BeFalse())
		Expect(monitor.CurrentState()).To(Equal(replaysession.StateDetached))
	})

	It("does nothing while inactive", func() {
		err := reconcile()
		Expect(err).ToNot(HaveOccurred())
		Expect(credSource.calls).To(BeZero())
	})

	It("attaches to the lobby on a MENUS poll", func() {
		monitor.Start()
		mockLoopState("MENUS")

		Expect(reconcile()).To(Succeed())
		Expect(monitor.CurrentState()).To(Equal(replaysession.StateLobby))
		Expect(credSource.calls).To(Equal(1))
	})

	It("reuses bootstrapped credentials across polls", func() {
		monitor.Start()
		mockLoopState("MENUS")
		mockLoopState("MENUS")

		Expect(reconcile()).To(Succeed())
		Expect(reconcile()).To(Succeed())
		Expect(credSource.calls).To(Equal(1))
	})

	It("bootstraps fresh credentials after invalidation", func() {
		monitor.Start()
		mockLoopState("MENUS")
		mockLoopState("MENUS")

		Expect(reconcile()).To(Succeed())
		monitor.InvalidateCredentials()
		Expect(reconcile()).To(Succeed())
		Expect(credSource.calls).To(Equal(2))
	})

	It("injects the armed pair on the lobby to replay edge", func() {
		monitor.Start()
		monitor.Arm(models.InjectionPair{HostPath: hostPath, InjectionPath: injectPath})

		mockLoopState("MENUS")
		Expect(reconcile()).To(Succeed())

		mockLoopState("REPLAY")
		Expect(reconcile()).To(Succeed())
		Expect(monitor.CurrentState()).To(Equal(replaysession.StateReplay))

		data, err := os.ReadFile(hostPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("injected bytes"))
	})

	It("restores the original on the replay to lobby edge", func() {
		monitor.Start()
		monitor.Arm(models.InjectionPair{HostPath: hostPath, InjectionPath: injectPath})

		mockLoopState("MENUS")
		Expect(reconcile()).To(Succeed())
		mockLoopState("REPLAY")
		Expect(reconcile()).To(Succeed())
		mockLoopState("MENUS")
		Expect(reconcile()).To(Succeed())

		Expect(monitor.CurrentState()).To(Equal(replaysession.StateLobby))

		data, err := os.ReadFile(hostPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("host bytes"))
	})

	It("leaves files untouched when a replay starts with nothing armed", func() {
		monitor.Start()

		mockLoopState("MENUS")
		Expect(reconcile()).To(Succeed())
		mockLoopState("REPLAY")
		Expect(reconcile()).To(Succeed())

		data, err := os.ReadFile(hostPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("host bytes"))
		Expect(store.CurrentBackup()).To(BeEmpty())
	})

	It("does not inject when attaching mid-replay", func() {
		monitor.Start()
		monitor.Arm(models.InjectionPair{HostPath: hostPath, InjectionPath: injectPath})

		// First observed state is REPLAY: playback already runs, the host
		// file has been read, swapping now would be pointless.
		mockLoopState("REPLAY")
		Expect(reconcile()).To(Succeed())
		Expect(monitor.CurrentState()).To(Equal(replaysession.StateReplay))

		data, err := os.ReadFile(hostPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("host bytes"))
	})

	It("ignores PREGAME and INGAME loop states", func() {
		monitor.Start()
		mockLoopState("MENUS")
		Expect(reconcile()).To(Succeed())

		mockLoopState("PREGAME")
		Expect(reconcile()).To(Succeed())
		Expect(monitor.CurrentState()).To(Equal(replaysession.StateLobby))

		mockLoopState("INGAME")
		Expect(reconcile()).To(Succeed())
		Expect(monitor.CurrentState()).To(Equal(replaysession.StateLobby))
	})

	It("detaches and backs off on a failed poll", func() {
		monitor.Start()
		mockLoopState("MENUS")
		Expect(reconcile()).To(Succeed())

		gock.New(glzBase).
			Get("/session/v1/sessions/player-uuid").
			Reply(500)
		Expect(reconcile()).To(Succeed())

		Expect(monitor.CurrentState()).To(Equal(replaysession.StateDetached))
		Expect(monitor.LastError()).To(HaveOccurred())

		// The next tick falls inside the backoff window, no request goes out.
		err, reconciled := monitor.Reconcile(ctx, tick+1)
		Expect(err).ToNot(HaveOccurred())
		Expect(reconciled).To(BeFalse())
	})

	It("skips the poll when credential bootstrap fails", func() {
		monitor.Start()
		credSource.err = errors.New("client not running")

		Expect(reconcile()).To(Succeed())
		Expect(monitor.CurrentState()).To(Equal(replaysession.StateDetached))
		Expect(monitor.LastError()).To(HaveOccurred())
	})

	It("stops cleanly and clears cached credentials", func() {
		monitor.Start()
		mockLoopState("MENUS")
		Expect(reconcile()).To(Succeed())

		monitor.Stop()
		Expect(monitor.IsActive()).To(BeFalse())

		monitor.Start()
		mockLoopState("MENUS")
		Expect(reconcile()).To(Succeed())
		Expect(credSource.calls).To(Equal(2))
	})

	It("recovers from a degraded state via ResetDegraded", func() {
		monitor.Start()
		credSource.err = errors.New("client not running")

		// Exhaust the retry budget.
		for i := 0; i < 10; i++ {
			Expect(reconcile()).To(Succeed())
		}
		Expect(monitor.IsDegraded()).To(BeTrue())

		monitor.ResetDegraded()
		Expect(monitor.IsDegraded()).To(BeFalse())

		credSource.err = nil
		mockLoopState("MENUS")
		Expect(reconcile()).To(Succeed())
		Expect(monitor.CurrentState()).To(Equal(replaysession.StateLobby))
	})

	It("keeps the armed pair readable through Armed", func() {
		pair := models.InjectionPair{HostPath: hostPath, InjectionPath: injectPath}
		monitor.Arm(pair)

		armed := monitor.Armed()
		Expect(armed).ToNot(BeNil())
		Expect(armed.HostPath).To(Equal(hostPath))
		Expect(armed.InjectionPath).To(Equal(injectPath))

		monitor.Disarm()
		Expect(monitor.Armed()).To(BeNil())
	})
})

var _ = Describe("Monitor timing", func() {
	It("rejects transitions on a nearly expired context", func() {
		// Guards against looplab/fsm being left mid-transition when the
		// reconcile deadline hits during a callback.
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		<-ctx.Done()

		replayDir, err := os.MkdirTemp("", "monitor")
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = os.RemoveAll(replayDir) }()

		store := replaystore.NewStore(filesystem.NewDefaultService(), replayDir, filepath.Join(replayDir, "replay_backups"))
		monitor := replaysession.NewMonitor(
			session.NewService(httpclient.NewDefaultHTTPClient()),
			store,
			&fakeCredSource{},
			region.NewStore(region.NA),
		)
		monitor.Start()

		err, reconciled := monitor.Reconcile(ctx, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(reconciled).To(BeFalse())
	})
})
