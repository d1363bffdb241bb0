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

package backoff_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/backoff"
)

var _ = Describe("BackoffManager", func() {
	var (
		manager *backoff.BackoffManager
		log     *zap.SugaredLogger
	)

	BeforeEach(func() {
		log = zap.NewNop().Sugar()
		manager = backoff.NewBackoffManager(backoff.Config{
			ID:                      "test",
			InitialSuppressionTicks: 2,
			MaxSuppressionTicks:     8,
			MaxRetries:              3,
			Logger:                  log,
		})
	})

	It("does not suppress before any error", func() {
		Expect(manager.ShouldSkipOperation(1)).To(BeFalse())
		Expect(manager.GetBackoffError(1)).ToNot(HaveOccurred())
	})

	It("suppresses for the initial window after a transient error", func() {
		permanent := manager.SetError(backoff.NewTransientError(errors.New("poll failed")), 10)
		Expect(permanent).To(BeFalse())

		Expect(manager.ShouldSkipOperation(10)).To(BeTrue())
		Expect(manager.ShouldSkipOperation(11)).To(BeTrue())
		Expect(manager.ShouldSkipOperation(12)).To(BeFalse())
	})

	It("doubles the suppression window up to the cap", func() {
		manager.SetError(backoff.NewTransientError(errors.New("a")), 0)
		Expect(manager.ShouldSkipOperation(1)).To(BeTrue())
		Expect(manager.ShouldSkipOperation(2)).To(BeFalse())

		manager.SetError(backoff.NewTransientError(errors.New("b")), 10)
		Expect(manager.ShouldSkipOperation(13)).To(BeTrue())
		Expect(manager.ShouldSkipOperation(14)).To(BeFalse())
	})

	It("returns a temporary backoff error while suppressed", func() {
		manager.SetError(backoff.NewTransientError(errors.New("poll failed")), 0)

		err := manager.GetBackoffError(1)
		Expect(err).To(HaveOccurred())
		Expect(backoff.IsTemporaryBackoffError(err)).To(BeTrue())
		Expect(backoff.IsPermanentFailureError(err)).To(BeFalse())
	})

	It("escalates to permanent failure after max retries", func() {
		for i := range 3 {
			manager.SetError(backoff.NewTransientError(fmt.Errorf("failure %d", i)), uint64(i*100))
		}

		Expect(manager.IsPermanentlyFailed()).To(BeTrue())
		Expect(backoff.IsPermanentFailureError(manager.GetBackoffError(1000))).To(BeTrue())
	})

	It("escalates immediately on a permanent error", func() {
		permanent := manager.SetError(backoff.NewPermanentError(errors.New("fatal")), 0)
		Expect(permanent).To(BeTrue())
		Expect(manager.IsPermanentlyFailed()).To(BeTrue())
	})

	It("recovers after Reset", func() {
		manager.SetError(backoff.NewPermanentError(errors.New("fatal")), 0)
		manager.Reset()

		Expect(manager.IsPermanentlyFailed()).To(BeFalse())
		Expect(manager.ShouldSkipOperation(1)).To(BeFalse())
		Expect(manager.GetLastError()).ToNot(HaveOccurred())
	})

	It("keeps the last error for diagnostics", func() {
		cause := errors.New("poll failed")
		manager.SetError(backoff.NewTransientError(cause), 0)
		Expect(errors.Unwrap(manager.GetLastError())).To(Equal(cause))
	})
})

var _ = Describe("Error categories", func() {
	It("categorizes uncategorized errors as transient", func() {
		err := backoff.CategorizeError(errors.New("plain"))
		Expect(backoff.IsTransientError(err)).To(BeTrue())
	})

	It("keeps an existing category", func() {
		err := backoff.CategorizeError(backoff.NewPermanentError(errors.New("fatal")))
		Expect(backoff.IsPermanentError(err)).To(BeTrue())
		Expect(backoff.IsTransientError(err)).To(BeFalse())
	})

	It("unwraps to the underlying error", func() {
		cause := errors.New("cause")
		Expect(errors.Unwrap(backoff.NewIgnoredError(cause))).To(Equal(cause))
	})
})

var _ = Describe("Backoff error helpers", func() {
	It("extracts the original error from a wrapped backoff error", func() {
		manager := backoff.NewBackoffManager(backoff.DefaultConfig("helper", zap.NewNop().Sugar()))
		manager.SetError(backoff.NewTransientError(errors.New("root cause")), 0)

		wrapped := manager.GetBackoffError(1)
		Expect(backoff.IsBackoffError(wrapped)).To(BeTrue())
		Expect(backoff.ExtractOriginalError(wrapped).Error()).To(ContainSubstring("root cause"))
	})
})
