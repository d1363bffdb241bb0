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

package sentry

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// IssueType mirrors the severity levels reported upstream.
type IssueType string

const (
	IssueTypeWarning IssueType = "warning"
	IssueTypeError   IssueType = "error"
	IssueTypeFatal   IssueType = "fatal"
)

// ReportIssue logs the error and forwards it to Sentry when enabled.
func ReportIssue(err error, issueType IssueType, log *zap.SugaredLogger) {
	switch issueType {
	case IssueTypeFatal:
		capture(sentry.LevelFatal, err)
		log.Fatalf("%v", err)
	case IssueTypeError:
		capture(sentry.LevelError, err)
		log.Errorf("%v", err)
	case IssueTypeWarning:
		capture(sentry.LevelWarning, err)
		log.Warnf("%v", err)
	}
}

// ReportIssuef formats and reports an issue.
func ReportIssuef(issueType IssueType, log *zap.SugaredLogger, template string, args ...interface{}) {
	ReportIssue(fmt.Errorf(template, args...), issueType, log)
}

// ReportFSMErrorf reports an error scoped to an FSM instance.
func ReportFSMErrorf(log *zap.SugaredLogger, instanceID string, fsmType string, operation string, template string, args ...interface{}) {
	err := fmt.Errorf(template, args...)
	ReportIssue(fmt.Errorf("[%s/%s] %s: %w", fsmType, instanceID, operation, err), IssueTypeError, log)
}

// ReportServiceErrorf reports an error scoped to a service.
func ReportServiceErrorf(log *zap.SugaredLogger, serviceID string, serviceType string, operation string, template string, args ...interface{}) {
	err := fmt.Errorf(template, args...)
	ReportIssue(fmt.Errorf("[%s/%s] %s: %w", serviceType, serviceID, operation, err), IssueTypeError, log)
}
