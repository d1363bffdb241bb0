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

package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/constants"
	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
)

var (
	// defaultTransport is a shared transport with connection pooling for
	// the regional pvp.net APIs.
	defaultTransport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConnsPerHost: 10,
	}

	sharedClient = &http.Client{
		Transport: defaultTransport,
		Timeout:   constants.RemoteAPITimeout,
	}

	insecureClient   *http.Client
	initInsecureOnce sync.Once
)

// insecureLocalClient returns a client that accepts the Riot client's
// self-signed certificate. Only ever pointed at 127.0.0.1.
func insecureLocalClient() *http.Client {
	initInsecureOnce.Do(func() {
		transport := &http.Transport{
			ForceAttemptHTTP2: false,
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
				MinVersion:         tls.VersionTLS10,
			},
		}
		insecureClient = &http.Client{
			Transport: transport,
			Timeout:   constants.LocalAPITimeout,
		}
	})
	return insecureClient
}

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	// Do executes an HTTP request and returns the response
	Do(req *http.Request) (*http.Response, error)

	// GetWithBody performs a GET request and returns the response with body
	// bytes. This is a convenience method that combines request creation,
	// execution, and body reading in a single call.
	GetWithBody(ctx context.Context, url string) (*http.Response, []byte, error)
}

// DefaultHTTPClient talks to the regional pvp.net APIs over verified TLS.
type DefaultHTTPClient struct {
	logger *zap.SugaredLogger
}

// NewDefaultHTTPClient creates a new DefaultHTTPClient.
func NewDefaultHTTPClient() *DefaultHTTPClient {
	return &DefaultHTTPClient{
		logger: logger.For(logger.ComponentHTTPClient),
	}
}

// Do performs the HTTP request with the shared pooled client.
func (c *DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return sharedClient.Do(req)
}

// GetWithBody performs a GET request and returns the response with body.
func (c *DefaultHTTPClient) GetWithBody(ctx context.Context, url string) (*http.Response, []byte, error) {
	return doGetWithBody(ctx, c, url, c.logger)
}

// LocalHTTPClient talks to the Riot client's local HTTPS API on 127.0.0.1
// using the fixed "riot" basic-auth user and the lockfile password. The
// local API presents a self-signed certificate, so verification is skipped.
type LocalHTTPClient struct {
	password string
	logger   *zap.SugaredLogger
}

// NewLocalHTTPClient creates a client authenticating with the given
// lockfile password.
func NewLocalHTTPClient(password string) *LocalHTTPClient {
	return &LocalHTTPClient{
		password: password,
		logger:   logger.For(logger.ComponentHTTPClient),
	}
}

// Do attaches basic auth and performs the request on the insecure-TLS client.
func (c *LocalHTTPClient) Do(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(constants.LockfileUser, c.password)
	return insecureLocalClient().Do(req)
}

// GetWithBody performs a GET request and returns the response with body.
func (c *LocalHTTPClient) GetWithBody(ctx context.Context, url string) (*http.Response, []byte, error) {
	return doGetWithBody(ctx, c, url, c.logger)
}

func doGetWithBody(ctx context.Context, client HTTPClient, url string, log *zap.SugaredLogger) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute request for %s: %w", url, err)
	}
	if resp == nil {
		return nil, nil, fmt.Errorf("received nil response for %s", url)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("failed to read response body for %s: %w", url, err)
	}

	return resp, body, nil
}
