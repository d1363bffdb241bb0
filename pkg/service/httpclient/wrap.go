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
	"net/http"

	"github.com/zachleolewis/SoupsValorantReplayTool/pkg/logger"
)

// WrappedClient adapts a plain *http.Client to the HTTPClient interface.
// Used by tests to hand gock-intercepted clients to the services.
type WrappedClient struct {
	client *http.Client
}

// Wrap returns an HTTPClient backed by the given *http.Client.
func Wrap(client *http.Client) *WrappedClient {
	return &WrappedClient{client: client}
}

// Do executes the request with the wrapped client.
func (w *WrappedClient) Do(req *http.Request) (*http.Response, error) {
	return w.client.Do(req)
}

// GetWithBody performs a GET request and returns the response with body.
func (w *WrappedClient) GetWithBody(ctx context.Context, url string) (*http.Response, []byte, error) {
	return doGetWithBody(ctx, w, url, logger.For(logger.ComponentHTTPClient))
}
