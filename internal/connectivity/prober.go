// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package connectivity

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/pizzahunt/internal/logging"
)

// LivenessPath is probed on the remote server.
const LivenessPath = "/api/health/live"

// HTTPProber considers the remote reachable when its liveness endpoint
// answers with a 2xx status.
type HTTPProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber creates a prober for baseURL.
func NewHTTPProber(baseURL string, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultConfig().ProbeTimeout
	}
	return &HTTPProber{
		url:    strings.TrimRight(baseURL, "/") + LivenessPath,
		client: &http.Client{Timeout: timeout},
	}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		logging.Debug().Err(err).Str("url", p.url).Msg("Failed to build liveness request")
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logging.Debug().Err(err).Str("url", p.url).Msg("Liveness probe failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
