// Package probe implements the asset existence check used by the reaper.
package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/imagifhub/media-catalog/internal/catalog"
)

// HTTPProber issues HEAD requests against asset URLs.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
}

// Config controls probe behavior.
type Config struct {
	Timeout time.Duration
}

// New creates an HTTPProber. A nil client uses http.DefaultClient
// semantics with the configured timeout.
func New(client *http.Client, cfg Config) *HTTPProber {
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProber{client: client, timeout: timeout}
}

// Probe classifies the asset URL. Only an unambiguous 404/410 counts as
// missing; timeouts, transport failures and server errors are ambiguous
// so a flaky host never causes a deletion.
func (p *HTTPProber) Probe(ctx context.Context, url string) catalog.ProbeResult {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		return catalog.ProbeAmbiguous
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return catalog.ProbeAmbiguous
	}
	defer resp.Body.Close() //nolint:errcheck // HEAD body is empty

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return catalog.ProbeMissing
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return catalog.ProbeAlive
	default:
		return catalog.ProbeAmbiguous
	}
}
