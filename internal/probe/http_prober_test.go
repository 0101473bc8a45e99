package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imagifhub/media-catalog/internal/catalog"
)

func TestProbeClassifiesStatusCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		want   catalog.ProbeResult
	}{
		{name: "ok", status: http.StatusOK, want: catalog.ProbeAlive},
		{name: "redirect", status: http.StatusFound, want: catalog.ProbeAlive},
		{name: "not found", status: http.StatusNotFound, want: catalog.ProbeMissing},
		{name: "gone", status: http.StatusGone, want: catalog.ProbeMissing},
		{name: "forbidden", status: http.StatusForbidden, want: catalog.ProbeAmbiguous},
		{name: "server error", status: http.StatusInternalServerError, want: catalog.ProbeAmbiguous},
		{name: "rate limited", status: http.StatusTooManyRequests, want: catalog.ProbeAmbiguous},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var gotMethod string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			client := srv.Client()
			client.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}
			p := New(client, Config{Timeout: time.Second})
			require.Equal(t, tc.want, p.Probe(context.Background(), srv.URL))
			require.Equal(t, http.MethodHead, gotMethod)
		})
	}
}

func TestProbeTransportFailureIsAmbiguous(t *testing.T) {
	t.Parallel()

	p := New(nil, Config{Timeout: 100 * time.Millisecond})
	// Nothing listens here.
	result := p.Probe(context.Background(), "http://127.0.0.1:1/missing.jpg")
	require.Equal(t, catalog.ProbeAmbiguous, result)
}

func TestProbeTimeoutIsAmbiguous(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(srv.Client(), Config{Timeout: 50 * time.Millisecond})
	require.Equal(t, catalog.ProbeAmbiguous, p.Probe(context.Background(), srv.URL))
}
