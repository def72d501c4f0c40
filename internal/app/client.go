package app

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"planner.randoplan.org/internal/metrics"
)

// latencyTrackingRoundTripper wraps another RoundTripper to measure the
// latency of each outgoing HTTP request and export it to Prometheus, labeled
// by URL, method and response status. Wrapping the transport instruments
// every catalog fetch without touching the call sites.
type latencyTrackingRoundTripper struct {
	next http.RoundTripper
}

func (rt *latencyTrackingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	// Normalized URL label without query params.
	safeURL := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	metrics.OutgoingLatency.WithLabelValues(safeURL, req.Method, status).Observe(duration)

	return resp, err
}

// NewPooledClient returns the HTTP client used for catalog and source-list
// fetches. Catalog documents can be multi-megabyte JSON files, so the client
// keeps connections alive between loads, fails fast on unreachable hosts and
// allows a generous full-request timeout for the large downloads.
func NewPooledClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	instrumentedTransport := &latencyTrackingRoundTripper{next: transport}

	return &http.Client{
		Transport: instrumentedTransport,
		Timeout:   60 * time.Second,
	}
}
