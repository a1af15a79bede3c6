// Package netutil builds the HTTP clients used for remote APIs.
package netutil

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// NewHTTPClient returns a client whose transport negotiates HTTP/2.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		slog.Warn("configure http2 transport", "error", err)
	}
	return &http.Client{Transport: tr, Timeout: timeout}
}
