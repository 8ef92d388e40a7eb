// Package httpc provides shared HTTP clients with sensible defaults.
// Use these instead of http.DefaultClient so every backend call has
// dial and TLS timeouts.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
	DefaultHeaderTimeout   = 30 * time.Second
)

// Client is a shared HTTP client for short request/response calls.
var Client = NewClient(DefaultTimeout)

// NewClient creates a client whose requests are bounded by timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(),
	}
}

// NewStreamingClient creates a client for long-lived streaming responses
// (SSE, chunked transcripts). There is no overall timeout: the request
// context bounds the call, and headerTimeout bounds the wait for the
// first response byte.
func NewStreamingClient(headerTimeout time.Duration) *http.Client {
	t := newTransport()
	if headerTimeout <= 0 {
		headerTimeout = DefaultHeaderTimeout
	}
	t.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: t}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
