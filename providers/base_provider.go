package providers

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Connection pooling defaults for HTTP transports shared across providers.
const (
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultTLSHandshakeTimeout = 10 * time.Second
	DefaultDialTimeout         = 30 * time.Second
	DefaultDialKeepAlive       = 30 * time.Second
)

// NewPooledTransport creates an *http.Transport configured with connection
// pooling settings suitable for sequential long-lived provider calls.
func NewPooledTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   DefaultDialTimeout,
			KeepAlive: DefaultDialKeepAlive,
		}).DialContext,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		TLSHandshakeTimeout: DefaultTLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}
}

// BaseProvider provides common functionality shared across provider
// implementations. It should be embedded in concrete provider structs.
type BaseProvider struct {
	id     string
	client *http.Client
}

// NewBaseProvider creates a new BaseProvider with the given HTTP client.
// A nil client gets a pooled default with no client-level timeout; per-call
// deadlines come from the request context.
func NewBaseProvider(id string, client *http.Client) BaseProvider {
	if client == nil {
		client = &http.Client{Transport: NewPooledTransport()}
	}
	return BaseProvider{id: id, client: client}
}

// ID returns the provider ID.
func (b *BaseProvider) ID() string {
	return b.id
}

// Client returns the underlying HTTP client.
func (b *BaseProvider) Client() *http.Client {
	return b.client
}

// Close closes the HTTP client's idle connections.
func (b *BaseProvider) Close() error {
	if transport, ok := b.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
