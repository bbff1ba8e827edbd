// Package elasticsearch is the Elasticsearch-backed read store for user projections.
package elasticsearch

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
)

// ClientOptions configures NewClient. Username and Password are optional.
type ClientOptions struct {
	Addresses []string
	Username  string
	Password  string
	Transport http.RoundTripper
}

// NewClient creates a client with bounded dial and header timeouts.
func NewClient(opts ClientOptions) (*es.Client, error) {
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		}
	}
	return es.NewClient(es.Config{
		Addresses: opts.Addresses,
		Username:  opts.Username,
		Password:  opts.Password,
		Transport: transport,
	})
}
