package client

import (
	"net"
	"net/http"
	"time"
)

const defaultRequestTimeout = 60 * time.Second

// Config holds the information needed to connect to the narration planner
// API server.
type Config struct {
	Service Service `json:"service"`
	// RequestTimeout bounds every single request. A timed-out request is a
	// transient failure, never a job failure.
	RequestTimeout time.Duration `json:"request-timeout,omitempty"`
}

// Service contains information on how to reach the API server.
type Service struct {
	// Server is the URL of the API server (the part before /api/v1alpha1/...).
	Server string `json:"server"`
}

func NewDefault() *Config {
	return &Config{
		Service:        Service{Server: "http://localhost:3443"},
		RequestTimeout: defaultRequestTimeout,
	}
}

// NewHTTPClientFromConfig returns a new HTTP client from the given config.
func NewHTTPClientFromConfig(config *Config) (*http.Client, error) {
	timeout := config.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}
	return httpClient, nil
}
