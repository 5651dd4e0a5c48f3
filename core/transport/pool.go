package transport

import (
	"net"
	"net/http"
	"time"
)

// PoolConfig sizes the connection pool of NewHTTPClient. Zero values take
// the defaults below.
type PoolConfig struct {
	MaxIdleConns          int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost       int           `yaml:"max_conns_per_host"`
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout"`
	ConnectTimeout        time.Duration `yaml:"connect_timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout"`
}

// Defaults tuned for AI APIs: few hosts, high concurrency, long-lived
// streaming connections.
const (
	defaultMaxIdleConns          = 20
	defaultMaxIdleConnsPerHost   = 10
	defaultMaxConnsPerHost       = 20
	defaultIdleConnTimeout       = 120 * time.Second
	defaultConnectTimeout        = 30 * time.Second
	defaultResponseHeaderTimeout = 120 * time.Second
)

// NewHTTPClient returns a client with a pooled transport. The client has no
// overall Timeout because that would cut off long streams; the response
// header timeout bounds the wait for the first byte instead.
func NewHTTPClient(pool PoolConfig) *http.Client {
	return &http.Client{Transport: NewPooledTransport(pool)}
}

// NewPooledTransport builds the http.Transport behind NewHTTPClient.
func NewPooledTransport(pool PoolConfig) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   orDefault(pool.ConnectTimeout, defaultConnectTimeout),
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: orDefault(pool.ResponseHeaderTimeout, defaultResponseHeaderTimeout),
		MaxIdleConns:          orDefault(pool.MaxIdleConns, defaultMaxIdleConns),
		MaxIdleConnsPerHost:   orDefault(pool.MaxIdleConnsPerHost, defaultMaxIdleConnsPerHost),
		MaxConnsPerHost:       orDefault(pool.MaxConnsPerHost, defaultMaxConnsPerHost),
		IdleConnTimeout:       orDefault(pool.IdleConnTimeout, defaultIdleConnTimeout),
		ForceAttemptHTTP2:     true,
	}
}

func orDefault[T int | time.Duration](value, fallback T) T {
	if value <= 0 {
		return fallback
	}
	return value
}
