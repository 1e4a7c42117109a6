package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultConnectTimeout bounds TCP connection setup
	DefaultConnectTimeout = 10 * time.Second

	// DefaultReadTimeout bounds every single read from the connection
	DefaultReadTimeout = 5 * time.Second
)

// Config contains transport settings for image downloads
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DefaultConfig returns the default transport configuration
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
	}
}

// New creates an HTTP client that follows redirects, gives up connecting after
// ConnectTimeout and fails any read that stalls longer than ReadTimeout.
// There is no overall deadline: a slow but steady transfer may take as long as it needs.
func New(cfg *Config) *http.Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: conn, readTimeout: readTimeout}, nil
		},
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}

	// CheckRedirect is left nil: the default policy follows up to 10 redirects
	return &http.Client{Transport: transport}
}

// deadlineConn refreshes the read deadline before every Read
type deadlineConn struct {
	net.Conn
	readTimeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}
