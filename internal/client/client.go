// Package client talks to a tracetree server over a unix socket, a Windows
// named pipe or TCP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/tracetree/tracetree/internal/config"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/server"
)

// DummyHost is the Host header sent over sockets and pipes, which have no
// host name of their own.
const DummyHost = "api.tracetree.localhost"

const dialTimeout = 30 * time.Second

var (
	ErrNotFound       = errors.New("not found")
	ErrRejected       = errors.New("session rejected")
	ErrEmptySessionID = errors.New("empty session id")
)

// ResponseError is a non-2xx response. It matches [ErrNotFound] and
// [ErrRejected] with errors.Is.
type ResponseError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status code %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status code %d)", e.Message, e.StatusCode)
}

func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRejected:
		return e.Code == "rejected"
	}
	return false
}

// Client is a tracetree API client. It is safe for concurrent use.
type Client struct {
	h       *http.Client
	network string
	addr    string
}

// DefaultClient returns a [Client] for [server.DefaultHost].
func DefaultClient() (*Client, error) {
	host, err := server.ParseHostURL(server.DefaultHost())
	if err != nil {
		return nil, err
	}
	return NewClient(host.Scheme, host.Host)
}

// NewClient returns a [Client] for the server listening on network and
// address.
func NewClient(network, address string) (*Client, error) {
	switch network {
	case "tcp", "unix", "npipe":
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}

	c := &Client{network: network, addr: address}

	var protocols http.Protocols
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Protocols = &protocols
	tr.DialContext = c.dial
	tr.DisableCompression = c.local()

	// No client timeout: event streams stay open indefinitely.
	c.h = &http.Client{Transport: tr}
	return c, nil
}

func (c *Client) local() bool {
	return c.network == "unix" || c.network == "npipe"
}

// GetGlobalConfig returns the configuration the server runs with.
func (c *Client) GetGlobalConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := doJSON[config.Config](ctx, c, http.MethodGet, "/config", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	return cfg, nil
}

// Health returns nil when the server answers.
func (c *Client) Health(ctx context.Context) error {
	rsp, err := c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
	if err != nil {
		return err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return fmt.Errorf("server health check failed: %s", rsp.Status)
	}
	return nil
}

func (c *Client) VersionInfo(ctx context.Context) (*proto.VersionInfo, error) {
	vi, err := doJSON[proto.VersionInfo](ctx, c, http.MethodGet, "/version", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return vi, nil
}

// ShutdownServer asks the server to shut down gracefully. It returns before
// the server has stopped.
func (c *Client) ShutdownServer(ctx context.Context) error {
	rsp, err := c.do(ctx, http.MethodPost, "/control", nil, proto.ServerControl{
		Command: proto.ControlShutdown,
	}, nil)
	if err != nil {
		return err
	}
	defer rsp.Body.Close()
	if err := checkResponse(rsp); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// dial ignores the address chosen by the transport for sockets and pipes,
// which is always DummyHost, and connects to the client's own address.
func (c *Client) dial(ctx context.Context, network, address string) (net.Conn, error) {
	d := net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: dialTimeout,
	}
	switch c.network {
	case "npipe":
		ctx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		return dialPipeContext(ctx, c.addr)
	case "unix":
		return d.DialContext(ctx, "unix", c.addr)
	default:
		return d.DialContext(ctx, network, address)
	}
}

// do sends a request to the v1 API. path must already be escaped, see
// [sessionPath]. A non-nil body is encoded as JSON.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, headers http.Header) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		bts, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(bts)
	}

	rawPath := "/v1" + path
	unescaped, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", rawPath, err)
	}
	u := &url.URL{
		Scheme:   "http",
		Host:     c.addr,
		Path:     unescaped,
		RawPath:  rawPath,
		RawQuery: query.Encode(),
	}
	if c.local() {
		u.Host = DummyHost
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.h.Do(req)
}

// doJSON sends a request and decodes a successful JSON response into a T.
func doJSON[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*T, error) {
	rsp, err := c.do(ctx, method, path, query, body, nil)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	if err := checkResponse(rsp); err != nil {
		return nil, err
	}
	var v T
	if err := json.NewDecoder(rsp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &v, nil
}

// checkResponse turns a non-2xx response into a [ResponseError].
func checkResponse(rsp *http.Response) error {
	if rsp.StatusCode >= 200 && rsp.StatusCode < 300 {
		return nil
	}
	rerr := &ResponseError{StatusCode: rsp.StatusCode}
	var perr proto.Error
	if err := json.NewDecoder(rsp.Body).Decode(&perr); err == nil {
		rerr.Code = perr.Code
		rerr.Message = perr.Message
	}
	return rerr
}
