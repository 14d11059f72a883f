package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tracetree/tracetree/internal/config"
	"github.com/tracetree/tracetree/internal/pipeline"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/pubsub"
	"github.com/tracetree/tracetree/internal/store"
)

// ErrServerClosed is returned when the server is closed.
var ErrServerClosed = http.ErrServerClosed

// ParseHostURL parses a host URL into a [url.URL].
func ParseHostURL(host string) (*url.URL, error) {
	proto, addr, ok := strings.Cut(host, "://")
	if !ok {
		return nil, fmt.Errorf("invalid host format: %s", host)
	}

	var basePath string
	if proto == "tcp" {
		parsed, err := url.Parse("tcp://" + addr)
		if err != nil {
			return nil, fmt.Errorf("invalid tcp address: %v", err)
		}
		addr = parsed.Host
		basePath = parsed.Path
	}
	return &url.URL{
		Scheme: proto,
		Host:   addr,
		Path:   basePath,
	}, nil
}

// DefaultHost returns the default server host.
func DefaultHost() string {
	sock := "tracetree.sock"
	usr, err := user.Current()
	if err == nil && usr.Uid != "" {
		sock = fmt.Sprintf("tracetree-%s.sock", usr.Uid)
	}
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("npipe:////./pipe/%s", sock)
	}
	return fmt.Sprintf("unix:///tmp/%s", sock)
}

// Server reconstructs session trees on behalf of clients and keeps the
// results in a [store.Service].
type Server struct {
	// Addr can be a TCP address, a Unix socket path, or a Windows named pipe.
	Addr    string
	network string

	h  *http.Server
	ln net.Listener

	cfg       *config.Config
	store     store.Service
	broker    *pubsub.Broker[proto.SessionTree]
	events    pubsub.Subscriber[proto.SessionTree]
	pipeline  *pipeline.Pipeline
	startedAt time.Time
	logger    *slog.Logger
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// DefaultServer returns a new [Server] instance with the default address.
func DefaultServer(cfg *config.Config, svc store.Service) *Server {
	hostURL, err := ParseHostURL(DefaultHost())
	if err != nil {
		panic("invalid default host")
	}
	return NewServer(cfg, hostURL.Scheme, hostURL.Host, svc)
}

// NewServer is a helper to create a new [Server] instance with the given
// address. Reconstructed trees are saved to svc.
func NewServer(cfg *config.Config, network, address string, svc store.Service) *Server {
	s := new(Server)
	s.Addr = address
	s.network = network
	s.cfg = cfg
	s.store = svc
	s.broker = pubsub.NewBroker[proto.SessionTree]()
	s.events = s.broker
	s.startedAt = time.Now()

	s.pipeline = pipeline.New(
		pipeline.WithWorkers(cfg.Options.Workers),
		pipeline.WithLimits(cfg.Options.Limits),
		pipeline.WithStore(svc),
		pipeline.WithPublisher(s.broker),
	)

	var p http.Protocols
	p.SetHTTP1(true)
	p.SetUnencryptedHTTP2(true)
	c := &controllerV1{Server: s}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", c.handleGetHealth)
	mux.HandleFunc("GET /v1/version", c.handleGetVersion)
	mux.HandleFunc("GET /v1/config", c.handleGetConfig)
	mux.HandleFunc("POST /v1/control", c.handlePostControl)
	mux.HandleFunc("GET /v1/events", c.handleGetEvents)
	mux.HandleFunc("POST /v1/batches", c.handlePostBatches)
	mux.HandleFunc("GET /v1/sessions", c.handleGetSessions)
	mux.HandleFunc("POST /v1/sessions", c.handlePostSessions)
	mux.HandleFunc("GET /v1/sessions/{sid}", c.handleGetSession)
	mux.HandleFunc("DELETE /v1/sessions/{sid}", c.handleDeleteSession)
	mux.HandleFunc("GET /v1/sessions/{sid}/nodes/{node}", c.handleGetSessionNode)
	mux.Handle("GET /metrics", promhttp.Handler())
	s.h = &http.Server{
		Protocols: &p,
		Handler:   s.loggingHandler(mux),
	}
	if network == "tcp" {
		s.h.Addr = address
	}
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.h.Handler
}

// Serve accepts incoming connections on the listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.h.Serve(ln)
}

// ListenAndServe starts the server and begins accepting connections.
func (s *Server) ListenAndServe() error {
	if s.ln != nil {
		return fmt.Errorf("server already started")
	}
	ln, err := listen(s.network, s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}
	s.ln = ln
	return s.Serve(ln)
}

func (s *Server) closeListener() {
	if s.ln != nil {
		s.ln.Close()
		s.ln = nil
	}
}

// Close force close all listeners and connections.
func (s *Server) Close() error {
	defer func() { s.closeListener() }()
	s.broker.Shutdown()
	return s.h.Close()
}

// Shutdown gracefully shuts down the server without interrupting active
// connections. It stops accepting new connections and waits for existing
// connections to finish. Event streams are ended first since they never
// finish on their own.
func (s *Server) Shutdown(ctx context.Context) error {
	defer func() { s.closeListener() }()
	s.broker.Shutdown()
	return s.h.Shutdown(ctx)
}

func (s *Server) logDebug(r *http.Request, msg string, args ...any) {
	if s.logger != nil {
		s.logger.With(
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.String("remote_addr", r.RemoteAddr),
		).Debug(msg, args...)
	}
}

func (s *Server) logError(r *http.Request, msg string, args ...any) {
	if s.logger != nil {
		s.logger.With(
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.String("remote_addr", r.RemoteAddr),
		).Error(msg, args...)
	}
}
