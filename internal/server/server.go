package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kapu/superhero-cards-go/internal/constants"
	"github.com/kapu/superhero-cards-go/internal/render"
	"github.com/kapu/superhero-cards-go/internal/service/session"
	"github.com/kapu/superhero-cards-go/internal/service/superhero"
	"github.com/kapu/superhero-cards-go/pkg/errors"
	"go.uber.org/zap"
)

// Config defines what a mounted view loads and how pages are served.
type Config struct {
	Addr            string
	BootstrapIDs    []int
	LiveUpdates     bool
	SnapshotTimeout time.Duration
	Session         session.Options
}

// Server hosts the hero page. Every page mount (a live socket or a snapshot
// request) gets its own session, so collections are never shared between
// viewers and disappear when the view goes away.
type Server struct {
	cfg      Config
	fetcher  superhero.HeroFetcher
	renderer *render.Renderer
	logger   *zap.Logger

	httpServer *http.Server
	upgrader   websocket.Upgrader

	sessionSeq atomic.Uint64
	liveConns  sync.WaitGroup
	closing    chan struct{}
	closeOnce  sync.Once
}

func New(cfg Config, fetcher superhero.HeroFetcher, renderer *render.Renderer, logger *zap.Logger) *Server {
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = constants.ServerConfig.SnapshotTimeout
	}
	if renderer == nil {
		renderer = render.NewRenderer("")
	}

	s := &Server{
		cfg:      cfg,
		fetcher:  fetcher,
		renderer: renderer,
		logger:   logger,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: constants.WebSocketConfig.HandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  4096,
		},
		closing: make(chan struct{}),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: constants.ServerConfig.ReadHeaderTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ws", s.handleLive)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(render.StaticFS())))
	return mux
}

// Start serves until Shutdown is called. It returns nil after a graceful
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.NewServiceError("failed to listen", "http", "listen", err)
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	s.logger.Info("HTTP server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Ints("bootstrap_ids", s.cfg.BootstrapIDs),
		zap.Bool("live_updates", s.cfg.LiveUpdates),
	)

	if err := s.httpServer.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.NewServiceError("http server failed", "http", "serve", err)
	}
	return nil
}

// Shutdown stops accepting requests, closes live sockets and waits for their
// sessions to be torn down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.closing)
	})

	err := s.httpServer.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.liveConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Live connections closed")
	case <-ctx.Done():
		s.logger.Warn("Timeout waiting for live connections to close")
		if err == nil {
			err = ctx.Err()
		}
	}

	return err
}

// mount creates a session for one view and starts its bootstrap fetches.
func (s *Server) mount(kind string) *session.Session {
	id := s.sessionSeq.Add(1)
	logger := s.logger.With(zap.Uint64("session", id), zap.String("kind", kind))

	sess := session.New(s.fetcher, logger, s.cfg.Session)
	sess.Bootstrap(s.cfg.BootstrapIDs)

	logger.Debug("Session mounted")
	return sess
}
