// Package server exposes the local control surface: pipeline status,
// start/stop/scan controls, and a live status stream for dashboards.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"tokenherald/internal/services/agent"
	"tokenherald/internal/services/status"
	"tokenherald/pkg/logx"
)

type Config struct {
	Addr string
}

type Service struct {
	cfg    Config
	agent  *agent.Service
	status *status.Service
	log    logx.Logger

	srv *http.Server
	lis net.Listener

	// base outlives individual requests; agent start/stop issued over
	// the API must not die with the request that asked for them.
	base context.Context
}

func New(cfg Config, ag *agent.Service, st *status.Service, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		cfg:    cfg,
		agent:  ag,
		status: st,
		log:    log.With(logx.String("service", "server")),
	}
	s.srv = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Service) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/agent/start", s.handleStart)
	mux.HandleFunc("/api/agent/stop", s.handleStop)
	mux.HandleFunc("/api/agent/scan", s.handleScan)
	mux.HandleFunc("/api/events", s.handleEvents)
	return mux
}

// Start binds the listener and serves in the background. A bind
// failure is returned synchronously so startup can abort.
func (s *Service) Start(ctx context.Context) error {
	s.base = ctx
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.lis = lis
	go func() {
		if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server exited", logx.Err(err))
		}
	}()
	s.log.Info("control surface listening", logx.String("addr", lis.Addr().String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	if s.srv == nil {
		return
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Warn("http shutdown", logx.Err(err))
		_ = s.srv.Close()
	}
}

// Addr returns the bound address (useful when Addr was ":0").
func (s *Service) Addr() string {
	if s.lis == nil {
		return s.cfg.Addr
	}
	return s.lis.Addr().String()
}
