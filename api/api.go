// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves a read-only JSON view of a DAO's proposals, votes and
// freeze state for dashboards.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
)

// HealthServiceName is reported by the gRPC health check endpoint
const HealthServiceName = "govern.v1.Governance"

const DefaultListenAddress = ":8080"

type Config struct {
	Logger        *slog.Logger
	Source        Source
	ListenAddress string
	Version       string
}

type Server struct {
	config     Config
	logger     *slog.Logger
	httpServer *http.Server
	listenAddr string
	mu         sync.Mutex
}

func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, errors.New("api server requires a source")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &Server{
		config: cfg,
		logger: cfg.Logger.With("component", "api"),
	}, nil
}

// Handler returns the HTTP handler serving all API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/proposals", s.handleProposals)
	mux.HandleFunc("GET /api/v1/proposals/{id}", s.handleProposal)
	mux.HandleFunc("GET /api/v1/proposals/{id}/votes", s.handleProposalVotes)
	mux.HandleFunc("GET /api/v1/freeze", s.handleFreeze)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(HealthServiceName)))
	reflector := grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName)
	mux.Handle(grpcreflect.NewHandlerV1(reflector))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector))
	return mux
}

// Start binds the listener and serves in the background until Stop is
// called or ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.listenAddr = ln.Addr().String()
	s.mu.Unlock()
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	s.logger.Info("API listener started on " + ln.Addr().String())
	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error("failed to shutdown API server on context cancellation", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address once started
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}
