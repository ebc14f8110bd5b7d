// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package web serves the viewer API over HTTP: file listings, paginated
// transcripts, search, stats, and live updates over websocket.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/loglens/pkg/parser"
	"github.com/kraklabs/loglens/pkg/store"
	"github.com/kraklabs/loglens/pkg/tail"
)

// Server exposes the ingested store and the live tail layer over HTTP.
type Server struct {
	store    *store.Store
	registry *parser.Registry
	notifier *tail.Notifier
	hub      *Hub
	logger   *slog.Logger
	logDir   string

	mu      sync.Mutex
	readers map[string]*tail.Reader

	httpSrv *http.Server
}

// Config holds server wiring.
type Config struct {
	Addr  string
	Store *store.Store

	// LogDir is the directory scanned by the realtime endpoints. Empty
	// disables on-disk discovery; the store-backed routes still work.
	LogDir   string
	Notifier *tail.Notifier
	Logger   *slog.Logger
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:    cfg.Store,
		registry: parser.NewRegistry(),
		notifier: cfg.Notifier,
		hub:      NewHub(logger),
		logger:   logger,
		logDir:   cfg.LogDir,
		readers:  make(map[string]*tail.Reader),
	}
	s.httpSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.notifier != nil {
		s.notifier.Subscribe(s.onFileChanged)
	}
	return s
}

// Router builds the gin engine with every API route mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api")
	{
		api.GET("/files", s.handleFiles)
		api.GET("/messages/:filename", s.handleMessages)
		api.GET("/search", s.handleSearch)
		api.GET("/search/date-range", s.handleSearchDateRange)
		api.GET("/date-range", s.handleDateRange)
		api.GET("/stats", s.handleStats)
		api.POST("/cache/clear", s.handleCacheClear)
		api.GET("/realtime/files", s.handleRealtimeFiles)
		api.GET("/realtime/messages/:filename", s.handleRealtimeMessages)
		api.GET("/realtime/latest", s.handleRealtimeLatest)
	}
	r.GET("/ws", func(c *gin.Context) { s.hub.handle(c.Writer, c.Request) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s.notifier != nil {
		if err := s.notifier.Start(); err != nil {
			s.logger.Warn("web.notifier.start.error", "err", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web.server.start", "addr", s.httpSrv.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		if s.notifier != nil {
			s.notifier.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// onFileChanged reacts to a filesystem notification: the file's incremental
// reader picks up appended messages and the hub pushes them to viewers.
func (s *Server) onFileChanged(path string) {
	r := s.readerFor(path)
	msgs, err := r.ReadNew()
	if err != nil {
		s.logger.Warn("web.realtime.read.error", "path", path, "err", err)
		return
	}
	if len(msgs) == 0 {
		return
	}
	s.logger.Debug("web.realtime.push", "path", path, "messages", len(msgs))
	s.hub.Broadcast(path, msgs)
}

// readerFor returns the per-file incremental reader, creating it on first
// sight.
func (s *Server) readerFor(path string) *tail.Reader {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.readers[path]; ok {
		return r
	}
	r := tail.NewReader(path, s.registry.Select(path, ""))
	s.readers[path] = r
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("web.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
