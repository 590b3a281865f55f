// BSD 2-Clause License
//
// Copyright (c) 2020, Andrea Giacomo Baldan
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
//
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
// FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
// DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
// CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
// OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

// Server is the HTTP surface of the engine: submission intake,
// status/results polling, queue cancellation and a health snapshot.
// Handlers never block on execution; they only touch the queue and the
// status store, so intake latency is independent of worker load.

package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/codehive/execengine/submission"
)

// Queue is the slice of the queue adapter the handlers need.
type Queue interface {
	Enqueue(ctx context.Context, req *submission.Request) (string, error)
	GetStatus(ctx context.Context, id string) (*submission.Status, error)
	Size(ctx context.Context) (int64, error)
	PositionOf(ctx context.Context, id string) (int, bool)
	EstimatedWait(ctx context.Context) time.Duration
	Cancel(ctx context.Context, id string) (bool, error)
}

// PoolInfo exposes the worker pool figures the health endpoint reports.
type PoolInfo interface {
	ActiveWorkers() int
	AvgExecutionTimeMs() int64
}

type Server struct {
	logger *log.Entry
	queue  Queue
	pool   PoolInfo
	router *mux.Router
}

func New(q Queue, pool PoolInfo) *Server {
	s := &Server{
		logger: log.WithField("component", "server"),
		queue:  q,
		pool:   pool,
		router: mux.NewRouter(),
	}
	s.router.HandleFunc("/submit", s.handleSubmit).Methods(http.MethodPost)
	s.router.HandleFunc("/status/{id}", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/results/{id}", s.handleResults).Methods(http.MethodGet)
	s.router.HandleFunc("/cancel/{id}", s.handleCancel).Methods(http.MethodDelete)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Use(s.logReq)
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) logReq(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(log.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"elapsed": time.Since(start),
		}).Info("request")
	})
}

// Run serves until SIGINT/SIGTERM, then calls onShutdown (the worker
// pool drain) and finally lets in-flight requests complete.
func (s *Server) Run(addr string, onShutdown func()) error {
	srv := &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		return err
	case sig := <-quit:
		s.logger.Infof("received %s, shutting down", sig)
	}

	if onShutdown != nil {
		onShutdown()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.SetKeepAlivesEnabled(false)
	return srv.Shutdown(ctx)
}
