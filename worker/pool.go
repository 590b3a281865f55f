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

package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/codehive/execengine/config"
	"github.com/codehive/execengine/events"
)

// Pool supervises a fixed set of workers draining the shared queue.
type Pool struct {
	logger  *log.Entry
	workers []*Worker
	active  atomic.Int32
	stats   *Stats
	grace   time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(cfg *config.Config, q Queue, exec Executor, pub events.Publisher) *Pool {
	p := &Pool{
		logger: log.WithField("component", "pool"),
		stats:  NewStats(),
		grace:  cfg.ShutdownGrace(),
	}
	for i := 0; i < cfg.Worker.Count; i++ {
		p.workers = append(p.workers, &Worker{
			id:         fmt.Sprintf("worker-%d", i),
			logger:     log.WithField("worker", fmt.Sprintf("worker-%d", i)),
			queue:      q,
			exec:       exec,
			events:     pub,
			poll:       cfg.PollTimeout(),
			stats:      p.stats,
			reportBusy: func(delta int32) { p.active.Add(delta) },
		})
	}
	return p
}

func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.run(ctx)
		}(w)
	}
	p.logger.Infof("started %d workers", len(p.workers))
}

// Stop cancels the workers and waits for in-flight submissions to reach
// a terminal state, up to the configured grace period.
func (p *Pool) Stop() {
	p.cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("all workers drained")
	case <-time.After(p.grace):
		p.logger.Warn("shutdown grace elapsed with workers still busy")
	}
}

// ActiveWorkers is the number of workers currently processing a
// submission, not the pool size.
func (p *Pool) ActiveWorkers() int {
	return int(p.active.Load())
}

func (p *Pool) AvgExecutionTimeMs() int64 {
	return p.stats.Average()
}

// Stats keeps a rolling window of recent per-submission runtimes for
// the health endpoint.
type Stats struct {
	mu     sync.Mutex
	window [64]int64
	count  int
	next   int
}

func NewStats() *Stats { return &Stats{} }

func (s *Stats) Record(runtimeMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window[s.next] = runtimeMs
	s.next = (s.next + 1) % len(s.window)
	if s.count < len(s.window) {
		s.count++
	}
}

func (s *Stats) Average() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return 0
	}
	var sum int64
	for i := 0; i < s.count; i++ {
		sum += s.window[i]
	}
	return sum / int64(s.count)
}
