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

package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/codehive/execengine/protocol"
	"github.com/codehive/execengine/submission"
)

// Sampler cadence: first probe shortly after launch so short-lived
// processes are still caught, then a steady period bounded by a hard
// sample cap so a hung `docker stats` cannot outlive the run.
const (
	samplerInitialDelay = 50 * time.Millisecond
	samplerPeriod       = 150 * time.Millisecond
	samplerMaxSamples   = 60

	// Exit code reported when the runner had to kill the container
	// after the wall-clock limit.
	killedExitCode = -999

	removeTimeout = 3 * time.Second
)

// RunResult is the raw outcome of one container execution, before any
// protocol-level interpretation.
type RunResult struct {
	RawLog          string
	ExitCode        int
	TimedOut        bool
	PeakMemoryBytes int64
}

// Runner executes prepared submissions in capped, network-less
// containers through the docker CLI and samples their memory usage
// concurrently.
type Runner struct {
	logger  *log.Entry
	timeout time.Duration
	memMiB  int
	image   func(submission.Language) string
}

func NewRunner(timeout time.Duration, memoryMiB int, image func(submission.Language) string) *Runner {
	return &Runner{
		logger:  log.WithField("component", "sandbox"),
		timeout: timeout,
		memMiB:  memoryMiB,
		image:   image,
	}
}

// Run launches the execution container for dir and blocks until it
// exits or the wall-clock limit fires. The container is named after the
// submission so the sampler can address it, and is force-removed before
// returning regardless of outcome.
func (r *Runner) Run(ctx context.Context, id, dir string, lang submission.Language, entry string) (*RunResult, error) {
	name := containerName(id)
	args := withImage(runArgs(name, dir, lang, r.memMiB, entry), r.image(lang))

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	defer r.remove(name)

	cmd := exec.CommandContext(runCtx, "docker", args...)
	// Both streams feed one buffer; exec serializes writes to a shared
	// writer, and the protocol parser sifts result lines from the noise.
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}
	r.logger.WithField("container", name).Debug("container started")

	var peak atomic.Int64
	samplerDone := make(chan struct{})
	go r.sampleMemory(runCtx, name, &peak, samplerDone)

	waitErr := cmd.Wait()
	cancel()
	<-samplerDone

	res := &RunResult{
		RawLog:          buf.String(),
		PeakMemoryBytes: peak.Load(),
	}
	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		res.TimedOut = true
		res.ExitCode = killedExitCode
		r.logger.WithField("container", name).Warn("container killed after time limit")
	case waitErr != nil:
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("waiting for container: %w", waitErr)
		}
	}
	return res, nil
}

// sampleMemory polls `docker stats` for the named container and keeps
// the highest reading. Stats failures are expected once the container
// exits and simply stop the loop sooner; peak stays at zero when no
// sample ever landed.
func (r *Runner) sampleMemory(ctx context.Context, name string, peak *atomic.Int64, done chan<- struct{}) {
	defer close(done)
	select {
	case <-ctx.Done():
		return
	case <-time.After(samplerInitialDelay):
	}
	ticker := time.NewTicker(samplerPeriod)
	defer ticker.Stop()
	for i := 0; i < samplerMaxSamples; i++ {
		out, err := exec.CommandContext(ctx, "docker", statsArgs(name)...).Output()
		if err == nil {
			if usage, ok := protocol.ParseMemoryUsage(strings.TrimSpace(string(out))); ok {
				for {
					cur := peak.Load()
					if usage <= cur || peak.CompareAndSwap(cur, usage) {
						break
					}
				}
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// remove force-removes the named container. Failures are logged and
// swallowed; a leaked container is an operator concern, not a
// submission error.
func (r *Runner) remove(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()
	if out, err := exec.CommandContext(ctx, "docker", removeArgs(name)...).CombinedOutput(); err != nil {
		r.logger.WithFields(log.Fields{
			"container": name,
			"output":    strings.TrimSpace(string(out)),
		}).Warnf("removing container: %v", err)
	}
}
