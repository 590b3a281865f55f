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

// Worker owns the submission lifecycle between dequeue and terminal
// status: state transitions, execution through the orchestrator,
// aggregation of per-test results and best-effort event publishing.

package worker

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/codehive/execengine/events"
	"github.com/codehive/execengine/executor"
	"github.com/codehive/execengine/submission"
)

// Queue is the slice of the queue adapter a worker needs; the tests
// substitute an in-memory fake.
type Queue interface {
	DequeueBlocking(ctx context.Context, timeout time.Duration) (*submission.Request, error)
	GetStatus(ctx context.Context, id string) (*submission.Status, error)
	SetStatus(ctx context.Context, status *submission.Status) error
}

// Executor runs one job to completion; satisfied by executor.Orchestrator.
type Executor interface {
	Execute(ctx context.Context, job *executor.Job, onRunning func()) (*executor.Result, error)
}

type Worker struct {
	id       string
	logger   *log.Entry
	queue    Queue
	exec     Executor
	events   events.Publisher
	poll     time.Duration
	stats    *Stats
	reportBusy func(delta int32)
}

// run is the worker loop: block on the queue, process, repeat until the
// context is cancelled. An in-flight submission is always driven to a
// terminal state before the loop observes cancellation.
func (w *Worker) run(ctx context.Context) {
	w.logger.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return
		default:
		}
		req, err := w.queue.DequeueBlocking(ctx, w.poll)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Warnf("dequeue: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if req == nil {
			continue
		}
		w.reportBusy(1)
		w.process(req)
		w.reportBusy(-1)
	}
}

// process drives one dequeued submission to a terminal status. It runs
// under the background context so shutdown does not abort an execution
// mid-flight; the pool waits for the loop to drain instead.
func (w *Worker) process(req *submission.Request) {
	ctx := context.Background()
	logger := w.logger.WithField("submission", req.SubmissionID)

	status, err := w.queue.GetStatus(ctx, req.SubmissionID)
	if err != nil || status == nil {
		if err != nil {
			logger.Warnf("loading status: %v", err)
		}
		status = &submission.Status{
			SubmissionID:    req.SubmissionID,
			TestCaseResults: []submission.TestCaseResult{},
		}
	}
	status.WorkerID = w.id

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic while processing: %v", r)
			status.State = submission.StateFailed
			status.ErrorMessage = submission.StrPtr(submission.ErrInternal)
			status.CompletedAt = time.Now().UnixMilli()
			w.transition(ctx, status)
		}
	}()

	if req.Metadata == nil || req.Metadata.FunctionName == "" {
		logger.Info("rejecting submission without metadata")
		status.State = submission.StateFailed
		status.ErrorMessage = submission.StrPtr(submission.ErrMissingMetadata)
		status.CompletedAt = time.Now().UnixMilli()
		w.transition(ctx, status)
		return
	}

	status.State = submission.StateCompiling
	status.StartedAt = time.Now().UnixMilli()
	w.transition(ctx, status)

	job := &executor.Job{
		ID:       req.SubmissionID,
		Language: req.Language,
		Code:     req.Code,
		Metadata: req.Metadata,
		Cases:    mergeCases(req),
	}
	res, err := w.exec.Execute(ctx, job, func() {
		status.State = submission.StateRunning
		w.transition(ctx, status)
	})
	if err != nil {
		logger.Errorf("execution: %v", err)
		status.State = submission.StateFailed
		status.ErrorMessage = submission.StrPtr(submission.ErrInternal)
		status.CompletedAt = time.Now().UnixMilli()
		w.transition(ctx, status)
		return
	}

	w.finalize(status, job, res)
	w.transition(ctx, status)
	w.stats.Record(status.RuntimeMs)
	logger.WithField("status", status.State).Info("submission finished")
}

// finalize folds an execution result into the terminal status record.
// A compilation error fails the submission; time limit and runtime
// errors still complete it, carrying the partial per-test results.
func (w *Worker) finalize(status *submission.Status, job *executor.Job, res *executor.Result) {
	status.CompletedAt = time.Now().UnixMilli()
	switch res.Overall {
	case executor.StatusCompilationError:
		status.State = submission.StateFailed
		status.ErrorMessage = submission.StrPtr(submission.ErrCompilation)
		status.CompilationOutput = submission.StrPtr(res.Log)
		status.TestCaseResults = []submission.TestCaseResult{}
		return
	case executor.StatusTimeout:
		status.State = submission.StateCompleted
		status.ErrorMessage = submission.StrPtr(submission.ErrTimeLimitExceeded)
	case executor.StatusRuntimeError:
		status.State = submission.StateCompleted
		status.ErrorMessage = submission.StrPtr(submission.ErrRuntime)
	default:
		status.State = submission.StateCompleted
		status.ErrorMessage = nil
	}

	results := make([]submission.TestCaseResult, 0, len(res.Tests))
	var totalMs int64
	var peakKb *int64
	for _, t := range res.Tests {
		r := submission.TestCaseResult{
			Index:           t.Index,
			ActualOutput:    t.Output,
			ExecutionTimeMs: t.DurationMs,
			MemoryBytes:     t.MemoryBytes,
		}
		if t.ErrorType != "" || t.ErrorMessage != "" {
			r.ErrorType = submission.StrPtr(t.ErrorType)
			r.Error = submission.StrPtr(t.ErrorMessage)
		}
		if t.Index >= 0 && t.Index < len(job.Cases) {
			r.IsCustom = job.Cases[t.Index].IsCustom
		}
		if t.MemoryBytes != nil {
			kb := *t.MemoryBytes / 1024
			if peakKb == nil || kb > *peakKb {
				peakKb = &kb
			}
		}
		totalMs += t.DurationMs
		results = append(results, r)
	}
	status.TestCaseResults = results
	status.RuntimeMs = totalMs
	status.MemoryKb = peakKb
}

// transition persists the status and publishes it; neither failure
// aborts processing.
func (w *Worker) transition(ctx context.Context, status *submission.Status) {
	if err := w.queue.SetStatus(ctx, status); err != nil {
		w.logger.Warnf("writing status %s: %v", status.SubmissionID, err)
	}
	if err := w.events.Publish(status); err != nil {
		w.logger.Debugf("publishing %s event: %v", status.SubmissionID, err)
	}
}

// mergeCases concatenates official and custom cases; indices in the run
// are positions in this merged order.
func mergeCases(req *submission.Request) []submission.TestCase {
	cases := make([]submission.TestCase, 0, req.InputCount())
	cases = append(cases, req.TestCases...)
	for _, c := range req.CustomTestCases {
		c.IsCustom = true
		cases = append(cases, c)
	}
	return cases
}
