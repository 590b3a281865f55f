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
	"encoding/json"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/codehive/execengine/events"
	"github.com/codehive/execengine/executor"
	"github.com/codehive/execengine/submission"
)

type memQueue struct {
	mu       sync.Mutex
	statuses map[string]*submission.Status
	history  []submission.State
}

func newMemQueue() *memQueue {
	return &memQueue{statuses: map[string]*submission.Status{}}
}

func (q *memQueue) DequeueBlocking(ctx context.Context, timeout time.Duration) (*submission.Request, error) {
	return nil, nil
}

func (q *memQueue) GetStatus(ctx context.Context, id string) (*submission.Status, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.statuses[id], nil
}

func (q *memQueue) SetStatus(ctx context.Context, status *submission.Status) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	clone := *status
	q.statuses[status.SubmissionID] = &clone
	q.history = append(q.history, status.State)
	return nil
}

type stubExecutor struct {
	result *executor.Result
	err    error
	panics bool
	job    *executor.Job
}

func (e *stubExecutor) Execute(ctx context.Context, job *executor.Job, onRunning func()) (*executor.Result, error) {
	e.job = job
	if e.panics {
		panic("boom")
	}
	if e.err != nil {
		return nil, e.err
	}
	if onRunning != nil {
		onRunning()
	}
	return e.result, nil
}

func newTestWorker(q *memQueue, exec Executor) *Worker {
	return &Worker{
		id:         "worker-0",
		logger:     log.WithField("worker", "worker-0"),
		queue:      q,
		exec:       exec,
		events:     events.Nop{},
		poll:       time.Second,
		stats:      NewStats(),
		reportBusy: func(int32) {},
	}
}

func testRequest() *submission.Request {
	return &submission.Request{
		SubmissionID: "sub-1",
		Language:     submission.LangPython,
		Code:         "class Solution: pass",
		Metadata: &submission.QuestionMetadata{
			PackageName:  "q",
			FunctionName: "f",
			ReturnType:   "int",
			QuestionType: submission.FunctionCall,
		},
		TestCases:       []submission.TestCase{{Input: json.RawMessage(`{"n":1}`)}},
		CustomTestCases: []submission.TestCase{{Input: json.RawMessage(`{"n":2}`)}},
	}
}

func TestProcessSuccessfulRun(t *testing.T) {
	mem := int64(8 << 20)
	exec := &stubExecutor{result: &executor.Result{
		Overall: executor.StatusSuccess,
		Tests: []executor.TestOutcome{
			{Index: 0, Output: submission.StrPtr("1"), DurationMs: 5, MemoryBytes: &mem},
			{Index: 1, Output: submission.StrPtr("2"), DurationMs: 7, MemoryBytes: &mem},
		},
	}}
	q := newMemQueue()
	w := newTestWorker(q, exec)

	w.process(testRequest())

	require.Equal(t, []submission.State{
		submission.StateCompiling,
		submission.StateRunning,
		submission.StateCompleted,
	}, q.history)

	status, _ := q.GetStatus(context.Background(), "sub-1")
	require.Equal(t, submission.StateCompleted, status.State)
	require.Nil(t, status.ErrorMessage)
	require.Equal(t, int64(12), status.RuntimeMs, "runtime is the sum of per-test durations")
	require.NotNil(t, status.MemoryKb)
	require.Equal(t, int64(8<<20/1024), *status.MemoryKb)
	require.Equal(t, "worker-0", status.WorkerID)
	require.NotZero(t, status.StartedAt)
	require.NotZero(t, status.CompletedAt)

	require.Len(t, status.TestCaseResults, 2)
	require.False(t, status.TestCaseResults[0].IsCustom)
	require.True(t, status.TestCaseResults[1].IsCustom,
		"indices past the official cases belong to custom ones")
	require.Nil(t, status.TestCaseResults[0].Passed, "the engine never judges")
}

func TestProcessMergesCustomCasesInOrder(t *testing.T) {
	exec := &stubExecutor{result: &executor.Result{Overall: executor.StatusSuccess}}
	w := newTestWorker(newMemQueue(), exec)

	w.process(testRequest())

	require.Len(t, exec.job.Cases, 2)
	require.False(t, exec.job.Cases[0].IsCustom)
	require.True(t, exec.job.Cases[1].IsCustom)
}

func TestProcessCompilationError(t *testing.T) {
	exec := &stubExecutor{result: &executor.Result{
		Overall: executor.StatusCompilationError,
		Log:     "error: ';' expected",
	}}
	q := newMemQueue()
	w := newTestWorker(q, exec)

	w.process(testRequest())

	status, _ := q.GetStatus(context.Background(), "sub-1")
	require.Equal(t, submission.StateFailed, status.State)
	require.Equal(t, submission.ErrCompilation, *status.ErrorMessage)
	require.Contains(t, *status.CompilationOutput, "';' expected")
	require.Empty(t, status.TestCaseResults)
}

func TestProcessTimeoutCompletesWithError(t *testing.T) {
	exec := &stubExecutor{result: &executor.Result{
		Overall: executor.StatusTimeout,
		Tests:   []executor.TestOutcome{{Index: 0, Output: submission.StrPtr("1"), DurationMs: 3}},
	}}
	q := newMemQueue()
	w := newTestWorker(q, exec)

	w.process(testRequest())

	status, _ := q.GetStatus(context.Background(), "sub-1")
	require.Equal(t, submission.StateCompleted, status.State)
	require.Equal(t, submission.ErrTimeLimitExceeded, *status.ErrorMessage)
	require.Len(t, status.TestCaseResults, 1, "partial results survive a timeout")
}

func TestProcessMissingMetadataFails(t *testing.T) {
	q := newMemQueue()
	w := newTestWorker(q, &stubExecutor{})

	req := testRequest()
	req.Metadata = nil
	w.process(req)

	status, _ := q.GetStatus(context.Background(), "sub-1")
	require.Equal(t, submission.StateFailed, status.State)
	require.Equal(t, submission.ErrMissingMetadata, *status.ErrorMessage)
}

func TestProcessPanicRecovery(t *testing.T) {
	q := newMemQueue()
	w := newTestWorker(q, &stubExecutor{panics: true})

	require.NotPanics(t, func() { w.process(testRequest()) })

	status, _ := q.GetStatus(context.Background(), "sub-1")
	require.Equal(t, submission.StateFailed, status.State)
	require.Equal(t, submission.ErrInternal, *status.ErrorMessage)
	require.NotZero(t, status.CompletedAt)
}

func TestProcessPreservesQueuedAt(t *testing.T) {
	q := newMemQueue()
	q.statuses["sub-1"] = &submission.Status{
		SubmissionID: "sub-1",
		State:        submission.StateQueued,
		QueuedAt:     1234,
	}
	q.history = nil
	exec := &stubExecutor{result: &executor.Result{Overall: executor.StatusSuccess}}
	w := newTestWorker(q, exec)

	w.process(testRequest())

	status, _ := q.GetStatus(context.Background(), "sub-1")
	require.Equal(t, int64(1234), status.QueuedAt)
}

func TestStatsRollingAverage(t *testing.T) {
	s := NewStats()
	require.Zero(t, s.Average())
	s.Record(10)
	s.Record(20)
	require.Equal(t, int64(15), s.Average())
	// Fill past the window; only the newest 64 samples count.
	for i := 0; i < 64; i++ {
		s.Record(100)
	}
	require.Equal(t, int64(100), s.Average())
}
