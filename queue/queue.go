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

// Queue is the redis-backed job queue and status store shared between
// the intake API and the worker pool. Jobs are pushed on the left of a
// list and popped from the right, so BRPOP gives many concurrent
// workers a blocking FIFO drain without starvation. Status records
// live under a key per submission id with a TTL, after which callers
// can no longer fetch results.

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/codehive/execengine/config"
	"github.com/codehive/execengine/submission"
)

type Adapter struct {
	rdb          *redis.Client
	name         string
	statusPrefix string
	statusTTL    time.Duration
	waitPerJob   time.Duration
}

func New(rdb *redis.Client, cfg *config.Config) *Adapter {
	return &Adapter{
		rdb:          rdb,
		name:         cfg.Queue.Name,
		statusPrefix: cfg.Queue.StatusPrefix,
		statusTTL:    cfg.StatusTTL(),
		waitPerJob:   cfg.WaitPerJob(),
	}
}

// Enqueue assigns an id when the request carries none, writes the
// initial QUEUED status and pushes the request. The two writes are not
// atomic; a worker that dequeues before the status lands simply starts
// from a fresh record.
func (a *Adapter) Enqueue(ctx context.Context, req *submission.Request) (string, error) {
	if req.SubmissionID == "" {
		req.SubmissionID = uuid.NewString()
	}
	status := &submission.Status{
		SubmissionID:    req.SubmissionID,
		State:           submission.StateQueued,
		TestCaseResults: []submission.TestCaseResult{},
		QueuedAt:        time.Now().UnixMilli(),
	}
	if err := a.SetStatus(ctx, status); err != nil {
		return "", err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding submission %s: %w", req.SubmissionID, err)
	}
	if err := a.rdb.LPush(ctx, a.name, payload).Err(); err != nil {
		return "", fmt.Errorf("enqueueing submission %s: %w", req.SubmissionID, err)
	}
	return req.SubmissionID, nil
}

// DequeueBlocking pops the oldest request, blocking up to timeout.
// Returns (nil, nil) when the timeout elapses with an empty queue.
func (a *Adapter) DequeueBlocking(ctx context.Context, timeout time.Duration) (*submission.Request, error) {
	res, err := a.rdb.BRPop(ctx, timeout, a.name).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue: %w", err)
	}
	var req submission.Request
	if err := json.Unmarshal([]byte(res[1]), &req); err != nil {
		return nil, fmt.Errorf("decoding queued submission: %w", err)
	}
	return &req, nil
}

func (a *Adapter) Size(ctx context.Context) (int64, error) {
	return a.rdb.LLen(ctx, a.name).Result()
}

// PositionOf scans the queue for the submission and returns its 1-based
// distance from the pop end. It is a wait-time hint only and need not
// be exact under concurrent enqueues.
func (a *Adapter) PositionOf(ctx context.Context, id string) (int, bool) {
	entries, err := a.rdb.LRange(ctx, a.name, 0, -1).Result()
	if err != nil {
		return 0, false
	}
	for i, raw := range entries {
		var req submission.Request
		if json.Unmarshal([]byte(raw), &req) != nil {
			continue
		}
		if req.SubmissionID == id {
			// Index 0 is the push end; the pop end is position 1.
			return len(entries) - i, true
		}
	}
	return 0, false
}

func (a *Adapter) EstimatedWait(ctx context.Context) time.Duration {
	size, err := a.Size(ctx)
	if err != nil {
		return 0
	}
	return time.Duration(size) * a.waitPerJob
}

// Cancel removes the submission from the queue if it is still there and
// marks it CANCELLED. Once a worker has dequeued it, Cancel reports
// false and the run completes normally.
func (a *Adapter) Cancel(ctx context.Context, id string) (bool, error) {
	entries, err := a.rdb.LRange(ctx, a.name, 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("cancel %s: %w", id, err)
	}
	for _, raw := range entries {
		var req submission.Request
		if json.Unmarshal([]byte(raw), &req) != nil {
			continue
		}
		if req.SubmissionID != id {
			continue
		}
		removed, err := a.rdb.LRem(ctx, a.name, 1, raw).Result()
		if err != nil {
			return false, fmt.Errorf("cancel %s: %w", id, err)
		}
		if removed == 0 {
			// A worker won the race.
			return false, nil
		}
		status, _ := a.GetStatus(ctx, id)
		if status == nil {
			status = &submission.Status{
				SubmissionID:    id,
				TestCaseResults: []submission.TestCaseResult{},
			}
		}
		status.State = submission.StateCancelled
		status.CompletedAt = time.Now().UnixMilli()
		if err := a.SetStatus(ctx, status); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

// GetStatus returns (nil, nil) for an unknown or expired id.
func (a *Adapter) GetStatus(ctx context.Context, id string) (*submission.Status, error) {
	raw, err := a.rdb.Get(ctx, a.statusPrefix+id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("status %s: %w", id, err)
	}
	var status submission.Status
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, fmt.Errorf("decoding status %s: %w", id, err)
	}
	return &status, nil
}

// SetStatus writes the record and refreshes its TTL.
func (a *Adapter) SetStatus(ctx context.Context, status *submission.Status) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding status %s: %w", status.SubmissionID, err)
	}
	key := a.statusPrefix + status.SubmissionID
	if err := a.rdb.Set(ctx, key, payload, a.statusTTL).Err(); err != nil {
		return fmt.Errorf("writing status %s: %w", status.SubmissionID, err)
	}
	return nil
}
