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

package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/codehive/execengine/config"
	"github.com/codehive/execengine/submission"
)

func newTestAdapter(t *testing.T) (*Adapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, config.Default()), mr
}

func request(id string) *submission.Request {
	return &submission.Request{
		SubmissionID: id,
		Language:     submission.LangJava,
		Code:         "class Solution {}",
		TestCases:    []submission.TestCase{{Input: json.RawMessage(`{"n":1}`)}},
	}
}

func TestEnqueueAssignsIDAndWritesStatus(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	id, err := a.Enqueue(ctx, request(""))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	status, err := a.GetStatus(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, submission.StateQueued, status.State)
	require.NotZero(t, status.QueuedAt)
	require.NotNil(t, status.TestCaseResults)
}

func TestDequeueIsFIFO(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		_, err := a.Enqueue(ctx, request(id))
		require.NoError(t, err)
	}

	for _, want := range []string{"first", "second", "third"} {
		req, err := a.DequeueBlocking(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, req)
		require.Equal(t, want, req.SubmissionID)
	}
}

func TestDequeueEmptyQueueTimesOut(t *testing.T) {
	a, _ := newTestAdapter(t)
	req, err := a.DequeueBlocking(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, req)
}

func TestPositionOf(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	_, err := a.Enqueue(ctx, request("a"))
	require.NoError(t, err)
	_, err = a.Enqueue(ctx, request("b"))
	require.NoError(t, err)

	pos, ok := a.PositionOf(ctx, "a")
	require.True(t, ok)
	require.Equal(t, 1, pos, "oldest submission is next to pop")

	pos, ok = a.PositionOf(ctx, "b")
	require.True(t, ok)
	require.Equal(t, 2, pos)

	_, ok = a.PositionOf(ctx, "missing")
	require.False(t, ok)
}

func TestCancelQueuedSubmission(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	_, err := a.Enqueue(ctx, request("victim"))
	require.NoError(t, err)
	_, err = a.Enqueue(ctx, request("survivor"))
	require.NoError(t, err)

	cancelled, err := a.Cancel(ctx, "victim")
	require.NoError(t, err)
	require.True(t, cancelled)

	status, err := a.GetStatus(ctx, "victim")
	require.NoError(t, err)
	require.Equal(t, submission.StateCancelled, status.State)
	require.NotZero(t, status.CompletedAt)

	// The other submission is untouched and still dequeues.
	req, err := a.DequeueBlocking(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, "survivor", req.SubmissionID)
}

func TestCancelDequeuedSubmissionFails(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	_, err := a.Enqueue(ctx, request("gone"))
	require.NoError(t, err)
	_, err = a.DequeueBlocking(ctx, time.Second)
	require.NoError(t, err)

	cancelled, err := a.Cancel(ctx, "gone")
	require.NoError(t, err)
	require.False(t, cancelled, "a dequeued submission cannot be cancelled")
}

func TestStatusExpires(t *testing.T) {
	a, mr := newTestAdapter(t)
	ctx := context.Background()

	id, err := a.Enqueue(ctx, request("ephemeral"))
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	status, err := a.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Nil(t, status, "status should expire after the TTL")
}

func TestEstimatedWaitScalesWithQueueSize(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	require.Equal(t, time.Duration(0), a.EstimatedWait(ctx))
	_, err := a.Enqueue(ctx, request("x"))
	require.NoError(t, err)
	_, err = a.Enqueue(ctx, request("y"))
	require.NoError(t, err)
	require.Equal(t, 6*time.Second, a.EstimatedWait(ctx))
}
