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

package executor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codehive/execengine/sandbox"
	"github.com/codehive/execengine/submission"
)

type fakeCompiler struct {
	result sandbox.CompileResult
}

func (f *fakeCompiler) Compile(ctx context.Context, dir string, lang submission.Language,
	sources []string) (*sandbox.CompileResult, error) {
	return &f.result, nil
}

type fakeRunner struct {
	result sandbox.RunResult
	ran    bool
}

func (f *fakeRunner) Run(ctx context.Context, id, dir string, lang submission.Language,
	entry string) (*sandbox.RunResult, error) {
	f.ran = true
	return &f.result, nil
}

func job() *Job {
	return &Job{
		ID:       "sub-1",
		Language: submission.LangPython,
		Code:     "class Solution:\n    def f(self, n):\n        return n\n",
		Metadata: &submission.QuestionMetadata{
			PackageName:  "q",
			FunctionName: "f",
			ReturnType:   "int",
			Parameters:   []submission.Parameter{{Name: "n", Type: "int"}},
			QuestionType: submission.FunctionCall,
		},
		Cases: []submission.TestCase{{Input: json.RawMessage(`{"n":1}`)}},
	}
}

func TestExecuteSuccess(t *testing.T) {
	runner := &fakeRunner{result: sandbox.RunResult{
		RawLog:          "TEST_CASE_RESULT: 0,1,4,\n",
		ExitCode:        0,
		PeakMemoryBytes: 1 << 20,
	}}
	o := New(&fakeCompiler{result: sandbox.CompileResult{Success: true}}, runner)

	var sawRunning bool
	res, err := o.Execute(context.Background(), job(), func() { sawRunning = true })
	require.NoError(t, err)
	require.True(t, sawRunning, "onRunning should fire after a clean compile")
	require.Equal(t, StatusSuccess, res.Overall)
	require.Len(t, res.Tests, 1)
	require.Equal(t, "1", *res.Tests[0].Output)
	require.Equal(t, int64(4), res.Tests[0].DurationMs)
	require.NotNil(t, res.Tests[0].MemoryBytes)
	require.Equal(t, int64(1<<20), *res.Tests[0].MemoryBytes)
}

func TestExecuteCompilationErrorShortCircuits(t *testing.T) {
	runner := &fakeRunner{}
	o := New(&fakeCompiler{result: sandbox.CompileResult{
		Success: false,
		Output:  "Main.java:3: error: ';' expected",
	}}, runner)

	res, err := o.Execute(context.Background(), job(), func() {
		t.Error("onRunning must not fire on compilation error")
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompilationError, res.Overall)
	require.Contains(t, res.Log, "';' expected")
	require.False(t, runner.ran, "runner must not start after a failed compile")
}

func TestExecuteTimeoutKeepsPartialResults(t *testing.T) {
	runner := &fakeRunner{result: sandbox.RunResult{
		RawLog:   "TEST_CASE_RESULT: 0,42,3,\n",
		TimedOut: true,
		ExitCode: -999,
	}}
	o := New(&fakeCompiler{result: sandbox.CompileResult{Success: true}}, runner)

	res, err := o.Execute(context.Background(), job(), nil)
	require.NoError(t, err)
	require.Equal(t, StatusTimeout, res.Overall)
	require.Len(t, res.Tests, 1, "results before the kill survive")
}

func TestExecuteRuntimeError(t *testing.T) {
	runner := &fakeRunner{result: sandbox.RunResult{
		RawLog:   "TEST_CASE_RESULT: 0,7,2,\nException in thread \"main\"\n",
		ExitCode: 1,
	}}
	o := New(&fakeCompiler{result: sandbox.CompileResult{Success: true}}, runner)

	res, err := o.Execute(context.Background(), job(), nil)
	require.NoError(t, err)
	require.Equal(t, StatusRuntimeError, res.Overall)
	require.Contains(t, res.Log, "Exception in thread")
	require.Len(t, res.Tests, 1)
}

func TestExecuteNullMemoryWhenNeverSampled(t *testing.T) {
	runner := &fakeRunner{result: sandbox.RunResult{
		RawLog:   "TEST_CASE_RESULT: 0,1,0,\n",
		ExitCode: 0,
	}}
	o := New(&fakeCompiler{result: sandbox.CompileResult{Success: true}}, runner)

	res, err := o.Execute(context.Background(), job(), nil)
	require.NoError(t, err)
	require.Nil(t, res.Tests[0].MemoryBytes,
		"a run too short to sample reports no memory figure")
}
