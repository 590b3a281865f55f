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

// Executor drives one submission end to end: harness generation,
// compilation, containerized execution and result-log parsing. It is
// deliberately ignorant of queues and status storage; the worker layer
// owns those.

package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/codehive/execengine/harness"
	"github.com/codehive/execengine/protocol"
	"github.com/codehive/execengine/sandbox"
	"github.com/codehive/execengine/submission"
)

// OverallStatus classifies a finished execution.
type OverallStatus int

const (
	StatusSuccess OverallStatus = iota
	StatusCompilationError
	StatusTimeout
	StatusRuntimeError
	StatusInternalError
)

// Job is one unit of work: the submission plus its merged official and
// custom test cases, in run order.
type Job struct {
	ID       string
	Language submission.Language
	Code     string
	Metadata *submission.QuestionMetadata
	Cases    []submission.TestCase
}

// TestOutcome is one test case's parsed result enriched with the
// run-level memory peak.
type TestOutcome struct {
	Index        int
	Output       *string
	DurationMs   int64
	MemoryBytes  *int64
	ErrorType    string
	ErrorMessage string
}

// Result is the full outcome of a job.
type Result struct {
	Overall OverallStatus
	// Log carries the raw container output for RuntimeError and the
	// compiler diagnostics for CompilationError.
	Log   string
	Tests []TestOutcome
}

// Compiler and ContainerRunner are satisfied by the sandbox package;
// tests substitute fakes.
type Compiler interface {
	Compile(ctx context.Context, dir string, lang submission.Language, sources []string) (*sandbox.CompileResult, error)
}

type ContainerRunner interface {
	Run(ctx context.Context, id, dir string, lang submission.Language, entry string) (*sandbox.RunResult, error)
}

type Orchestrator struct {
	logger   *log.Entry
	compiler Compiler
	runner   ContainerRunner
}

func New(compiler Compiler, runner ContainerRunner) *Orchestrator {
	return &Orchestrator{
		logger:   log.WithField("component", "executor"),
		compiler: compiler,
		runner:   runner,
	}
}

// Execute runs job to completion. onRunning fires after a successful
// compile, just before the execution container launches, so the caller
// can flip the externally visible state. Returned errors are
// infrastructure failures only; submission-level failures land in
// Result.Overall.
func (o *Orchestrator) Execute(ctx context.Context, job *Job, onRunning func()) (*Result, error) {
	gen, ok := harness.ForLanguage(job.Language)
	if !ok {
		return nil, fmt.Errorf("no generator for language %q", job.Language)
	}
	files, err := gen.Generate(job.Metadata, job.Code, job.Cases)
	if err != nil {
		return nil, fmt.Errorf("generating harness: %w", err)
	}

	dir, err := os.MkdirTemp("", "exec-"+job.ID+"-")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	var javaSources []string
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating workspace layout: %w", err)
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.Name, err)
		}
		if strings.HasSuffix(f.Name, ".java") {
			javaSources = append(javaSources, f.Name)
		}
	}

	compiled, err := o.compiler.Compile(ctx, dir, job.Language, javaSources)
	if err != nil {
		return nil, fmt.Errorf("compile stage: %w", err)
	}
	if !compiled.Success {
		o.logger.WithField("submission", job.ID).Info("compilation error")
		return &Result{Overall: StatusCompilationError, Log: compiled.Output}, nil
	}

	if onRunning != nil {
		onRunning()
	}

	run, err := o.runner.Run(ctx, job.ID, dir, job.Language, gen.EntryPoint(job.Metadata))
	if err != nil {
		return nil, fmt.Errorf("run stage: %w", err)
	}

	res := &Result{
		Tests: outcomes(protocol.ParseRunLog(run.RawLog), run.PeakMemoryBytes),
	}
	switch {
	case run.TimedOut:
		res.Overall = StatusTimeout
	case run.ExitCode != 0:
		res.Overall = StatusRuntimeError
		res.Log = run.RawLog
	default:
		res.Overall = StatusSuccess
	}
	return res, nil
}

// outcomes lifts parsed result lines into test outcomes, attaching the
// run-wide memory peak to every test. Sampling is per container, so the
// peak is the best per-test figure available; it stays null when the
// sampler never landed a reading.
func outcomes(parsed []protocol.TestResult, peakBytes int64) []TestOutcome {
	var memory *int64
	if peakBytes > 0 {
		memory = &peakBytes
	}
	out := make([]TestOutcome, 0, len(parsed))
	for _, p := range parsed {
		out = append(out, TestOutcome{
			Index:        p.Index,
			Output:       p.Output,
			DurationMs:   p.DurationMs,
			MemoryBytes:  memory,
			ErrorType:    p.ErrorType,
			ErrorMessage: p.ErrorMessage,
		})
	}
	return out
}
