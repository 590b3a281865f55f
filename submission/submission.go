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

// Submission is the domain model shared by the intake API, the queue
// adapter and the workers: the incoming execution request, the question
// metadata driving harness generation and the caller-visible status
// record polled by submission id.

package submission

import (
	"encoding/json"
)

type Language string

const (
	LangJava   Language = "java"
	LangPython Language = "python"
)

// Languages lists the accepted language tags, used by intake validation.
var Languages = []Language{LangJava, LangPython}

func (l Language) Valid() bool {
	for _, k := range Languages {
		if l == k {
			return true
		}
	}
	return false
}

type QuestionType string

const (
	FunctionCall QuestionType = "FUNCTION_CALL"
	DesignClass  QuestionType = "DESIGN_CLASS"
)

type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type QuestionMetadata struct {
	PackageName          string       `json:"packageName"`
	FunctionName         string       `json:"functionName"`
	ReturnType           string       `json:"returnType"`
	Parameters           []Parameter  `json:"parameters"`
	CustomDataStructures []string     `json:"customDataStructures,omitempty"`
	QuestionType         QuestionType `json:"questionType"`
	// MutationTarget is the zero-based parameter index whose post-call
	// state is the output for void return types, defaulting to 0.
	MutationTarget        *int   `json:"mutationTarget,omitempty"`
	SerializationStrategy string `json:"serializationStrategy,omitempty"`
}

// TestCase input is either a JSON object mapping parameter names to
// values (FUNCTION_CALL) or the two-array [[opNames...],[opArgs...]]
// form (DESIGN_CLASS), so it is kept raw until the harness decodes it.
type TestCase struct {
	Input    json.RawMessage `json:"input"`
	IsCustom bool            `json:"isCustom,omitempty"`
}

type Request struct {
	SubmissionID    string            `json:"submissionId,omitempty"`
	Language        Language          `json:"language"`
	Code            string            `json:"code"`
	Metadata        *QuestionMetadata `json:"metadata"`
	TestCases       []TestCase        `json:"testCases"`
	CustomTestCases []TestCase        `json:"customTestCases,omitempty"`
}

// InputCount is the total number of inputs, official plus custom.
func (r *Request) InputCount() int {
	return len(r.TestCases) + len(r.CustomTestCases)
}

type State string

const (
	StateQueued    State = "QUEUED"
	StateCompiling State = "COMPILING"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// Error category tags surfaced in Status.ErrorMessage.
const (
	ErrCompilation       = "COMPILATION_ERROR"
	ErrTimeLimitExceeded = "TIME_LIMIT_EXCEEDED"
	ErrRuntime           = "RUNTIME_ERROR"
	ErrInternal          = "INTERNAL_ERROR"
	ErrMissingMetadata   = "Missing execution metadata"
)

type TestCaseResult struct {
	Index int `json:"index"`
	// Passed is always null, the engine performs no judging.
	Passed          *bool   `json:"passed"`
	ActualOutput    *string `json:"actualOutput"`
	ExecutionTimeMs int64   `json:"executionTimeMs"`
	MemoryBytes     *int64  `json:"memoryBytes"`
	Error           *string `json:"error,omitempty"`
	ErrorType       *string `json:"errorType,omitempty"`
	IsCustom        bool    `json:"isCustom"`
}

// Status is the caller-visible record kept in the status store under
// the submission id, expiring after the configured TTL.
type Status struct {
	SubmissionID string `json:"submissionId"`
	State        State  `json:"status"`
	// Verdict is reserved for the caller and never set by the engine.
	Verdict           *string          `json:"verdict"`
	RuntimeMs         int64            `json:"runtimeMs"`
	MemoryKb          *int64           `json:"memoryKb"`
	ErrorMessage      *string          `json:"errorMessage,omitempty"`
	CompilationOutput *string          `json:"compilationOutput,omitempty"`
	TestCaseResults   []TestCaseResult `json:"testCaseResults"`
	QueuedAt          int64            `json:"queuedAt,omitempty"`
	StartedAt         int64            `json:"startedAt,omitempty"`
	CompletedAt       int64            `json:"completedAt,omitempty"`
	WorkerID          string           `json:"workerId,omitempty"`
}

// StrPtr is a convenience for the nullable string fields above.
func StrPtr(s string) *string { return &s }

func Int64Ptr(n int64) *int64 { return &n }
