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

// Protocol implements the line-delimited contract between the generated
// harness and the engine: one TEST_CASE_RESULT record per test case,
// plus the docker-stats memory figure parsing used by the sandbox
// sampler.
//
// The result line format is
//
//	TEST_CASE_RESULT: <index>,<actualOutput>,<durationMs>,<errorInfo>
//
// The output field may itself contain commas, so the split rule is
// positional: the index sits before the first comma, the errorInfo
// after the last comma, the duration between the last two commas and
// everything in between is the output.

package protocol

import (
	"strconv"
	"strings"
)

const ResultPrefix = "TEST_CASE_RESULT:"

type TestResult struct {
	Index int
	// Output is nil for an empty field or the literal "null".
	Output       *string
	DurationMs   int64
	ErrorType    string
	ErrorMessage string
}

// HasError reports whether the harness attached error info to the case.
func (r *TestResult) HasError() bool {
	return r.ErrorType != "" || r.ErrorMessage != ""
}

// ParseResultLine decodes a single protocol line. The second return is
// false for lines that do not carry the prefix or are too mangled to
// recover an index from; such lines belong to the run log only.
func ParseResultLine(line string) (TestResult, bool) {
	if !strings.HasPrefix(line, ResultPrefix) {
		return TestResult{}, false
	}
	body := strings.TrimSpace(line[len(ResultPrefix):])

	first := strings.Index(body, ",")
	last := strings.LastIndex(body, ",")
	if first < 0 || last <= first {
		// Fewer than two commas, the index field cannot be isolated.
		return TestResult{}, false
	}
	secondLast := strings.LastIndex(body[:last], ",")
	if secondLast < first {
		return TestResult{}, false
	}

	index, err := strconv.Atoi(strings.TrimSpace(body[:first]))
	if err != nil || index < 0 {
		return TestResult{}, false
	}

	res := TestResult{Index: index}

	output := body[first+1 : secondLast]
	if output != "" && output != "null" {
		res.Output = &output
	}

	duration, err := strconv.ParseInt(strings.TrimSpace(body[secondLast+1:last]), 10, 64)
	if err != nil || duration < 0 {
		res.DurationMs = 0
		res.ErrorType = "ParseError"
		res.ErrorMessage = "malformed duration field: " + body[secondLast+1:last]
		return res, true
	}
	res.DurationMs = duration

	if errInfo := body[last+1:]; errInfo != "" {
		if colon := strings.Index(errInfo, ":"); colon >= 0 {
			res.ErrorType = strings.TrimSpace(errInfo[:colon])
			res.ErrorMessage = strings.TrimSpace(errInfo[colon+1:])
		} else {
			// No colon, the whole payload stands for both.
			res.ErrorType = errInfo
			res.ErrorMessage = errInfo
		}
	}
	return res, true
}

// FormatResultLine is the inverse of ParseResultLine for a tuple with
// no embedded newlines; the harness templates emit this exact shape.
func FormatResultLine(index int, output string, durationMs int64, errorInfo string) string {
	var b strings.Builder
	b.WriteString(ResultPrefix)
	b.WriteString(" ")
	b.WriteString(strconv.Itoa(index))
	b.WriteString(",")
	b.WriteString(output)
	b.WriteString(",")
	b.WriteString(strconv.FormatInt(durationMs, 10))
	b.WriteString(",")
	b.WriteString(errorInfo)
	return b.String()
}

// ParseRunLog scans a raw execution log and returns the per-test
// results in order of first appearance. A well-behaved harness emits
// exactly one line per index; should user code forge a second line for
// an index already seen, the first one wins, since the harness prints
// its own record for a case before user output for later cases can
// interleave.
func ParseRunLog(raw string) []TestResult {
	var results []TestResult
	seen := map[int]bool{}
	for _, line := range strings.Split(raw, "\n") {
		res, ok := ParseResultLine(strings.TrimSpace(line))
		if !ok || seen[res.Index] {
			continue
		}
		seen[res.Index] = true
		results = append(results, res)
	}
	return results
}
