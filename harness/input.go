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

package harness

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeFunctionInput decodes a FUNCTION_CALL case input: an object
// mapping parameter names to raw JSON values.
func decodeFunctionInput(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var input map[string]json.RawMessage
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("decoding test case input: %w", err)
	}
	return input, nil
}

// decodeDesignInput decodes the two-array [[opNames...],[opArgs...]]
// DESIGN_CLASS case input. The two arrays must have equal length.
func decodeDesignInput(raw json.RawMessage) ([]string, []json.RawMessage, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, nil, fmt.Errorf("decoding design case input: %w", err)
	}
	if len(outer) != 2 {
		return nil, nil, fmt.Errorf("design case input must be [opNames, opArgs], got %d arrays", len(outer))
	}
	var ops []string
	if err := json.Unmarshal(outer[0], &ops); err != nil {
		return nil, nil, fmt.Errorf("decoding operation names: %w", err)
	}
	var args []json.RawMessage
	if err := json.Unmarshal(outer[1], &args); err != nil {
		return nil, nil, fmt.Errorf("decoding operation arguments: %w", err)
	}
	if len(ops) != len(args) {
		return nil, nil, fmt.Errorf("design case has %d operations but %d argument lists", len(ops), len(args))
	}
	return ops, args, nil
}

// designArrays re-encodes the two design input arrays for embedding
// into generated source.
func designArrays(ops []string, args []json.RawMessage) (opsJSON, argsJSON string) {
	encoded, _ := json.Marshal(ops)
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = rawOrNull(a)
	}
	return string(encoded), "[" + strings.Join(parts, ",") + "]"
}

// rawOrNull renders a raw JSON value for embedding, defaulting to null.
func rawOrNull(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}
