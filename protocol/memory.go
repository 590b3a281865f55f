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

package protocol

import (
	"strconv"
	"strings"
)

// memoryUnits maps docker-stats suffixes to their byte multipliers,
// binary for the IEC spellings and decimal otherwise. Ordered longest
// suffix first so "MiB" is not matched as "B".
var memoryUnits = []struct {
	suffix string
	factor float64
}{
	{"KiB", 1 << 10},
	{"MiB", 1 << 20},
	{"GiB", 1 << 30},
	{"KB", 1e3},
	{"MB", 1e6},
	{"GB", 1e9},
	{"B", 1},
}

// ParseMemoryUsage converts a docker-stats usage figure such as
// "12.45MiB / 256MiB" to the byte count of the left-hand term. The
// second return is false on malformed input. Percentages are not
// interpreted.
func ParseMemoryUsage(s string) (int64, bool) {
	usage := s
	if slash := strings.Index(s, "/"); slash >= 0 {
		usage = s[:slash]
	}
	usage = strings.TrimSpace(usage)
	if usage == "" || strings.HasSuffix(usage, "%") {
		return 0, false
	}
	for _, unit := range memoryUnits {
		if !strings.HasSuffix(usage, unit.suffix) {
			continue
		}
		number := strings.TrimSpace(strings.TrimSuffix(usage, unit.suffix))
		value, err := strconv.ParseFloat(number, 64)
		if err != nil || value < 0 {
			return 0, false
		}
		return int64(value * unit.factor), true
	}
	return 0, false
}
