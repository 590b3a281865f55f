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

package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/codehive/execengine/submission"
)

const compileTimeout = 60 * time.Second

// CompileResult carries the compiler outcome. Output holds the full
// compiler diagnostics when compilation fails, so the submitter sees
// javac's own message.
type CompileResult struct {
	Success bool
	Output  string
}

// Compiler runs the language compile stage inside a throwaway
// container. Python has no compile stage and succeeds immediately.
type Compiler struct {
	logger *log.Entry
	image  func(submission.Language) string
}

func NewCompiler(image func(submission.Language) string) *Compiler {
	return &Compiler{
		logger: log.WithField("component", "compiler"),
		image:  image,
	}
}

// Compile compiles the generated sources under dir. Only the named
// sources are handed to javac so stray files in the mount cannot break
// the build. A non-zero javac exit is a submission-level compilation
// failure, not an error.
func (c *Compiler) Compile(ctx context.Context, dir string, lang submission.Language, sources []string) (*CompileResult, error) {
	if lang != submission.LangJava {
		return &CompileResult{Success: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, compileTimeout)
	defer cancel()

	args := compileArgs(dir, c.image(lang), sources)
	cmd := exec.CommandContext(ctx, "docker", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err == nil {
		return &CompileResult{Success: true, Output: out.String()}, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		c.logger.WithField("dir", dir).Debug("compilation failed")
		return &CompileResult{Success: false, Output: out.String()}, nil
	}
	return nil, fmt.Errorf("running compile container: %w", err)
}
