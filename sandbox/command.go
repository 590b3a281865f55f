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

// Sandbox launches disposable, resource-capped containers for compile
// and run stages via the docker command line. The CLI is used rather
// than the SDK because the runner correlates a post-hoc one-shot
// `docker stats` query by container name and must keep the exited
// container around until the sampler is done; image bootstrap at boot
// goes through the SDK (see images.go).

package sandbox

import (
	"fmt"
	"strings"

	"github.com/codehive/execengine/submission"
)

// Mount points fixed by the container contract: the two language
// images provide a working directory /app, with the submission mounted
// at /app/src for Java and directly at /app for Python. The Java image
// carries the support jars under /app/libs.
const (
	javaMount     = "/app/src"
	pythonMount   = "/app"
	javaClasspath = "/app/src:/app/libs/*"
)

// runArgs assembles the `docker run` invocation for the execution
// stage: named container (not auto-removed, so stats can be queried by
// name), read-only submission mount, hard resource caps and no network.
func runArgs(name, dir string, lang submission.Language, memoryMiB int, entry string) []string {
	args := []string{
		"run",
		"--name", name,
		"--memory", fmt.Sprintf("%dm", memoryMiB),
		"--memory-swap", fmt.Sprintf("%dm", memoryMiB),
		"--cpus", "0.5",
		"--pids-limit", "100",
		"--network", "none",
	}
	switch lang {
	case submission.LangPython:
		args = append(args,
			"-v", dir+":"+pythonMount+":ro",
			"", // image placeholder filled by caller
			"python3", pythonMount+"/"+entry,
		)
	default:
		args = append(args,
			"-v", dir+":"+javaMount+":ro",
			"", // image placeholder filled by caller
			"java", "-cp", javaClasspath, entry,
		)
	}
	return args
}

// withImage fills the image placeholder left by runArgs.
func withImage(args []string, image string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, a := range out {
		if a == "" {
			out[i] = image
		}
	}
	return out
}

// compileArgs assembles the `docker run` invocation for the Java
// compile stage: writable mount so javac can drop class files next to
// the sources, auto-removed since no stats are sampled.
func compileArgs(dir, image string, sources []string) []string {
	args := []string{
		"run", "--rm",
		"--memory", "512m",
		"--network", "none",
		"-v", dir + ":" + javaMount,
		image,
		"javac", "-cp", javaClasspath, "-d", javaMount,
	}
	for _, src := range sources {
		args = append(args, javaMount+"/"+src)
	}
	return args
}

// statsArgs is the one-shot memory usage query for a named container.
func statsArgs(name string) []string {
	return []string{"stats", "--no-stream", "--format", "{{.MemUsage}}", name}
}

func removeArgs(name string) []string {
	return []string{"rm", "-f", name}
}

// containerName derives a unique, docker-safe container name from a
// submission id.
func containerName(id string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, id)
	return "exec-" + safe
}
