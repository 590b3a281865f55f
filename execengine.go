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

package main

import (
	"context"
	"flag"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/codehive/execengine/config"
	"github.com/codehive/execengine/events"
	"github.com/codehive/execengine/executor"
	"github.com/codehive/execengine/queue"
	"github.com/codehive/execengine/sandbox"
	"github.com/codehive/execengine/server"
	"github.com/codehive/execengine/submission"
	"github.com/codehive/execengine/worker"
)

var (
	addr       string
	configPath string
)

func main() {
	flag.StringVar(&addr, "addr", "", "Server listening address, overrides the config file")
	flag.StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if addr != "" {
		cfg.Addr = addr
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	images := []string{cfg.Docker.JavaImage, cfg.Docker.PythonImage}
	if err := sandbox.EnsureImages(ctx, images); err != nil {
		cancel()
		log.Fatal(err)
	}
	cancel()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("redis unreachable at %s: %v", cfg.Redis.Addr, err)
	}
	q := queue.New(rdb, cfg)

	var pub events.Publisher = events.Nop{}
	if cfg.Events.Queue != "" {
		pub = events.NewAmqpPublisher(cfg.Events.AmqpURL, cfg.Events.Queue, events.Durable())
	}

	image := func(lang submission.Language) string { return cfg.Image(string(lang)) }
	orchestrator := executor.New(
		sandbox.NewCompiler(image),
		sandbox.NewRunner(cfg.ExecutionTimeout(), cfg.Execution.MemoryMiB, image),
	)

	pool := worker.NewPool(cfg, q, orchestrator, pub)
	pool.Start()

	srv := server.New(q, pool)
	if err := srv.Run(cfg.Addr, pool.Stop); err != nil {
		log.Fatal(err)
	}
}
