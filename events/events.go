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

// Events publishes submission lifecycle transitions to an AMQP queue so
// the caller platform (the judging side running the oracle) can react
// to terminal states without polling the status endpoint. Publishing is
// best-effort: a broker outage is logged by the caller and never fails
// a submission.

package events

import (
	"encoding/json"

	"github.com/streadway/amqp"

	"github.com/codehive/execengine/submission"
)

type Publisher interface {
	Publish(status *submission.Status) error
}

type AmqpPublisher struct {
	url, queue                               string
	durable, deleteUnused, exclusive, noWait bool
}

type Option func(*AmqpPublisher)

func Durable() Option {
	return func(p *AmqpPublisher) { p.durable = true }
}

func Exclusive() Option {
	return func(p *AmqpPublisher) { p.exclusive = true }
}

func NewAmqpPublisher(url, queueName string, opts ...Option) *AmqpPublisher {
	p := &AmqpPublisher{url: url, queue: queueName}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *AmqpPublisher) Publish(status *submission.Status) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	queue, err := ch.QueueDeclare(
		p.queue,        // name
		p.durable,      // durable
		p.deleteUnused, // delete when unused
		p.exclusive,    // exclusive
		p.noWait,       // no-wait
		nil,            // arguments
	)
	if err != nil {
		return err
	}

	return ch.Publish(
		"",         // exchange
		queue.Name, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload,
		},
	)
}

// Nop is the publisher used when events are not configured.
type Nop struct{}

func (Nop) Publish(*submission.Status) error { return nil }
