// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pubsub implements a topic-keyed callback registry: callers
// subscribe a function under a string topic, and every Publish under that
// topic invokes every subscriber synchronously, in subscription order, on
// the publishing goroutine.
//
// This trades the buffered, timeout-based delivery of a classic pub/sub
// queue for synchronous in-order dispatch, which is what a RESP3 engine
// needs for its out-of-band push messages: a push must be handed to its
// registered callback before the connection's read loop resumes decoding,
// so ordering between a push and the reply that follows it on the wire is
// preserved.
package pubsub

import (
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one subscription so it can later be removed.
type Handle string

type subscriber struct {
	handle Handle
	fn     func(msg any)
}

// Registry is a topic-keyed set of subscribers. The zero value is not
// usable; construct one with New.
type Registry struct {
	mut   sync.RWMutex
	topic map[string][]subscriber
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{topic: make(map[string][]subscriber)}
}

// Subscribe registers fn under topic and returns a Handle that Unsubscribe
// accepts. Subscribers are invoked in the order they were added.
func (r *Registry) Subscribe(topic string, fn func(msg any)) Handle {
	r.mut.Lock()
	defer r.mut.Unlock()

	h := Handle(uuid.New().String())
	r.topic[topic] = append(r.topic[topic], subscriber{handle: h, fn: fn})
	return h
}

// Unsubscribe removes the subscriber registered under topic with handle h.
// It is a no-op if no such subscriber exists.
func (r *Registry) Unsubscribe(topic string, h Handle) {
	r.mut.Lock()
	defer r.mut.Unlock()

	subs := r.topic[topic]
	for i, s := range subs {
		if s.handle == h {
			r.topic[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish invokes every subscriber registered under topic, in subscription
// order, on the calling goroutine. It takes a snapshot of the subscriber
// list under a read lock and releases the lock before dispatching, so a
// subscriber may call Subscribe or Unsubscribe on the same Registry; such
// changes take effect from the next Publish.
func (r *Registry) Publish(topic string, msg any) {
	r.mut.RLock()
	subs := r.topic[topic]
	r.mut.RUnlock()

	for _, s := range subs {
		s.fn(msg)
	}
}

// Num returns the number of distinct topics with at least one subscriber.
func (r *Registry) Num() int {
	r.mut.RLock()
	defer r.mut.RUnlock()

	n := 0
	for _, subs := range r.topic {
		if len(subs) > 0 {
			n++
		}
	}
	return n
}
