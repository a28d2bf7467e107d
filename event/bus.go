// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package event

import (
	"github.com/openble/ble-ns/logger"
)

// Handler handles one event.
type Handler func(evt Event)

// Bus dispatches events to the handlers subscribed to their type. Dispatch is a direct call, in
// subscription order. A Bus is used from the simulation loop only and does no locking.
type Bus struct {
	handlers [numEventTypes][]Handler
	counts   [numEventTypes]uint64
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for events of type t.
func (b *Bus) Subscribe(t EventType, h Handler) {
	logger.AssertTrue(t < numEventTypes, "unknown event type %v", t)
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers h for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	for _, t := range AllEventTypes {
		b.Subscribe(t, h)
	}
}

// Emit implements Emitter.
func (b *Bus) Emit(evt Event) {
	if evt.Type >= numEventTypes {
		logger.Panicf("unknown event type %v", evt.Type)
		return
	}
	b.counts[evt.Type]++
	for _, h := range b.handlers[evt.Type] {
		h(evt)
	}
}

// Count returns how many events of type t were emitted.
func (b *Bus) Count(t EventType) uint64 {
	if t >= numEventTypes {
		return 0
	}
	return b.counts[t]
}
