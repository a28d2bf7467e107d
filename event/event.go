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
	"fmt"

	. "github.com/openble/ble-ns/types"
)

// EventType identifies a link-layer trace event. The set is closed.
type EventType uint8

const (
	EventTypeTransmitted       EventType = 0
	EventTypeReceived          EventType = 1
	EventTypeReceivedUnique    EventType = 2
	EventTypeReceivedBroadcast EventType = 3
	EventTypeReceivedError     EventType = 4
	EventTypeTxWindowSkipped   EventType = 5

	numEventTypes = 6
)

// AllEventTypes lists every event type in declaration order.
var AllEventTypes = []EventType{
	EventTypeTransmitted,
	EventTypeReceived,
	EventTypeReceivedUnique,
	EventTypeReceivedBroadcast,
	EventTypeReceivedError,
	EventTypeTxWindowSkipped,
}

func (t EventType) String() string {
	switch t {
	case EventTypeTransmitted:
		return "Transmitted"
	case EventTypeReceived:
		return "Received"
	case EventTypeReceivedUnique:
		return "ReceivedUnique"
	case EventTypeReceivedBroadcast:
		return "ReceivedBroadcast"
	case EventTypeReceivedError:
		return "ReceivedError"
	case EventTypeTxWindowSkipped:
		return "TXWindowSkipped"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// MarshalText writes the event type name.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event is one trace event raised by a device. Peer is the other party of a frame where known; it is the
// broadcast address for broadcast frames and InvalidAddress otherwise.
type Event struct {
	Type      EventType `json:"type"`
	Addr      Address   `json:"addr"`
	Peer      Address   `json:"peer,omitempty"`
	Timestamp uint64    `json:"ts"`
}

func (e Event) String() string {
	return fmt.Sprintf("%d %v %v peer=%v", e.Timestamp, e.Type, e.Addr, e.Peer)
}

// Emitter accepts trace events.
type Emitter interface {
	Emit(evt Event)
}

// NopEmitter discards all events.
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}
