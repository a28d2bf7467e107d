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
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/openble/ble-ns/types"
)

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "Transmitted", EventTypeTransmitted.String())
	assert.Equal(t, "TXWindowSkipped", EventTypeTxWindowSkipped.String())
	assert.Equal(t, "EventType(9)", EventType(9).String())
	assert.Equal(t, numEventTypes, len(AllEventTypes))
}

func TestBusDispatch(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(EventTypeReceived, func(evt Event) {
		got = append(got, "a:"+evt.Addr.String())
	})
	bus.Subscribe(EventTypeReceived, func(evt Event) {
		got = append(got, "b:"+evt.Addr.String())
	})
	var all int
	bus.SubscribeAll(func(evt Event) {
		all++
	})

	bus.Emit(Event{Type: EventTypeReceived, Addr: 1})
	bus.Emit(Event{Type: EventTypeTransmitted, Addr: 2})

	assert.Equal(t, []string{"a:00:01", "b:00:01"}, got)
	assert.Equal(t, 2, all)
	assert.Equal(t, uint64(1), bus.Count(EventTypeReceived))
	assert.Equal(t, uint64(1), bus.Count(EventTypeTransmitted))
	assert.Equal(t, uint64(0), bus.Count(EventTypeReceivedError))
}

func TestJSONLineWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLineWriter(&buf)
	w.Emit(Event{Type: EventTypeTransmitted, Addr: 1, Peer: 2, Timestamp: 1250})
	w.Emit(Event{Type: EventTypeReceivedBroadcast, Addr: 3, Peer: BroadcastAddress, Timestamp: 2500})
	assert.Nil(t, w.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 2, len(lines))

	var m map[string]interface{}
	assert.Nil(t, json.Unmarshal([]byte(lines[0]), &m))
	assert.Equal(t, "Transmitted", m["type"])
	assert.Equal(t, "00:01", m["addr"])
	assert.Equal(t, "00:02", m["peer"])
	assert.Equal(t, float64(1250), m["ts"])

	assert.Nil(t, json.Unmarshal([]byte(lines[1]), &m))
	assert.Equal(t, "ff:ff", m["peer"])
}

func TestNopEmitter(t *testing.T) {
	var e Emitter = NopEmitter{}
	e.Emit(Event{Type: EventTypeTransmitted})
}
