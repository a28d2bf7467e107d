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

package counters

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openble/ble-ns/event"
	. "github.com/openble/ble-ns/types"
)

func TestSinkCountsEvents(t *testing.T) {
	bus := event.NewBus()
	sink := NewSink(nil)
	sink.Attach(bus)
	sink.Register(1, 3, 4)
	sink.Register(2, 5, 6)

	for _, tp := range event.AllEventTypes {
		bus.Emit(event.Event{Type: tp, Addr: 1})
	}
	bus.Emit(event.Event{Type: event.EventTypeReceived, Addr: 2})
	bus.Emit(event.Event{Type: event.EventTypeReceived, Addr: 2})

	c1 := sink.Get(1)
	assert.Equal(t, Counters{1, 1, 1, 1, 1, 1, 3, 4}, *c1)
	assert.Equal(t, uint64(2), sink.Get(2).Received)
	assert.Nil(t, sink.Get(3))

	total := sink.Totals()
	assert.Equal(t, uint64(3), total.Received)
	assert.Equal(t, uint64(1), total.Transmitted)
	assert.Equal(t, bus.Count(event.EventTypeTransmitted), total.Transmitted)
}

func TestSinkDropsUnknown(t *testing.T) {
	sink := NewSink(nil)
	sink.Register(1, 0, 0)
	sink.Emit(event.Event{Type: event.EventTypeTransmitted, Addr: 9})
	assert.Equal(t, uint64(1), sink.Dropped())
	assert.Equal(t, uint64(0), sink.Totals().Transmitted)
}

func TestSinkReset(t *testing.T) {
	sink := NewSink(nil)
	sink.Register(1, 7, 8)
	sink.Emit(event.Event{Type: event.EventTypeTransmitted, Addr: 1})
	sink.Emit(event.Event{Type: event.EventTypeTransmitted, Addr: 5})
	sink.Reset()
	assert.Equal(t, Counters{X: 7, Y: 8}, *sink.Get(1))
	assert.Equal(t, uint64(0), sink.Dropped())
}

func TestRecordsOrderedByIndex(t *testing.T) {
	sink := NewSink(BaseIndex(2))
	sink.Register(4, 0, 0)
	sink.Register(2, 0, 0)
	sink.Register(3, 0, 0)

	records := sink.Records(5)
	assert.Equal(t, 3, len(records))
	for i, r := range records {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, Address(i+2), r.Address)
		assert.Equal(t, 5, r.Iteration)
	}
}

func TestReportWriter(t *testing.T) {
	sink := NewSink(nil)
	c := sink.Register(1, 10, 20)
	c.Transmitted = 8
	c.Received = 6
	c.ReceivedUnique = 3
	c.BroadcastReceived = 3
	sink.Register(2, 1.5, 0)

	var buf bytes.Buffer
	rw := NewReportWriter(&buf, Scenario{NumDevices: 2, FieldLength: 30, Scheduled: true, ConnInterval: 3200})
	assert.Nil(t, rw.Write(sink.Records(0)))
	assert.Nil(t, rw.Write(sink.Records(1)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 6, len(lines))
	assert.Equal(t, "#Scenario 2 nodes on a square field with side 30 meter TX window scheduling enabled: true, "+
		"connection interval = 3200*1.25 millisec, (0 = random)", lines[0])
	assert.Equal(t, "Iteration,Address,transmitted,received,received unique,received error,broadcast received,"+
		"TX Windows Skipped,x coords,y coords", lines[1])
	assert.Equal(t, "0,00:01,8,6,3,0,3,0,10,20", lines[2])
	assert.Equal(t, "0,00:02,0,0,0,0,0,0,1.5,0", lines[3])
	assert.Equal(t, "1,00:01,8,6,3,0,3,0,10,20", lines[4])
	for _, line := range lines[1:] {
		assert.Equal(t, 10, len(strings.Split(line, ",")), line)
	}
}
