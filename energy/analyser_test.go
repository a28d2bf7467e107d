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

package energy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openble/ble-ns/event"
	. "github.com/openble/ble-ns/types"
)

type testClock struct {
	now     uint64
	pending []func()
	at      []uint64
}

func (c *testClock) Now() uint64 {
	return c.now
}

func (c *testClock) ScheduleAt(ts uint64, cb func()) {
	c.at = append(c.at, ts)
	c.pending = append(c.pending, cb)
}

func (c *testClock) runNext() {
	ts, cb := c.at[0], c.pending[0]
	c.at, c.pending = c.at[1:], c.pending[1:]
	c.now = ts
	cb()
}

func TestAnalyserAccountsAirTime(t *testing.T) {
	a := NewAnalyser(25)
	a.AddDevice(1)
	a.AddDevice(2)
	a.AddDevice(2)

	bus := event.NewBus()
	a.Attach(bus)
	bus.Emit(event.Event{Type: event.EventTypeTransmitted, Addr: 1, Peer: 2})
	bus.Emit(event.Event{Type: event.EventTypeReceived, Addr: 2, Peer: 1})
	bus.Emit(event.Event{Type: event.EventTypeReceivedUnique, Addr: 2, Peer: 1})
	bus.Emit(event.Event{Type: event.EventTypeReceivedError, Addr: 2, Peer: InvalidAddress})
	bus.Emit(event.Event{Type: event.EventTypeTransmitted, Addr: 9, Peer: 2})

	devices := a.Devices(1000)
	require.Equal(t, 2, len(devices))
	assert.Equal(t, Address(1), devices[0].Addr)
	assert.InDelta(t, 280*RadioTxConsumption, devices[0].Tx, 1e-12)
	assert.Equal(t, 0.0, devices[0].Rx)
	assert.InDelta(t, 720*RadioIdleConsumption, devices[0].Idle, 1e-12)

	assert.InDelta(t, 560*RadioRxConsumption, devices[1].Rx, 1e-12)
	assert.InDelta(t, 440*RadioIdleConsumption, devices[1].Idle, 1e-12)
	assert.InDelta(t, devices[1].Idle+devices[1].Rx, devices[1].Total(), 1e-12)

	// busy longer than elapsed: no negative idle time
	assert.Equal(t, 0.0, a.Devices(100)[1].Idle)
}

func TestAnalyserSampling(t *testing.T) {
	a := NewAnalyser(25)
	a.AddDevice(1)
	a.AddDevice(2)
	a.Emit(event.Event{Type: event.EventTypeTransmitted, Addr: 1})

	clock := &testClock{}
	a.StartSampling(clock, 1000)
	assert.Equal(t, []uint64{1000}, clock.at)

	clock.runNext()
	clock.runNext()
	history := a.NetworkEnergyHistory()
	require.Equal(t, 2, len(history))
	assert.Equal(t, uint64(1000), history[0].Timestamp)
	assert.Equal(t, uint64(2000), history[1].Timestamp)
	assert.InDelta(t, 280*RadioTxConsumption/2, history[0].EnergyConsTx, 1e-12)
	assert.InDelta(t, (720+1000)*RadioIdleConsumption/2, history[0].EnergyConsIdle, 1e-12)
	assert.Equal(t, []uint64{3000}, clock.at)
}

func TestAnalyserSaveFiles(t *testing.T) {
	a := NewAnalyser(25)
	a.AddDevice(1)
	a.Emit(event.Event{Type: event.EventTypeTransmitted, Addr: 1})
	a.StoreNetworkEnergy(5000)

	path := filepath.Join(t.TempDir(), "3_0_energy")
	require.Nil(t, a.SaveFiles(path, 5000))

	data, err := os.ReadFile(path + "_devices.txt")
	require.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, 3, len(lines))
	assert.Equal(t, "Duration of the simulated network (in milliseconds): 5", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "00:01\t"))

	data, err = os.ReadFile(path + ".txt")
	require.Nil(t, err)
	lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, 3, len(lines))
	assert.True(t, strings.HasPrefix(lines[2], "5\t"))
}
