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

package dispatcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/openble/ble-ns/mac"
	"github.com/openble/ble-ns/pcap"
	"github.com/openble/ble-ns/progctx"
	. "github.com/openble/ble-ns/types"
)

type recordingReceiver struct {
	d      *Dispatcher
	frames [][]byte
	times  []uint64
}

func (r *recordingReceiver) OnFrameArrival(data []byte) {
	r.frames = append(r.frames, data)
	r.times = append(r.times, r.d.Now())
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	cfg := DefaultConfig()
	d, err := NewDispatcher(progctx.New(nil), cfg)
	assert.Nil(t, err)
	return d
}

func TestEventOrdering(t *testing.T) {
	d := newTestDispatcher(t)
	var order []string
	d.ScheduleAt(20, func() { order = append(order, "c") })
	d.ScheduleAt(10, func() { order = append(order, "a") })
	d.ScheduleAt(10, func() { order = append(order, "b") })
	d.ScheduleAt(10, func() {
		order = append(order, "b2")
		d.ScheduleAt(10, func() { order = append(order, "b3") })
	})

	d.RunUntil(20)
	assert.Equal(t, []string{"a", "b", "b2", "b3"}, order)
	assert.Equal(t, uint64(20), d.Now())
	assert.Equal(t, 1, d.PendingEvents())

	d.RunUntil(21)
	assert.Equal(t, []string{"a", "b", "b2", "b3", "c"}, order)
	assert.Equal(t, uint64(5), d.Counters.ProcessedEvents)
}

func TestScheduleInPastPanics(t *testing.T) {
	d := newTestDispatcher(t)
	d.RunUntil(100)
	assert.Panics(t, func() {
		d.ScheduleAt(99, func() {})
	})
}

func TestAddNode(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.AddNode(1, Position{}, 0, nil)
	assert.Nil(t, err)
	_, err = d.AddNode(1, Position{}, 0, nil)
	assert.True(t, errors.Is(err, ErrDuplicateAddress))
	assert.Contains(t, err.Error(), "00:01")
	_, err = d.AddNode(BroadcastAddress, Position{}, 0, nil)
	assert.NotNil(t, err)
	_, err = d.AddNode(InvalidAddress, Position{}, 0, nil)
	assert.NotNil(t, err)
	assert.Equal(t, 1, len(d.Nodes()))
}

func TestSendDelivers(t *testing.T) {
	d := newTestDispatcher(t)
	receivers := make([]*recordingReceiver, 3)
	for i := range receivers {
		receivers[i] = &recordingReceiver{d: d}
		_, err := d.AddNode(Address(i+1), Position{X: float64(i * 10)}, 15, receivers[i])
		assert.Nil(t, err)
	}

	frame := mac.NewBroadcastHeader(1).Serialize(mac.NewPayload(1, 20))
	d.ScheduleAt(1000, func() {
		d.Send(frame, 1)
		assert.True(t, d.Busy(2))
		assert.True(t, d.Busy(1))
	})
	d.RunUntil(10000)

	airTime := mac.AirTimeUs(len(frame))
	assert.Equal(t, 0, len(receivers[0].frames))
	assert.Equal(t, 1, len(receivers[1].frames))
	assert.Equal(t, frame, receivers[1].frames[0])
	assert.Equal(t, 1000+airTime, receivers[1].times[0])
	assert.Equal(t, 0, len(receivers[2].frames), "out of range")
	assert.False(t, d.Busy(2))

	assert.Equal(t, uint64(1), d.Counters.FramesSent)
	assert.Equal(t, uint64(1), d.Counters.FramesDelivered)
}

func TestSendCountsDiagnostics(t *testing.T) {
	d := newTestDispatcher(t)
	r := &recordingReceiver{d: d}
	_, _ = d.AddNode(1, Position{}, 0, nil)
	_, _ = d.AddNode(2, Position{}, 0, r)

	d.ScheduleAt(0, func() {
		d.Send(mac.NewUnicastHeader(1, 9).Serialize(nil), 1)
	})
	d.ScheduleAt(5000, func() {
		d.Send([]byte{1, 2, 3}, 1)
	})
	d.RunUntil(10000)

	assert.Equal(t, uint64(1), d.Counters.UnknownDestination)
	assert.Equal(t, uint64(1), d.Counters.MalformedFrames)
	assert.Equal(t, 2, len(r.frames))

	stats := d.GetStats()
	assert.Equal(t, uint64(2), stats.FramesSent)
	assert.Equal(t, mac.AirTimeUs(5)+mac.AirTimeUs(3), stats.Phy.BusyTimeUs)
	assert.True(t, stats.MediumUtilization > 0 && stats.MediumUtilization < 1)
}

func TestRunLoop(t *testing.T) {
	ctx := progctx.New(nil)
	d, err := NewDispatcher(ctx, DefaultConfig())
	assert.Nil(t, err)

	fired := 0
	d.ScheduleAt(uint64(time.Second/time.Microsecond), func() { fired++ })
	go d.Run()

	<-d.Go(2 * time.Second)
	done := make(chan uint64)
	assert.True(t, d.PostAsync(func() { done <- d.Now() }))
	assert.Equal(t, uint64(2000000), <-done)
	assert.Equal(t, 1, fired)

	ctx.Cancel(nil)
	ctx.Wait()
	assert.False(t, d.PostAsync(func() {}))
}

func TestPcapOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PcapFrameType = pcap.FrameTypeLinkLayer
	cfg.PcapFile = filepath.Join(t.TempDir(), "current.pcap")
	d, err := NewDispatcher(progctx.New(nil), cfg)
	assert.Nil(t, err)
	_, _ = d.AddNode(1, Position{}, 0, nil)

	d.ScheduleAt(0, func() {
		d.Send(mac.NewBroadcastHeader(1).Serialize(nil), 1)
	})
	d.RunUntil(1000)
	d.Stop()

	fs, err := os.Stat(cfg.PcapFile)
	assert.Nil(t, err)
	assert.Equal(t, int64(24+16+mac.HeaderLen), fs.Size())
}
