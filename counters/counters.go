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
	"sort"

	"github.com/openble/ble-ns/event"
	"github.com/openble/ble-ns/logger"
	. "github.com/openble/ble-ns/types"
)

// Counters holds the per-device link-layer counters and the device position.
type Counters struct {
	Transmitted       uint64  `yaml:"transmitted" json:"transmitted"`
	Received          uint64  `yaml:"received" json:"received"`
	ReceivedUnique    uint64  `yaml:"received-unique" json:"receivedUnique"`
	ReceivedError     uint64  `yaml:"received-error" json:"receivedError"`
	BroadcastReceived uint64  `yaml:"broadcast-received" json:"broadcastReceived"`
	TxWindowsSkipped  uint64  `yaml:"tx-windows-skipped" json:"txWindowsSkipped"`
	X                 float64 `yaml:"x" json:"x"`
	Y                 float64 `yaml:"y" json:"y"`
}

// Add accumulates the event counts of o into c. Positions are left unchanged.
func (c *Counters) Add(o *Counters) {
	c.Transmitted += o.Transmitted
	c.Received += o.Received
	c.ReceivedUnique += o.ReceivedUnique
	c.ReceivedError += o.ReceivedError
	c.BroadcastReceived += o.BroadcastReceived
	c.TxWindowsSkipped += o.TxWindowsSkipped
}

func (c *Counters) field(t event.EventType) *uint64 {
	switch t {
	case event.EventTypeTransmitted:
		return &c.Transmitted
	case event.EventTypeReceived:
		return &c.Received
	case event.EventTypeReceivedUnique:
		return &c.ReceivedUnique
	case event.EventTypeReceivedBroadcast:
		return &c.BroadcastReceived
	case event.EventTypeReceivedError:
		return &c.ReceivedError
	case event.EventTypeTxWindowSkipped:
		return &c.TxWindowsSkipped
	default:
		return nil
	}
}

// IndexFunc maps a device address to its zero-based report index.
type IndexFunc func(addr Address) int

// BaseIndex returns an IndexFunc for addresses assigned sequentially from base.
func BaseIndex(base Address) IndexFunc {
	return func(addr Address) int {
		return int(addr) - int(base)
	}
}

// Sink accumulates trace events into per-device Counters. Events for unregistered addresses are dropped.
type Sink struct {
	devices map[Address]*Counters
	order   []Address
	indexOf IndexFunc
	dropped uint64
}

// NewSink creates an empty Sink. A nil indexOf orders reports by address, starting at 00:01.
func NewSink(indexOf IndexFunc) *Sink {
	if indexOf == nil {
		indexOf = BaseIndex(1)
	}
	return &Sink{
		devices: make(map[Address]*Counters),
		indexOf: indexOf,
	}
}

// Attach subscribes the sink to every event type of bus.
func (s *Sink) Attach(bus *event.Bus) {
	bus.SubscribeAll(s.Emit)
}

// Register adds a device at position (x, y). Registering an address again keeps its counters and moves it.
func (s *Sink) Register(addr Address, x, y float64) *Counters {
	c, ok := s.devices[addr]
	if !ok {
		c = &Counters{}
		s.devices[addr] = c
		s.order = append(s.order, addr)
	}
	c.X, c.Y = x, y
	return c
}

// Emit implements event.Emitter.
func (s *Sink) Emit(evt event.Event) {
	c, ok := s.devices[evt.Addr]
	if !ok {
		s.dropped++
		logger.Debugf("counters: dropped %v for unknown device %v", evt.Type, evt.Addr)
		return
	}
	if f := c.field(evt.Type); f != nil {
		*f++
	}
}

// Get returns the counters of addr, or nil if unknown.
func (s *Sink) Get(addr Address) *Counters {
	return s.devices[addr]
}

// Dropped returns the number of events dropped for unknown addresses.
func (s *Sink) Dropped() uint64 {
	return s.dropped
}

// Addresses returns the registered addresses in report order.
func (s *Sink) Addresses() []Address {
	addrs := make([]Address, len(s.order))
	copy(addrs, s.order)
	sort.SliceStable(addrs, func(i, j int) bool {
		return s.indexOf(addrs[i]) < s.indexOf(addrs[j])
	})
	return addrs
}

// Totals returns the sum of all devices' counters.
func (s *Sink) Totals() Counters {
	var total Counters
	for _, c := range s.devices {
		total.Add(c)
	}
	return total
}

// Reset zeroes all event counts, keeping devices and positions.
func (s *Sink) Reset() {
	for _, c := range s.devices {
		*c = Counters{X: c.X, Y: c.Y}
	}
	s.dropped = 0
}
