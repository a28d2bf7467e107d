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

package schedule

import (
	"fmt"

	. "github.com/openble/ble-ns/types"
)

// Link is a unicast connection between a central (DeviceA) and a peripheral (DeviceB).
// DeviceA transmits once per connection interval, at WindowOffset.
type Link struct {
	DeviceA      Address
	DeviceB      Address
	ConnInterval Units
	WindowOffset Units
}

// NewLink returns an unscheduled link between a and b.
func NewLink(a, b Address) *Link {
	return &Link{DeviceA: a, DeviceB: b}
}

// Peer returns the other end of the link as seen from addr.
func (l *Link) Peer(addr Address) Address {
	if addr == l.DeviceA {
		return l.DeviceB
	}
	return l.DeviceA
}

// NextWindowUs returns the first window start at or after ts, in microseconds.
func (l *Link) NextWindowUs(ts uint64) uint64 {
	return nextOccurrenceUs(l.ConnInterval, l.WindowOffset, ts)
}

func (l *Link) String() string {
	return fmt.Sprintf("%v-%v interval=%d offset=%d", l.DeviceA, l.DeviceB, l.ConnInterval, l.WindowOffset)
}

// BroadcastSlot is the recurring advertising slot of one device.
type BroadcastSlot struct {
	Owner      Address
	Interval   Units
	SlotOffset Units
}

// NextSlotUs returns the first slot start at or after ts, in microseconds.
func (s *BroadcastSlot) NextSlotUs(ts uint64) uint64 {
	return nextOccurrenceUs(s.Interval, s.SlotOffset, ts)
}

func (s *BroadcastSlot) String() string {
	return fmt.Sprintf("%v interval=%d offset=%d", s.Owner, s.Interval, s.SlotOffset)
}

// nextOccurrenceUs returns offset + k*interval (converted to us) for the smallest k giving a time >= ts.
func nextOccurrenceUs(interval, offset Units, ts uint64) uint64 {
	period := UnitsToUs(interval)
	first := UnitsToUs(offset)
	if ts <= first {
		return first
	}
	k := (ts - first + period - 1) / period
	return first + k*period
}
