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

package mac

import (
	"github.com/openble/ble-ns/schedule"
	. "github.com/openble/ble-ns/types"
)

// Clock is the event clock driving the engines.
type Clock interface {
	// Now returns the current simulation time in us.
	Now() uint64
	// ScheduleAt runs cb once, at simulation time ts.
	ScheduleAt(ts uint64, cb func())
}

// Channel is the shared medium.
type Channel interface {
	// Send puts a frame on the medium on behalf of from.
	Send(data []byte, from Address)
	// Busy returns true if a frame sent by from now would overlap a transmission in the air.
	Busy(from Address) bool
}

// Device is a link-layer device driven by the clock and the medium.
type Device interface {
	Address() Address
	OnScheduledUnicastWindow(link *schedule.Link)
	OnScheduledBroadcastSlot(slot *schedule.BroadcastSlot)
	OnFrameArrival(data []byte)
}

// EngineConfig tunes the traffic an Engine generates.
type EngineConfig struct {
	// PayloadSize is the payload length of every frame, in bytes (at least SeqLen).
	PayloadSize int
	// UnicastRepeats is the number of windows in which each unicast sequence number is sent.
	UnicastRepeats int
	// SendUntil stops arming windows and slots at or after this time (us). 0 means never.
	SendUntil uint64
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PayloadSize:    20,
		UnicastRepeats: 1,
		SendUntil:      0,
	}
}
