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
	"github.com/openble/ble-ns/radiomodel"
)

// Stats summarizes the dispatcher counters and medium usage.
type Stats struct {
	TimeUs             uint64              `json:"time_us" yaml:"time-us"`
	ProcessedEvents    uint64              `json:"processed_events" yaml:"processed-events"`
	PendingEvents      int                 `json:"pending_events" yaml:"pending-events"`
	FramesSent         uint64              `json:"frames_sent" yaml:"frames-sent"`
	FramesDelivered    uint64              `json:"frames_delivered" yaml:"frames-delivered"`
	MalformedFrames    uint64              `json:"malformed_frames" yaml:"malformed-frames"`
	UnknownDestination uint64              `json:"unknown_destination" yaml:"unknown-destination"`
	Phy                radiomodel.PhyStats `json:"phy" yaml:"phy"`
	MediumUtilization  float64             `json:"medium_utilization" yaml:"medium-utilization"`
}

// GetStats returns fresh dispatcher statistics.
func (d *Dispatcher) GetStats() Stats {
	s := Stats{
		TimeUs:             d.CurTime,
		ProcessedEvents:    d.Counters.ProcessedEvents,
		PendingEvents:      d.queue.Len(),
		FramesSent:         d.Counters.FramesSent,
		FramesDelivered:    d.Counters.FramesDelivered,
		MalformedFrames:    d.Counters.MalformedFrames,
		UnknownDestination: d.Counters.UnknownDestination,
		Phy:                d.radioModel.GetPhyStats(),
	}
	if d.CurTime > 0 {
		s.MediumUtilization = float64(s.Phy.BusyTimeUs) / float64(d.CurTime)
	}
	return s
}
