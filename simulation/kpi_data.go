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

package simulation

import (
	"github.com/openble/ble-ns/counters"
	"github.com/openble/ble-ns/dispatcher"
)

type KpiTimeUs struct {
	StartTimeUs uint64 `json:"start"`
	EndTimeUs   uint64 `json:"end"`
	PeriodUs    uint64 `json:"duration"`
}

type KpiTimeSec struct {
	StartTimeSec float64 `json:"start"`
	EndTimeSec   float64 `json:"end"`
	PeriodSec    float64 `json:"duration"`
}

type KpiMedium struct {
	BusyTimeUs     uint64  `json:"busy_time_us"`
	BusyPercentage float64 `json:"busy_percent"`
	NumFrames      uint64  `json:"tx_frames"`
	AvgFps         float64 `json:"tx_avg_fps"`
}

type KpiLinkLayer struct {
	// UniqueRatio is unique receptions per transmission.
	UniqueRatio float64 `json:"unique_ratio"`
	// SkipPercentage is the share of windows and slots skipped because the medium was busy.
	SkipPercentage float64 `json:"skip_percent"`
	// DroppedEvents counts trace events for devices not in the topology.
	DroppedEvents uint64 `json:"dropped_events"`
}

// KpiEnergy is the mean radio energy per device over the KPI period, in mJ.
type KpiEnergy struct {
	Idle  float64 `json:"idle_mj"`
	Tx    float64 `json:"tx_mj"`
	Rx    float64 `json:"rx_mj"`
	Total float64 `json:"total_mj"`
}

type Kpi struct {
	FileTime   string                       `json:"created"`
	Status     string                       `json:"status"`
	Iteration  int                          `json:"iteration"`
	Seed       int64                        `json:"seed"`
	TimeUs     KpiTimeUs                    `json:"time_us"`
	TimeSec    KpiTimeSec                   `json:"time_sec"`
	Medium     KpiMedium                    `json:"medium"`
	LinkLayer  KpiLinkLayer                 `json:"link_layer"`
	Energy     KpiEnergy                    `json:"energy"`
	Dispatcher dispatcher.Stats             `json:"dispatcher"`
	Totals     counters.Counters            `json:"totals"`
	Counters   map[string]counters.Counters `json:"counters"`
}
