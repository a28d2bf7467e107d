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

package radiomodel

import (
	"github.com/pkg/errors"
)

// RadioModel decides who hears a frame and when the medium is busy for a sender.
type RadioModel interface {
	// AddNode registers a node with the model.
	AddNode(node *RadioNode)

	// CheckRadioReachable returns true if a frame sent by src can be received by dst.
	CheckRadioReachable(src *RadioNode, dst *RadioNode) bool

	// IsMediumBusy returns true if node would collide with a transmission in the air at time now.
	IsMediumBusy(node *RadioNode, now uint64) bool

	// TxStart marks node as transmitting from now on for airTime us, carrying frameLen bytes.
	TxStart(node *RadioNode, now uint64, airTime uint64, frameLen int)

	// GetName returns the model name.
	GetName() string

	// GetPhyStats returns the medium statistics.
	GetPhyStats() PhyStats
}

// PhyStats counts medium usage over all nodes.
type PhyStats struct {
	NumFramesTx int    `json:"num_frames_tx"`
	NumBytesTx  int    `json:"num_bytes_tx"`
	BusyTimeUs  uint64 `json:"busy_time_us"`
}

const (
	NameIdeal        = "Ideal"
	NameInterfereAll = "InterfereAll"
)

// Create creates a new RadioModel with given name, or returns an error for unknown names.
func Create(modelName string) (RadioModel, error) {
	switch modelName {
	case NameIdeal, "ideal", "I", "1":
		return &RadioModelIdeal{Name: NameIdeal}, nil
	case NameInterfereAll, "interfereall", "IA", "2", "":
		return &RadioModelInterfereAll{Name: NameInterfereAll}, nil
	default:
		return nil, errors.Errorf("unknown radio model: %s", modelName)
	}
}

// medium tracks transmissions for the models, and the time the medium was busy.
type medium struct {
	nodes    []*RadioNode
	busyEnd  uint64
	phyStats PhyStats
}

func (m *medium) addNode(node *RadioNode) {
	m.nodes = append(m.nodes, node)
}

func (m *medium) txStart(node *RadioNode, now uint64, airTime uint64, frameLen int) {
	end := now + airTime
	switch {
	case now >= m.busyEnd:
		m.phyStats.BusyTimeUs += airTime
	case end > m.busyEnd:
		m.phyStats.BusyTimeUs += end - m.busyEnd
	}
	if end > m.busyEnd {
		m.busyEnd = end
	}
	if end > node.TxEnd {
		node.TxEnd = end
	}

	node.stats.NumFramesTx++
	node.stats.NumBytesTx += frameLen
	node.stats.AirTimeUs += airTime
	m.phyStats.NumFramesTx++
	m.phyStats.NumBytesTx += frameLen
}
