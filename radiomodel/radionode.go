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
	"math"

	. "github.com/openble/ble-ns/types"
)

// RadioNode is the status of a single radio node of the radio model, used by all radio models.
type RadioNode struct {
	Addr Address

	// RadioRange is the radio range in meters; 0 means unlimited.
	RadioRange float64

	// Node position in meters.
	X, Y float64

	// TxEnd is the end time of the node's last transmission.
	TxEnd uint64

	stats RadioNodeStats
}

type RadioNodeStats struct {
	NumFramesTx int
	NumBytesTx  int
	AirTimeUs   uint64
}

func NewRadioNode(addr Address, pos Position, radioRange float64) *RadioNode {
	return &RadioNode{
		Addr:       addr,
		RadioRange: radioRange,
		X:          pos.X,
		Y:          pos.Y,
	}
}

func (rn *RadioNode) SetNodePos(x, y float64) {
	rn.X, rn.Y = x, y
}

// GetDistanceTo gets the distance to another RadioNode.
func (rn *RadioNode) GetDistanceTo(other *RadioNode) float64 {
	dx := other.X - rn.X
	dy := other.Y - rn.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// InRange returns true if other is within the radio range of rn.
func (rn *RadioNode) InRange(other *RadioNode) bool {
	return rn.RadioRange <= 0 || rn.GetDistanceTo(other) <= rn.RadioRange
}

// IsTransmitting returns true if the node's last transmission is still in the air at time now.
func (rn *RadioNode) IsTransmitting(now uint64) bool {
	return now < rn.TxEnd
}

func (rn *RadioNode) Stats() RadioNodeStats {
	return rn.stats
}
