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
	. "github.com/openble/ble-ns/types"
)

// Receiver is handed every frame that reaches a node.
type Receiver interface {
	OnFrameArrival(data []byte)
}

// Node is a device attached to the medium.
type Node struct {
	Addr     Address
	radio    *radiomodel.RadioNode
	receiver Receiver
}

func newNode(addr Address, pos Position, radioRange float64, receiver Receiver) *Node {
	return &Node{
		Addr:     addr,
		radio:    radiomodel.NewRadioNode(addr, pos, radioRange),
		receiver: receiver,
	}
}

// Position returns the node's position.
func (node *Node) Position() Position {
	return Position{X: node.radio.X, Y: node.radio.Y}
}

// RadioStats returns the transmit statistics of the node.
func (node *Node) RadioStats() radiomodel.RadioNodeStats {
	return node.radio.Stats()
}
