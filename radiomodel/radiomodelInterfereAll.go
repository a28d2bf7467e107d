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

// RadioModelInterfereAll models a single shared medium: reception is limited by radio range, but any transmission
// anywhere keeps the medium busy for every node.
type RadioModelInterfereAll struct {
	Name string
	medium
}

func (rm *RadioModelInterfereAll) AddNode(node *RadioNode) {
	rm.addNode(node)
}

func (rm *RadioModelInterfereAll) CheckRadioReachable(src *RadioNode, dst *RadioNode) bool {
	return src != dst && src.InRange(dst)
}

func (rm *RadioModelInterfereAll) IsMediumBusy(_ *RadioNode, now uint64) bool {
	return now < rm.busyEnd
}

func (rm *RadioModelInterfereAll) TxStart(node *RadioNode, now uint64, airTime uint64, frameLen int) {
	rm.txStart(node, now, airTime, frameLen)
}

func (rm *RadioModelInterfereAll) GetName() string {
	return rm.Name
}

func (rm *RadioModelInterfereAll) GetPhyStats() PhyStats {
	return rm.phyStats
}
