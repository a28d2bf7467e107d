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
	"sort"

	. "github.com/openble/ble-ns/types"
)

// Kind tells unicast windows and broadcast slots apart in the Occupancy.
type Kind int

const (
	KindUnicast   Kind = 0
	KindBroadcast Kind = 1
)

func (k Kind) String() string {
	if k == KindBroadcast {
		return "broadcast"
	}
	return "unicast"
}

// Entry is one placed window or slot.
type Entry struct {
	Kind     Kind
	Owner    string
	Interval Units
	Offset   Units
}

func (e Entry) String() string {
	return fmt.Sprintf("%-9s %-11s interval=%-4d offset=%d", e.Kind, e.Owner, e.Interval, e.Offset)
}

// Occupancy records every offset placed by the link and broadcast schedulers, so that placements made later
// can avoid the ones made earlier.
type Occupancy struct {
	entries  []Entry
	byOffset map[Units][]int
}

// NewOccupancy returns an empty Occupancy.
func NewOccupancy() *Occupancy {
	return &Occupancy{
		byOffset: make(map[Units][]int),
	}
}

// Add records a placement.
func (o *Occupancy) Add(e Entry) {
	o.byOffset[e.Offset] = append(o.byOffset[e.Offset], len(o.entries))
	o.entries = append(o.entries, e)
}

// Len returns the number of placements.
func (o *Occupancy) Len() int {
	return len(o.entries)
}

// Entries returns all placements ordered by offset, then by placement order.
func (o *Occupancy) Entries() []Entry {
	res := make([]Entry, len(o.entries))
	copy(res, o.entries)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Offset < res[j].Offset
	})
	return res
}

// At returns the placements starting exactly at offset.
func (o *Occupancy) At(offset Units) []Entry {
	var res []Entry
	for _, idx := range o.byOffset[offset] {
		res = append(res, o.entries[idx])
	}
	return res
}

// Conflicts checks whether a window at offset (inside interval) lies within guard of any placement of the
// selected kinds. Two recurring windows meet wherever their offsets agree modulo the gcd of their intervals,
// so they are compared on a circle of that size.
func (o *Occupancy) Conflicts(interval, offset, guard Units, unicast, broadcast bool) bool {
	if guard == 0 {
		return false
	}
	for _, e := range o.entries {
		if (e.Kind == KindUnicast && !unicast) || (e.Kind == KindBroadcast && !broadcast) {
			continue
		}
		if distance(interval, offset, e.Interval, e.Offset) < guard {
			return true
		}
	}
	return false
}

// distance returns how close two recurring windows ever get, in units.
func distance(intervalA, offsetA, intervalB, offsetB Units) Units {
	ring := gcd(intervalA, intervalB)
	if ring == 0 {
		return 0
	}
	var d Units
	if offsetA > offsetB {
		d = (offsetA - offsetB) % ring
	} else {
		d = (offsetB - offsetA) % ring
	}
	if ring-d < d {
		d = ring - d
	}
	return d
}

func gcd(a, b Units) Units {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
