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
	"container/heap"

	"github.com/openble/ble-ns/logger"
	. "github.com/openble/ble-ns/types"
)

type timerEvent struct {
	Timestamp uint64
	seq       uint64 // insertion order, breaks timestamp ties
	cb        func()

	index int
}

type timerQueue []*timerEvent

func (tq timerQueue) Len() int {
	return len(tq)
}

func (tq timerQueue) Less(i, j int) bool {
	if tq[i].Timestamp != tq[j].Timestamp {
		return tq[i].Timestamp < tq[j].Timestamp
	}
	return tq[i].seq < tq[j].seq
}

func (tq timerQueue) Swap(i, j int) {
	a, b := tq[i], tq[j]
	if a.index != i || b.index != j {
		logger.Panicf("wrong index")
	}

	tq[i], tq[j] = b, a             // swap the elements
	tq[i].index, tq[j].index = i, j // fix the indexes
}

func (tq *timerQueue) Push(x interface{}) {
	e := x.(*timerEvent)
	*tq = append(*tq, e)
	e.index = len(*tq) - 1
}

func (tq *timerQueue) Pop() (elem interface{}) {
	n := len(*tq)
	e := (*tq)[n-1]
	(*tq)[n-1] = nil
	*tq = (*tq)[:n-1]
	e.index = -1
	return e
}

// eventQueue orders one-shot callbacks by timestamp, then by insertion order.
type eventQueue struct {
	q       timerQueue
	nextSeq uint64
}

func newEventQueue() *eventQueue {
	eq := &eventQueue{
		q: timerQueue{},
	}
	heap.Init(&eq.q)
	return eq
}

func (eq *eventQueue) Add(ts uint64, cb func()) {
	logger.AssertNotNil(cb)
	heap.Push(&eq.q, &timerEvent{
		Timestamp: ts,
		seq:       eq.nextSeq,
		cb:        cb,
	})
	eq.nextSeq++
}

func (eq *eventQueue) Len() int {
	return len(eq.q)
}

func (eq *eventQueue) NextTimestamp() uint64 {
	if len(eq.q) == 0 {
		return Ever
	}
	return eq.q[0].Timestamp
}

func (eq *eventQueue) PopNext() *timerEvent {
	if len(eq.q) == 0 {
		return nil
	}
	return heap.Pop(&eq.q).(*timerEvent)
}
