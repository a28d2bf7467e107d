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
	"github.com/openble/ble-ns/event"
	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/schedule"
	. "github.com/openble/ble-ns/types"
)

type linkState struct {
	link    *schedule.Link
	next    uint64 // next armed window, Ever if none
	txCount uint32
}

// Engine is the link-layer state machine of one device. It transmits in its unicast windows (for the links it
// is central of) and in its broadcast slot, and classifies every arriving frame. All state changes are
// reported as trace events on the Emitter.
type Engine struct {
	addr    Address
	cfg     EngineConfig
	clock   Clock
	channel Channel
	emitter event.Emitter
	log     *logger.DeviceLogger

	state    DeviceState
	links    []*linkState
	slot     *schedule.BroadcastSlot
	slotNext uint64
	bcastSeq uint32
	txEnd    uint64
	armed    bool
	lastSeq  map[Address]uint32
}

var _ Device = (*Engine)(nil)

// NewEngine creates an idle Engine for the device at addr.
func NewEngine(addr Address, cfg EngineConfig, clock Clock, channel Channel, emitter event.Emitter) *Engine {
	if cfg.UnicastRepeats < 1 {
		cfg.UnicastRepeats = 1
	}
	if cfg.PayloadSize < SeqLen {
		cfg.PayloadSize = SeqLen
	}
	if emitter == nil {
		emitter = event.NopEmitter{}
	}
	return &Engine{
		addr:     addr,
		cfg:      cfg,
		clock:    clock,
		channel:  channel,
		emitter:  emitter,
		state:    DeviceStateIdle,
		slotNext: Ever,
		lastSeq:  make(map[Address]uint32),
	}
}

func (e *Engine) Address() Address {
	return e.addr
}

// SetLogger sets the device logger used for tracing.
func (e *Engine) SetLogger(log *logger.DeviceLogger) {
	e.log = log
}

// State returns the current state.
func (e *Engine) State() DeviceState {
	return e.state
}

// AddLink adds a link the device transmits on. The device must be the link's DeviceA.
func (e *Engine) AddLink(link *schedule.Link) {
	logger.AssertTrue(link.DeviceA == e.addr, "link %v is not sent by %v", link, e.addr)
	e.links = append(e.links, &linkState{link: link, next: Ever})
}

// Links returns the links the device transmits on.
func (e *Engine) Links() []*schedule.Link {
	links := make([]*schedule.Link, len(e.links))
	for i, ls := range e.links {
		links[i] = ls.link
	}
	return links
}

// SetBroadcastSlot sets the device's advertising slot.
func (e *Engine) SetBroadcastSlot(slot *schedule.BroadcastSlot) {
	logger.AssertTrue(slot.Owner == e.addr, "slot %v is not owned by %v", slot, e.addr)
	e.slot = slot
}

// BroadcastSlot returns the device's advertising slot, or nil.
func (e *Engine) BroadcastSlot() *schedule.BroadcastSlot {
	return e.slot
}

// Arm schedules the first occurrence, at or after now, of every window and of the broadcast slot.
func (e *Engine) Arm() {
	if e.armed {
		return
	}
	e.armed = true
	now := e.clock.Now()
	for _, ls := range e.links {
		e.armWindow(ls, ls.link.NextWindowUs(now))
	}
	if e.slot != nil {
		e.armSlot(e.slot.NextSlotUs(now))
	}
	e.state = e.armedState()
}

func (e *Engine) canSendAt(ts uint64) bool {
	return e.cfg.SendUntil == 0 || ts < e.cfg.SendUntil
}

func (e *Engine) armWindow(ls *linkState, ts uint64) {
	ls.next = Ever
	if !e.canSendAt(ts) {
		return
	}
	ls.next = ts
	link := ls.link
	e.clock.ScheduleAt(ts, func() {
		e.OnScheduledUnicastWindow(link)
	})
}

func (e *Engine) armSlot(ts uint64) {
	e.slotNext = Ever
	if !e.canSendAt(ts) {
		return
	}
	e.slotNext = ts
	slot := e.slot
	e.clock.ScheduleAt(ts, func() {
		e.OnScheduledBroadcastSlot(slot)
	})
}

// armedState derives the resting state from the earliest pending window or slot.
func (e *Engine) armedState() DeviceState {
	next := e.slotNext
	state := DeviceStateArmedBroadcast
	for _, ls := range e.links {
		if ls.next < next {
			next = ls.next
			state = DeviceStateArmedUnicast
		}
	}
	if next == Ever {
		return DeviceStateIdle
	}
	return state
}

func (e *Engine) linkState(link *schedule.Link) *linkState {
	for _, ls := range e.links {
		if ls.link == link {
			return ls
		}
	}
	return nil
}

func (e *Engine) mediumBusy(now uint64) bool {
	return now < e.txEnd || e.channel.Busy(e.addr)
}

// OnScheduledUnicastWindow transmits one frame to the link's peer, or skips the window if the medium is busy.
// The next window of the link is armed either way.
func (e *Engine) OnScheduledUnicastWindow(link *schedule.Link) {
	ls := e.linkState(link)
	if ls == nil {
		logger.Panicf("device %v has no link %v", e.addr, link)
		return
	}
	now := e.clock.Now()
	peer := link.Peer(e.addr)

	if e.mediumBusy(now) {
		e.emit(event.EventTypeTxWindowSkipped, peer)
		e.tracef("unicast window to %v skipped", peer)
	} else {
		seq := ls.txCount / uint32(e.cfg.UnicastRepeats)
		ls.txCount++
		e.transmit(NewUnicastHeader(e.addr, peer), seq)
	}
	e.armWindow(ls, link.NextWindowUs(now+1))
	if e.state != DeviceStateTransmitting {
		e.state = e.armedState()
	}
}

// OnScheduledBroadcastSlot transmits one broadcast frame, or skips the slot if the medium is busy. The next
// slot is armed either way.
func (e *Engine) OnScheduledBroadcastSlot(slot *schedule.BroadcastSlot) {
	now := e.clock.Now()
	if e.mediumBusy(now) {
		e.emit(event.EventTypeTxWindowSkipped, BroadcastAddress)
		e.tracef("broadcast slot skipped")
	} else {
		e.transmit(NewBroadcastHeader(e.addr), e.bcastSeq)
		e.bcastSeq++
	}
	e.armSlot(slot.NextSlotUs(now + 1))
	if e.state != DeviceStateTransmitting {
		e.state = e.armedState()
	}
}

func (e *Engine) transmit(h FrameHeader, seq uint32) {
	frame := h.Serialize(NewPayload(seq, e.cfg.PayloadSize))
	now := e.clock.Now()

	e.emit(event.EventTypeTransmitted, h.DestAddr)
	e.channel.Send(frame, e.addr)
	e.state = DeviceStateTransmitting
	e.txEnd = now + AirTimeUs(len(frame))
	e.clock.ScheduleAt(e.txEnd, e.onTxDone)
	e.tracef("tx %v seq=%d", h, seq)
}

func (e *Engine) onTxDone() {
	if e.clock.Now() >= e.txEnd {
		e.state = e.armedState()
	}
}

// OnFrameArrival classifies a frame that reached the device. Frames that do not parse count as errors; frames
// for other devices are ignored.
func (e *Engine) OnFrameArrival(data []byte) {
	h, payload, err := ParseFrame(data)
	if err != nil {
		e.emit(event.EventTypeReceivedError, InvalidAddress)
		return
	}
	if h.SrcAddr == e.addr || (!h.IsBroadcast && h.DestAddr != e.addr) {
		return
	}

	e.emit(event.EventTypeReceived, h.SrcAddr)
	if h.IsBroadcast {
		e.emit(event.EventTypeReceivedBroadcast, h.SrcAddr)
		return
	}

	seq, ok := PayloadSeq(payload)
	if ok {
		if last, seen := e.lastSeq[h.SrcAddr]; seen && last == seq {
			e.tracef("duplicate seq=%d from %v", seq, h.SrcAddr)
			return
		}
		e.lastSeq[h.SrcAddr] = seq
	}
	e.emit(event.EventTypeReceivedUnique, h.SrcAddr)
}

func (e *Engine) emit(tp event.EventType, peer Address) {
	e.emitter.Emit(event.Event{
		Type:      tp,
		Addr:      e.addr,
		Peer:      peer,
		Timestamp: e.clock.Now(),
	})
}

func (e *Engine) tracef(format string, args ...interface{}) {
	if e.log != nil {
		e.log.Tracef(format, args...)
	}
}
