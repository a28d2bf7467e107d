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
	"encoding/hex"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/mac"
	"github.com/openble/ble-ns/pcap"
	"github.com/openble/ble-ns/progctx"
	"github.com/openble/ble-ns/radiomodel"
	. "github.com/openble/ble-ns/types"
)

const (
	// tasksCheckInterval is the number of processed events between checks for posted tasks.
	tasksCheckInterval = 1024
)

type goDuration struct {
	duration time.Duration
	done     chan struct{}
}

// Dispatcher is the discrete-event kernel of the simulation. It owns the simulation clock and the shared
// medium, runs scheduled callbacks in timestamp order and delivers frames to the nodes in range.
type Dispatcher struct {
	ctx            *progctx.ProgCtx
	cfg            Config
	CurTime        uint64
	queue          *eventQueue
	nodes          map[Address]*Node
	nodeOrder      []*Node
	radioModel     radiomodel.RadioModel
	pcap           pcap.File
	pcapFrameChan  chan pcap.Frame
	waitGroup      sync.WaitGroup
	taskChan       chan func()
	goDurationChan chan goDuration
	stopped        bool

	Counters struct {
		// Event counters
		ScheduledEvents uint64
		ProcessedEvents uint64
		// Frame dispatching counters
		FramesSent         uint64
		FramesDelivered    uint64
		MalformedFrames    uint64
		UnknownDestination uint64
	}
}

// NewDispatcher creates a Dispatcher at time 0 without any nodes.
func NewDispatcher(ctx *progctx.ProgCtx, cfg *Config) (*Dispatcher, error) {
	rm, err := radiomodel.Create(cfg.RadioModel)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		ctx:            ctx,
		cfg:            *cfg,
		queue:          newEventQueue(),
		nodes:          make(map[Address]*Node),
		radioModel:     rm,
		taskChan:       make(chan func(), 100),
		goDurationChan: make(chan goDuration, 10),
	}

	if cfg.PcapFrameType != pcap.FrameTypeOff {
		d.pcap, err = pcap.NewFile(cfg.PcapFile, cfg.PcapFrameType)
		if err != nil {
			return nil, errors.Wrapf(err, "create pcap file %s", cfg.PcapFile)
		}
		d.pcapFrameChan = make(chan pcap.Frame, 100000)
		d.waitGroup.Add(1)
		go d.pcapFrameWriter()
	}

	logger.Debugf("dispatcher started: cfg=%+v", *cfg)
	return d, nil
}

// Stop flushes and closes the PCAP output. The dispatcher must not run events afterwards.
func (d *Dispatcher) Stop() {
	if d.stopped {
		return
	}
	d.stopped = true
	if d.pcapFrameChan != nil {
		close(d.pcapFrameChan)
	}
	d.waitGroup.Wait()
	logger.Debugf("dispatcher stopped at %s", logger.FormatSimTime(d.CurTime))
}

// AddNode attaches a device to the medium.
func (d *Dispatcher) AddNode(addr Address, pos Position, radioRange float64, receiver Receiver) (*Node, error) {
	if !addr.IsValidDevice() {
		return nil, errors.Errorf("address %v can not be assigned to a device", addr)
	}
	if _, ok := d.nodes[addr]; ok {
		return nil, errors.Wrapf(ErrDuplicateAddress, "device %v", addr)
	}

	node := newNode(addr, pos, radioRange, receiver)
	d.nodes[addr] = node
	d.nodeOrder = append(d.nodeOrder, node)
	d.radioModel.AddNode(node.radio)
	return node, nil
}

// GetNode returns the node with the given address, or nil.
func (d *Dispatcher) GetNode(addr Address) *Node {
	return d.nodes[addr]
}

// Nodes returns all nodes in the order they were added.
func (d *Dispatcher) Nodes() []*Node {
	return d.nodeOrder
}

func (d *Dispatcher) GetRadioModel() radiomodel.RadioModel {
	return d.radioModel
}

// Now returns the current simulation time in us.
func (d *Dispatcher) Now() uint64 {
	return d.CurTime
}

// ScheduleAt schedules cb to run at simulation time ts. Callbacks at equal times run in scheduling order.
func (d *Dispatcher) ScheduleAt(ts uint64, cb func()) {
	if ts < d.CurTime {
		logger.Panicf("can not schedule at %d, current time is %d", ts, d.CurTime)
		return
	}
	d.queue.Add(ts, cb)
	d.Counters.ScheduledEvents++
}

// PendingEvents returns the number of scheduled callbacks that have not run yet.
func (d *Dispatcher) PendingEvents() int {
	return d.queue.Len()
}

// Busy returns true if a frame sent by from now would overlap a transmission in the air.
func (d *Dispatcher) Busy(from Address) bool {
	node := d.nodes[from]
	if node == nil {
		logger.Panicf("busy check for unknown node %v", from)
		return true
	}
	return d.radioModel.IsMediumBusy(node.radio, d.CurTime)
}

// Send puts a frame on the medium. After its air time, every node in range other than the sender receives it.
func (d *Dispatcher) Send(data []byte, from Address) {
	src := d.nodes[from]
	if src == nil {
		logger.Panicf("send from unknown node %v", from)
		return
	}

	frame := make([]byte, len(data))
	copy(frame, data)
	airTime := mac.AirTimeUs(len(frame))
	d.radioModel.TxStart(src.radio, d.CurTime, airTime, len(frame))
	d.Counters.FramesSent++
	d.checkDestination(frame)

	if d.cfg.DumpFrames {
		logger.Tracef("frame %v @%d: %s", from, d.CurTime, hex.EncodeToString(frame))
	}
	if d.pcapFrameChan != nil {
		d.pcapFrameChan <- pcap.Frame{Timestamp: d.CurTime, Data: frame}
	}

	d.ScheduleAt(d.CurTime+airTime, func() {
		d.deliver(src, frame)
	})
}

func (d *Dispatcher) checkDestination(frame []byte) {
	h, _, err := mac.ParseFrame(frame)
	if err != nil {
		d.Counters.MalformedFrames++
		return
	}
	if !h.IsBroadcast && d.nodes[h.DestAddr] == nil {
		d.Counters.UnknownDestination++
	}
}

func (d *Dispatcher) deliver(src *Node, frame []byte) {
	for _, dst := range d.nodeOrder {
		if !d.radioModel.CheckRadioReachable(src.radio, dst.radio) {
			continue
		}
		d.Counters.FramesDelivered++
		if dst.receiver != nil {
			dst.receiver.OnFrameArrival(frame)
		}
	}
}

// RunUntil runs all callbacks scheduled before ts and then advances the clock to ts. It returns early if the
// program context is cancelled.
func (d *Dispatcher) RunUntil(ts uint64) {
	logger.AssertTrue(!d.stopped)
	processed := 0
	for d.ctx.Err() == nil && d.queue.NextTimestamp() < ts {
		e := d.queue.PopNext()
		d.advanceTime(e.Timestamp)
		d.Counters.ProcessedEvents++
		e.cb()

		processed++
		if processed%tasksCheckInterval == 0 {
			d.handleTasks()
		}
	}
	if d.ctx.Err() == nil {
		d.advanceTime(ts)
	}
}

func (d *Dispatcher) advanceTime(ts uint64) {
	logger.AssertTrue(d.CurTime <= ts, "%v > %v", d.CurTime, ts)
	d.CurTime = ts
}

// Go asks the running dispatcher loop to advance the simulation by duration. The returned channel is closed
// when done.
func (d *Dispatcher) Go(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if d.ctx.Err() != nil {
		close(done)
		return done
	}
	select {
	case d.goDurationChan <- goDuration{duration: duration, done: done}:
	case <-d.ctx.Done():
		close(done)
	}
	return done
}

// Run is the dispatcher loop: it executes posted tasks and Go requests until the program context is done.
func (d *Dispatcher) Run() {
	d.ctx.WaitAdd("dispatcher", 1)
	defer d.ctx.WaitDone("dispatcher")
	defer logger.Debugf("dispatcher exit.")
	defer d.Stop()

	done := d.ctx.Done()
loop:
	for {
		select {
		case f := <-d.taskChan:
			d.runTask(f)
		case gd := <-d.goDurationChan:
			until := d.CurTime + uint64(gd.duration/time.Microsecond)
			if until < d.CurTime {
				until = Ever
			}
			d.RunUntil(until)
			if d.pcap != nil {
				d.pcapFrameChan <- pcap.Frame{} // sync marker
			}
			close(gd.done)
		case <-done:
			break loop
		}
	}

	// release callers still waiting on a Go request
	for {
		select {
		case gd := <-d.goDurationChan:
			close(gd.done)
		default:
			return
		}
	}
}

// PostAsync queues task to run on the dispatcher loop. It returns false if the program context is done.
func (d *Dispatcher) PostAsync(task func()) bool {
	if d.ctx.Err() != nil {
		return false
	}
	select {
	case d.taskChan <- task:
		return true
	case <-d.ctx.Done():
		return false
	}
}

func (d *Dispatcher) handleTasks() {
	for {
		select {
		case t := <-d.taskChan:
			d.runTask(t)
		default:
			return
		}
	}
}

func (d *Dispatcher) runTask(task func()) {
	defer func() {
		if err := recover(); err != nil {
			logger.Errorf("dispatcher handle task failed: %+v", err)
		}
	}()
	task()
}

func (d *Dispatcher) pcapFrameWriter() {
	defer d.waitGroup.Done()
	defer func() {
		if err := d.pcap.Close(); err != nil {
			logger.Errorf("failed to close pcap: %v", err)
		}
	}()

	for item := range d.pcapFrameChan {
		if item.Data == nil {
			if err := d.pcap.Sync(); err != nil {
				logger.Errorf("sync pcap failed: %+v", err)
			}
			continue
		}
		if err := d.pcap.AppendFrame(item); err != nil {
			logger.Errorf("write pcap failed: %+v", err)
		}
	}
}
