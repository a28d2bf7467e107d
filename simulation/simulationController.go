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
	"github.com/openble/ble-ns/energy"
	"github.com/openble/ble-ns/schedule"
	. "github.com/openble/ble-ns/types"
)

// Controller gives other goroutines (console, web monitor) access to a running simulation. Every call is
// executed on the dispatcher loop.
type Controller struct {
	sim *Simulation
}

func NewController(sim *Simulation) *Controller {
	return &Controller{sim: sim}
}

func (sc *Controller) call(f func()) error {
	done := make(chan struct{})
	if !sc.sim.PostAsync(func() {
		defer close(done)
		f()
	}) {
		return CommandInterruptedError
	}
	select {
	case <-done:
		return nil
	case <-sc.sim.ctx.Done():
		return CommandInterruptedError
	}
}

// Now returns the current simulation time in us.
func (sc *Controller) Now() (ts uint64, err error) {
	err = sc.call(func() {
		ts = sc.sim.d.Now()
	})
	return
}

// Records returns the report rows as of now.
func (sc *Controller) Records() (records []counters.Record, err error) {
	err = sc.call(func() {
		records = sc.sim.Records()
	})
	return
}

// DeviceCounters returns the counters of the device at addr.
func (sc *Controller) DeviceCounters(addr Address) (ctr counters.Counters, err error) {
	callErr := sc.call(func() {
		if _, err = sc.sim.GetDevice(addr); err == nil {
			ctr = *sc.sim.sink.Get(addr)
		}
	})
	if callErr != nil {
		err = callErr
	}
	return
}

// Links returns copies of the scheduled links.
func (sc *Controller) Links() (links []schedule.Link, err error) {
	err = sc.call(func() {
		for _, link := range sc.sim.links {
			links = append(links, *link)
		}
	})
	return
}

// Slots returns copies of the scheduled broadcast slots.
func (sc *Controller) Slots() (slots []schedule.BroadcastSlot, err error) {
	err = sc.call(func() {
		for _, slot := range sc.sim.slots {
			slots = append(slots, *slot)
		}
	})
	return
}

// Kpi returns a copy of the KPIs as of now.
func (sc *Controller) Kpi() (kpi Kpi, err error) {
	err = sc.call(func() {
		kpi = *sc.sim.kpiMgr.Data()
	})
	return
}

// Energy returns the radio energy of every device as of now.
func (sc *Controller) Energy() (devices []energy.DeviceEnergy, err error) {
	err = sc.call(func() {
		devices = sc.sim.energy.Devices(sc.sim.d.Now())
	})
	return
}

// Stats returns the dispatcher statistics.
func (sc *Controller) Stats() (stats dispatcher.Stats, err error) {
	err = sc.call(func() {
		stats = sc.sim.d.GetStats()
	})
	return
}
