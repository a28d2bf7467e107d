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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openble/ble-ns/counters"
	"github.com/openble/ble-ns/energy"
	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/radiomodel"
	. "github.com/openble/ble-ns/types"
)

type KpiManager struct {
	sim           *Simulation
	data          *Kpi
	startCounters CountersStore
	curCounters   CountersStore
	startPhy      radiomodel.PhyStats
	startEnergy   map[Address]energy.DeviceEnergy
	isRunning     bool
}

type CountersStore map[Address]counters.Counters

// NewKpiManager creates a new KPI manager/bookkeeper for a particular simulation.
func NewKpiManager() *KpiManager {
	km := &KpiManager{}
	return km
}

// Init inits the KPI manager for the given simulation.
func (km *KpiManager) Init(sim *Simulation) {
	logger.AssertNil(km.sim)
	logger.AssertFalse(km.isRunning)
	km.sim = sim
	km.data = &Kpi{Status: "ok", Iteration: sim.iteration, Seed: sim.seed}
	km.startCounters = CountersStore{}
	km.curCounters = CountersStore{}
}

// Start begins a KPI period at the current simulation time.
func (km *KpiManager) Start() {
	logger.AssertNotNil(km.sim)
	km.startCounters = km.retrieveCounters()
	km.startPhy = km.sim.Dispatcher().GetRadioModel().GetPhyStats()
	km.startEnergy = km.retrieveEnergy()
	km.data.TimeUs.StartTimeUs = km.sim.Dispatcher().Now()
	km.isRunning = true
}

// Stop ends the KPI period and, with an output directory configured, writes the KPI file.
func (km *KpiManager) Stop() {
	if km.isRunning {
		km.curCounters = km.retrieveCounters()
		km.isRunning = false
		km.calculateKpis()
		if km.sim.cfg.OutputDir != "" {
			km.SaveDefaultFile()
		}
	}
}

func (km *KpiManager) IsRunning() bool {
	return km.isRunning
}

// Data returns the KPIs, up to date if the period is still running.
func (km *KpiManager) Data() *Kpi {
	if km.isRunning {
		km.curCounters = km.retrieveCounters()
		km.calculateKpis()
	}
	return km.data
}

func (km *KpiManager) SaveDefaultFile() {
	km.SaveFile(km.getDefaultSaveFileName())
}

func (km *KpiManager) SaveFile(fn string) {
	logger.AssertNotNil(km.sim)
	data := km.Data()
	data.FileTime = time.Now().Format(time.RFC3339)
	json, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		logger.Fatalf("Could not marshal KPI JSON data: %v", err)
		return
	}

	err = os.WriteFile(fn, json, 0644)
	if err != nil {
		logger.Errorf("Could not write KPI JSON file %s: %v", fn, err)
		return
	}
}

func (km *KpiManager) retrieveCounters() CountersStore {
	sink := km.sim.Sink()
	addrs := sink.Addresses()
	store := make(CountersStore, len(addrs))
	for _, addr := range addrs {
		store[addr] = *sink.Get(addr)
	}
	return store
}

func getCountersDiff(cur counters.Counters, start counters.Counters) counters.Counters {
	return counters.Counters{
		Transmitted:       cur.Transmitted - start.Transmitted,
		Received:          cur.Received - start.Received,
		ReceivedUnique:    cur.ReceivedUnique - start.ReceivedUnique,
		ReceivedError:     cur.ReceivedError - start.ReceivedError,
		BroadcastReceived: cur.BroadcastReceived - start.BroadcastReceived,
		TxWindowsSkipped:  cur.TxWindowsSkipped - start.TxWindowsSkipped,
		X:                 cur.X,
		Y:                 cur.Y,
	}
}

func percentage(part, whole uint64) float64 {
	if whole == 0 {
		return 0.0
	}
	return 100.0 * float64(part) / float64(whole)
}

func (km *KpiManager) calculateKpis() {
	d := km.sim.Dispatcher()

	// time
	km.data.TimeUs.EndTimeUs = d.Now()
	km.data.TimeUs.PeriodUs = km.data.TimeUs.EndTimeUs - km.data.TimeUs.StartTimeUs
	km.data.TimeSec.StartTimeSec = float64(km.data.TimeUs.StartTimeUs) / 1e6
	km.data.TimeSec.EndTimeSec = float64(km.data.TimeUs.EndTimeUs) / 1e6
	km.data.TimeSec.PeriodSec = float64(km.data.TimeUs.PeriodUs) / 1e6
	if km.sim.ctx.Err() != nil {
		km.data.Status = "interrupted"
	}

	// medium
	phy := d.GetRadioModel().GetPhyStats()
	km.data.Medium = KpiMedium{
		BusyTimeUs: phy.BusyTimeUs - km.startPhy.BusyTimeUs,
		NumFrames:  uint64(phy.NumFramesTx - km.startPhy.NumFramesTx),
	}
	if period := km.data.TimeUs.PeriodUs; period > 0 {
		km.data.Medium.BusyPercentage = percentage(km.data.Medium.BusyTimeUs, period)
		km.data.Medium.AvgFps = 1.0e6 * float64(km.data.Medium.NumFrames) / float64(period)
	}
	km.data.Dispatcher = d.GetStats()

	// counters
	var totals counters.Counters
	km.data.Counters = make(map[string]counters.Counters, len(km.curCounters))
	for addr, ctr := range km.curCounters {
		diff := getCountersDiff(ctr, km.startCounters[addr])
		km.data.Counters[addr.String()] = diff
		totals.Add(&diff)
	}
	km.data.Totals = totals

	ll := &km.data.LinkLayer
	ll.UniqueRatio = 0.0
	if totals.Transmitted > 0 {
		ll.UniqueRatio = float64(totals.ReceivedUnique) / float64(totals.Transmitted)
	}
	ll.SkipPercentage = percentage(totals.TxWindowsSkipped, totals.Transmitted+totals.TxWindowsSkipped)
	ll.DroppedEvents = km.sim.Sink().Dropped()

	// energy
	km.data.Energy = KpiEnergy{}
	cur := km.retrieveEnergy()
	if len(cur) > 0 {
		n := float64(len(cur))
		for addr, e := range cur {
			start := km.startEnergy[addr]
			km.data.Energy.Idle += (e.Idle - start.Idle) / n
			km.data.Energy.Tx += (e.Tx - start.Tx) / n
			km.data.Energy.Rx += (e.Rx - start.Rx) / n
		}
		km.data.Energy.Total = km.data.Energy.Idle + km.data.Energy.Tx + km.data.Energy.Rx
	}
}

func (km *KpiManager) retrieveEnergy() map[Address]energy.DeviceEnergy {
	res := map[Address]energy.DeviceEnergy{}
	if km.sim.energy == nil {
		return res
	}
	for _, e := range km.sim.energy.Devices(km.sim.Dispatcher().Now()) {
		res[e.Addr] = e
	}
	return res
}

func (km *KpiManager) getDefaultSaveFileName() string {
	return filepath.Join(km.sim.cfg.OutputDir, fmt.Sprintf("%d_%d_kpi.json", km.sim.cfg.Id, km.sim.iteration))
}
