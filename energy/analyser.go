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

// Package energy estimates the radio energy of every device from its transmitted and received frames.
package energy

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/openble/ble-ns/event"
	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/mac"
	. "github.com/openble/ble-ns/types"
)

// Analyser accounts air time per device: a transmitted frame counts as TX time of the sender, a received frame
// (also a malformed one) as RX time of the receiver. Every other moment the radio is idle.
type Analyser struct {
	airTimeUs      uint64
	devices        map[Address]*RadioStatus
	order          []Address
	networkHistory []NetworkConsumption
}

// NewAnalyser creates an Analyser for frames of frameLen bytes.
func NewAnalyser(frameLen int) *Analyser {
	return &Analyser{
		airTimeUs:      mac.AirTimeUs(frameLen),
		devices:        map[Address]*RadioStatus{},
		networkHistory: make([]NetworkConsumption, 0, 64),
	}
}

func (a *Analyser) AddDevice(addr Address) {
	if _, ok := a.devices[addr]; ok {
		return
	}
	a.devices[addr] = &RadioStatus{}
	a.order = append(a.order, addr)
}

// Attach subscribes the analyser to the frame events of bus.
func (a *Analyser) Attach(bus *event.Bus) {
	bus.Subscribe(event.EventTypeTransmitted, a.Emit)
	bus.Subscribe(event.EventTypeReceived, a.Emit)
	bus.Subscribe(event.EventTypeReceivedError, a.Emit)
}

func (a *Analyser) Emit(evt event.Event) {
	radio := a.devices[evt.Addr]
	if radio == nil {
		return
	}
	switch evt.Type {
	case event.EventTypeTransmitted:
		radio.SpentTx += a.airTimeUs
	case event.EventTypeReceived, event.EventTypeReceivedError:
		radio.SpentRx += a.airTimeUs
	}
}

// StartSampling stores the network energy every period, starting one period from now.
func (a *Analyser) StartSampling(clock mac.Clock, period uint64) {
	var sample func()
	sample = func() {
		a.StoreNetworkEnergy(clock.Now())
		clock.ScheduleAt(clock.Now()+period, sample)
	}
	clock.ScheduleAt(clock.Now()+period, sample)
}

// Devices returns the energy of all devices at timestamp, in the order they were added.
func (a *Analyser) Devices(timestamp uint64) []DeviceEnergy {
	res := make([]DeviceEnergy, 0, len(a.order))
	for _, addr := range a.order {
		res = append(res, a.deviceEnergy(addr, timestamp))
	}
	return res
}

func (a *Analyser) deviceEnergy(addr Address, timestamp uint64) DeviceEnergy {
	radio := a.devices[addr]
	var idle uint64
	if busy := radio.SpentTx + radio.SpentRx; busy < timestamp {
		idle = timestamp - busy
	}
	return DeviceEnergy{
		Addr: addr,
		Idle: float64(idle) * RadioIdleConsumption,
		Tx:   float64(radio.SpentTx) * RadioTxConsumption,
		Rx:   float64(radio.SpentRx) * RadioRxConsumption,
	}
}

func (a *Analyser) StoreNetworkEnergy(timestamp uint64) {
	snapshot := NetworkConsumption{Timestamp: timestamp}
	netSize := float64(len(a.order))
	for _, addr := range a.order {
		e := a.deviceEnergy(addr, timestamp)
		snapshot.EnergyConsIdle += e.Idle / netSize
		snapshot.EnergyConsTx += e.Tx / netSize
		snapshot.EnergyConsRx += e.Rx / netSize
	}
	a.networkHistory = append(a.networkHistory, snapshot)
}

func (a *Analyser) NetworkEnergyHistory() []NetworkConsumption {
	return a.networkHistory
}

// SaveFiles writes the energy per device to path + "_devices.txt" and the network history to path + ".txt".
func (a *Analyser) SaveFiles(path string, timestamp uint64) error {
	fileDevices, err := os.Create(path + "_devices.txt")
	if err != nil {
		return errors.Wrap(err, "create energy file")
	}
	defer fileDevices.Close()

	fileNetwork, err := os.Create(path + ".txt")
	if err != nil {
		return errors.Wrap(err, "create energy file")
	}
	defer fileNetwork.Close()

	if err = a.writeEnergyByDevices(fileDevices, timestamp); err != nil {
		return err
	}
	if err = a.writeNetworkEnergy(fileNetwork, timestamp); err != nil {
		return err
	}
	logger.Debugf("energy saved to %s.txt", path)
	return nil
}

func (a *Analyser) writeEnergyByDevices(w io.Writer, timestamp uint64) error {
	if _, err := fmt.Fprintf(w, "Duration of the simulated network (in milliseconds): %d\n", timestamp/1000); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Address\tIdle (mJ)\tTransmitting (mJ)\tReceiving (mJ)\n"); err != nil {
		return err
	}
	for _, e := range a.Devices(timestamp) {
		if _, err := fmt.Fprintf(w, "%v\t%f\t%f\t%f\n", e.Addr, e.Idle, e.Tx, e.Rx); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyser) writeNetworkEnergy(w io.Writer, timestamp uint64) error {
	if _, err := fmt.Fprintf(w, "Duration of the simulated network (in milliseconds): %d\n", timestamp/1000); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Time (ms)\tIdle (mJ)\tTransmitting (mJ)\tReceiving (mJ)\n"); err != nil {
		return err
	}
	for _, snapshot := range a.networkHistory {
		if _, err := fmt.Fprintf(w, "%d\t%f\t%f\t%f\n", snapshot.Timestamp/1000, snapshot.EnergyConsIdle,
			snapshot.EnergyConsTx, snapshot.EnergyConsRx); err != nil {
			return err
		}
	}
	return nil
}
