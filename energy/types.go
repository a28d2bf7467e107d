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

package energy

import (
	. "github.com/openble/ble-ns/types"
)

/*
 * Default consumption values by state of a BLE SoC radio at 3.3V.
 * Consumption in kilowatts, time in microseconds, resulting energy in mJ.
 */
const (
	RadioIdleConsumption float64 = 0.00000011 // kilowatts
	RadioTxConsumption   float64 = 0.00001716 // kilowatts @ i = 5.2 mA
	RadioRxConsumption   float64 = 0.00001485 // kilowatts @ i = 4.5 mA
)

const (
	ComputePeriod uint64 = 30000000 // in microseconds
)

// RadioStatus is the time a device's radio spent in each state, in microseconds.
type RadioStatus struct {
	SpentTx uint64
	SpentRx uint64
}

// DeviceEnergy is the energy a device used up to a point in time, in mJ.
type DeviceEnergy struct {
	Addr Address `json:"addr" yaml:"addr"`
	Idle float64 `json:"idle" yaml:"idle"`
	Tx   float64 `json:"tx" yaml:"tx"`
	Rx   float64 `json:"rx" yaml:"rx"`
}

// Total returns the energy used in all states.
func (de DeviceEnergy) Total() float64 {
	return de.Idle + de.Tx + de.Rx
}

// NetworkConsumption is the mean energy per device at Timestamp, in mJ.
type NetworkConsumption struct {
	Timestamp      uint64  `json:"ts"`
	EnergyConsIdle float64 `json:"idle"`
	EnergyConsTx   float64 `json:"tx"`
	EnergyConsRx   float64 `json:"rx"`
}
