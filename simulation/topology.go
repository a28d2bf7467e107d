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
	"math/rand"

	"github.com/pkg/errors"

	"github.com/openble/ble-ns/prng"
	"github.com/openble/ble-ns/schedule"
	. "github.com/openble/ble-ns/types"
)

// placeDevices returns the explicit devices of cfg, or else NumDevices devices with sequential addresses from
// AddressBase at random integer positions in the square field.
func placeDevices(cfg *Config, rnd *rand.Rand) []DeviceConfig {
	if len(cfg.Devices) > 0 {
		return cfg.Devices
	}

	side := int(cfg.FieldLength)
	devices := make([]DeviceConfig, cfg.NumDevices)
	for i := range devices {
		devices[i] = DeviceConfig{
			Address: cfg.AddressBase + Address(i),
			Position: Position{
				X: float64(prng.IntInRange(rnd, 0, side)),
				Y: float64(prng.IntInRange(rnd, 0, side)),
			},
		}
	}
	return devices
}

// buildLinks returns the explicit links of cfg, or else one link per device pair (lower index sends) when
// unicast is enabled.
func buildLinks(cfg *Config, order []*Device, devices map[Address]*Device) ([]*schedule.Link, error) {
	var links []*schedule.Link

	if len(cfg.Links) > 0 {
		for _, lc := range cfg.Links {
			for _, addr := range []Address{lc.Central, lc.Peripheral} {
				if devices[addr] == nil {
					return nil, errors.Errorf("link %v-%v: device %v is not in the topology", lc.Central,
						lc.Peripheral, addr)
				}
			}
			if lc.Central == lc.Peripheral {
				return nil, errors.Errorf("link %v-%v connects a device to itself", lc.Central, lc.Peripheral)
			}
			links = append(links, schedule.NewLink(lc.Central, lc.Peripheral))
		}
		return links, nil
	}

	if !cfg.EnableUnicast {
		return nil, nil
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			links = append(links, schedule.NewLink(order[i].Addr, order[j].Addr))
		}
	}
	return links, nil
}
