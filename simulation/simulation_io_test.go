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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/openble/ble-ns/types"
)

func TestConfigFileRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumDevices = 4
	cfg.ConnInterval = RandomInterval
	cfg.SendDuration = 20 * time.Second
	cfg.Devices = []DeviceConfig{{Address: 0x0102, Position: Position{X: 3, Y: 4}}}
	cfg.Links = []LinkConfig{{Central: 0x0102, Peripheral: 0x0103}}

	fn := filepath.Join(t.TempDir(), "scenario.yaml")
	require.Nil(t, SaveConfigFile(cfg, fn))
	loaded, err := LoadConfigFile(fn)
	require.Nil(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigFileDefaults(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "scenario.yaml")
	yaml := "num-devices: 7\nduration: 30s\nconn-interval: 400\ndevices:\n  - address: \"00:05\"\n    position: {x: 1, y: 2}\n"
	require.Nil(t, os.WriteFile(fn, []byte(yaml), 0644))

	cfg, err := LoadConfigFile(fn)
	require.Nil(t, err)
	assert.Equal(t, 7, cfg.NumDevices)
	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.Equal(t, Units(400), cfg.ConnInterval)
	assert.Equal(t, DefaultFieldLength, cfg.FieldLength)
	assert.Equal(t, Address(5), cfg.Devices[0].Address)
	assert.Equal(t, 2.0, cfg.Devices[0].Position.Y)
}

func TestLoadConfigFileUnknownKey(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "scenario.yaml")
	require.Nil(t, os.WriteFile(fn, []byte("num-nodes: 7\n"), 0644))
	_, err := LoadConfigFile(fn)
	assert.NotNil(t, err)
}

func TestExportConfigReproducesTopology(t *testing.T) {
	cfg := testConfig()
	cfg.NumDevices = 3
	sim := newTestSimulation(t, cfg)

	exported := sim.ExportConfig()
	assert.Equal(t, 3, len(exported.Devices))
	assert.Equal(t, 3, len(exported.Links))

	sim2 := newTestSimulation(t, exported)
	for i, dev := range sim2.Devices() {
		assert.Equal(t, sim.Devices()[i].Pos, dev.Pos)
	}
	for i, link := range sim2.Links() {
		assert.Equal(t, *sim.Links()[i], *link)
	}
}
