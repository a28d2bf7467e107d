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

package cli

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/openble/ble-ns/simulation"
	. "github.com/openble/ble-ns/types"
)

var testYamlFile = `
id: 4
conn-interval: 800
devices:
    - address: "00:01"
      position: {x: 10, y: 20}
    - address: "00:02"
      position: {x: 15, y: 20}
links:
    - central: "00:01"
      peripheral: "00:02"
`

func TestYamlConfigUnmarshal(t *testing.T) {
	cfg := simulation.DefaultConfig()
	err := yaml.Unmarshal([]byte(testYamlFile), cfg)
	assert.Nil(t, err)
	assert.Equal(t, 4, cfg.Id)
	assert.Equal(t, Units(800), cfg.ConnInterval)
	require.Equal(t, 2, len(cfg.Devices))
	assert.Equal(t, Position{X: 15, Y: 20}, cfg.Devices[1].Position)
	assert.Equal(t, []simulation.LinkConfig{{Central: 1, Peripheral: 2}}, cfg.Links)
}

func TestExportCommand(t *testing.T) {
	tr := newTestRunner(t)
	filename := filepath.Join(t.TempDir(), "export.yaml")

	assert.Equal(t, "Done\n", tr.run(fmt.Sprintf("export \"%s\"", filename)))

	cfg, err := simulation.LoadConfigFile(filename)
	require.Nil(t, err)
	assert.Equal(t, 2, cfg.NumDevices)
	assert.Equal(t, int64(5), cfg.Seed)
	require.Equal(t, 2, len(cfg.Devices))
	assert.Equal(t, Address(2), cfg.Devices[1].Address)
	assert.Equal(t, Position{X: 3, Y: 4}, cfg.Devices[1].Position)
	assert.Equal(t, []simulation.LinkConfig{{Central: 1, Peripheral: 2}}, cfg.Links)
}
