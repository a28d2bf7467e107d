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

package recorder

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openble/ble-ns/event"
	"github.com/openble/ble-ns/progctx"
	"github.com/openble/ble-ns/simulation"
	. "github.com/openble/ble-ns/types"
)

func testConfig() *simulation.Config {
	cfg := simulation.DefaultConfig()
	cfg.OutputDir = ""
	cfg.Seed = 7
	cfg.Id = 3
	cfg.Devices = []simulation.DeviceConfig{
		{Address: 1, Position: Position{X: 0, Y: 0}},
		{Address: 2, Position: Position{X: 1, Y: 0}},
	}
	cfg.Links = []simulation.LinkConfig{{Central: 1, Peripheral: 2}}
	cfg.ConnInterval = 1000
	cfg.Duration = 10 * time.Second
	cfg.Iterations = 2
	return cfg
}

func openReadOnly(t *testing.T, filename string) *sql.DB {
	db, err := sql.Open("sqlite3", filename)
	require.Nil(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, query string, args ...interface{}) int {
	var n int
	require.Nil(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestRecordIterations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run")
	r, err := New(path)
	require.Nil(t, err)
	assert.Equal(t, path+FileExt, r.Filename())
	assert.NotEmpty(t, r.RunID())

	cfg := testConfig()
	err = simulation.RunIterationsWithSetup(progctx.New(nil), cfg, func(sim *simulation.Simulation) error {
		sim.Bus().SubscribeAll(r.Events(sim.Iteration()).Emit)
		return nil
	}, r.RecordIteration)
	require.Nil(t, err)
	require.Nil(t, r.Close())

	db := openReadOnly(t, r.Filename())
	assert.Equal(t, 2, countRows(t, db, `SELECT COUNT(*) FROM runs WHERE run_id = ? AND config_id = 3`, r.RunID()))
	assert.Equal(t, 4, countRows(t, db, `SELECT COUNT(*) FROM records`))

	var transmitted, unique int
	require.Nil(t, db.QueryRow(`SELECT transmitted FROM records WHERE iteration = 0 AND address = '00:01'`).
		Scan(&transmitted))
	require.Nil(t, db.QueryRow(`SELECT received_unique FROM records WHERE iteration = 1 AND address = '00:02'`).
		Scan(&unique))
	assert.Equal(t, 8, transmitted)
	assert.Equal(t, 8, unique)

	assert.Equal(t, 16, countRows(t, db, `SELECT COUNT(*) FROM events WHERE type = 'Transmitted'`))
	assert.Equal(t, 8, countRows(t, db, `SELECT COUNT(*) FROM events WHERE type = 'ReceivedUnique' AND iteration = 1`))
}

func TestEventsAreBatched(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "events"))
	require.Nil(t, err)
	r.batchSize = 3

	em := r.Events(0)
	for i := 0; i < 4; i++ {
		em.Emit(event.Event{Type: event.EventTypeTransmitted, Addr: 1, Peer: 2, Timestamp: uint64(i)})
	}
	db := openReadOnly(t, r.Filename())
	assert.Equal(t, 3, countRows(t, db, `SELECT COUNT(*) FROM events`))

	require.Nil(t, r.Flush())
	assert.Equal(t, 4, countRows(t, db, `SELECT COUNT(*) FROM events`))

	var peer string
	require.Nil(t, db.QueryRow(`SELECT peer FROM events WHERE ts = 2`).Scan(&peer))
	assert.Equal(t, "00:02", peer)
	require.Nil(t, r.Close())
}

func TestNewRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exists")
	require.Nil(t, os.WriteFile(path+FileExt, nil, 0644))

	_, err := New(path)
	assert.NotNil(t, err)
}

func TestCloseTwice(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "close"))
	require.Nil(t, err)
	r.Events(0).Emit(event.Event{Type: event.EventTypeReceived, Addr: 2, Peer: 1})

	require.Nil(t, r.Close())
	require.Nil(t, r.Close())
	assert.Nil(t, r.Flush())
	r.Events(0).Emit(event.Event{Type: event.EventTypeReceived, Addr: 2, Peer: 1})
}
