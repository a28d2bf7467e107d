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

// Package recorder stores the results of simulation runs in a SQLite database.
package recorder

import (
	"database/sql"
	"os"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/openble/ble-ns/event"
	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/simulation"
)

const (
	FileExt = ".sqlite3"

	defaultBatchSize = 10000
)

var schema = []string{
	`CREATE TABLE runs (
	run_id TEXT,
	config_id INTEGER,
	iteration INTEGER,
	seed INTEGER,
	num_devices INTEGER,
	duration_us INTEGER,
	unique_ratio REAL,
	skip_percent REAL,
	busy_percent REAL
);`,
	`CREATE TABLE records (
	run_id TEXT,
	iteration INTEGER,
	idx INTEGER,
	address TEXT,
	transmitted INTEGER,
	received INTEGER,
	received_unique INTEGER,
	received_error INTEGER,
	broadcast_received INTEGER,
	tx_windows_skipped INTEGER,
	x REAL,
	y REAL
);`,
	`CREATE TABLE events (
	run_id TEXT,
	iteration INTEGER,
	ts INTEGER,
	type TEXT,
	addr TEXT,
	peer TEXT
);`,
}

type eventRow struct {
	iteration int
	evt       event.Event
}

// Recorder writes one row per iteration, one row per device and iteration, and optionally every trace event.
// Rows of a process share a run id.
type Recorder struct {
	db        *sql.DB
	filename  string
	runID     string
	batchSize int

	lock   sync.Mutex
	events []eventRow
	closed bool
}

// New creates the database path + ".sqlite3". An empty path picks a unique name in the working directory.
// The database must not exist yet.
func New(path string) (*Recorder, error) {
	runID := xid.New().String()
	if path == "" {
		path = "blens_recording_" + runID
	}
	filename := path + FileExt

	if _, err := os.Stat(filename); err == nil {
		return nil, errors.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", filename)
	}

	r := &Recorder{
		db:        db,
		filename:  filename,
		runID:     runID,
		batchSize: defaultBatchSize,
	}
	for _, stmt := range schema {
		if _, err = db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "create tables in %s", filename)
		}
	}

	atexit.Register(func() {
		if err := r.Close(); err != nil {
			logger.Errorf("close recording: %v", err)
		}
	})

	logger.Infof("database created for recording: %s", filename)
	return r, nil
}

func (r *Recorder) Filename() string {
	return r.filename
}

func (r *Recorder) RunID() string {
	return r.runID
}

// RecordIteration stores the counters and KPIs of a simulation that ran to its end.
func (r *Recorder) RecordIteration(sim *simulation.Simulation) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return errors.Errorf("recording %s is closed", r.filename)
	}

	cfg := sim.Config()
	kpi := sim.Kpi().Data()
	records := sim.Records()

	return r.inTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.runID, cfg.Id, sim.Iteration(), sim.Seed(), len(records), kpi.TimeUs.PeriodUs,
			kpi.LinkLayer.UniqueRatio, kpi.LinkLayer.SkipPercentage, kpi.Medium.BusyPercentage); err != nil {
			return err
		}

		stmt, err := tx.Prepare(insertStatement("records", 12))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err = stmt.Exec(r.runID, rec.Iteration, rec.Index, rec.Address.String(), rec.Transmitted,
				rec.Received, rec.ReceivedUnique, rec.ReceivedError, rec.BroadcastReceived,
				rec.TxWindowsSkipped, rec.X, rec.Y); err != nil {
				return err
			}
		}
		return nil
	})
}

// Events returns an emitter that records every event of the given iteration. Events are written in batches.
func (r *Recorder) Events(iteration int) event.Emitter {
	return &eventEmitter{r: r, iteration: iteration}
}

type eventEmitter struct {
	r         *Recorder
	iteration int
}

func (e *eventEmitter) Emit(evt event.Event) {
	e.r.addEvent(eventRow{iteration: e.iteration, evt: evt})
}

func (r *Recorder) addEvent(row eventRow) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return
	}

	r.events = append(r.events, row)
	if len(r.events) >= r.batchSize {
		if err := r.flushEvents(); err != nil {
			logger.Errorf("record events: %v", err)
		}
	}
}

// Flush writes all buffered events.
func (r *Recorder) Flush() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return nil
	}
	return r.flushEvents()
}

func (r *Recorder) flushEvents() error {
	if len(r.events) == 0 {
		return nil
	}
	err := r.inTransaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(insertStatement("events", 6))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, row := range r.events {
			if _, err = stmt.Exec(r.runID, row.iteration, row.evt.Timestamp, row.evt.Type.String(),
				row.evt.Addr.String(), row.evt.Peer.String()); err != nil {
				return err
			}
		}
		return nil
	})
	r.events = nil
	return err
}

// Close flushes buffered events and closes the database. Closing twice is a no-op.
func (r *Recorder) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return nil
	}

	flushErr := r.flushEvents()
	r.closed = true
	if err := r.db.Close(); err != nil {
		return errors.Wrapf(err, "close %s", r.filename)
	}
	return flushErr
}

func (r *Recorder) inTransaction(f func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err = f(tx); err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "write recording")
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

func insertStatement(table string, numColumns int) string {
	params := make([]string, numColumns)
	for i := range params {
		params[i] = "?"
	}
	return "INSERT INTO " + table + " VALUES (" + strings.Join(params, ", ") + ")"
}
