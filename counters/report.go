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

package counters

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	. "github.com/openble/ble-ns/types"
)

// Record is one report row: the counters of one device in one iteration.
type Record struct {
	Iteration int
	Index     int
	Address   Address
	Counters
}

// Records returns one record per device for the given iteration, in report order.
func (s *Sink) Records(iteration int) []Record {
	addrs := s.Addresses()
	records := make([]Record, 0, len(addrs))
	for _, addr := range addrs {
		records = append(records, Record{
			Iteration: iteration,
			Index:     s.indexOf(addr),
			Address:   addr,
			Counters:  *s.devices[addr],
		})
	}
	return records
}

// Scenario describes a run in the report's leading comment line.
type Scenario struct {
	NumDevices   int
	FieldLength  float64
	Scheduled    bool
	ConnInterval Units
}

func (sc Scenario) String() string {
	return fmt.Sprintf("#Scenario %d nodes on a square field with side %g meter TX window scheduling enabled: %v, "+
		"connection interval = %d*1.25 millisec, (0 = random)", sc.NumDevices, sc.FieldLength, sc.Scheduled,
		sc.ConnInterval)
}

var reportColumns = []string{"Iteration", "Address", "transmitted", "received", "received unique",
	"received error", "broadcast received", "TX Windows Skipped", "x coords", "y coords"}

// ReportWriter writes records as CSV, led by the scenario comment and the column header.
type ReportWriter struct {
	w         io.Writer
	csv       *csv.Writer
	headerOut bool
	scenario  Scenario
}

// NewReportWriter creates a ReportWriter. The header lines are written with the first records.
func NewReportWriter(w io.Writer, scenario Scenario) *ReportWriter {
	return &ReportWriter{
		w:        w,
		csv:      csv.NewWriter(w),
		scenario: scenario,
	}
}

// Write appends records to the report.
func (rw *ReportWriter) Write(records []Record) error {
	if !rw.headerOut {
		if _, err := io.WriteString(rw.w, rw.scenario.String()+"\n"); err != nil {
			return err
		}
		if err := rw.csv.Write(reportColumns); err != nil {
			return err
		}
		rw.headerOut = true
	}

	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Iteration),
			r.Address.String(),
			strconv.FormatUint(r.Transmitted, 10),
			strconv.FormatUint(r.Received, 10),
			strconv.FormatUint(r.ReceivedUnique, 10),
			strconv.FormatUint(r.ReceivedError, 10),
			strconv.FormatUint(r.BroadcastReceived, 10),
			strconv.FormatUint(r.TxWindowsSkipped, 10),
			strconv.FormatFloat(r.X, 'g', -1, 64),
			strconv.FormatFloat(r.Y, 'g', -1, 64),
		}
		if err := rw.csv.Write(row); err != nil {
			return err
		}
	}
	rw.csv.Flush()
	return rw.csv.Error()
}
