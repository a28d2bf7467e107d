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

// Package web implements the HTTP monitor of a running simulation.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"

	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/progctx"
	"github.com/openble/ble-ns/simulation"
	. "github.com/openble/ble-ns/types"
)

const (
	DefaultAddr = "localhost:8997"

	shutdownTimeout = time.Second
)

// Monitor serves the state of a simulation as JSON. All simulation access goes through the controller, so
// handlers are safe to run while the dispatcher loop is busy.
type Monitor struct {
	ctrl   *simulation.Controller
	router *mux.Router
}

func NewMonitor(ctrl *simulation.Controller) *Monitor {
	m := &Monitor{ctrl: ctrl}

	r := mux.NewRouter()
	r.HandleFunc("/api/now", m.now).Methods(http.MethodGet)
	r.HandleFunc("/api/counters", m.listCounters).Methods(http.MethodGet)
	r.HandleFunc("/api/counters/{addr}", m.deviceCounters).Methods(http.MethodGet)
	r.HandleFunc("/api/links", m.listLinks).Methods(http.MethodGet)
	r.HandleFunc("/api/slots", m.listSlots).Methods(http.MethodGet)
	r.HandleFunc("/api/kpi", m.kpi).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", m.stats).Methods(http.MethodGet)
	r.HandleFunc("/api/energy", m.listEnergy).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/", m.index).Methods(http.MethodGet)
	m.router = r
	return m
}

// Handler returns the router of all monitor endpoints.
func (m *Monitor) Handler() http.Handler {
	return m.router
}

// Start listens on addr and serves until ctx is done. It returns the address actually bound, which differs
// from addr when addr asks for port 0.
func (m *Monitor) Start(ctx *progctx.ProgCtx, addr string) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "listen on %s", addr)
	}

	srv := &http.Server{Handler: m.router}
	ctx.Go("web", func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Errorf("web monitor stopped: %v", err)
		}
	})
	ctx.Go("web-shutdown", func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	bound := listener.Addr().String()
	logger.Infof("monitoring simulation with http://%s", bound)
	return bound, nil
}

// OpenWeb opens the monitor at addr in the default browser of the user.
func OpenWeb(addr string) error {
	return browser.OpenURL("http://" + addr + "/")
}

var endpoints = []string{"/api/now", "/api/counters", "/api/counters/{addr}", "/api/links", "/api/slots",
	"/api/kpi", "/api/stats", "/api/energy", "/api/resource"}

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	writeJson(w, map[string][]string{"endpoints": endpoints})
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	ts, err := m.ctrl.Now()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, map[string]uint64{"now": ts})
}

func (m *Monitor) listCounters(w http.ResponseWriter, _ *http.Request) {
	records, err := m.ctrl.Records()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, records)
}

func (m *Monitor) deviceCounters(w http.ResponseWriter, r *http.Request) {
	addr, err := ParseAddress(mux.Vars(r)["addr"])
	if err != nil {
		writeError(w, err)
		return
	}
	ctr, err := m.ctrl.DeviceCounters(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, ctr)
}

type linkRsp struct {
	Central      string `json:"central"`
	Peripheral   string `json:"peripheral"`
	ConnInterval Units  `json:"connInterval"`
	WindowOffset Units  `json:"windowOffset"`
}

func (m *Monitor) listLinks(w http.ResponseWriter, _ *http.Request) {
	links, err := m.ctrl.Links()
	if err != nil {
		writeError(w, err)
		return
	}
	rsp := make([]linkRsp, 0, len(links))
	for _, l := range links {
		rsp = append(rsp, linkRsp{
			Central:      l.DeviceA.String(),
			Peripheral:   l.DeviceB.String(),
			ConnInterval: l.ConnInterval,
			WindowOffset: l.WindowOffset,
		})
	}
	writeJson(w, rsp)
}

type slotRsp struct {
	Owner      string `json:"owner"`
	Interval   Units  `json:"interval"`
	SlotOffset Units  `json:"slotOffset"`
}

func (m *Monitor) listSlots(w http.ResponseWriter, _ *http.Request) {
	slots, err := m.ctrl.Slots()
	if err != nil {
		writeError(w, err)
		return
	}
	rsp := make([]slotRsp, 0, len(slots))
	for _, s := range slots {
		rsp = append(rsp, slotRsp{Owner: s.Owner.String(), Interval: s.Interval, SlotOffset: s.SlotOffset})
	}
	writeJson(w, rsp)
}

func (m *Monitor) kpi(w http.ResponseWriter, _ *http.Request) {
	kpi, err := m.ctrl.Kpi()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, kpi)
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	stats, err := m.ctrl.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, stats)
}

func (m *Monitor) listEnergy(w http.ResponseWriter, _ *http.Request) {
	devices, err := m.ctrl.Energy()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, devices)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		writeError(w, err)
		return
	}
	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		writeError(w, err)
		return
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, resourceRsp{CPUPercent: cpuPercent, MemorySize: mem.RSS})
}

func writeJson(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(data); err != nil {
		logger.Debugf("web response write failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrMalformedAddress):
		status = http.StatusBadRequest
	case errors.Is(err, ErrUnknownDestination):
		status = http.StatusNotFound
	case err == simulation.CommandInterruptedError:
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}
