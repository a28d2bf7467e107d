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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/openble/ble-ns/counters"
	"github.com/openble/ble-ns/dispatcher"
	"github.com/openble/ble-ns/energy"
	"github.com/openble/ble-ns/event"
	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/mac"
	"github.com/openble/ble-ns/pcap"
	"github.com/openble/ble-ns/prng"
	"github.com/openble/ble-ns/progctx"
	"github.com/openble/ble-ns/schedule"
	. "github.com/openble/ble-ns/types"
)

// Device is one simulated device: its place in the field and its link-layer engine.
type Device struct {
	Addr   Address
	Pos    Position
	Engine *mac.Engine
	log    *logger.DeviceLogger
}

// Simulation is one iteration of a scenario: a fixed topology with its schedule, run on its own dispatcher.
type Simulation struct {
	Started   chan struct{}
	ctx       *progctx.ProgCtx
	cfg       *Config
	iteration int
	seed      int64
	d         *dispatcher.Dispatcher
	bus       *event.Bus
	sink      *counters.Sink
	devices   map[Address]*Device
	order     []*Device
	links     []*schedule.Link
	slots     []*schedule.BroadcastSlot
	occ       *schedule.Occupancy
	kpiMgr    *KpiManager
	energy    *energy.Analyser
	trace     *event.JSONLineWriter
	traceFile *os.File
	stopped   bool
}

// NewSimulation sets up iteration number iteration of the scenario cfg: it places the devices, builds the
// links, computes their schedule and arms every device. Setup fails with ErrDuplicateAddress,
// ErrScheduleExhausted or a config error naming a bad link before any event runs.
func NewSimulation(ctx *progctx.ProgCtx, cfg *Config, iteration int, seed int64) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rnd := prng.NewSource(seed)
	s := &Simulation{
		Started:   make(chan struct{}),
		ctx:       ctx,
		cfg:       cfg,
		iteration: iteration,
		seed:      int64(rnd.RootSeed()),
		bus:       event.NewBus(),
		devices:   map[Address]*Device{},
		occ:       schedule.NewOccupancy(),
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return nil, errors.Wrapf(err, "create output directory %s", cfg.OutputDir)
		}
	}

	dcfg := dispatcher.DefaultConfig()
	dcfg.RadioModel = cfg.RadioModel
	dcfg.PcapFrameType = pcap.ParseFrameTypeStr(cfg.Pcap)
	dcfg.PcapFile = s.outputFile("pcap")
	d, err := dispatcher.NewDispatcher(ctx, dcfg)
	if err != nil {
		return nil, err
	}
	s.d = d

	if err = s.setup(rnd); err != nil {
		s.Stop()
		return nil, errors.WithMessagef(err, "iteration %d", iteration)
	}

	s.kpiMgr = NewKpiManager()
	s.kpiMgr.Init(s)
	logger.Infof("iteration %d: %d devices, %d links, %d broadcast slots, seed %d", iteration, len(s.order),
		len(s.links), len(s.slots), s.seed)
	return s, nil
}

func (s *Simulation) setup(rnd *prng.Source) error {
	cfg := s.cfg
	s.sink = counters.NewSink(counters.BaseIndex(cfg.AddressBase))
	s.sink.Attach(s.bus)

	if cfg.TraceEvents {
		f, err := os.Create(s.outputFile("jsonl"))
		if err != nil {
			return errors.Wrap(err, "create event trace")
		}
		s.traceFile = f
		s.trace = event.NewJSONLineWriter(f)
		s.bus.SubscribeAll(s.trace.Emit)
	}

	logLevel, _ := logger.ParseLevelString(cfg.DeviceLogLevel)
	engineCfg := mac.EngineConfig{
		PayloadSize:    cfg.PayloadSize,
		UnicastRepeats: cfg.UnicastRepeats,
	}
	if cfg.SendDuration > 0 {
		engineCfg.SendUntil = uint64(cfg.SendDuration / time.Microsecond)
	}

	for _, dc := range placeDevices(cfg, rnd.Placement()) {
		if err := s.addDevice(dc, engineCfg, logLevel); err != nil {
			return err
		}
	}

	links, err := buildLinks(cfg, s.order, s.devices)
	if err != nil {
		return err
	}
	ls := schedule.NewLinkScheduler(cfg.linkScheduleConfig(), s.occ, rnd.Links())
	if err = ls.Assign(links); err != nil {
		return err
	}
	for _, link := range links {
		s.devices[link.DeviceA].Engine.AddLink(link)
	}
	s.links = links

	if cfg.EnableBroadcast {
		addrs := make([]Address, len(s.order))
		for i, dev := range s.order {
			addrs[i] = dev.Addr
		}
		bs := schedule.NewBroadcastScheduler(cfg.broadcastScheduleConfig(), cfg.AvoidUnicast, s.occ, rnd.Broadcast())
		slots, err := bs.Assign(addrs)
		if err != nil {
			return err
		}
		for _, slot := range slots {
			s.devices[slot.Owner].Engine.SetBroadcastSlot(slot)
		}
		s.slots = slots
	}

	s.energy = energy.NewAnalyser(mac.HeaderLen+len(mac.NewPayload(0, cfg.PayloadSize)))
	for _, dev := range s.order {
		s.energy.AddDevice(dev.Addr)
	}
	s.energy.Attach(s.bus)
	s.energy.StartSampling(s.d, energy.ComputePeriod)

	for _, dev := range s.order {
		dev.Engine.Arm()
	}
	return nil
}

func (s *Simulation) addDevice(dc DeviceConfig, engineCfg mac.EngineConfig, logLevel logger.Level) error {
	engine := mac.NewEngine(dc.Address, engineCfg, s.d, s.d, s.bus)
	if _, err := s.d.AddNode(dc.Address, dc.Position, s.cfg.RadioRange, engine); err != nil {
		return err
	}

	dev := &Device{
		Addr:   dc.Address,
		Pos:    dc.Position,
		Engine: engine,
	}
	if logLevel != logger.OffLevel {
		dev.log = logger.NewDeviceLogger(dc.Address, logLevel, s.d.Now)
		if s.cfg.OutputDir != "" {
			if err := dev.log.OpenFile(s.cfg.OutputDir, s.cfg.Id); err != nil {
				logger.Warnf("device %v: can not open log file: %v", dc.Address, err)
			}
		}
		engine.SetLogger(dev.log)
	}

	s.devices[dc.Address] = dev
	s.order = append(s.order, dev)
	s.sink.Register(dc.Address, dc.Position.X, dc.Position.Y)
	return nil
}

func (s *Simulation) outputFile(ext string) string {
	return filepath.Join(s.cfg.OutputDir, fmt.Sprintf("%d_%d.%s", s.cfg.Id, s.iteration, ext))
}

// EndTimeUs returns the simulation time at which the iteration ends.
func (s *Simulation) EndTimeUs() uint64 {
	return uint64(s.cfg.Duration / time.Microsecond)
}

// RunToEnd runs the iteration to its configured duration, on the calling goroutine.
func (s *Simulation) RunToEnd() error {
	s.kpiMgr.Start()
	s.d.RunUntil(s.EndTimeUs())
	s.kpiMgr.Stop()
	if s.ctx.Err() != nil {
		return CommandInterruptedError
	}
	return nil
}

// Run runs the dispatcher loop for interactive use, until the program context is done. Time advances only
// through Go.
func (s *Simulation) Run() {
	defer logger.Debugf("simulation exit.")
	defer s.Stop()

	s.kpiMgr.Start()
	close(s.Started)
	s.d.Run()
}

// Go advances an interactive simulation by duration, and waits until done.
func (s *Simulation) Go(duration time.Duration) {
	<-s.d.Go(duration)
}

// Stop closes all outputs of the simulation.
func (s *Simulation) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	if s.kpiMgr != nil {
		s.kpiMgr.Stop()
	}
	if s.energy != nil && s.cfg.OutputDir != "" {
		path := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("%d_%d_energy", s.cfg.Id, s.iteration))
		if err := s.energy.SaveFiles(path, s.d.Now()); err != nil {
			logger.Errorf("save energy: %v", err)
		}
	}
	s.d.Stop()
	for _, dev := range s.order {
		if dev.log != nil {
			dev.log.Close()
		}
	}
	if s.trace != nil {
		if err := s.trace.Close(); err != nil {
			logger.Errorf("event trace: %v", err)
		}
		_ = s.traceFile.Close()
	}
}

// IsStopping returns true once the simulation is stopped or the program exits.
func (s *Simulation) IsStopping() bool {
	return s.stopped || s.ctx.Err() != nil
}

func (s *Simulation) PostAsync(f func()) bool {
	return s.d.PostAsync(f)
}

func (s *Simulation) Dispatcher() *dispatcher.Dispatcher {
	return s.d
}

func (s *Simulation) Bus() *event.Bus {
	return s.bus
}

func (s *Simulation) Sink() *counters.Sink {
	return s.sink
}

func (s *Simulation) Config() *Config {
	return s.cfg
}

func (s *Simulation) Iteration() int {
	return s.iteration
}

// Seed returns the seed of the iteration's random source.
func (s *Simulation) Seed() int64 {
	return s.seed
}

// Devices returns the devices in the order they were added.
func (s *Simulation) Devices() []*Device {
	return s.order
}

// GetDevice returns the device at addr.
func (s *Simulation) GetDevice(addr Address) (*Device, error) {
	dev := s.devices[addr]
	if dev == nil {
		return nil, errors.Wrapf(ErrUnknownDestination, "device %v", addr)
	}
	return dev, nil
}

func (s *Simulation) Links() []*schedule.Link {
	return s.links
}

func (s *Simulation) Slots() []*schedule.BroadcastSlot {
	return s.slots
}

// Occupancy returns the windows and slots placed by the schedulers.
func (s *Simulation) Occupancy() *schedule.Occupancy {
	return s.occ
}

// Records returns the report rows of this iteration.
func (s *Simulation) Records() []counters.Record {
	return s.sink.Records(s.iteration)
}

func (s *Simulation) Scenario() counters.Scenario {
	return counters.Scenario{
		NumDevices:   len(s.order),
		FieldLength:  s.cfg.FieldLength,
		Scheduled:    s.cfg.Scheduled,
		ConnInterval: s.cfg.ConnInterval,
	}
}

// Energy returns the radio energy analyser of the devices.
func (s *Simulation) Energy() *energy.Analyser {
	return s.energy
}

func (s *Simulation) Kpi() *KpiManager {
	return s.kpiMgr
}
