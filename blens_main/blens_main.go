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

package blens_main

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/openble/ble-ns/cli"
	"github.com/openble/ble-ns/counters"
	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/progctx"
	"github.com/openble/ble-ns/recorder"
	"github.com/openble/ble-ns/simulation"
	"github.com/openble/ble-ns/web"
)

const (
	EnvConfigFile = "BLENS_CONFIG"
	EnvLogLevel   = "BLENS_LOG"
)

type MainArgs struct {
	ConfigFile   string
	LogLevel     string
	LogFile      string
	Interactive  bool
	Web          bool
	OpenWeb      bool
	WebAddr      string
	Record       bool
	RecordPath   string
	RecordEvents bool
	ExportConfig string
}

// parseArgs reads the flags. The scenario starts from DefaultConfig, or from the YAML config file when one is
// given, and then takes every flag that was set explicitly.
func parseArgs(argv []string) (*MainArgs, *simulation.Config, error) {
	args := &MainArgs{}
	cfg := simulation.DefaultConfig()
	fc := *cfg

	fs := pflag.NewFlagSet("blens", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringVarP(&args.ConfigFile, "config", "c", os.Getenv(EnvConfigFile), "load the scenario from a YAML file")
	fs.StringVar(&args.LogLevel, "log", envOr(EnvLogLevel, "warn"), "set logging level: trace, debug, info, note, warn, error, off")
	fs.StringVar(&args.LogFile, "log-file", "", "also write the log to this file")
	fs.BoolVarP(&args.Interactive, "interactive", "i", false, "run the interactive console instead of a batch run")
	fs.BoolVar(&args.Web, "web", false, "serve the web monitor (interactive mode)")
	fs.BoolVar(&args.OpenWeb, "open-web", false, "open the web monitor in a browser (implies --web)")
	fs.StringVar(&args.WebAddr, "web-addr", web.DefaultAddr, "listen address of the web monitor")
	fs.BoolVar(&args.Record, "record", false, "record the results in a SQLite database")
	fs.StringVar(&args.RecordPath, "record-path", "", "database path, without extension (default: derived from the run id)")
	fs.BoolVar(&args.RecordEvents, "record-events", false, "also record every trace event (implies --record)")
	fs.StringVar(&args.ExportConfig, "export", "", "write the effective scenario of the first iteration to this YAML file")

	fs.IntVar(&fc.Id, "id", fc.Id, "scenario id, prefix of all output files")
	fs.IntVarP(&fc.NumDevices, "devices", "n", fc.NumDevices, "number of randomly placed devices")
	fs.Float64Var(&fc.FieldLength, "field", fc.FieldLength, "side length of the square field in meters")
	fs.Uint32Var(&fc.ConnInterval, "conn-interval", fc.ConnInterval, "connection interval in 1.25 ms units, 0 = random")
	fs.Uint32Var(&fc.BroadcastInterval, "broadcast-interval", fc.BroadcastInterval, "broadcast interval in 1.25 ms units, 0 = random")
	fs.BoolVar(&fc.Scheduled, "scheduled", fc.Scheduled, "schedule TX windows instead of placing them randomly")
	fs.BoolVar(&fc.AvoidCollisions, "avoid-collisions", fc.AvoidCollisions, "place windows so they do not overlap")
	fs.BoolVar(&fc.AvoidUnicast, "broadcast-avoids-unicast", fc.AvoidUnicast, "keep broadcast slots clear of unicast windows")
	fs.BoolVar(&fc.EnableUnicast, "unicast", fc.EnableUnicast, "create links between all device pairs")
	fs.BoolVar(&fc.EnableBroadcast, "broadcast", fc.EnableBroadcast, "give every device a broadcast slot")
	fs.DurationVarP(&fc.Duration, "duration", "d", fc.Duration, "simulated time per iteration")
	fs.DurationVar(&fc.SendDuration, "send-duration", fc.SendDuration, "stop sending after this time, 0 = never")
	fs.IntVar(&fc.Iterations, "iterations", fc.Iterations, "number of iterations")
	fs.IntVar(&fc.PayloadSize, "payload", fc.PayloadSize, "payload size in bytes")
	fs.IntVar(&fc.UnicastRepeats, "repeats", fc.UnicastRepeats, "transmissions per unicast sequence number")
	fs.Int64Var(&fc.Seed, "seed", fc.Seed, "random seed, 0 = time based")
	fs.StringVar(&fc.RadioModel, "radio-model", fc.RadioModel, "radio model")
	fs.Float64Var(&fc.RadioRange, "radio-range", fc.RadioRange, "radio range in meters, 0 = unlimited")
	fs.StringVar(&fc.DeviceLogLevel, "device-log", fc.DeviceLogLevel, "log level of the per-device log files")
	fs.StringVarP(&fc.OutputDir, "output", "o", fc.OutputDir, "output directory")
	fs.StringVar(&fc.ReportFile, "report", fc.ReportFile, "CSV report file name within the output directory")
	fs.StringVar(&fc.Pcap, "pcap", fc.Pcap, "PCAP capture: off or ll")
	fs.BoolVar(&fc.TraceEvents, "trace", fc.TraceEvents, "write every trace event to a JSON lines file")

	if err := fs.Parse(argv); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, errors.Errorf("unexpected arguments: %v", fs.Args())
	}

	if args.ConfigFile != "" {
		var err error
		if cfg, err = simulation.LoadConfigFile(args.ConfigFile); err != nil {
			return nil, nil, err
		}
	}
	overrideChanged(fs, cfg, &fc)

	if args.OpenWeb {
		args.Web = true
	}
	if args.RecordEvents || args.RecordPath != "" {
		args.Record = true
	}
	return args, cfg, cfg.Validate()
}

// overrideChanged copies the flag values that were given on the command line from fc to cfg.
func overrideChanged(fs *pflag.FlagSet, cfg, fc *simulation.Config) {
	setters := map[string]func(){
		"id":                       func() { cfg.Id = fc.Id },
		"devices":                  func() { cfg.NumDevices = fc.NumDevices },
		"field":                    func() { cfg.FieldLength = fc.FieldLength },
		"conn-interval":            func() { cfg.ConnInterval = fc.ConnInterval },
		"broadcast-interval":       func() { cfg.BroadcastInterval = fc.BroadcastInterval },
		"scheduled":                func() { cfg.Scheduled = fc.Scheduled },
		"avoid-collisions":         func() { cfg.AvoidCollisions = fc.AvoidCollisions },
		"broadcast-avoids-unicast": func() { cfg.AvoidUnicast = fc.AvoidUnicast },
		"unicast":                  func() { cfg.EnableUnicast = fc.EnableUnicast },
		"broadcast":                func() { cfg.EnableBroadcast = fc.EnableBroadcast },
		"duration":                 func() { cfg.Duration = fc.Duration },
		"send-duration":            func() { cfg.SendDuration = fc.SendDuration },
		"iterations":               func() { cfg.Iterations = fc.Iterations },
		"payload":                  func() { cfg.PayloadSize = fc.PayloadSize },
		"repeats":                  func() { cfg.UnicastRepeats = fc.UnicastRepeats },
		"seed":                     func() { cfg.Seed = fc.Seed },
		"radio-model":              func() { cfg.RadioModel = fc.RadioModel },
		"radio-range":              func() { cfg.RadioRange = fc.RadioRange },
		"device-log":               func() { cfg.DeviceLogLevel = fc.DeviceLogLevel },
		"output":                   func() { cfg.OutputDir = fc.OutputDir },
		"report":                   func() { cfg.ReportFile = fc.ReportFile },
		"pcap":                     func() { cfg.Pcap = fc.Pcap },
		"trace":                    func() { cfg.TraceEvents = fc.TraceEvents },
	}
	fs.Visit(func(f *pflag.Flag) {
		if set, ok := setters[f.Name]; ok {
			set()
		}
	})
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// Main runs BLE-NS with the command line argv (without the program name), until the batch run completes or
// the console exits.
func Main(ctx *progctx.ProgCtx, argv []string, cliOptions *cli.CliOptions) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warnf("load .env: %v", err)
	}

	args, cfg, err := parseArgs(argv)
	if err != nil {
		return err
	}
	if err = setupLogger(args); err != nil {
		return err
	}
	ctx.CancelOnSignals(syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	if cfg.OutputDir != "" {
		if err = os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return errors.Wrapf(err, "create output dir %s", cfg.OutputDir)
		}
		if err = simulation.CleanOutputDir(cfg.OutputDir, cfg.Id); err != nil {
			return err
		}
	}

	var rec *recorder.Recorder
	if args.Record {
		if rec, err = recorder.New(args.RecordPath); err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Errorf("%v", err)
			}
		}()
	}

	if args.Interactive {
		return runInteractive(ctx, args, cfg, rec, cliOptions)
	}
	return runBatch(ctx, args, cfg, rec)
}

func setupLogger(args *MainArgs) error {
	level, err := logger.ParseLevelString(args.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if args.LogFile != "" {
		logger.SetOutput([]string{"stderr", args.LogFile})
	}
	return nil
}

func runBatch(ctx *progctx.ProgCtx, args *MainArgs, cfg *simulation.Config, rec *recorder.Recorder) error {
	var report *reportFile
	defer func() {
		if report != nil {
			report.Close()
		}
	}()

	defer logger.SetTimeSource(nil)
	setup := func(sim *simulation.Simulation) error {
		logger.SetTimeSource(sim.Dispatcher().Now)
		if rec != nil && args.RecordEvents {
			sim.Bus().SubscribeAll(rec.Events(sim.Iteration()).Emit)
		}
		if sim.Iteration() == 0 && args.ExportConfig != "" {
			return simulation.SaveConfigFile(sim.ExportConfig(), args.ExportConfig)
		}
		return nil
	}

	handler := func(sim *simulation.Simulation) error {
		if cfg.OutputDir != "" {
			if report == nil {
				var err error
				if report, err = newReportFile(filepath.Join(cfg.OutputDir, cfg.ReportFile), sim); err != nil {
					return err
				}
			}
			if err := report.Write(sim.Records()); err != nil {
				return errors.Wrap(err, "write report")
			}
		}
		if rec != nil {
			if err := rec.RecordIteration(sim); err != nil {
				return err
			}
		}
		kpi := sim.Kpi().Data()
		logger.Notef("iteration %d: seed=%d unique-ratio=%.4f skip-percent=%.2f", sim.Iteration(), sim.Seed(),
			kpi.LinkLayer.UniqueRatio, kpi.LinkLayer.SkipPercentage)
		return nil
	}

	return simulation.RunIterationsWithSetup(ctx, cfg, setup, handler)
}

func runInteractive(ctx *progctx.ProgCtx, args *MainArgs, cfg *simulation.Config, rec *recorder.Recorder,
	cliOptions *cli.CliOptions) error {
	sim, err := simulation.NewSimulation(ctx, cfg, 0, cfg.Seed)
	if err != nil {
		return err
	}
	if rec != nil && args.RecordEvents {
		sim.Bus().SubscribeAll(rec.Events(0).Emit)
	}
	if args.ExportConfig != "" {
		if err = simulation.SaveConfigFile(sim.ExportConfig(), args.ExportConfig); err != nil {
			return err
		}
	}

	webAddr := ""
	if args.Web {
		monitor := web.NewMonitor(simulation.NewController(sim))
		if webAddr, err = monitor.Start(ctx, args.WebAddr); err != nil {
			return err
		}
		if args.OpenWeb {
			if err = web.OpenWeb(webAddr); err != nil {
				logger.Warnf("open web browser: %v", err)
			}
		}
	}

	rt := cli.NewCmdRunner(ctx, sim, webAddr)
	logger.SetStdoutCallback(cli.Cli)
	go sim.Run()
	<-sim.Started

	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		if err := cli.Cli.Run(rt, cliOptions); err != nil && ctx.Err() == nil {
			ctx.Cancel(errors.Wrapf(err, "console exit"))
			return
		}
		ctx.Cancel("console exit")
	}()

	<-ctx.Done()
	select {
	case <-consoleDone:
	default:
		cli.Cli.Stop()
	}
	logger.Debugf("waiting for BLE-NS to stop gracefully ...")
	ctx.Wait()

	if rec != nil {
		if err = rec.RecordIteration(sim); err != nil {
			return err
		}
	}
	return nil
}

type reportFile struct {
	f *os.File
	*counters.ReportWriter
}

func newReportFile(path string, sim *simulation.Simulation) (*reportFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create report %s", path)
	}
	logger.Infof("writing report to %s", path)
	return &reportFile{f: f, ReportWriter: counters.NewReportWriter(f, sim.Scenario())}, nil
}

func (rf *reportFile) Close() {
	if err := rf.f.Close(); err != nil {
		logger.Errorf("close report: %v", err)
	}
}
