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
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/progctx"
	"github.com/openble/ble-ns/simulation"
	. "github.com/openble/ble-ns/types"
	"github.com/openble/ble-ns/web"
)

const (
	Prompt = "> "
)

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

type CmdRunner struct {
	sim           *simulation.Simulation
	ctx           *progctx.ProgCtx
	contextDevice Address
	help          Help
	webAddr       string
}

var _ simulation.CmdRunner = (*CmdRunner)(nil)

// NewCmdRunner creates the command runner of an interactive simulation. webAddr is where the web monitor
// listens, if it runs.
func NewCmdRunner(ctx *progctx.ProgCtx, sim *simulation.Simulation, webAddr string) *CmdRunner {
	return &CmdRunner{
		ctx:           ctx,
		sim:           sim,
		contextDevice: InvalidAddress,
		help:          newHelp(),
		webAddr:       webAddr,
	}
}

func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

// HandleCommand implements CliHandler.
func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	return rt.RunCommand(cmdline, output)
}

func (rt *CmdRunner) GetPrompt() string {
	if rt.contextDevice == InvalidAddress {
		return Prompt
	}
	return fmt.Sprintf("device %v%s", rt.contextDevice, Prompt)
}

func (rt *CmdRunner) GetContextDevice() Address {
	return rt.contextDevice
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Go != nil {
		rt.executeGo(cc, cmd.Go)
	} else if cmd.Time != nil {
		rt.executeTime(cc, cmd.Time)
	} else if cmd.Nodes != nil {
		rt.executeLsNodes(cc, cmd.Nodes)
	} else if cmd.Links != nil {
		rt.executeLsLinks(cc, cmd.Links)
	} else if cmd.Slots != nil {
		rt.executeLsSlots(cc, cmd.Slots)
	} else if cmd.Counters != nil {
		rt.executeCounters(cc, cmd.Counters)
	} else if cmd.Device != nil {
		rt.executeDevice(cc, cmd.Device)
	} else if cmd.Energy != nil {
		rt.executeEnergy(cc, cmd.Energy)
	} else if cmd.Kpi != nil {
		rt.executeKpi(cc, cmd.Kpi)
	} else if cmd.Stats != nil {
		rt.executeStats(cc, cmd.Stats)
	} else if cmd.Export != nil {
		rt.executeExport(cc, cmd.Export)
	} else if cmd.Web != nil {
		rt.executeWeb(cc, cmd.Web)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Exit != nil {
		rt.executeExit(cc, cmd.Exit)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) postAsyncWait(cc *CommandContext, f func(sim *simulation.Simulation)) {
	done := make(chan struct{})
	if rt.sim.PostAsync(func() {
		defer close(done) // even if f() fails execution, 'done' should be closed.
		f(rt.sim)         // executing task (later) may set cc.err status if error occurs.
	}) {
		<-done // only block-wait if task was accepted.
	} else {
		cc.error(simulation.CommandInterruptedError) // report cc error if not accepted.
	}
}

func (rt *CmdRunner) executeGo(cc *CommandContext, cmd *GoCmd) {
	if cmd.Ever != nil {
		for rt.ctx.Err() == nil { // run forever but stop if rt.ctx.Err indicates "done"
			<-rt.sim.Dispatcher().Go(time.Hour)
		}
		cc.error(simulation.CommandInterruptedError)
		return
	}

	timeDurToGo, err := time.ParseDuration(cmd.Time)
	if err != nil {
		timeDurToGo, err = time.ParseDuration(cmd.Time + "s") // try parsing as seconds
		if err != nil {
			cc.errorf("could not parse time duration: %s", cmd.Time)
			return
		}
	}
	<-rt.sim.Dispatcher().Go(timeDurToGo)
	if rt.ctx.Err() != nil {
		cc.error(simulation.CommandInterruptedError)
	}
}

func (rt *CmdRunner) executeTime(cc *CommandContext, cmd *TimeCmd) {
	var now uint64
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		now = sim.Dispatcher().Now()
	})
	cc.outputf("%d\n", now)
}

func (rt *CmdRunner) executeLsNodes(cc *CommandContext, cmd *NodesCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, dev := range sim.Devices() {
			var interval, offset Units
			if slot := dev.Engine.BroadcastSlot(); slot != nil {
				interval, offset = slot.Interval, slot.SlotOffset
			}
			cc.outputf("addr=%v\tx=%g\ty=%g\tstate=%v\tlinks=%d\tbcast=%d/%d\n", dev.Addr, dev.Pos.X, dev.Pos.Y,
				dev.Engine.State(), len(dev.Engine.Links()), offset, interval)
		}
	})
}

func (rt *CmdRunner) selectedAddress(cc *CommandContext, sel *AddressSelector) (Address, bool) {
	if sel == nil {
		return rt.contextDevice, rt.contextDevice != InvalidAddress
	}
	addr, err := sel.Address()
	if err != nil {
		cc.error(err)
		return InvalidAddress, false
	}
	return addr, true
}

func (rt *CmdRunner) executeLsLinks(cc *CommandContext, cmd *LinksCmd) {
	addr, filtered := rt.selectedAddress(cc, cmd.Addr)
	if cc.Err() != nil {
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, link := range sim.Links() {
			if filtered && link.DeviceA != addr && link.DeviceB != addr {
				continue
			}
			cc.outputf("%v -> %v\tinterval=%d\toffset=%d\n", link.DeviceA, link.DeviceB, link.ConnInterval,
				link.WindowOffset)
		}
	})
}

func (rt *CmdRunner) executeLsSlots(cc *CommandContext, cmd *SlotsCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, e := range sim.Occupancy().Entries() {
			cc.outputf("%v\n", e)
		}
	})
}

func (rt *CmdRunner) executeCounters(cc *CommandContext, cmd *CountersCmd) {
	addr, single := rt.selectedAddress(cc, cmd.Addr)
	if cc.Err() != nil {
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if single {
			if _, err := sim.GetDevice(addr); err != nil {
				cc.error(err)
				return
			}
			cc.outputItemsAsYaml(sim.Sink().Get(addr))
			return
		}
		for _, r := range sim.Records() {
			cc.outputf("%v\ttx=%d\trx=%d\tuniq=%d\terr=%d\tbcast=%d\tskip=%d\n", r.Address, r.Transmitted, r.Received,
				r.ReceivedUnique, r.ReceivedError, r.BroadcastReceived, r.TxWindowsSkipped)
		}
	})
}

func (rt *CmdRunner) executeDevice(cc *CommandContext, cmd *DeviceCmd) {
	addr, err := cmd.Addr.Address()
	if err != nil {
		cc.error(err)
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if _, err := sim.GetDevice(addr); err != nil {
			cc.error(err)
			return
		}
		rt.enterDeviceContext(addr)
	})
}

func (rt *CmdRunner) enterDeviceContext(addr Address) bool {
	logger.AssertTrue(addr == InvalidAddress || addr.IsValidDevice())
	if rt.contextDevice == addr {
		return false
	}

	rt.contextDevice = addr
	return true
}

func (rt *CmdRunner) executeEnergy(cc *CommandContext, cmd *EnergyCmd) {
	addr, single := rt.selectedAddress(cc, cmd.Addr)
	if cc.Err() != nil {
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if single {
			if _, err := sim.GetDevice(addr); err != nil {
				cc.error(err)
				return
			}
		}
		for _, e := range sim.Energy().Devices(sim.Dispatcher().Now()) {
			if single && e.Addr != addr {
				continue
			}
			cc.outputf("%v	idle=%.6f	tx=%.6f	rx=%.6f	total=%.6f mJ\n", e.Addr, e.Idle, e.Tx, e.Rx, e.Total())
		}
	})
}

func (rt *CmdRunner) executeKpi(cc *CommandContext, cmd *KpiCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if cmd.Save != nil {
			if cmd.Save.Filename != nil {
				sim.Kpi().SaveFile(*cmd.Save.Filename)
			} else {
				sim.Kpi().SaveDefaultFile()
			}
			return
		}
		kpi := sim.Kpi().Data()
		cc.outputf("time: %.6f s\n", kpi.TimeSec.PeriodSec)
		cc.outputf("transmitted: %d\n", kpi.Totals.Transmitted)
		cc.outputf("received-unique: %d\n", kpi.Totals.ReceivedUnique)
		cc.outputf("unique-ratio: %.4f\n", kpi.LinkLayer.UniqueRatio)
		cc.outputf("skip-percent: %.2f\n", kpi.LinkLayer.SkipPercentage)
		cc.outputf("medium-busy-percent: %.4f\n", kpi.Medium.BusyPercentage)
		cc.outputf("energy-per-device: %.6f mJ\n", kpi.Energy.Total)
	})
}

func (rt *CmdRunner) executeStats(cc *CommandContext, cmd *StatsCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		cc.outputItemsAsYaml(sim.Dispatcher().GetStats())
	})
}

func (rt *CmdRunner) executeExport(cc *CommandContext, cmd *ExportCmd) {
	var cfg *simulation.Config
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		cfg = sim.ExportConfig()
	})
	if cfg != nil {
		cc.error(simulation.SaveConfigFile(cfg, cmd.Filename))
	}
}

func (rt *CmdRunner) executeWeb(cc *CommandContext, cmd *WebCmd) {
	if rt.webAddr == "" {
		cc.errorf("web monitor not enabled")
		return
	}
	cc.error(web.OpenWeb(rt.webAddr))
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(logger.GetLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(level)
}

func (rt *CmdRunner) executeExit(cc *CommandContext, cmd *ExitCmd) {
	if rt.enterDeviceContext(InvalidAddress) {
		return
	}
	rt.ctx.Cancel("exit")
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(cmd.HelpTopic))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}
