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
	"time"

	"github.com/pkg/errors"

	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/pcap"
	"github.com/openble/ble-ns/radiomodel"
	"github.com/openble/ble-ns/schedule"
	. "github.com/openble/ble-ns/types"
)

const (
	DefaultNumDevices   = 25
	DefaultFieldLength  = 30.0
	DefaultDuration     = 110 * time.Second
	DefaultPayloadSize  = 20
	DefaultAddressBase  = Address(1)
	DefaultOutputDir    = "tmp"
	DefaultReportFile   = "databc.csv"
	DefaultRadioRange   = 0.0 // unlimited
	DefaultLogLevelName = "off"
)

// DeviceConfig places one device explicitly.
type DeviceConfig struct {
	Address  Address  `yaml:"address"`
	Position Position `yaml:"position"`
}

// LinkConfig is an explicit link; the central sends, the peripheral receives.
type LinkConfig struct {
	Central    Address `yaml:"central"`
	Peripheral Address `yaml:"peripheral"`
}

// Config is the scenario of a simulation run.
type Config struct {
	Id                int            `yaml:"id"`
	NumDevices        int            `yaml:"num-devices"`
	FieldLength       float64        `yaml:"field-length"`
	AddressBase       Address        `yaml:"address-base"`
	ConnInterval      Units          `yaml:"conn-interval"`
	BroadcastInterval Units          `yaml:"broadcast-interval"`
	Scheduled         bool           `yaml:"scheduled"`
	AvoidCollisions   bool           `yaml:"avoid-collisions"`
	AvoidUnicast      bool           `yaml:"broadcast-avoids-unicast"`
	GuardWidth        Units          `yaml:"guard-width"`
	MaxRetries        int            `yaml:"max-retries"`
	EnableUnicast     bool           `yaml:"unicast"`
	EnableBroadcast   bool           `yaml:"broadcast"`
	Duration          time.Duration  `yaml:"duration"`
	SendDuration      time.Duration  `yaml:"send-duration"`
	Iterations        int            `yaml:"iterations"`
	PayloadSize       int            `yaml:"payload-size"`
	UnicastRepeats    int            `yaml:"unicast-repeats"`
	Seed              int64          `yaml:"seed"`
	RadioModel        string         `yaml:"radio-model"`
	RadioRange        float64        `yaml:"radio-range"`
	DeviceLogLevel    string         `yaml:"device-log-level"`
	OutputDir         string         `yaml:"output-dir"`
	ReportFile        string         `yaml:"report-file"`
	Pcap              string         `yaml:"pcap"`
	TraceEvents       bool           `yaml:"trace-events"`
	Devices           []DeviceConfig `yaml:"devices,omitempty"`
	Links             []LinkConfig   `yaml:"links,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Id:                0,
		NumDevices:        DefaultNumDevices,
		FieldLength:       DefaultFieldLength,
		AddressBase:       DefaultAddressBase,
		ConnInterval:      MaxInterval,
		BroadcastInterval: MaxInterval,
		Scheduled:         true,
		AvoidCollisions:   true,
		AvoidUnicast:      true,
		GuardWidth:        schedule.DefaultGuardWidth,
		MaxRetries:        schedule.DefaultMaxRetries,
		EnableUnicast:     true,
		EnableBroadcast:   false,
		Duration:          DefaultDuration,
		SendDuration:      0,
		Iterations:        1,
		PayloadSize:       DefaultPayloadSize,
		UnicastRepeats:    1,
		Seed:              0,
		RadioModel:        radiomodel.NameInterfereAll,
		RadioRange:        DefaultRadioRange,
		DeviceLogLevel:    DefaultLogLevelName,
		OutputDir:         DefaultOutputDir,
		ReportFile:        DefaultReportFile,
		Pcap:              pcap.FrameTypeOffStr,
		TraceEvents:       false,
	}
}

// Validate checks the config for values no run can be started with.
func (cfg *Config) Validate() error {
	if len(cfg.Devices) == 0 && cfg.NumDevices < 1 {
		return errors.Errorf("need at least one device, have %d", cfg.NumDevices)
	}
	if cfg.FieldLength < 0 {
		return errors.Errorf("negative field length %g", cfg.FieldLength)
	}
	if !IsValidInterval(cfg.ConnInterval) {
		return errors.Errorf("connection interval %d out of range [%d,%d]", cfg.ConnInterval, MinInterval, MaxInterval)
	}
	if !IsValidInterval(cfg.BroadcastInterval) {
		return errors.Errorf("broadcast interval %d out of range [%d,%d]", cfg.BroadcastInterval, MinInterval,
			MaxInterval)
	}
	if !cfg.AddressBase.IsValidDevice() {
		return errors.Errorf("address base %v is not a device address", cfg.AddressBase)
	}
	if len(cfg.Devices) == 0 && int(cfg.AddressBase)+cfg.NumDevices-1 >= int(BroadcastAddress) {
		return errors.Errorf("%d devices from address %v exceed the address space", cfg.NumDevices, cfg.AddressBase)
	}
	if cfg.Duration <= 0 {
		return errors.Errorf("duration must be positive, is %v", cfg.Duration)
	}
	if cfg.Iterations < 1 {
		return errors.Errorf("need at least one iteration, have %d", cfg.Iterations)
	}
	if cfg.UnicastRepeats < 1 {
		return errors.Errorf("unicast repeats must be at least 1, is %d", cfg.UnicastRepeats)
	}
	if _, err := logger.ParseLevelString(cfg.DeviceLogLevel); err != nil {
		return err
	}
	if pcap.ParseFrameTypeStr(cfg.Pcap) == pcap.FrameTypeUnknown {
		return errors.Errorf("unknown pcap frame type %q", cfg.Pcap)
	}
	return nil
}

func (cfg *Config) linkScheduleConfig() schedule.Config {
	return schedule.Config{
		Interval:        cfg.ConnInterval,
		Scheduled:       cfg.Scheduled,
		AvoidCollisions: cfg.AvoidCollisions,
		GuardWidth:      cfg.GuardWidth,
		MaxRetries:      cfg.MaxRetries,
	}
}

func (cfg *Config) broadcastScheduleConfig() schedule.Config {
	sc := cfg.linkScheduleConfig()
	sc.Interval = cfg.BroadcastInterval
	return sc
}
