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

package logger

import (
	"fmt"
	"os"
	"time"

	. "github.com/openble/ble-ns/types"
)

// DeviceLogger is a device-specific log object. Its level filters independently of the global level, and its
// lines can additionally go to a per-device log file.
type DeviceLogger struct {
	Addr    Address
	level   Level
	logFile *os.File
	now     TimeSource
}

// NewDeviceLogger creates the logger of device addr. The now func supplies simulation time for each line.
func NewDeviceLogger(addr Address, level Level, now TimeSource) *DeviceLogger {
	return &DeviceLogger{
		Addr:  addr,
		level: level,
		now:   now,
	}
}

// OpenFile makes the logger also write to <outputDir>/<simId>_<addr>.log.
func (dl *DeviceLogger) OpenFile(outputDir string, simId int) error {
	name := fmt.Sprintf("%s/%d_%02x%02x.log", outputDir, simId, byte(dl.Addr>>8), byte(dl.Addr))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0664)
	if err != nil {
		return err
	}
	dl.logFile = f
	_, _ = fmt.Fprintf(f, "#\n# Device log for %v created %s\n# SimTime         Lev Message\n", dl.Addr,
		time.Now().Format(time.RFC3339))
	return nil
}

// Close closes the per-device log file, if any.
func (dl *DeviceLogger) Close() {
	if dl.logFile != nil {
		_ = dl.logFile.Close()
		dl.logFile = nil
	}
}

func (dl *DeviceLogger) SetLevel(level Level) {
	dl.level = level
}

func (dl *DeviceLogger) Level() Level {
	return dl.level
}

func (dl *DeviceLogger) Logf(level Level, format string, args []interface{}) {
	if level > dl.level {
		return
	}
	var ts uint64
	if dl.now != nil {
		ts = dl.now()
	}
	msg := getMessage(format, args)
	if dl.logFile != nil {
		_, _ = fmt.Fprintf(dl.logFile, "%-16s %-3.3s %s\n", FormatSimTime(ts), GetLevelString(level), msg)
	}
	if level <= currentLevel {
		writeLog(level, fmt.Sprintf("[%s] %v %s", FormatSimTime(ts), dl.Addr, msg))
	}
}

func (dl *DeviceLogger) Tracef(format string, args ...interface{}) {
	dl.Logf(TraceLevel, format, args)
}

func (dl *DeviceLogger) Debugf(format string, args ...interface{}) {
	dl.Logf(DebugLevel, format, args)
}

func (dl *DeviceLogger) Infof(format string, args ...interface{}) {
	dl.Logf(InfoLevel, format, args)
}

func (dl *DeviceLogger) Warnf(format string, args ...interface{}) {
	dl.Logf(WarnLevel, format, args)
}

func (dl *DeviceLogger) Errorf(format string, args ...interface{}) {
	dl.Logf(ErrorLevel, format, args)
}
