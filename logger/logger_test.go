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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/openble/ble-ns/types"
)

func TestParseLevelString(t *testing.T) {
	for _, lv := range []Level{MicroLevel, TraceLevel, DebugLevel, InfoLevel, NoteLevel, WarnLevel, ErrorLevel,
		OffLevel} {
		parsed, err := ParseLevelString(GetLevelString(lv))
		assert.Nil(t, err)
		assert.Equal(t, lv, parsed)
	}

	lv, err := ParseLevelString("W")
	assert.Nil(t, err)
	assert.Equal(t, WarnLevel, lv)

	lv, err = ParseLevelString("default")
	assert.Nil(t, err)
	assert.Equal(t, DefaultLevel, lv)

	_, err = ParseLevelString("loud")
	assert.NotNil(t, err)
}

func TestFormatSimTime(t *testing.T) {
	assert.Equal(t, "0:00:00.000000", FormatSimTime(0))
	assert.Equal(t, "0:00:01.250000", FormatSimTime(1250000))
	assert.Equal(t, "1:01:01.000001", FormatSimTime(3661000001))
}

func TestDeviceLoggerFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "blens-logger")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	level := GetLevel()
	SetLevel(OffLevel)
	defer SetLevel(level)

	ts := uint64(2500)
	dl := NewDeviceLogger(0x0001, DebugLevel, func() uint64 { return ts })
	assert.Nil(t, dl.OpenFile(dir, 1))
	dl.Debugf("hello %d", 42)
	dl.Tracef("filtered")
	dl.Close()

	data, err := ioutil.ReadFile(filepath.Join(dir, "1_0001.log"))
	assert.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, 4, len(lines))
	assert.Contains(t, lines[3], "0:00:00.002500")
	assert.Contains(t, lines[3], "hello 42")
	assert.Equal(t, Address(1), dl.Addr)
}
