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
	"github.com/alecthomas/participle"
	"github.com/pkg/errors"

	. "github.com/openble/ble-ns/types"
)

// noinspection GoStructTag
type Command struct {
	Counters *CountersCmd `  @@` //nolint
	Device   *DeviceCmd   `| @@` //nolint
	Energy   *EnergyCmd   `| @@` //nolint
	Exit     *ExitCmd     `| @@` //nolint
	Export   *ExportCmd   `| @@` //nolint
	Go       *GoCmd       `| @@` //nolint
	Help     *HelpCmd     `| @@` //nolint
	Kpi      *KpiCmd      `| @@` //nolint
	Links    *LinksCmd    `| @@` //nolint
	LogLevel *LogLevelCmd `| @@` //nolint
	Nodes    *NodesCmd    `| @@` //nolint
	Slots    *SlotsCmd    `| @@` //nolint
	Stats    *StatsCmd    `| @@` //nolint
	Time     *TimeCmd     `| @@` //nolint
	Web      *WebCmd      `| @@` //nolint
}

// noinspection GoStructTag
type AddressSelector struct {
	Num *int    `  @Int`    //nolint
	Str *string `| @String` //nolint
}

// Address resolves the selector: a plain number, or the quoted "xx:xx" form.
func (as *AddressSelector) Address() (Address, error) {
	if as.Str != nil {
		return ParseAddress(*as.Str)
	}
	if *as.Num < 0 || *as.Num > int(BroadcastAddress) {
		return InvalidAddress, errors.Wrapf(ErrMalformedAddress, "%d", *as.Num)
	}
	return Address(*as.Num), nil
}

// noinspection GoStructTag
type EverFlag struct {
	Dummy struct{} `"ever"` //nolint
}

// noinspection GoStructTag
type GoCmd struct {
	Cmd  struct{}  `"go"`                                     //nolint
	Time string    `( @((Int|Float)["h"|"us"|"m"|"ms"|"s"]) ` //nolint
	Ever *EverFlag `| @@ )`                                   //nolint
}

// noinspection GoStructTag
type TimeCmd struct {
	Cmd struct{} `"time"` //nolint
}

// noinspection GoStructTag
type NodesCmd struct {
	Cmd struct{} `"nodes"` //nolint
}

// noinspection GoStructTag
type LinksCmd struct {
	Cmd  struct{}         `"links"` //nolint
	Addr *AddressSelector `[ @@ ]`  //nolint
}

// noinspection GoStructTag
type SlotsCmd struct {
	Cmd struct{} `"slots"` //nolint
}

// noinspection GoStructTag
type CountersCmd struct {
	Cmd  struct{}         `"counters"` //nolint
	Addr *AddressSelector `[ @@ ]`     //nolint
}

// noinspection GoStructTag
type DeviceCmd struct {
	Cmd  struct{}        `"device"` //nolint
	Addr AddressSelector `@@`       //nolint
}

// noinspection GoStructTag
type EnergyCmd struct {
	Cmd  struct{}         `"energy"` //nolint
	Addr *AddressSelector `[ @@ ]`   //nolint
}

// noinspection GoStructTag
type KpiCmd struct {
	Cmd  struct{}  `"kpi"`  //nolint
	Save *SaveFlag `[ @@ ]` //nolint
}

// noinspection GoStructTag
type SaveFlag struct {
	Dummy    struct{} `"save"`      //nolint
	Filename *string  `[ @String ]` //nolint
}

// noinspection GoStructTag
type StatsCmd struct {
	Cmd struct{} `"stats"` //nolint
}

// noinspection GoStructTag
type ExportCmd struct {
	Cmd      struct{} `"export"` //nolint
	Filename string   `@String`  //nolint
}

// noinspection GoStructTag
type WebCmd struct {
	Cmd struct{} `"web"` //nolint
}

type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                                     //nolint
	Level string   `[@( "micro"|"trace"|"debug"|"info"|"note"|"warn"|"error"|"off"|"T"|"D"|"I"|"N"|"W"|"E" )]` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	return commandParser.ParseBytes(b, cmd)
}
