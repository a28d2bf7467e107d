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

package types

import "time"

// Units counts connection/broadcast interval units of 1.25 ms.
type Units = uint32

const (
	// UnitUs is the length of one interval unit in microseconds.
	UnitUs uint64 = 1250
	// MaxInterval is the largest valid interval in units.
	MaxInterval Units = 3200
	// MinInterval is the smallest valid interval in units.
	MinInterval Units = 1
	// RandomInterval requests an independently drawn random interval per link or slot.
	RandomInterval Units = 0
)

const (
	// Ever is a timestamp that is never reached.
	Ever uint64 = ^uint64(0)
)

// UnitsToUs converts a number of interval units to microseconds.
func UnitsToUs(u Units) uint64 {
	return uint64(u) * UnitUs
}

// UnitsToDuration converts a number of interval units to a time.Duration.
func UnitsToDuration(u Units) time.Duration {
	return time.Duration(UnitsToUs(u)) * time.Microsecond
}

// IsValidInterval returns true if u is a concrete interval or the random-interval marker.
func IsValidInterval(u Units) bool {
	return u == RandomInterval || (u >= MinInterval && u <= MaxInterval)
}
