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

package radiomodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/openble/ble-ns/types"
)

func TestCreate(t *testing.T) {
	rm, err := Create("Ideal")
	assert.Nil(t, err)
	assert.Equal(t, NameIdeal, rm.GetName())

	rm, err = Create("")
	assert.Nil(t, err)
	assert.Equal(t, NameInterfereAll, rm.GetName())

	_, err = Create("Fading")
	assert.NotNil(t, err)
}

func TestRadioRange(t *testing.T) {
	a := NewRadioNode(1, Position{X: 0, Y: 0}, 10)
	b := NewRadioNode(2, Position{X: 6, Y: 8}, 10)
	c := NewRadioNode(3, Position{X: 20, Y: 0}, 0)
	assert.Equal(t, 10.0, a.GetDistanceTo(b))
	assert.True(t, a.InRange(b))
	assert.False(t, a.InRange(c))
	assert.True(t, c.InRange(a))

	rm, _ := Create(NameIdeal)
	assert.True(t, rm.CheckRadioReachable(a, b))
	assert.False(t, rm.CheckRadioReachable(a, a))
	assert.False(t, rm.CheckRadioReachable(b, c))
}

func TestInterfereAllBusy(t *testing.T) {
	rm, _ := Create(NameInterfereAll)
	a := NewRadioNode(1, Position{X: 0, Y: 0}, 1)
	b := NewRadioNode(2, Position{X: 100, Y: 0}, 1)
	rm.AddNode(a)
	rm.AddNode(b)

	assert.False(t, rm.IsMediumBusy(b, 0))
	rm.TxStart(a, 100, 200, 25)
	assert.True(t, rm.IsMediumBusy(b, 100))
	assert.True(t, rm.IsMediumBusy(b, 299))
	assert.False(t, rm.IsMediumBusy(b, 300))

	rm.TxStart(b, 250, 200, 25)
	stats := rm.GetPhyStats()
	assert.Equal(t, 2, stats.NumFramesTx)
	assert.Equal(t, 50, stats.NumBytesTx)
	assert.Equal(t, uint64(350), stats.BusyTimeUs)
	assert.Equal(t, uint64(200), a.Stats().AirTimeUs)
}

func TestIdealCarrierSense(t *testing.T) {
	rm, _ := Create(NameIdeal)
	a := NewRadioNode(1, Position{X: 0, Y: 0}, 10)
	b := NewRadioNode(2, Position{X: 5, Y: 0}, 10)
	c := NewRadioNode(3, Position{X: 50, Y: 0}, 10)
	rm.AddNode(a)
	rm.AddNode(b)
	rm.AddNode(c)

	rm.TxStart(a, 0, 100, 10)
	assert.True(t, rm.IsMediumBusy(a, 50))
	assert.True(t, rm.IsMediumBusy(b, 50))
	assert.False(t, rm.IsMediumBusy(c, 50))
	assert.False(t, rm.IsMediumBusy(b, 100))
}
