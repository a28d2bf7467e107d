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

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestAddressEncodeDecode(t *testing.T) {
	b := EncodeAddress(0x0102)
	assert.Equal(t, [2]byte{0x01, 0x02}, b)

	a, err := DecodeAddress([]byte{0xab, 0xcd, 0xef})
	assert.Nil(t, err)
	assert.Equal(t, Address(0xabcd), a)

	for _, addr := range []Address{0, 1, 0x00ff, 0x1234, 0xfffe, BroadcastAddress} {
		enc := EncodeAddress(addr)
		dec, err := DecodeAddress(enc[:])
		assert.Nil(t, err)
		assert.Equal(t, addr, dec)
	}
}

func TestDecodeAddressTruncated(t *testing.T) {
	_, err := DecodeAddress([]byte{0x01})
	assert.True(t, errors.Is(err, ErrTruncatedHeader))
	_, err = DecodeAddress(nil)
	assert.True(t, errors.Is(err, ErrTruncatedHeader))
}

func TestParseAddress(t *testing.T) {
	for i, tc := range []struct {
		input string
		addr  Address
		err   bool
	}{
		{"00:01", 0x0001, false},
		{"ff:ff", BroadcastAddress, false},
		{"fe:dc", 0xfedc, false},
		{"12:ab", 0x12ab, false},
		{"FF:FE", 0, true},
		{"12:aB", 0, true},
		{"", 0, true},
		{"0001", 0, true},
		{"0:01", 0, true},
		{"000:01", 0, true},
		{"00:01:02", 0, true},
		{"zz:01", 0, true},
		{"00-01", 0, true},
		{"+1:01", 0, true},
	} {
		addr, err := ParseAddress(tc.input)
		if tc.err {
			assert.True(t, errors.Is(err, ErrMalformedAddress), "%d: %q", i, tc.input)
			continue
		}
		assert.Nil(t, err, "%d: %q", i, tc.input)
		assert.Equal(t, tc.addr, addr, "%d: %q", i, tc.input)
	}
}

func TestAddressString(t *testing.T) {
	assert.Equal(t, "00:01", Address(1).String())
	assert.Equal(t, "ff:ff", BroadcastAddress.String())
	assert.Equal(t, "0a:bc", Address(0x0abc).String())

	for _, s := range []string{"00:00", "00:19", "7f:80", "ff:ff"} {
		addr, err := ParseAddress(s)
		assert.Nil(t, err)
		assert.Equal(t, s, addr.String())
	}
}

func TestAddressTextRoundTrip(t *testing.T) {
	for v := 0; v <= 0xffff; v++ {
		s := Address(v).String()
		addr, err := ParseAddress(s)
		if !assert.Nil(t, err, s) {
			return
		}
		assert.Equal(t, Address(v), addr)
		assert.Equal(t, s, addr.String())
	}

	_, err := ParseAddress("AB:CD")
	assert.True(t, errors.Is(err, ErrMalformedAddress))
}

func TestAddressPredicates(t *testing.T) {
	assert.True(t, BroadcastAddress.IsBroadcast())
	assert.False(t, Address(1).IsBroadcast())
	assert.True(t, Address(1).IsValidDevice())
	assert.False(t, InvalidAddress.IsValidDevice())
	assert.False(t, BroadcastAddress.IsValidDevice())
}

func TestAddressYaml(t *testing.T) {
	type holder struct {
		Addr Address `yaml:"addr"`
	}
	out, err := yaml.Marshal(&holder{Addr: 0x0102})
	assert.Nil(t, err)
	assert.Contains(t, string(out), "01:02")

	var h holder
	assert.Nil(t, yaml.Unmarshal(out, &h))
	assert.Equal(t, Address(0x0102), h.Addr)
	assert.Nil(t, yaml.Unmarshal([]byte("addr: 0a:0b\n"), &h))
	assert.Equal(t, Address(0x0a0b), h.Addr)

	assert.NotNil(t, yaml.Unmarshal([]byte("addr: nope\n"), &h))
}

func TestUnits(t *testing.T) {
	assert.Equal(t, uint64(1250), UnitsToUs(1))
	assert.Equal(t, uint64(4000000), UnitsToUs(MaxInterval))
	assert.True(t, IsValidInterval(RandomInterval))
	assert.True(t, IsValidInterval(1))
	assert.True(t, IsValidInterval(3200))
	assert.False(t, IsValidInterval(3201))
}
