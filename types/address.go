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
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Address is the 16-bit link-layer address of a device.
type Address uint16

const (
	// InvalidAddress is never assigned to a device.
	InvalidAddress Address = 0
	// BroadcastAddress is reserved as the destination of broadcast frames.
	BroadcastAddress Address = 0xffff
	// AddressLen is the on-air size of an encoded address.
	AddressLen = 2
)

// IsBroadcast returns true if the address is the reserved broadcast address.
func (a Address) IsBroadcast() bool {
	return a == BroadcastAddress
}

// IsValidDevice returns true if the address can be assigned to a device.
func (a Address) IsValidDevice() bool {
	return a != InvalidAddress && a != BroadcastAddress
}

// String formats the address as two colon-separated hex octets, e.g. "00:01".
func (a Address) String() string {
	return fmt.Sprintf("%02x:%02x", byte(a>>8), byte(a))
}

// EncodeAddress returns the big-endian wire form of the address.
func EncodeAddress(a Address) [AddressLen]byte {
	return [AddressLen]byte{byte(a >> 8), byte(a)}
}

// DecodeAddress reads a big-endian address from the first two bytes of b.
func DecodeAddress(b []byte) (Address, error) {
	if len(b) < AddressLen {
		return InvalidAddress, errors.Wrapf(ErrTruncatedHeader, "address needs %d bytes, got %d", AddressLen, len(b))
	}
	return Address(b[0])<<8 | Address(b[1]), nil
}

// ParseAddress parses the "xx:xx" text form of an address, as written by String. Hex digits must be lower case.
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return InvalidAddress, errors.Wrapf(ErrMalformedAddress, "%q", s)
	}

	var addr Address
	for _, p := range parts {
		if len(p) != 2 || !isLowerHex(p) {
			return InvalidAddress, errors.Wrapf(ErrMalformedAddress, "%q", s)
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return InvalidAddress, errors.Wrapf(ErrMalformedAddress, "%q", s)
		}
		addr = addr<<8 | Address(v)
	}
	return addr, nil
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// MarshalYAML writes the address in its text form.
func (a Address) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalYAML reads the address from its text form.
func (a *Address) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return a.UnmarshalText([]byte(s))
}
