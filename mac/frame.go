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

package mac

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	. "github.com/openble/ble-ns/types"
)

// FrameType is the on-air type flag of a frame.
type FrameType = uint8

const (
	FrameTypeUnicast   FrameType = 0
	FrameTypeBroadcast FrameType = 1
)

const (
	// HeaderLen is the fixed size of the frame header: src(2) dest(2) type(1).
	HeaderLen = 2*AddressLen + 1
	// SeqLen is the size of the sequence number leading every engine payload.
	SeqLen = 4
	// phyOverheadLen counts preamble, access address, PDU header and CRC bytes.
	phyOverheadLen = 10
	// bitRate of the PHY in bits per microsecond.
	bitRate = 1
)

// FrameHeader is the link-layer header carried in front of every payload.
type FrameHeader struct {
	SrcAddr     Address
	DestAddr    Address
	IsBroadcast bool
}

// NewUnicastHeader returns the header of a unicast frame from src to dst.
func NewUnicastHeader(src, dst Address) FrameHeader {
	return FrameHeader{SrcAddr: src, DestAddr: dst}
}

// NewBroadcastHeader returns the header of a broadcast frame from src.
func NewBroadcastHeader(src Address) FrameHeader {
	return FrameHeader{SrcAddr: src, DestAddr: BroadcastAddress, IsBroadcast: true}
}

// Serialize returns the header bytes followed by the payload.
func (h FrameHeader) Serialize(payload []byte) []byte {
	data := make([]byte, HeaderLen+len(payload))
	src, dst := EncodeAddress(h.SrcAddr), EncodeAddress(h.DestAddr)
	copy(data[0:AddressLen], src[:])
	copy(data[AddressLen:2*AddressLen], dst[:])
	if h.IsBroadcast {
		data[4] = FrameTypeBroadcast
	} else {
		data[4] = FrameTypeUnicast
	}
	copy(data[HeaderLen:], payload)
	return data
}

func (h FrameHeader) String() string {
	if h.IsBroadcast {
		return fmt.Sprintf("%v->*", h.SrcAddr)
	}
	return fmt.Sprintf("%v->%v", h.SrcAddr, h.DestAddr)
}

// ParseFrame splits a received frame into its header and the remaining payload.
func ParseFrame(data []byte) (FrameHeader, []byte, error) {
	var h FrameHeader
	if len(data) < HeaderLen {
		return h, nil, errors.Wrapf(ErrTruncatedHeader, "frame of %d bytes", len(data))
	}
	var err error
	if h.SrcAddr, err = DecodeAddress(data[0:AddressLen]); err != nil {
		return h, nil, err
	}
	if h.DestAddr, err = DecodeAddress(data[AddressLen : 2*AddressLen]); err != nil {
		return h, nil, err
	}
	switch data[4] {
	case FrameTypeUnicast:
		if h.DestAddr.IsBroadcast() {
			return h, nil, errors.Wrapf(ErrMalformedFrame, "unicast frame to broadcast address")
		}
	case FrameTypeBroadcast:
		if !h.DestAddr.IsBroadcast() {
			return h, nil, errors.Wrapf(ErrMalformedFrame, "broadcast frame to %v", h.DestAddr)
		}
		h.IsBroadcast = true
	default:
		return h, nil, errors.Wrapf(ErrMalformedFrame, "unknown frame type %d", data[4])
	}
	return h, data[HeaderLen:], nil
}

// NewPayload builds a payload of the given size, led by the sequence number. Sizes below SeqLen are raised.
func NewPayload(seq uint32, size int) []byte {
	if size < SeqLen {
		size = SeqLen
	}
	p := make([]byte, size)
	binary.BigEndian.PutUint32(p, seq)
	return p
}

// PayloadSeq reads the sequence number of a payload built by NewPayload.
func PayloadSeq(payload []byte) (uint32, bool) {
	if len(payload) < SeqLen {
		return 0, false
	}
	return binary.BigEndian.Uint32(payload), true
}

// AirTimeUs returns the on-air duration of a frame of frameLen bytes, in microseconds.
func AirTimeUs(frameLen int) uint64 {
	return uint64(phyOverheadLen+frameLen) * 8 / bitRate
}
