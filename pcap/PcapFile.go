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

package pcap

import (
	"bufio"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

type FrameType int

const (
	FrameTypeOff FrameType = iota
	FrameTypeLinkLayer
	FrameTypeUnknown
)

const (
	FrameTypeOffStr       string = "off"
	FrameTypeLinkLayerStr string = "ll"
)

const (
	// linkTypeUser0 is DLT_USER0, for the link-layer frames that have no registered link type.
	linkTypeUser0 = layers.LinkType(147)
	snapLen       = 65536
)

// File represents a PCAP file
type File interface {
	AppendFrame(frame Frame) error
	Sync() error
	Close() error
}

// Frame represents a single radio frame that can be added to a PCAP file
type Frame struct {
	Timestamp uint64 // simulation time in us
	Data      []byte
}

type linkLayerFile struct {
	fd  *os.File
	buf *bufio.Writer
	w   *pcapgo.Writer
}

// NewFile creates a new PCAP file with all frames using specified frameType
func NewFile(filename string, frameType FrameType) (File, error) {
	switch frameType {
	case FrameTypeLinkLayer:
		return newLinkLayerFile(filename)
	default:
		return nil, errors.Errorf("invalid PCAP frame type: %d", frameType)
	}
}

func ParseFrameTypeStr(tp string) FrameType {
	switch tp {
	case FrameTypeOffStr, "":
		return FrameTypeOff
	case FrameTypeLinkLayerStr:
		return FrameTypeLinkLayer
	default:
		return FrameTypeUnknown
	}
}

func newLinkLayerFile(filename string) (File, error) {
	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	pf := &linkLayerFile{
		fd:  fd,
		buf: bufio.NewWriter(fd),
	}
	pf.w = pcapgo.NewWriter(pf.buf)
	if err = pf.w.WriteFileHeader(snapLen, linkTypeUser0); err != nil {
		_ = fd.Close()
		return nil, errors.Wrapf(err, "write pcap header to %s", filename)
	}
	return pf, nil
}

func (pf *linkLayerFile) AppendFrame(frame Frame) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Unix(0, 0).UTC().Add(time.Duration(frame.Timestamp) * time.Microsecond),
		CaptureLength: len(frame.Data),
		Length:        len(frame.Data),
	}
	return pf.w.WritePacket(ci, frame.Data)
}

func (pf *linkLayerFile) Sync() error {
	if err := pf.buf.Flush(); err != nil {
		return err
	}
	return pf.fd.Sync()
}

func (pf *linkLayerFile) Close() error {
	if err := pf.buf.Flush(); err != nil {
		_ = pf.fd.Close()
		return err
	}
	return pf.fd.Close()
}
