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
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
)

const (
	pcapFileHeaderSize  = 24
	pcapFrameHeaderSize = 16
)

func TestPcapFile(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "test.pcap")
	pcap, err := NewFile(pcapFilename, FrameTypeLinkLayer)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		_ = pcap.Close()
	}()

	err = pcap.Sync()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, pcapFileHeaderSize, getFileSize(t, pcapFilename))

	for i := 0; i < 10; i++ {
		frame := Frame{
			Timestamp: uint64(i) * 1250,
			Data:      []byte{0x00, 0x01, 0xff, 0xff, 0x01},
		}
		err = pcap.AppendFrame(frame)
		if err != nil {
			t.Fatal(err)
		}

		err = pcap.Sync()
		if err != nil {
			t.Fatal(err)
		}
		assert.True(t, pcapFileHeaderSize+(pcapFrameHeaderSize+5)*(i+1) == getFileSize(t, pcapFilename))
	}
}

func TestPcapFileReadBack(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "readback.pcap")
	pcap, err := NewFile(pcapFilename, FrameTypeLinkLayer)
	assert.Nil(t, err)
	assert.Nil(t, pcap.AppendFrame(Frame{Timestamp: 2500001, Data: []byte{1, 2, 3, 4, 5, 6}}))
	assert.Nil(t, pcap.Close())

	f, err := os.Open(pcapFilename)
	assert.Nil(t, err)
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	assert.Nil(t, err)
	assert.Equal(t, linkTypeUser0, r.LinkType())

	data, ci, err := r.ReadPacketData()
	assert.Nil(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, data)
	assert.Equal(t, int64(2), ci.Timestamp.Unix())
	assert.Equal(t, 500001000, ci.Timestamp.Nanosecond())

	_, _, err = r.ReadPacketData()
	assert.Equal(t, io.EOF, err)
}

func TestParseFrameTypeStr(t *testing.T) {
	assert.Equal(t, FrameTypeOff, ParseFrameTypeStr("off"))
	assert.Equal(t, FrameTypeLinkLayer, ParseFrameTypeStr("ll"))
	assert.Equal(t, FrameTypeUnknown, ParseFrameTypeStr("wpan"))

	_, err := NewFile(filepath.Join(t.TempDir(), "x.pcap"), FrameTypeOff)
	assert.NotNil(t, err)
}

func getFileSize(t *testing.T, fp string) int {
	fs, err := os.Stat(fp)
	if err != nil {
		t.Fatal(err)
	}
	return int(fs.Size())
}
