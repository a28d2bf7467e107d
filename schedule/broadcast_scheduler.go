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

package schedule

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/openble/ble-ns/logger"
	. "github.com/openble/ble-ns/types"
)

// BroadcastScheduler assigns one advertising slot per device.
type BroadcastScheduler struct {
	placer
	avoidUnicast bool
}

// NewBroadcastScheduler creates a BroadcastScheduler placing into occ. If avoidUnicast is set, collision
// avoidance also keeps slots clear of the unicast windows already in occ.
func NewBroadcastScheduler(cfg Config, avoidUnicast bool, occ *Occupancy, rnd *rand.Rand) *BroadcastScheduler {
	return &BroadcastScheduler{
		placer:       newPlacer(cfg, occ, rnd),
		avoidUnicast: avoidUnicast,
	}
}

// Occupancy returns the registry the scheduler places into.
func (s *BroadcastScheduler) Occupancy() *Occupancy {
	return s.occ
}

// Assign returns one slot per device, in the order of devices.
func (s *BroadcastScheduler) Assign(devices []Address) ([]*BroadcastSlot, error) {
	if err := s.cfg.validate(); err != nil {
		return nil, err
	}

	n := len(devices)
	slots := make([]*BroadcastSlot, 0, n)
	for i, addr := range devices {
		interval, offset := s.initial(i, n)
		interval, offset, ok := s.place(interval, offset, s.avoidUnicast, true)
		if !ok {
			return nil, errors.Wrapf(ErrScheduleExhausted, "broadcast slot of device %v after %d retries", addr,
				s.cfg.MaxRetries)
		}

		slot := &BroadcastSlot{Owner: addr, Interval: interval, SlotOffset: offset}
		s.occ.Add(Entry{
			Kind:     KindBroadcast,
			Owner:    addr.String(),
			Interval: interval,
			Offset:   offset,
		})
		slots = append(slots, slot)
		logger.Tracef("scheduled broadcast slot %v", slot)
	}
	logger.Debugf("scheduled %d broadcast slots", n)
	return slots, nil
}
