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

// LinkScheduler assigns connection intervals and window offsets to unicast links.
type LinkScheduler struct {
	placer
}

// NewLinkScheduler creates a LinkScheduler placing into occ. A nil occ starts an empty registry.
func NewLinkScheduler(cfg Config, occ *Occupancy, rnd *rand.Rand) *LinkScheduler {
	return &LinkScheduler{placer: newPlacer(cfg, occ, rnd)}
}

// Occupancy returns the registry the scheduler places into.
func (s *LinkScheduler) Occupancy() *Occupancy {
	return s.occ
}

// Assign stamps every link, in order, with its interval and offset. With collision avoidance, each window is
// kept clear of all windows and slots placed before it.
func (s *LinkScheduler) Assign(links []*Link) error {
	if err := s.cfg.validate(); err != nil {
		return err
	}

	n := len(links)
	for i, link := range links {
		interval, offset := s.initial(i, n)
		interval, offset, ok := s.place(interval, offset, true, true)
		if !ok {
			return errors.Wrapf(ErrScheduleExhausted, "link %v-%v after %d retries", link.DeviceA, link.DeviceB,
				s.cfg.MaxRetries)
		}

		link.ConnInterval = interval
		link.WindowOffset = offset
		s.occ.Add(Entry{
			Kind:     KindUnicast,
			Owner:    link.DeviceA.String() + "-" + link.DeviceB.String(),
			Interval: interval,
			Offset:   offset,
		})
		logger.Tracef("scheduled link %v", link)
	}
	logger.Debugf("scheduled %d links", n)
	return nil
}
