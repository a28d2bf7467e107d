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

	. "github.com/openble/ble-ns/types"
)

const (
	DefaultGuardWidth Units = 1
	DefaultMaxRetries       = int(MaxInterval)
)

// Config controls how a scheduler picks offsets.
type Config struct {
	Interval        Units // RandomInterval draws an interval per link or slot.
	Scheduled       bool  // evenly spaced offsets instead of random ones.
	AvoidCollisions bool
	GuardWidth      Units
	MaxRetries      int
}

// DefaultConfig returns a deterministic, collision-avoiding config with the largest interval.
func DefaultConfig() Config {
	return Config{
		Interval:        MaxInterval,
		Scheduled:       true,
		AvoidCollisions: true,
		GuardWidth:      DefaultGuardWidth,
		MaxRetries:      DefaultMaxRetries,
	}
}

func (cfg Config) validate() error {
	if !IsValidInterval(cfg.Interval) {
		return errors.Errorf("interval %d out of range [%d,%d]", cfg.Interval, MinInterval, MaxInterval)
	}
	if cfg.MaxRetries < 0 {
		return errors.Errorf("negative retry bound %d", cfg.MaxRetries)
	}
	return nil
}

func (cfg Config) deterministic() bool {
	return cfg.Scheduled && cfg.Interval != RandomInterval
}

// placer holds what both schedulers share: config, random source and the occupancy registry.
type placer struct {
	cfg Config
	occ *Occupancy
	rnd *rand.Rand
}

func newPlacer(cfg Config, occ *Occupancy, rnd *rand.Rand) placer {
	if occ == nil {
		occ = NewOccupancy()
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	return placer{cfg: cfg, occ: occ, rnd: rnd}
}

func (p *placer) randomInterval() Units {
	return MinInterval + Units(p.rnd.Intn(int(MaxInterval)))
}

func (p *placer) randomOffset(interval Units) Units {
	return Units(p.rnd.Intn(int(interval)))
}

// initial returns the first candidate (interval, offset) for the i-th of n items.
func (p *placer) initial(i, n int) (Units, Units) {
	interval := p.cfg.Interval
	if interval == RandomInterval {
		interval = p.randomInterval()
		return interval, p.randomOffset(interval)
	}
	if p.cfg.Scheduled {
		return interval, Units(uint64(i) * uint64(interval) / uint64(n))
	}
	return interval, p.randomOffset(interval)
}

// place moves the candidate until it is clear of the selected placements, or gives up after MaxRetries.
func (p *placer) place(interval, offset Units, unicast, broadcast bool) (Units, Units, bool) {
	if !p.cfg.AvoidCollisions {
		return interval, offset, true
	}
	for retry := 0; ; retry++ {
		if !p.occ.Conflicts(interval, offset, p.cfg.GuardWidth, unicast, broadcast) {
			return interval, offset, true
		}
		if retry >= p.cfg.MaxRetries {
			return interval, offset, false
		}
		if p.cfg.deterministic() {
			offset = Units((uint64(offset) + uint64(p.cfg.GuardWidth)) % uint64(interval))
		} else {
			if p.cfg.Interval == RandomInterval {
				interval = p.randomInterval()
			}
			offset = p.randomOffset(interval)
		}
	}
}
