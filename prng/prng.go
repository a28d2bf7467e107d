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

package prng

import (
	"math/rand"
	"time"
)

type RandomSeed int64

// Source hands out the independent random generators of one simulation run. Each concern draws from its own
// generator, so enabling one random feature does not shift the draws of another.
type Source struct {
	rootSeed    RandomSeed
	placement   *rand.Rand
	links       *rand.Rand
	broadcast   *rand.Rand
	iterSeedGen *rand.Rand
}

// NewSource creates a Source, either with a fixed PRNG seed (rootSeed != 0) or a 'random' time-based PRNG
// seed (if rootSeed == 0).
func NewSource(rootSeed int64) *Source {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	root := rand.New(rand.NewSource(rootSeed))

	return &Source{
		rootSeed:    RandomSeed(rootSeed),
		placement:   rand.New(rand.NewSource(rootSeed + root.Int63n(1e10))),
		links:       rand.New(rand.NewSource(rootSeed + root.Int63n(1e10))),
		broadcast:   rand.New(rand.NewSource(rootSeed + root.Int63n(1e10))),
		iterSeedGen: rand.New(rand.NewSource(rootSeed + root.Int63n(1e10))),
	}
}

// RootSeed returns the seed the Source was created with.
func (s *Source) RootSeed() RandomSeed {
	return s.rootSeed
}

// Placement is the generator for device positions.
func (s *Source) Placement() *rand.Rand {
	return s.placement
}

// Links is the generator for unicast window offsets and intervals.
func (s *Source) Links() *rand.Rand {
	return s.links
}

// Broadcast is the generator for broadcast slot offsets and intervals.
func (s *Source) Broadcast() *rand.Rand {
	return s.broadcast
}

// NextIterationSeed returns a new non-zero seed, for the Source of the next iteration.
func (s *Source) NextIterationSeed() int64 {
	for {
		if seed := s.iterSeedGen.Int63(); seed != 0 {
			return seed
		}
	}
}

// IntInRange draws an integer uniformly from [lo, hi].
func IntInRange(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}
