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

package simulation

import (
	"github.com/openble/ble-ns/logger"
	"github.com/openble/ble-ns/prng"
	"github.com/openble/ble-ns/progctx"
)

// IterationHandler receives a simulation of one iteration.
type IterationHandler func(sim *Simulation) error

// RunIterations runs cfg.Iterations batch iterations, each with a fresh topology and schedule. Iteration 0 uses
// the seed of cfg; later iterations use seeds derived from it. handler receives every iteration after it ran to
// its end, before its outputs are closed.
func RunIterations(ctx *progctx.ProgCtx, cfg *Config, handler IterationHandler) error {
	return RunIterationsWithSetup(ctx, cfg, nil, handler)
}

// RunIterationsWithSetup is like RunIterations, but also hands every iteration to setup before it runs.
func RunIterationsWithSetup(ctx *progctx.ProgCtx, cfg *Config, setup, handler IterationHandler) error {
	seeds := prng.NewSource(cfg.Seed)
	seed := int64(seeds.RootSeed())

	for it := 0; it < cfg.Iterations; it++ {
		if ctx.Err() != nil {
			return CommandInterruptedError
		}
		sim, err := NewSimulation(ctx, cfg, it, seed)
		if err != nil {
			return err
		}

		if setup != nil {
			err = setup(sim)
		}
		if err == nil {
			err = sim.RunToEnd()
		}
		if err == nil && handler != nil {
			err = handler(sim)
		}
		sim.Stop()
		if err != nil {
			return err
		}
		logger.Infof("iteration %d done: %+v", it, sim.Sink().Totals())
		seed = seeds.NextIterationSeed()
	}
	return nil
}
