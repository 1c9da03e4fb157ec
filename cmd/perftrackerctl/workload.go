// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

// workload records synthetic samples into a registry.
type workload struct {
	cfg    Workload
	reg    *tracker.Registry
	logger *zap.Logger
	rnd    *rand.Rand
	ticks  int
}

func newWorkload(cfg Workload, reg *tracker.Registry, logger *zap.Logger) *workload {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &workload{
		cfg:    cfg,
		reg:    reg,
		logger: logger,
		rnd:    rand.New(rand.NewPCG(seed, seed)),
	}
}

// step records one sample for every tracker.
func (w *workload) step() {
	w.ticks++
	for _, t := range w.cfg.Trackers {
		w.reg.Record(t.Name, w.sample(t))
	}
}

func (w *workload) sample(t WorkloadTracker) time.Duration {
	if t.SpikeEvery > 0 && w.ticks%t.SpikeEvery == 0 {
		return t.Spike
	}
	if t.Jitter == 0 {
		return t.Mean
	}
	offset := time.Duration(w.rnd.Int64N(int64(2*t.Jitter)+1)) - t.Jitter
	return t.Mean + offset
}

// run steps the workload every interval until ctx is done.
func (w *workload) run(ctx context.Context) {
	w.logger.Debug("Starting synthetic workload",
		zap.Int("trackers", len(w.cfg.Trackers)),
		zap.Duration("interval", w.cfg.Interval))
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Stopped synthetic workload", zap.Int("ticks", w.ticks))
			return
		case <-ticker.C:
			w.step()
		}
	}
}
