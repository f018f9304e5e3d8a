package sim

import (
	"fmt"
	"sync"
	"time"
)

// Runner paces a Simulator against wall-clock time: one tick per interval
// (e.g. 100ms per simulated minute). Control calls are safe from any
// goroutine; the simulation state itself is touched only by the tick
// goroutine.
type Runner struct {
	mu       sync.Mutex
	sim      *Simulator
	interval time.Duration

	running bool
	paused  bool

	stop chan struct{}
	done chan struct{}
}

// NewRunner wraps a simulator with a fixed-rate tick loop.
func NewRunner(s *Simulator, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Runner{sim: s, interval: interval}
}

// Start launches the tick goroutine. Starting a running simulation is a
// logged no-op.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("simulation already running")
	}
	r.running = true
	r.paused = false
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(r.stop, r.done)
	return nil
}

func (r *Runner) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			if !r.paused {
				r.sim.Tick()
			}
			r.mu.Unlock()
		}
	}
}

// Pause freezes tick execution without discarding state.
func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running && !r.paused {
		r.paused = true
		r.sim.Log.Event(r.sim.Clock, CatInfo, "simulation paused")
	}
}

// Resume unfreezes a paused simulation.
func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running && r.paused {
		r.paused = false
		r.sim.Log.Event(r.sim.Clock, CatInfo, "simulation resumed")
	}
}

// Paused reports whether the simulation is paused.
func (r *Runner) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// Running reports whether the tick loop is live.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Stop performs an orderly shutdown: the tick loop drains, and the final
// report is flushed through the log. Idempotent when not running.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.paused = false
	close(r.stop)
	done := r.done
	r.mu.Unlock()

	<-done
	r.sim.snapshotStats()
	r.sim.Log.Event(r.sim.Clock, CatInfo, "simulation stopped")
}

// Report renders the current statistics without interrupting the loop.
func (r *Runner) Report() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.sim.Stats.(*Stats); ok {
		st.SimulatedMinutes = r.sim.Clock
		return st.Report()
	}
	return ""
}

// Snapshot captures the engine state while the loop is quiesced.
func (r *Runner) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Snapshot()
}
