package clipboard

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZhanYiHui06/EveryPaste/internal/util"
)

// CaptureFunc is invoked synchronously on the monitor's worker goroutine
// for each newly detected clipboard snapshot. A slow callback directly
// delays the next detection tick; if the clipboard changes twice during one
// callback, only the later content is observed on the following tick.
type CaptureFunc func(*Snapshot)

// Monitor polls the system clipboard in a single background goroutine,
// suppresses repeats of the most recently emitted fingerprint, and invokes
// a capture callback on change.
type Monitor struct {
	device Device
	probe  *Probe

	running atomic.Bool
	paused  atomic.Bool

	// hashMu guards lastHash only. It is held for the instant of the
	// compare-and-update and never across the capture callback.
	hashMu   sync.Mutex
	lastHash string

	stateMu sync.Mutex
	done    chan struct{}
}

// NewMonitor returns a stopped monitor reading from device.
func NewMonitor(device Device) *Monitor {
	return &Monitor{
		device: device,
		probe:  NewProbe(),
	}
}

// Start spawns the single worker goroutine. Calling Start while the
// monitor is already running is a logged no-op.
func (m *Monitor) Start(interval time.Duration, onCapture CaptureFunc) {
	// The running flip and the done swap happen under one lock so a
	// concurrent Stop always finds the channel for the worker it is
	// stopping.
	m.stateMu.Lock()
	if !m.running.CompareAndSwap(false, true) {
		m.stateMu.Unlock()
		slog.Warn("clipboard monitor already running")
		return
	}
	m.done = make(chan struct{})
	done := m.done
	m.stateMu.Unlock()

	go m.loop(interval, onCapture, done)
}

// Stop signals the worker to exit after its current sleep. Idempotent.
func (m *Monitor) Stop() {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	if !m.running.CompareAndSwap(true, false) {
		return
	}
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
}

// Pause suppresses future ticks without stopping the worker. An in-flight
// tick always completes.
func (m *Monitor) Pause() {
	m.paused.Store(true)
}

// Resume re-enables ticks, effective on the next one.
func (m *Monitor) Resume() {
	m.paused.Store(false)
}

// Running reports whether the worker goroutine is active.
func (m *Monitor) Running() bool {
	return m.running.Load()
}

// RememberHash primes the repeat-suppression cell. Callers writing to the
// clipboard themselves use it, together with Pause/Resume, to avoid
// re-capturing their own write.
func (m *Monitor) RememberHash(hash string) {
	m.hashMu.Lock()
	m.lastHash = hash
	m.hashMu.Unlock()
}

func (m *Monitor) loop(interval time.Duration, onCapture CaptureFunc, done chan struct{}) {
	slog.Info("clipboard monitor started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			slog.Info("clipboard monitor stopped")
			return
		case <-ticker.C:
			// A paused tick still consumes one full interval.
			if m.paused.Load() {
				continue
			}
			m.tick(onCapture)
		}
	}
}

func (m *Monitor) tick(onCapture CaptureFunc) {
	// A fresh handle every tick; a cached handle can go stale.
	handle, err := m.device.Acquire()
	if err != nil {
		slog.Error("failed to acquire clipboard handle", "err", err)
		return
	}

	snap := m.probe.Capture(handle)
	if snap == nil {
		return
	}

	m.hashMu.Lock()
	if snap.Hash == m.lastHash {
		m.hashMu.Unlock()
		return
	}
	m.lastHash = snap.Hash
	m.hashMu.Unlock()

	slog.Debug("new clipboard content detected",
		"type", snap.Type, "hash", util.ShortHash(snap.Hash))
	onCapture(snap)
}
