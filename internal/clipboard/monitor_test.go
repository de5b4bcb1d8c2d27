package clipboard

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice holds mutable text content, standing in for the OS clipboard.
type fakeDevice struct {
	mu         sync.Mutex
	text       string
	acquireErr error

	writtenText []string
}

func (d *fakeDevice) setText(s string) {
	d.mu.Lock()
	d.text = s
	d.mu.Unlock()
}

func (d *fakeDevice) setAcquireErr(err error) {
	d.mu.Lock()
	d.acquireErr = err
	d.mu.Unlock()
}

func (d *fakeDevice) Acquire() (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.acquireErr != nil {
		return nil, d.acquireErr
	}
	return &fakeHandle{text: d.text}, nil
}

func (d *fakeDevice) WriteText(s string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writtenText = append(d.writtenText, s)
	d.text = s
	return nil
}

func (d *fakeDevice) WriteImage([]byte) error { return nil }

const tickInterval = 5 * time.Millisecond

// waitForCount polls until the counter reaches want or the deadline hits.
func waitForCount(t *testing.T, counter *atomic.Int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if counter.Load() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("callback count stuck at %d, want %d", counter.Load(), want)
}

func TestMonitorFiresOncePerChange(t *testing.T) {
	device := &fakeDevice{text: "hello"}
	m := NewMonitor(device)
	defer m.Stop()

	var count atomic.Int64
	var lastSnap atomic.Value
	m.Start(tickInterval, func(s *Snapshot) {
		count.Add(1)
		lastSnap.Store(s)
	})

	waitForCount(t, &count, 1)

	// Unchanged content across many ticks must not re-fire.
	time.Sleep(10 * tickInterval)
	assert.Equal(t, int64(1), count.Load())

	snap := lastSnap.Load().(*Snapshot)
	assert.Equal(t, "hello", snap.PlainText)

	device.setText("world")
	waitForCount(t, &count, 2)
}

func TestMonitorNoCallbackOnEmptyClipboard(t *testing.T) {
	device := &fakeDevice{}
	m := NewMonitor(device)
	defer m.Stop()

	var count atomic.Int64
	m.Start(tickInterval, func(*Snapshot) { count.Add(1) })

	time.Sleep(10 * tickInterval)
	assert.Equal(t, int64(0), count.Load())
}

func TestMonitorPauseResume(t *testing.T) {
	device := &fakeDevice{text: "one"}
	m := NewMonitor(device)
	defer m.Stop()

	var count atomic.Int64
	m.Start(tickInterval, func(*Snapshot) { count.Add(1) })
	waitForCount(t, &count, 1)

	m.Pause()
	// Give the in-flight tick time to drain before changing content.
	time.Sleep(5 * tickInterval)
	device.setText("two")
	time.Sleep(10 * tickInterval)
	assert.Equal(t, int64(1), count.Load(), "no callback may fire while paused")

	m.Resume()
	// The still-pending change is detected exactly once after resume.
	waitForCount(t, &count, 2)
	time.Sleep(10 * tickInterval)
	assert.Equal(t, int64(2), count.Load())
}

func TestMonitorStartWhileRunningIsNoOp(t *testing.T) {
	device := &fakeDevice{text: "hello"}
	m := NewMonitor(device)
	defer m.Stop()

	var count atomic.Int64
	m.Start(tickInterval, func(*Snapshot) { count.Add(1) })
	require.True(t, m.Running())

	// Second Start must not spawn a second worker.
	m.Start(tickInterval, func(*Snapshot) { count.Add(100) })

	waitForCount(t, &count, 1)
	time.Sleep(10 * tickInterval)
	assert.Equal(t, int64(1), count.Load())
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	device := &fakeDevice{text: "hello"}
	m := NewMonitor(device)

	var count atomic.Int64
	m.Start(tickInterval, func(*Snapshot) { count.Add(1) })
	waitForCount(t, &count, 1)

	m.Stop()
	m.Stop()
	assert.False(t, m.Running())

	device.setText("after stop")
	time.Sleep(10 * tickInterval)
	assert.Equal(t, int64(1), count.Load())
}

func TestMonitorConcurrentStartStopLeavesNoWorker(t *testing.T) {
	// A Stop racing a Start must always find the worker's done channel;
	// otherwise the worker leaks and keeps firing after the final Stop.
	device := &fakeDevice{text: "hello"}
	m := NewMonitor(device)

	var count atomic.Int64
	for i := 0; i < 50; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Start(tickInterval, func(*Snapshot) { count.Add(1) })
		}()
		go func() {
			defer wg.Done()
			m.Stop()
		}()
		wg.Wait()
		m.Stop()
		require.False(t, m.Running())
	}

	// Any stranded worker would still observe this change.
	settled := count.Load()
	device.setText("after final stop")
	time.Sleep(10 * tickInterval)
	assert.Equal(t, settled, count.Load())
}

func TestMonitorRestartAfterStop(t *testing.T) {
	device := &fakeDevice{text: "first"}
	m := NewMonitor(device)
	defer m.Stop()

	var count atomic.Int64
	m.Start(tickInterval, func(*Snapshot) { count.Add(1) })
	waitForCount(t, &count, 1)
	m.Stop()

	device.setText("second")
	m.Start(tickInterval, func(*Snapshot) { count.Add(1) })
	waitForCount(t, &count, 2)
}

func TestMonitorSurvivesAcquireFailure(t *testing.T) {
	device := &fakeDevice{text: "hello"}
	device.setAcquireErr(errors.New("clipboard busy"))

	m := NewMonitor(device)
	defer m.Stop()

	var count atomic.Int64
	m.Start(tickInterval, func(*Snapshot) { count.Add(1) })

	time.Sleep(10 * tickInterval)
	assert.Equal(t, int64(0), count.Load())

	device.setAcquireErr(nil)
	waitForCount(t, &count, 1)
}

func TestMonitorCallbackMayTouchMonitorState(t *testing.T) {
	// The last-hash lock is released before the callback runs, so a
	// callback interacting with monitor state must not deadlock.
	device := &fakeDevice{text: "hello"}
	m := NewMonitor(device)
	defer m.Stop()

	var count atomic.Int64
	m.Start(tickInterval, func(s *Snapshot) {
		m.RememberHash(s.Hash)
		m.Pause()
		m.Resume()
		count.Add(1)
	})

	waitForCount(t, &count, 1)
}

func TestMonitorRememberHashSuppressesCapture(t *testing.T) {
	device := &fakeDevice{}
	m := NewMonitor(device)
	defer m.Stop()

	// Prime the cell the way paste-back does, then place that content.
	snap := NewTextSnapshot("pasted content")
	m.RememberHash(snap.Hash)

	var count atomic.Int64
	m.Start(tickInterval, func(*Snapshot) { count.Add(1) })

	device.setText("pasted content")
	time.Sleep(10 * tickInterval)
	assert.Equal(t, int64(0), count.Load())

	device.setText("genuinely new")
	waitForCount(t, &count, 1)
}
