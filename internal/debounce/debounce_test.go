package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_BurstCoalescesToLastValue(t *testing.T) {
	rec := &recorder{}
	d := New(50*time.Millisecond, rec.record)

	for _, v := range []string{"c", "ca", "cak", "cake"} {
		d.Push(v)
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, d.Pending())
	assert.Empty(t, rec.snapshot(), "nothing emitted inside the window")

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	// No further emissions arrive after settling.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"cake"}, rec.snapshot())
	assert.False(t, d.Pending())
}

func TestDebouncer_SeparateBurstsEmitEach(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.record)

	d.Push("bnb")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	d.Push("usdt")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"bnb", "usdt"}, rec.snapshot())
}

func TestDebouncer_StopDiscardsPending(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.record)

	d.Push("cake")
	d.Stop()
	assert.False(t, d.Pending())

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	// Usable after Stop.
	d.Push("wbnb")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"wbnb"}, rec.snapshot())
}

func TestDebouncer_StaleTimerIsDropped(t *testing.T) {
	rec := &recorder{}
	d := New(time.Hour, rec.record)

	d.Push("old")
	d.mu.Lock()
	stale := d.gen
	d.mu.Unlock()
	d.Push("new")

	// Simulate the first timer firing after it was superseded.
	d.fire(stale, "old")
	assert.Empty(t, rec.snapshot())
	assert.True(t, d.Pending())

	d.Stop()
}

func TestDebouncer_Delay(t *testing.T) {
	d := New(600*time.Millisecond, func(int) {})
	assert.Equal(t, 600*time.Millisecond, d.Delay())
}
