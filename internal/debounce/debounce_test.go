package debounce

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGroup_CoalescesRapidSchedules(t *testing.T) {
	g := New(20 * time.Millisecond)
	var runs, last atomic.Int32
	for i := 1; i <= 5; i++ {
		v := int32(i)
		g.Schedule(context.Background(), "field", func(ctx context.Context) {
			runs.Add(1)
			last.Store(v)
		})
	}
	assert.True(t, g.Pending("field"))
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	g.Wait()
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(5), last.Load())
	assert.False(t, g.Pending("field"))
}

func TestGroup_KeysAreIndependent(t *testing.T) {
	g := New(5 * time.Millisecond)
	var runs atomic.Int32
	g.Schedule(context.Background(), "a", func(context.Context) { runs.Add(1) })
	g.Schedule(context.Background(), "b", func(context.Context) { runs.Add(1) })
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
	g.Wait()
}

func TestGroup_CloseCancels(t *testing.T) {
	g := New(time.Hour)
	var runs atomic.Int32
	g.Schedule(context.Background(), "a", func(context.Context) { runs.Add(1) })
	g.Close()
	g.Schedule(context.Background(), "a", func(context.Context) { runs.Add(1) })
	g.Wait()
	assert.Equal(t, int32(0), runs.Load())
	assert.False(t, g.Pending("a"))
}

func TestGroup_RunningTaskSeesCancel(t *testing.T) {
	g := New(time.Millisecond)
	started := make(chan struct{})
	cancelled := make(chan struct{})
	g.Schedule(context.Background(), "a", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	})
	<-started
	g.Cancel("a")
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatalf("running task was not cancelled")
	}
	g.Wait()
}
