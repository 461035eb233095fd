// Package debounce runs keyed tasks after a quiet period. Scheduling a key
// again before its task started cancels the pending run; a task already
// running sees its context cancelled.
package debounce

import (
	"context"
	"sync"
	"time"
)

// Group owns the pending tasks of one editor tree.
type Group struct {
	mu     sync.Mutex
	delay  time.Duration
	tasks  map[string]*task
	closed bool
	wg     sync.WaitGroup
}

type task struct {
	timer  *time.Timer
	cancel context.CancelFunc
}

// New returns a Group waiting delay before running a task.
func New(delay time.Duration) *Group {
	return &Group{delay: delay, tasks: map[string]*task{}}
}

// Schedule replaces any pending or running task for key with fn. fn runs on
// its own goroutine once the delay elapsed without another Schedule for key.
func (g *Group) Schedule(parent context.Context, key string, fn func(ctx context.Context)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.stopLocked(key)
	ctx, cancel := context.WithCancel(parent)
	t := &task{cancel: cancel}
	g.wg.Add(1)
	t.timer = time.AfterFunc(g.delay, func() {
		defer g.wg.Done()
		defer cancel()
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
		g.mu.Lock()
		if g.tasks[key] == t {
			delete(g.tasks, key)
		}
		g.mu.Unlock()
	})
	g.tasks[key] = t
}

// Cancel drops the task scheduled for key, if any.
func (g *Group) Cancel(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked(key)
}

// Pending reports whether a task for key is scheduled or running.
func (g *Group) Pending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tasks[key]
	return ok
}

// Close cancels every task; later Schedule calls are ignored.
func (g *Group) Close() {
	g.mu.Lock()
	g.closed = true
	for k := range g.tasks {
		g.stopLocked(k)
	}
	g.mu.Unlock()
}

// Wait blocks until every started or scheduled task has returned. Tasks
// stopped before they fired count as returned.
func (g *Group) Wait() { g.wg.Wait() }

func (g *Group) stopLocked(key string) {
	t, ok := g.tasks[key]
	if !ok {
		return
	}
	t.cancel()
	if t.timer.Stop() {
		// the timer never fired, so its func will not call Done
		g.wg.Done()
	}
	delete(g.tasks, key)
}
