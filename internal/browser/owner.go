package browser

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// ErrOwnerUnresponsive is returned when a caller gives up waiting on the
// owner thread (its context expired or the owner exited mid-dispatch).
var ErrOwnerUnresponsive = errors.New("owner thread unresponsive")

// task carries one operation from a caller to the owner thread. The reply
// channel is buffered so the owner never blocks handing back a result, even
// if the caller has already abandoned the wait.
type task struct {
	op    func() (string, error)
	reply chan taskResult
}

type taskResult struct {
	out string
	err error
}

// worker is the owner thread: a goroutine locked to its OS thread for the
// lifetime of the loop. Driver, browser and page handles are bound to the
// thread that created them, so every touch of those handles happens inside
// this loop (or inline on this thread via the gate's re-entrancy path).
type worker struct {
	tasks    chan task
	quit     chan struct{}
	stopped  chan struct{}
	tid      atomic.Int64
	quitOnce sync.Once
}

func startWorker() *worker {
	w := &worker{
		tasks:   make(chan task),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *worker) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Capturing our own identity is the loop's first action, so the gate's
	// inline check can never see a half-initialized owner.
	w.tid.Store(int64(unix.Gettid()))
	defer close(w.stopped)

	for {
		select {
		case <-w.quit:
			return
		case t := <-w.tasks:
			t.reply <- runTask(t.op)
		}
	}
}

// runTask executes one operation, converting a panic into a failure result so
// the loop survives anything an operation throws at it.
func runTask(op func() (string, error)) (res taskResult) {
	defer func() {
		if r := recover(); r != nil {
			res = taskResult{err: fmt.Errorf("operation panicked: %v", r)}
		}
	}()
	out, err := op()
	return taskResult{out: out, err: err}
}

// alive reports whether the loop is still running.
func (w *worker) alive() bool {
	select {
	case <-w.stopped:
		return false
	default:
		return true
	}
}

// owns reports whether the calling goroutine is executing on the owner
// thread. Only the locked owner goroutine can run on that OS thread, so a
// matching tid means we are inside an operation already being executed by
// the loop.
func (w *worker) owns() bool {
	return int64(unix.Gettid()) == w.tid.Load()
}

// stop signals the loop and waits for it to exit, up to join. When called
// from the owner thread itself (shutdown dispatched through the gate) it
// skips the join: the loop exits right after the current operation returns.
func (w *worker) stop(join time.Duration) {
	w.quitOnce.Do(func() { close(w.quit) })
	if w.owns() {
		return
	}
	select {
	case <-w.stopped:
	case <-time.After(join):
	}
}

// run is the dispatch gate. Calls already on the owner thread execute inline
// (enqueueing to ourselves would deadlock); everything else is handed to the
// loop and awaited. A caller whose context expires gets ErrOwnerUnresponsive;
// the operation still completes on the owner and its reply is dropped.
func (w *worker) run(ctx context.Context, op func() (string, error)) (string, error) {
	if w.owns() {
		return op()
	}

	t := task{op: op, reply: make(chan taskResult, 1)}
	select {
	case w.tasks <- t:
	case <-w.stopped:
		return "", fmt.Errorf("%w: owner thread exited", ErrOwnerUnresponsive)
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrOwnerUnresponsive, ctx.Err())
	}

	select {
	case res := <-t.reply:
		return res.out, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrOwnerUnresponsive, ctx.Err())
	}
}
