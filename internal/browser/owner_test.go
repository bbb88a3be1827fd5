package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"playchat/internal/config"
)

func newTestController() *Controller {
	return NewControllerWithDriver(config.BrowserConfig{Engine: "playwright"}, func(string) (Driver, error) {
		return nil, errors.New("no driver in this test")
	})
}

func stopController(t *testing.T, c *Controller) {
	t.Helper()
	if _, err := c.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestDispatchSerializesConcurrentCallers(t *testing.T) {
	c := newTestController()
	defer stopController(t, c)

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				entry := fmt.Sprintf("g%d:%d", g, i)
				_, err := c.run(context.Background(), func() (string, error) {
					c.record(entry)
					return "", nil
				})
				if err != nil {
					t.Errorf("dispatch from goroutine %d: %v", g, err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	commands, err := c.Commands(context.Background())
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	if len(commands) != goroutines*perGoroutine {
		t.Fatalf("expected %d log entries, got %d", goroutines*perGoroutine, len(commands))
	}

	// Each submitter issued its entries sequentially, so per-submitter order
	// must survive in the total order.
	next := make([]int, goroutines)
	for _, entry := range commands {
		var g, i int
		parts := strings.SplitN(strings.TrimPrefix(entry, "g"), ":", 2)
		if len(parts) != 2 {
			t.Fatalf("corrupted log entry %q", entry)
		}
		g, _ = strconv.Atoi(parts[0])
		i, _ = strconv.Atoi(parts[1])
		if i != next[g] {
			t.Fatalf("goroutine %d entries reordered: expected index %d, got %d", g, next[g], i)
		}
		next[g]++
	}
}

func TestReentrantDispatchDoesNotDeadlock(t *testing.T) {
	c := newTestController()
	defer stopController(t, c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		out, err := c.run(context.Background(), func() (string, error) {
			// Dispatching from the owner thread itself must execute inline.
			return c.run(context.Background(), func() (string, error) {
				return "inner", nil
			})
		})
		if err != nil {
			t.Errorf("re-entrant dispatch: %v", err)
		}
		if out != "inner" {
			t.Errorf("expected %q, got %q", "inner", out)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("re-entrant dispatch deadlocked")
	}
}

func TestOwnerRestartsAfterDeath(t *testing.T) {
	c := newTestController()
	defer stopController(t, c)

	first := c.ensureWorker()
	first.stop(time.Second)
	if first.alive() {
		t.Fatal("worker still alive after stop")
	}

	out, err := c.run(context.Background(), func() (string, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("dispatch after owner death: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("expected %q, got %q", "recovered", out)
	}

	c.mu.Lock()
	second := c.worker
	c.mu.Unlock()
	if second == first {
		t.Fatal("expected a fresh worker after the first one died")
	}
}

func TestCallerTimeoutWhileOwnerBusy(t *testing.T) {
	c := newTestController()
	defer stopController(t, c)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = c.run(context.Background(), func() (string, error) {
			close(started)
			<-release
			return "", nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := c.run(ctx, func() (string, error) { return "", nil })
	if !errors.Is(err, ErrOwnerUnresponsive) {
		t.Fatalf("expected ErrOwnerUnresponsive, got %v", err)
	}

	close(release)

	// The owner drains the wedge and keeps serving.
	out, err := c.run(context.Background(), func() (string, error) {
		return "after", nil
	})
	if err != nil {
		t.Fatalf("dispatch after wedge cleared: %v", err)
	}
	if out != "after" {
		t.Fatalf("expected %q, got %q", "after", out)
	}
}

func TestShutdownStopsOwner(t *testing.T) {
	c := newTestController()

	if _, err := c.run(context.Background(), func() (string, error) { return "", nil }); err != nil {
		t.Fatalf("warm-up dispatch: %v", err)
	}

	out, err := c.Shutdown(context.Background())
	if err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if out != "Shutdown complete." {
		t.Fatalf("expected %q, got %q", "Shutdown complete.", out)
	}

	c.mu.Lock()
	w := c.worker
	c.mu.Unlock()
	if w.alive() {
		t.Fatal("owner thread still alive after shutdown")
	}
}

func TestOperationPanicDoesNotKillOwner(t *testing.T) {
	c := newTestController()
	defer stopController(t, c)

	_, err := c.run(context.Background(), func() (string, error) {
		panic("boom")
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic to surface as an error, got %v", err)
	}

	out, err := c.run(context.Background(), func() (string, error) {
		return "still here", nil
	})
	if err != nil {
		t.Fatalf("dispatch after panic: %v", err)
	}
	if out != "still here" {
		t.Fatalf("expected %q, got %q", "still here", out)
	}
}
