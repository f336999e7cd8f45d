package loader

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/loadflow/internal/testutil"
	"github.com/vnykmshr/loadflow/pkg/streaming/progress"
)

func TestTaskSuccess(t *testing.T) {
	task := NewTask(func(ctx context.Context, report progress.ProgressFunc) (int, error) {
		report(0.2)
		report(0.6)
		return 42, nil
	})
	c := newCapture[int]()

	task.Start(c.onProgress, c.onComplete)
	<-c.done
	task.Wait()

	got, result, err := c.snapshot()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, *result, 42)
	testutil.AssertEqual(t, len(got), 2)
	testutil.AssertEqual(t, got[1], 0.6)
}

func TestTaskNormalizesProgress(t *testing.T) {
	task := NewTask(func(ctx context.Context, report progress.ProgressFunc) (string, error) {
		for _, p := range []float64{-0.5, math.NaN(), 0.4, 0.3, 0.4, 1, 1.2, 0.9} {
			report(p)
		}
		return "ok", nil
	})
	c := newCapture[string]()

	task.Start(c.onProgress, c.onComplete)
	<-c.done
	task.Wait()

	got, _, _ := c.snapshot()
	want := []float64{0, 0.4, 0.4, 0.9}
	testutil.AssertEqual(t, len(got), len(want))
	for i := range want {
		testutil.AssertEqual(t, got[i], want[i])
	}
}

func TestTaskFailure(t *testing.T) {
	boom := errors.New("boom")
	task := NewTask(func(ctx context.Context, report progress.ProgressFunc) (string, error) {
		return "", boom
	})
	c := newCapture[string]()

	task.Start(c.onProgress, c.onComplete)
	<-c.done
	task.Wait()

	_, result, err := c.snapshot()
	testutil.AssertEqual(t, err, boom)
	if result != nil {
		t.Fatal("failed task must not carry a result")
	}
}

func TestTaskPanicBecomesError(t *testing.T) {
	task := NewTask(func(ctx context.Context, report progress.ProgressFunc) (string, error) {
		panic("kaboom")
	})
	c := newCapture[string]()

	task.Start(c.onProgress, c.onComplete)
	<-c.done
	task.Wait()

	_, _, err := c.snapshot()
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "task panicked: kaboom") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskCancelStopsContext(t *testing.T) {
	started := make(chan struct{})
	task := NewTask(func(ctx context.Context, report progress.ProgressFunc) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})
	c := newCapture[string]()

	task.Start(c.onProgress, c.onComplete)
	<-started
	task.Cancel()
	task.Wait()

	_, _, err := c.snapshot()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestTaskParentContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	task := NewTaskWithContext(parent, func(ctx context.Context, report progress.ProgressFunc) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(testutil.TestTimeout):
			return "late", nil
		}
	})
	c := newCapture[string]()

	task.Start(c.onProgress, c.onComplete)
	cancel()
	<-c.done
	task.Wait()

	_, _, err := c.snapshot()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestTaskDropsLateReports(t *testing.T) {
	var report progress.ProgressFunc
	task := NewTask(func(ctx context.Context, r progress.ProgressFunc) (string, error) {
		report = r
		return "ok", nil
	})
	c := newCapture[string]()

	task.Start(c.onProgress, c.onComplete)
	<-c.done
	task.Wait()

	report(0.5)

	got, _, _ := c.snapshot()
	testutil.AssertEqual(t, len(got), 0)
}

func TestNewTaskPanicsOnNil(t *testing.T) {
	testutil.AssertPanics(t, func() { NewTask[string](nil) })
}
