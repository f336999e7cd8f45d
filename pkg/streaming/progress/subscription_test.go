package progress_test

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/loadflow/internal/testutil"
	lferrors "github.com/vnykmshr/loadflow/pkg/common/errors"
	"github.com/vnykmshr/loadflow/pkg/streaming/progress"
	"github.com/vnykmshr/loadflow/pkg/streaming/reactive"
)

func TestSubscribeDoesNotStartLoader(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	rec := testutil.NewRecorder[stringResult](0)

	progress.New[string](mock).Subscribe(rec)

	testutil.AssertEqual(t, rec.Subscribes(), 1)
	testutil.AssertEqual(t, mock.Starts(), 0)
	if rec.Subscription() == nil {
		t.Fatal("subscriber should receive its subscription synchronously")
	}
}

func TestRequestStartsLoaderOnce(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	rec := testutil.NewRecorder[stringResult](0)
	progress.New[string](mock).Subscribe(rec)

	sub := rec.Subscription()
	sub.Request(1)
	sub.Request(5)
	sub.Request(reactive.Unbounded)

	testutil.AssertEqual(t, mock.Starts(), 1)
}

func TestEachSubscriptionIsIndependent(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	pub := progress.New[string](mock)
	first := testutil.NewRecorder[stringResult](0)
	second := testutil.NewRecorder[stringResult](0)

	pub.Subscribe(first)
	pub.Subscribe(second)
	if first.Subscription() == second.Subscription() {
		t.Fatal("each Subscribe must create a new subscription")
	}

	first.Subscription().Request(1)
	mock.Succeed("one")
	second.Subscription().Request(1)
	mock.Succeed("two")

	testutil.AssertEqual(t, mock.Starts(), 2)
	testutil.AssertEqual(t, first.Items()[0], progress.Completed("one"))
	testutil.AssertEqual(t, second.Items()[0], progress.Completed("two"))
}

func TestCancelIsIdempotent(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	rec := testutil.NewRecorder[stringResult](1)
	progress.New[string](mock).Subscribe(rec)

	sub := rec.Subscription()
	sub.Cancel()
	sub.Cancel()
	sub.Cancel()

	testutil.AssertEqual(t, mock.Cancels(), 1)
}

func TestCancelSuppressesLaterCallbacks(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	rec := testutil.NewRecorder[stringResult](1)
	progress.New[string](mock).Subscribe(rec)

	mock.Progress(0.1)
	rec.Subscription().Cancel()
	mock.Progress(0.2)
	mock.Succeed("late")
	mock.Fail(errors.New("late"))

	testutil.AssertEqual(t, len(rec.Items()), 1)
	completions, failures := rec.Terminals()
	testutil.AssertEqual(t, completions+failures, 0)
	testutil.AssertEqual(t, mock.Cancels(), 1)
}

func TestCancelBeforeRequest(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	rec := testutil.NewRecorder[stringResult](0)
	progress.New[string](mock).Subscribe(rec)

	sub := rec.Subscription()
	sub.Cancel()
	testutil.AssertEqual(t, mock.Cancels(), 1)

	sub.Cancel()
	sub.Request(1)

	testutil.AssertEqual(t, mock.Starts(), 0)
	testutil.AssertEqual(t, mock.Cancels(), 1)
	completions, failures := rec.Terminals()
	testutil.AssertEqual(t, completions+failures, 0)
}

func TestCancelAfterInvalidDemandDoesNotReachLoader(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	rec := testutil.NewRecorder[stringResult](0)
	progress.New[string](mock).Subscribe(rec)

	rec.Subscription().Request(0)
	rec.Subscription().Cancel()

	testutil.AssertEqual(t, mock.Cancels(), 0)
	_, failures := rec.Terminals()
	testutil.AssertEqual(t, failures, 1)
}

func TestInvalidDemand(t *testing.T) {
	tests := []struct {
		name        string
		startFirst  bool
		demand      int64
		wantCancels int
	}{
		{"zero before start", false, 0, 0},
		{"negative before start", false, -3, 0},
		{"zero while active", true, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockLoader[string]()
			rec := testutil.NewRecorder[stringResult](0)
			progress.New[string](mock).Subscribe(rec)
			sub := rec.Subscription()

			if tt.startFirst {
				sub.Request(1)
			}
			sub.Request(tt.demand)
			sub.Request(1)

			if !errors.Is(rec.Err(), lferrors.ErrInvalidDemand) {
				t.Fatalf("err = %v, want ErrInvalidDemand", rec.Err())
			}
			testutil.AssertEqual(t, mock.Cancels(), tt.wantCancels)
			if !tt.startFirst {
				testutil.AssertEqual(t, mock.Starts(), 0)
			}

			// The loader finishing afterwards changes nothing.
			if tt.startFirst {
				mock.Succeed("ignored")
			}
			testutil.AssertEqual(t, len(rec.Items()), 0)
			_, failures := rec.Terminals()
			testutil.AssertEqual(t, failures, 1)
		})
	}
}

func TestCompletionWithNeitherResultNorErrorPanics(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	rec := testutil.NewRecorder[stringResult](1)
	progress.New[string](mock).Subscribe(rec)

	v := testutil.AssertPanics(t, func() { mock.Complete(nil, nil) })

	var violation *lferrors.ContractViolation
	err, ok := v.(error)
	if !ok || !errors.As(err, &violation) {
		t.Fatalf("panic value = %#v, want *ContractViolation", v)
	}
	if !errors.Is(err, lferrors.ErrLoaderContract) {
		t.Fatal("violation should match ErrLoaderContract")
	}
	completions, failures := rec.Terminals()
	testutil.AssertEqual(t, completions+failures, 0)
}

func TestCompletionWithBothResultAndErrorPanics(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	rec := testutil.NewRecorder[stringResult](1)
	progress.New[string](mock).Subscribe(rec)

	result := "half"
	v := testutil.AssertPanics(t, func() { mock.Complete(&result, errors.New("and broken")) })

	if err, ok := v.(error); !ok || !errors.Is(err, lferrors.ErrLoaderContract) {
		t.Fatalf("panic value = %#v, want loader contract violation", v)
	}
}

func TestCancelInsideSynchronousStart(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	mock.OnStart = func(l *testutil.MockLoader[string]) {
		l.Progress(0.1)
		l.Progress(0.2) // subscriber cancels on the first item
	}
	rec := testutil.NewRecorder[stringResult](0)
	rec.OnNextHook = func(r *testutil.Recorder[stringResult], _ stringResult) {
		r.Subscription().Cancel()
		// The loader is still inside Start; it must not be cancelled yet.
		testutil.AssertEqual(t, mock.Cancels(), 0)
	}
	progress.New[string](mock).Subscribe(rec)

	rec.Subscription().Request(1)

	testutil.AssertEqual(t, len(rec.Items()), 1)
	testutil.AssertEqual(t, mock.Cancels(), 1)
}

func TestSynchronousLoaderCompletesInsideRequest(t *testing.T) {
	loader := progress.LoaderFuncs[string]{
		StartFunc: func(onProgress progress.ProgressFunc, onComplete progress.CompletionFunc[string]) {
			onProgress(0.5)
			result := "now"
			onComplete(&result, nil)
		},
	}
	rec := testutil.NewRecorder[stringResult](reactive.Unbounded)

	progress.New[string](loader).Subscribe(rec)

	testutil.AssertEqual(t, len(rec.Items()), 2)
	completions, _ := rec.Terminals()
	testutil.AssertEqual(t, completions, 1)
	rec.Subscription().Cancel()
}

func TestReentrantRequestFromOnNext(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	rec := testutil.NewRecorder[stringResult](1)
	rec.OnNextHook = func(r *testutil.Recorder[stringResult], _ stringResult) {
		r.Subscription().Request(1)
	}
	progress.New[string](mock).Subscribe(rec)

	mock.Progress(0.3)
	mock.Progress(0.6)
	mock.Succeed("ok")

	testutil.AssertEqual(t, len(rec.Items()), 3)
	testutil.AssertEqual(t, mock.Starts(), 1)
}

// serialSubscriber fails the test if two signals overlap.
type serialSubscriber struct {
	t     *testing.T
	busy  atomic.Bool
	mu    sync.Mutex
	sub   reactive.Subscription
	count atomic.Int64
	terms atomic.Int64
}

func (s *serialSubscriber) enter() {
	if !s.busy.CompareAndSwap(false, true) {
		s.t.Error("signals overlapped")
	}
}

func (s *serialSubscriber) leave() { s.busy.Store(false) }

func (s *serialSubscriber) OnSubscribe(sub reactive.Subscription) {
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	sub.Request(reactive.Unbounded)
}

func (s *serialSubscriber) OnNext(stringResult) {
	s.enter()
	s.count.Add(1)
	s.leave()
}

func (s *serialSubscriber) OnError(error) { s.enter(); s.terms.Add(1); s.leave() }
func (s *serialSubscriber) OnComplete()   { s.enter(); s.terms.Add(1); s.leave() }

func TestConcurrentCallbacksAreSerialized(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	s := &serialSubscriber{t: t}
	progress.New[string](mock).Subscribe(s)

	const producers, perProducer = 8, 200
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				mock.Progress(0.5)
			}
		}()
	}
	wg.Wait()
	mock.Succeed("ok")

	testutil.AssertEqual(t, s.count.Load(), int64(producers*perProducer+1))
	testutil.AssertEqual(t, s.terms.Load(), int64(1))
}

func TestConcurrentCancelStopsDelivery(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	s := &serialSubscriber{t: t}
	progress.New[string](mock).Subscribe(s)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					mock.Progress(0.5)
				}
			}
		}()
	}

	testutil.Eventually(t, func() bool { return s.count.Load() > 100 }, time.Second, time.Millisecond)
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()
	sub.Cancel()
	atCancel := s.count.Load()

	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()
	mock.Succeed("late")

	// At most the one signal that was mid-dispatch when Cancel ran.
	if extra := s.count.Load() - atCancel; extra > 1 {
		t.Fatalf("%d items delivered after cancel", extra)
	}
	testutil.AssertEqual(t, s.terms.Load(), int64(0))
	testutil.AssertEqual(t, mock.Cancels(), 1)
}

func TestNewSafeRejectsNilLoader(t *testing.T) {
	_, err := progress.NewSafe[string](nil)
	if !lferrors.IsValidationError(err) {
		t.Fatalf("err = %v, want validation error", err)
	}

	var typedNil *testutil.MockLoader[string]
	_, err = progress.NewSafe[string](typedNil)
	testutil.AssertError(t, err)

	testutil.AssertPanics(t, func() { progress.New[string](nil) })
}

func TestConfigDefaults(t *testing.T) {
	pub := progress.NewWithConfig[string](testutil.NewMockLoader[string](), progress.Config{})
	testutil.AssertEqual(t, pub.Name(), "progress")

	named := progress.NewWithConfig[string](testutil.NewMockLoader[string](), progress.Config{Name: "exports"})
	testutil.AssertEqual(t, named.Name(), "exports")
}

func TestOutOfRangeProgressIsNormalized(t *testing.T) {
	mock := testutil.NewMockLoader[string]()
	rec := testutil.NewRecorder[stringResult](reactive.Unbounded)
	progress.New[string](mock).Subscribe(rec)

	mock.Progress(-0.5)
	mock.Progress(math.NaN())
	mock.Progress(0.4)
	mock.Progress(0.2)
	mock.Progress(1)
	mock.Progress(1.5)
	mock.Progress(0.4)
	mock.Succeed("ok")

	got := rec.Items()
	want := []stringResult{
		progress.Pending[string](0),
		progress.Pending[string](0.4),
		progress.Pending[string](0.4),
		progress.Completed("ok"),
	}
	testutil.AssertEqual(t, len(got), len(want))
	for i := range want {
		testutil.AssertEqual(t, got[i], want[i])
	}
}
