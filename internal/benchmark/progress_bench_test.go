package benchmark

import (
	"fmt"
	"sync"
	"testing"

	"github.com/vnykmshr/loadflow/pkg/streaming/progress"
	"github.com/vnykmshr/loadflow/pkg/streaming/reactive"
)

// syncLoader reports steps progress values and completes, all inside Start.
func syncLoader(steps int) progress.Loader[int] {
	return progress.LoaderFuncs[int]{
		StartFunc: func(onProgress progress.ProgressFunc, onComplete progress.CompletionFunc[int]) {
			for i := 0; i < steps; i++ {
				onProgress(float64(i) / float64(steps))
			}
			result := steps
			onComplete(&result, nil)
		},
	}
}

// fanInLoader reports from workers goroutines at once.
func fanInLoader(workers, perWorker int) progress.Loader[int] {
	return progress.LoaderFuncs[int]{
		StartFunc: func(onProgress progress.ProgressFunc, onComplete progress.CompletionFunc[int]) {
			go func() {
				var wg sync.WaitGroup
				for w := 0; w < workers; w++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						for i := 0; i < perWorker; i++ {
							onProgress(0.5)
						}
					}()
				}
				wg.Wait()
				result := workers * perWorker
				onComplete(&result, nil)
			}()
		},
	}
}

func drain(pub reactive.Publisher[progress.LoadResult[int]]) {
	done := make(chan struct{})
	reactive.Sink[progress.LoadResult[int]](pub, nil, func(error) { close(done) })
	<-done
}

// BenchmarkSubscriptionThroughput measures delivery of synchronous updates.
func BenchmarkSubscriptionThroughput(b *testing.B) {
	for _, size := range []int{10, 100, 1000, 10000} {
		pub := progress.New(syncLoader(size))

		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				drain(pub)
			}
		})
	}
}

// BenchmarkInstrumentedThroughput measures the same path with metrics on.
func BenchmarkInstrumentedThroughput(b *testing.B) {
	for _, size := range []int{100, 1000} {
		pub := progress.NewWithMetrics(syncLoader(size), "bench")

		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				drain(pub)
			}
		})
	}
}

// BenchmarkFanIn measures serialization of updates from concurrent goroutines.
func BenchmarkFanIn(b *testing.B) {
	for _, workers := range []int{1, 4, 16} {
		pub := progress.New(fanInLoader(workers, 100))

		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				drain(pub)
			}
		})
	}
}

// BenchmarkSubscribeCancel measures subscription setup and teardown.
func BenchmarkSubscribeCancel(b *testing.B) {
	pub := progress.New[int](progress.LoaderFuncs[int]{
		StartFunc: func(progress.ProgressFunc, progress.CompletionFunc[int]) {},
	})

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := reactive.Sink[progress.LoadResult[int]](pub, nil, nil)
		c.Cancel()
	}
}

func sizeLabel(size int) string {
	switch {
	case size >= 10000:
		return "10k"
	case size >= 1000:
		return "1k"
	case size >= 100:
		return "100"
	case size >= 10:
		return "10"
	default:
		return "1"
	}
}
