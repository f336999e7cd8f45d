package loader

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/loadflow/pkg/common/validation"
	"github.com/vnykmshr/loadflow/pkg/streaming/progress"
)

// PacedConfig describes a scripted load.
type PacedConfig[R any] struct {
	// Values are progress checkpoints emitted one per tick. They must lie in
	// [0, 1] and never decrease. The first value of 1 ends the checkpoints;
	// it is not emitted as progress.
	Values []float64

	// Result is delivered on the tick after the last checkpoint.
	Result R

	// Err, if set, is delivered instead of Result.
	Err error

	// Schedule decides when each tick happens.
	Schedule cron.Schedule
}

// Paced is a progress.Loader that replays checkpoints on a schedule.
type Paced[R any] struct {
	config      PacedConfig[R]
	checkpoints []float64

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ progress.Loader[struct{}] = (*Paced[struct{}])(nil)

// NewPaced creates a Paced loader. It panics if config is invalid.
func NewPaced[R any](config PacedConfig[R]) *Paced[R] {
	p, err := NewPacedSafe(config)
	if err != nil {
		panic(err)
	}
	return p
}

// NewPacedSafe creates a Paced loader, returning an error if config is invalid.
func NewPacedSafe[R any](config PacedConfig[R]) (*Paced[R], error) {
	if err := validation.ValidateNotNil("paced", "schedule", config.Schedule); err != nil {
		return nil, err
	}
	for i, v := range config.Values {
		if err := validation.ValidateProgress("paced", fmt.Sprintf("values[%d]", i), v); err != nil {
			return nil, err
		}
	}
	if err := validation.ValidateNonDecreasing("paced", "values", config.Values); err != nil {
		return nil, err
	}

	checkpoints := make([]float64, 0, len(config.Values))
	for _, v := range config.Values {
		if v >= 1 {
			break
		}
		checkpoints = append(checkpoints, v)
	}

	return &Paced[R]{config: config, checkpoints: checkpoints}, nil
}

// Start implements progress.Loader.
func (p *Paced[R]) Start(onProgress progress.ProgressFunc, onComplete progress.CompletionFunc[R]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running() {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stop, p.done, onProgress, onComplete)
}

// Cancel implements progress.Loader. It returns without waiting for the
// ticker goroutine; use Wait for that.
func (p *Paced[R]) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

// Wait blocks until the current run, if any, has returned.
func (p *Paced[R]) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (p *Paced[R]) running() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *Paced[R]) run(stop, done chan struct{}, onProgress progress.ProgressFunc, onComplete progress.CompletionFunc[R]) {
	defer close(done)

	tick := time.Now()
	for i := 0; i <= len(p.checkpoints); i++ {
		tick = p.config.Schedule.Next(tick)
		timer := time.NewTimer(time.Until(tick))
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		select {
		case <-stop:
			return
		default:
		}

		if i < len(p.checkpoints) {
			onProgress(p.checkpoints[i])
			continue
		}
		if p.config.Err != nil {
			onComplete(nil, p.config.Err)
			return
		}
		result := p.config.Result
		onComplete(&result, nil)
	}
}
