package loader

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/loadflow/pkg/common/validation"
)

const everyPrefix = "@every "

// interval fires at a fixed period. Unlike cron.Every it keeps sub-second
// precision.
type interval time.Duration

func (i interval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(i))
}

// Every returns a schedule that fires every d. It panics if d is not positive.
func Every(d time.Duration) cron.Schedule {
	if err := validation.ValidatePositiveDuration("loader", "interval", d); err != nil {
		panic(err)
	}
	return interval(d)
}

// ParseSchedule parses "@every <duration>" with sub-second precision, and
// anything else as a standard five-field cron spec or descriptor.
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, everyPrefix) {
		d, err := time.ParseDuration(strings.TrimSpace(spec[len(everyPrefix):]))
		if err != nil {
			return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
		}
		if err := validation.ValidatePositiveDuration("loader", "schedule", d); err != nil {
			return nil, err
		}
		return interval(d), nil
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return schedule, nil
}
