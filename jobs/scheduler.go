package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type Schedule struct {
	Spec string
	Job  cron.Job
}

// NewScheduler registers every schedule on a UTC cron. The caller starts and stops it.
func NewScheduler(schedules ...Schedule) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	for _, s := range schedules {
		if _, err := c.AddJob(s.Spec, s.Job); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", s.Spec, err)
		}
	}
	return c, nil
}
