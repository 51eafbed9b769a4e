package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsAggregator/internal/ports"
)

// CronScheduler runs named jobs on standard five-field cron expressions.
type CronScheduler struct {
	cron *cron.Cron
	loc  *time.Location
	now  func() time.Time

	mu        sync.RWMutex
	runCtx    context.Context
	schedules map[string]cron.Schedule
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler in loc. Overlapping runs of one job are skipped.
func NewCronScheduler(loc *time.Location, logger *log.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	cronLogger := cron.DiscardLogger
	if logger != nil {
		cronLogger = cron.PrintfLogger(logger)
	}
	return &CronScheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		loc:       loc,
		now:       time.Now,
		runCtx:    context.Background(),
		schedules: map[string]cron.Schedule{},
	}
}

// AddJob registers job under name. Jobs receive the context passed to Start.
func (c *CronScheduler) AddJob(name, spec string, job func(context.Context)) error {
	if job == nil {
		return fmt.Errorf("job %s is nil", name)
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", name, spec, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.schedules[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	if _, err := c.cron.AddFunc(spec, func() {
		c.mu.RLock()
		ctx := c.runCtx
		c.mu.RUnlock()
		job(ctx)
	}); err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", name, spec, err)
	}
	c.schedules[name] = sched
	return nil
}

// Next returns the next activation of a registered job after the current time.
func (c *CronScheduler) Next(name string) (time.Time, bool) {
	c.mu.RLock()
	sched, ok := c.schedules[name]
	c.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	return sched.Next(c.now().In(c.loc)), true
}

// Start begins dispatching jobs in the background.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()
	c.cron.Start()
	return nil
}

// Stop halts dispatching and waits for running jobs or ctx expiry.
func (c *CronScheduler) Stop(ctx context.Context) error {
	done := c.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
