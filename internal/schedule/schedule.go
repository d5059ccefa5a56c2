// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule arms the recurring daily digest run. The configured
// fire time is expressed in the business timezone; the scheduler
// converts it to a host-local cron entry and skips weekend firings.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

const timeLayout = "15:04"

// Job is the unit of work the scheduler triggers.
type Job func(ctx context.Context) error

// Scheduler owns the cron entry and the run bookkeeping.
type Scheduler struct {
	job Job
	log *slog.Logger

	mu      sync.Mutex
	cfg     types.ScheduleConfig
	cron    *cron.Cron
	entryID cron.EntryID
	running bool
	lastRun *types.RunRecord

	// now is swapped out by tests.
	now func() time.Time
}

// New validates the configuration and arms the scheduler when enabled.
// Start must still be called to begin firing.
func New(cfg types.ScheduleConfig, job Job, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{job: job, log: log, cfg: cfg, now: time.Now}

	if cfg.Enabled {
		if err := s.arm(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LocalFireTime converts a business-timezone HH:MM fire time to the
// corresponding host-local instant on now's day.
func LocalFireTime(dailyTime, timezone string, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	parsed, err := time.Parse(timeLayout, dailyTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid daily time %q (want HH:MM): %w", dailyTime, err)
	}

	nowBiz := now.In(loc)
	fire := time.Date(nowBiz.Year(), nowBiz.Month(), nowBiz.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, loc)
	return fire.In(now.Location()), nil
}

// arm creates the cron runner and registers the daily entry. Caller
// holds no lock; arm is only reached from New and Update.
func (s *Scheduler) arm() error {
	fire, err := LocalFireTime(s.cfg.DailyTime, s.cfg.Timezone, s.now())
	if err != nil {
		return err
	}

	c := cron.New()
	spec := fmt.Sprintf("%d %d * * *", fire.Minute(), fire.Hour())
	id, err := c.AddFunc(spec, s.fire)
	if err != nil {
		return fmt.Errorf("registering cron entry %q: %w", spec, err)
	}

	s.cron = c
	s.entryID = id
	s.log.Info("schedule armed",
		"daily_time", s.cfg.DailyTime, "timezone", s.cfg.Timezone,
		"local_time", fire.Format(timeLayout))
	return nil
}

// fire runs on every cron trigger. Weekends in the business timezone are
// skipped without touching the last-run record, so a Monday status still
// shows Friday's outcome.
func (s *Scheduler) fire() {
	if s.isWeekend(s.now()) {
		s.log.Info("weekend in business timezone, skipping scheduled run")
		return
	}
	s.execute(context.Background())
}

// isWeekend reports whether t falls on Saturday or Sunday in the
// business timezone. An unloadable timezone falls back to host-local;
// Validate catches that misconfiguration up front.
func (s *Scheduler) isWeekend(t time.Time) bool {
	s.mu.Lock()
	tz := s.cfg.Timezone
	s.mu.Unlock()

	if loc, err := time.LoadLocation(tz); err == nil {
		t = t.In(loc)
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// execute runs the job and records the outcome.
func (s *Scheduler) execute(ctx context.Context) {
	started := s.now()
	s.log.Info("scheduled run starting")

	record := &types.RunRecord{StartTime: started, Success: true}
	if err := s.job(ctx); err != nil {
		record.Success = false
		record.Errors = append(record.Errors, err.Error())
		s.log.Error("scheduled run failed", "err", err)
	} else {
		s.log.Info("scheduled run finished", "duration", s.now().Sub(started).String())
	}

	s.mu.Lock()
	s.lastRun = record
	s.mu.Unlock()
}

// RunNow triggers the job immediately, bypassing the weekend skip, and
// records the outcome like a scheduled run.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.execute(ctx)
}

// Start begins firing. A disabled or already-running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil || s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.log.Info("scheduler started")
}

// Stop halts firing and waits for an in-flight run to drain, bounded by
// a minute so shutdown cannot hang on a stuck job.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cron == nil || !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	drained := c.Stop()
	select {
	case <-drained.Done():
	case <-time.After(time.Minute):
		s.log.Warn("scheduler stop timed out waiting for in-flight run")
	}
	s.log.Info("scheduler stopped")
}

// Update applies a new schedule configuration: stop, discard the old
// entry, re-arm from the new settings, and restart if it was running.
func (s *Scheduler) Update(cfg types.ScheduleConfig) error {
	if report := Validate(cfg); !report.ConfigValid {
		return fmt.Errorf("invalid schedule config: %v", report.Errors)
	}

	s.mu.Lock()
	wasRunning := s.running
	s.mu.Unlock()

	s.Stop()

	s.mu.Lock()
	s.cfg = cfg
	s.cron = nil
	s.entryID = 0
	s.mu.Unlock()

	if cfg.Enabled {
		if err := s.arm(); err != nil {
			return err
		}
		if wasRunning {
			s.Start()
		}
	}
	return nil
}

// Validate checks a schedule configuration without arming anything.
func Validate(cfg types.ScheduleConfig) types.ScheduleReport {
	report := types.ScheduleReport{ConfigValid: true, TimezoneValid: true, TimeFormatValid: true}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		report.TimezoneValid = false
		report.ConfigValid = false
		report.Errors = append(report.Errors, fmt.Sprintf("invalid timezone %q", cfg.Timezone))
	}
	if _, err := time.Parse(timeLayout, cfg.DailyTime); err != nil {
		report.TimeFormatValid = false
		report.ConfigValid = false
		report.Errors = append(report.Errors, fmt.Sprintf("invalid daily time %q (want HH:MM)", cfg.DailyTime))
	}
	return report
}

// Status reports the current schedule state.
func (s *Scheduler) Status() types.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := types.ScheduleStatus{
		Enabled:   s.cfg.Enabled,
		Running:   s.running,
		DailyTime: s.cfg.DailyTime,
		Timezone:  s.cfg.Timezone,
		LastRun:   s.lastRun,
	}

	if s.cron != nil {
		if fire, err := LocalFireTime(s.cfg.DailyTime, s.cfg.Timezone, s.now()); err == nil {
			status.LocalFireTime = fire.Format(timeLayout)
		}
	}
	if s.cron != nil && s.running {
		if entry := s.cron.Entry(s.entryID); entry.Valid() {
			next := entry.Next
			status.NextRun = &next
		}
	}
	return status
}
