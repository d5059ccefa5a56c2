// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

func TestLocalFireTime(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatal(err)
	}

	// 09:00 in Shanghai is 01:00 UTC (no DST in China).
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	fire, err := LocalFireTime("09:00", "Asia/Shanghai", now)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 8, 20, 9, 0, 0, 0, shanghai)
	if !fire.Equal(want) {
		t.Errorf("fire = %v, want %v", fire, want)
	}
	if fire.Location() != now.Location() {
		t.Errorf("fire location = %v, want host-local", fire.Location())
	}
	if fire.UTC().Hour() != 1 {
		t.Errorf("fire UTC hour = %d, want 1", fire.UTC().Hour())
	}
}

func TestLocalFireTimeInvalidInputs(t *testing.T) {
	now := time.Now()
	if _, err := LocalFireTime("09:00", "Not/AZone", now); err == nil {
		t.Error("expected error for bad timezone")
	}
	if _, err := LocalFireTime("25:99", "UTC", now); err == nil {
		t.Error("expected error for bad time")
	}
	if _, err := LocalFireTime("9am", "UTC", now); err == nil {
		t.Error("expected error for non-HH:MM time")
	}
}

func TestValidate(t *testing.T) {
	report := Validate(types.ScheduleConfig{DailyTime: "09:00", Timezone: "Asia/Shanghai"})
	if !report.ConfigValid || !report.TimezoneValid || !report.TimeFormatValid {
		t.Errorf("report = %+v", report)
	}

	report = Validate(types.ScheduleConfig{DailyTime: "nonsense", Timezone: "Mars/Olympus"})
	if report.ConfigValid || report.TimezoneValid || report.TimeFormatValid {
		t.Errorf("report = %+v", report)
	}
	if len(report.Errors) != 2 {
		t.Errorf("errors = %v", report.Errors)
	}
}

func newTestScheduler(t *testing.T, cfg types.ScheduleConfig, job Job) *Scheduler {
	t.Helper()
	s, err := New(cfg, job, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(types.ScheduleConfig{
		DailyTime: "bad", Timezone: "UTC", Enabled: true,
	}, func(context.Context) error { return nil }, nil)
	if err == nil {
		t.Error("expected error for invalid daily time")
	}
}

func TestWeekendSkipPreservesLastRun(t *testing.T) {
	var runs atomic.Int64
	s := newTestScheduler(t, types.ScheduleConfig{
		DailyTime: "09:00", Timezone: "UTC", Enabled: true,
	}, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	// Friday: the job runs and is recorded.
	s.now = func() time.Time { return time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC) }
	s.fire()
	if runs.Load() != 1 {
		t.Fatalf("runs = %d, want 1", runs.Load())
	}
	friday := s.Status().LastRun
	if friday == nil || !friday.Success {
		t.Fatalf("last run = %+v", friday)
	}

	// Saturday: skipped, Friday's record survives.
	s.now = func() time.Time { return time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC) }
	s.fire()
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1 after weekend skip", runs.Load())
	}
	if got := s.Status().LastRun; got != friday {
		t.Errorf("last run changed across a skipped weekend firing")
	}
}

func TestWeekendUsesBusinessTimezone(t *testing.T) {
	var runs atomic.Int64
	s := newTestScheduler(t, types.ScheduleConfig{
		DailyTime: "09:00", Timezone: "Asia/Shanghai", Enabled: true,
	}, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	// Friday 23:00 UTC is already Saturday morning in Shanghai.
	s.now = func() time.Time { return time.Date(2026, 8, 21, 23, 0, 0, 0, time.UTC) }
	s.fire()
	if runs.Load() != 0 {
		t.Errorf("runs = %d, want 0 for a Shanghai Saturday", runs.Load())
	}
}

func TestRunNowBypassesWeekendSkip(t *testing.T) {
	var runs atomic.Int64
	s := newTestScheduler(t, types.ScheduleConfig{
		DailyTime: "09:00", Timezone: "UTC", Enabled: true,
	}, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	// Sunday.
	s.now = func() time.Time { return time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC) }
	s.RunNow(context.Background())
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}
	if s.Status().LastRun == nil {
		t.Error("expected RunNow to record the run")
	}
}

func TestRunNowRecordsFailure(t *testing.T) {
	s := newTestScheduler(t, types.ScheduleConfig{
		DailyTime: "09:00", Timezone: "UTC", Enabled: true,
	}, func(context.Context) error {
		return fmt.Errorf("workflow exploded")
	})

	s.RunNow(context.Background())
	last := s.Status().LastRun
	if last == nil || last.Success {
		t.Fatalf("last run = %+v, want recorded failure", last)
	}
	if len(last.Errors) != 1 {
		t.Errorf("errors = %v", last.Errors)
	}
}

func TestStatusDisabled(t *testing.T) {
	s := newTestScheduler(t, types.ScheduleConfig{
		DailyTime: "09:00", Timezone: "UTC", Enabled: false,
	}, func(context.Context) error { return nil })

	status := s.Status()
	if status.Enabled || status.Running {
		t.Errorf("status = %+v", status)
	}
	if status.NextRun != nil {
		t.Errorf("next run = %v, want nil while disarmed", status.NextRun)
	}
}

func TestStartStopAndNextRun(t *testing.T) {
	s := newTestScheduler(t, types.ScheduleConfig{
		DailyTime: "09:00", Timezone: "UTC", Enabled: true,
	}, func(context.Context) error { return nil })

	s.Start()
	status := s.Status()
	if !status.Running {
		t.Error("expected running after Start")
	}
	if status.NextRun == nil {
		t.Error("expected a next-run instant while armed")
	}
	if status.LocalFireTime == "" {
		t.Error("expected a local fire time")
	}

	s.Stop()
	if s.Status().Running {
		t.Error("expected stopped after Stop")
	}
}

func TestUpdateReplacesSchedule(t *testing.T) {
	s := newTestScheduler(t, types.ScheduleConfig{
		DailyTime: "09:00", Timezone: "UTC", Enabled: true,
	}, func(context.Context) error { return nil })
	s.Start()

	if err := s.Update(types.ScheduleConfig{
		DailyTime: "18:30", Timezone: "Asia/Shanghai", Enabled: true,
	}); err != nil {
		t.Fatal(err)
	}

	status := s.Status()
	if status.DailyTime != "18:30" || status.Timezone != "Asia/Shanghai" {
		t.Errorf("status = %+v", status)
	}
	if !status.Running {
		t.Error("expected scheduler to keep running across an update")
	}
}

func TestUpdateRejectsInvalidConfig(t *testing.T) {
	s := newTestScheduler(t, types.ScheduleConfig{
		DailyTime: "09:00", Timezone: "UTC", Enabled: true,
	}, func(context.Context) error { return nil })

	if err := s.Update(types.ScheduleConfig{
		DailyTime: "bad", Timezone: "UTC", Enabled: true,
	}); err == nil {
		t.Error("expected error for invalid update")
	}

	// The old schedule survives a rejected update.
	if got := s.Status().DailyTime; got != "09:00" {
		t.Errorf("daily time = %q, want 09:00", got)
	}
}

func TestUpdateToDisabledDisarms(t *testing.T) {
	s := newTestScheduler(t, types.ScheduleConfig{
		DailyTime: "09:00", Timezone: "UTC", Enabled: true,
	}, func(context.Context) error { return nil })
	s.Start()

	if err := s.Update(types.ScheduleConfig{
		DailyTime: "09:00", Timezone: "UTC", Enabled: false,
	}); err != nil {
		t.Fatal(err)
	}
	status := s.Status()
	if status.Running {
		t.Error("expected disarmed scheduler to stop")
	}
	if status.NextRun != nil {
		t.Errorf("next run = %v, want nil", status.NextRun)
	}
}
