// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// WorkflowResult accumulates the outcome of one daily workflow run. The
// workflow never aborts on per-record failures; everything a caller needs
// to judge the run lands here.
type WorkflowResult struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Success is true when papers were fetched, translation had no
	// failures, and the digest went out (or was deliberately skipped).
	// Retention sweep problems are recorded in Errors but never fail
	// the run.
	Success bool `json:"success"`

	PapersFetched       int  `json:"papers_fetched"`
	PapersTranslated    int  `json:"papers_translated"`
	TranslationFailed   int  `json:"translation_failed"`
	TranslationSkipped  int  `json:"translation_skipped"`
	EmailSent           bool `json:"email_sent"`
	PapersSwept         int  `json:"papers_swept"`
	SummariesSwept      int  `json:"summaries_swept"`

	// Errors collects step-level error messages in occurrence order.
	Errors []string `json:"errors,omitempty"`
}

// AddError appends a step-level error message.
func (r *WorkflowResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// RunRecord captures one scheduler-driven (or manual) workflow invocation.
type RunRecord struct {
	StartTime time.Time `json:"start_time"`
	Success   bool      `json:"success"`
	Errors    []string  `json:"errors,omitempty"`
}

// ScheduleStatus is a read-only snapshot of the scheduler state.
type ScheduleStatus struct {
	Enabled   bool   `json:"enabled"`
	Running   bool   `json:"running"`
	DailyTime string `json:"daily_time"`
	Timezone  string `json:"timezone"`

	// LocalFireTime is the armed host-local "HH:MM", empty when disarmed.
	LocalFireTime string `json:"local_fire_time,omitempty"`

	NextRun *time.Time `json:"next_run,omitempty"`
	LastRun *RunRecord `json:"last_run,omitempty"`
}

// ScheduleReport is the structured validity report for a schedule
// configuration, surfaced at setup time instead of a silent failure.
type ScheduleReport struct {
	ConfigValid     bool     `json:"config_valid"`
	TimezoneValid   bool     `json:"timezone_valid"`
	TimeFormatValid bool     `json:"time_format_valid"`
	Errors          []string `json:"errors,omitempty"`
}
