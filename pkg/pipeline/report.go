package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Report summarises one batch run.
type Report struct {
	RunID     string    `json:"run_id"`
	TradeDate string    `json:"trade_date"`
	StartedAt time.Time `json:"started_at"`
	Finished  time.Time `json:"finished_at"`

	Tasks []*Task `json:"tasks"`

	Completed int `json:"completed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

func newReport(tradeDate string, symbols []string, startedAt time.Time) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		TradeDate: tradeDate,
		StartedAt: startedAt,
		Tasks:     make([]*Task, 0, len(symbols)),
	}
	for _, s := range symbols {
		r.Tasks = append(r.Tasks, newTask(s))
	}
	return r
}

// finalize stamps the end time and tallies terminal states.
func (r *Report) finalize(at time.Time) {
	r.Finished = at
	r.Completed, r.Skipped, r.Failed, r.Cancelled = 0, 0, 0, 0
	for _, t := range r.Tasks {
		switch t.Status {
		case StatusNotified:
			// Resumed tasks completed downstream off the stored record;
			// count them as skipped so the tally reflects upstream work.
			if t.Resumed {
				r.Skipped++
			} else {
				r.Completed++
			}
		case StatusSkippedExisting:
			r.Skipped++
		case StatusFailed:
			r.Failed++
		case StatusCancelled:
			r.Cancelled++
		}
	}
}

// FailedTasks returns the tasks that ended in failure.
func (r *Report) FailedTasks() []*Task {
	var out []*Task
	for _, t := range r.Tasks {
		if t.Status == StatusFailed {
			out = append(out, t)
		}
	}
	return out
}

// Decisions returns the advisor decisions of completed tasks.
func (r *Report) Decisions() []*Task {
	var out []*Task
	for _, t := range r.Tasks {
		if t.Status == StatusNotified && t.Decision != nil {
			out = append(out, t)
		}
	}
	return out
}

// Summary renders a one-line digest for logs and notifications.
func (r *Report) Summary() string {
	return fmt.Sprintf("run %s (%s): %d symbols, %d completed, %d skipped, %d failed, %d cancelled in %s",
		r.RunID, r.TradeDate, len(r.Tasks), r.Completed, r.Skipped, r.Failed, r.Cancelled,
		r.Finished.Sub(r.StartedAt).Round(time.Millisecond))
}
