package pipeline

import (
	"fmt"
	"time"

	"github.com/HinaTK/daily-stock-analysis/pkg/advisor"
	"github.com/HinaTK/daily-stock-analysis/pkg/analyzer"
	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

// Status is a task's lifecycle state. Terminal states are Notified,
// SkippedExisting, Failed and Cancelled; every task ends in exactly one.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAcquiring Status = "acquiring"
	StatusAcquired  Status = "acquired"
	StatusEnriching Status = "enriching"
	StatusAnalyzing Status = "analyzing"

	StatusNotified        Status = "notified"
	StatusSkippedExisting Status = "skipped_existing"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
)

// Stage names the pipeline step a failure occurred in.
type Stage string

const (
	StageResumeCheck Stage = "resume_check"
	StageAcquire     Stage = "acquire"
	StagePersist     Stage = "persist"
	StageEnrich      Stage = "enrich"
	StageAnalyze     Stage = "analyze"
	StageNotify      Stage = "notify"
)

// Task tracks one symbol through a batch run. A task is owned by a single
// worker goroutine; it is only read by others after the run joins.
type Task struct {
	Symbol string `json:"symbol"`
	Status Status `json:"status"`

	// Resumed marks a task whose record came from the resume store rather
	// than a fresh acquisition.
	Resumed bool `json:"resumed,omitempty"`

	// FailedStage and Err are set when Status is failed.
	FailedStage Stage  `json:"failed_stage,omitempty"`
	Err         error  `json:"-"`
	ErrText     string `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	Record   *datasource.Record `json:"-"`
	Analysis *analyzer.Result   `json:"analysis,omitempty"`
	Decision *advisor.Decision  `json:"decision,omitempty"`
}

func newTask(symbol string) *Task {
	return &Task{Symbol: symbol, Status: StatusPending}
}

// Terminal reports whether the task has reached a final state.
func (t *Task) Terminal() bool {
	switch t.Status {
	case StatusNotified, StatusSkippedExisting, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

func (t *Task) fail(stage Stage, err error, at time.Time) {
	t.Status = StatusFailed
	t.FailedStage = stage
	t.Err = err
	if err != nil {
		t.ErrText = err.Error()
	}
	t.FinishedAt = at
}

func (t *Task) finish(status Status, at time.Time) {
	t.Status = status
	t.FinishedAt = at
}

func (t *Task) String() string {
	if t.Status == StatusFailed {
		return fmt.Sprintf("%s: failed at %s: %v", t.Symbol, t.FailedStage, t.Err)
	}
	return fmt.Sprintf("%s: %s", t.Symbol, t.Status)
}
