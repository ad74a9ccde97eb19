// Package pipeline runs the daily batch: a bounded pool of workers takes
// each symbol through resume check, acquisition, persistence, enrichment,
// advice and notification. Symbols fail independently; a cancelled context
// stops new work promptly and accounts for what never ran.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/HinaTK/daily-stock-analysis/pkg/advisor"
	"github.com/HinaTK/daily-stock-analysis/pkg/analyzer"
	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

const dateLayout = "2006-01-02"

// Fetcher acquires market data. *datasource.Manager satisfies this.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, kind datasource.Kind) (*datasource.Record, error)
}

// ResumeStore answers whether a symbol was already processed for a trade
// date and records completed acquisitions. Commit must make the record
// visible to Exists before it returns. LoadRecord returns the stored
// record for a resumed symbol, or nil when it cannot be recovered.
type ResumeStore interface {
	Exists(ctx context.Context, symbol, tradeDate string) (bool, error)
	Commit(ctx context.Context, tradeDate string, rec *datasource.Record) error
	LoadRecord(ctx context.Context, tradeDate, symbol string) (*datasource.Record, error)
}

// Analyst produces the trend read for an acquired record. Quote and chip
// are nil when the kind is disabled or its fetch failed.
type Analyst interface {
	Analyze(ctx context.Context, rec *datasource.Record, quote *datasource.Quote, chip *datasource.ChipDistribution) (*analyzer.Result, error)
}

// Adviser turns an analysis into a decision.
type Adviser interface {
	Advise(ctx context.Context, res *analyzer.Result) (*advisor.Decision, error)
}

// Notifier delivers one symbol's decision. Implementations swallow channel
// delivery errors; an error here fails the task.
type Notifier interface {
	NotifyDecision(ctx context.Context, task *Task) error
}

// Config tunes the orchestrator.
type Config struct {
	// Concurrency bounds the worker pool.
	Concurrency int `yaml:"concurrency"`
	// QuoteEnabled and ChipEnabled switch the auxiliary enrichment fetches.
	QuoteEnabled bool `yaml:"quote_enabled"`
	ChipEnabled  bool `yaml:"chip_enabled"`
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// Orchestrator coordinates one batch run over a symbol universe.
type Orchestrator struct {
	cfg      Config
	fetcher  Fetcher
	store    ResumeStore
	analyst  Analyst
	adviser  Adviser
	notifier Notifier

	now func() time.Time
}

// New wires an Orchestrator. Fetcher, store and analyst are required;
// adviser and notifier may be nil, in which case those stages are skipped.
func New(cfg Config, fetcher Fetcher, store ResumeStore, analyst Analyst, adviser Adviser, notifier Notifier) (*Orchestrator, error) {
	if fetcher == nil {
		return nil, errors.New("pipeline: fetcher is required")
	}
	if store == nil {
		return nil, errors.New("pipeline: resume store is required")
	}
	if analyst == nil {
		return nil, errors.New("pipeline: analyst is required")
	}
	return &Orchestrator{
		cfg:      cfg.withDefaults(),
		fetcher:  fetcher,
		store:    store,
		analyst:  analyst,
		adviser:  adviser,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// Run processes every symbol and always returns a complete report: the
// error is non-nil only when the context was cancelled before the batch
// finished.
func (o *Orchestrator) Run(ctx context.Context, symbols []string) (*Report, error) {
	tradeDate := o.now().Format(dateLayout)
	report := newReport(tradeDate, symbols, o.now())

	jobs := make(chan *Task)
	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				if ctx.Err() != nil {
					task.finish(StatusCancelled, o.now())
					continue
				}
				o.runTask(ctx, tradeDate, task)
			}
		}()
	}

	for _, task := range report.Tasks {
		jobs <- task
	}
	close(jobs)
	wg.Wait()

	report.finalize(o.now())
	logx.Infof("pipeline: %s", report.Summary())
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// runTask walks one symbol through the stages, recovering panics so a bad
// symbol cannot take down its siblings.
func (o *Orchestrator) runTask(ctx context.Context, tradeDate string, task *Task) {
	stage := StageResumeCheck
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("pipeline: panic processing %s at %s: %v", task.Symbol, stage, r)
			task.fail(stage, fmt.Errorf("panic: %v", r), o.now())
		}
	}()

	task.StartedAt = o.now()

	exists, err := o.store.Exists(ctx, task.Symbol, tradeDate)
	if err != nil {
		// A broken resume store must not stop the batch; reprocessing is
		// idempotent, skipping silently would lose a day.
		logx.Errorf("pipeline: resume check for %s: %v", task.Symbol, err)
	}
	if exists {
		// The day's record is already committed: skip acquisition and
		// persistence but still run the downstream stages off the stored
		// record, so a rerun produces the full analysis without touching
		// the upstream sources again.
		rec, lerr := o.store.LoadRecord(ctx, tradeDate, task.Symbol)
		if lerr != nil {
			logx.Errorf("pipeline: load stored record for %s: %v", task.Symbol, lerr)
		}
		if rec == nil || len(rec.Bars) == 0 {
			task.finish(StatusSkippedExisting, o.now())
			return
		}
		task.Resumed = true
		task.Record = rec
	} else {
		stage = StageAcquire
		task.Status = StatusAcquiring
		rec, err := o.fetcher.Fetch(ctx, task.Symbol, datasource.KindDaily)
		if err != nil {
			o.failOrCancel(ctx, task, stage, err)
			return
		}
		task.Record = rec
		task.Status = StatusAcquired

		stage = StagePersist
		if err := o.store.Commit(ctx, tradeDate, rec); err != nil {
			o.failOrCancel(ctx, task, stage, err)
			return
		}
	}

	stage = StageEnrich
	task.Status = StatusEnriching
	analysis, err := o.enrich(ctx, task)
	if err != nil {
		o.failOrCancel(ctx, task, stage, err)
		return
	}
	task.Analysis = analysis

	if o.adviser != nil {
		stage = StageAnalyze
		task.Status = StatusAnalyzing
		decision, err := o.adviser.Advise(ctx, analysis)
		if err != nil {
			o.failOrCancel(ctx, task, stage, err)
			return
		}
		task.Decision = decision
	}

	if o.notifier != nil {
		stage = StageNotify
		if err := o.notifier.NotifyDecision(ctx, task); err != nil {
			o.failOrCancel(ctx, task, stage, err)
			return
		}
	}

	task.finish(StatusNotified, o.now())
}

// enrich attaches the optional auxiliary kinds and runs the analyst. Quote
// and chip failures are logged and skipped: they refine the read but the
// daily history alone is sufficient. Resumed tasks analyze the stored
// record as-is so a rerun stays entirely off the upstream sources.
func (o *Orchestrator) enrich(ctx context.Context, task *Task) (*analyzer.Result, error) {
	if task.Resumed {
		return o.analyst.Analyze(ctx, task.Record, nil, nil)
	}

	var quote *datasource.Quote
	if o.cfg.QuoteEnabled {
		rec, err := o.fetcher.Fetch(ctx, task.Symbol, datasource.KindQuote)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Errorf("pipeline: quote for %s: %v", task.Symbol, err)
		} else {
			quote = rec.Quote
		}
	}

	var chip *datasource.ChipDistribution
	if o.cfg.ChipEnabled {
		rec, err := o.fetcher.Fetch(ctx, task.Symbol, datasource.KindChip)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Errorf("pipeline: chip distribution for %s: %v", task.Symbol, err)
		} else {
			chip = rec.Chip
		}
	}

	return o.analyst.Analyze(ctx, task.Record, quote, chip)
}

func (o *Orchestrator) failOrCancel(ctx context.Context, task *Task, stage Stage, err error) {
	if ctx.Err() != nil {
		task.finish(StatusCancelled, o.now())
		return
	}
	logx.Errorf("pipeline: %s failed at %s: %v", task.Symbol, stage, err)
	task.fail(stage, err, o.now())
}
