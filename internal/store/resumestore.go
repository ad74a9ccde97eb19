// Package store persists committed acquisition records and answers the
// pipeline's "was this symbol already processed today" question.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"github.com/HinaTK/daily-stock-analysis/internal/cache"
	"github.com/HinaTK/daily-stock-analysis/internal/model"
	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
	"github.com/HinaTK/daily-stock-analysis/pkg/pipeline"
)

var _ pipeline.ResumeStore = (*Store)(nil)

// historyDepth bounds how many rows a database-rebuilt record carries.
const historyDepth = 120

// RedisMarker is the subset of the go-zero redis client the store needs.
type RedisMarker interface {
	SetexCtx(ctx context.Context, key, value string, seconds int) error
	ExistsCtx(ctx context.Context, key string) (bool, error)
	GetCtx(ctx context.Context, key string) (string, error)
}

var _ RedisMarker = (*redis.Redis)(nil)

// Store keeps Postgres as the source of truth and mirrors each commit into a
// day-scoped redis mark so reruns skip without touching the database.
type Store struct {
	bars model.DailyBarsModel
	rds  RedisMarker
}

// New builds a Store. The redis marker is optional; without it every Exists
// check goes to the database.
func New(bars model.DailyBarsModel, rds RedisMarker) (*Store, error) {
	if bars == nil {
		return nil, errors.New("store: daily bars model is required")
	}
	return &Store{bars: bars, rds: rds}, nil
}

// Exists reports whether a record for the symbol was already committed for
// the trade date. Redis answers first; a database hit backfills the mark.
func (s *Store) Exists(ctx context.Context, symbol, tradeDate string) (bool, error) {
	key := cache.ResumeRecordKey(tradeDate, symbol)
	if s.rds != nil {
		ok, err := s.rds.ExistsCtx(ctx, key)
		if err != nil {
			logx.WithContext(ctx).Errorf("store: resume mark lookup %s: %v", key, err)
		} else if ok {
			return true, nil
		}
	}
	found, err := s.bars.ExistsForRun(ctx, symbol, tradeDate)
	if err != nil {
		return false, fmt.Errorf("store: exists %s %s: %w", symbol, tradeDate, err)
	}
	if found && s.rds != nil {
		s.mark(ctx, key, &datasource.Record{Symbol: symbol, Kind: datasource.KindDaily})
	}
	return found, nil
}

// Commit persists the record's newest bar and sets the resume mark. The row
// keeps the bar's own date and records the run date separately, so Exists
// still finds it when the newest bar lags the run. The insert is idempotent,
// committing the same day twice is harmless.
func (s *Store) Commit(ctx context.Context, tradeDate string, rec *datasource.Record) error {
	if rec == nil {
		return errors.New("store: nil record")
	}
	bar := rec.Latest()
	if bar == nil {
		return fmt.Errorf("store: record for %s has no bars", rec.Symbol)
	}
	row := &model.DailyBars{
		Symbol:    rec.Symbol,
		TradeDate: bar.Date,
		RunDate:   tradeDate,
		Open:      bar.Open,
		High:      bar.High,
		Low:       bar.Low,
		Close:     bar.Close,
		Volume:    bar.Volume,
		Amount:    bar.Amount,
		PctChg:    bar.PctChg,
		Source:    rec.Source,
	}
	if err := s.bars.Insert(ctx, row); err != nil {
		return fmt.Errorf("store: insert %s %s: %w", rec.Symbol, bar.Date, err)
	}
	if s.rds != nil {
		s.mark(ctx, cache.ResumeRecordKey(tradeDate, rec.Symbol), rec)
	}
	return nil
}

// LoadRecord returns the record cached at commit time. When the mark is
// absent, unreadable or carries no bars, the record is rebuilt from the
// database history so a resumed symbol can still run its downstream stages.
func (s *Store) LoadRecord(ctx context.Context, tradeDate, symbol string) (*datasource.Record, error) {
	if s.rds != nil {
		raw, err := s.rds.GetCtx(ctx, cache.ResumeRecordKey(tradeDate, symbol))
		if err != nil {
			logx.WithContext(ctx).Errorf("store: load resume mark %s %s: %v", symbol, tradeDate, err)
		} else if raw != "" {
			var rec datasource.Record
			if err := msgpack.Unmarshal([]byte(raw), &rec); err != nil {
				logx.WithContext(ctx).Errorf("store: decode resume mark %s %s: %v", symbol, tradeDate, err)
			} else if len(rec.Bars) > 0 {
				return &rec, nil
			}
		}
	}
	return s.recordFromRows(ctx, symbol)
}

// recordFromRows reassembles a record from the persisted bar history.
func (s *Store) recordFromRows(ctx context.Context, symbol string) (*datasource.Record, error) {
	rows, err := s.bars.ListRecentBySymbol(ctx, symbol, historyDepth)
	if err != nil {
		return nil, fmt.Errorf("store: list history %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	bars := make([]datasource.DailyBar, 0, len(rows))
	for _, row := range rows {
		bars = append(bars, datasource.DailyBar{
			Date:   row.TradeDate,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
			Amount: row.Amount,
			PctChg: row.PctChg,
		})
	}
	if normalized, err := datasource.NormalizeDaily(bars); err == nil {
		bars = normalized
	}
	return &datasource.Record{
		Symbol: symbol,
		Kind:   datasource.KindDaily,
		Source: rows[len(rows)-1].Source,
		Bars:   bars,
	}, nil
}

// mark mirrors the record into redis. Failures are logged, never fatal; the
// database row already guarantees correctness.
func (s *Store) mark(ctx context.Context, key string, rec *datasource.Record) {
	payload, err := msgpack.Marshal(rec)
	if err != nil {
		logx.WithContext(ctx).Errorf("store: encode resume mark %s: %v", key, err)
		return
	}
	ttl := int(cache.ResumeTTL().Seconds())
	if err := s.rds.SetexCtx(ctx, key, string(payload), ttl); err != nil {
		logx.WithContext(ctx).Errorf("store: set resume mark %s: %v", key, err)
	}
}
