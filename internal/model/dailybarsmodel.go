package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlc"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ DailyBarsModel = (*customDailyBarsModel)(nil)

const cacheDailyBarsSymbolTradeDatePrefix = "cache:stockd:dailyBars:symbol:tradeDate:"

const dailyBarsRows = "id, symbol, trade_date, open, high, low, close, volume, amount, pct_chg, source, run_date, created_at"

type (
	// DailyBarsModel is an interface to be customized, add more methods here,
	// and implement the added methods in customDailyBarsModel.
	DailyBarsModel interface {
		Insert(ctx context.Context, data *DailyBars) error
		FindOneBySymbolTradeDate(ctx context.Context, symbol, tradeDate string) (*DailyBars, error)
		ExistsForRun(ctx context.Context, symbol, runDate string) (bool, error)
		ListRecentBySymbol(ctx context.Context, symbol string, limit int) ([]DailyBars, error)
	}

	customDailyBarsModel struct {
		sqlc.CachedConn
		table string
	}

	// DailyBars maps one row of the daily_bars table.
	DailyBars struct {
		Id        int64     `db:"id"`
		Symbol    string    `db:"symbol"`
		TradeDate string    `db:"trade_date"` // YYYY-MM-DD
		Open      float64   `db:"open"`
		High      float64   `db:"high"`
		Low       float64   `db:"low"`
		Close     float64   `db:"close"`
		Volume    float64   `db:"volume"`
		Amount    float64   `db:"amount"`
		PctChg    float64   `db:"pct_chg"`
		Source    string    `db:"source"`
		RunDate   string    `db:"run_date"` // run that committed the row, YYYY-MM-DD
		CreatedAt time.Time `db:"created_at"`
	}
)

// NewDailyBarsModel returns a model for the daily_bars table.
func NewDailyBarsModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) DailyBarsModel {
	return &customDailyBarsModel{
		CachedConn: sqlc.NewConn(conn, c, opts...),
		table:      "daily_bars",
	}
}

func (m *customDailyBarsModel) rowKey(symbol, tradeDate string) string {
	return fmt.Sprintf("%s%s:%s", cacheDailyBarsSymbolTradeDatePrefix, symbol, tradeDate)
}

// Insert writes one bar. Re-inserting a (symbol, trade_date) already on file
// keeps the bar and only refreshes run_date, so reruns of the same day stay
// idempotent while the row stays visible to the rerun's resume check.
func (m *customDailyBarsModel) Insert(ctx context.Context, data *DailyBars) error {
	query := fmt.Sprintf(`INSERT INTO %s
		(symbol, trade_date, open, high, low, close, volume, amount, pct_chg, source, run_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET run_date = EXCLUDED.run_date`, m.table)
	_, err := m.ExecCtx(ctx, func(ctx context.Context, conn sqlx.SqlConn) (sql.Result, error) {
		return conn.ExecCtx(ctx, query,
			data.Symbol, data.TradeDate, data.Open, data.High, data.Low,
			data.Close, data.Volume, data.Amount, data.PctChg, data.Source, data.RunDate)
	}, m.rowKey(data.Symbol, data.TradeDate))
	return err
}

func (m *customDailyBarsModel) FindOneBySymbolTradeDate(ctx context.Context, symbol, tradeDate string) (*DailyBars, error) {
	var resp DailyBars
	query := fmt.Sprintf("SELECT %s FROM %s WHERE symbol = $1 AND trade_date = $2 LIMIT 1", dailyBarsRows, m.table)
	err := m.QueryRowCtx(ctx, &resp, m.rowKey(symbol, tradeDate), func(ctx context.Context, conn sqlx.SqlConn, v interface{}) error {
		return conn.QueryRowCtx(ctx, v, query, symbol, tradeDate)
	})
	switch err {
	case nil:
		return &resp, nil
	case sqlc.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

// ExistsForRun reports whether the symbol was committed for the run date.
// The newest bar can lag the run date (holiday, stale upstream), so matching
// either column keeps the resume check consistent with what Commit wrote.
func (m *customDailyBarsModel) ExistsForRun(ctx context.Context, symbol, runDate string) (bool, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE symbol = $1 AND (trade_date = $2 OR run_date = $2)", m.table)
	if err := m.QueryRowNoCacheCtx(ctx, &count, query, symbol, runDate); err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListRecentBySymbol returns up to limit bars for a symbol, oldest first.
func (m *customDailyBarsModel) ListRecentBySymbol(ctx context.Context, symbol string, limit int) ([]DailyBars, error) {
	query := fmt.Sprintf(`SELECT %s FROM (
			SELECT %s FROM %s WHERE symbol = $1 ORDER BY trade_date DESC LIMIT $2
		) recent ORDER BY trade_date ASC`, dailyBarsRows, dailyBarsRows, m.table)
	var rows []DailyBars
	if err := m.QueryRowsNoCacheCtx(ctx, &rows, query, symbol, limit); err != nil {
		return nil, err
	}
	return rows, nil
}
