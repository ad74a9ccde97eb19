package svc

import (
	"context"
	"errors"

	"github.com/HinaTK/daily-stock-analysis/pkg/analyzer"
	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
	"github.com/HinaTK/daily-stock-analysis/pkg/pipeline"
)

// analystAdapter bridges the rule analyzer into the pipeline's Analyst
// interface, folding the optional quote snapshot and chip distribution
// into the result.
type analystAdapter struct {
	analyzer *analyzer.Analyzer
}

var _ pipeline.Analyst = (*analystAdapter)(nil)

func (a *analystAdapter) Analyze(ctx context.Context, rec *datasource.Record, quote *datasource.Quote, chip *datasource.ChipDistribution) (*analyzer.Result, error) {
	if rec == nil {
		return nil, errors.New("svc: nil record")
	}
	res, err := a.analyzer.Analyze(rec.Symbol, rec.Bars)
	if err != nil {
		return nil, err
	}
	if quote != nil {
		a.analyzer.ApplyQuote(res, quote)
	}
	if chip != nil {
		a.analyzer.ApplyChip(res, chip)
	}
	return res, nil
}
