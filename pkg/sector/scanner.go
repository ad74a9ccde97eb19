package sector

import (
	"context"
	"errors"
	"sort"

	"github.com/zeromicro/go-zero/core/logx"
)

// BoardSource is the fetching surface the Scanner drives, satisfied by
// *Fetcher.
type BoardSource interface {
	TopBoards(ctx context.Context, kind Kind, limit int, indexChange float64) ([]Board, error)
	Constituents(ctx context.Context, board Board) (Board, []Constituent, error)
	IndexChange(ctx context.Context) (float64, error)
}

var _ BoardSource = (*Fetcher)(nil)

// Scanner runs the daily board sweep: rank boards, pull constituents,
// score each board and link the watchlist to its strongest homes.
type Scanner struct {
	source   BoardSource
	analyzer *Analyzer
	logger   logx.Logger

	maxBoards  int
	maxLeaders int
}

// NewScanner constructs a Scanner. maxBoards caps how many boards of
// each kind are scored per sweep.
func NewScanner(source BoardSource, analyzer *Analyzer, maxBoards int) *Scanner {
	if maxBoards <= 0 {
		maxBoards = 10
	}
	return &Scanner{
		source:     source,
		analyzer:   analyzer,
		logger:     logx.WithContext(context.Background()),
		maxBoards:  maxBoards,
		maxLeaders: 5,
	}
}

// Sweep is one full board pass.
type Sweep struct {
	Hot   []*Analysis `json:"hot"`
	Views []View      `json:"views,omitempty"`
}

// Run ranks and scores the day's hot boards of the given kinds and
// links watched symbols to the boards they belong to. A board whose
// constituent pull fails is still scored from its list row.
func (s *Scanner) Run(ctx context.Context, kinds []Kind, watchlist []string) (*Sweep, error) {
	indexChange, err := s.source.IndexChange(ctx)
	if err != nil {
		s.logger.Errorf("sector sweep: index snapshot unavailable, relative strength degrades to raw change: %v", err)
		indexChange = 0
	}

	watched := make(map[string]bool, len(watchlist))
	for _, code := range watchlist {
		watched[code] = true
	}

	sweep := &Sweep{}
	for _, kind := range kinds {
		boards, err := s.source.TopBoards(ctx, kind, s.maxBoards, indexChange)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Errorf("sector sweep: %s board list: %v", kind, err)
			continue
		}

		for _, board := range boards {
			enriched, members, err := s.source.Constituents(ctx, board)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.Errorf("sector sweep: constituents of %s (%s): %v", board.Name, board.Code, err)
				enriched, members = board, nil
			}

			analysis := s.analyzer.Analyze(enriched)
			for i, m := range members {
				if i < s.maxLeaders && m.ChangePct > 0 {
					analysis.Leaders = append(analysis.Leaders, m)
				}
				if watched[m.Code] {
					sweep.Views = append(sweep.Views, LinkView(m.Code, m.Name, m.ChangePct, analysis))
				}
			}
			sweep.Hot = append(sweep.Hot, analysis)
		}
	}

	if len(sweep.Hot) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("sector: no boards scored")
	}
	sort.SliceStable(sweep.Hot, func(i, j int) bool {
		return sweep.Hot[i].Score > sweep.Hot[j].Score
	})
	return sweep, nil
}
