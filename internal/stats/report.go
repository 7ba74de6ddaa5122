package stats

import (
	"context"

	"github.com/verte-zerg/qflip/internal/coin"
	"github.com/verte-zerg/qflip/internal/model"
	"github.com/verte-zerg/qflip/internal/session"
	"github.com/verte-zerg/qflip/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Flips    []coin.FlipResult
	Sessions []model.SessionAggregate
	Stats    session.Statistics
	Bias     Bias
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	flips, err := st.ListFlips(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	sessions, err := st.ListSessions(ctx, model.StatsConfig{Since: cfg.Since})
	if err != nil {
		return Report{}, err
	}
	bias, err := AnalyzeBias(flips)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Flips:    flips,
		Sessions: sessions,
		Stats:    Summarize(flips),
		Bias:     bias,
	}, nil
}
