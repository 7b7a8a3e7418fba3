// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"

	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions     []model.SessionAggregate
	ModalityAggs []model.ModalityAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	modalityAggs, err := st.ListModalityAggregatesForSessions(ctx, ids)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Sessions:     sessions,
		ModalityAggs: modalityAggs,
	}, nil
}
