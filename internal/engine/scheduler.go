package engine

import (
	"context"
	"errors"
	"fmt"

	"dockersentinel/internal/rules"

	"golang.org/x/sync/errgroup"
)

// Scheduler audits independent files in parallel. Reports come back in input
// order whatever the completion order.
type Scheduler struct {
	engine      *Engine
	concurrency int
}

func NewScheduler(e *Engine, concurrency int) (*Scheduler, error) {
	if e == nil {
		return nil, errors.New("engine is nil")
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	return &Scheduler{engine: e, concurrency: concurrency}, nil
}

// Execute audits every target. kind overrides every target's kind when
// non-empty. The returned error is only the context error; per-file read
// failures are error reports.
func (s *Scheduler) Execute(ctx context.Context, targets []Target, kind rules.Kind) ([]Report, error) {
	reports := make([]Report, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, t := range targets {
		if gctx.Err() != nil {
			break
		}
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			k := t.Kind
			if kind != "" {
				k = kind
			}
			reports[i] = s.engine.AuditFile(gctx, t.Path, k)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}
