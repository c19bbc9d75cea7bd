package server

import (
	"context"

	"auction-market/internal/closer"
	"auction-market/internal/settlement"
)

// Operations exposes the background jobs for on-demand runs
type Operations struct {
	Closer     *closer.Closer
	Reconciler *settlement.Reconciler
}

func (o Operations) Sweep(ctx context.Context) (closer.SweepResult, error) {
	return o.Closer.Sweep(ctx)
}

func (o Operations) Reconcile(ctx context.Context) (settlement.Report, error) {
	return o.Reconciler.Reconcile(ctx)
}
