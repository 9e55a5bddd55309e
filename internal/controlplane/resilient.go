package controlplane

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/wovenfs/txncore/internal/circuit"
	"github.com/wovenfs/txncore/internal/txn"
	"github.com/wovenfs/txncore/pkg/errors"
)

// ResilientConfig configures the retry and circuit-breaker wrapper shared
// by every ControlClient backend.
type ResilientConfig struct {
	MaxAttempts      int
	InitialInterval  time.Duration
	FailureThreshold int
	ResetTimeout     time.Duration
}

// Resilient wraps a ControlClient with exponential backoff retry and a
// circuit breaker, so a transient control-plane outage surfaces as a
// bounded number of retried attempts rather than either hanging forever
// or failing on the first blip.
type Resilient struct {
	inner   txn.ControlClient
	breaker *circuit.Breaker
	monitor *circuit.Monitor
	policy  func() backoff.BackOff
}

// NewResilient wraps inner per cfg.
func NewResilient(inner txn.ControlClient, cfg ResilientConfig) *Resilient {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}

	monitor := circuit.NewMonitor()
	breaker := circuit.NewBreaker(circuit.Options{
		Name:             "controlplane",
		FailureThreshold: cfg.FailureThreshold,
		ResetTimeout:     cfg.ResetTimeout,
		OnStateChange:    monitor.OnStateChange,
	})

	return &Resilient{
		inner:   inner,
		breaker: breaker,
		monitor: monitor,
		policy: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = cfg.InitialInterval
			return backoff.WithMaxRetries(b, uint64(cfg.MaxAttempts-1))
		},
	}
}

// call runs fn through the circuit breaker, retrying with backoff on
// failure, and wraps an exhausted retry budget as errors.ErrControlPlane.
func (r *Resilient) call(ctx context.Context, op string, fn func() error) error {
	attempt := func() error {
		err := r.breaker.Execute(fn)
		if err != nil {
			r.monitor.OnFailure(r.breaker.Name())
		} else {
			r.monitor.OnSuccess(r.breaker.Name())
		}
		return err
	}

	err := backoff.Retry(attempt, backoff.WithContext(r.policy(), ctx))
	if err != nil {
		return errors.New(errors.ErrControlPlane, "control plane "+op+" failed after retry").
			WithSource(errors.SourceControlPlane).
			WithCause(err)
	}
	return nil
}

// Stats returns the circuit breaker's current statistics, for the admin
// surface's health endpoint.
func (r *Resilient) Stats() *circuit.Stats {
	return r.monitor.GetStats(r.breaker.Name())
}

// AllocSegno implements txn.ControlClient.
func (r *Resilient) AllocSegno(ctx context.Context) (uint64, error) {
	var segno uint64
	err := r.call(ctx, "alloc_segno", func() error {
		var innerErr error
		segno, innerErr = r.inner.AllocSegno(ctx)
		return innerErr
	})
	return segno, err
}

// RecordSegment implements txn.ControlClient.
func (r *Resilient) RecordSegment(ctx context.Context, seg txn.Segment, level uint8) error {
	return r.call(ctx, "record_segment", func() error {
		return r.inner.RecordSegment(ctx, seg, level)
	})
}

// AdvanceSeq implements txn.ControlClient.
func (r *Resilient) AdvanceSeq(ctx context.Context, currentSeq *uint64) error {
	return r.call(ctx, "advance_seq", func() error {
		return r.inner.AdvanceSeq(ctx, currentSeq)
	})
}
