package txn

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wovenfs/txncore/internal/tracing"
)

// Committer owns the single commit worker. Concurrency exactly one is
// enforced with a weighted semaphore rather than a plain bool, so that a
// kick that loses the race can simply give up instead of needing its own
// retry loop.
type Committer struct {
	mgr *Manager

	itemStore      ItemStore
	inodeWriteback InodeWriteback
	segmentWriter  SegmentWriter
	controlClient  ControlClient
	counters       Counters
	tracer         *tracing.TracerProvider
	logger         *logrus.Entry

	sem *semaphore.Weighted

	resultMu   sync.Mutex
	syncCond   *sync.Cond
	writeCount uint64
	lastResult error

	currentSeq uint64

	timerMu      sync.Mutex
	timer        *time.Timer
	timerStopped bool
	syncDelay    time.Duration

	wg sync.WaitGroup
}

// CommitterConfig bundles the collaborators a Committer needs.
type CommitterConfig struct {
	ItemStore      ItemStore
	InodeWriteback InodeWriteback
	SegmentWriter  SegmentWriter
	ControlClient  ControlClient
	Counters       Counters
	Tracer         *tracing.TracerProvider
	Logger         *logrus.Logger
	SyncDelay      time.Duration
}

// NewCommitter wires a Committer to mgr and starts its deadline timer.
func NewCommitter(mgr *Manager, cfg CommitterConfig) *Committer {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	c := &Committer{
		mgr:            mgr,
		itemStore:      cfg.ItemStore,
		inodeWriteback: cfg.InodeWriteback,
		segmentWriter:  cfg.SegmentWriter,
		controlClient:  cfg.ControlClient,
		counters:       cfg.Counters,
		tracer:         cfg.Tracer,
		logger:         logger.WithField("component", "committer"),
		sem:            semaphore.NewWeighted(1),
		syncDelay:      cfg.SyncDelay,
	}
	c.syncCond = sync.NewCond(&c.resultMu)
	mgr.setCommitter(c)
	c.rearmTimer()
	return c
}

// kick schedules a commit attempt. A kick that loses the race to an
// in-flight commit is dropped: the in-flight attempt will observe whatever
// dirty state exists by the time it drains, so a second concurrent run
// would be redundant.
func (c *Committer) kick(deadlineExpired bool) {
	if !c.sem.TryAcquire(1) {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.sem.Release(1)
		c.runCommit(context.Background(), deadlineExpired)
	}()
}

// runCommit executes one full commit attempt: drain wait, pipeline (or
// advance-only, or nothing), result publication, and timer rearm.
func (c *Committer) runCommit(ctx context.Context, deadlineExpired bool) {
	ctx, rootSpan := c.startSpan(ctx, tracing.SpanCommitPipeline)
	defer rootSpan.End()

	actor := ActorID("committer-" + uuid.NewString())
	entry := c.logger.WithField("actor", actor)
	entry.Debug("commit attempt starting")

	c.mgr.setCommitterActor(actor)
	ctx = withCommitterActor(ctx, actor)

	c.mgr.waitDrained()

	start := time.Now()
	var result error
	outcomeLabel := "idle"
	switch {
	case c.itemStore.HasDirty(ctx):
		result = c.runPipeline(ctx, actor)
		outcomeLabel = "ok"
	case deadlineExpired:
		result = c.controlClient.AdvanceSeq(ctx, &c.currentSeq)
		outcomeLabel = "ok"
	default:
		// Nothing dirty and not a deadline kick: nothing to do.
	}
	if result != nil {
		outcomeLabel = "io_error"
	}

	if rec, ok := c.counters.(interface{ ObserveCommitDuration(string, float64) }); ok {
		rec.ObserveCommitDuration(outcomeLabel, time.Since(start).Seconds())
	}

	c.resultMu.Lock()
	c.writeCount++
	c.lastResult = result
	c.syncCond.Broadcast()
	wc := c.writeCount
	c.resultMu.Unlock()

	outcome := entry.WithField("write_count", wc)
	if result != nil {
		outcome.WithError(result).Warn("commit attempt failed")
	} else {
		outcome.Debug("commit attempt completed")
	}

	if cs, ok := c.counters.(interface{ SetWriteCount(uint64) }); ok {
		cs.SetWriteCount(wc)
	}

	c.mgr.finishCommit()

	c.rearmTimer()
}

// runPipeline executes the nine-step ordered commit when the item store
// has dirty data. The first failing step short-circuits the remainder;
// the error is returned (and remembered) without attempting to undo
// earlier, already-submitted effects.
func (c *Committer) runPipeline(ctx context.Context, actor ActorID) error {
	if err := c.step(ctx, tracing.SpanWritebackStart, func(ctx context.Context) error {
		return c.inodeWriteback.Start(ctx, true)
	}); err != nil {
		return err
	}

	var segno uint64
	if err := c.step(ctx, tracing.SpanAllocSegno, func(ctx context.Context) error {
		n, err := c.controlClient.AllocSegno(ctx)
		segno = n
		return err
	}); err != nil {
		return err
	}

	var seg Segment
	if err := c.step(ctx, tracing.SpanNewSegment, func(ctx context.Context) error {
		s, err := c.segmentWriter.New(ctx, segno)
		seg = s
		return err
	}); err != nil {
		return err
	}

	if err := c.step(ctx, tracing.SpanDrainInto, func(ctx context.Context) error {
		return c.itemStore.DrainInto(ctx, seg)
	}); err != nil {
		return err
	}

	// From here on, a failing step has already pulled items out of the
	// item store's dirty set but not durably written them anywhere.
	// restoreDirty gives the item store a chance to re-mark them dirty so
	// the next commit attempt redrains them, rather than losing them
	// silently — the one piece of "undo" this otherwise best-effort
	// pipeline performs.
	restoreDirty := func() {
		if restorer, ok := c.itemStore.(interface{ Restore(Segment) }); ok {
			restorer.Restore(seg)
		}
	}

	completion := NewCompletion()
	if err := c.step(ctx, tracing.SpanSubmitSegment, func(ctx context.Context) error {
		return c.segmentWriter.Submit(ctx, seg, completion)
	}); err != nil {
		restoreDirty()
		return err
	}

	if err := c.step(ctx, tracing.SpanWritebackStart, func(ctx context.Context) error {
		return c.inodeWriteback.Start(ctx, false)
	}); err != nil {
		restoreDirty()
		return err
	}

	if err := c.step(ctx, tracing.SpanWaitCompletion, func(ctx context.Context) error {
		return c.segmentWriter.Wait(ctx, completion)
	}); err != nil {
		restoreDirty()
		return err
	}

	if err := c.step(ctx, tracing.SpanRecordSegment, func(ctx context.Context) error {
		return c.controlClient.RecordSegment(ctx, seg, 0)
	}); err != nil {
		restoreDirty()
		return err
	}

	if err := c.step(ctx, tracing.SpanAdvanceSeq, func(ctx context.Context) error {
		return c.controlClient.AdvanceSeq(ctx, &c.currentSeq)
	}); err != nil {
		restoreDirty()
		return err
	}

	c.counters.Inc("trans_level0_seg_writes")
	c.counters.Add("trans_level0_seg_write_bytes", seg.TotalBytes())

	_ = actor // retained for symmetry with reentrant collaborators reading CurrentlyHeld(actor)
	return nil
}

// step wraps one pipeline stage in a span, recording failure on the span
// when fn returns an error.
func (c *Committer) step(ctx context.Context, name string, fn func(context.Context) error) error {
	spanCtx, span := c.startSpan(ctx, name)
	defer span.End()

	err := fn(spanCtx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.logger.WithField("step", name).WithError(err).Warn("commit pipeline step failed")
	}
	return err
}

// startSpan starts a span via the configured TracerProvider, falling back
// to the global otel tracer when none was supplied (tests, or callers that
// never called tracing.NewTracerProvider).
func (c *Committer) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if c.tracer != nil {
		return c.tracer.StartSpan(ctx, name)
	}
	return otel.Tracer("txncore").Start(ctx, name)
}

// rearmTimer replaces the deadline timer with a fresh one firing after
// syncDelay, stopping and draining any timer already running. It does
// nothing once stopTimer has been called.
func (c *Committer) rearmTimer() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if c.timerStopped {
		return
	}
	if c.timer != nil {
		if !c.timer.Stop() {
			select {
			case <-c.timer.C:
			default:
			}
		}
	}
	c.timer = time.AfterFunc(c.syncDelay, func() {
		c.counters.Inc("trans_commit_timer")
		c.kick(true)
	})
}

// stopTimer halts the deadline timer and keeps later rearmTimer calls (from
// a commit still in flight) from starting it again, used on shutdown.
func (c *Committer) stopTimer() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	c.timerStopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
}

// wait blocks until every in-flight commit goroutine has returned.
func (c *Committer) wait() {
	c.wg.Wait()
}
