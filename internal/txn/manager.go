package txn

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/wovenfs/txncore/pkg/errors"
)

// Manager is the TransactionManager: it admits holders, tracks reserved
// capacity, and recognizes the committer's own reentrant holds as no-ops.
type Manager struct {
	mu       sync.Mutex
	holdCond *sync.Cond

	reservedItems int64
	reservedVals  int64
	holders       uint64
	committing    bool
	committerActor ActorID

	reservations map[ActorID]*Reservation

	itemStore ItemStore
	counters  Counters
	logger    *logrus.Entry

	committer *Committer
}

// NewManager constructs a Manager. The Committer back-reference is wired
// in afterward via setCommitter, since Manager and Committer each need a
// reference to the other.
func NewManager(itemStore ItemStore, counters Counters) *Manager {
	m := &Manager{
		reservations: make(map[ActorID]*Reservation),
		itemStore:    itemStore,
		counters:     counters,
		logger:       logrus.StandardLogger().WithField("component", "manager"),
	}
	m.holdCond = sync.NewCond(&m.mu)
	return m
}

// SetLogger overrides the manager's logger, so callers that already carry a
// shared *logrus.Logger (cmd/txncored) can thread its component entry in
// instead of falling back to the package default.
func (m *Manager) SetLogger(logger *logrus.Entry) {
	m.logger = logger
}

func (m *Manager) setCommitter(c *Committer) {
	m.committer = c
}

// Hold admits actor as a transaction holder reserving count additional
// capacity. It blocks until admitted, denied outright for a malformed
// request, or ctx is cancelled.
func (m *Manager) Hold(ctx context.Context, actor ActorID, count ItemCount) error {
	if count.Items <= 0 || count.Vals < 0 {
		return errors.New(errors.ErrInvalidArgument, "hold requires items > 0 and vals >= 0").
			WithSource(errors.SourceHold).
			WithContext(ctx)
	}
	if !m.itemStore.FitsSingle(ctx, count.Items, count.Vals) {
		return errors.New(errors.ErrInvalidArgument, "reservation does not fit a single segment").
			WithSource(errors.SourceHold).
			WithContext(ctx)
	}

	if actor == m.currentCommitterActor() {
		return nil
	}

	m.mu.Lock()
	if r, ok := m.reservations[actor]; ok {
		r.Holders++
		m.holders++
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.holdCond.Broadcast()
			m.mu.Unlock()
		case <-watchDone:
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		if ctx.Err() != nil {
			return errors.New(errors.ErrInterrupted, "hold wait interrupted").
				WithSource(errors.SourceHold).
				WithContext(ctx)
		}
		if m.acquiredHoldLocked(ctx, actor, count) {
			return nil
		}
		m.holdCond.Wait()
	}
}

// acquiredHoldLocked implements the admission check. Caller holds m.mu.
func (m *Manager) acquiredHoldLocked(ctx context.Context, actor ActorID, count ItemCount) bool {
	if m.committing {
		return false
	}

	newItems := m.reservedItems + count.Items
	newVals := m.reservedVals + count.Vals
	if !m.itemStore.FitsSingle(ctx, newItems, newVals) {
		m.counters.Inc("trans_commit_full")
		m.logger.WithFields(logrus.Fields{
			"actor":          actor,
			"reserved_items": m.reservedItems,
			"reserved_vals":  m.reservedVals,
		}).Warn("hold denied: reservation would overflow a single segment, kicking commit")
		if m.committer != nil {
			m.committer.kick(false)
		}
		return false
	}

	m.reservedItems = newItems
	m.reservedVals = newVals
	m.reservations[actor] = newReservation(count)
	m.holders++
	m.setReservationsGauge()
	return true
}

// setReservationsGauge publishes the current live-reservation count through
// the optional SetReservations capability, if the configured Counters
// implements it. Caller holds m.mu.
func (m *Manager) setReservationsGauge() {
	if rc, ok := m.counters.(interface{ SetReservations(int) }); ok {
		rc.SetReservations(len(m.reservations))
	}
}

// Track records a holder's realized contribution toward its reservation.
// A no-op for the commit actor.
func (m *Manager) Track(actor ActorID, items, vals int64) {
	if actor == m.currentCommitterActor() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[actor]
	assertf(ok, "track called for actor %q without a hold", actor)

	r.Actual.Items += items
	r.Actual.Vals += vals

	assertf(r.Actual.Items <= r.Reserved.Items,
		"actor %q tracked items %d past reserved %d", actor, r.Actual.Items, r.Reserved.Items)
	assertf(r.Actual.Vals <= r.Reserved.Vals,
		"actor %q tracked vals %d past reserved %d", actor, r.Actual.Vals, r.Reserved.Vals)
}

// Release drops one nested hold for actor. A no-op for the commit actor.
func (m *Manager) Release(actor ActorID) {
	if actor == m.currentCommitterActor() {
		return
	}

	m.mu.Lock()

	r, ok := m.reservations[actor]
	assertf(ok, "release called for actor %q without a hold", actor)

	r.Holders--
	wake := false
	if r.Holders == 0 {
		m.reservedItems -= r.Reserved.Items
		m.reservedVals -= r.Reserved.Vals
		delete(m.reservations, actor)
		r.release()
		m.setReservationsGauge()
		wake = true
	}

	m.holders--
	if m.holders == 0 {
		wake = true
	}

	if wake {
		m.holdCond.Broadcast()
	}
	m.mu.Unlock()
}

// CurrentlyHeld reports whether actor owns a live reservation.
func (m *Manager) CurrentlyHeld(actor ActorID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[actor]
	return ok && r.Holders > 0
}

func (m *Manager) currentCommitterActor() ActorID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committerActor
}

func (m *Manager) setCommitterActor(actor ActorID) {
	m.mu.Lock()
	m.committerActor = actor
	m.mu.Unlock()
}

// waitDrained sets committing and blocks until every holder has released,
// matching the repeated check-and-wait loop of the distilled algorithm.
func (m *Manager) waitDrained() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		m.committing = true
		if m.holders == 0 {
			return
		}
		m.holdCond.Wait()
	}
}

// finishCommit clears committing and the committer actor, then wakes any
// holder waiting for capacity to free up.
func (m *Manager) finishCommit() {
	m.mu.Lock()
	m.committing = false
	m.committerActor = ""
	m.holdCond.Broadcast()
	m.mu.Unlock()
}

// liveReservations returns the current count of distinct held reservations,
// for tests.
func (m *Manager) liveReservations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reservations)
}
