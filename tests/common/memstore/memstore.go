// Package memstore is an in-memory UnitOfWork for use case tests. It mimics
// the row locks and ledger uniqueness the Postgres implementation relies on:
// LockByID blocks while another transaction holds the row, TryInsert blocks
// while another transaction holds the same event id, and staged writes are
// only visible to other transactions after commit.
package memstore

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"rental-settlement/internal/domain/reservation"
	"rental-settlement/internal/pkg/errs"
	"rental-settlement/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrIntentAlreadySet = errs.New("reservation already references another payment intent")

// Op names a repository call that can be made to fail.
type Op string

const (
	OpLockByID           Op = "LockByID"
	OpSetPaymentIntentID Op = "SetPaymentIntentID"
	OpUpdateStatus       Op = "UpdateStatus"
	OpHasOverlapping     Op = "HasOverlappingActive"
	OpTryInsert          Op = "TryInsert"
	OpPruneBefore        Op = "PruneBefore"
)

type membership struct {
	providerID uuid.UUID
	userID     uuid.UUID
}

type Store struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]reservation.Snapshot
	events       map[string]shared.WebhookEventRecord
	members      map[membership]bool
	locks        map[string]chan struct{}
	failures     map[Op]error
	commits      int
	rollbacks    int
	waiters      atomic.Int32
}

func New() *Store {
	return &Store{
		reservations: make(map[uuid.UUID]reservation.Snapshot),
		events:       make(map[string]shared.WebhookEventRecord),
		members:      make(map[membership]bool),
		locks:        make(map[string]chan struct{}),
		failures:     make(map[Op]error),
	}
}

var _ shared.UnitOfWork = (*Store)(nil)

func (s *Store) PutReservation(snap reservation.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[snap.ID] = snap
}

func (s *Store) AddMember(providerID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[membership{providerID: providerID, userID: userID}] = true
}

func (s *Store) RemoveMember(providerID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, membership{providerID: providerID, userID: userID})
}

// LockWaiters is the number of transactions currently blocked on a row lock.
func (s *Store) LockWaiters() int {
	return int(s.waiters.Load())
}

func (s *Store) PutEvent(rec shared.WebhookEventRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[rec.EventID] = rec
}

// Reservation returns the committed state of a reservation.
func (s *Store) Reservation(id uuid.UUID) (reservation.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.reservations[id]
	return snap, ok
}

func (s *Store) HasEvent(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.events[eventID]
	return ok
}

func (s *Store) EventIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FailOn makes every subsequent call to op return err until cleared with a nil err.
func (s *Store) FailOn(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

func (s *Store) failure(op Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[op]
}

func (s *Store) lockChan(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	tx := &memTx{
		store:        s,
		held:         make(map[string]chan struct{}),
		reservations: make(map[uuid.UUID]reservation.Snapshot),
		events:       make(map[string]shared.WebhookEventRecord),
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		s.mu.Lock()
		s.rollbacks++
		s.mu.Unlock()
		return err
	}

	tx.commit()
	return nil
}

func (s *Store) CommandReads() shared.CommandReads {
	return &reads{store: s}
}

type reads struct {
	store *Store
	tx    *memTx
}

func (r *reads) ReservationByID(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	var (
		snap reservation.Snapshot
		ok   bool
	)
	if r.tx != nil {
		snap, ok = r.tx.reservation(id)
	} else {
		snap, ok = r.store.Reservation(id)
	}
	if !ok {
		return nil, nil
	}
	return reservation.Reconstruct(snap)
}

func (r *reads) IsProviderMember(_ context.Context, providerID, userID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.members[membership{providerID: providerID, userID: userID}], nil
}

type memTx struct {
	store        *Store
	held         map[string]chan struct{}
	reservations map[uuid.UUID]reservation.Snapshot
	events       map[string]shared.WebhookEventRecord
	pruneCutoff  *time.Time
}

func (t *memTx) Reservations() shared.ReservationRepository   { return &reservationRepo{tx: t} }
func (t *memTx) WebhookEvents() shared.WebhookEventRepository { return &eventRepo{tx: t} }
func (t *memTx) Reads() shared.CommandReads                   { return &reads{store: t.store, tx: t} }

func (t *memTx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	ch := t.store.lockChan(key)
	select {
	case ch <- struct{}{}:
		t.held[key] = ch
		return nil
	default:
	}

	t.store.waiters.Add(1)
	defer t.store.waiters.Add(-1)
	select {
	case ch <- struct{}{}:
		t.held[key] = ch
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *memTx) release() {
	for key, ch := range t.held {
		<-ch
		delete(t.held, key)
	}
}

func (t *memTx) reservation(id uuid.UUID) (reservation.Snapshot, bool) {
	if snap, ok := t.reservations[id]; ok {
		return snap, true
	}
	return t.store.Reservation(id)
}

func (t *memTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, snap := range t.reservations {
		s.reservations[id] = snap
	}
	if t.pruneCutoff != nil {
		for id, ev := range s.events {
			if ev.ReceivedAt.Before(*t.pruneCutoff) {
				delete(s.events, id)
			}
		}
	}
	for id, ev := range t.events {
		s.events[id] = ev
	}
	s.commits++
}

type reservationRepo struct {
	tx *memTx
}

func (r *reservationRepo) LockByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	if err := r.tx.store.failure(OpLockByID); err != nil {
		return nil, err
	}
	if err := r.tx.lock(ctx, "reservation:"+id.String()); err != nil {
		return nil, err
	}
	snap, ok := r.tx.reservation(id)
	if !ok {
		return nil, nil
	}
	return reservation.Reconstruct(snap)
}

func (r *reservationRepo) SetPaymentIntentID(_ context.Context, id uuid.UUID, intentID string) error {
	if err := r.tx.store.failure(OpSetPaymentIntentID); err != nil {
		return err
	}
	snap, ok := r.tx.reservation(id)
	if !ok {
		return errs.Newf("reservation %s not found", id)
	}
	if snap.PaymentIntentID != nil && *snap.PaymentIntentID != "" && *snap.PaymentIntentID != intentID {
		return ErrIntentAlreadySet
	}
	snap.PaymentIntentID = &intentID
	snap.UpdatedAt = time.Now().UTC()
	r.tx.reservations[id] = snap
	return nil
}

func (r *reservationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status reservation.Status, paidAt *time.Time) error {
	if err := r.tx.store.failure(OpUpdateStatus); err != nil {
		return err
	}
	snap, ok := r.tx.reservation(id)
	if !ok {
		return errs.Newf("reservation %s not found", id)
	}
	snap.Status = status
	if snap.PaidAt == nil && paidAt != nil {
		p := *paidAt
		snap.PaidAt = &p
	}
	snap.UpdatedAt = time.Now().UTC()
	r.tx.reservations[id] = snap
	return nil
}

func (r *reservationRepo) HasOverlappingActive(_ context.Context, res *reservation.Reservation) (bool, error) {
	if err := r.tx.store.failure(OpHasOverlapping); err != nil {
		return false, err
	}

	s := r.tx.store
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.reservations))
	for id := range s.reservations {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		snap, _ := r.tx.reservation(id)
		other, err := reservation.Reconstruct(snap)
		if err != nil {
			return false, err
		}
		if res.ConflictsWith(other) {
			return true, nil
		}
	}
	return false, nil
}

type eventRepo struct {
	tx *memTx
}

func (r *eventRepo) TryInsert(ctx context.Context, ev shared.WebhookEventRecord) (bool, error) {
	if err := r.tx.store.failure(OpTryInsert); err != nil {
		return false, err
	}
	// a concurrent insert of the same key waits for the first transaction to finish
	if err := r.tx.lock(ctx, "event:"+ev.EventID); err != nil {
		return false, err
	}
	if _, ok := r.tx.events[ev.EventID]; ok {
		return false, nil
	}
	if r.tx.store.HasEvent(ev.EventID) {
		return false, nil
	}
	r.tx.events[ev.EventID] = ev
	return true, nil
}

func (r *eventRepo) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if err := r.tx.store.failure(OpPruneBefore); err != nil {
		return 0, err
	}
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, ev := range s.events {
		if ev.ReceivedAt.Before(cutoff) {
			n++
		}
	}
	c := cutoff
	r.tx.pruneCutoff = &c
	return n, nil
}
