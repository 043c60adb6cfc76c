// Package testing provides an in-memory Tier-2 store for tests of packages that
// write or read compliance records.
package testing

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
)

// Store is an in-memory compliance repository with the same reaping predicates as
// the SQL ones.
type Store struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*complianceDomain.ComplianceRecord
	failErr   error
	failN     int
	deleteErr map[uuid.UUID]error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		records:   make(map[uuid.UUID]*complianceDomain.ComplianceRecord),
		deleteErr: make(map[uuid.UUID]error),
	}
}

// FailCreates makes the next n Create calls return err.
func (s *Store) FailCreates(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failN = n
	s.failErr = err
}

// FailDelete makes every delete of id return err.
func (s *Store) FailDelete(id uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr[id] = err
}

// Put stores a copy of record without validation, for seeding.
func (s *Store) Put(record *complianceDomain.ComplianceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records[record.ID] = &cp
}

// Len reports how many records are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Has reports whether a record with id is stored.
func (s *Store) Has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok
}

// All returns copies of every stored record.
func (s *Store) All() []*complianceDomain.ComplianceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*complianceDomain.ComplianceRecord, 0, len(s.records))
	for _, r := range s.records {
		cp := *r
		out = append(out, &cp)
	}
	return out
}

func (s *Store) Create(ctx context.Context, record *complianceDomain.ComplianceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failN > 0 {
		s.failN--
		return s.failErr
	}
	cp := *record
	s.records[record.ID] = &cp
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*complianceDomain.ComplianceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, complianceDomain.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) GetByViewID(ctx context.Context, viewID uuid.UUID) (*complianceDomain.ComplianceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ViewID == viewID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, complianceDomain.ErrRecordNotFound
}

func (s *Store) ListByProfile(
	ctx context.Context,
	profileID string,
	from, to time.Time,
	limit int,
) ([]*complianceDomain.ComplianceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*complianceDomain.ComplianceRecord, 0)
	for _, r := range s.records {
		if r.ProfileID == profileID && !r.ViewedAt.Before(from) && !r.ViewedAt.After(to) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ViewedAt.Equal(out[j].ViewedAt) {
			return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
		}
		return out[i].ViewedAt.Before(out[j].ViewedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SetUnderInvestigation(ctx context.Context, id uuid.UUID, held bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return complianceDomain.ErrRecordNotFound
	}
	r.UnderInvestigation = held
	return nil
}

func (s *Store) ListReapableIDs(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0)
	for id, r := range s.records {
		if r.Reapable(now) && bytes.Compare(id[:], after[:]) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *Store) DeleteIfReapable(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteErr[id]; err != nil {
		return false, err
	}
	r, ok := s.records[id]
	if !ok || !r.Reapable(now) {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *Store) CountStats(ctx context.Context, now time.Time) (*complianceDomain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats complianceDomain.Stats
	for _, r := range s.records {
		stats.Total++
		expired := r.RetentionExpiry.Before(now)
		switch {
		case r.UnderInvestigation && expired:
			stats.Held++
			stats.HeldExpired++
		case r.UnderInvestigation:
			stats.Held++
		case expired:
			stats.Expired++
		}
	}
	return &stats, nil
}

// WithTx makes Store a TxManager: it snapshots the records and restores them if fn
// fails. Concurrent transactions are not isolated from each other.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snapshot := make(map[uuid.UUID]*complianceDomain.ComplianceRecord, len(s.records))
	for id, r := range s.records {
		cp := *r
		snapshot[id] = &cp
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.records = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}
