// Package testing provides an in-memory Tier-3 store for tests of packages that
// seal or export vault records.
package testing

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/viewvault/internal/errors"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

// Store is an in-memory case and vault record repository. It also satisfies
// TxManager by snapshotting both tables.
type Store struct {
	mu      sync.Mutex
	cases   map[string]*vaultDomain.LegalCase
	records map[uuid.UUID]*vaultDomain.VaultRecord
	failErr error
	failN   int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		cases:   make(map[string]*vaultDomain.LegalCase),
		records: make(map[uuid.UUID]*vaultDomain.VaultRecord),
	}
}

// FailCreates makes the next n record creates return err.
func (s *Store) FailCreates(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failN = n
	s.failErr = err
}

// Records returns copies of every stored record, oldest first.
func (s *Store) Records() []*vaultDomain.VaultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*vaultDomain.VaultRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, copyRecord(r))
	}
	sortRecords(out)
	return out
}

// Case returns a copy of the case with id, or nil.
func (s *Store) Case(id string) *vaultDomain.LegalCase {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (s *Store) Create(ctx context.Context, c *vaultDomain.LegalCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return apperrors.Wrap(apperrors.ErrConflict, "legal case exists")
	}
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

func (s *Store) GetForUpdate(ctx context.Context, id string) (*vaultDomain.LegalCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, vaultDomain.ErrCaseNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) Close(ctx context.Context, id string, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok || c.Closed() {
		return vaultDomain.ErrCaseClosed
	}
	c.Status = vaultDomain.CaseStatusClosed
	c.ClosedAt = &closedAt
	return nil
}

// CreateRecord stores a vault record. It is named apart from Create because Store
// serves both repositories; use Records to inspect the result.
func (s *Store) CreateRecord(ctx context.Context, r *vaultDomain.VaultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failN > 0 {
		s.failN--
		return s.failErr
	}
	if _, ok := s.records[r.ID]; ok {
		return apperrors.Wrap(apperrors.ErrConflict, "vault record exists")
	}
	if r.CaseID != nil {
		for _, existing := range s.records {
			if existing.CaseID != nil && *existing.CaseID == *r.CaseID && existing.ViewID == r.ViewID {
				return apperrors.Wrap(apperrors.ErrConflict, "view already sealed into case")
			}
		}
	}
	s.records[r.ID] = copyRecord(r)
	return nil
}

func (s *Store) GetPendingByViewID(ctx context.Context, viewID uuid.UUID) (*vaultDomain.VaultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest *vaultDomain.VaultRecord
	for _, r := range s.records {
		if r.ViewID != viewID || !r.Pending() {
			continue
		}
		if oldest == nil || r.CreatedAt.Before(oldest.CreatedAt) {
			oldest = r
		}
	}
	if oldest == nil {
		return nil, vaultDomain.ErrRecordNotFound
	}
	return copyRecord(oldest), nil
}

func (s *Store) ExistsInCase(ctx context.Context, caseID string, viewID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.CaseID != nil && *r.CaseID == caseID && r.ViewID == viewID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Claim(
	ctx context.Context,
	id uuid.UUID,
	caseID string,
	authorizers []string,
	sealedAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || !r.Pending() {
		return false, nil
	}
	r.CaseID = &caseID
	r.Authorizers = append([]string(nil), authorizers...)
	r.SealedAt = &sealedAt
	return true, nil
}

func (s *Store) ListByCase(ctx context.Context, caseID string) ([]*vaultDomain.VaultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*vaultDomain.VaultRecord, 0)
	for _, r := range s.records {
		if r.CaseID != nil && *r.CaseID == caseID {
			out = append(out, copyRecord(r))
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *Store) DeleteByCase(ctx context.Context, caseID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.records {
		if r.CaseID != nil && *r.CaseID == caseID {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// WithTx restores both tables if fn fails. Concurrent transactions are not isolated
// from each other.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	cases := make(map[string]*vaultDomain.LegalCase, len(s.cases))
	for id, c := range s.cases {
		cp := *c
		cases[id] = &cp
	}
	records := make(map[uuid.UUID]*vaultDomain.VaultRecord, len(s.records))
	for id, r := range s.records {
		records[id] = copyRecord(r)
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.cases = cases
		s.records = records
		s.mu.Unlock()
		return err
	}
	return nil
}

// Vault returns a VaultRepository view of s.
func (s *Store) Vault() *VaultRepository {
	return &VaultRepository{Store: s}
}

// VaultRepository adapts Store to the vault record repository, whose Create takes
// a record rather than a case.
type VaultRepository struct {
	*Store
}

func (v *VaultRepository) Create(ctx context.Context, r *vaultDomain.VaultRecord) error {
	return v.CreateRecord(ctx, r)
}

func copyRecord(r *vaultDomain.VaultRecord) *vaultDomain.VaultRecord {
	cp := *r
	cp.Authorizers = append([]string(nil), r.Authorizers...)
	if len(r.Authorizers) == 0 {
		cp.Authorizers = nil
	}
	return &cp
}

func sortRecords(records []*vaultDomain.VaultRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return bytes.Compare(records[i].ID[:], records[j].ID[:]) < 0
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}
