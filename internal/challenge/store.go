package challenge

import (
	"sync"
	"time"

	"github.com/nexshop/identity/internal/idgen"
)

// DefaultTTL is how long a challenge stays verifiable.
const DefaultTTL = 5 * time.Minute

// Store is an in-memory TTL-keyed registry of challenge records. A process
// restart forfeits in-flight challenges, which the short TTLs make
// acceptable; nothing is persisted.
//
// All operations that read and then remove a record run inside a single
// critical section, so two concurrent verifications of the same ID can
// never both succeed.
type Store struct {
	mu         sync.Mutex
	records    map[string]*Record
	defaultTTL time.Duration
	now        func() time.Time // swapped in tests
}

// NewStore creates an empty store. ttl <= 0 falls back to DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		records:    make(map[string]*Record),
		defaultTTL: ttl,
		now:        time.Now,
	}
}

// Create stamps the record with a fresh unguessable ID and its expiry, then
// stores it. ttl <= 0 uses the store default. Returns a copy of the stored
// record.
func (s *Store) Create(rec Record, ttl time.Duration) Record {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec.ID = idgen.WithPrefix("chal_")
	rec.CreatedAt = now
	rec.ExpiresAt = now.Add(ttl)

	stored := rec.clone()
	s.records[rec.ID] = &stored
	return rec
}

// Get returns a copy of the record if it exists and has not expired.
// An expired record is deleted as a side effect of the read.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(id)
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Delete removes the record. Idempotent; missing IDs are not an error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
}

// ConsumeResult describes what Consume did.
type ConsumeResult int

const (
	// ConsumeMissing: no live record of the given kind under that ID.
	ConsumeMissing ConsumeResult = iota
	// ConsumeRejected: the check failed; the record is retained for retry.
	ConsumeRejected
	// Consumed: the check passed and the record was deleted.
	Consumed
)

// Consume atomically looks up a live record of the given kind, runs the
// check, and deletes the record only when the check passes. check must be a
// pure computation; it runs under the store lock so at most one concurrent
// caller can consume a given ID.
func (s *Store) Consume(id string, kind Kind, check func(rec Record) bool) ConsumeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(id)
	if !ok || rec.Kind != kind {
		return ConsumeMissing
	}

	if !check(rec.clone()) {
		return ConsumeRejected
	}

	delete(s.records, id)
	return Consumed
}

// Sweep removes all expired records and returns how many were dropped.
// Run periodically to bound growth from abandoned challenges; lazy eviction
// on read handles correctness on its own.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, rec := range s.records {
		if now.After(rec.ExpiresAt) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored records, including not-yet-swept
// expired ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// live returns the record if present and unexpired, evicting it lazily
// otherwise. Caller holds the lock.
func (s *Store) live(id string) (*Record, bool) {
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	if s.now().After(rec.ExpiresAt) {
		delete(s.records, id)
		return nil, false
	}
	return rec, true
}

func (r Record) clone() Record {
	out := r
	if r.Reference != nil {
		out.Reference = make([]float64, len(r.Reference))
		copy(out.Reference, r.Reference)
	}
	return out
}
