package usecase

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
)

type RunStatus string

const (
	RunCreated   RunStatus = "created"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
	RunFailed    RunStatus = "failed"
)

// SyncSession is the in-memory state of one discover run.
type SyncSession struct {
	ID        string
	Scope     string
	UserID    string
	StartedAt time.Time

	cancelled atomic.Bool

	mu     sync.Mutex
	status RunStatus
	counts map[string]entity.SupplierCounts
	failed map[string]bool
}

// Cancel sets the cancellation flag. It never clears.
func (s *SyncSession) Cancel() {
	s.cancelled.Store(true)
}

func (s *SyncSession) Cancelled() bool {
	return s.cancelled.Load()
}

func (s *SyncSession) Status() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// transition moves the run forward; finished runs keep their status.
func (s *SyncSession) transition(to RunStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.status {
	case RunCompleted, RunCancelled, RunFailed:
		return false
	case RunRunning:
		if to == RunCreated || to == RunRunning {
			return false
		}
	}
	s.status = to
	return true
}

func (s *SyncSession) record(supplierID string, counts entity.SupplierCounts, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[supplierID] = counts
	if failed {
		s.failed[supplierID] = true
	}
}

// Counts returns a copy of the per-supplier counters.
func (s *SyncSession) Counts() map[string]entity.SupplierCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]entity.SupplierCounts, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Totals sums the counters of every supplier.
func (s *SyncSession) Totals() entity.SupplierCounts {
	var total entity.SupplierCounts
	for _, c := range s.Counts() {
		total.Add(c)
	}
	return total
}

// FailedSuppliers lists the suppliers whose task ended in an error.
func (s *SyncSession) FailedSuppliers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.failed))
	for id := range s.failed {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SessionRegistry tracks the live runs of the process, keyed by scope and
// run id.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*SyncSession
	newID    func() (string, error)
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*SyncSession),
		newID:    func() (string, error) { return gonanoid.New() },
	}
}

func registryKey(scope, id string) string {
	return scope + "\x00" + id
}

// Create registers a new run in the created state.
func (r *SessionRegistry) Create(scope, userID string) (*SyncSession, error) {
	id, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate sync id: %w", err)
	}

	session := &SyncSession{
		ID:        id,
		Scope:     scope,
		UserID:    userID,
		StartedAt: time.Now(),
		status:    RunCreated,
		counts:    make(map[string]entity.SupplierCounts),
		failed:    make(map[string]bool),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey(scope, id)
	if _, exists := r.sessions[key]; exists {
		return nil, fmt.Errorf("sync id collision: %s", id)
	}
	r.sessions[key] = session
	return session, nil
}

func (r *SessionRegistry) Get(scope, id string) (*SyncSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[registryKey(scope, id)]
	return s, ok
}

// Cancel flags the run owned by userID. It reports whether the run exists.
func (r *SessionRegistry) Cancel(userID, scope, id string) bool {
	s, ok := r.Get(scope, id)
	if !ok || s.UserID != userID {
		return false
	}
	s.Cancel()
	return true
}

func (r *SessionRegistry) Remove(s *SyncSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, registryKey(s.Scope, s.ID))
}

// Len is the number of live runs.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
