package alerts

import (
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

const registryShards = 32

// entry pairs an alert with the mutex that serializes its evaluation
// and lifecycle transitions. All reads and writes of the embedded alert
// go through entry.mu.
type entry struct {
	mu    sync.Mutex
	alert Alert
}

// snapshot copies the alert under the entry lock.
func (e *entry) snapshot() Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alert
}

type registryShard struct {
	mu           sync.RWMutex
	byInstrument map[string]map[uuid.UUID]*entry
}

// Registry is the alert index. Lookups for tick evaluation go through a
// per-instrument shard, so registering or removing alerts on one
// instrument never blocks evaluation on another. A separate id index
// serves the CRUD path.
type Registry struct {
	shards [registryShards]*registryShard

	idMu sync.RWMutex
	byID map[uuid.UUID]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[uuid.UUID]*entry)}
	for i := range r.shards {
		r.shards[i] = &registryShard{byInstrument: make(map[string]map[uuid.UUID]*entry)}
	}
	return r
}

func (r *Registry) shard(instrumentID string) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(instrumentID))
	return r.shards[h.Sum32()%registryShards]
}

// add indexes an alert by instrument and id.
func (r *Registry) add(alert Alert) *entry {
	e := &entry{alert: alert}

	s := r.shard(alert.InstrumentID)
	s.mu.Lock()
	m, ok := s.byInstrument[alert.InstrumentID]
	if !ok {
		m = make(map[uuid.UUID]*entry)
		s.byInstrument[alert.InstrumentID] = m
	}
	m[alert.ID] = e
	s.mu.Unlock()

	r.idMu.Lock()
	r.byID[alert.ID] = e
	r.idMu.Unlock()

	return e
}

// remove drops the alert from both indexes and returns its final state.
func (r *Registry) remove(id uuid.UUID) (Alert, bool) {
	r.idMu.Lock()
	e, ok := r.byID[id]
	if !ok {
		r.idMu.Unlock()
		return Alert{}, false
	}
	delete(r.byID, id)
	r.idMu.Unlock()

	alert := e.snapshot()

	s := r.shard(alert.InstrumentID)
	s.mu.Lock()
	if m, ok := s.byInstrument[alert.InstrumentID]; ok {
		delete(m, id)
		if len(m) == 0 {
			delete(s.byInstrument, alert.InstrumentID)
		}
	}
	s.mu.Unlock()

	return alert, true
}

// lookup returns the live entry for id.
func (r *Registry) lookup(id uuid.UUID) (*entry, bool) {
	r.idMu.RLock()
	defer r.idMu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

// entries snapshots the entry set for one instrument. The shard lock is
// held only for the copy; evaluation locks each entry individually.
func (r *Registry) entries(instrumentID string) []*entry {
	s := r.shard(instrumentID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.byInstrument[instrumentID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	return out
}

// ListByUser returns snapshots of every alert owned by userID.
func (r *Registry) ListByUser(userID uuid.UUID) []Alert {
	r.idMu.RLock()
	es := make([]*entry, 0, 8)
	for _, e := range r.byID {
		es = append(es, e)
	}
	r.idMu.RUnlock()

	var out []Alert
	for _, e := range es {
		if a := e.snapshot(); a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

// Instruments returns the distinct instrument ids with registered alerts.
func (r *Registry) Instruments() []string {
	var out []string
	for _, s := range r.shards {
		s.mu.RLock()
		for id := range s.byInstrument {
			out = append(out, id)
		}
		s.mu.RUnlock()
	}
	return out
}

// Len returns the total number of registered alerts.
func (r *Registry) Len() int {
	r.idMu.RLock()
	defer r.idMu.RUnlock()
	return len(r.byID)
}
