package wizard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hpmalinova/monifly/contract"
)

const DefaultIdleTimeout = 30 * time.Minute

var ErrNoSuchWizard = contract.E(contract.NotFound, "wizard not found")

type entry struct {
	owner   string
	kind    string
	wizard  *Wizard
	touched time.Time
}

// Registry holds the open wizards of every user. Wizards idle for longer
// than the timeout are dropped on the next access.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	idle    time.Duration
	now     func() time.Time
}

func NewRegistry(idle time.Duration, now func() time.Time) *Registry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{entries: map[string]*entry{}, idle: idle, now: now}
}

func (r *Registry) sweep(now time.Time) {
	for id, e := range r.entries {
		if now.Sub(e.touched) > r.idle {
			delete(r.entries, id)
		}
	}
}

// Start registers w for owner and returns its id.
func (r *Registry) Start(owner, kind string, w *Wizard) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweep(now)
	id := uuid.NewString()
	r.entries[id] = &entry{owner: owner, kind: kind, wizard: w, touched: now}
	return id
}

// Get returns the owner's wizard. Wizards of other owners are not found.
func (r *Registry) Get(owner, id string) (*Wizard, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweep(now)
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return nil, "", ErrNoSuchWizard
	}
	e.touched = now
	return e.wizard, e.kind, nil
}

func (r *Registry) Discard(owner, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return ErrNoSuchWizard
	}
	delete(r.entries, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
