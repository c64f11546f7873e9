package mutation

import (
	"context"
	"sync/atomic"
)

// Mutator writes to one resource. It is safe for concurrent use.
type Mutator struct {
	coord    *Coordinator
	resource string
	pending  atomic.Int64
}

// Resource returns the resource name.
func (m *Mutator) Resource() string { return m.resource }

// Pending returns how many writes are in progress.
func (m *Mutator) Pending() int { return int(m.pending.Load()) }

// Mutate runs an intent of kind with payload against the resource.
func (m *Mutator) Mutate(ctx context.Context, kind Kind, id string, payload any) (Result, error) {
	return m.run(ctx, Intent{Resource: m.resource, Kind: kind, ID: id, Payload: payload})
}

// Create posts payload as a new item.
func (m *Mutator) Create(ctx context.Context, payload any) (Result, error) {
	return m.Mutate(ctx, KindCreate, "", payload)
}

// Update replaces item id with payload.
func (m *Mutator) Update(ctx context.Context, id string, payload any) (Result, error) {
	return m.Mutate(ctx, KindUpdate, id, payload)
}

// Delete removes item id.
func (m *Mutator) Delete(ctx context.Context, id string) (Result, error) {
	return m.Mutate(ctx, KindDelete, id, nil)
}

// Do updates a sub-resource of the item, such as a user's role.
func (m *Mutator) Do(ctx context.Context, id, action string, payload any) (Result, error) {
	return m.run(ctx, Intent{Resource: m.resource, Kind: KindUpdate, ID: id, Action: action, Payload: payload})
}

func (m *Mutator) run(ctx context.Context, intent Intent) (Result, error) {
	m.pending.Add(1)
	defer m.pending.Add(-1)
	return m.coord.Mutate(ctx, intent)
}
