package mutation

import "sync"

// Draft holds an in-progress edit of one item outside the cache. The
// cached value is untouched until the draft is submitted as an update.
type Draft[T any] struct {
	mu     sync.Mutex
	id     string
	value  T
	active bool
}

// Begin starts editing item id from value, replacing any previous draft.
func (d *Draft[T]) Begin(id string, value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.id, d.value, d.active = id, value, true
}

// Edit applies fn to the draft value. It reports false when no draft is
// active.
func (d *Draft[T]) Edit(fn func(*T)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return false
	}
	fn(&d.value)
	return true
}

// Value returns the draft value and whether a draft is active.
func (d *Draft[T]) Value() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.active
}

// ID returns the item being edited.
func (d *Draft[T]) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// Active reports whether a draft is being edited.
func (d *Draft[T]) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Discard drops the draft.
func (d *Draft[T]) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	var zero T
	d.id, d.value, d.active = "", zero, false
}

// Submit ends the draft and returns the update intent carrying it.
func (d *Draft[T]) Submit(resource string) (Intent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return Intent{}, ErrNoDraft
	}
	intent := Intent{Resource: resource, Kind: KindUpdate, ID: d.id, Payload: d.value}
	var zero T
	d.id, d.value, d.active = "", zero, false
	return intent, nil
}
