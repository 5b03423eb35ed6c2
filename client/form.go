package client

import "sort"

// Form is an immutable snapshot of form values plus the set of keys the user changed.
// Every mutation returns a new Form; existing snapshots never change.
type Form struct {
	values  map[string]string
	changed map[string]struct{}
}

// NewForm returns a form seeded with initial values and no changes.
func NewForm(initial map[string]string) Form {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return Form{values: values, changed: map[string]struct{}{}}
}

// With returns a copy of f where key holds value and is marked changed.
func (f Form) With(key, value string) Form {
	next := Form{
		values:  make(map[string]string, len(f.values)+1),
		changed: make(map[string]struct{}, len(f.changed)+1),
	}
	for k, v := range f.values {
		next.values[k] = v
	}
	for k := range f.changed {
		next.changed[k] = struct{}{}
	}
	next.values[key] = value
	next.changed[key] = struct{}{}
	return next
}

// Get returns the value for key.
func (f Form) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// HasChanges reports whether any key was changed.
func (f Form) HasChanges() bool {
	return len(f.changed) > 0
}

// ChangedKeys returns the changed keys in sorted order.
func (f Form) ChangedKeys() []string {
	keys := make([]string, 0, len(f.changed))
	for k := range f.changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Changes returns the changed keys and their values.
func (f Form) Changes() map[string]string {
	out := make(map[string]string, len(f.changed))
	for k := range f.changed {
		out[k] = f.values[k]
	}
	return out
}
