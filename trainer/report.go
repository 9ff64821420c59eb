package trainer

import "slices"

// Report collects the parameter values a trainer actually used, plus any
// entries the trainer adds while training.
type Report struct {
	keys   []string
	values map[string]string
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{values: make(map[string]string)}
}

// Put records value under key.
func (r *Report) Put(key, value string) {
	if r == nil {
		return
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value recorded for key.
func (r *Report) Get(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the recorded keys in order.
func (r *Report) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.keys)
}

// Map returns a copy of the entries.
func (r *Report) Map() map[string]string {
	out := make(map[string]string, len(r.Keys()))
	for _, k := range r.Keys() {
		out[k] = r.values[k]
	}
	return out
}
