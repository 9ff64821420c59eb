package trainer

import (
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Well-known parameter keys.
const (
	AlgorithmParam   = "Algorithm"
	CutoffParam      = "Cutoff"
	IterationsParam  = "Iterations"
	DataIndexerParam = "DataIndexer"
	BeamSizeParam    = "BeamSize"

	DefaultCutoff     = 5
	DefaultIterations = 100
)

// Params is an ordered string-keyed training configuration.
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams returns an empty configuration.
func NewParams() *Params {
	return &Params{values: make(map[string]string)}
}

// DefaultParams returns the configuration used when none is given: the
// MAXENT algorithm with the default cutoff and iteration count.
func DefaultParams() *Params {
	p := NewParams()
	p.Set(AlgorithmParam, AlgorithmMaxent)
	p.Set(IterationsParam, "100")
	p.Set(CutoffParam, "5")
	return p
}

// Get returns the value stored for key.
func (p *Params) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// Set stores value under key, keeping the key's original position.
func (p *Params) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.keys)
}

// Len returns the number of keys.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	c := NewParams()
	for _, k := range p.Keys() {
		c.Set(k, p.values[k])
	}
	return c
}

// Merge copies every entry of other into p, overriding existing keys.
func (p *Params) Merge(other *Params) {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		p.Set(k, v)
	}
}

func (p *Params) String() string {
	var b strings.Builder
	for i, k := range p.Keys() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p.values[k])
	}
	return b.String()
}

// ParseParams builds a configuration from key=value pairs.
func ParseParams(pairs []string) (*Params, error) {
	p := NewParams()
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Wrapf(ErrInvalidParams, "expected key=value, got %q", pair)
		}
		p.Set(key, strings.TrimSpace(value))
	}
	return p, nil
}

// LoadParams reads a flat YAML mapping of scalar values. Key order is
// preserved.
func LoadParams(r io.Reader) (*Params, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewParams(), nil
		}
		return nil, errors.Wrap(err, "decode training parameters")
	}
	p := NewParams()
	if len(doc.Content) == 0 {
		return p, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Wrapf(ErrInvalidParams, "line %d: expected a mapping", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, errors.Wrapf(ErrInvalidParams, "line %d: value of %q must be a scalar", val.Line, key.Value)
		}
		p.Set(key.Value, val.Value)
	}
	return p, nil
}
