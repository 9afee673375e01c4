//Package experiment provides the ordered variable mapping that is handed from the scenario sampler over the
//transformer to the connector
package experiment

import (
	"fmt"
	"strconv"
)

//Kind identifies which of the fields of a Value is in use
type Kind int

const (
	KindScalar Kind = iota
	KindBool
	KindSeries
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindBool:
		return "bool"
	case KindSeries:
		return "series"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

//Value is a scalar number, a boolean or an ordered sequence of numbers
type Value struct {
	kind   Kind
	scalar float64
	flag   bool
	series []float64
}

func Scalar(v float64) Value {
	return Value{kind: KindScalar, scalar: v}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, flag: b}
}

//Series wraps values without copying them
func Series(values []float64) Value {
	return Value{kind: KindSeries, series: values}
}

func (v Value) Kind() Kind {
	return v.kind
}

//Float returns the scalar value, ok is false for other kinds
func (v Value) Float() (float64, bool) {
	if v.kind != KindScalar {
		return 0, false
	}
	return v.scalar, true
}

//Truth returns the boolean value. A scalar counts as true only if it equals 1
func (v Value) Truth() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.flag, true
	case KindScalar:
		return v.scalar == 1, true
	default:
		return false, false
	}
}

//Values returns the series, ok is false for other kinds
func (v Value) Values() ([]float64, bool) {
	if v.kind != KindSeries {
		return nil, false
	}
	return v.series, true
}

//Clone returns a copy that does not share the series backing array
func (v Value) Clone() Value {
	if v.kind != KindSeries {
		return v
	}
	buf := make([]float64, len(v.series))
	copy(buf, v.series)
	return Series(buf)
}

//Cells renders the value as the column of cells written to the input file. Scalars and booleans
//are singleton columns
func (v Value) Cells() []string {
	switch v.kind {
	case KindBool:
		if v.flag {
			return []string{"1"}
		}
		return []string{"0"}
	case KindSeries:
		cells := make([]string, len(v.series))
		for i, x := range v.series {
			cells[i] = FormatFloat(x)
		}
		return cells
	default:
		return []string{FormatFloat(v.scalar)}
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindSeries:
		return fmt.Sprintf("series(len=%d)", len(v.series))
	default:
		return FormatFloat(v.scalar)
	}
}

//FormatFloat uses the shortest representation that parses back to x
func FormatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

//Experiment maps variable names to values and remembers the insertion order, which
//becomes the column order of the input file
type Experiment struct {
	keys   []string
	values map[string]Value
}

func New() *Experiment {
	return &Experiment{values: make(map[string]Value)}
}

//FromScalars is a convenience constructor, keys are added in the given order
func FromScalars(keys []string, values []float64) (*Experiment, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("got %v keys but %v values", len(keys), len(values))
	}
	e := New()
	for i := range keys {
		e.Set(keys[i], Scalar(values[i]))
	}
	return e, nil
}

func (e *Experiment) Len() int {
	return len(e.keys)
}

//Keys returns a copy of the keys in insertion order
func (e *Experiment) Keys() []string {
	buf := make([]string, len(e.keys))
	copy(buf, e.keys)
	return buf
}

func (e *Experiment) Get(key string) (Value, bool) {
	v, ok := e.values[key]
	return v, ok
}

func (e *Experiment) Has(key string) bool {
	_, ok := e.values[key]
	return ok
}

//Set adds key at the end or replaces the value of an existing key in place
func (e *Experiment) Set(key string, v Value) {
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = v
}

//Delete removes key and reports whether it was present
func (e *Experiment) Delete(key string) bool {
	if _, ok := e.values[key]; !ok {
		return false
	}
	delete(e.values, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
	return true
}

//Clone returns a deep copy
func (e *Experiment) Clone() *Experiment {
	c := &Experiment{
		keys:   make([]string, len(e.keys)),
		values: make(map[string]Value, len(e.values)),
	}
	copy(c.keys, e.keys)
	for k, v := range e.values {
		c.values[k] = v.Clone()
	}
	return c
}

//Merge copies all entries of overrides into e. Existing keys keep their position but take the
//value of overrides, new keys are appended in the order of overrides
func (e *Experiment) Merge(overrides *Experiment) {
	for _, k := range overrides.keys {
		e.Set(k, overrides.values[k].Clone())
	}
}

//Range calls f for each entry in insertion order until f returns false
func (e *Experiment) Range(f func(key string, v Value) bool) {
	for _, k := range e.keys {
		if !f(k, e.values[k]) {
			return
		}
	}
}
