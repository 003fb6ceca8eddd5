package tableload

import (
	"fmt"

	"ratetables/internal/convert"
	"ratetables/internal/ratetable"
)

// Record is one converted source row, addressed by output column name.
//
// The typed accessors panic when the name was not declared or was declared
// with a converter of a different type; both are programming errors in a
// Spec, not data errors.
type Record struct {
	Line   int
	values map[string]any
}

func newRecord(line int, values map[string]any) Record {
	return Record{Line: line, values: values}
}

func (r Record) value(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

func get[T any](r Record, name string) T {
	v, ok := r.value(name)
	if !ok {
		panic(fmt.Sprintf("tableload: record has no column %q", name))
	}
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("tableload: column %q is %T, not %T", name, v, t))
	}
	return t
}

func (r Record) Code(name string) string   { return get[string](r, name) }
func (r Record) Int(name string) int       { return get[int](r, name) }
func (r Record) Float(name string) float64 { return get[float64](r, name) }
func (r Record) Bool(name string) bool     { return get[bool](r, name) }

func (r Record) OptionalCode(name string) ratetable.Optional[string] {
	return get[ratetable.Optional[string]](r, name)
}

func (r Record) OptionalBool(name string) ratetable.Optional[bool] {
	return get[ratetable.Optional[bool]](r, name)
}

func (r Record) Frequency(name string) convert.Frequency {
	return get[convert.Frequency](r, name)
}
