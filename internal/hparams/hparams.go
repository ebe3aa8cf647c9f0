// Package hparams captures hyperparameters from config structs.
//
// Models and the trainer embed plain config structs (LR, MaxEpochs, ...).
// Capture reflects over the exported fields and records name→value pairs
// into a Set, which then travels into log lines and checkpoint metadata.
// This replaces hand-maintained attribute bookkeeping: construct the
// config once, capture it once, and the recorded values always match what
// the code actually ran with.
package hparams

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Set is a named collection of hyperparameter values.
type Set map[string]any

// Capture records the exported fields of cfg into a Set, skipping any
// field named in ignore. cfg may be a struct, a pointer to one, or a
// map[string]any. Embedded structs are flattened the way Go promotes
// their fields, with outer fields winning on collision.
//
// Anything else (nil, scalars, slices) yields an empty Set: capture
// never fails, it just has nothing to record.
func Capture(cfg any, ignore ...string) Set {
	out := Set{}
	if cfg == nil {
		return out
	}

	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		skip[name] = true
	}

	if m, ok := cfg.(map[string]any); ok {
		for k, v := range m {
			if !skip[k] {
				out[k] = v
			}
		}
		return out
	}

	v := reflect.ValueOf(cfg)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return out
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return out
	}

	captureStruct(v, skip, out)
	return out
}

func captureStruct(v reflect.Value, skip map[string]bool, out Set) {
	t := v.Type()

	// Embedded structs first, so the outer struct's own fields shadow
	// them just like promoted field access would.
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.Anonymous || !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		for fv.Kind() == reflect.Pointer && !fv.IsNil() {
			fv = fv.Elem()
		}
		if fv.Kind() == reflect.Struct {
			captureStruct(fv, skip, out)
		}
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous || !field.IsExported() || skip[field.Name] {
			continue
		}
		out[field.Name] = v.Field(i).Interface()
	}
}

// Get returns the value recorded under name.
func (s Set) Get(name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}

// Merge returns a new Set holding s's entries overlaid with other's.
// Neither input is modified.
func (s Set) Merge(other Set) Set {
	out := make(Set, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// String renders the set as sorted space-joined "k=v" pairs, the format
// the trainer logs at fit start.
func (s Set) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, s[k])
	}
	return b.String()
}

// MarshalJSON renders the set as a JSON object, for checkpoint metadata.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(s))
}
