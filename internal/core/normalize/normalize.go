// Package normalize reshapes raw Alpha Vantage payloads into stable records.
//
// Every function here is pure. Provider ordering of object keys is preserved.
package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/vantagegate/vantagegate/internal/core"
)

// Func converts a raw payload into a normalized result.
type Func func(core.Payload) (any, error)

// Field is one projected key/value pair.
type Field struct {
	Key   string
	Value string
}

// Record is a flat string record that marshals with its fields in declaration order.
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Mapping renames a provider field In to an output field Out.
type Mapping struct {
	Out string
	In  string
}

// project copies the mapped fields that exist in v.
func project(v gjson.Result, mappings []Mapping) Record {
	rec := make(Record, 0, len(mappings))
	for _, m := range mappings {
		value := get(v, m.In)
		if !value.Exists() {
			continue
		}
		rec = append(rec, Field{Key: m.Out, Value: value.String()})
	}
	return rec
}

func get(v gjson.Result, key string) gjson.Result {
	return v.Get(gjson.Escape(key))
}

func str(v gjson.Result, key string) string {
	return get(v, key).String()
}

// firstOf returns the first present field among keys.
func firstOf(v gjson.Result, keys ...string) string {
	for _, key := range keys {
		if value := get(v, key); value.Exists() {
			return value.String()
		}
	}
	return ""
}

func object(p core.Payload, key string) (gjson.Result, error) {
	v := p.Get(key)
	if !v.Exists() || !v.IsObject() {
		return gjson.Result{}, missing(key)
	}
	return v, nil
}

func array(p core.Payload, key string) (gjson.Result, error) {
	v := p.Get(key)
	if !v.Exists() || !v.IsArray() {
		return gjson.Result{}, missing(key)
	}
	return v, nil
}

// entries walks an object's members in document order.
func entries(v gjson.Result, fn func(key string, value gjson.Result)) {
	v.ForEach(func(key, value gjson.Result) bool {
		fn(key.String(), value)
		return true
	})
}

// limited returns up to n elements of an array, or nil when v is absent.
func limited(v gjson.Result, n int) []gjson.Result {
	if !v.IsArray() {
		return nil
	}
	items := v.Array()
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

func missing(key string) error {
	return &core.NormalizationError{ExpectedKey: key}
}

// PassThrough returns the payload unchanged.
func PassThrough(p core.Payload) (any, error) {
	if len(p) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(p), nil
}
