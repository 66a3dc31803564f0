package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type SKUQuantities = SKUTable[int]

type SKURevenue = SKUTable[float64]

// SKUTable is a SKU keyed mapping that remembers insertion order. Its JSON
// form is a plain object whose members appear in that order.
type SKUTable[V int | float64] struct {
	keys   []string
	values map[string]V
}

func NewSKUTable[V int | float64]() SKUTable[V] {
	return SKUTable[V]{values: make(map[string]V)}
}

// Set stores v under sku, appending sku to the key order when it is new.
func (t *SKUTable[V]) Set(sku string, v V) {
	if t.values == nil {
		t.values = make(map[string]V)
	}
	if _, ok := t.values[sku]; !ok {
		t.keys = append(t.keys, sku)
	}
	t.values[sku] = v
}

func (t SKUTable[V]) Get(sku string) (V, bool) {
	v, ok := t.values[sku]
	return v, ok
}

func (t SKUTable[V]) Has(sku string) bool {
	_, ok := t.values[sku]
	return ok
}

func (t SKUTable[V]) Len() int {
	return len(t.keys)
}

func (t SKUTable[V]) Keys() []string {
	keys := make([]string, len(t.keys))
	copy(keys, t.keys)
	return keys
}

// Values returns the values in key order.
func (t SKUTable[V]) Values() []V {
	values := make([]V, 0, len(t.keys))
	for _, k := range t.keys {
		values = append(values, t.values[k])
	}
	return values
}

func (t SKUTable[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(t.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the member order of the document and rejects duplicate
// keys, which would make the order ambiguous.
func (t *SKUTable[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sku table: expected object, got %v", tok)
	}

	table := NewSKUTable[V]()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("sku table: expected string key, got %v", tok)
		}
		if table.Has(key) {
			return fmt.Errorf("sku table: duplicate key %q", key)
		}

		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("sku table: value for %q: %w", key, err)
		}
		table.Set(key, v)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = table
	return nil
}
