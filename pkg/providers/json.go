package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/confsync/confsync/pkg/values"
)

// JSON encodes trees as JSON documents, one file per tree. Numbers are
// decoded through json.Number so integer values stay integers instead of
// collapsing to float64.
type JSON struct{}

// NewJSON returns the JSON file provider.
func NewJSON() *JSON { return &JSON{} }

// Load reads and decodes the JSON document at path.
func (j *JSON) Load(path string) (values.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return values.Null(), fmt.Errorf("providers: read %s: %w", path, err)
	}
	return DecodeJSON(data)
}

// Store encodes tree as indented JSON and writes it to path.
func (j *JSON) Store(tree values.Value, path string) error {
	data, err := EncodeJSON(tree)
	if err != nil {
		return fmt.Errorf("providers: marshal json %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("providers: write %s: %w", path, err)
	}
	return nil
}

// DecodeJSON parses a JSON document into a tree.
func DecodeJSON(data []byte) (values.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return values.Null(), fmt.Errorf("providers: parse json: %w", err)
	}
	tree, err := values.FromInterface(normalizeJSON(raw))
	if err != nil {
		return values.Null(), fmt.Errorf("providers: convert json: %w", err)
	}
	return tree, nil
}

// EncodeJSON serializes a tree as indented JSON.
func EncodeJSON(tree values.Value) ([]byte, error) {
	data, err := json.MarshalIndent(tree.ToInterface(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// normalizeJSON resolves json.Number nodes to int64 where the literal has no
// fraction or exponent, float64 otherwise.
func normalizeJSON(raw interface{}) interface{} {
	switch x := raw.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case map[string]interface{}:
		for k, v := range x {
			x[k] = normalizeJSON(v)
		}
		return x
	case []interface{}:
		for i, v := range x {
			x[i] = normalizeJSON(v)
		}
		return x
	default:
		return raw
	}
}
