package providers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/confsync/confsync/pkg/values"
)

// YAML encodes trees as YAML documents, one file per tree.
type YAML struct{}

// NewYAML returns the YAML file provider.
func NewYAML() *YAML { return &YAML{} }

// Load reads and decodes the YAML document at path.
func (y *YAML) Load(path string) (values.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return values.Null(), fmt.Errorf("providers: read %s: %w", path, err)
	}
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return values.Null(), fmt.Errorf("providers: parse yaml %s: %w", path, err)
	}
	tree, err := values.FromInterface(normalizeYAML(raw))
	if err != nil {
		return values.Null(), fmt.Errorf("providers: convert yaml %s: %w", path, err)
	}
	return tree, nil
}

// Store encodes tree as YAML and writes it to path.
func (y *YAML) Store(tree values.Value, path string) error {
	data, err := yaml.Marshal(tree.ToInterface())
	if err != nil {
		return fmt.Errorf("providers: marshal yaml %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("providers: write %s: %w", path, err)
	}
	return nil
}

// normalizeYAML rewrites yaml.v3's map[interface{}]interface{} nodes (emitted
// for non-scalar keys and some legacy documents) into string-keyed maps so
// values.FromInterface accepts them.
func normalizeYAML(raw interface{}) interface{} {
	switch x := raw.(type) {
	case map[string]interface{}:
		for k, v := range x {
			x[k] = normalizeYAML(v)
		}
		return x
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, v := range x {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(v)
		}
		return out
	case []interface{}:
		for i, v := range x {
			x[i] = normalizeYAML(v)
		}
		return x
	default:
		return raw
	}
}
