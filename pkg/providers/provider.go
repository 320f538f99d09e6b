package providers

import (
	"path/filepath"
	"strings"

	"github.com/confsync/confsync/pkg/values"
)

// Provider is the encoding collaborator. Load may fail on malformed input;
// the caller's task boundary handles that. Store replaces the document at
// path wholesale.
type Provider interface {
	Load(path string) (values.Value, error)
	Store(tree values.Value, path string) error
}

// ForPath picks a file provider from the path's extension. YAML is the
// default when the extension is unknown.
func ForPath(path string) Provider {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSON()
	default:
		return NewYAML()
	}
}
