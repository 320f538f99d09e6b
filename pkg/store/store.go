package store

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/confsync/confsync/pkg/providers"
	"github.com/confsync/confsync/pkg/schema"
)

// Store is the per-instance façade over a compiled conversion plan. One
// Store owns exactly one struct instance; the plan itself is shared with
// every other instance of the same type.
type Store struct {
	desc   *schema.TypeDescriptor
	ptr    interface{}   // the *T the store was built from
	target reflect.Value // addressable struct value behind ptr
	mu     sync.RWMutex
	log    zerolog.Logger
	check  *validator.Validate
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogger routes conversion warnings to log instead of the default
// silent logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithValidation runs go-playground/validator struct validation after every
// successful load. Violations are logged as warnings, never returned: a
// config that fails validation still loads, field by field.
func WithValidation() Option {
	return func(s *Store) { s.check = validator.New() }
}

// New builds a Store for target, which must be a non-nil pointer to struct.
// The type's conversion plan is compiled on first use and cached; a plan
// build failure surfaces here.
func New(target interface{}, opts ...Option) (*Store, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("store: target must be a non-nil pointer to struct, got %T", target)
	}

	desc, err := schema.DescriptorFor(rv.Type())
	if err != nil {
		return nil, err
	}

	s := &Store{
		desc:   desc,
		ptr:    target,
		target: rv.Elem(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Descriptor exposes the compiled plan backing this store.
func (s *Store) Descriptor() *schema.TypeDescriptor { return s.desc }

// Target returns the managed instance pointer.
func (s *Store) Target() interface{} { return s.ptr }

// WriteTo encodes the instance into a tree and hands it to the provider.
// The instance lock is held shared: encoding only reads the graph, so
// concurrent application reads may proceed, but no load can run underneath.
// A type with a BeforeSave hook takes the exclusive lock instead: the hook
// mutates the instance, and a direct save may run concurrently with the
// background queue's.
func (s *Store) WriteTo(p providers.Provider, path string) error {
	if s.desc.HasBeforeSave {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.ptr.(schema.BeforeSaver).BeforeSave()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	tree, err := s.desc.Encode(s.target)
	if err != nil {
		return err
	}
	return p.Store(tree, path)
}

// ReadFrom fetches the tree from the provider and decodes it into the
// instance under the exclusive lock. Members absent from the tree keep their
// current values; members with mismatched kinds are logged and skipped.
func (s *Store) ReadFrom(p providers.Provider, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := p.Load(path)
	if err != nil {
		return err
	}

	if err := s.desc.Decode(s.target, tree, s.log); err != nil {
		return err
	}

	if s.desc.HasAfterLoad {
		s.ptr.(schema.AfterLoader).AfterLoad()
	}

	if s.check != nil {
		if err := s.check.Struct(s.ptr); err != nil {
			s.log.Warn().Err(err).Str("type", s.desc.Type.Name()).Msg("Loaded config failed validation")
		}
	}
	return nil
}
