package schema

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

type basicConfig struct {
	Name    string
	Count   int  `conf:"count"`
	Debug   bool `conf:"debug,readonly"`
	hidden  int
	Skipped string `conf:"-"`
}

func TestBuildMembers(t *testing.T) {
	desc, err := DescriptorFor(reflect.TypeOf(basicConfig{}))
	if err != nil {
		t.Fatalf("DescriptorFor: %v", err)
	}

	if len(desc.Members) != 4 {
		t.Fatalf("got %d members, want 4 (unexported field excluded)", len(desc.Members))
	}

	byField := map[string]*MemberDescriptor{}
	for _, m := range desc.Members {
		byField[m.FieldName] = m
	}

	if m := byField["Name"]; m.Name != "Name" || m.Ignored || m.ReadOnly {
		t.Errorf("Name member misbuilt: %+v", m)
	}
	if m := byField["Count"]; m.Name != "count" {
		t.Errorf("Count serialized name = %q, want %q", m.Name, "count")
	}
	if m := byField["Debug"]; !m.ReadOnly {
		t.Error("Debug should be readonly")
	}
	if m := byField["Skipped"]; !m.Ignored {
		t.Error("Skipped should be ignored")
	}
}

func TestDescriptorCached(t *testing.T) {
	a, err := DescriptorFor(reflect.TypeOf(basicConfig{}))
	if err != nil {
		t.Fatal(err)
	}
	b, err := DescriptorFor(reflect.TypeOf(&basicConfig{}))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("struct and pointer requests should share one cached descriptor")
	}
}

func TestDescriptorForNonStruct(t *testing.T) {
	if _, err := DescriptorFor(reflect.TypeOf(42)); !errors.Is(err, ErrNotStruct) {
		t.Errorf("got %v, want ErrNotStruct", err)
	}
}

type concurrentTarget struct {
	A int
	B string
	C []float64
}

// TestConcurrentBuildIdempotent verifies that many first-time requests for
// the same type resolve to exactly one underlying build.
func TestConcurrentBuildIdempotent(t *testing.T) {
	const goroutines = 32

	var wg sync.WaitGroup
	results := make([]*TypeDescriptor, goroutines)
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			desc, err := DescriptorFor(reflect.TypeOf(concurrentTarget{}))
			if err != nil {
				t.Errorf("DescriptorFor: %v", err)
				return
			}
			results[i] = desc
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d observed a different descriptor", i)
		}
	}
}

type withProperties struct {
	Level int
}

func (w *withProperties) GetLevel() int  { return w.Level * 2 }
func (w *withProperties) SetLevel(v int) { w.Level = v / 2 }

func TestPropertyAccessors(t *testing.T) {
	desc, err := DescriptorFor(reflect.TypeOf(withProperties{}))
	if err != nil {
		t.Fatalf("DescriptorFor: %v", err)
	}

	m := desc.Members[0]
	if _, ok := m.acc.(propertyAccessor); !ok {
		t.Fatalf("Level should use the property accessor, got %T", m.acc)
	}

	w := withProperties{Level: 5}
	inst := reflect.ValueOf(&w).Elem()
	got := m.acc.get(inst)
	if got.Int() != 10 {
		t.Errorf("property get = %d, want 10", got.Int())
	}
	m.acc.set(inst, reflect.ValueOf(10))
	if w.Level != 5 {
		t.Errorf("property set left Level = %d, want 5", w.Level)
	}
}

type setterOnly struct {
	Value int
}

func (s *setterOnly) SetValue(v int) { s.Value = v }

type getterOnly struct {
	Value int
}

func (g *getterOnly) GetValue() int { return g.Value }

type getterOnlyReadOnly struct {
	Value int `conf:"value,readonly"`
}

func (g *getterOnlyReadOnly) GetValue() int { return g.Value }

func TestAccessorInvariants(t *testing.T) {
	if _, err := DescriptorFor(reflect.TypeOf(setterOnly{})); !errors.Is(err, ErrMissingGetter) {
		t.Errorf("setter without getter: got %v, want ErrMissingGetter", err)
	}
	if _, err := DescriptorFor(reflect.TypeOf(getterOnly{})); !errors.Is(err, ErrMissingSetter) {
		t.Errorf("getter without setter: got %v, want ErrMissingSetter", err)
	}
	if _, err := DescriptorFor(reflect.TypeOf(getterOnlyReadOnly{})); err != nil {
		t.Errorf("readonly getter-only member should build, got %v", err)
	}
}

type unsupportedMember struct {
	C chan int
}

func TestUnsupportedMemberType(t *testing.T) {
	if _, err := DescriptorFor(reflect.TypeOf(unsupportedMember{})); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("got %v, want ErrUnsupportedType", err)
	}
}

type hooked struct {
	N int
}

func (h *hooked) BeforeSave() { h.N++ }
func (h *hooked) AfterLoad()  { h.N++ }

func TestHookDetection(t *testing.T) {
	desc, err := DescriptorFor(reflect.TypeOf(hooked{}))
	if err != nil {
		t.Fatal(err)
	}
	if !desc.HasBeforeSave || !desc.HasAfterLoad {
		t.Errorf("hooks not detected: before=%v after=%v", desc.HasBeforeSave, desc.HasAfterLoad)
	}

	plain, err := DescriptorFor(reflect.TypeOf(basicConfig{}))
	if err != nil {
		t.Fatal(err)
	}
	if plain.HasBeforeSave || plain.HasAfterLoad {
		t.Error("plain type should have no hooks")
	}
}
