/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamic

import (
	stderrors "errors"
	"reflect"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitybind/dynamic/internal/fixtures/north"
	"github.com/suparena/entitybind/dynamic/internal/fixtures/south"
	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/lifecycle"
)

func counterShape() *Shape {
	return &Shape{
		Name: "Counter",
		Properties: []PropertySpec{
			{Name: "Count", Type: reflect.TypeFor[int](), Bindable: true, Validate: "gte=0,lte=10"},
			{Name: "Label", Type: reflect.TypeFor[string](), Default: "counter", Bindable: true},
			{Name: "Hidden", Type: reflect.TypeFor[bool]()},
		},
		Commands: []CommandSpec{
			{
				Name: "Increment",
				Execute: func(o *Object, _ any) error {
					n, err := o.Get("Count")
					if err != nil {
						return err
					}
					return o.Set("Count", n.(int)+1)
				},
				CanExecute: func(o *Object, _ any) bool {
					n, _ := o.Get("Count")
					return n.(int) < 10
				},
			},
		},
	}
}

func newTestFactory(t *testing.T) (*Factory, *lifecycle.Tracker) {
	t.Helper()
	tr := lifecycle.New(lifecycle.WithInterval(time.Hour))
	t.Cleanup(tr.Stop)
	return NewFactory(tr), tr
}

func TestBuildDeclaredShape(t *testing.T) {
	f, tr := newTestFactory(t)

	first, err := f.Build(counterShape())
	require.NoError(t, err)
	second, err := f.Build(counterShape())
	require.NoError(t, err)

	t.Run("SameGeneratedTypeDistinctInstances", func(t *testing.T) {
		assert.NotSame(t, first, second)
		assert.NotEqual(t, first.ID(), second.ID())
		assert.Same(t, first.Descriptor(), second.Descriptor())
		assert.Equal(t, first.Type(), second.Type())
		assert.Equal(t, reflect.Struct, first.Type().Kind())
		assert.Len(t, f.Descriptors(), 1)
	})

	t.Run("GeneratedStructCarriesProperties", func(t *testing.T) {
		field, ok := first.Type().FieldByName("Count")
		require.True(t, ok)
		assert.Equal(t, reflect.TypeFor[int](), field.Type)
		assert.Equal(t, "gte=0,lte=10", field.Tag.Get("validate"))
		assert.Equal(t, []string{"Count", "Label", "Hidden"}, first.Properties())
	})

	t.Run("DefaultsApplied", func(t *testing.T) {
		label, err := first.Get("Label")
		require.NoError(t, err)
		assert.Equal(t, "counter", label)
	})

	t.Run("EveryObjectIsTracked", func(t *testing.T) {
		assert.Equal(t, 2, tr.Len())
		assert.Equal(t, 2, f.LiveInstances("Counter"))
	})
}

func TestPropertyChanged(t *testing.T) {
	f, _ := newTestFactory(t)
	obj, err := f.Build(counterShape())
	require.NoError(t, err)

	var events []PropertyChanged
	unsubscribe := obj.Subscribe(func(e PropertyChanged) {
		events = append(events, e)
	})

	require.NoError(t, obj.Set("Count", 3))
	require.Len(t, events, 1, "notification is synchronous")
	assert.Equal(t, "Count", events[0].Property)
	assert.Equal(t, 0, events[0].Old)
	assert.Equal(t, 3, events[0].New)
	assert.Same(t, obj, events[0].Source)
	assert.True(t, obj.Dirty())

	t.Run("UnchangedValueIsSilent", func(t *testing.T) {
		require.NoError(t, obj.Set("Count", 3))
		assert.Len(t, events, 1)
	})

	t.Run("NonBindableIsSilent", func(t *testing.T) {
		require.NoError(t, obj.Set("Hidden", true))
		assert.Len(t, events, 1)
		v, _ := obj.Get("Hidden")
		assert.Equal(t, true, v)
	})

	t.Run("TypeMismatchRejected", func(t *testing.T) {
		err := obj.Set("Count", "three")
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("ValidationRuleRejected", func(t *testing.T) {
		err := obj.Set("Count", 42)
		assert.True(t, errors.IsValidationError(err))
		v, _ := obj.Get("Count")
		assert.Equal(t, 3, v)
	})

	t.Run("UnknownProperty", func(t *testing.T) {
		_, err := obj.Get("Nope")
		assert.ErrorIs(t, err, errors.ErrUnknownProperty)
		assert.ErrorIs(t, obj.Set("Nope", 1), errors.ErrUnknownProperty)
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		unsubscribe()
		unsubscribe()
		require.NoError(t, obj.Set("Count", 4))
		assert.Len(t, events, 1)
	})

	t.Run("AcceptChanges", func(t *testing.T) {
		obj.AcceptChanges()
		assert.False(t, obj.Dirty())
	})
}

func TestCommands(t *testing.T) {
	f, _ := newTestFactory(t)
	obj, err := f.Build(counterShape())
	require.NoError(t, err)

	assert.Equal(t, []string{"Increment"}, obj.Commands())
	cmd, ok := obj.Command("Increment")
	require.True(t, ok)
	assert.Equal(t, "Increment", cmd.Name())

	require.NoError(t, obj.Execute("Increment", nil))
	v, _ := obj.Get("Count")
	assert.Equal(t, 1, v)

	require.NoError(t, obj.Set("Count", 10))
	assert.False(t, obj.CanExecute("Increment", nil))
	assert.ErrorIs(t, obj.Execute("Increment", nil), errors.ErrCommandDisabled)
	assert.ErrorIs(t, obj.Execute("Decrement", nil), errors.ErrUnknownCommand)
	assert.False(t, obj.CanExecute("Decrement", nil))
}

func TestUnsupportedShapes(t *testing.T) {
	f, _ := newTestFactory(t)
	intType := reflect.TypeFor[int]()

	tests := []struct {
		name  string
		shape *Shape
	}{
		{"nil shape", nil},
		{"no name", &Shape{Properties: []PropertySpec{{Name: "A", Type: intType}}}},
		{"no properties", &Shape{Name: "Empty"}},
		{"unexported name", &Shape{Name: "S", Properties: []PropertySpec{{Name: "count", Type: intType}}}},
		{"invalid identifier", &Shape{Name: "S", Properties: []PropertySpec{{Name: "Has Space", Type: intType}}}},
		{"nil type", &Shape{Name: "S", Properties: []PropertySpec{{Name: "A"}}}},
		{"duplicate property", &Shape{Name: "S", Properties: []PropertySpec{{Name: "A", Type: intType}, {Name: "A", Type: intType}}}},
		{"bad default", &Shape{Name: "S", Properties: []PropertySpec{{Name: "A", Type: intType, Default: "x"}}}},
		{"command without body", &Shape{Name: "S", Properties: []PropertySpec{{Name: "A", Type: intType}}, Commands: []CommandSpec{{Name: "Go"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Build(tt.shape)
			assert.True(t, errors.IsUnsupportedShape(err), "got %v", err)
		})
	}

	t.Run("ConflictingRedefinition", func(t *testing.T) {
		_, err := f.Build(&Shape{Name: "Twice", Properties: []PropertySpec{{Name: "A", Type: intType}}})
		require.NoError(t, err)
		_, err = f.Build(&Shape{Name: "Twice", Properties: []PropertySpec{{Name: "B", Type: intType}}})
		assert.True(t, errors.IsUnsupportedShape(err))
	})

	t.Run("NonStruct", func(t *testing.T) {
		_, err := f.BuildFor(intType)
		assert.True(t, errors.IsUnsupportedShape(err))
		_, err = ShapeOf(nil)
		assert.True(t, errors.IsUnsupportedShape(err))
	})
}

type editor struct {
	Title    string `validate:"required"`
	Body     string
	Revision int    `bind:"readonly"`
	Secret   string `bind:"-"`
	saved    bool
}

func (e *editor) Publish() error {
	if e.Body == "" {
		return stderrors.New("empty body")
	}
	e.Revision++
	e.saved = true
	return nil
}

func (e *editor) CanPublish() bool { return e.Title != "" }

func (e *editor) Rename(title any) { e.Title = title.(string) }

func (e *editor) Summary() string { return e.Title }

func TestDerivedShape(t *testing.T) {
	f, _ := newTestFactory(t)

	obj, err := New[editor](f)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[editor](), obj.Type())
	assert.Equal(t, reflect.TypeFor[editor](), obj.Descriptor().Source())
	assert.Equal(t, []string{"Title", "Body", "Revision"}, obj.Properties())
	assert.Equal(t, []string{"Publish", "Rename"}, obj.Commands())

	again, err := f.BuildFor(reflect.TypeFor[*editor]())
	require.NoError(t, err)
	assert.Same(t, obj.Descriptor(), again.Descriptor())

	var changed []string
	obj.Subscribe(func(e PropertyChanged) { changed = append(changed, e.Property) })

	t.Run("PredicateFromCanMethod", func(t *testing.T) {
		assert.False(t, obj.CanExecute("Publish", nil))
		assert.ErrorIs(t, obj.Execute("Publish", nil), errors.ErrCommandDisabled)
	})

	t.Run("MethodCommandsPublishChanges", func(t *testing.T) {
		require.NoError(t, obj.Execute("Rename", "Draft"))
		assert.Equal(t, []string{"Title"}, changed)

		require.NoError(t, obj.Set("Body", "hello"))
		require.NoError(t, obj.Execute("Publish", nil))
		// Revision is readonly: changed, but not published.
		assert.Equal(t, []string{"Title", "Body"}, changed)
		rev, _ := obj.Get("Revision")
		assert.Equal(t, 1, rev)
		assert.True(t, obj.Value().(*editor).saved)
	})

	t.Run("MethodErrorsPropagate", func(t *testing.T) {
		require.NoError(t, obj.Set("Body", ""))
		assert.EqualError(t, obj.Execute("Publish", nil), "empty body")
	})

	t.Run("ValidateStruct", func(t *testing.T) {
		require.NoError(t, obj.Validate())
		require.NoError(t, obj.Set("Title", "x"))
		obj.Value().(*editor).Title = ""
		assert.True(t, errors.IsValidationError(obj.Validate()))
	})

	t.Run("AssignAndSnapshot", func(t *testing.T) {
		require.NoError(t, obj.Assign(editor{Title: "Assigned", Body: "b", Revision: 7}))
		snap := obj.Snapshot().(editor)
		assert.Equal(t, "Assigned", snap.Title)
		assert.Equal(t, 7, snap.Revision)
		assert.True(t, errors.IsValidationError(obj.Assign(42)))
	})
}

func TestSameNamedTypesFromDifferentPackages(t *testing.T) {
	f, _ := newTestFactory(t)

	n, err := New[north.Depot](f)
	require.NoError(t, err)
	s, err := New[south.Depot](f)
	require.NoError(t, err)

	assert.NotSame(t, n.Descriptor(), s.Descriptor())
	assert.NotEqual(t, n.Descriptor().Name(), s.Descriptor().Name())
	assert.IsType(t, &north.Depot{}, n.Value())
	assert.IsType(t, &south.Depot{}, s.Value())
	assert.Empty(t, n.Commands())
	assert.Equal(t, []string{"Restock"}, s.Commands())

	require.NoError(t, s.Execute("Restock", nil))
	stock, _ := s.Get("Stock")
	assert.Equal(t, 10, stock)
	assert.Len(t, f.Descriptors(), 2)
}

//go:noinline
func buildDetached(t *testing.T, f *Factory) {
	_, err := f.Build(counterShape(), WithMetadata("detached"))
	require.NoError(t, err)
}

func TestLiveInstancesFallAfterCollection(t *testing.T) {
	tr := lifecycle.New(lifecycle.WithInterval(5 * time.Millisecond))
	defer tr.Stop()
	f := NewFactory(tr)

	kept, err := f.Build(counterShape())
	require.NoError(t, err)
	buildDetached(t, f)
	require.Equal(t, 2, f.LiveInstances("Counter"))

	require.Eventually(t, func() bool {
		runtime.GC()
		return f.LiveInstances("Counter") == 1
	}, 5*time.Second, 10*time.Millisecond)
	runtime.KeepAlive(kept)
}

func TestLiveInstancesClearedOnStop(t *testing.T) {
	tr := lifecycle.New(lifecycle.WithInterval(time.Hour))
	f := NewFactory(tr)

	obj, err := f.Build(counterShape())
	require.NoError(t, err)
	require.Equal(t, 1, f.LiveInstances("Counter"))

	tr.Stop()
	assert.Equal(t, 0, f.LiveInstances("Counter"))
	runtime.KeepAlive(obj)
}

func TestConcurrentBuild(t *testing.T) {
	f, tr := newTestFactory(t)

	var wg sync.WaitGroup
	objs := make([]*Object, 32)
	for i := range objs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obj, err := f.Build(counterShape())
			assert.NoError(t, err)
			objs[i] = obj
		}()
	}
	wg.Wait()

	for _, o := range objs[1:] {
		assert.Same(t, objs[0].Descriptor(), o.Descriptor())
	}
	assert.Equal(t, 32, tr.Len())
}

func TestUntrackedWhenTrackerStopped(t *testing.T) {
	tr := lifecycle.New()
	tr.Stop()
	f := NewFactory(tr)

	obj, err := f.Build(counterShape())
	require.NoError(t, err)
	assert.NotNil(t, obj)
	assert.Equal(t, 0, f.LiveInstances("Counter"))
}
