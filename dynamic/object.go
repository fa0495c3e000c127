/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamic

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/suparena/entitybind/errors"
)

// PropertyChanged is delivered to observers after a bindable property changes
type PropertyChanged struct {
	Source   *Object
	Property string
	Old      any
	New      any
}

// Observer receives property change notifications
type Observer func(PropertyChanged)

// Object is an instance emitted by the Factory
type Object struct {
	id       uuid.UUID
	desc     *Descriptor
	validate *validator.Validate

	mu        sync.RWMutex
	value     reflect.Value // pointer to a desc.generated value
	dirty     bool
	observers map[uint64]Observer
	nextObs   uint64
}

func newObject(d *Descriptor, v *validator.Validate) *Object {
	value := reflect.New(d.generated)
	for _, p := range d.properties {
		if p.def.IsValid() {
			value.Elem().FieldByIndex(p.index).Set(p.def)
		}
	}
	return &Object{
		id:        uuid.New(),
		desc:      d,
		validate:  v,
		value:     value,
		observers: make(map[uint64]Observer),
	}
}

// ID returns the object's unique identifier
func (o *Object) ID() uuid.UUID {
	return o.id
}

// Descriptor returns the shared descriptor of the object's generated type
func (o *Object) Descriptor() *Descriptor {
	return o.desc
}

// Type returns the generated struct type backing the object
func (o *Object) Type() reflect.Type {
	return o.desc.generated
}

// Value returns the pointer to the backing struct.
// Writes through it bypass change notification.
func (o *Object) Value() any {
	return o.value.Interface()
}

// Snapshot returns a copy of the backing struct
func (o *Object) Snapshot() any {
	o.mu.RLock()
	defer o.mu.RUnlock()

	cp := reflect.New(o.desc.generated).Elem()
	cp.Set(o.value.Elem())
	return cp.Interface()
}

// Properties lists the property names in declaration order
func (o *Object) Properties() []string {
	out := make([]string, len(o.desc.properties))
	for i, p := range o.desc.properties {
		out[i] = p.Name
	}
	return out
}

// Get returns the current value of a property
func (o *Object) Get(name string) (any, error) {
	p, ok := o.desc.property(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", errors.ErrUnknownProperty, o.desc.name, name)
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value.Elem().FieldByIndex(p.index).Interface(), nil
}

// Set assigns a property. Observers are notified synchronously, after the
// write, when the property is bindable and the value actually changed.
func (o *Object) Set(name string, value any) error {
	p, ok := o.desc.property(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", errors.ErrUnknownProperty, o.desc.name, name)
	}
	nv, err := assignable(p.Type, value)
	if err != nil {
		return errors.NewValidationError(name, err.Error())
	}
	if p.Validate != "" && o.validate != nil {
		if err := o.validate.Var(nv.Interface(), p.Validate); err != nil {
			return errors.NewValidationError(name, err.Error())
		}
	}

	o.mu.Lock()
	field := o.value.Elem().FieldByIndex(p.index)
	old := field.Interface()
	if reflect.DeepEqual(old, nv.Interface()) {
		o.mu.Unlock()
		return nil
	}
	field.Set(nv)
	o.dirty = true
	var observers []Observer
	if p.Bindable {
		observers = o.observerSnapshot()
	}
	o.mu.Unlock()

	o.notify(observers, []PropertyChanged{{Source: o, Property: name, Old: old, New: nv.Interface()}})
	return nil
}

// Assign copies same-named, assignable fields from src (a struct or pointer
// to struct) through Set, so observers see each change.
func (o *Object) Assign(src any) error {
	v := reflect.ValueOf(src)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return errors.NewValidationError("", "nil source")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.NewValidationError("", fmt.Sprintf("cannot assign from %T", src))
	}

	for _, p := range o.desc.properties {
		sf, ok := v.Type().FieldByName(p.Name)
		if !ok || !sf.IsExported() || !sf.Type.AssignableTo(p.Type) {
			continue
		}
		if err := o.Set(p.Name, v.FieldByIndex(sf.Index).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every validate rule of the backing struct
func (o *Object) Validate() error {
	if o.validate == nil {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if err := o.validate.Struct(o.value.Interface()); err != nil {
		return errors.NewValidationError("", err.Error())
	}
	return nil
}

// Dirty reports whether any property changed since creation or AcceptChanges
func (o *Object) Dirty() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.dirty
}

// AcceptChanges clears the dirty flag
func (o *Object) AcceptChanges() {
	o.mu.Lock()
	o.dirty = false
	o.mu.Unlock()
}

// Subscribe registers an observer and returns a function that removes it
func (o *Object) Subscribe(fn Observer) func() {
	if fn == nil {
		return func() {}
	}
	o.mu.Lock()
	id := o.nextObs
	o.nextObs++
	o.observers[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.observers, id)
			o.mu.Unlock()
		})
	}
}

// observerSnapshot returns observers in subscription order; callers hold mu
func (o *Object) observerSnapshot() []Observer {
	if len(o.observers) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(o.observers))
	for id := range o.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Observer, len(ids))
	for i, id := range ids {
		out[i] = o.observers[id]
	}
	return out
}

func (o *Object) notify(observers []Observer, events []PropertyChanged) {
	for _, e := range events {
		for _, fn := range observers {
			fn(e)
		}
	}
}

// Commands lists the object's command names
func (o *Object) Commands() []string {
	return o.desc.Commands()
}

// Command returns a handle bound to this object, as a UI binding would hold it
func (o *Object) Command(name string) (*Command, bool) {
	i, ok := o.desc.cmdByName[name]
	if !ok {
		return nil, false
	}
	return &Command{obj: o, spec: o.desc.commands[i].spec}, true
}

// CanExecute evaluates a command's predicate; commands without one can always run
func (o *Object) CanExecute(name string, arg any) bool {
	cmd, ok := o.Command(name)
	return ok && cmd.CanExecute(arg)
}

// Execute runs a command after checking its predicate
func (o *Object) Execute(name string, arg any) error {
	cmd, ok := o.Command(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", errors.ErrUnknownCommand, o.desc.name, name)
	}
	return cmd.Execute(arg)
}

// Command is an invocable operation bound to one object
type Command struct {
	obj  *Object
	spec CommandSpec
}

// Name returns the command name
func (c *Command) Name() string {
	return c.spec.Name
}

// CanExecute evaluates the predicate for arg
func (c *Command) CanExecute(arg any) bool {
	if c.spec.CanExecute == nil {
		return true
	}
	if c.spec.direct {
		c.obj.mu.RLock()
		defer c.obj.mu.RUnlock()
	}
	return c.spec.CanExecute(c.obj, arg)
}

// Execute runs the command. Method-backed commands write the backing struct
// directly, so their property changes are diffed and published afterwards.
func (c *Command) Execute(arg any) error {
	if !c.CanExecute(arg) {
		return fmt.Errorf("%w: %s.%s", errors.ErrCommandDisabled, c.obj.desc.name, c.spec.Name)
	}
	if !c.spec.direct {
		return c.spec.Execute(c.obj, arg)
	}

	o := c.obj
	o.mu.Lock()
	before := o.propertyValues()
	err := c.spec.Execute(o, arg)
	var events []PropertyChanged
	for i, p := range o.desc.properties {
		now := o.value.Elem().FieldByIndex(p.index).Interface()
		if reflect.DeepEqual(before[i], now) {
			continue
		}
		o.dirty = true
		if p.Bindable {
			events = append(events, PropertyChanged{Source: o, Property: p.Name, Old: before[i], New: now})
		}
	}
	var observers []Observer
	if len(events) > 0 {
		observers = o.observerSnapshot()
	}
	o.mu.Unlock()

	o.notify(observers, events)
	return err
}

// propertyValues copies current property values; callers hold mu
func (o *Object) propertyValues() []any {
	out := make([]any, len(o.desc.properties))
	for i, p := range o.desc.properties {
		f := o.value.Elem().FieldByIndex(p.index)
		cp := reflect.New(f.Type()).Elem()
		cp.Set(f)
		out[i] = cp.Interface()
	}
	return out
}
