/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitybind

import (
	"context"
	"reflect"

	"github.com/suparena/entitybind/dynamic"
)

// Commands added to every view model
const (
	CommandSave   = "Save"
	CommandDelete = "Delete"
	CommandReload = "Reload"
)

// ViewModel is a bindable object holding one entity of type T. Its shape is
// T's derived shape extended with Save, Delete and Reload, which delegate to
// T's CrudService as resolved when the command runs. Commands take an optional
// context.Context argument.
type ViewModel[T any] struct {
	*dynamic.Object
}

// ViewModelFor builds a view model loaded from entity; a nil entity leaves
// every property at its zero value.
func ViewModelFor[T any](rt *Runtime, entity *T) (*ViewModel[T], error) {
	svc, err := ServiceFor[T](rt)
	if err != nil {
		return nil, err
	}
	base, err := rt.factory.ShapeOf(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}

	shape := base.Extend(base.Name+"ViewModel", viewModelCommands[T](rt)...)
	obj, err := rt.factory.Build(shape, dynamic.WithMetadata(svc.descriptor))
	if err != nil {
		return nil, err
	}
	if entity != nil {
		if err := obj.Assign(entity); err != nil {
			return nil, err
		}
	}
	obj.AcceptChanges()
	return &ViewModel[T]{Object: obj}, nil
}

// Entity copies the current property values into a T
func (vm *ViewModel[T]) Entity() T {
	return entityOf[T](vm.Object)
}

// Save runs the Save command
func (vm *ViewModel[T]) Save(ctx context.Context) error {
	return vm.Execute(CommandSave, ctx)
}

// Delete runs the Delete command
func (vm *ViewModel[T]) Delete(ctx context.Context) error {
	return vm.Execute(CommandDelete, ctx)
}

// Reload runs the Reload command
func (vm *ViewModel[T]) Reload(ctx context.Context) error {
	return vm.Execute(CommandReload, ctx)
}

// viewModelCommands resolves the service on every execution so a replaced
// CrudService is picked up by view models built before the replacement.
func viewModelCommands[T any](rt *Runtime) []dynamic.CommandSpec {
	keyOf := func(svc *CrudService[T], obj *dynamic.Object) (any, error) {
		return svc.Key(entityOf[T](obj))
	}

	return []dynamic.CommandSpec{
		{
			Name: CommandSave,
			Execute: func(obj *dynamic.Object, arg any) error {
				svc, err := ServiceFor[T](rt)
				if err != nil {
					return err
				}
				if err := svc.Save(contextArg(arg), entityOf[T](obj)); err != nil {
					return err
				}
				obj.AcceptChanges()
				return nil
			},
			CanExecute: func(obj *dynamic.Object, _ any) bool {
				return obj.Dirty()
			},
		},
		{
			Name: CommandDelete,
			Execute: func(obj *dynamic.Object, arg any) error {
				svc, err := ServiceFor[T](rt)
				if err != nil {
					return err
				}
				key, err := keyOf(svc, obj)
				if err != nil {
					return err
				}
				return svc.Delete(contextArg(arg), key)
			},
		},
		{
			Name: CommandReload,
			Execute: func(obj *dynamic.Object, arg any) error {
				svc, err := ServiceFor[T](rt)
				if err != nil {
					return err
				}
				key, err := keyOf(svc, obj)
				if err != nil {
					return err
				}
				entity, err := svc.Get(contextArg(arg), key)
				if err != nil {
					return err
				}
				if err := obj.Assign(entity); err != nil {
					return err
				}
				obj.AcceptChanges()
				return nil
			},
		},
	}
}

func contextArg(arg any) context.Context {
	if ctx, ok := arg.(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}

// entityOf copies same-named fields of obj's snapshot into a T
func entityOf[T any](obj *dynamic.Object) T {
	var out T
	dst := reflect.ValueOf(&out).Elem()
	src := reflect.ValueOf(obj.Snapshot())
	for _, name := range obj.Properties() {
		f := dst.FieldByName(name)
		if !f.IsValid() || !f.CanSet() {
			continue
		}
		v := src.FieldByName(name)
		if v.IsValid() && v.Type().AssignableTo(f.Type()) {
			f.Set(v)
		}
	}
	return out
}
