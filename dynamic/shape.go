/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamic

import (
	"fmt"
	"go/token"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/suparena/entitybind/errors"
)

// CommandFunc runs a command against obj with an optional argument
type CommandFunc func(obj *Object, arg any) error

// PredicateFunc decides whether a command may run
type PredicateFunc func(obj *Object, arg any) bool

// PropertySpec declares one property of a shape
type PropertySpec struct {
	Name     string
	Type     reflect.Type
	Default  any
	Bindable bool
	// Validate is a go-playground/validator rule applied on Set
	Validate string

	index []int
}

// CommandSpec declares one command of a shape
type CommandSpec struct {
	Name       string
	Execute    CommandFunc
	CanExecute PredicateFunc

	// direct commands mutate the backing struct without going through Set
	direct bool
}

// Shape is the set of properties and commands a generated type implements
type Shape struct {
	Name       string
	Properties []PropertySpec
	Commands   []CommandSpec

	// source is set for shapes derived from a Go struct
	source reflect.Type
}

// Source returns the struct type a derived shape was built from, or nil
func (s *Shape) Source() reflect.Type {
	return s.source
}

// Extend returns a copy of s under a new name with additional commands
func (s *Shape) Extend(name string, commands ...CommandSpec) *Shape {
	out := &Shape{
		Name:       name,
		Properties: append([]PropertySpec(nil), s.Properties...),
		Commands:   append(append([]CommandSpec(nil), s.Commands...), commands...),
		source:     s.source,
	}
	return out
}

// signature identifies the structural content of a shape for cache checks
func (s *Shape) signature() string {
	var b strings.Builder
	if s.source != nil {
		b.WriteString(typeKey(s.source))
	}
	b.WriteString("{")
	for _, p := range s.Properties {
		fmt.Fprintf(&b, "%s:%v:%t:%s;", p.Name, p.Type, p.Bindable, p.Validate)
	}
	b.WriteString("}[")
	for _, c := range s.Commands {
		b.WriteString(c.Name)
		b.WriteString(";")
	}
	b.WriteString("]")
	return b.String()
}

func (s *Shape) validate() error {
	if s == nil {
		return errors.NewUnsupportedShapeError("", "nil shape")
	}
	if s.Name == "" {
		return errors.NewUnsupportedShapeError("", "shape has no name")
	}
	if len(s.Properties) == 0 {
		return errors.NewUnsupportedShapeError(s.Name, "no properties")
	}

	seen := make(map[string]struct{}, len(s.Properties))
	for _, p := range s.Properties {
		if !isExportedIdent(p.Name) {
			return errors.NewUnsupportedShapeError(s.Name, fmt.Sprintf("property name %q is not an exported identifier", p.Name))
		}
		if _, dup := seen[p.Name]; dup {
			return errors.NewUnsupportedShapeError(s.Name, fmt.Sprintf("duplicate property %q", p.Name))
		}
		seen[p.Name] = struct{}{}
		if p.Type == nil {
			return errors.NewUnsupportedShapeError(s.Name, fmt.Sprintf("property %q has no type", p.Name))
		}
		if p.Default != nil && !reflect.TypeOf(p.Default).AssignableTo(p.Type) {
			return errors.NewUnsupportedShapeError(s.Name, fmt.Sprintf("default of %q is %T, not %v", p.Name, p.Default, p.Type))
		}
	}

	cmds := make(map[string]struct{}, len(s.Commands))
	for _, c := range s.Commands {
		if c.Name == "" || c.Execute == nil {
			return errors.NewUnsupportedShapeError(s.Name, "command without name or body")
		}
		if _, dup := cmds[c.Name]; dup {
			return errors.NewUnsupportedShapeError(s.Name, fmt.Sprintf("duplicate command %q", c.Name))
		}
		cmds[c.Name] = struct{}{}
	}
	return nil
}

func isExportedIdent(name string) bool {
	if !token.IsIdentifier(name) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

var errorType = reflect.TypeFor[error]()

// typeKey names t by its full import path so same-named types from
// different packages derive distinct shapes
func typeKey(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// ShapeOf derives a shape from a struct type (or pointer to struct).
//
// Exported fields become properties; the bind tag controls them:
// bind:"-" skips a field and bind:"readonly" turns off change notification.
// A validate tag is copied as the property's rule. Pointer methods taking at
// most one argument and returning nothing or an error become commands; a
// method CanX returning bool is the can-execute predicate of command X.
func ShapeOf(t reflect.Type) (*Shape, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		name := ""
		if t != nil {
			name = t.String()
		}
		return nil, errors.NewUnsupportedShapeError(name, "not a struct type")
	}

	shape := &Shape{Name: typeKey(t), source: t}
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("bind")
		if tag == "-" {
			continue
		}
		shape.Properties = append(shape.Properties, PropertySpec{
			Name:     f.Name,
			Type:     f.Type,
			Bindable: tag != "readonly",
			Validate: f.Tag.Get("validate"),
			index:    f.Index,
		})
	}

	pt := reflect.PointerTo(t)
	predicates := make(map[string]reflect.Method)
	var commands []reflect.Method
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		switch {
		case isPredicate(m):
			predicates[m.Name] = m
		case isCommand(m):
			commands = append(commands, m)
		}
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].Name < commands[j].Name })

	for _, m := range commands {
		spec := CommandSpec{Name: m.Name, Execute: methodCommand(m), direct: true}
		if p, ok := predicates["Can"+m.Name]; ok {
			spec.CanExecute = methodPredicate(p)
		}
		shape.Commands = append(shape.Commands, spec)
	}

	if err := shape.validate(); err != nil {
		return nil, err
	}
	return shape, nil
}

// ShapeFor is the generic form of ShapeOf
func ShapeFor[T any]() (*Shape, error) {
	return ShapeOf(reflect.TypeFor[T]())
}

// method types include the receiver as the first input
func isCommand(m reflect.Method) bool {
	mt := m.Type
	if mt.NumIn() > 2 || mt.IsVariadic() {
		return false
	}
	switch mt.NumOut() {
	case 0:
		return true
	case 1:
		return mt.Out(0) == errorType
	}
	return false
}

func isPredicate(m reflect.Method) bool {
	mt := m.Type
	return strings.HasPrefix(m.Name, "Can") && len(m.Name) > 3 &&
		mt.NumIn() <= 2 && !mt.IsVariadic() &&
		mt.NumOut() == 1 && mt.Out(0).Kind() == reflect.Bool
}

func methodArgs(m reflect.Method, obj *Object, arg any) ([]reflect.Value, error) {
	in := []reflect.Value{obj.value}
	if m.Type.NumIn() == 2 {
		pt := m.Type.In(1)
		av, err := assignable(pt, arg)
		if err != nil {
			return nil, errors.NewValidationError(m.Name, err.Error())
		}
		in = append(in, av)
	}
	return in, nil
}

func methodCommand(m reflect.Method) CommandFunc {
	return func(obj *Object, arg any) error {
		in, err := methodArgs(m, obj, arg)
		if err != nil {
			return err
		}
		out := m.Func.Call(in)
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}
}

func methodPredicate(m reflect.Method) PredicateFunc {
	return func(obj *Object, arg any) bool {
		in, err := methodArgs(m, obj, arg)
		if err != nil {
			return false
		}
		return m.Func.Call(in)[0].Bool()
	}
}

// assignable converts v to a reflect.Value of type t; nil becomes the zero value
func assignable(t reflect.Type, v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("%T is not assignable to %v", v, t)
}
