/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package catalog

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/suparena/entitybind/errors"
)

// Collection is implemented by container types the catalog should treat as
// lists of their element type (dynamic.Collection, for example).
type Collection interface {
	ElemType() reflect.Type
}

var collectionType = reflect.TypeFor[Collection]()

// Property describes one exported field of an entity
type Property struct {
	Name  string
	Index []int
	Type  reflect.Type

	// Writable is false for fields tagged entity:"readonly"
	Writable bool
	// Navigable marks fields whose type is a catalog entity or a collection of one
	Navigable bool
	// Collection is set for navigable slices, arrays and Collection implementations
	Collection bool
	// Target is the related entity type of a navigable property
	Target reflect.Type
}

// EntityDescriptor is the cached reflective view of an entity type
type EntityDescriptor struct {
	Type        reflect.Type
	Table       string
	KeyProperty string
	Properties  []Property

	keyIndex []int
	byName   map[string]int
}

// HasKey reports whether a key property was designated
func (d *EntityDescriptor) HasKey() bool {
	return d.KeyProperty != ""
}

// Property looks up a property by name
func (d *EntityDescriptor) Property(name string) (Property, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Property{}, false
	}
	return d.Properties[i], true
}

// Navigable returns navigable properties in declaration order
func (d *EntityDescriptor) Navigable() []Property {
	var out []Property
	for _, p := range d.Properties {
		if p.Navigable {
			out = append(out, p)
		}
	}
	return out
}

// NavigableNames returns the names of navigable properties in declaration order
func (d *EntityDescriptor) NavigableNames() []string {
	var out []string
	for _, p := range d.Properties {
		if p.Navigable {
			out = append(out, p.Name)
		}
	}
	return out
}

// KeyValue extracts the key of entity, which may be a T or *T
func (d *EntityDescriptor) KeyValue(entity any) (any, error) {
	if !d.HasKey() {
		return nil, errors.NewNoKeyPropertyError(d.Type)
	}
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, errors.NewValidationError(d.KeyProperty, "nil entity")
		}
		v = v.Elem()
	}
	if v.Type() != d.Type {
		return nil, fmt.Errorf("entity of type %s does not match descriptor %s", v.Type(), d.Type)
	}
	return v.FieldByIndex(d.keyIndex).Interface(), nil
}

type fieldTag struct {
	skip     bool
	key      bool
	readonly bool
}

func parseTag(f reflect.StructField) fieldTag {
	raw, ok := f.Tag.Lookup("entity")
	if !ok {
		return fieldTag{}
	}
	if raw == "-" {
		return fieldTag{skip: true}
	}
	var tag fieldTag
	for _, opt := range strings.Split(raw, ",") {
		switch strings.TrimSpace(opt) {
		case "key":
			tag.key = true
		case "readonly":
			tag.readonly = true
		}
	}
	return tag
}

// describe builds the descriptor of t; contains reports catalog membership
func describe(t reflect.Type, table string, contains func(reflect.Type) bool) (*EntityDescriptor, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", errors.ErrNotEntity, t)
	}

	d := &EntityDescriptor{
		Type:   t,
		Table:  table,
		byName: make(map[string]int),
	}

	var fallbackKey string
	var fallbackIndex []int
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		tag := parseTag(f)
		if tag.skip {
			continue
		}

		p := Property{
			Name:     f.Name,
			Index:    f.Index,
			Type:     f.Type,
			Writable: !tag.readonly,
		}
		if p.Writable {
			if target, isCollection, ok := navigationTarget(f.Type, contains); ok {
				p.Navigable = true
				p.Collection = isCollection
				p.Target = target
			}
		}

		if tag.key && d.KeyProperty == "" {
			d.KeyProperty = f.Name
			d.keyIndex = f.Index
		}
		if fallbackKey == "" && (f.Name == "ID" || f.Name == "Id") {
			fallbackKey = f.Name
			fallbackIndex = f.Index
		}

		d.byName[p.Name] = len(d.Properties)
		d.Properties = append(d.Properties, p)
	}

	if d.KeyProperty == "" && fallbackKey != "" {
		d.KeyProperty = fallbackKey
		d.keyIndex = fallbackIndex
	}
	return d, nil
}

// navigationTarget returns the related entity type when ft is an entity or a
// collection of entities.
func navigationTarget(ft reflect.Type, contains func(reflect.Type) bool) (reflect.Type, bool, bool) {
	if target := normalize(ft); target != nil && target.Kind() == reflect.Struct && contains(target) {
		return target, false, true
	}
	elem, ok := collectionElem(ft)
	if !ok {
		return nil, false, false
	}
	if target := normalize(elem); target != nil && contains(target) {
		return target, true, true
	}
	return nil, false, false
}

func collectionElem(t reflect.Type) (reflect.Type, bool) {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem(), true
	case reflect.Interface:
		return nil, false
	}
	if t.Implements(collectionType) {
		// Collection implementations answer ElemType from the type alone.
		return reflect.Zero(t).Interface().(Collection).ElemType(), true
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(collectionType) {
		return reflect.New(t).Interface().(Collection).ElemType(), true
	}
	return nil, false
}
