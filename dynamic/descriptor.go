/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamic

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// PropertyInfo is the read-only view of a descriptor property
type PropertyInfo struct {
	Name     string
	Type     reflect.Type
	Bindable bool
	Validate string
}

type property struct {
	PropertyInfo
	index []int
	def   reflect.Value
}

type command struct {
	spec CommandSpec
}

// Descriptor is the cached, shared definition of a generated type
type Descriptor struct {
	name      string
	source    reflect.Type
	generated reflect.Type
	signature string

	properties []property
	byName     map[string]int
	commands   []command
	cmdByName  map[string]int

	factory *Factory
	live    atomic.Int64
}

// Name returns the shape name the descriptor was built for
func (d *Descriptor) Name() string {
	return d.name
}

// Source returns the struct a derived shape came from, or nil for declared shapes
func (d *Descriptor) Source() reflect.Type {
	return d.source
}

// Generated returns the struct type backing every object of this descriptor
func (d *Descriptor) Generated() reflect.Type {
	return d.generated
}

// Properties lists the descriptor's properties in declaration order
func (d *Descriptor) Properties() []PropertyInfo {
	out := make([]PropertyInfo, len(d.properties))
	for i, p := range d.properties {
		out[i] = p.PropertyInfo
	}
	return out
}

// Commands lists the descriptor's command names in declaration order
func (d *Descriptor) Commands() []string {
	out := make([]string, len(d.commands))
	for i, c := range d.commands {
		out[i] = c.spec.Name
	}
	return out
}

// LiveInstances returns how many emitted objects have not yet been collected
func (d *Descriptor) LiveInstances() int {
	return int(d.live.Load())
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("dynamic.Descriptor(%s)", d.name)
}

func (d *Descriptor) property(name string) (*property, bool) {
	i, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return &d.properties[i], true
}

// newDescriptor synthesizes the generated type for a validated shape
func newDescriptor(f *Factory, shape *Shape) *Descriptor {
	d := &Descriptor{
		name:      shape.Name,
		source:    shape.source,
		signature: shape.signature(),
		byName:    make(map[string]int, len(shape.Properties)),
		cmdByName: make(map[string]int, len(shape.Commands)),
		factory:   f,
	}

	if shape.source != nil {
		d.generated = shape.source
	} else {
		fields := make([]reflect.StructField, len(shape.Properties))
		for i, p := range shape.Properties {
			tag := fmt.Sprintf(`json:"%s"`, p.Name)
			if p.Validate != "" {
				tag += fmt.Sprintf(` validate:"%s"`, p.Validate)
			}
			fields[i] = reflect.StructField{
				Name: p.Name,
				Type: p.Type,
				Tag:  reflect.StructTag(tag),
			}
		}
		d.generated = reflect.StructOf(fields)
	}

	for i, p := range shape.Properties {
		index := p.index
		if shape.source == nil {
			index = []int{i}
		}
		prop := property{
			PropertyInfo: PropertyInfo{
				Name:     p.Name,
				Type:     p.Type,
				Bindable: p.Bindable,
				Validate: p.Validate,
			},
			index: index,
		}
		if p.Default != nil {
			prop.def = reflect.ValueOf(p.Default)
		}
		d.byName[p.Name] = len(d.properties)
		d.properties = append(d.properties, prop)
	}

	for _, c := range shape.Commands {
		d.cmdByName[c.Name] = len(d.commands)
		d.commands = append(d.commands, command{spec: c})
	}
	return d
}
