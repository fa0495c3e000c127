/*
Package dynamic synthesizes bindable objects for a requested shape at runtime.

A Shape lists bindable properties and invocable commands. The Factory turns a
shape into a Descriptor once, caches it under the shape's name, and emits a
fresh *Object for every Build call. Each object is backed by a value of the
descriptor's generated struct type:

  - declared shapes get a struct type synthesized with reflect.StructOf;
  - shapes derived from a Go struct with ShapeOf reuse that struct, expose its
    exported fields as properties and its pointer methods as commands.

Objects notify observers synchronously when a bindable property changes value,
and dispatch commands with optional can-execute predicates:

	shape := &dynamic.Shape{
	    Name: "Counter",
	    Properties: []dynamic.PropertySpec{
	        {Name: "Count", Type: reflect.TypeFor[int](), Bindable: true},
	    },
	    Commands: []dynamic.CommandSpec{{
	        Name: "Increment",
	        Execute: func(o *dynamic.Object, _ any) error {
	            n, _ := o.Get("Count")
	            return o.Set("Count", n.(int)+1)
	        },
	    }},
	}

	obj, err := factory.Build(shape)
	unsubscribe := obj.Subscribe(func(e dynamic.PropertyChanged) { ... })
	err = obj.Execute("Increment", nil)

Every emitted object is handed to the lifecycle tracker together with its
descriptor, so per-shape live counts fall back once objects become unreachable.
*/
package dynamic
