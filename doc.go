/*
Package entitybind wires a dependency-injection registry, a dynamic bindable
type factory and an entity catalog into one Runtime, and builds CRUD services
and view models for catalog entities on top of it.

The pieces live in their own packages:
  - registry: contracts mapped to providers, singleton or transient
  - dynamic: runtime-synthesized types with change notification and commands
  - lifecycle: weak tracking of emitted objects and their metadata
  - catalog: convention-based entity discovery and descriptors
  - query: filter expressions, identity filters and eager-include augmentation
  - datastore: persistence behind DataStore[T], with DynamoDB and in-memory stores

Basic Usage:

	cfg, _ := config.Load("entitybind.yaml")
	rt, err := entitybind.New(cfg)
	if err != nil {
	    return err
	}
	defer rt.Close()

	// Register a store for an entity type
	entitybind.RegisterStore[entities.Customer](rt.Stores(), mock.New[entities.Customer]())

	// CRUD with navigation properties eagerly included
	svc, _ := entitybind.ServiceFor[entities.Customer](rt)
	customer, _ := svc.Get(ctx, id)

	// A bindable view model with Save, Delete and Reload commands
	vm, _ := entitybind.ViewModelFor(rt, customer)
	vm.Subscribe(func(e dynamic.PropertyChanged) { render(e.Property, e.New) })
	_ = vm.Set("Name", "Ada")
	_ = vm.Save(ctx)

Each Runtime is independent; tests create as many as they need.
*/
package entitybind
