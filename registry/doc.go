/*
Package registry maps contract types to the implementations that satisfy them.

A contract is usually an interface type. Each contract has at most one
registration; the registration decides how instances are produced (a Provider
or a reflectively filled struct) and whether they are cached (Singleton, the
default) or produced on every resolution (Transient).

Registration:

	reg := registry.New(registry.WithLogger(logger))

	err := registry.Register[Greeter](reg, func(registry.Resolver) (Greeter, error) {
	    return &englishGreeter{}, nil
	})

	// or let the registry allocate the struct and fill its inject:"" fields
	err = registry.RegisterImpl[Greeter, *politeGreeter](reg, registry.AsTransient())

Resolution:

	greeter, err := registry.Resolve[Greeter](reg)

Providers resolve their own dependencies through the Resolver they are handed,
so the registry can detect dependency cycles on one resolution chain. Concurrent
first resolutions of a singleton construct it once. Two goroutines that start
from opposite ends of a cycle are not detected and block on each other.
ReplaceInstance swaps the cached instance of a registered contract without
touching its registration, which is how tests and hot-reload paths override a
live service.
*/
package registry
