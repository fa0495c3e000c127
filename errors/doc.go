/*
Package errors provides semantic error types for entitybind.

Every component reports local, caller-recoverable conditions through a sentinel
error that can be checked with the standard errors.Is() function or the helpers
in this package.

Common Errors:

	var (
	    ErrDuplicateRegistration = errors.New("contract already registered")
	    ErrUnregisteredContract  = errors.New("contract not registered")
	    ErrUnsupportedShape      = errors.New("unsupported shape")
	    ErrNoKeyProperty         = errors.New("no key property")
	)

Usage:

	svc, err := registry.Resolve[Greeter](reg)
	if err != nil {
	    if errors.IsUnregisteredContract(err) {
	        // fall back to a default implementation
	    }
	    return err
	}

Typed errors carry the offending reflect.Type or shape name and match their
sentinel through an Is method, so wrapping with fmt.Errorf("...: %w") keeps
them checkable.
*/
package errors
