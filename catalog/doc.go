/*
Package catalog discovers the entity types of an application and describes
their shape for query augmentation.

Go cannot enumerate the types of a module at runtime, so entity packages opt in
by registering candidates, usually from init functions or generated code:

	func init() {
	    catalog.RegisterCandidate[Customer]()
	    catalog.RegisterCandidate[Order]()
	}

Discovery then applies a structural convention rather than trusting the list:
a candidate is an entity of root module "example.com/shop" when it is a struct
declared in a package with an "entities" path segment below the root
(example.com/shop/entities, example.com/shop/billing/entities/...), or when it
implements the Entity marker and lives under the root. The predicate is exposed
as IsMatch and can be swapped with WithMatcher.

	cat := catalog.New("example.com/shop")
	desc, err := cat.Describe(reflect.TypeFor[Order]())
	// desc.KeyProperty == "ID", desc.NavigableNames() == ["Customer", "Lines"]

Descriptors are computed on first use per type and cached; they are immutable
afterwards and safe for concurrent reads.
*/
package catalog
