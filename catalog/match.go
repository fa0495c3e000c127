/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package catalog

import (
	"reflect"
	"strings"
)

// DefaultArea is the conventional package segment holding entity types
const DefaultArea = "entities"

// Entity is an optional marker for types that live outside the entities area
// or want a table name different from their type name.
type Entity interface {
	EntityTable() string
}

var entityType = reflect.TypeFor[Entity]()

// MatchContext carries the discovery parameters handed to a Matcher
type MatchContext struct {
	RootModule string
	Area       string
}

// Matcher decides whether candidate is an entity type in ctx
type Matcher func(ctx MatchContext, candidate reflect.Type) bool

// IsMatch is the default Matcher.
// A candidate matches when it is a named struct whose package lies below
// ctx.RootModule and either has an Area path segment or implements Entity.
func IsMatch(ctx MatchContext, candidate reflect.Type) bool {
	candidate = normalize(candidate)
	if candidate == nil || candidate.Kind() != reflect.Struct || candidate.Name() == "" {
		return false
	}
	root := strings.TrimSuffix(ctx.RootModule, "/")
	if root == "" {
		return false
	}
	area := ctx.Area
	if area == "" {
		area = DefaultArea
	}

	pkg := candidate.PkgPath()
	if pkg != root && !strings.HasPrefix(pkg, root+"/") {
		return false
	}
	if implementsEntity(candidate) {
		return true
	}

	rel := strings.TrimPrefix(strings.TrimPrefix(pkg, root), "/")
	for _, segment := range strings.Split(rel, "/") {
		if segment == area {
			return true
		}
	}
	return false
}

func implementsEntity(t reflect.Type) bool {
	return t.Implements(entityType) || reflect.PointerTo(t).Implements(entityType)
}
