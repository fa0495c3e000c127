/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/go-openapi/strfmt"

	"github.com/suparena/entitybind/errors"
)

// NameFunc maps a property path to a stored attribute name
type NameFunc func(property string) string

// ToCondition translates e into a DynamoDB condition. names may be nil, in
// which case property paths are used as attribute names. Unbound parameters
// are rejected.
func ToCondition(e Expr, names NameFunc) (expression.ConditionBuilder, error) {
	if names == nil {
		names = func(p string) string { return p }
	}

	switch n := e.(type) {
	case Comparison:
		if p, ok := n.Value.(Param); ok {
			return expression.ConditionBuilder{}, errors.NewValidationError(n.Property,
				fmt.Sprintf("parameter %s is unbound", p))
		}
		name := expression.Name(names(n.Property))
		value := expression.Value(attributeValue(n.Value))
		switch n.Op {
		case OpEq:
			return name.Equal(value), nil
		case OpNe:
			return name.NotEqual(value), nil
		case OpLt:
			return name.LessThan(value), nil
		case OpLe:
			return name.LessThanEqual(value), nil
		case OpGt:
			return name.GreaterThan(value), nil
		case OpGe:
			return name.GreaterThanEqual(value), nil
		}
		return expression.ConditionBuilder{}, fmt.Errorf("%w: operator %s is not a comparison", errors.ErrInvalidInput, n.Op)

	case Logical:
		conds := make([]expression.ConditionBuilder, 0, len(n.Operands))
		for _, o := range n.Operands {
			c, err := ToCondition(o, names)
			if err != nil {
				return expression.ConditionBuilder{}, err
			}
			conds = append(conds, c)
		}
		switch {
		case len(conds) == 0:
			return expression.ConditionBuilder{}, fmt.Errorf("%w: empty %s", errors.ErrInvalidInput, n.Op)
		case len(conds) == 1:
			return conds[0], nil
		case n.Op == OpAnd:
			return expression.And(conds[0], conds[1], conds[2:]...), nil
		case n.Op == OpOr:
			return expression.Or(conds[0], conds[1], conds[2:]...), nil
		}
		return expression.ConditionBuilder{}, fmt.Errorf("%w: operator %s is not logical", errors.ErrInvalidInput, n.Op)

	case Negation:
		c, err := ToCondition(n.Operand, names)
		if err != nil {
			return expression.ConditionBuilder{}, err
		}
		return expression.Not(c), nil
	}
	return expression.ConditionBuilder{}, fmt.Errorf("%w: unsupported expression %T", errors.ErrInvalidInput, e)
}

// attributeValue normalizes values attributevalue cannot marshal on its own
func attributeValue(v any) any {
	switch t := v.(type) {
	case strfmt.DateTime:
		return time.Time(t)
	case *strfmt.DateTime:
		if t == nil {
			return nil
		}
		return time.Time(*t)
	}
	return v
}
