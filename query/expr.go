/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"strings"
)

// Op is a comparison or logical operator
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var opSymbols = map[Op]string{
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAnd: "&&",
	OpOr:  "||",
}

func (o Op) String() string {
	if s, ok := opSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Expr is a node of a filter expression
type Expr interface {
	fmt.Stringer
	expr()
}

// Param is a named placeholder bound later through Lambda.Apply or Bind
type Param string

func (p Param) String() string {
	return "@" + string(p)
}

// Comparison compares a property path against a value or Param
type Comparison struct {
	Op       Op
	Property string
	Value    any
}

func (Comparison) expr() {}

func (c Comparison) String() string {
	if p, ok := c.Value.(Param); ok {
		return fmt.Sprintf("%s %s %s", c.Property, c.Op, p)
	}
	return fmt.Sprintf("%s %s %#v", c.Property, c.Op, c.Value)
}

// Logical joins operands with OpAnd or OpOr
type Logical struct {
	Op       Op
	Operands []Expr
}

func (Logical) expr() {}

func (l Logical) String() string {
	parts := make([]string, len(l.Operands))
	for i, e := range l.Operands {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, " "+l.Op.String()+" ") + ")"
}

// Negation inverts its operand
type Negation struct {
	Operand Expr
}

func (Negation) expr() {}

func (n Negation) String() string {
	return "!" + n.Operand.String()
}

// Eq matches when property equals value
func Eq(property string, value any) Expr { return Comparison{Op: OpEq, Property: property, Value: value} }

// Ne matches when property differs from value
func Ne(property string, value any) Expr { return Comparison{Op: OpNe, Property: property, Value: value} }

// Lt matches when property is less than value
func Lt(property string, value any) Expr { return Comparison{Op: OpLt, Property: property, Value: value} }

// Le matches when property is at most value
func Le(property string, value any) Expr { return Comparison{Op: OpLe, Property: property, Value: value} }

// Gt matches when property is greater than value
func Gt(property string, value any) Expr { return Comparison{Op: OpGt, Property: property, Value: value} }

// Ge matches when property is at least value
func Ge(property string, value any) Expr { return Comparison{Op: OpGe, Property: property, Value: value} }

// And matches when every operand matches. A single operand is returned as is.
func And(operands ...Expr) Expr { return logical(OpAnd, operands) }

// Or matches when any operand matches. A single operand is returned as is.
func Or(operands ...Expr) Expr { return logical(OpOr, operands) }

// Not inverts e
func Not(e Expr) Expr { return Negation{Operand: e} }

func logical(op Op, operands []Expr) Expr {
	var kept []Expr
	for _, e := range operands {
		if e != nil {
			kept = append(kept, e)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return Logical{Op: op, Operands: kept}
}

// Bind replaces every occurrence of param in e with value
func Bind(e Expr, param Param, value any) Expr {
	switch n := e.(type) {
	case Comparison:
		if p, ok := n.Value.(Param); ok && p == param {
			n.Value = value
		}
		return n
	case Logical:
		operands := make([]Expr, len(n.Operands))
		for i, o := range n.Operands {
			operands[i] = Bind(o, param, value)
		}
		return Logical{Op: n.Op, Operands: operands}
	case Negation:
		return Negation{Operand: Bind(n.Operand, param, value)}
	}
	return e
}

// Params lists the unbound placeholders of e in first-seen order
func Params(e Expr) []Param {
	var out []Param
	seen := make(map[Param]struct{})
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Comparison:
			if p, ok := n.Value.(Param); ok {
				if _, dup := seen[p]; !dup {
					seen[p] = struct{}{}
					out = append(out, p)
				}
			}
		case Logical:
			for _, o := range n.Operands {
				walk(o)
			}
		case Negation:
			walk(n.Operand)
		}
	}
	walk(e)
	return out
}

// Lambda is a filter with one free parameter
type Lambda struct {
	Param Param
	Body  Expr
}

// Apply binds the parameter to value and returns the closed expression
func (l Lambda) Apply(value any) Expr {
	return Bind(l.Body, l.Param, value)
}

func (l Lambda) String() string {
	return fmt.Sprintf("%s => %s", l.Param, l.Body)
}
