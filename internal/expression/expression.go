// Package expression implements the boolean membership language used in
// rule-table bodies, e.g. "current in Z and next not in X".
//
// Expressions are parsed once when a rule table is compiled and evaluated
// many times during a search, so Parse validates operand placement up front
// and Evaluate treats any remaining shape error as a programming defect.
package expression

import (
	"strconv"
	"strings"
)

// -----------------------------------------------------------------------
// AST nodes
// -----------------------------------------------------------------------

// Expr is the common interface for all AST nodes.
type Expr interface {
	exprNode()
	String() string
}

// AtomKind discriminates the leaves of an expression.
type AtomKind int

const (
	AtomTrue AtomKind = iota
	AtomFalse
	AtomCurrent // vertex the search is leaving
	AtomNext    // vertex the search is entering
	AtomSet     // a declared set, resolved to its id
)

var atomWords = map[AtomKind]string{
	AtomTrue:    "true",
	AtomFalse:   "false",
	AtomCurrent: "current",
	AtomNext:    "next",
}

// Atom is a leaf: a literal, a vertex variable or a set reference.
type Atom struct {
	Kind AtomKind
	Set  int    // set id, only meaningful for AtomSet
	Name string // set name as written, only meaningful for AtomSet
}

func (*Atom) exprNode() {}

func (a *Atom) String() string {
	if a.Kind == AtomSet {
		return strconv.Itoa(a.Set)
	}
	return atomWords[a.Kind]
}

// label is used in error messages; unlike String it shows set names.
func (a *Atom) label() string {
	if a.Kind == AtomSet {
		return a.Name
	}
	return atomWords[a.Kind]
}

// Op is a junction operator.
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpNot
	OpIn
	OpNotIn
)

func (op Op) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	case OpIn:
		return "in"
	case OpNotIn:
		return "not in"
	}
	return "op(" + strconv.Itoa(int(op)) + ")"
}

// Junction applies Op to an ordered list of operands: one for OpNot, two for
// OpIn and OpNotIn, one or more for OpAnd and OpOr.
type Junction struct {
	Op   Op
	Args []Expr
}

func (*Junction) exprNode() {}

// String renders the junction in prefix form, e.g. "(and (in current 0) true)".
func (j *Junction) String() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(j.Op.String())
	for _, a := range j.Args {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}
