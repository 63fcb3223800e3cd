package expression

import "fmt"

// Membership answers set-membership queries during evaluation.
// It is implemented by instance.Sets but kept here to avoid an import cycle.
type Membership interface {
	Contains(set, vertex int) bool
}

// Evaluate walks a checked expression. current and next are the vertices of
// the transition under test.
//
// And/Or evaluate every operand. An expression shape that Check rejects
// panics: it can only reach this point through a defect in Check.
func Evaluate(e Expr, m Membership, current, next int) bool {
	switch e := e.(type) {
	case *Atom:
		switch e.Kind {
		case AtomTrue:
			return true
		case AtomFalse:
			return false
		}
		panic(fmt.Sprintf("expression: internal invariant violated: found '%s' when looking for operator", e.label()))
	case *Junction:
		switch e.Op {
		case OpAnd:
			res := true
			for _, a := range e.Args {
				res = Evaluate(a, m, current, next) && res
			}
			return res
		case OpOr:
			res := false
			for _, a := range e.Args {
				res = Evaluate(a, m, current, next) || res
			}
			return res
		case OpNot:
			return !Evaluate(e.Args[0], m, current, next)
		case OpIn:
			return m.Contains(setID(e), vertex(e, current, next))
		case OpNotIn:
			return !m.Contains(setID(e), vertex(e, current, next))
		}
	}
	panic(fmt.Sprintf("expression: internal invariant violated: unexpected node %v", e))
}

func vertex(j *Junction, current, next int) int {
	if len(j.Args) == 2 {
		if a, ok := j.Args[0].(*Atom); ok {
			switch a.Kind {
			case AtomCurrent:
				return current
			case AtomNext:
				return next
			}
		}
	}
	panic(fmt.Sprintf("expression: internal invariant violated: expected 'current' or 'next' at the left of %s", j))
}

func setID(j *Junction) int {
	if len(j.Args) == 2 {
		if a, ok := j.Args[1].(*Atom); ok && a.Kind == AtomSet {
			return a.Set
		}
	}
	panic(fmt.Sprintf("expression: internal invariant violated: expected set at the right of %s", j))
}
