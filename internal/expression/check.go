package expression

import "fmt"

// Check verifies operand placement: vertex variables only on the left and
// sets only on the right of a membership test, one operand for "not".
// Parse calls Check; it is exported for expressions built by hand.
func Check(e Expr) error {
	switch e := e.(type) {
	case *Atom:
		switch e.Kind {
		case AtomTrue, AtomFalse:
			return nil
		case AtomCurrent, AtomNext:
			return validationErr(fmt.Sprintf("found variable '%s' when looking for operator", e.label()))
		default:
			return validationErr(fmt.Sprintf("found set '%s' when looking for operator", e.label()))
		}
	case *Junction:
		switch e.Op {
		case OpAnd, OpOr:
			if len(e.Args) == 0 {
				return validationErr(fmt.Sprintf("operator '%s' needs at least one operand", e.Op))
			}
			for _, a := range e.Args {
				if err := Check(a); err != nil {
					return err
				}
			}
			return nil
		case OpIn, OpNotIn:
			return checkMembership(e)
		case OpNot:
			if len(e.Args) != 1 {
				return validationErr(fmt.Sprintf("operator '%s' is a unary operator, found %d operands", e.Op, len(e.Args)))
			}
			return Check(e.Args[0])
		}
		return validationErr(fmt.Sprintf("unknown operator %s", e.Op))
	}
	return validationErr(fmt.Sprintf("unknown expression node %T", e))
}

func checkMembership(j *Junction) error {
	if len(j.Args) != 2 {
		return validationErr(fmt.Sprintf("operator '%s' is a binary operator, found %d operands", j.Op, len(j.Args)))
	}
	left, ok := j.Args[0].(*Atom)
	if !ok {
		return validationErr(fmt.Sprintf("membership operator '%s' expects 'current' or 'next' at the left, found nested expression", j.Op))
	}
	if left.Kind != AtomCurrent && left.Kind != AtomNext {
		return validationErr(fmt.Sprintf("membership operator '%s' expects 'current' or 'next' at the left, found %s", j.Op, left.label()))
	}
	right, ok := j.Args[1].(*Atom)
	if !ok {
		return validationErr(fmt.Sprintf("membership operator '%s' expects set at the right, found nested expression", j.Op))
	}
	if right.Kind != AtomSet {
		return validationErr(fmt.Sprintf("membership operator '%s' expects set at the right, found %s", j.Op, right.label()))
	}
	return nil
}
