package expression

// ErrorKind separates malformed token streams from well-formed expressions
// that place operands where they are not allowed.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota
	KindValidation
)

func (k ErrorKind) String() string {
	if k == KindValidation {
		return "validation"
	}
	return "syntax"
}

// Error is returned by Parse for both syntax and validation failures.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Kind == KindValidation {
		return "invalid expression: " + e.Msg
	}
	return "expression syntax: " + e.Msg
}

func syntaxErr(msg string) *Error     { return &Error{Kind: KindSyntax, Msg: msg} }
func validationErr(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }
