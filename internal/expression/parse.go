package expression

import (
	"fmt"
	"unicode"
)

// -----------------------------------------------------------------------
// Tokenizer
// -----------------------------------------------------------------------

type tokenKind int

const (
	tokAtom tokenKind = iota // keyword atom or set name
	tokOp                    // and | or | not | in | not in
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	op   Op
}

func (t token) String() string {
	switch t.kind {
	case tokLParen:
		return "opening brace"
	case tokRParen:
		return "closing brace"
	case tokEOF:
		return "end of input"
	case tokOp:
		return t.op.String()
	}
	return t.val
}

var keywords = map[string]Op{
	"and": OpAnd,
	"or":  OpOr,
	"not": OpNot,
	"in":  OpIn,
}

// tokenize splits on whitespace and parentheses. Adjacent "not" "in" tokens
// are merged into a single OpNotIn.
func tokenize(expr string) []token {
	var tokens []token
	word := func(s string) token {
		if op, ok := keywords[s]; ok {
			return token{kind: tokOp, val: s, op: op}
		}
		return token{kind: tokAtom, val: s}
	}
	start := -1
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, word(expr[start:end]))
			start = -1
		}
	}
	for i, ch := range expr {
		switch {
		case unicode.IsSpace(ch):
			flush(i)
		case ch == '(':
			flush(i)
			tokens = append(tokens, token{kind: tokLParen, val: "("})
		case ch == ')':
			flush(i)
			tokens = append(tokens, token{kind: tokRParen, val: ")"})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(expr))

	merged := tokens[:0]
	for _, t := range tokens {
		if n := len(merged); n > 0 && t.kind == tokOp && t.op == OpIn &&
			merged[n-1].kind == tokOp && merged[n-1].op == OpNot {
			merged[n-1] = token{kind: tokOp, val: "not in", op: OpNotIn}
			continue
		}
		merged = append(merged, t)
	}
	return append(merged, token{kind: tokEOF})
}

// -----------------------------------------------------------------------
// Pratt parser
// -----------------------------------------------------------------------

type parser struct {
	tokens []token
	pos    int
	sets   map[string]int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// Parse parses and validates an expression. Set names are resolved through
// sets; an undeclared name is an error.
func Parse(input string, sets map[string]int) (Expr, error) {
	p := &parser{tokens: tokenize(input), sets: sets}
	expr, err := p.parseBP(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, syntaxErr(fmt.Sprintf("unexpected %s, no matching opening brace", t))
	}
	if err := Check(expr); err != nil {
		return nil, err
	}
	return expr, nil
}

// MustParse is like Parse but panics on error. Intended for tables embedded
// in the binary.
func MustParse(input string, sets map[string]int) Expr {
	e, err := Parse(input, sets)
	if err != nil {
		panic(fmt.Sprintf("expression: MustParse(%q): %v", input, err))
	}
	return e
}

func (p *parser) parseBP(minBP int) (Expr, error) {
	var lhs Expr
	switch t := p.next(); t.kind {
	case tokAtom:
		a, err := p.atom(t.val)
		if err != nil {
			return nil, err
		}
		lhs = a
	case tokLParen:
		inner, err := p.parseBP(0)
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, syntaxErr(fmt.Sprintf("missing closing brace for %s", inner))
		}
		lhs = inner
	case tokOp:
		if t.op != OpNot {
			return nil, syntaxErr(fmt.Sprintf("unexpected infix operator '%s'", t.op))
		}
		rhs, err := p.parseBP(prefixBP)
		if err != nil {
			return nil, err
		}
		lhs = &Junction{Op: OpNot, Args: []Expr{rhs}}
	default:
		return nil, syntaxErr(fmt.Sprintf("unexpected %s", t))
	}

	for {
		t := p.peek()
		var op Op
		switch t.kind {
		case tokEOF, tokRParen:
			return lhs, nil
		case tokOp:
			if t.op == OpNot {
				return nil, syntaxErr("unexpected prefix operator 'not'")
			}
			op = t.op
		case tokAtom:
			return nil, syntaxErr(fmt.Sprintf("expected infix operator, closing brace or end of input, found %s", t.val))
		case tokLParen:
			return nil, syntaxErr("expected infix operator, closing brace or end of input, found opening brace")
		}

		lbp, rbp := infixBP(op)
		if lbp < minBP {
			return lhs, nil
		}
		p.next()
		rhs, err := p.parseBP(rbp)
		if err != nil {
			return nil, err
		}
		lhs = &Junction{Op: op, Args: []Expr{lhs, rhs}}
	}
}

const prefixBP = 3

func infixBP(op Op) (int, int) {
	switch op {
	case OpIn, OpNotIn:
		return 5, 6
	default: // and, or
		return 1, 2
	}
}

func (p *parser) atom(word string) (*Atom, error) {
	for kind, w := range atomWords {
		if word == w {
			return &Atom{Kind: kind}, nil
		}
	}
	id, ok := p.sets[word]
	if !ok {
		return nil, syntaxErr(fmt.Sprintf("could not find set '%s', are you sure you declared it?", word))
	}
	return &Atom{Kind: AtomSet, Set: id, Name: word}, nil
}
