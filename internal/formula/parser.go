package formula

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cellgrid/internal/cellref"
)

// Prefix marks a cell's content as a formula.
const Prefix = "="

// IsFormula reports whether raw cell text should be parsed as a formula.
func IsFormula(text string) bool {
	return strings.HasPrefix(text, Prefix)
}

// Parse parses formula source into an AST. The leading "=" is optional.
// allowed reports whether a lowercased function name may be called; calls
// to anything else are a parse error.
func Parse(src string, allowed func(string) bool) (*Ast, error) {
	body := strings.TrimPrefix(src, Prefix)
	toks, err := lex(body)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, allowed: allowed}
	root, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, fmt.Errorf("unexpected %q at offset %d", tok.text, tok.pos)
	}
	return &Ast{Root: root, Src: src}, nil
}

type parser struct {
	toks    []token
	pos     int
	allowed func(string) bool
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return token{}, fmt.Errorf("expected %s at offset %d, got %q", what, t.pos, t.text)
	}
	return t, nil
}

var binaryOp = map[tokenKind]BinOp{
	tokenPlus:    OpAdd,
	tokenMinus:   OpSub,
	tokenStar:    OpMul,
	tokenSlash:   OpDiv,
	tokenPercent: OpMod,
	tokenCaret:   OpPow,
}

// binaryPower returns the binding power of an operator token, 0 for
// non-operators. Exponentiation binds tightest and is right associative.
func binaryPower(kind tokenKind) int {
	switch kind {
	case tokenPlus, tokenMinus:
		return 10
	case tokenStar, tokenSlash, tokenPercent:
		return 20
	case tokenCaret:
		return 30
	default:
		return 0
	}
}

// parseExpr is precedence climbing: it consumes operators whose binding
// power is at least min.
func (p *parser) parseExpr(min int) (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		power := binaryPower(tok.kind)
		if power == 0 || power < min {
			return left, nil
		}
		p.next()
		nextMin := power + 1
		if tok.kind == tokenCaret {
			nextMin = power
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: binaryOp[tok.kind], L: left, R: right}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNumber:
		v, err := cty.ParseNumberVal(tok.text)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at offset %d", tok.text, tok.pos)
		}
		return &NumberLit{Text: tok.text, Val: v}, nil
	case tokenMinus:
		// Unary minus binds tighter than * but looser than ^, so that
		// -2^2 is -(2^2).
		x, err := p.parseExpr(25)
		if err != nil {
			return nil, err
		}
		return &Unary{X: x}, nil
	case tokenLParen:
		x, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return x, nil
	case tokenIdent:
		if p.peek().kind == tokenLParen {
			return p.parseCall(tok)
		}
		return p.parseRef(tok)
	default:
		return nil, fmt.Errorf("unexpected %q at offset %d", tok.text, tok.pos)
	}
}

func (p *parser) parseCall(name token) (Node, error) {
	fn := strings.ToLower(name.text)
	if p.allowed == nil || !p.allowed(fn) {
		return nil, fmt.Errorf("unknown function %q at offset %d", name.text, name.pos)
	}
	p.next() // consume '('
	call := &Call{Name: fn}
	if p.peek().kind == tokenRParen {
		p.next()
		return call, nil
	}
	for {
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		switch tok := p.next(); tok.kind {
		case tokenComma:
		case tokenRParen:
			return call, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' at offset %d, got %q", tok.pos, tok.text)
		}
	}
}

// parseArg parses one function argument, which is the only place a range
// reference is legal.
func (p *parser) parseArg() (Node, error) {
	if p.peek().kind == tokenIdent && p.toks[p.pos+1].kind == tokenColon {
		from := p.next()
		p.next() // consume ':'
		to, err := p.expect(tokenIdent, "cell reference")
		if err != nil {
			return nil, err
		}
		return p.newRange(from, to)
	}
	return p.parseExpr(0)
}

func (p *parser) newRange(from, to token) (Node, error) {
	a, err := cellref.Parse(from.text)
	if err != nil {
		return nil, fmt.Errorf("invalid cell reference %q at offset %d", from.text, from.pos)
	}
	b, err := cellref.Parse(to.text)
	if err != nil {
		return nil, fmt.Errorf("invalid cell reference %q at offset %d", to.text, to.pos)
	}
	rng := cellref.NewRange(a, b)
	if _, err := rng.Cells(); err != nil {
		return nil, fmt.Errorf("range %s at offset %d: %w", rng, from.pos, err)
	}
	return &RangeRef{Rng: rng}, nil
}

func (p *parser) parseRef(tok token) (Node, error) {
	ref, err := cellref.Parse(tok.text)
	if err != nil {
		return nil, fmt.Errorf("invalid cell reference %q at offset %d", tok.text, tok.pos)
	}
	if p.peek().kind == tokenColon {
		return nil, fmt.Errorf("range reference starting at offset %d is only valid as a function argument", tok.pos)
	}
	return &CellRef{Ref: ref}, nil
}
