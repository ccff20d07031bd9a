package formula

import "fmt"

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenCaret
	tokenComma
	tokenColon
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var singleCharTokens = map[byte]tokenKind{
	'+': tokenPlus,
	'-': tokenMinus,
	'*': tokenStar,
	'/': tokenSlash,
	'%': tokenPercent,
	'^': tokenCaret,
	',': tokenComma,
	':': tokenColon,
	'(': tokenLParen,
	')': tokenRParen,
}

// lex splits formula source into tokens. It fails on the first byte it
// does not recognize.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			sawDot := false
			for i < len(src) {
				b := src[i]
				if b >= '0' && b <= '9' {
					i++
					continue
				}
				if b == '.' && !sawDot {
					sawDot = true
					i++
					continue
				}
				break
			}
			if i == start+1 && src[start] == '.' {
				return nil, fmt.Errorf("unexpected '.' at offset %d", start)
			}
			// Optional exponent part.
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && src[j] >= '0' && src[j] <= '9' {
					for j < len(src) && src[j] >= '0' && src[j] <= '9' {
						j++
					}
					i = j
				}
			}
			toks = append(toks, token{kind: tokenNumber, text: src[start:i], pos: start})
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokenIdent, text: src[start:i], pos: start})
		default:
			kind, ok := singleCharTokens[c]
			if !ok {
				return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
			}
			toks = append(toks, token{kind: kind, text: string(c), pos: i})
			i++
		}
	}
	toks = append(toks, token{kind: tokenEOF, pos: len(src)})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
