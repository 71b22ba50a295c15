package exactpoly

import (
	"math/big"
	"strconv"
	"strings"
)

// Parser holds the state for parsing one line's token stream.
type Parser struct {
	src    string
	tokens []Token
	pos    int
}

func newParser(src string) (*Parser, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return &Parser{src: src, tokens: tokens}, nil
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF, Pos: len(p.src)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	t := p.peek()
	if t.Type != tt {
		return t, p.errorf(t, "expected %s, found %s", tt, describe(t))
	}
	return p.advance(), nil
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) error {
	e := parseErrorAt(tok, format, args...)
	e.Text = p.src
	return e
}

func describe(t Token) string {
	if t.Type == TokenEOF {
		return t.Type.String()
	}
	return strconv.Quote(t.Literal)
}

// ============================================================
// Expressions
// ============================================================

// ParseExpr parses a complete arithmetic expression.
func ParseExpr(src string) (Expr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Type != TokenEOF {
		return nil, p.errorf(t, "unexpected token %s", describe(t))
	}
	return e, nil
}

// parseExpression: term ( ("+" | "-") term )*
func (p *Parser) parseExpression() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenPlus || p.peek().Type == TokenMinus {
		op := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if op.Type == TokenPlus {
			left = AddOf(left, right)
		} else {
			left = SubOf(left, right)
		}
	}
	return left, nil
}

// parseTerm: unary ( ("*" | "/") unary )*
func (p *Parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenStar || p.peek().Type == TokenSlash {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op.Type == TokenStar {
			left = MulOf(left, right)
		} else {
			left = DivOf(left, right)
		}
	}
	return left, nil
}

// parseUnary: ("-" | "+") unary | primary
func (p *Parser) parseUnary() (Expr, error) {
	switch p.peek().Type {
	case TokenMinus:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NegOf(x), nil
	case TokenPlus:
		p.advance()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

// parsePrimary: number | word | word "(" expression ")" | "(" expression ")"
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenNumber:
		p.advance()
		return p.number(tok)
	case TokenWord:
		p.advance()
		if p.peek().Type != TokenLParen {
			return S(tok.Literal), nil
		}
		return p.parseCall(tok)
	case TokenLParen:
		p.advance()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, p.errorf(tok, "unexpected token %s", describe(tok))
}

func (p *Parser) parseCall(name Token) (Expr, error) {
	fn := strings.ToLower(name.Literal)
	if fn != "sqrt" && fn != "cbrt" {
		return nil, p.errorf(name, "unknown function %q", name.Literal)
	}
	p.advance() // consume '('
	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	if fn == "sqrt" {
		return SqrtOf(arg), nil
	}
	return CbrtOf(arg), nil
}

func (p *Parser) number(tok Token) (Expr, error) {
	if strings.ContainsAny(tok.Literal, ".eE") {
		if _, ok := new(big.Rat).SetString(tok.Literal); !ok {
			return nil, p.errorf(tok, "invalid number %q", tok.Literal)
		}
		return FloatLit(tok.Literal), nil
	}
	r, ok := new(big.Rat).SetString(tok.Literal)
	if !ok {
		return nil, p.errorf(tok, "invalid number %q", tok.Literal)
	}
	return &Num{val: r}, nil
}

// ============================================================
// Definition lines
// ============================================================

type DefKind int

const (
	DefConstant DefKind = iota
	DefVertex
)

// Definition is one parsed "C<i> = ..." or "V<i> = (x, y, z)" line.
type Definition struct {
	Kind  DefKind
	Name  string
	Index int
	// Candidates holds the symbolic right-hand sides of a constant line.
	// Decimal candidates are approximations and are only counted.
	Candidates []Expr
	Dropped    int
	Coords     [3]Expr
}

// IsDefinitionLine reports whether line starts like a constant or vertex
// definition, i.e. C<digits> or V<digits> followed by '='.
func IsDefinitionLine(line string) bool {
	s := strings.TrimSpace(line)
	if len(s) < 2 || (s[0] != 'C' && s[0] != 'V') || !isDigit(s[1]) {
		return false
	}
	i := 1
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return strings.HasPrefix(strings.TrimSpace(s[i:]), "=")
}

// ParseDefinition parses a constant or vertex definition line.
func ParseDefinition(line string) (Definition, error) {
	p, err := newParser(line)
	if err != nil {
		return Definition{}, err
	}
	lhs, err := p.expect(TokenWord)
	if err != nil {
		return Definition{}, err
	}
	def := Definition{Name: lhs.Literal}
	if len(lhs.Literal) < 2 || (lhs.Literal[0] != 'C' && lhs.Literal[0] != 'V') {
		return Definition{}, p.errorf(lhs, "expected C<i> or V<i>, found %q", lhs.Literal)
	}
	idx, convErr := strconv.Atoi(lhs.Literal[1:])
	if convErr != nil || idx < 0 {
		return Definition{}, p.errorf(lhs, "invalid index in %q", lhs.Literal)
	}
	def.Index = idx
	if _, err := p.expect(TokenEquals); err != nil {
		return Definition{}, err
	}

	if lhs.Literal[0] == 'V' {
		def.Kind = DefVertex
		if err := p.parseTriple(&def.Coords); err != nil {
			return Definition{}, err
		}
		if t := p.peek(); t.Type != TokenEOF {
			return Definition{}, p.errorf(t, "unexpected token %s after vertex", describe(t))
		}
		return def, nil
	}

	def.Kind = DefConstant
	for {
		e, err := p.parseExpression()
		if err != nil {
			return Definition{}, err
		}
		if isDecimalLiteral(e) {
			def.Dropped++
		} else {
			def.Candidates = append(def.Candidates, e)
		}
		t := p.peek()
		if t.Type == TokenEOF {
			break
		}
		if t.Type != TokenEquals {
			return Definition{}, p.errorf(t, "unexpected token %s", describe(t))
		}
		p.advance()
	}
	return def, nil
}

func (p *Parser) parseTriple(out *[3]Expr) error {
	if _, err := p.expect(TokenLParen); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if i > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return err
			}
		}
		e, err := p.parseExpression()
		if err != nil {
			return err
		}
		out[i] = e
	}
	_, err := p.expect(TokenRParen)
	return err
}

// ParseFace parses a "{i0, i1, i2, ...}" face line.
func ParseFace(line string) ([]int, error) {
	p, err := newParser(line)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	var idx []int
	for {
		tok, err := p.expect(TokenNumber)
		if err != nil {
			return nil, err
		}
		n, convErr := strconv.Atoi(tok.Literal)
		if convErr != nil {
			return nil, p.errorf(tok, "invalid vertex index %q", tok.Literal)
		}
		idx = append(idx, n)
		if p.peek().Type != TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	if t := p.peek(); t.Type != TokenEOF {
		return nil, p.errorf(t, "unexpected token %s after face", describe(t))
	}
	if len(idx) < 3 {
		return nil, &ParseError{Text: line, Pos: 0, End: len(line), Msg: "face needs at least three vertices"}
	}
	return idx, nil
}
