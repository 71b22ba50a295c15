package exactpoly

import "fmt"

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenNumber TokenType = iota
	TokenWord
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenEquals
	TokenComma
	TokenColon
	TokenEOF
)

var tokenNames = [...]string{
	TokenNumber: "number",
	TokenWord:   "word",
	TokenPlus:   "'+'",
	TokenMinus:  "'-'",
	TokenStar:   "'*'",
	TokenSlash:  "'/'",
	TokenLParen: "'('",
	TokenRParen: "')'",
	TokenLBrace: "'{'",
	TokenRBrace: "'}'",
	TokenEquals: "'='",
	TokenComma:  "','",
	TokenColon:  "':'",
	TokenEOF:    "end of line",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a single lexer token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int // byte offset in the line
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q, %d)", t.Type, t.Literal, t.Pos)
}

var punct = map[byte]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'(': TokenLParen,
	')': TokenRParen,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'=': TokenEquals,
	',': TokenComma,
	':': TokenColon,
}

// Lex tokenizes a single definition line. The returned slice always ends
// with a TokenEOF positioned at len(input).
func Lex(input string) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(input) {
		ch := input[i]

		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			i++
			continue
		}

		if tt, ok := punct[ch]; ok {
			tokens = append(tokens, Token{Type: tt, Literal: input[i : i+1], Pos: i})
			i++
			continue
		}

		switch {
		case isDigit(ch) || (ch == '.' && i+1 < len(input) && isDigit(input[i+1])):
			end, err := lexNumber(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Type: TokenNumber, Literal: input[i:end], Pos: i})
			i = end
		case isWordStart(ch):
			start := i
			for i < len(input) && isWordChar(input[i]) {
				i++
			}
			tokens = append(tokens, Token{Type: TokenWord, Literal: input[start:i], Pos: start})
		default:
			return nil, &ParseError{Text: input, Pos: i, End: i + 1, Msg: fmt.Sprintf("unexpected character %q", ch)}
		}
	}
	tokens = append(tokens, Token{Type: TokenEOF, Pos: len(input)})
	return tokens, nil
}

// lexNumber scans digits [ "." digits ] [ ("e"|"E") [sign] digits ].
func lexNumber(input string, start int) (int, error) {
	i := start
	for i < len(input) && isDigit(input[i]) {
		i++
	}
	if i < len(input) && input[i] == '.' {
		i++
		for i < len(input) && isDigit(input[i]) {
			i++
		}
	}
	if i < len(input) && (input[i] == 'e' || input[i] == 'E') {
		j := i + 1
		if j < len(input) && (input[j] == '+' || input[j] == '-') {
			j++
		}
		if j >= len(input) || !isDigit(input[j]) {
			return 0, &ParseError{Text: input, Pos: start, End: j, Msg: "malformed exponent"}
		}
		for j < len(input) && isDigit(input[j]) {
			j++
		}
		i = j
	}
	if i < len(input) && isWordStart(input[i]) {
		return 0, &ParseError{Text: input, Pos: start, End: i + 1, Msg: "malformed number"}
	}
	return i, nil
}

func isDigit(ch byte) bool     { return ch >= '0' && ch <= '9' }
func isWordStart(ch byte) bool { return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' }
func isWordChar(ch byte) bool  { return isWordStart(ch) || isDigit(ch) }
