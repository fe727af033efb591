package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type tokenCase struct {
	typ     TokenType
	literal string
}

func scan(input string) []tokenCase {
	l := NewLexer(input)
	var out []tokenCase
	for {
		tok := l.NextToken()
		out = append(out, tokenCase{tok.Type, tok.Literal})
		if tok.Type == EOF || tok.Type == ILLEGAL {
			return out
		}
	}
}

func TestRegexLiterals(t *testing.T) {
	tests := map[string][]tokenCase{
		"~/hello/":   {{REGEX, "~/hello/"}, {EOF, ""}},
		"~/world/gi": {{REGEX, "~/world/gi"}, {EOF, ""}},
		`~/a\/b/`:    {{REGEX, `~/a\/b/`}, {EOF, ""}},
		"var r = ~/test/i;": {
			{VAR, "var"}, {IDENT, "r"}, {ASSIGN, "="}, {REGEX, "~/test/i"}, {SEMICOLON, ";"}, {EOF, ""},
		},
		"5 / 2": {{INT, "5"}, {SLASH, "/"}, {INT, "2"}, {EOF, ""}},
		"~x":    {{TILDE, "~"}, {IDENT, "x"}, {EOF, ""}},
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, scan(input))
		})
	}
}

func TestUnterminatedRegex(t *testing.T) {
	assert.Equal(t, ILLEGAL, NewLexer("~/abc\n/").NextToken().Type)
}
