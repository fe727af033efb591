package lexer

import (
	"strings"
)

// TokenType represents the type of a token.
type TokenType string

// Token represents a lexical token.
type Token struct {
	Type     TokenType
	Literal  string // The text of the token; unescaped content for strings
	Line     int    // 1-based line number where the token starts
	Column   int    // 1-based column number where the token starts
	StartPos int    // 0-based byte offset where the token starts
	EndPos   int    // 0-based byte offset after the token ends
}

// --- Token Types ---
const (
	// Special
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers + Literals
	IDENT      TokenType = "IDENT"      // name, Type
	DOLLAR     TokenType = "DOLLAR"     // $v, $a, $e, $i, $b, $name (macro reification)
	INT        TokenType = "INT"        // 123, 0xFF
	FLOAT      TokenType = "FLOAT"      // 1.5, 2e10
	STRING     TokenType = "STRING"     // "text", 'text'
	REGEX      TokenType = "REGEX"      // ~/pattern/flags
	META       TokenType = "META"       // @:name, @name
	LINE_ERROR TokenType = "LINE_ERROR" // #error directive

	// Operators
	ASSIGN    TokenType = "="
	PLUS      TokenType = "+"
	MINUS     TokenType = "-"
	ASTERISK  TokenType = "*"
	SLASH     TokenType = "/"
	PERCENT   TokenType = "%"
	BANG      TokenType = "!"
	TILDE     TokenType = "~"
	LT        TokenType = "<"
	GT        TokenType = ">"
	EQ        TokenType = "=="
	NOT_EQ    TokenType = "!="
	LE        TokenType = "<="
	SHL       TokenType = "<<"
	BIT_AND   TokenType = "&"
	BIT_OR    TokenType = "|"
	BIT_XOR   TokenType = "^"
	DOT       TokenType = "."
	INTERVAL  TokenType = "..." // 0...10, ...rest
	QDOT      TokenType = "?."
	COALESCE  TokenType = "??"
	QUESTION  TokenType = "?"
	ARROW     TokenType = "->"
	FAT_ARROW TokenType = "=>"

	// Assembled by the parser from adjacent '>' and '=' tokens outside of
	// type positions, where '>' closes a type parameter list.
	GE          TokenType = ">="
	SHR         TokenType = ">>"
	USHR        TokenType = ">>>"
	SHR_ASSIGN  TokenType = ">>="
	USHR_ASSIGN TokenType = ">>>="

	// Compound Assignment
	PLUS_ASSIGN     TokenType = "+="
	MINUS_ASSIGN    TokenType = "-="
	ASTERISK_ASSIGN TokenType = "*="
	SLASH_ASSIGN    TokenType = "/="
	PERCENT_ASSIGN  TokenType = "%="
	AND_ASSIGN      TokenType = "&="
	OR_ASSIGN       TokenType = "|="
	XOR_ASSIGN      TokenType = "^="
	SHL_ASSIGN      TokenType = "<<="
	COALESCE_ASSIGN TokenType = "??="

	// Increment/Decrement
	INC TokenType = "++"
	DEC TokenType = "--"

	// Logical Operators
	LOGICAL_AND TokenType = "&&"
	LOGICAL_OR  TokenType = "||"

	// Delimiters
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	COLON     TokenType = ":"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"

	// Keywords
	PACKAGE    TokenType = "PACKAGE"
	IMPORT     TokenType = "IMPORT"
	USING      TokenType = "USING"
	CLASS      TokenType = "CLASS"
	INTERFACE  TokenType = "INTERFACE"
	ENUM       TokenType = "ENUM"
	ABSTRACT   TokenType = "ABSTRACT"
	TYPEDEF    TokenType = "TYPEDEF"
	EXTENDS    TokenType = "EXTENDS"
	IMPLEMENTS TokenType = "IMPLEMENTS"
	VAR        TokenType = "VAR"
	FINAL      TokenType = "FINAL"
	FUNCTION   TokenType = "FUNCTION"
	NEW        TokenType = "NEW"
	THIS       TokenType = "THIS"
	SUPER      TokenType = "SUPER"
	NULL       TokenType = "NULL"
	TRUE       TokenType = "TRUE"
	FALSE      TokenType = "FALSE"
	IF         TokenType = "IF"
	ELSE       TokenType = "ELSE"
	WHILE      TokenType = "WHILE"
	DO         TokenType = "DO"
	FOR        TokenType = "FOR"
	IN         TokenType = "IN"
	SWITCH     TokenType = "SWITCH"
	CASE       TokenType = "CASE"
	DEFAULT    TokenType = "DEFAULT"
	RETURN     TokenType = "RETURN"
	BREAK      TokenType = "BREAK"
	CONTINUE   TokenType = "CONTINUE"
	THROW      TokenType = "THROW"
	TRY        TokenType = "TRY"
	CATCH      TokenType = "CATCH"
	CAST       TokenType = "CAST"
	UNTYPED    TokenType = "UNTYPED"
	MACRO      TokenType = "MACRO"
	IS         TokenType = "IS"

	// Modifiers
	STATIC   TokenType = "STATIC"
	PUBLIC   TokenType = "PUBLIC"
	PRIVATE  TokenType = "PRIVATE"
	OVERRIDE TokenType = "OVERRIDE"
	INLINE   TokenType = "INLINE"
	DYNAMIC  TokenType = "DYNAMIC"
	EXTERN   TokenType = "EXTERN"
)

var keywords = map[string]TokenType{
	"package":    PACKAGE,
	"import":     IMPORT,
	"using":      USING,
	"class":      CLASS,
	"interface":  INTERFACE,
	"enum":       ENUM,
	"abstract":   ABSTRACT,
	"typedef":    TYPEDEF,
	"extends":    EXTENDS,
	"implements": IMPLEMENTS,
	"var":        VAR,
	"final":      FINAL,
	"function":   FUNCTION,
	"new":        NEW,
	"this":       THIS,
	"super":      SUPER,
	"null":       NULL,
	"true":       TRUE,
	"false":      FALSE,
	"if":         IF,
	"else":       ELSE,
	"while":      WHILE,
	"do":         DO,
	"for":        FOR,
	"in":         IN,
	"switch":     SWITCH,
	"case":       CASE,
	"default":    DEFAULT,
	"return":     RETURN,
	"break":      BREAK,
	"continue":   CONTINUE,
	"throw":      THROW,
	"try":        TRY,
	"catch":      CATCH,
	"cast":       CAST,
	"untyped":    UNTYPED,
	"macro":      MACRO,
	"is":         IS,
	"static":     STATIC,
	"public":     PUBLIC,
	"private":    PRIVATE,
	"override":   OVERRIDE,
	"inline":     INLINE,
	"dynamic":    DYNAMIC,
	"extern":     EXTERN,
}

// LookupIdent checks the keywords table for an identifier.
func LookupIdent(ident string) TokenType {
	if tokType, ok := keywords[ident]; ok {
		return tokType
	}
	return IDENT
}

// IsKeyword reports whether the literal is reserved.
func IsKeyword(ident string) bool {
	_, ok := keywords[ident]
	return ok
}

// Lexer holds the state of the scanner.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char's byte offset)
	readPosition int  // current reading position in input (byte offset after current char)
	ch           byte // current char under examination
	line         int  // current 1-based line number
	column       int  // current 1-based column number
}

// State is a snapshot of the scanner used by the parser to backtrack.
type State struct {
	position, readPosition int
	ch                     byte
	line, column           int
}

// SaveState captures the scanner position.
func (l *Lexer) SaveState() State {
	return State{position: l.position, readPosition: l.readPosition, ch: l.ch, line: l.line, column: l.column}
}

// RestoreState rewinds the scanner to a saved position.
func (l *Lexer) RestoreState(s State) {
	l.position, l.readPosition, l.ch, l.line, l.column = s.position, s.readPosition, s.ch, s.line, s.column
}

// NewLexer creates a new Lexer.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// Input returns the text being scanned.
func (l *Lexer) Input() string { return l.input }

// readChar gives us the next character and advances our position in the input string.
// It also updates the line and column count.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar looks ahead in the input without consuming the character.
func (l *Lexer) peekChar() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) byte {
	if l.readPosition+n >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+n]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// NextToken scans the input and returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	startLine := l.line
	startCol := l.column
	startPos := l.position

	// op consumes n characters and builds the token for them.
	op := func(t TokenType, n int) Token {
		for i := 0; i < n; i++ {
			l.readChar()
		}
		return Token{Type: t, Literal: l.input[startPos:l.position], Line: startLine, Column: startCol, StartPos: startPos, EndPos: l.position}
	}

	switch l.ch {
	case '=':
		switch l.peekChar() {
		case '=':
			return op(EQ, 2)
		case '>':
			return op(FAT_ARROW, 2)
		}
		return op(ASSIGN, 1)
	case '!':
		if l.peekChar() == '=' {
			return op(NOT_EQ, 2)
		}
		return op(BANG, 1)
	case '+':
		switch l.peekChar() {
		case '=':
			return op(PLUS_ASSIGN, 2)
		case '+':
			return op(INC, 2)
		}
		return op(PLUS, 1)
	case '-':
		switch l.peekChar() {
		case '=':
			return op(MINUS_ASSIGN, 2)
		case '-':
			return op(DEC, 2)
		case '>':
			return op(ARROW, 2)
		}
		return op(MINUS, 1)
	case '*':
		if l.peekChar() == '=' {
			return op(ASTERISK_ASSIGN, 2)
		}
		return op(ASTERISK, 1)
	case '%':
		if l.peekChar() == '=' {
			return op(PERCENT_ASSIGN, 2)
		}
		return op(PERCENT, 1)
	case '/':
		switch l.peekChar() {
		case '/':
			l.skipComment()
			return l.NextToken()
		case '*':
			if !l.skipMultilineComment() {
				return Token{Type: ILLEGAL, Literal: "Unterminated multiline comment", Line: startLine, Column: startCol, StartPos: startPos, EndPos: l.position}
			}
			return l.NextToken()
		case '=':
			return op(SLASH_ASSIGN, 2)
		}
		return op(SLASH, 1)
	case '&':
		switch l.peekChar() {
		case '&':
			return op(LOGICAL_AND, 2)
		case '=':
			return op(AND_ASSIGN, 2)
		}
		return op(BIT_AND, 1)
	case '|':
		switch l.peekChar() {
		case '|':
			return op(LOGICAL_OR, 2)
		case '=':
			return op(OR_ASSIGN, 2)
		}
		return op(BIT_OR, 1)
	case '^':
		if l.peekChar() == '=' {
			return op(XOR_ASSIGN, 2)
		}
		return op(BIT_XOR, 1)
	case '~':
		if l.peekChar() == '/' {
			return l.readRegex(startLine, startCol, startPos)
		}
		return op(TILDE, 1)
	case '<':
		switch l.peekChar() {
		case '=':
			return op(LE, 2)
		case '<':
			if l.peekAt(1) == '=' {
				return op(SHL_ASSIGN, 3)
			}
			return op(SHL, 2)
		}
		return op(LT, 1)
	case '>':
		return op(GT, 1)
	case '?':
		switch l.peekChar() {
		case '?':
			if l.peekAt(1) == '=' {
				return op(COALESCE_ASSIGN, 3)
			}
			return op(COALESCE, 2)
		case '.':
			if !isDigit(l.peekAt(1)) {
				return op(QDOT, 2)
			}
		}
		return op(QUESTION, 1)
	case '.':
		if l.peekChar() == '.' && l.peekAt(1) == '.' {
			return op(INTERVAL, 3)
		}
		if isDigit(l.peekChar()) {
			return l.readNumber(startLine, startCol, startPos)
		}
		return op(DOT, 1)
	case ';':
		return op(SEMICOLON, 1)
	case ':':
		return op(COLON, 1)
	case ',':
		return op(COMMA, 1)
	case '(':
		return op(LPAREN, 1)
	case ')':
		return op(RPAREN, 1)
	case '{':
		return op(LBRACE, 1)
	case '}':
		return op(RBRACE, 1)
	case '[':
		return op(LBRACKET, 1)
	case ']':
		return op(RBRACKET, 1)
	case '"', '\'':
		literal, ok := l.readString(l.ch)
		if !ok {
			return Token{Type: ILLEGAL, Literal: "Invalid string literal", Line: startLine, Column: startCol, StartPos: startPos, EndPos: l.position}
		}
		return Token{Type: STRING, Literal: literal, Line: startLine, Column: startCol, StartPos: startPos, EndPos: l.position}
	case '@':
		l.readChar()
		if l.ch == ':' {
			l.readChar()
		}
		if !isLetter(l.ch) {
			return Token{Type: ILLEGAL, Literal: l.input[startPos:l.position], Line: startLine, Column: startCol, StartPos: startPos, EndPos: l.position}
		}
		l.readIdentifier()
		return Token{Type: META, Literal: l.input[startPos+1 : l.position], Line: startLine, Column: startCol, StartPos: startPos, EndPos: l.position}
	case '$':
		l.readChar()
		l.readIdentifier()
		return Token{Type: DOLLAR, Literal: l.input[startPos:l.position], Line: startLine, Column: startCol, StartPos: startPos, EndPos: l.position}
	case '#':
		if tok, ok := l.skipDirective(startLine, startCol, startPos); ok {
			return tok
		}
		return l.NextToken()
	case 0:
		return Token{Type: EOF, Literal: "", Line: startLine, Column: startCol, StartPos: startPos, EndPos: startPos}
	}

	if isLetter(l.ch) {
		literal := l.readIdentifier()
		return Token{Type: LookupIdent(literal), Literal: literal, Line: startLine, Column: startCol, StartPos: startPos, EndPos: l.position}
	}
	if isDigit(l.ch) {
		return l.readNumber(startLine, startCol, startPos)
	}
	return op(ILLEGAL, 1)
}

func (l *Lexer) readIdentifier() string {
	startPos := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[startPos:l.position]
}

// readNumber reads decimal and hexadecimal integers and decimal floats with
// optional fraction and exponent. A '.' followed by another '.' ends the
// number so that 0...10 scans as an interval.
func (l *Lexer) readNumber(line, col, startPos int) Token {
	typ := INT
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		return Token{Type: INT, Literal: l.input[startPos:l.position], Line: line, Column: col, StartPos: startPos, EndPos: l.position}
	}
	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' && l.peekChar() != '.' && !isLetter(l.peekChar()) {
		typ = FLOAT
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || (next == '+' || next == '-') && isDigit(l.peekAt(1)) {
			typ = FLOAT
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return Token{Type: typ, Literal: l.input[startPos:l.position], Line: line, Column: col, StartPos: startPos, EndPos: l.position}
}

// readString reads a string literal enclosed in the given quote character
// and returns its unescaped content. Unknown escapes are kept verbatim.
func (l *Lexer) readString(quote byte) (string, bool) {
	var builder strings.Builder
	l.readChar()
	for {
		switch l.ch {
		case quote:
			l.readChar()
			return builder.String(), true
		case 0:
			return "", false
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				builder.WriteByte('\n')
			case 't':
				builder.WriteByte('\t')
			case 'r':
				builder.WriteByte('\r')
			case '0':
				builder.WriteByte(0)
			case 0:
				return "", false
			case '\\', '"', '\'', '$':
				builder.WriteByte(l.ch)
			default:
				builder.WriteByte('\\')
				builder.WriteByte(l.ch)
			}
		default:
			builder.WriteByte(l.ch)
		}
		l.readChar()
	}
}

// readRegex reads ~/pattern/flags. The literal keeps the full source text.
func (l *Lexer) readRegex(line, col, startPos int) Token {
	l.readChar() // '~'
	l.readChar() // '/'
	for l.ch != '/' {
		if l.ch == 0 || l.ch == '\n' {
			return Token{Type: ILLEGAL, Literal: "Unterminated regular expression", Line: line, Column: col, StartPos: startPos, EndPos: l.position}
		}
		if l.ch == '\\' {
			l.readChar()
		}
		l.readChar()
	}
	l.readChar() // closing '/'
	for isLetter(l.ch) {
		l.readChar()
	}
	return Token{Type: REGEX, Literal: l.input[startPos:l.position], Line: line, Column: col, StartPos: startPos, EndPos: l.position}
}

// skipDirective drops conditional compilation lines (#if cond, #elseif cond,
// #else, #end). Both branches stay visible to the parser. #error produces a
// token so the parser can report it.
func (l *Lexer) skipDirective(line, col, startPos int) (Token, bool) {
	l.readChar()
	name := l.readIdentifier()
	switch name {
	case "if", "elseif":
		l.skipCondition()
	case "error":
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
		return Token{Type: LINE_ERROR, Literal: strings.TrimSpace(l.input[startPos:l.position]), Line: line, Column: col, StartPos: startPos, EndPos: l.position}, true
	}
	return Token{}, false
}

func (l *Lexer) skipCondition() {
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
	for l.ch == '!' {
		l.readChar()
	}
	if l.ch == '(' {
		depth := 0
		for l.ch != 0 {
			if l.ch == '(' {
				depth++
			} else if l.ch == ')' {
				depth--
				if depth == 0 {
					l.readChar()
					return
				}
			}
			l.readChar()
		}
		return
	}
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
}

// skipComment reads until the end of the line.
func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// skipMultilineComment consumes a /* ... */ comment. It returns false when
// the input ends first.
func (l *Lexer) skipMultilineComment() bool {
	l.readChar() // '/'
	l.readChar() // '*'
	for {
		if l.ch == 0 {
			return false
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return true
		}
		l.readChar()
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
