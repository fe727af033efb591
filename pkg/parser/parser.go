package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"hxinfer/pkg/errors"
	"hxinfer/pkg/lexer"
	"hxinfer/pkg/source"
)

// --- Debug Flag ---
const debugParser = false

func debugPrint(format string, args ...interface{}) {
	if debugParser {
		fmt.Printf("[Parser Debug] "+format+"\n", args...)
	}
}

// --- End Debug Flag ---

// Parser takes a lexer and builds an AST. It never panics on bad input:
// problems are collected as error records and parsing resumes at the next
// token.
type Parser struct {
	l      *lexer.Lexer
	source *source.SourceFile
	errors []errors.ErrorRecord

	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn

	// typeDepth is non-zero while a type annotation is parsed; '>' then
	// closes a parameter list instead of starting a shift or comparison.
	typeDepth int
}

// Parsing functions types for Pratt parser
type (
	prefixParseFn func() Expression
	infixParseFn  func(Expression) Expression
)

// Precedence levels for value operators
const (
	_ int = iota
	LOWEST
	MAP_ARROW   // =>
	ASSIGNMENT  // =, +=, ...
	TERNARY     // ?:
	COALESCE    // ??
	LOGICAL_OR  // ||
	LOGICAL_AND // &&
	INTERVAL    // ...
	COMPARE     // ==, !=, <, <=, >, >=, is
	BITWISE     // |, &, ^
	SHIFT       // <<, >>, >>>
	SUM         // + or -
	PRODUCT     // * or / or %
	PREFIX      // -X or !X or ++X
	POSTFIX     // X++
	CALL        // f(x), a[i], a.b
)

var precedences = map[lexer.TokenType]int{
	lexer.FAT_ARROW: MAP_ARROW,

	lexer.ASSIGN:          ASSIGNMENT,
	lexer.PLUS_ASSIGN:     ASSIGNMENT,
	lexer.MINUS_ASSIGN:    ASSIGNMENT,
	lexer.ASTERISK_ASSIGN: ASSIGNMENT,
	lexer.SLASH_ASSIGN:    ASSIGNMENT,
	lexer.PERCENT_ASSIGN:  ASSIGNMENT,
	lexer.AND_ASSIGN:      ASSIGNMENT,
	lexer.OR_ASSIGN:       ASSIGNMENT,
	lexer.XOR_ASSIGN:      ASSIGNMENT,
	lexer.SHL_ASSIGN:      ASSIGNMENT,
	lexer.SHR_ASSIGN:      ASSIGNMENT,
	lexer.USHR_ASSIGN:     ASSIGNMENT,
	lexer.COALESCE_ASSIGN: ASSIGNMENT,

	lexer.QUESTION:    TERNARY,
	lexer.COALESCE:    COALESCE,
	lexer.LOGICAL_OR:  LOGICAL_OR,
	lexer.LOGICAL_AND: LOGICAL_AND,
	lexer.INTERVAL:    INTERVAL,

	lexer.EQ:     COMPARE,
	lexer.NOT_EQ: COMPARE,
	lexer.LT:     COMPARE,
	lexer.LE:     COMPARE,
	lexer.GT:     COMPARE,
	lexer.GE:     COMPARE,
	lexer.IS:     COMPARE,

	lexer.BIT_OR:  BITWISE,
	lexer.BIT_AND: BITWISE,
	lexer.BIT_XOR: BITWISE,

	lexer.SHL:  SHIFT,
	lexer.SHR:  SHIFT,
	lexer.USHR: SHIFT,

	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.ASTERISK: PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.PERCENT:  PRODUCT,

	lexer.INC: POSTFIX,
	lexer.DEC: POSTFIX,

	lexer.LPAREN:   CALL,
	lexer.LBRACKET: CALL,
	lexer.DOT:      CALL,
	lexer.QDOT:     CALL,
}

// NewParser creates a new Parser.
func NewParser(l *lexer.Lexer, file *source.SourceFile) *Parser {
	p := &Parser{
		l:              l,
		source:         file,
		prefixParseFns: make(map[lexer.TokenType]prefixParseFn),
		infixParseFns:  make(map[lexer.TokenType]infixParseFn),
	}

	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.REGEX, p.parseRegexLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.NULL, p.parseNullLiteral)
	p.registerPrefix(lexer.THIS, p.parseThisExpression)
	p.registerPrefix(lexer.SUPER, p.parseSuperExpression)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.LBRACE, p.parseBraceExpression)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(lexer.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(lexer.NEW, p.parseNewExpression)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpression)
	p.registerPrefix(lexer.TILDE, p.parsePrefixExpression)
	p.registerPrefix(lexer.INC, p.parsePrefixUpdate)
	p.registerPrefix(lexer.DEC, p.parsePrefixUpdate)
	p.registerPrefix(lexer.INTERVAL, p.parseSpreadElement)
	p.registerPrefix(lexer.VAR, p.parseVarDeclaration)
	p.registerPrefix(lexer.FINAL, p.parseVarDeclaration)
	p.registerPrefix(lexer.IF, p.parseIfExpression)
	p.registerPrefix(lexer.WHILE, p.parseWhileExpression)
	p.registerPrefix(lexer.DO, p.parseDoWhileExpression)
	p.registerPrefix(lexer.FOR, p.parseForExpression)
	p.registerPrefix(lexer.SWITCH, p.parseSwitchExpression)
	p.registerPrefix(lexer.RETURN, p.parseReturnExpression)
	p.registerPrefix(lexer.THROW, p.parseThrowExpression)
	p.registerPrefix(lexer.BREAK, p.parseBreakExpression)
	p.registerPrefix(lexer.CONTINUE, p.parseContinueExpression)
	p.registerPrefix(lexer.TRY, p.parseTryExpression)
	p.registerPrefix(lexer.CAST, p.parseCastExpression)
	p.registerPrefix(lexer.UNTYPED, p.parseUntypedExpression)
	p.registerPrefix(lexer.MACRO, p.parseMacroExpression)
	p.registerPrefix(lexer.DOLLAR, p.parseReification)
	p.registerPrefix(lexer.META, p.parseAnnotatedExpression)
	p.registerPrefix(lexer.LINE_ERROR, p.parseLineError)

	for _, t := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT,
		lexer.EQ, lexer.NOT_EQ, lexer.LT, lexer.LE, lexer.GT, lexer.GE,
		lexer.SHL, lexer.SHR, lexer.USHR, lexer.BIT_AND, lexer.BIT_OR, lexer.BIT_XOR,
		lexer.LOGICAL_AND, lexer.LOGICAL_OR, lexer.COALESCE, lexer.FAT_ARROW,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	for _, t := range []lexer.TokenType{
		lexer.ASSIGN, lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.ASTERISK_ASSIGN,
		lexer.SLASH_ASSIGN, lexer.PERCENT_ASSIGN, lexer.AND_ASSIGN, lexer.OR_ASSIGN,
		lexer.XOR_ASSIGN, lexer.SHL_ASSIGN, lexer.SHR_ASSIGN, lexer.USHR_ASSIGN,
		lexer.COALESCE_ASSIGN,
	} {
		p.registerInfix(t, p.parseAssignmentExpression)
	}
	p.registerInfix(lexer.QUESTION, p.parseTernaryExpression)
	p.registerInfix(lexer.INTERVAL, p.parseIntervalExpression)
	p.registerInfix(lexer.IS, p.parseIsExpression)
	p.registerInfix(lexer.LPAREN, p.parseCallExpression)
	p.registerInfix(lexer.LBRACKET, p.parseIndexExpression)
	p.registerInfix(lexer.DOT, p.parseMemberExpression)
	p.registerInfix(lexer.QDOT, p.parseMemberExpression)
	p.registerInfix(lexer.INC, p.parsePostfixUpdate)
	p.registerInfix(lexer.DEC, p.parsePostfixUpdate)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// ParseSource parses a whole source file.
func ParseSource(file *source.SourceFile) (*File, []errors.ErrorRecord) {
	p := NewParser(lexer.NewLexer(file.Content), file)
	f := p.ParseFile()
	return f, p.Errors()
}

// ParseString parses an in-memory file.
func ParseString(name, content string) (*File, []errors.ErrorRecord) {
	return ParseSource(source.NewSourceFile(name, "", content))
}

// Errors returns the list of parsing errors.
func (p *Parser) Errors() []errors.ErrorRecord {
	return p.errors
}

// nextToken advances the current and peek tokens.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.readToken()
	debugPrint("nextToken(): cur='%s' (%s), peek='%s' (%s)", p.curToken.Literal, p.curToken.Type, p.peekToken.Literal, p.peekToken.Type)
}

// readToken pulls the next token, assembling '>=', '>>', '>>>', '>>=' and
// '>>>=' from adjacent pieces outside of type positions.
func (p *Parser) readToken() lexer.Token {
	tok := p.l.NextToken()
	if tok.Type != lexer.GT || p.typeDepth > 0 {
		return tok
	}
	lit := ">"
	for !strings.HasSuffix(lit, "=") {
		saved := p.l.SaveState()
		next := p.l.NextToken()
		if next.StartPos != tok.EndPos {
			p.l.RestoreState(saved)
			break
		}
		if next.Type == lexer.GT && len(lit) < 3 {
			lit += ">"
		} else if next.Type == lexer.ASSIGN {
			lit += "="
		} else {
			p.l.RestoreState(saved)
			break
		}
		tok.EndPos = next.EndPos
	}
	tok.Literal = lit
	tok.Type = lexer.TokenType(lit)
	return tok
}

// expectPeekGT consumes a '>' closing a type parameter list, splitting an
// assembled operator token when needed.
func (p *Parser) expectPeekGT() bool {
	if p.peekToken.Type == lexer.GT {
		p.nextToken()
		return true
	}
	if strings.HasPrefix(p.peekToken.Literal, ">") && len(p.peekToken.Literal) > 1 {
		rest := p.peekToken
		rest.StartPos++
		rest.Column++
		rest.Literal = rest.Literal[1:]
		rest.Type = lexer.TokenType(rest.Literal)
		if rest.Literal == "=" {
			rest.Type = lexer.ASSIGN
		}
		first := p.peekToken
		first.Type, first.Literal, first.EndPos = lexer.GT, ">", first.StartPos+1
		p.curToken, p.peekToken = first, rest
		return true
	}
	p.peekError(lexer.GT)
	return false
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

// lookAhead returns the token at position 'pos' ahead of peekToken
// pos=0 returns peekToken, pos=1 returns the token after peekToken, etc.
func (p *Parser) lookAhead(pos int) lexer.Token {
	if pos == 0 {
		return p.peekToken
	}
	saved := p.l.SaveState()
	var token lexer.Token
	for i := 0; i < pos; i++ {
		token = p.l.NextToken()
	}
	p.l.RestoreState(saved)
	return token
}

// expectPeek checks the type of the next token and advances if it matches.
// If it doesn't match, it adds an error.
func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

// isNameToken accepts identifiers and keywords spelled like identifiers,
// which Haxe allows after a dot and as object keys.
func isNameToken(t lexer.Token) bool {
	if t.Type == lexer.IDENT {
		return true
	}
	return t.Literal != "" && lexer.IsKeyword(t.Literal)
}

func (p *Parser) expectPeekName() bool {
	if isNameToken(p.peekToken) {
		p.nextToken()
		return true
	}
	p.addError(p.peekToken, fmt.Sprintf("expected identifier after '%s', got %s", p.curToken.Literal, p.peekToken.Type))
	return false
}

// --- Error Handling ---

func (p *Parser) peekError(t lexer.TokenType) {
	msg := fmt.Sprintf("expected next token to be %s, got %s instead",
		t, p.peekToken.Type)
	p.addError(p.peekToken, msg)
}

func (p *Parser) noPrefixParseFnError(t lexer.TokenType) {
	msg := fmt.Sprintf("no prefix parse function for %s found", t)
	p.addError(p.curToken, msg)
}

// addError records a syntax error at the token. The list is capped so a
// runaway recovery loop cannot exhaust memory.
func (p *Parser) addError(tok lexer.Token, msg string) {
	const maxErrors = 1000
	if len(p.errors) > maxErrors {
		return
	}
	if len(p.errors) == maxErrors {
		msg = fmt.Sprintf("too many parse errors (limit: %d), stopping parser", maxErrors)
	}
	p.errors = append(p.errors, errors.ErrorRecord{TextRange: tokenRange(tok), Msg: msg})
}

// --- Precedence Helper ---
func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

// finish closes the node's span at the current token.
func (p *Parser) finish(n Node, start int) {
	n.setRange(source.TextRange{Start: start, End: p.curToken.EndPos})
}

// --- Expressions ---

func (p *Parser) parseExpression(precedence int) Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !p.peekTokenIs(lexer.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}
	return leftExp
}

func (p *Parser) parseIdentifier() Expression {
	if p.peekTokenIs(lexer.ARROW) {
		return p.parseSingleParamArrow()
	}
	ident := p.newIdentifier()
	return ident
}

func (p *Parser) newIdentifier() *Identifier {
	ident := &Identifier{Value: p.curToken.Literal}
	ident.Token = p.curToken
	ident.Span = tokenRange(p.curToken)
	return ident
}

func (p *Parser) parseIntegerLiteral() Expression {
	lit := &IntegerLiteral{}
	lit.Token = p.curToken
	lit.Span = tokenRange(p.curToken)
	value, err := strconv.ParseInt(p.curToken.Literal, 0, 64)
	if err != nil {
		p.addError(p.curToken, fmt.Sprintf("could not parse %q as integer", p.curToken.Literal))
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseFloatLiteral() Expression {
	lit := &FloatLiteral{}
	lit.Token = p.curToken
	lit.Span = tokenRange(p.curToken)
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError(p.curToken, fmt.Sprintf("could not parse %q as float", p.curToken.Literal))
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() Expression {
	lit := &StringLiteral{Value: p.curToken.Literal}
	lit.Token = p.curToken
	lit.Span = tokenRange(p.curToken)
	return lit
}

func (p *Parser) parseRegexLiteral() Expression {
	lit := &RegexLiteral{}
	lit.Token = p.curToken
	lit.Span = tokenRange(p.curToken)
	body := strings.TrimPrefix(p.curToken.Literal, "~/")
	if end := strings.LastIndex(body, "/"); end >= 0 {
		lit.Pattern, lit.Flags = body[:end], body[end+1:]
	} else {
		lit.Pattern = body
	}
	return lit
}

func (p *Parser) parseBooleanLiteral() Expression {
	lit := &BooleanLiteral{Value: p.curTokenIs(lexer.TRUE)}
	lit.Token = p.curToken
	lit.Span = tokenRange(p.curToken)
	return lit
}

func (p *Parser) parseNullLiteral() Expression {
	lit := &NullLiteral{}
	lit.Token = p.curToken
	lit.Span = tokenRange(p.curToken)
	return lit
}

func (p *Parser) parseThisExpression() Expression {
	e := &ThisExpression{}
	e.Token = p.curToken
	e.Span = tokenRange(p.curToken)
	return e
}

func (p *Parser) parseSuperExpression() Expression {
	e := &SuperExpression{}
	e.Token = p.curToken
	e.Span = tokenRange(p.curToken)
	return e
}

// parsePrefixExpression handles expressions like !expr or -expr
func (p *Parser) parsePrefixExpression() Expression {
	start := p.curToken
	expression := &PrefixExpression{Operator: start.Literal}
	expression.Token = start
	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}
	p.finish(expression, start.StartPos)
	return expression
}

func (p *Parser) parsePrefixUpdate() Expression {
	start := p.curToken
	expression := &UpdateExpression{Operator: start.Literal, Prefix: true}
	expression.Token = start
	p.nextToken()
	expression.Argument = p.parseExpression(PREFIX)
	if expression.Argument == nil {
		return nil
	}
	p.finish(expression, start.StartPos)
	return expression
}

func (p *Parser) parsePostfixUpdate(left Expression) Expression {
	expression := &UpdateExpression{Operator: p.curToken.Literal, Argument: left}
	expression.Token = p.curToken
	p.finish(expression, left.Range().Start)
	return expression
}

func (p *Parser) parseSpreadElement() Expression {
	start := p.curToken
	spread := &SpreadElement{}
	spread.Token = start
	p.nextToken()
	spread.Argument = p.parseExpression(PREFIX)
	if spread.Argument == nil {
		return nil
	}
	p.finish(spread, start.StartPos)
	return spread
}

func (p *Parser) parseInfixExpression(left Expression) Expression {
	expression := &InfixExpression{Operator: p.curToken.Literal, Left: left}
	expression.Token = p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	p.finish(expression, left.Range().Start)
	return expression
}

// parseAssignmentExpression is right associative: a = b = c.
func (p *Parser) parseAssignmentExpression(left Expression) Expression {
	expression := &AssignmentExpression{Operator: p.curToken.Literal, Left: left}
	expression.Token = p.curToken
	p.nextToken()
	expression.Value = p.parseExpression(ASSIGNMENT - 1)
	if expression.Value == nil {
		return nil
	}
	p.finish(expression, left.Range().Start)
	return expression
}

func (p *Parser) parseTernaryExpression(condition Expression) Expression {
	expression := &TernaryExpression{Condition: condition}
	expression.Token = p.curToken
	p.nextToken()
	expression.Consequence = p.parseExpression(LOWEST)
	if expression.Consequence == nil || !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	expression.Alternative = p.parseExpression(TERNARY - 1)
	if expression.Alternative == nil {
		return nil
	}
	p.finish(expression, condition.Range().Start)
	return expression
}

func (p *Parser) parseIntervalExpression(left Expression) Expression {
	expression := &IntervalExpression{From: left}
	expression.Token = p.curToken
	p.nextToken()
	expression.To = p.parseExpression(INTERVAL)
	if expression.To == nil {
		return nil
	}
	p.finish(expression, left.Range().Start)
	return expression
}

func (p *Parser) parseIsExpression(left Expression) Expression {
	expression := &IsExpression{Expr: left}
	expression.Token = p.curToken
	p.nextToken()
	expression.Type = p.parseType()
	if expression.Type == nil {
		return nil
	}
	p.finish(expression, left.Range().Start)
	return expression
}

func (p *Parser) parseCallExpression(callee Expression) Expression {
	call := &CallExpression{Callee: callee, LParen: p.curToken}
	call.Token = p.curToken
	args, ok := p.parseExpressionList(lexer.RPAREN)
	if !ok {
		return nil
	}
	call.Args = args
	call.RParen = p.curToken
	p.finish(call, callee.Range().Start)
	return call
}

// parseExpressionList parses a comma separated list up to the closing
// token. A trailing comma is accepted.
func (p *Parser) parseExpressionList(end lexer.TokenType) ([]Expression, bool) {
	list := []Expression{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}
	p.nextToken()
	for {
		item := p.parseExpression(LOWEST)
		if item == nil {
			return nil, false
		}
		list = append(list, item)
		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}

func (p *Parser) parseIndexExpression(left Expression) Expression {
	expression := &IndexExpression{Left: left}
	expression.Token = p.curToken
	p.nextToken()
	expression.Index = p.parseExpression(LOWEST)
	if expression.Index == nil || !p.expectPeek(lexer.RBRACKET) {
		return nil
	}
	p.finish(expression, left.Range().Start)
	return expression
}

func (p *Parser) parseMemberExpression(object Expression) Expression {
	expression := &MemberExpression{Object: object, Optional: p.curTokenIs(lexer.QDOT)}
	expression.Token = p.curToken
	if !p.expectPeekName() {
		return nil
	}
	expression.Property = p.newIdentifier()
	p.finish(expression, object.Range().Start)
	return expression
}

// --- Literals ---

func (p *Parser) parseArrayLiteral() Expression {
	start := p.curToken
	if p.peekTokenIs(lexer.FOR) || p.peekTokenIs(lexer.WHILE) {
		comp := &ArrayComprehension{}
		comp.Token = start
		p.nextToken()
		comp.Loop = p.parseExpression(LOWEST)
		if comp.Loop == nil || !p.expectPeek(lexer.RBRACKET) {
			return nil
		}
		comp.IsMap = yieldsPair(comp.Loop)
		p.finish(comp, start.StartPos)
		return comp
	}

	elements, ok := p.parseExpressionList(lexer.RBRACKET)
	if !ok {
		return nil
	}
	if len(elements) > 0 && allPairs(elements) {
		m := &MapLiteral{}
		m.Token = start
		for _, e := range elements {
			pair := e.(*InfixExpression)
			m.Keys = append(m.Keys, pair.Left)
			m.Values = append(m.Values, pair.Right)
		}
		p.finish(m, start.StartPos)
		return m
	}
	array := &ArrayLiteral{Elements: elements}
	array.Token = start
	p.finish(array, start.StartPos)
	return array
}

func isPair(e Expression) bool {
	infix, ok := e.(*InfixExpression)
	return ok && infix.Operator == "=>"
}

func allPairs(elements []Expression) bool {
	for _, e := range elements {
		if !isPair(e) {
			return false
		}
	}
	return true
}

// yieldsPair follows a comprehension loop down to the value it produces.
func yieldsPair(e Expression) bool {
	switch n := e.(type) {
	case *ForExpression:
		return yieldsPair(n.Body)
	case *WhileExpression:
		return yieldsPair(n.Body)
	case *IfExpression:
		return yieldsPair(n.Consequence)
	case *BlockExpression:
		if len(n.Expressions) == 0 {
			return false
		}
		return yieldsPair(n.Expressions[len(n.Expressions)-1])
	case *ParenExpression:
		return yieldsPair(n.Inner)
	}
	return isPair(e)
}

// parseBraceExpression decides between an object literal and a block.
func (p *Parser) parseBraceExpression() Expression {
	if (p.peekTokenIs(lexer.IDENT) || p.peekTokenIs(lexer.STRING) || isNameToken(p.peekToken)) &&
		p.lookAhead(1).Type == lexer.COLON {
		return p.parseObjectLiteral()
	}
	return p.parseBlock()
}

func (p *Parser) parseObjectLiteral() Expression {
	start := p.curToken
	obj := &ObjectLiteral{}
	obj.Token = start
	for !p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		field := &ObjectField{Name: p.curToken.Literal}
		field.Token = p.curToken
		if !p.expectPeek(lexer.COLON) {
			return nil
		}
		p.nextToken()
		field.Value = p.parseExpression(LOWEST)
		if field.Value == nil {
			return nil
		}
		p.finish(field, field.Token.StartPos)
		obj.Fields = append(obj.Fields, field)
		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	p.finish(obj, start.StartPos)
	return obj
}

// parseBlock parses `{ e1; e2; ... }` with the current token on '{'.
func (p *Parser) parseBlock() *BlockExpression {
	start := p.curToken
	block := &BlockExpression{Expressions: []Expression{}}
	block.Token = start
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		if !p.curTokenIs(lexer.SEMICOLON) {
			if e := p.parseExpression(LOWEST); e != nil {
				block.Expressions = append(block.Expressions, e)
			}
			if p.peekTokenIs(lexer.SEMICOLON) {
				p.nextToken()
			}
		}
		p.nextToken()
	}
	if !p.curTokenIs(lexer.RBRACE) {
		p.addError(p.curToken, "unterminated block")
	}
	p.finish(block, start.StartPos)
	return block
}

func (p *Parser) parseGroupedExpression() Expression {
	if p.isArrowAhead() {
		return p.parseArrowFunction()
	}
	start := p.curToken
	p.nextToken()
	inner := p.parseExpression(LOWEST)
	if inner == nil {
		return nil
	}
	if p.peekTokenIs(lexer.COLON) {
		check := &TypeCheckExpression{Expr: inner}
		check.Token = start
		p.nextToken()
		p.nextToken()
		check.Type = p.parseType()
		if check.Type == nil || !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		p.finish(check, start.StartPos)
		return check
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	paren := &ParenExpression{Inner: inner}
	paren.Token = start
	p.finish(paren, start.StartPos)
	return paren
}

// isArrowAhead scans past the balanced parentheses starting at the current
// token and reports whether '->' follows them.
func (p *Parser) isArrowAhead() bool {
	saved := p.l.SaveState()
	defer p.l.RestoreState(saved)

	depth := 1
	tok := p.peekToken
	for tok.Type != lexer.EOF {
		switch tok.Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
			if depth == 0 {
				return p.l.NextToken().Type == lexer.ARROW
			}
		}
		tok = p.l.NextToken()
	}
	return false
}

func (p *Parser) parseArrowFunction() Expression {
	start := p.curToken
	fn := &FunctionLiteral{Arrow: true}
	fn.Token = start
	params, ok := p.parseParameters()
	if !ok || !p.expectPeek(lexer.ARROW) {
		return nil
	}
	fn.Params = params
	p.nextToken()
	fn.Body = p.parseExpression(LOWEST)
	if fn.Body == nil {
		return nil
	}
	p.finish(fn, start.StartPos)
	return fn
}

func (p *Parser) parseSingleParamArrow() Expression {
	start := p.curToken
	param := &Parameter{Name: p.newIdentifier()}
	param.Token = start
	param.Span = tokenRange(start)
	fn := &FunctionLiteral{Arrow: true, Params: []*Parameter{param}}
	fn.Token = start
	p.nextToken() // ->
	p.nextToken()
	fn.Body = p.parseExpression(LOWEST)
	if fn.Body == nil {
		return nil
	}
	p.finish(fn, start.StartPos)
	return fn
}

func (p *Parser) parseFunctionLiteral() Expression {
	start := p.curToken
	fn := &FunctionLiteral{}
	fn.Token = start
	if isNameToken(p.peekToken) {
		p.nextToken()
		fn.Name = p.newIdentifier()
	}
	if p.peekTokenIs(lexer.LT) {
		p.nextToken()
		fn.TypeParams = p.parseTypeParameters()
	}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	params, ok := p.parseParameters()
	if !ok {
		return nil
	}
	fn.Params = params
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		fn.ReturnType = p.parseType()
	}
	p.nextToken()
	fn.Body = p.parseBody()
	if fn.Body == nil {
		return nil
	}
	p.finish(fn, start.StartPos)
	return fn
}

// parseBody parses a function body: a block or a single expression.
func (p *Parser) parseBody() Expression {
	if p.curTokenIs(lexer.LBRACE) {
		return p.parseBlock()
	}
	return p.parseExpression(LOWEST)
}

// parseParameters parses `(a:Int, ?b = 1, ...rest:String)` with the
// current token on '('.
func (p *Parser) parseParameters() ([]*Parameter, bool) {
	params := []*Parameter{}
	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return params, true
	}
	p.nextToken()
	for {
		param := p.parseParameter()
		if param == nil {
			return nil, false
		}
		params = append(params, param)
		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil, false
	}
	return params, true
}

func (p *Parser) parseParameter() *Parameter {
	for p.curTokenIs(lexer.META) {
		p.parseMetadata()
		p.nextToken()
	}
	start := p.curToken
	param := &Parameter{}
	param.Token = start
	if p.curTokenIs(lexer.QUESTION) {
		param.Optional = true
		p.nextToken()
	}
	if p.curTokenIs(lexer.INTERVAL) {
		param.Rest = true
		p.nextToken()
	}
	if !isNameToken(p.curToken) {
		p.addError(p.curToken, fmt.Sprintf("expected parameter name, got %s", p.curToken.Type))
		return nil
	}
	param.Name = p.newIdentifier()
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		param.Type = p.parseType()
		if param.Type == nil {
			return nil
		}
	}
	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken()
		p.nextToken()
		param.Default = p.parseExpression(LOWEST)
		param.Optional = true
	}
	p.finish(param, start.StartPos)
	return param
}

func (p *Parser) parseNewExpression() Expression {
	start := p.curToken
	ne := &NewExpression{}
	ne.Token = start
	p.nextToken()
	ne.Type = p.parseTypeReference()
	if ne.Type == nil || !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	ne.LParen = p.curToken
	args, ok := p.parseExpressionList(lexer.RPAREN)
	if !ok {
		return nil
	}
	ne.Args = args
	ne.RParen = p.curToken
	p.finish(ne, start.StartPos)
	return ne
}

// --- Declarations and control flow ---

func (p *Parser) parseVarDeclaration() Expression {
	start := p.curToken
	final := p.curTokenIs(lexer.FINAL)
	var decls []*VarDeclaration
	for {
		decl := &VarDeclaration{Final: final}
		decl.Token = start
		if !p.expectPeekName() {
			return nil
		}
		declStart := p.curToken.StartPos
		if len(decls) == 0 {
			declStart = start.StartPos
		}
		decl.Name = p.newIdentifier()
		if p.peekTokenIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			decl.Type = p.parseType()
		}
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			decl.Init = p.parseExpression(LOWEST)
		}
		p.finish(decl, declStart)
		decls = append(decls, decl)
		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}
	if len(decls) == 1 {
		return decls[0]
	}
	list := &VarDeclarationList{Decls: decls}
	list.Token = start
	p.finish(list, start.StartPos)
	return list
}

// parseCondition parses `(cond)` following a keyword.
func (p *Parser) parseCondition() Expression {
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil || !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return cond
}

func (p *Parser) parseIfExpression() Expression {
	start := p.curToken
	ie := &IfExpression{}
	ie.Token = start
	ie.Condition = p.parseCondition()
	if ie.Condition == nil {
		return nil
	}
	p.nextToken()
	ie.Consequence = p.parseExpression(LOWEST)
	if ie.Consequence == nil {
		return nil
	}
	// `if (c) a; else b;` keeps the else attached.
	if p.peekTokenIs(lexer.SEMICOLON) && p.lookAhead(1).Type == lexer.ELSE {
		p.nextToken()
	}
	if p.peekTokenIs(lexer.ELSE) {
		p.nextToken()
		p.nextToken()
		ie.Alternative = p.parseExpression(LOWEST)
		if ie.Alternative == nil {
			return nil
		}
	}
	p.finish(ie, start.StartPos)
	return ie
}

func (p *Parser) parseWhileExpression() Expression {
	start := p.curToken
	we := &WhileExpression{}
	we.Token = start
	we.Condition = p.parseCondition()
	if we.Condition == nil {
		return nil
	}
	p.nextToken()
	we.Body = p.parseExpression(LOWEST)
	if we.Body == nil {
		return nil
	}
	p.finish(we, start.StartPos)
	return we
}

func (p *Parser) parseDoWhileExpression() Expression {
	start := p.curToken
	we := &WhileExpression{DoWhile: true}
	we.Token = start
	p.nextToken()
	we.Body = p.parseExpression(LOWEST)
	if we.Body == nil {
		return nil
	}
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}
	if !p.expectPeek(lexer.WHILE) {
		return nil
	}
	we.Condition = p.parseCondition()
	if we.Condition == nil {
		return nil
	}
	p.finish(we, start.StartPos)
	return we
}

func (p *Parser) newLoopVariable() *LoopVariable {
	v := &LoopVariable{Name: p.newIdentifier()}
	v.Token = p.curToken
	v.Span = tokenRange(p.curToken)
	return v
}

func (p *Parser) parseForExpression() Expression {
	start := p.curToken
	fe := &ForExpression{}
	fe.Token = start
	if !p.expectPeek(lexer.LPAREN) || !p.expectPeekName() {
		return nil
	}
	fe.Value = p.newLoopVariable()
	if p.peekTokenIs(lexer.FAT_ARROW) {
		p.nextToken()
		if !p.expectPeekName() {
			return nil
		}
		fe.Key = fe.Value
		fe.Value = p.newLoopVariable()
	}
	if !p.expectPeek(lexer.IN) {
		return nil
	}
	p.nextToken()
	fe.Iterable = p.parseExpression(LOWEST)
	if fe.Iterable == nil || !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.nextToken()
	fe.Body = p.parseExpression(LOWEST)
	if fe.Body == nil {
		return nil
	}
	p.finish(fe, start.StartPos)
	return fe
}

func (p *Parser) parseSwitchExpression() Expression {
	start := p.curToken
	se := &SwitchExpression{}
	se.Token = start
	p.nextToken()
	se.Subject = p.parseExpression(LOWEST)
	if se.Subject == nil || !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) {
		switch p.curToken.Type {
		case lexer.CASE:
			sc := p.parseSwitchCase()
			if sc == nil {
				return nil
			}
			se.Cases = append(se.Cases, sc)
		case lexer.DEFAULT:
			colon := p.curToken
			if !p.expectPeek(lexer.COLON) {
				return nil
			}
			se.Default = p.parseCaseBody(colon)
		default:
			p.addError(p.curToken, fmt.Sprintf("expected case or default, got %s", p.curToken.Type))
			return nil
		}
		p.nextToken()
		if p.curTokenIs(lexer.EOF) {
			p.addError(p.curToken, "unterminated switch")
			return nil
		}
	}
	p.finish(se, start.StartPos)
	return se
}

func (p *Parser) parseSwitchCase() *SwitchCase {
	start := p.curToken
	sc := &SwitchCase{}
	sc.Token = start
	p.nextToken()
	for {
		pattern := p.parseExpression(LOWEST)
		if pattern == nil {
			return nil
		}
		sc.Patterns = append(sc.Patterns, splitAlternatives(pattern)...)
		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	for i, pattern := range sc.Patterns {
		sc.Patterns[i] = toPattern(pattern)
	}
	if p.peekTokenIs(lexer.IF) {
		p.nextToken()
		sc.Guard = p.parseCondition()
		if sc.Guard == nil {
			return nil
		}
	}
	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	sc.Body = p.parseCaseBody(p.curToken)
	p.finish(sc, start.StartPos)
	return sc
}

// parseCaseBody collects expressions up to the next case, default or the
// closing brace of the switch.
func (p *Parser) parseCaseBody(colon lexer.Token) *BlockExpression {
	block := &BlockExpression{Expressions: []Expression{}}
	block.Token = colon
	for !p.peekTokenIs(lexer.CASE) && !p.peekTokenIs(lexer.DEFAULT) &&
		!p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		if p.curTokenIs(lexer.SEMICOLON) {
			continue
		}
		if e := p.parseExpression(LOWEST); e != nil {
			block.Expressions = append(block.Expressions, e)
		}
	}
	p.finish(block, colon.StartPos)
	return block
}

// splitAlternatives flattens `A | B | C` into its alternatives.
func splitAlternatives(e Expression) []Expression {
	if infix, ok := e.(*InfixExpression); ok && infix.Operator == "|" {
		return append(splitAlternatives(infix.Left), splitAlternatives(infix.Right)...)
	}
	return []Expression{e}
}

// toPattern turns lowercase identifiers inside a case pattern into capture
// variables.
func toPattern(e Expression) Expression {
	switch n := e.(type) {
	case *Identifier:
		if r := []rune(n.Value); len(r) > 0 && (unicode.IsLower(r[0]) || r[0] == '_') {
			cv := &CaptureVariable{Name: n}
			cv.Token = n.Token
			cv.Span = n.Span
			return cv
		}
	case *CallExpression:
		for i, arg := range n.Args {
			n.Args[i] = toPattern(arg)
		}
	case *ArrayLiteral:
		for i, el := range n.Elements {
			n.Elements[i] = toPattern(el)
		}
	case *ObjectLiteral:
		for _, f := range n.Fields {
			f.Value = toPattern(f.Value)
		}
	case *ParenExpression:
		n.Inner = toPattern(n.Inner)
	}
	return e
}

func (p *Parser) parseReturnExpression() Expression {
	start := p.curToken
	re := &ReturnExpression{}
	re.Token = start
	if !p.endsStatement(p.peekToken) {
		p.nextToken()
		re.Value = p.parseExpression(LOWEST)
		if re.Value == nil {
			return nil
		}
	}
	p.finish(re, start.StartPos)
	return re
}

func (p *Parser) endsStatement(t lexer.Token) bool {
	switch t.Type {
	case lexer.SEMICOLON, lexer.RBRACE, lexer.EOF, lexer.CASE, lexer.DEFAULT:
		return true
	}
	return false
}

func (p *Parser) parseThrowExpression() Expression {
	start := p.curToken
	te := &ThrowExpression{}
	te.Token = start
	p.nextToken()
	te.Value = p.parseExpression(LOWEST)
	if te.Value == nil {
		return nil
	}
	p.finish(te, start.StartPos)
	return te
}

func (p *Parser) parseBreakExpression() Expression {
	be := &BreakExpression{}
	be.Token = p.curToken
	be.Span = tokenRange(p.curToken)
	return be
}

func (p *Parser) parseContinueExpression() Expression {
	ce := &ContinueExpression{}
	ce.Token = p.curToken
	ce.Span = tokenRange(p.curToken)
	return ce
}

func (p *Parser) parseTryExpression() Expression {
	start := p.curToken
	te := &TryExpression{}
	te.Token = start
	p.nextToken()
	te.Body = p.parseExpression(LOWEST)
	if te.Body == nil {
		return nil
	}
	for p.peekTokenIs(lexer.CATCH) {
		p.nextToken()
		cc := &CatchClause{}
		cc.Token = p.curToken
		if !p.expectPeek(lexer.LPAREN) || !p.expectPeekName() {
			return nil
		}
		v := &VarDeclaration{Name: p.newIdentifier()}
		v.Token = p.curToken
		if p.peekTokenIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			v.Type = p.parseType()
		}
		p.finish(v, v.Token.StartPos)
		cc.Var = v
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		p.nextToken()
		cc.Body = p.parseExpression(LOWEST)
		if cc.Body == nil {
			return nil
		}
		p.finish(cc, cc.Token.StartPos)
		te.Catches = append(te.Catches, cc)
	}
	p.finish(te, start.StartPos)
	return te
}

// parseCastExpression handles `cast e` and `cast(e, T)`.
func (p *Parser) parseCastExpression() Expression {
	start := p.curToken
	ce := &CastExpression{}
	ce.Token = start
	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		p.nextToken()
		ce.Expr = p.parseExpression(LOWEST)
		if ce.Expr == nil {
			return nil
		}
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			p.nextToken()
			ce.Type = p.parseType()
			if ce.Type == nil {
				return nil
			}
		}
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		p.finish(ce, start.StartPos)
		return ce
	}
	p.nextToken()
	ce.Expr = p.parseExpression(PREFIX)
	if ce.Expr == nil {
		return nil
	}
	p.finish(ce, start.StartPos)
	return ce
}

func (p *Parser) parseUntypedExpression() Expression {
	start := p.curToken
	ue := &UntypedExpression{}
	ue.Token = start
	p.nextToken()
	ue.Expr = p.parseExpression(LOWEST)
	if ue.Expr == nil {
		return nil
	}
	p.finish(ue, start.StartPos)
	return ue
}

func (p *Parser) parseMacroExpression() Expression {
	start := p.curToken
	me := &MacroExpression{}
	me.Token = start
	switch {
	case p.peekTokenIs(lexer.COLON):
		me.Kind = MacroType
		p.nextToken()
		p.nextToken()
		me.Type = p.parseType()
		if me.Type == nil {
			return nil
		}
	case p.peekTokenIs(lexer.CLASS):
		me.Kind = MacroClass
		p.nextToken()
		decl := p.parseClass(ClassKindClass, nil, false)
		if decl == nil {
			return nil
		}
		me.Class = decl
	default:
		me.Kind = MacroExpr
		p.nextToken()
		me.Expr = p.parseExpression(LOWEST)
		if me.Expr == nil {
			return nil
		}
	}
	p.finish(me, start.StartPos)
	return me
}

// parseReification handles `$v{...}` and friends as well as a bare `$name`.
func (p *Parser) parseReification() Expression {
	start := p.curToken
	re := &ReificationExpression{}
	re.Token = start
	name := strings.TrimPrefix(start.Literal, "$")
	if p.peekTokenIs(lexer.LBRACE) && p.peekToken.StartPos == start.EndPos {
		re.Kind = name
		p.nextToken()
		p.nextToken()
		re.Inner = p.parseExpression(LOWEST)
		if re.Inner == nil || !p.expectPeek(lexer.RBRACE) {
			return nil
		}
		p.finish(re, start.StartPos)
		return re
	}
	re.Kind = "e"
	inner := &Identifier{Value: name}
	inner.Token = start
	inner.Span = source.TextRange{Start: start.StartPos + 1, End: start.EndPos}
	re.Inner = inner
	re.Span = tokenRange(start)
	return re
}

// parseAnnotatedExpression drops metadata such as @:privateAccess in front
// of an expression.
func (p *Parser) parseAnnotatedExpression() Expression {
	p.parseMetadata()
	p.nextToken()
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseLineError() Expression {
	p.addError(p.curToken, "#error "+p.curToken.Literal)
	return nil
}

// parseMetadata parses `@:name` with arguments when '(' directly follows.
func (p *Parser) parseMetadata() *Metadata {
	start := p.curToken
	meta := &Metadata{Name: start.Literal}
	meta.Token = start
	if p.peekTokenIs(lexer.LPAREN) && p.peekToken.StartPos == start.EndPos {
		p.nextToken()
		args, ok := p.parseExpressionList(lexer.RPAREN)
		if ok {
			meta.Args = args
		}
	}
	p.finish(meta, start.StartPos)
	return meta
}
