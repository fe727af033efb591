package parser

import (
	"fmt"

	"hxinfer/pkg/lexer"
)

// parseType parses a type annotation starting at the current token:
// a type path with parameters, an anonymous structure, a parenthesized
// function type or an arrow chain of those.
func (p *Parser) parseType() TypeNode {
	p.typeDepth++
	defer func() { p.typeDepth-- }()

	start := p.curToken
	first := p.parseTypePrimary()
	if first == nil {
		return nil
	}
	if !p.peekTokenIs(lexer.ARROW) {
		return first
	}

	// Old style function type: A -> B -> C.
	chain := []TypeNode{first}
	for p.peekTokenIs(lexer.ARROW) {
		p.nextToken()
		p.nextToken()
		next := p.parseTypePrimary()
		if next == nil {
			return nil
		}
		chain = append(chain, next)
	}
	fn := &FunctionType{Return: chain[len(chain)-1]}
	fn.Token = start
	args := chain[:len(chain)-1]
	if len(args) == 1 && isVoidRef(args[0]) {
		args = nil
	}
	for _, a := range args {
		fn.Args = append(fn.Args, FunctionTypeArgument{Type: a})
	}
	p.finish(fn, start.StartPos)
	return fn
}

func isVoidRef(t TypeNode) bool {
	ref, ok := t.(*TypeReference)
	return ok && len(ref.Path) == 1 && ref.Path[0] == "Void" && len(ref.Params) == 0
}

func (p *Parser) parseTypePrimary() TypeNode {
	switch p.curToken.Type {
	case lexer.LPAREN:
		return p.parseParenType()
	case lexer.LBRACE:
		return p.parseAnonymousType()
	case lexer.QUESTION:
		// ?T in old style optional function arguments
		p.nextToken()
		return p.parseTypePrimary()
	}
	if isNameToken(p.curToken) {
		if ref := p.parseTypeReference(); ref != nil {
			return ref
		}
		return nil
	}
	p.addError(p.curToken, fmt.Sprintf("expected type, got %s", p.curToken.Type))
	return nil
}

// parseTypeReference parses `pack.Name<Params>` starting at the first path
// element.
func (p *Parser) parseTypeReference() *TypeReference {
	p.typeDepth++
	defer func() { p.typeDepth-- }()

	start := p.curToken
	if !isNameToken(start) {
		p.addError(start, fmt.Sprintf("expected type name, got %s", start.Type))
		return nil
	}
	ref := &TypeReference{Path: []string{start.Literal}}
	ref.Token = start
	for p.peekTokenIs(lexer.DOT) && isNameToken(p.lookAhead(1)) {
		p.nextToken()
		p.nextToken()
		ref.Path = append(ref.Path, p.curToken.Literal)
	}
	if p.peekTokenIs(lexer.LT) {
		p.nextToken()
		for {
			p.nextToken()
			param := p.parseType()
			if param == nil {
				return nil
			}
			ref.Params = append(ref.Params, param)
			if !p.peekTokenIs(lexer.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeekGT() {
			return nil
		}
	}
	p.finish(ref, start.StartPos)
	return ref
}

// parseParenType handles `()->R`, `(a:A, ?b:B)->R`, `(A)->R` and a plain
// parenthesized type.
func (p *Parser) parseParenType() TypeNode {
	start := p.curToken
	var args []FunctionTypeArgument
	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
	} else {
		for {
			p.nextToken()
			arg := FunctionTypeArgument{}
			if p.curTokenIs(lexer.QUESTION) {
				arg.Optional = true
				p.nextToken()
			}
			if p.curTokenIs(lexer.IDENT) && p.peekTokenIs(lexer.COLON) {
				arg.Name = p.curToken.Literal
				p.nextToken()
				p.nextToken()
			}
			arg.Type = p.parseType()
			if arg.Type == nil {
				return nil
			}
			args = append(args, arg)
			if !p.peekTokenIs(lexer.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
	}

	if !p.peekTokenIs(lexer.ARROW) {
		if len(args) == 1 && arg0Plain(args[0]) {
			return args[0].Type
		}
		p.addError(p.peekToken, "expected -> after function type arguments")
		return nil
	}
	p.nextToken()
	p.nextToken()
	fn := &FunctionType{Args: args}
	fn.Token = start
	fn.Return = p.parseTypeNoArrow()
	if fn.Return == nil {
		return nil
	}
	p.finish(fn, start.StartPos)
	return fn
}

// parseTypeNoArrow parses the return type of a new style function type,
// which may itself be a function type.
func (p *Parser) parseTypeNoArrow() TypeNode {
	if p.curTokenIs(lexer.LPAREN) {
		return p.parseParenType()
	}
	return p.parseType()
}

func arg0Plain(a FunctionTypeArgument) bool { return a.Name == "" && !a.Optional }

// parseAnonymousType parses `{ a:Int, ?b:String }`, the class notation
// `{ var a:Int; function f():Void; }` and `{ > Base, c:Bool }`.
func (p *Parser) parseAnonymousType() TypeNode {
	start := p.curToken
	anon := &AnonymousType{}
	anon.Token = start
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) {
		if p.curTokenIs(lexer.EOF) {
			p.addError(p.curToken, "unterminated anonymous type")
			return nil
		}
		optional := false
		for p.curTokenIs(lexer.META) {
			if m := p.parseMetadata(); m.Name == ":optional" {
				optional = true
			}
			p.nextToken()
		}
		for p.curTokenIs(lexer.PUBLIC) || p.curTokenIs(lexer.PRIVATE) || p.curTokenIs(lexer.DYNAMIC) {
			p.nextToken()
		}

		switch {
		case p.curTokenIs(lexer.COMMA), p.curTokenIs(lexer.SEMICOLON):
		case p.curTokenIs(lexer.GT):
			p.nextToken()
			ref := p.parseTypeReference()
			if ref == nil {
				return nil
			}
			anon.Extends = append(anon.Extends, ref)
		case p.curTokenIs(lexer.FUNCTION):
			f := p.parseAnonymousMethod()
			if f == nil {
				return nil
			}
			anon.Fields = append(anon.Fields, f)
		default:
			fieldStart := p.curToken
			if p.curTokenIs(lexer.VAR) || p.curTokenIs(lexer.FINAL) {
				p.nextToken()
			}
			if p.curTokenIs(lexer.QUESTION) {
				optional = true
				p.nextToken()
			}
			if !isNameToken(p.curToken) {
				p.addError(p.curToken, fmt.Sprintf("expected field name, got %s", p.curToken.Type))
				return nil
			}
			f := &AnonymousField{Name: p.newIdentifier(), Optional: optional}
			f.Token = fieldStart
			if p.peekTokenIs(lexer.LPAREN) {
				p.skipBalanced() // property accessors
			}
			if !p.expectPeek(lexer.COLON) {
				return nil
			}
			p.nextToken()
			f.Type = p.parseType()
			if f.Type == nil {
				return nil
			}
			p.finish(f, fieldStart.StartPos)
			anon.Fields = append(anon.Fields, f)
		}
		p.nextToken()
	}
	p.finish(anon, start.StartPos)
	return anon
}

func (p *Parser) parseAnonymousMethod() *AnonymousField {
	start := p.curToken
	if !p.expectPeekName() {
		return nil
	}
	f := &AnonymousField{Name: p.newIdentifier(), Method: true}
	f.Token = start
	if p.peekTokenIs(lexer.LT) {
		p.nextToken()
		p.parseTypeParameters()
	}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	params, ok := p.parseParameters()
	if !ok {
		return nil
	}
	fn := &FunctionType{}
	fn.Token = start
	for _, param := range params {
		fn.Args = append(fn.Args, FunctionTypeArgument{Name: param.Name.Value, Optional: param.Optional, Type: param.Type})
	}
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		fn.Return = p.parseType()
	}
	p.finish(fn, start.StartPos)
	f.Type = fn
	p.finish(f, start.StartPos)
	return f
}

// parseTypeParameters parses `<T, U:Constraint, V:(A, B)>` with the current
// token on '<'.
func (p *Parser) parseTypeParameters() []*TypeParameter {
	p.typeDepth++
	defer func() { p.typeDepth-- }()

	var params []*TypeParameter
	for {
		if !p.expectPeekName() {
			return params
		}
		tp := &TypeParameter{Name: p.newIdentifier()}
		tp.Token = p.curToken
		if p.peekTokenIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			if p.curTokenIs(lexer.LPAREN) {
				// Several constraints; the first one is kept.
				p.nextToken()
				tp.Constraint = p.parseType()
				for p.peekTokenIs(lexer.COMMA) {
					p.nextToken()
					p.nextToken()
					p.parseType()
				}
				p.expectPeek(lexer.RPAREN)
			} else {
				tp.Constraint = p.parseType()
			}
		}
		p.finish(tp, tp.Token.StartPos)
		params = append(params, tp)
		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}
	p.expectPeekGT()
	return params
}

// skipBalanced steps over a parenthesized group starting at the peek
// token, leaving the current token on the closing ')'.
func (p *Parser) skipBalanced() {
	depth := 0
	for {
		p.nextToken()
		switch p.curToken.Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
		case lexer.EOF:
			return
		}
		if depth == 0 {
			return
		}
	}
}
