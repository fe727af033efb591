package parser

import (
	"fmt"

	"hxinfer/pkg/lexer"
	"hxinfer/pkg/source"
)

// ParseFile parses the whole input into a File and links every node to
// its parent.
func (p *Parser) ParseFile() *File {
	file := &File{Source: p.source}
	file.Token = p.curToken

	for !p.curTokenIs(lexer.EOF) {
		switch p.curToken.Type {
		case lexer.SEMICOLON:
		case lexer.PACKAGE:
			if !p.peekTokenIs(lexer.SEMICOLON) {
				p.nextToken()
				file.Package, _ = p.parsePath()
			}
		case lexer.IMPORT:
			if imp := p.parseImport(); imp != nil {
				file.Imports = append(file.Imports, imp)
			}
		case lexer.USING:
			start := p.curToken
			p.nextToken()
			path, _ := p.parsePath()
			u := &UsingDeclaration{Path: path}
			u.Token = start
			p.finish(u, start.StartPos)
			file.Usings = append(file.Usings, u)
		case lexer.LINE_ERROR:
			p.addError(p.curToken, "#error "+p.curToken.Literal)
		default:
			if decl := p.parseDeclaration(); decl != nil {
				file.Decls = append(file.Decls, decl)
			}
		}
		p.nextToken()
	}

	file.Span = source.TextRange{Start: 0, End: len(p.l.Input())}
	LinkParents(file)
	return file
}

// parsePath reads `a.b.C` and reports a trailing `.*`.
func (p *Parser) parsePath() ([]string, bool) {
	var path []string
	if !isNameToken(p.curToken) {
		p.addError(p.curToken, fmt.Sprintf("expected path, got %s", p.curToken.Type))
		return nil, false
	}
	path = append(path, p.curToken.Literal)
	for p.peekTokenIs(lexer.DOT) {
		p.nextToken()
		if p.peekTokenIs(lexer.ASTERISK) {
			p.nextToken()
			return path, true
		}
		if !p.expectPeekName() {
			return path, false
		}
		path = append(path, p.curToken.Literal)
	}
	return path, false
}

func (p *Parser) parseImport() *ImportDeclaration {
	start := p.curToken
	imp := &ImportDeclaration{}
	imp.Token = start
	p.nextToken()
	imp.Path, imp.Wildcard = p.parsePath()
	if imp.Path == nil {
		return nil
	}
	// `import a.B as C` and the older `import a.B in C`
	if (p.peekToken.Literal == "as" || p.peekTokenIs(lexer.IN)) && p.lookAhead(1).Type == lexer.IDENT {
		p.nextToken()
		p.nextToken()
		imp.Alias = p.curToken.Literal
	}
	p.finish(imp, start.StartPos)
	return imp
}

// parseDeclaration parses one module level type declaration along with its
// leading metadata and modifiers.
func (p *Parser) parseDeclaration() Declaration {
	start := p.curToken
	var meta []*Metadata
	var private, extern bool
modifiers:
	for {
		switch p.curToken.Type {
		case lexer.META:
			meta = append(meta, p.parseMetadata())
		case lexer.PRIVATE:
			private = true
		case lexer.EXTERN:
			extern = true
		case lexer.FINAL:
		default:
			break modifiers
		}
		p.nextToken()
	}

	var result Declaration
	switch p.curToken.Type {
	case lexer.CLASS:
		if c := p.parseClass(ClassKindClass, meta, extern); c != nil {
			c.Private = private
			result = c
		}
	case lexer.INTERFACE:
		if c := p.parseClass(ClassKindInterface, meta, extern); c != nil {
			c.Private = private
			result = c
		}
	case lexer.ABSTRACT:
		if c := p.parseAbstract(meta, false); c != nil {
			c.Private = private
			result = c
		}
	case lexer.ENUM:
		if p.peekTokenIs(lexer.ABSTRACT) {
			p.nextToken()
			if c := p.parseAbstract(meta, true); c != nil {
				c.Private = private
				result = c
			}
		} else if e := p.parseEnum(meta); e != nil {
			result = e
		}
	case lexer.TYPEDEF:
		if t := p.parseTypedef(meta); t != nil {
			result = t
		}
	default:
		p.addError(p.curToken, fmt.Sprintf("unexpected %s at module level", p.curToken.Type))
		return nil
	}
	if result != nil {
		p.finish(result, start.StartPos)
	}
	return result
}

// parseClass parses a class or interface with the current token on the
// keyword.
func (p *Parser) parseClass(kind ClassKind, meta []*Metadata, extern bool) *ClassDeclaration {
	start := p.curToken
	c := &ClassDeclaration{Kind: kind, Meta: meta, Extern: extern}
	c.Token = start
	if !p.expectPeekName() {
		return nil
	}
	c.Name = p.newIdentifier()
	if p.peekTokenIs(lexer.LT) {
		p.nextToken()
		c.TypeParams = p.parseTypeParameters()
	}
	for p.peekTokenIs(lexer.EXTENDS) || p.peekTokenIs(lexer.IMPLEMENTS) || p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		implements := p.curTokenIs(lexer.IMPLEMENTS)
		p.nextToken()
		ref := p.parseTypeReference()
		if ref == nil {
			return nil
		}
		// Interfaces list their parents with extends.
		if implements {
			c.Implements = append(c.Implements, ref)
		} else {
			c.Extends = append(c.Extends, ref)
		}
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	c.Members = p.parseMembers(kind == ClassKindInterface)
	p.finish(c, start.StartPos)
	return c
}

// parseAbstract parses `abstract Name<T>(Underlying) from A to B { ... }`
// and the `enum abstract` form.
func (p *Parser) parseAbstract(meta []*Metadata, enumLike bool) *ClassDeclaration {
	start := p.curToken
	c := &ClassDeclaration{Kind: ClassKindAbstract, Meta: meta, EnumLike: enumLike}
	c.Token = start
	if !p.expectPeekName() {
		return nil
	}
	c.Name = p.newIdentifier()
	if p.peekTokenIs(lexer.LT) {
		p.nextToken()
		c.TypeParams = p.parseTypeParameters()
	}
	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		p.nextToken()
		c.Underlying = p.parseType()
		if c.Underlying == nil || !p.expectPeek(lexer.RPAREN) {
			return nil
		}
	}
	for p.peekToken.Literal == "from" || p.peekToken.Literal == "to" {
		p.nextToken()
		isFrom := p.curToken.Literal == "from"
		p.nextToken()
		t := p.parseType()
		if t == nil {
			return nil
		}
		if isFrom {
			c.From = append(c.From, t)
		} else {
			c.To = append(c.To, t)
		}
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	c.Members = p.parseMembers(false)
	p.finish(c, start.StartPos)
	return c
}

// parseMembers parses class members up to the closing brace. The current
// token is the opening brace.
func (p *Parser) parseMembers(isInterface bool) []Member {
	var members []Member
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) {
		if p.curTokenIs(lexer.EOF) {
			p.addError(p.curToken, "unterminated class body")
			return members
		}
		if p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			continue
		}
		if m := p.parseMember(isInterface); m != nil {
			members = append(members, m)
		} else {
			p.skipToMemberEnd()
		}
		p.nextToken()
	}
	return members
}

// skipToMemberEnd recovers after a broken member.
func (p *Parser) skipToMemberEnd() {
	for !p.curTokenIs(lexer.SEMICOLON) && !p.peekTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		if p.peekTokenIs(lexer.FUNCTION) || p.peekTokenIs(lexer.VAR) || p.peekTokenIs(lexer.META) {
			return
		}
		p.nextToken()
	}
}

func (p *Parser) parseMember(isInterface bool) Member {
	start := p.curToken
	var meta []*Metadata
	var mods Modifiers

modifiers:
	for {
		switch p.curToken.Type {
		case lexer.META:
			meta = append(meta, p.parseMetadata())
		case lexer.PUBLIC:
			mods.Public = true
		case lexer.PRIVATE:
			mods.Private = true
		case lexer.STATIC:
			mods.Static = true
		case lexer.OVERRIDE:
			mods.Override = true
		case lexer.INLINE:
			mods.Inline = true
		case lexer.DYNAMIC:
			mods.Dynamic = true
		case lexer.EXTERN:
			mods.Extern = true
		case lexer.MACRO:
			mods.Macro = true
		case lexer.FINAL:
			if !p.peekTokenIs(lexer.FUNCTION) {
				break modifiers
			}
		default:
			break modifiers
		}
		p.nextToken()
	}

	switch p.curToken.Type {
	case lexer.VAR, lexer.FINAL:
		f := p.parseField(meta, mods)
		if f == nil {
			return nil
		}
		p.finish(f, start.StartPos)
		return f
	case lexer.FUNCTION:
		m := p.parseMethod(meta, mods, isInterface)
		if m == nil {
			return nil
		}
		p.finish(m, start.StartPos)
		return m
	}
	p.addError(p.curToken, fmt.Sprintf("expected class member, got %s", p.curToken.Type))
	return nil
}

func (p *Parser) parseField(meta []*Metadata, mods Modifiers) *FieldDeclaration {
	f := &FieldDeclaration{Meta: meta, Modifiers: mods, Final: p.curTokenIs(lexer.FINAL)}
	f.Token = p.curToken
	if !p.expectPeekName() {
		return nil
	}
	f.Name = p.newIdentifier()
	if p.peekTokenIs(lexer.LPAREN) {
		p.skipBalanced() // property accessors
	}
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		f.Type = p.parseType()
		if f.Type == nil {
			return nil
		}
	}
	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken()
		p.nextToken()
		f.Init = p.parseExpression(LOWEST)
	}
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}
	return f
}

func (p *Parser) parseMethod(meta []*Metadata, mods Modifiers, isInterface bool) *MethodDeclaration {
	m := &MethodDeclaration{Meta: meta, Modifiers: mods}
	m.Token = p.curToken
	if !p.expectPeekName() {
		return nil
	}
	m.Name = p.newIdentifier()
	if p.peekTokenIs(lexer.LT) {
		p.nextToken()
		m.TypeParams = p.parseTypeParameters()
	}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	params, ok := p.parseParameters()
	if !ok {
		return nil
	}
	m.Params = params
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		m.ReturnType = p.parseType()
		if m.ReturnType == nil {
			return nil
		}
	}
	switch {
	case p.peekTokenIs(lexer.SEMICOLON):
		p.nextToken()
	case p.peekTokenIs(lexer.RBRACE) && isInterface:
	default:
		p.nextToken()
		body := p.parseBody()
		if body == nil {
			return nil
		}
		m.Body = body
		if p.peekTokenIs(lexer.SEMICOLON) {
			p.nextToken()
		}
	}
	return m
}

func (p *Parser) parseEnum(meta []*Metadata) *EnumDeclaration {
	start := p.curToken
	e := &EnumDeclaration{Meta: meta}
	e.Token = start
	if !p.expectPeekName() {
		return nil
	}
	e.Name = p.newIdentifier()
	if p.peekTokenIs(lexer.LT) {
		p.nextToken()
		e.TypeParams = p.parseTypeParameters()
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) {
		if p.curTokenIs(lexer.EOF) {
			p.addError(p.curToken, "unterminated enum")
			return nil
		}
		if p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			continue
		}
		for p.curTokenIs(lexer.META) {
			p.parseMetadata()
			p.nextToken()
		}
		if !isNameToken(p.curToken) {
			p.addError(p.curToken, fmt.Sprintf("expected enum constructor, got %s", p.curToken.Type))
			return nil
		}
		ctor := &EnumConstructorDeclaration{Name: p.newIdentifier()}
		ctor.Token = p.curToken
		if p.peekTokenIs(lexer.LPAREN) {
			p.nextToken()
			params, ok := p.parseParameters()
			if !ok {
				return nil
			}
			ctor.Params = params
			ctor.HasArgs = true
		}
		p.finish(ctor, ctor.Token.StartPos)
		e.Constructors = append(e.Constructors, ctor)
		p.nextToken()
	}
	p.finish(e, start.StartPos)
	return e
}

func (p *Parser) parseTypedef(meta []*Metadata) *TypedefDeclaration {
	start := p.curToken
	t := &TypedefDeclaration{Meta: meta}
	t.Token = start
	if !p.expectPeekName() {
		return nil
	}
	t.Name = p.newIdentifier()
	if p.peekTokenIs(lexer.LT) {
		p.nextToken()
		t.TypeParams = p.parseTypeParameters()
	}
	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}
	p.nextToken()
	t.Type = p.parseType()
	if t.Type == nil {
		return nil
	}
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}
	p.finish(t, start.StartPos)
	return t
}
