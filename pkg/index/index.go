// Package index builds declaration models from parsed source files and
// answers the name resolution and usage queries the checker relies on.
package index

import (
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"hxinfer/pkg/errors"
	"hxinfer/pkg/parser"
	"hxinfer/pkg/source"
	"hxinfer/pkg/types"
)

//go:embed prelude
var preludeFS embed.FS

const debugIndex = false

var log = logrus.WithField("pkg", "index")

func debugPrintf(format string, args ...any) {
	if debugIndex {
		log.Debugf(format, args...)
	}
}

// Index holds every loaded file together with the models declared in it.
type Index struct {
	std    *types.Std
	files  []*parser.File
	errors []errors.ErrorRecord

	classes    map[parser.Declaration]*types.ClassModel
	methods    map[*parser.MethodDeclaration]*types.MethodModel
	fields     map[*parser.FieldDeclaration]*types.FieldModel
	ctors      map[*parser.EnumConstructorDeclaration]*types.EnumConstructor
	params     map[*parser.Parameter]*types.ParameterModel
	typeParams map[*parser.TypeParameter]*types.TypeParameter

	// annotations caches the resolved type of every type node seen.
	annotations map[parser.TypeNode]types.Type
	// pending holds header resolution still to run, per model.
	pending map[*types.ClassModel]func()

	symbols map[parser.Node]*Symbol
	refs    map[*parser.Identifier]*Symbol
	usages  map[parser.Node][]*parser.Identifier
	modules map[*parser.File]*Scope
}

// New creates an index with the standard prelude loaded.
func New() (*Index, error) {
	ix := &Index{
		std:         types.NewStd(),
		classes:     make(map[parser.Declaration]*types.ClassModel),
		methods:     make(map[*parser.MethodDeclaration]*types.MethodModel),
		fields:      make(map[*parser.FieldDeclaration]*types.FieldModel),
		ctors:       make(map[*parser.EnumConstructorDeclaration]*types.EnumConstructor),
		params:      make(map[*parser.Parameter]*types.ParameterModel),
		typeParams:  make(map[*parser.TypeParameter]*types.TypeParameter),
		annotations: make(map[parser.TypeNode]types.Type),
		pending:     make(map[*types.ClassModel]func()),
		symbols:     make(map[parser.Node]*Symbol),
		refs:        make(map[*parser.Identifier]*Symbol),
		usages:      make(map[parser.Node][]*parser.Identifier),
		modules:     make(map[*parser.File]*Scope),
	}
	prelude, err := preludeFiles()
	if err != nil {
		return nil, err
	}
	ix.Load(prelude...)
	if len(ix.errors) > 0 {
		return nil, ix.errors[0]
	}
	return ix, nil
}

// MustNew is New for callers that treat a broken prelude as fatal.
func MustNew() *Index {
	ix, err := New()
	if err != nil {
		panic(err)
	}
	return ix
}

func preludeFiles() ([]*source.SourceFile, error) {
	var files []*source.SourceFile
	err := fs.WalkDir(preludeFS, "prelude", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".hx" {
			return err
		}
		data, err := preludeFS.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, source.NewSourceFile(path.Base(p), p, string(data)))
		return nil
	})
	return files, err
}

// Std exposes the core classes.
func (ix *Index) Std() *types.Std { return ix.std }

// Files lists every loaded file, the prelude included.
func (ix *Index) Files() []*parser.File { return ix.files }

// Errors lists the syntax errors found while loading.
func (ix *Index) Errors() []errors.ErrorRecord { return ix.errors }

// Load parses a batch of files and indexes them. Types referenced across
// files of the same batch resolve regardless of order.
func (ix *Index) Load(files ...*source.SourceFile) []*parser.File {
	parsed := make([]*parser.File, 0, len(files))
	var errs []errors.ErrorRecord
	for _, sf := range files {
		file, fileErrs := parser.ParseSource(sf)
		errs = append(errs, fileErrs...)
		parsed = append(parsed, file)
	}
	ix.Add(parsed, errs)
	return parsed
}

// Add indexes files that were parsed elsewhere, together with the syntax
// errors found while parsing them. Like Load it treats files as one batch.
func (ix *Index) Add(parsed []*parser.File, errs []errors.ErrorRecord) {
	ix.errors = append(ix.errors, errs...)
	if len(errs) > 0 {
		log.WithField("errors", len(errs)).Warn("syntax errors")
	}
	ix.files = append(ix.files, parsed...)

	for _, f := range parsed {
		ix.declare(f)
	}
	for len(ix.pending) > 0 {
		for model := range ix.pending {
			ix.ensureHeader(model)
		}
	}
	for _, f := range parsed {
		ix.modules[f] = ix.moduleScope(f)
	}
	for _, f := range parsed {
		newBinder(ix, f).bindFile()
	}
	log.WithFields(logrus.Fields{"files": len(parsed), "refs": len(ix.refs)}).Debug("loaded")
}

// LoadString parses and indexes a single in-memory file.
func (ix *Index) LoadString(name, content string) *parser.File {
	return ix.Load(source.NewSourceFile(name, "", content))[0]
}

// --- Queries ---

// Resolve returns the declaration an identifier refers to, or nil when it
// is unbound (for example a field accessed through a non-this receiver).
func (ix *Index) Resolve(ident *parser.Identifier) *Symbol {
	return ix.refs[ident]
}

// SymbolOf returns the symbol introduced by a declaration node.
func (ix *Index) SymbolOf(decl parser.Node) *Symbol {
	return ix.symbols[decl]
}

// Search returns the references to decl in source order. When scope is not
// nil only references inside its range are returned.
func (ix *Index) Search(decl parser.Node, scope parser.Node) []*parser.Identifier {
	refs := ix.usages[decl]
	var scopeFile *parser.File
	if scope != nil {
		scopeFile = FileOf(scope)
	}
	out := make([]*parser.Identifier, 0, len(refs))
	for _, r := range refs {
		if scope != nil && (FileOf(r) != scopeFile || !scope.Range().Contains(r.Range())) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b *parser.Identifier) int {
		return a.Range().Start - b.Range().Start
	})
	return out
}

// Usings lists the classes brought in with `using` by the file that
// contains n.
func (ix *Index) Usings(n parser.Node) []*types.ClassModel {
	file := FileOf(n)
	if file == nil {
		return nil
	}
	var out []*types.ClassModel
	for _, u := range file.Usings {
		if c, ok := ix.findClass(u.Path, file); ok {
			out = append(out, c)
		}
	}
	return out
}

// TypeOf returns the resolved type of an annotation.
func (ix *Index) TypeOf(t parser.TypeNode) types.Type {
	if t == nil {
		return nil
	}
	if resolved, ok := ix.annotations[t]; ok {
		return resolved
	}
	return ix.resolveType(t, FileOf(t), nil)
}

func (ix *Index) ClassModel(decl parser.Declaration) *types.ClassModel { return ix.classes[decl] }

func (ix *Index) MethodModel(decl *parser.MethodDeclaration) *types.MethodModel {
	return ix.methods[decl]
}

func (ix *Index) FieldModel(decl *parser.FieldDeclaration) *types.FieldModel {
	return ix.fields[decl]
}

func (ix *Index) EnumConstructor(decl *parser.EnumConstructorDeclaration) *types.EnumConstructor {
	return ix.ctors[decl]
}

func (ix *Index) ParameterModel(decl *parser.Parameter) *types.ParameterModel {
	return ix.params[decl]
}

// ClassByName looks a class up by qualified name.
func (ix *Index) ClassByName(qualified string) (*types.ClassModel, bool) {
	return ix.std.Lookup(qualified)
}

// EnclosingClass returns the model of the declaration containing n.
func (ix *Index) EnclosingClass(n parser.Node) *types.ClassModel {
	decl := parser.Ancestor(n, func(p parser.Node) bool {
		_, ok := p.(parser.Declaration)
		return ok
	})
	if decl == nil {
		return nil
	}
	return ix.classes[decl.(parser.Declaration)]
}

// EnclosingMethod returns the model of the method containing n.
func (ix *Index) EnclosingMethod(n parser.Node) *types.MethodModel {
	m := parser.Ancestor(n, func(p parser.Node) bool {
		_, ok := p.(*parser.MethodDeclaration)
		return ok
	})
	if m == nil {
		return nil
	}
	return ix.methods[m.(*parser.MethodDeclaration)]
}

// FileOf returns the file node containing n.
func FileOf(n parser.Node) *parser.File {
	for cur := n; cur != nil; cur = cur.Parent() {
		if f, ok := cur.(*parser.File); ok {
			return f
		}
	}
	return nil
}

// --- Class lookup ---

// findClass resolves a type path as seen from file: explicit imports, the
// file's own package, wildcard imports and finally the top level.
func (ix *Index) findClass(p []string, file *parser.File) (*types.ClassModel, bool) {
	if len(p) == 0 {
		return nil, false
	}
	if len(p) > 1 {
		return ix.std.Lookup(strings.Join(p, "."))
	}
	name := p[0]
	if file != nil {
		for _, imp := range file.Imports {
			if imp.Wildcard {
				continue
			}
			alias := imp.Alias
			if alias == "" {
				alias = imp.Path[len(imp.Path)-1]
			}
			if alias == name {
				return ix.std.Lookup(strings.Join(imp.Path, "."))
			}
		}
		if len(file.Package) > 0 {
			if c, ok := ix.std.Lookup(file.PackageName() + "." + name); ok {
				return c, true
			}
		}
		for _, imp := range file.Imports {
			if imp.Wildcard {
				if c, ok := ix.std.Lookup(strings.Join(imp.Path, ".") + "." + name); ok {
					return c, true
				}
			}
		}
	}
	return ix.std.Lookup(name)
}

// lookupClass is findClass falling back to a missing placeholder.
func (ix *Index) lookupClass(p []string, file *parser.File) *types.ClassModel {
	if c, ok := ix.findClass(p, file); ok {
		ix.ensureHeader(c)
		return c
	}
	debugPrintf("// [Index] unresolved type %s\n", strings.Join(p, "."))
	return ix.std.Class(strings.Join(p, "."))
}

// moduleScope holds the enum constructors usable unqualified in file: those
// of enums declared in the file, imported explicitly or through a wildcard.
func (ix *Index) moduleScope(file *parser.File) *Scope {
	scope := NewScope(nil)
	addEnum := func(c *types.ClassModel) {
		if c == nil || c.Kind != types.KindEnum {
			return
		}
		for _, e := range c.EnumConstructors {
			scope.Define(ix.enumCtorSymbol(e))
		}
	}
	for _, d := range file.Decls {
		addEnum(ix.classes[d])
	}
	for _, imp := range file.Imports {
		if !imp.Wildcard {
			c, _ := ix.std.Lookup(strings.Join(imp.Path, "."))
			addEnum(c)
			continue
		}
		prefix := strings.Join(imp.Path, ".")
		for _, f := range ix.files {
			if f.PackageName() != prefix {
				continue
			}
			for _, d := range f.Decls {
				addEnum(ix.classes[d])
			}
		}
	}
	return scope
}

// --- Symbols ---

func (ix *Index) symbolFor(decl parser.Node, build func() *Symbol) *Symbol {
	if decl == nil {
		return build()
	}
	if sym, ok := ix.symbols[decl]; ok {
		return sym
	}
	sym := build()
	ix.symbols[decl] = sym
	return sym
}

func declNode(n types.Node) parser.Node {
	if pn, ok := n.(parser.Node); ok {
		return pn
	}
	return nil
}

func (ix *Index) classSymbol(c *types.ClassModel) *Symbol {
	return ix.symbolFor(declNode(c.Decl), func() *Symbol {
		return &Symbol{Kind: SymClass, Name: c.Name, Decl: declNode(c.Decl), Class: c}
	})
}

func (ix *Index) enumCtorSymbol(e *types.EnumConstructor) *Symbol {
	return ix.symbolFor(declNode(e.Decl), func() *Symbol {
		return &Symbol{Kind: SymEnumConstructor, Name: e.Name, Decl: declNode(e.Decl), Class: e.Enum, EnumCtor: e}
	})
}

func (ix *Index) memberSymbol(m types.Member) *Symbol {
	switch v := m.(type) {
	case *types.FieldModel:
		return ix.symbolFor(declNode(v.Decl), func() *Symbol {
			return &Symbol{Kind: SymField, Name: v.Name, Decl: declNode(v.Decl), Class: v.Class, Field: v}
		})
	case *types.MethodModel:
		return ix.symbolFor(declNode(v.Decl), func() *Symbol {
			return &Symbol{Kind: SymMethod, Name: v.Name, Decl: declNode(v.Decl), Class: v.Class, Method: v}
		})
	}
	return nil
}

func (ix *Index) bindRef(ident *parser.Identifier, sym *Symbol) {
	ix.refs[ident] = sym
	if sym.Decl != nil {
		ix.usages[sym.Decl] = append(ix.usages[sym.Decl], ident)
	}
}
