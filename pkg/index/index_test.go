package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

func newIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New()
	require.NoError(t, err)
	return ix
}

func load(t *testing.T, ix *Index, src string) *parser.File {
	t.Helper()
	file := ix.LoadString("Test.hx", src)
	require.Empty(t, ix.Errors())
	return file
}

// findIdents collects identifiers named name in expression position, in
// source order.
func findIdents(root parser.Node, name string) []*parser.Identifier {
	var out []*parser.Identifier
	parser.Inspect(root, func(n parser.Node) bool {
		if id, ok := n.(*parser.Identifier); ok && id.Value == name {
			out = append(out, id)
		}
		return true
	})
	return out
}

func findVar(root parser.Node, name string) *parser.VarDeclaration {
	var found *parser.VarDeclaration
	parser.Inspect(root, func(n parser.Node) bool {
		if v, ok := n.(*parser.VarDeclaration); ok && v.Name.Value == name && found == nil {
			found = v
		}
		return found == nil
	})
	return found
}

func TestPreludeClasses(t *testing.T) {
	ix := newIndex(t)
	std := ix.Std()

	for _, name := range []string{"Int", "Float", "String", "Array", "Map", "Iterator", "IntIterator", "EReg", "haxe.Rest", "haxe.macro.Expr", "haxe.ds.Option"} {
		c, ok := ix.ClassByName(name)
		require.True(t, ok, name)
		assert.False(t, c.Missing, name)
	}

	assert.True(t, types.CanAssign(std.Float(nil), std.Int(nil)))

	m, owner := types.FindMember(std.String(nil), "charCodeAt")
	require.NotNil(t, m)
	assert.Equal(t, "(index:Int) -> Null<Int>", types.MemberType(m, owner).String())

	arr := std.ArrayOf(std.String(nil), nil)
	m, owner = types.FindMember(arr, "map")
	require.NotNil(t, m)
	assert.Equal(t, "(f:(String) -> S) -> Array<S>", types.MemberType(m, owner).String())

	assert.Equal(t, "Int", std.ElementType(std.IteratorOf(std.Int(nil), nil)).String())
	assert.Equal(t, "String", std.ElementType(std.MapOf(std.Int(nil), std.String(nil), nil)).String())
}

func TestDeclarationModels(t *testing.T) {
	ix := newIndex(t)
	file := load(t, ix, `
package app;

interface Shape { function area():Float; }

class Base<T> {
	public var items:Array<T>;
	public function new() {}
}

class Box extends Base<String> implements Shape {
	static var count = 0;
	public function area():Float return 1.0;
	@:overload(function(x:String):Void {})
	public function put<K:Shape>(key:K, ?label:String, ...rest:Int):Void {}
	macro function build(e:Expr);
}

typedef Point = { x:Int, ?y:Int };
enum Color { Red; Rgb(r:Int, g:Int, b:Int); }
`)
	box := ix.ClassModel(file.Decls[2])
	require.NotNil(t, box)
	assert.Equal(t, "app.Box", box.QualifiedName())
	require.NotNil(t, box.Super)
	assert.Equal(t, "Base<String>", box.Super.String())
	require.Len(t, box.Interfaces, 1)
	assert.Equal(t, types.KindInterface, box.Interfaces[0].Class.Kind)

	put := box.Method("put")
	require.NotNil(t, put)
	assert.True(t, put.Overloaded)
	require.Len(t, put.TypeParams, 1)
	assert.Equal(t, "Shape", put.TypeParams[0].Constraint.String())
	require.Len(t, put.Params, 3)
	assert.True(t, put.Params[1].Optional)
	assert.Equal(t, "Rest<Int>", put.Params[2].Type.String())
	assert.True(t, ix.Std().IsRest(put.Params[2].Type))

	build := box.Method("build")
	require.NotNil(t, build)
	assert.True(t, build.Macro)
	assert.True(t, build.Params[0].Type.(*types.ClassInstance).Class.Missing, "Expr is not imported")

	count := box.Field("count")
	require.NotNil(t, count)
	assert.True(t, count.Static)
	assert.Nil(t, count.Type)
	assert.True(t, count.HasInit)

	m, owner := types.FindMember(box.SelfInstance(), "items")
	require.NotNil(t, m)
	assert.Equal(t, "Array<String>", types.MemberType(m, owner).String())

	point := ix.ClassModel(file.Decls[3])
	assert.Equal(t, types.KindTypedef, point.Kind)
	assert.Equal(t, "{ x : Int, ?y : Int }", point.Alias.String())

	color := ix.ClassModel(file.Decls[4])
	require.Len(t, color.EnumConstructors, 2)
	assert.Equal(t, "(r:Int, g:Int, b:Int) -> Color", color.EnumConstructor("Rgb").FunctionType().String())
}

func TestMissingTypes(t *testing.T) {
	ix := newIndex(t)
	file := load(t, ix, `class A { var b:Nowhere<Int>; }`)
	a := ix.ClassModel(file.Decls[0])
	typ := types.AsClass(a.Field("b").Type)
	require.NotNil(t, typ)
	assert.True(t, typ.Class.Missing)
	assert.Empty(t, typ.Args)
}

func TestImports(t *testing.T) {
	ix := newIndex(t)
	ix.LoadString("Lib.hx", `package lib; class Helper {} enum Mode { Fast; Slow; }`)
	file := load(t, ix, `
import lib.Helper as H;
import lib.Mode;
import haxe.ds.*;
class Main {
	var h:H;
	var o:Option<Int>;
	function f() { return Fast; }
}`)
	main := ix.ClassModel(file.Decls[0])
	assert.Equal(t, "lib.Helper", types.AsClass(main.Field("h").Type).Class.QualifiedName())
	assert.Equal(t, "Option<Int>", main.Field("o").Type.String())

	fast := findIdents(file, "Fast")
	require.Len(t, fast, 1)
	sym := ix.Resolve(fast[0])
	require.NotNil(t, sym)
	assert.Equal(t, SymEnumConstructor, sym.Kind)
	assert.Equal(t, "Mode", sym.Class.Name)
}

func TestBindingAndScopes(t *testing.T) {
	ix := newIndex(t)
	file := load(t, ix, `
class Main {
	var total:Int;
	function run(list:Array<Int>) {
		var x = 1;
		for (v in list) {
			x += v;
		}
		{
			var x = "shadow";
			trace(x);
		}
		total = x;
		this.total = 2;
		switch (list) {
			case [first, _]: trace(first);
			default:
		}
		function local(n) return n + x;
		local(2);
		Main.create();
	}
	static function create() {}
}`)
	xs := findIdents(file, "x")
	outer := findVar(file, "x")
	require.NotNil(t, outer)
	usages := ix.Search(outer, nil)
	// x += v, total = x and the use inside the local function.
	require.Len(t, usages, 3)
	for _, u := range usages {
		assert.Same(t, outer, ix.Resolve(u).Decl)
	}
	assert.Equal(t, 3, len(xs)-len(usages), "declarations and the shadowed use are not usages of the outer x")

	totals := findIdents(file, "total")
	var fieldRefs int
	for _, id := range totals {
		if sym := ix.Resolve(id); sym != nil {
			assert.Equal(t, SymField, sym.Kind)
			fieldRefs++
		}
	}
	assert.Equal(t, 2, fieldRefs)

	v := findIdents(file, "v")
	require.NotEmpty(t, v)
	assert.Equal(t, SymLoopVariable, ix.Resolve(v[len(v)-1]).Kind)

	first := findIdents(file, "first")
	require.Len(t, first, 2)
	assert.Equal(t, SymCapture, ix.Resolve(first[1]).Kind)

	local := findIdents(file, "local")
	assert.Equal(t, SymLocalFunction, ix.Resolve(local[len(local)-1]).Kind)

	create := findIdents(file, "create")
	sym := ix.Resolve(create[0])
	require.NotNil(t, sym)
	assert.Equal(t, SymMethod, sym.Kind)
	assert.True(t, sym.Method.Static)

	list := findIdents(file, "list")
	assert.Equal(t, SymParameter, ix.Resolve(list[len(list)-1]).Kind)
	assert.Equal(t, "Array<Int>", ix.Resolve(list[len(list)-1]).Param.Type.String())
}

func TestSearchScope(t *testing.T) {
	ix := newIndex(t)
	file := load(t, ix, `
class Main {
	var shared = 0;
	function a() { shared = 1; }
	function b() { shared = 2; shared++; }
}`)
	main := file.Decls[0].(*parser.ClassDeclaration)
	decl := main.Members[0]
	assert.Len(t, ix.Search(decl, nil), 3)
	assert.Len(t, ix.Search(decl, main.Members[2]), 2)
}

func TestUsings(t *testing.T) {
	ix := newIndex(t)
	file := load(t, ix, `using StringTools; class A {}`)
	usings := ix.Usings(file.Decls[0])
	require.Len(t, usings, 1)
	assert.Equal(t, "StringTools", usings[0].Name)
	assert.NotNil(t, usings[0].Method("startsWith"))
}

func TestLocalAnnotations(t *testing.T) {
	ix := newIndex(t)
	file := load(t, ix, `
class A<T> {
	function f() {
		var a:Array<T> = [];
		var g = function<S>(s:S):Null<S> return s;
	}
}`)
	a := findVar(file, "a")
	typ := ix.TypeOf(a.Type)
	assert.Equal(t, "Array<T>", typ.String())
	assert.True(t, types.ContainsTypeParameters(typ))

	var fn *parser.FunctionLiteral
	parser.Inspect(file, func(n parser.Node) bool {
		if f, ok := n.(*parser.FunctionLiteral); ok {
			fn = f
		}
		return fn == nil
	})
	require.NotNil(t, fn)
	assert.True(t, types.IsTypeParam(ix.TypeOf(fn.Params[0].Type)))
	assert.Equal(t, "S", ix.TypeOf(fn.ReturnType).String())
}
