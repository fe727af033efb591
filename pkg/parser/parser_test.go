package parser

import (
	"testing"
)

func parseOrFail(t *testing.T, input string) *File {
	t.Helper()
	file, errs := ParseString("Test.hx", input)
	if len(errs) > 0 {
		for _, e := range errs {
			t.Errorf("parser error at %s: %s", e.TextRange, e.Msg)
		}
		t.FailNow()
	}
	return file
}

// parseBody parses statements wrapped in a method and returns the body.
func parseBody(t *testing.T, body string) *BlockExpression {
	t.Helper()
	file := parseOrFail(t, "class T { function f() {"+body+"} }")
	class := file.Decls[0].(*ClassDeclaration)
	return class.Members[0].(*MethodDeclaration).Body.(*BlockExpression)
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"-a * b", "((-a) * b)"},
		{"a + b == c", "((a + b) == c)"},
		{"a || b && c", "(a || (b && c))"},
		{"a ?? b || c", "(a ?? (b || c))"},
		{"a >= b", "(a >= b)"},
		{"a >> 2", "(a >> 2)"},
		{"a >>> b + 1", "(a >>> (b + 1))"},
		{"a > b", "(a > b)"},
		{"x = y = 3", "x = y = 3"},
		{"a >>= 1", "a >>= 1"},
		{"c ? 1 : d ? 2 : 3", "(c ? 1 : (d ? 2 : 3))"},
		{"a.b(c)[0]", "a.b(c)[0]"},
		{"0...n", "0...n"},
		{"x | y & z", "((x | y) & z)"},
		{"i++ + 1", "(i++ + 1)"},
	}
	for _, tt := range tests {
		block := parseBody(t, tt.input+";")
		if len(block.Expressions) != 1 {
			t.Fatalf("%q: expected 1 expression, got %d", tt.input, len(block.Expressions))
		}
		if got := block.Expressions[0].String(); got != tt.expected {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestClassDeclaration(t *testing.T) {
	input := `package my.pack;
import haxe.ds.StringMap;
import sys.io.*;
using StringTools;

@:keep
class Box<T:Base> extends Parent<T> implements IFace {
	public var value(default, null):T;
	static final LIMIT = 10;
	public function new(v:T) { value = v; }
	@:overload(function(x:Int):Void {})
	public static function put<K>(?x:K, ...rest:Int):Null<K> return null;
	function get():T;
}`
	file := parseOrFail(t, input)
	if file.PackageName() != "my.pack" {
		t.Errorf("package: got %q", file.PackageName())
	}
	if len(file.Imports) != 2 || !file.Imports[1].Wildcard {
		t.Fatalf("imports: got %v", file.Imports)
	}
	if len(file.Usings) != 1 || file.Usings[0].Path[0] != "StringTools" {
		t.Fatalf("usings: got %v", file.Usings)
	}

	class, ok := file.Decls[0].(*ClassDeclaration)
	if !ok {
		t.Fatalf("expected class, got %T", file.Decls[0])
	}
	if class.Name.Value != "Box" || !class.HasMeta("keep") {
		t.Errorf("class header wrong: %s", class.Name.Value)
	}
	if len(class.TypeParams) != 1 || class.TypeParams[0].Constraint.String() != "Base" {
		t.Errorf("type params wrong: %v", class.TypeParams)
	}
	if class.Extends[0].String() != "Parent<T>" || class.Implements[0].String() != "IFace" {
		t.Errorf("supers wrong: %v %v", class.Extends, class.Implements)
	}
	if len(class.Members) != 5 {
		t.Fatalf("expected 5 members, got %d", len(class.Members))
	}

	field := class.Members[0].(*FieldDeclaration)
	if field.Name.Value != "value" || field.Type.String() != "T" || !field.Modifiers.Public {
		t.Errorf("field wrong: %s", field)
	}
	final := class.Members[1].(*FieldDeclaration)
	if !final.Final || !final.Modifiers.Static || final.Init == nil {
		t.Errorf("final field wrong: %s", final)
	}

	put := class.Members[3].(*MethodDeclaration)
	if !put.HasMeta("overload") || !put.Modifiers.Static {
		t.Errorf("put modifiers wrong: %s", put)
	}
	if len(put.Params) != 2 || !put.Params[0].Optional || !put.Params[1].Rest {
		t.Errorf("put params wrong: %v", put.Params)
	}
	if put.ReturnType.String() != "Null<K>" {
		t.Errorf("put return wrong: %s", put.ReturnType)
	}
	if _, ok := put.Body.(*ReturnExpression); !ok {
		t.Errorf("expected expression body, got %T", put.Body)
	}
	if get := class.Members[4].(*MethodDeclaration); get.Body != nil {
		t.Errorf("get should have no body")
	}
}

func TestEnumAbstractTypedef(t *testing.T) {
	input := `
enum Color { Red; Rgb(r:Int, g:Int, b:Int); }
abstract Meters(Float) from Float to Float {
	public inline function new(v:Float) this = v;
}
enum abstract Level(Int) { var Low = 1; var High = 2; }
typedef Point = { x:Int, ?y:Int, > Base, }
typedef Cb = Int -> String -> Void;
typedef Fn = (a:Int, ?b:String) -> Array<Map<String, Int>>;
`
	file := parseOrFail(t, input)
	if len(file.Decls) != 6 {
		t.Fatalf("expected 6 declarations, got %d", len(file.Decls))
	}

	color := file.Decls[0].(*EnumDeclaration)
	if len(color.Constructors) != 2 || color.Constructors[0].HasArgs || len(color.Constructors[1].Params) != 3 {
		t.Errorf("enum wrong: %s", color)
	}

	meters := file.Decls[1].(*ClassDeclaration)
	if meters.Kind != ClassKindAbstract || meters.Underlying.String() != "Float" || len(meters.From) != 1 || len(meters.To) != 1 {
		t.Errorf("abstract wrong: %s", meters)
	}

	level := file.Decls[2].(*ClassDeclaration)
	if !level.EnumLike || len(level.Members) != 2 {
		t.Errorf("enum abstract wrong: %s", level)
	}

	point := file.Decls[3].(*TypedefDeclaration).Type.(*AnonymousType)
	if len(point.Fields) != 2 || !point.Fields[1].Optional || len(point.Extends) != 1 {
		t.Errorf("anonymous type wrong: %s", point)
	}

	cb := file.Decls[4].(*TypedefDeclaration).Type.(*FunctionType)
	if cb.String() != "(Int, String) -> Void" {
		t.Errorf("old style function type wrong: %s", cb)
	}

	fn := file.Decls[5].(*TypedefDeclaration).Type.(*FunctionType)
	if fn.String() != "(a:Int, ?b:String) -> Array<Map<String, Int>>" {
		t.Errorf("new style function type wrong: %s", fn)
	}
}

func TestFunctionsAndLiterals(t *testing.T) {
	block := parseBody(t, `
		var f = x -> x + 1;
		var g = (a:Int, b) -> a * b;
		var h = function(s:String):Int { return s.length; };
		var o = { name: "n", "age": 3 };
		var m = [1 => "a", 2 => "b"];
		var c = [for (i in 0...3) i * 2];
		var mc = [for (k in keys) k => 1];
		var r = ~/a+/i;
		var t = (f : Int -> Int);
		var e = {};
	`)
	want := []struct {
		typ  string
		test func(Expression) bool
	}{
		{"arrow", func(e Expression) bool {
			f, ok := e.(*FunctionLiteral)
			return ok && f.Arrow && len(f.Params) == 1
		}},
		{"paren arrow", func(e Expression) bool {
			f, ok := e.(*FunctionLiteral)
			return ok && f.Arrow && len(f.Params) == 2 && f.Params[0].Type.String() == "Int"
		}},
		{"function", func(e Expression) bool {
			f, ok := e.(*FunctionLiteral)
			return ok && !f.Arrow && f.ReturnType != nil
		}},
		{"object", func(e Expression) bool {
			o, ok := e.(*ObjectLiteral)
			return ok && len(o.Fields) == 2 && o.Fields[1].Name == "age"
		}},
		{"map", func(e Expression) bool {
			m, ok := e.(*MapLiteral)
			return ok && len(m.Keys) == 2
		}},
		{"comprehension", func(e Expression) bool {
			c, ok := e.(*ArrayComprehension)
			return ok && !c.IsMap
		}},
		{"map comprehension", func(e Expression) bool {
			c, ok := e.(*ArrayComprehension)
			return ok && c.IsMap
		}},
		{"regex", func(e Expression) bool {
			r, ok := e.(*RegexLiteral)
			return ok && r.Pattern == "a+" && r.Flags == "i"
		}},
		{"type check", func(e Expression) bool {
			c, ok := e.(*TypeCheckExpression)
			return ok && c.Type.String() == "(Int) -> Int"
		}},
		{"empty block", func(e Expression) bool {
			_, ok := e.(*BlockExpression)
			return ok
		}},
	}
	if len(block.Expressions) != len(want) {
		t.Fatalf("expected %d statements, got %d", len(want), len(block.Expressions))
	}
	for i, w := range want {
		decl, ok := block.Expressions[i].(*VarDeclaration)
		if !ok {
			t.Fatalf("%s: expected var declaration, got %T", w.typ, block.Expressions[i])
		}
		if !w.test(decl.Init) {
			t.Errorf("%s: unexpected init %T %s", w.typ, decl.Init, decl.Init)
		}
	}
}

func TestControlFlow(t *testing.T) {
	block := parseBody(t, `
		if (a) b; else c;
		while (i < 10) i++;
		do { i--; } while (i > 0);
		for (k => v in map) trace(k);
		try { risky(); } catch (e:String) { trace(e); }
		return switch (c) {
			case Red | Green: 1;
			case Rgb(r, _, b) if (r > 0): r;
			case 5, 6: 2;
			default: 0;
		};
	`)
	if len(block.Expressions) != 6 {
		t.Fatalf("expected 6 statements, got %d: %s", len(block.Expressions), block)
	}
	ifExpr := block.Expressions[0].(*IfExpression)
	if ifExpr.Alternative == nil {
		t.Errorf("else branch lost")
	}
	if w := block.Expressions[2].(*WhileExpression); !w.DoWhile {
		t.Errorf("expected do-while")
	}
	if f := block.Expressions[3].(*ForExpression); f.Key == nil || f.Value.Name.Value != "v" {
		t.Errorf("key-value loop wrong: %s", f)
	}
	try := block.Expressions[4].(*TryExpression)
	if len(try.Catches) != 1 || try.Catches[0].Var.Type.String() != "String" {
		t.Errorf("catch wrong: %s", try)
	}

	ret := block.Expressions[5].(*ReturnExpression)
	sw := ret.Value.(*SwitchExpression)
	if len(sw.Cases) != 3 || sw.Default == nil {
		t.Fatalf("switch wrong: %s", sw)
	}
	if len(sw.Cases[0].Patterns) != 2 {
		t.Errorf("alternatives not split: %v", sw.Cases[0].Patterns)
	}
	call := sw.Cases[1].Patterns[0].(*CallExpression)
	if _, ok := call.Args[0].(*CaptureVariable); !ok {
		t.Errorf("expected capture, got %T", call.Args[0])
	}
	if wc, ok := call.Args[1].(*CaptureVariable); !ok || !wc.IsWildcard() {
		t.Errorf("expected wildcard, got %T", call.Args[1])
	}
	if sw.Cases[1].Guard == nil {
		t.Errorf("guard lost")
	}
	if len(sw.Cases[2].Patterns) != 2 {
		t.Errorf("comma patterns not split")
	}
}

func TestMacros(t *testing.T) {
	block := parseBody(t, `
		var e = macro $v{x} + $name;
		var ct = macro : Array<Int>;
		var td = macro class Gen { var a:Int; };
		var u = untyped __js__("x");
		var k = cast(v, String);
		var l = cast v;
	`)
	e := block.Expressions[0].(*VarDeclaration).Init.(*MacroExpression)
	sum := e.Expr.(*InfixExpression)
	if r := sum.Left.(*ReificationExpression); r.Kind != "v" {
		t.Errorf("reification kind: %q", r.Kind)
	}
	if r := sum.Right.(*ReificationExpression); r.Kind != "e" || r.Inner.String() != "name" {
		t.Errorf("bare reification: %s", r)
	}
	if ct := block.Expressions[1].(*VarDeclaration).Init.(*MacroExpression); ct.Kind != MacroType {
		t.Errorf("expected macro type")
	}
	if td := block.Expressions[2].(*VarDeclaration).Init.(*MacroExpression); td.Kind != MacroClass || td.Class.Name.Value != "Gen" {
		t.Errorf("expected macro class")
	}
	if k := block.Expressions[4].(*VarDeclaration).Init.(*CastExpression); k.Type == nil {
		t.Errorf("safe cast lost its type")
	}
	if l := block.Expressions[5].(*VarDeclaration).Init.(*CastExpression); l.Type != nil {
		t.Errorf("unsafe cast has a type")
	}
}

func TestRangesAndParents(t *testing.T) {
	input := "class T { function f() { foo(bar, 1); } }"
	file := parseOrFail(t, input)
	method := file.Decls[0].(*ClassDeclaration).Members[0].(*MethodDeclaration)
	call := method.Body.(*BlockExpression).Expressions[0].(*CallExpression)

	if got := input[call.Range().Start:call.Range().End]; got != "foo(bar, 1)" {
		t.Errorf("call range: %q", got)
	}
	if got := input[call.ArgsRange().Start:call.ArgsRange().End]; got != "(bar, 1)" {
		t.Errorf("args range: %q", got)
	}
	if call.Args[0].Parent() != call {
		t.Errorf("argument parent not linked")
	}
	isMethod := func(n Node) bool {
		_, ok := n.(*MethodDeclaration)
		return ok
	}
	if Ancestor(call, isMethod) != method {
		t.Errorf("ancestor lookup failed")
	}
	if n := NodeAt(file, len("class T { function f() { foo(b")); n.String() != "bar" {
		t.Errorf("node at offset: %s", n)
	}
}

func TestGenericCloseSplitting(t *testing.T) {
	block := parseBody(t, "var a:Array<Array<Int>>=[]; var b:Map<String, Int> = null;")
	if len(block.Expressions) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(block.Expressions))
	}
	a := block.Expressions[0].(*VarDeclaration)
	if a.Type.String() != "Array<Array<Int>>" || a.Init == nil {
		t.Errorf("nested generic wrong: %s", a)
	}
}

func TestErrorsAreCollected(t *testing.T) {
	_, errs := ParseString("Bad.hx", "class { }\nclass Ok { function f() { var = ; } }")
	if len(errs) == 0 {
		t.Fatalf("expected errors")
	}
	_, errs = ParseString("Err.hx", "#error \"stop\"\nclass A {}")
	if len(errs) != 1 {
		t.Errorf("expected the #error directive to be reported, got %v", errs)
	}
}
