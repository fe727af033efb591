package checker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hxinfer/pkg/index"
	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// --- Fixtures ---

func setup(t *testing.T, src string) (*index.Index, *parser.File) {
	t.Helper()
	ix, err := index.New()
	require.NoError(t, err)
	file := ix.LoadString("Main.hx", src)
	require.Empty(t, ix.Errors())
	return ix, file
}

func newTestSession(t *testing.T, src string, opts ...Option) (*Session, *parser.File) {
	t.Helper()
	ix, file := setup(t, src)
	return NewSession(context.Background(), ix, opts...), file
}

// find returns the first node of type T in source order accepted by match.
func find[T parser.Node](root parser.Node, match func(T) bool) T {
	var found T
	done := false
	parser.Inspect(root, func(n parser.Node) bool {
		if done {
			return false
		}
		if v, ok := n.(T); ok && (match == nil || match(v)) {
			found, done = v, true
			return false
		}
		return true
	})
	return found
}

func findVar(root parser.Node, name string) *parser.VarDeclaration {
	return find(root, func(v *parser.VarDeclaration) bool { return v.Name.Value == name })
}

func findCall(root parser.Node, callee string) *parser.CallExpression {
	return find(root, func(c *parser.CallExpression) bool { return c.Callee.String() == callee })
}

func evalString(t *testing.T, s *Session, n parser.Node) string {
	t.Helper()
	require.NotNil(t, n)
	typ, err := s.Evaluate(n)
	require.NoError(t, err)
	return typ.String()
}

// wrap puts body inside a static method of class Main.
func wrap(body string) string {
	return "class Main {\n\tstatic function main() {\n" + body + "\n\t}\n}\n"
}

// --- Evaluator ---

func TestExpressionTypes(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		want     string
		constant any
	}{
		{"int sum folds", "1 + 2", "Int", int64(3)},
		{"int and float widen", "1 + 2.5", "Float", 3.5},
		{"division is float", "7 / 2", "Float", 3.5},
		{"string concat", `"a" + 1`, "String", "a1"},
		{"comparison", "1 < 2", "Bool", true},
		{"negation", "!true", "Bool", false},
		{"bitwise", "5 & 3", "Int", int64(1)},
		{"unary minus", "-4", "Int", int64(-4)},
		{"array literal", "[1, 2]", "Array<Int>", nil},
		{"array with null", "[1, null]", "Array<Null<Int>>", nil},
		{"array widens", "[1, 2.5]", "Array<Float>", nil},
		{"empty array", "[]", "Array<Unknown>", nil},
		{"map literal", `["a" => 1]`, "Map<String, Int>", nil},
		{"ternary", "true ? 1 : 2.5", "Float", nil},
		{"interval", "0...3", "IntIterator", nil},
		{"comprehension", "[for (i in 0...3) i * 2]", "Array<Int>", nil},
		{"type check", "(1 : Float)", "Float", nil},
		{"is", `("a" is String)`, "Bool", nil},
		{"unsafe cast", "cast 1", "Dynamic", nil},
		{"safe cast", "cast(1, Float)", "Float", nil},
		{"null coalescing", "(null : Null<Int>) ?? 2", "Int", nil},
		{"null", "null", "Dynamic", types.NullValue},
		{"regex", "~/ab+c/i", "EReg", nil},
		{"macro", "macro 1", "ExprOf<Int>", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, file := newTestSession(t, wrap("var v = "+tt.expr+";"))
			init := findVar(file, "v").Init
			typ, err := s.Evaluate(init)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typ.String())
			if tt.constant != nil {
				assert.Equal(t, tt.constant, typ.Constant())
			}
		})
	}
}

func TestVariableConstants(t *testing.T) {
	s, file := newTestSession(t, wrap(`
		var a = 1;
		final b = 2;
	`))
	a, err := s.Evaluate(findVar(file, "a"))
	require.NoError(t, err)
	assert.Equal(t, "Int", a.String())
	assert.Nil(t, a.Constant(), "a var can change")

	b, err := s.Evaluate(findVar(file, "b"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.Constant())
}

func TestFunctionLiteralReturn(t *testing.T) {
	s, file := newTestSession(t, wrap(`
		var f = function(a:Int) { if (a > 0) return 1; return 2.5; };
		var g = (a:Int) -> a * 2;
		var h = function() { return; };
		var n = function(a:Int) { if (a > 0) return null; return "s"; };
	`))
	assert.Equal(t, "(a:Int) -> Float", evalString(t, s, findVar(file, "f")))
	assert.Equal(t, "(a:Int) -> Int", evalString(t, s, findVar(file, "g")))
	assert.Equal(t, "() -> Void", evalString(t, s, findVar(file, "h")))
	assert.Equal(t, "(a:Int) -> Null<String>", evalString(t, s, findVar(file, "n")))
}

func TestMethodReturnInferred(t *testing.T) {
	s, file := newTestSession(t, `
class Main {
	static function twice(x:Int) {
		return x * 2;
	}
	static function main() {
		var r = twice(2);
	}
}`)
	assert.Equal(t, "Int", evalString(t, s, findVar(file, "r")))
}

func TestMembersAndIndexes(t *testing.T) {
	s, file := newTestSession(t, `
class Box<T> {
	public var value:T;
	public function new(v:T) { value = v; }
	public function get():T { return value; }
}
class Main {
	static function main() {
		var box = new Box<String>("a");
		var v = box.value;
		var g = box.get();
		var arr = [1, 2];
		var first = arr[0];
		var m = ["k" => 1.5];
		var mv = m["k"];
		var len = "abc".length;
		var opt:Null<Box<Int>> = null;
		var chained = opt?.value;
	}
}`)
	assert.Equal(t, "Box<String>", evalString(t, s, findVar(file, "box")))
	assert.Equal(t, "String", evalString(t, s, findVar(file, "v")))
	assert.Equal(t, "String", evalString(t, s, findVar(file, "g")))
	assert.Equal(t, "Int", evalString(t, s, findVar(file, "first")))
	assert.Equal(t, "Float", evalString(t, s, findVar(file, "mv")))
	assert.Equal(t, "Int", evalString(t, s, findVar(file, "len")))
	assert.Equal(t, "Null<Int>", evalString(t, s, findVar(file, "chained")))
}

func TestControlFlow(t *testing.T) {
	s, file := newTestSession(t, wrap(`
		var a = if (true) 1 else 2.5;
		var b = switch (3) { case 1: "one"; default: "many"; };
		var c = try { 1; } catch (e:Dynamic) { 2; };
		var d = { var x = 1; x + 1; };
		var e = if (true) 1 else throw "no";
	`))
	assert.Equal(t, "Float", evalString(t, s, findVar(file, "a")))
	assert.Equal(t, "String", evalString(t, s, findVar(file, "b")))
	assert.Equal(t, "Int", evalString(t, s, findVar(file, "c")))
	assert.Equal(t, "Int", evalString(t, s, findVar(file, "d")))
	assert.Equal(t, "Int", evalString(t, s, findVar(file, "e")))
}

func TestLoopVariables(t *testing.T) {
	s, file := newTestSession(t, wrap(`
		var names = ["a", "b"];
		for (n in names) trace(n);
		for (i => n in names) trace(i);
		var scores = ["x" => 1.5];
		for (k => v in scores) trace(v);
		for (i in 0...10) trace(i);
	`))
	loops := []*parser.ForExpression{}
	parser.Inspect(file, func(n parser.Node) bool {
		if f, ok := n.(*parser.ForExpression); ok {
			loops = append(loops, f)
		}
		return true
	})
	require.Len(t, loops, 4)
	assert.Equal(t, "String", evalString(t, s, loops[0].Value))
	assert.Equal(t, "Int", evalString(t, s, loops[1].Key))
	assert.Equal(t, "String", evalString(t, s, loops[1].Value))
	assert.Equal(t, "String", evalString(t, s, loops[2].Key))
	assert.Equal(t, "Float", evalString(t, s, loops[2].Value))
	assert.Equal(t, "Int", evalString(t, s, loops[3].Value))
}

func TestEnumCaptures(t *testing.T) {
	s, file := newTestSession(t, `
import haxe.ds.Option;
enum Shape {
	Circle(r:Float);
	Rect(w:Int, h:Int);
}
class Main {
	static function area(s:Shape, o:Option<String>) {
		switch (s) {
			case Circle(radius): trace(radius);
			case Rect(w, _): trace(w);
		}
		switch (o) {
			case Some(text): trace(text);
			case None:
		}
	}
}`)
	capture := func(name string) *parser.CaptureVariable {
		return find(file, func(c *parser.CaptureVariable) bool { return c.Name.Value == name })
	}
	assert.Equal(t, "Float", evalString(t, s, capture("radius")))
	assert.Equal(t, "Int", evalString(t, s, capture("w")))
	assert.Equal(t, "String", evalString(t, s, capture("text")))
}

func TestEnumValues(t *testing.T) {
	s, file := newTestSession(t, `
import haxe.ds.Option;
class Main {
	static function main() {
		var some = Some(1);
		var none = None;
	}
}`)
	assert.Equal(t, "Option<Int>", evalString(t, s, findVar(file, "some")))
	assert.Equal(t, "Option<Unknown>", evalString(t, s, findVar(file, "none")))
}

func TestEvaluatorDiagnostics(t *testing.T) {
	s, file := newTestSession(t, wrap(`
		var r = ~/a(b/;
		var c = ("s" : Int);
	`))
	assert.Equal(t, "EReg", evalString(t, s, findVar(file, "r")))
	assert.Equal(t, "Int", evalString(t, s, findVar(file, "c")))

	diags := s.Diagnostics()
	require.Len(t, diags.Warnings, 1)
	assert.Contains(t, diags.Warnings[0].Msg, "Invalid regular expression")
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, "Type 'String' is not compatible with 'Int'", diags.Errors[0].Msg)

	// Evaluating again reports nothing new.
	evalString(t, s, findVar(file, "c"))
	assert.Len(t, diags.All(), 2)
}

func TestJumpsHaveNoType(t *testing.T) {
	s, _ := newTestSession(t, wrap(""))
	typ, err := s.Evaluate(&parser.ContinueExpression{})
	require.NoError(t, err)
	assert.True(t, types.IsUnknown(typ))
}
