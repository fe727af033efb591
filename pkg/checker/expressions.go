package checker

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"hxinfer/pkg/errors"
	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// --- Literals ---

// checkRegex types `~/p/f` as EReg and reports patterns that do not compile.
func (s *Session) checkRegex(n *parser.RegexLiteral) types.Type {
	opts := regexp2.RegexOptions(0)
	ecma := true
	for _, f := range n.Flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
			ecma = false
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
			ecma = false
		}
	}
	if ecma {
		opts |= regexp2.ECMAScript
	}
	if _, err := regexp2.Compile(n.Pattern, opts); err != nil {
		s.addWarning(n, errors.MsgInvalidRegex, err.Error())
	}
	return s.std.EReg(n)
}

func (s *Session) checkArrayLiteral(n *parser.ArrayLiteral, r *types.GenericResolver) types.Type {
	values := make([]types.Type, len(n.Elements))
	for i, e := range n.Elements {
		values[i] = s.typeOf(e, r)
	}
	return s.std.ArrayOf(unifyWithNulls(values, types.UnifyIgnoreVoid), n)
}

func (s *Session) checkMapLiteral(n *parser.MapLiteral, r *types.GenericResolver) types.Type {
	keys := make([]types.Type, len(n.Keys))
	for i, k := range n.Keys {
		keys[i] = s.typeOf(k, r)
	}
	values := make([]types.Type, len(n.Values))
	for i, v := range n.Values {
		values[i] = s.typeOf(v, r)
	}
	return s.std.MapOf(unifyWithNulls(keys, types.UnifyIgnoreVoid), unifyWithNulls(values, types.UnifyIgnoreVoid), n)
}

// checkObjectLiteral builds an anonymous structure with one field per
// entry, typed by its value.
func (s *Session) checkObjectLiteral(n *parser.ObjectLiteral, r *types.GenericResolver) types.Type {
	model := types.NewClass("", types.KindAnonymous)
	model.Decl = n
	for _, f := range n.Fields {
		model.AddField(&types.FieldModel{
			Name:    f.Name,
			Type:    s.valueOf(f.Value, r),
			HasInit: true,
			Decl:    f,
		})
	}
	return types.WithSource(types.NewInstance(model), n)
}

func (s *Session) checkComprehension(n *parser.ArrayComprehension, r *types.GenericResolver) types.Type {
	yield := yieldOf(n.Loop)
	if n.IsMap {
		if pair, ok := yield.(*parser.InfixExpression); ok && pair.Operator == "=>" {
			return s.std.MapOf(s.valueOf(pair.Left, r), s.valueOf(pair.Right, r), n)
		}
		return s.std.MapOf(nil, nil, n)
	}
	return s.std.ArrayOf(s.valueOf(yield, r), n)
}

// yieldOf follows a comprehension loop down to the expression it yields.
func yieldOf(e parser.Expression) parser.Expression {
	switch n := e.(type) {
	case *parser.ForExpression:
		return yieldOf(n.Body)
	case *parser.WhileExpression:
		return yieldOf(n.Body)
	case *parser.IfExpression:
		return yieldOf(n.Consequence)
	case *parser.BlockExpression:
		if len(n.Expressions) == 0 {
			return n
		}
		return yieldOf(n.Expressions[len(n.Expressions)-1])
	case *parser.ParenExpression:
		return yieldOf(n.Inner)
	}
	return e
}

// unifyWithNulls unifies values, letting null literals make the result
// nullable instead of Dynamic.
func unifyWithNulls(values []types.Type, rule types.UnificationRule) types.Type {
	var concrete []types.Type
	nulls := 0
	for _, v := range values {
		if types.IsDynamicBecauseOfNull(v) {
			nulls++
			continue
		}
		concrete = append(concrete, types.WithoutConstant(v))
	}
	if len(concrete) == 0 {
		if nulls > 0 {
			return types.NewDynamic(nil)
		}
		return types.NewUnknown(nil)
	}
	t := types.Unify(concrete, rule)
	if nulls > 0 {
		t = types.WrapNull(t)
	}
	return types.WithoutConstant(t)
}

// --- Access ---

func (s *Session) checkIndex(n *parser.IndexExpression, r *types.GenericResolver) types.Type {
	s.typeOf(n.Index, r)
	left := types.ResolveTypedef(types.UnwrapNull(s.typeOf(n.Left, r)))
	if types.IsDynamic(left) {
		return types.NewDynamic(n)
	}
	c := types.AsClass(left)
	if c == nil {
		return types.NewUnknown(n)
	}
	switch {
	case types.IsArray(c) || s.std.IsRest(c):
		return s.std.ElementType(c)
	case c.Class == s.std.Class("Map") && len(c.Args) == 2:
		return c.Args[1]
	case c.Class.Kind == types.KindAbstract && c.Class.Alias != nil:
		under := c.GenericResolver().ResolveType(c.Class.Alias)
		if types.IsArray(under) {
			return s.std.ElementType(under)
		}
	}
	return types.NewUnknown(n)
}

// --- Operators ---

func (s *Session) checkInfix(n *parser.InfixExpression, r *types.GenericResolver) types.Type {
	switch n.Operator {
	case "=>":
		return s.typeOf(n.Right, r)
	case "??":
		left := types.UnwrapNull(s.valueOf(n.Left, r))
		return types.WithSource(types.Unify([]types.Type{left, s.valueOf(n.Right, r)}, types.UnifyNull), n)
	}
	left := s.typeOf(n.Left, r)
	right := s.typeOf(n.Right, r)
	return s.binaryType(n, n.Operator, left, right)
}

// binaryType types `left op right`, folding literal constants.
func (s *Session) binaryType(n parser.Node, op string, left, right types.Type) types.Type {
	switch op {
	case "&&", "||":
		t := s.std.Bool(n)
		if a, ok := left.Constant().(bool); ok {
			if b, ok := right.Constant().(bool); ok {
				if op == "&&" {
					return types.WithConstant(t, a && b)
				}
				return types.WithConstant(t, a || b)
			}
		}
		return t

	case "==", "!=", "<", "<=", ">", ">=":
		t := s.std.Bool(n)
		if c, ok := compareConstants(op, left.Constant(), right.Constant()); ok {
			return types.WithConstant(t, c)
		}
		return t

	case "&", "|", "^", "<<", ">>", ">>>":
		t := s.std.Int(n)
		if a, ok := left.Constant().(int64); ok {
			if b, ok := right.Constant().(int64); ok {
				if v, ok := foldBits(op, a, b); ok {
					return types.WithConstant(t, v)
				}
			}
		}
		return t
	}

	l, rt := types.UnwrapNull(left), types.UnwrapNull(right)
	if op == "+" && (types.IsString(l) || types.IsString(rt)) {
		t := s.std.String(n)
		if a, ok := constantString(left.Constant()); ok {
			if b, ok := constantString(right.Constant()); ok {
				return types.WithConstant(t, a+b)
			}
		}
		return t
	}
	if types.IsDynamic(l) || types.IsDynamic(rt) {
		return types.NewDynamic(n)
	}

	switch {
	case types.IsNumeric(l) && types.IsNumeric(rt):
		if op == "/" {
			return withFloat(s.std.Float(n), foldFloat(op, left.Constant(), right.Constant()))
		}
		if types.IsInt(l) && types.IsInt(rt) {
			t := s.std.Int(n)
			if a, ok := left.Constant().(int64); ok {
				if b, ok := right.Constant().(int64); ok {
					if v, ok := foldInt(op, a, b); ok {
						return types.WithConstant(t, v)
					}
				}
			}
			return t
		}
		return withFloat(s.std.Float(n), foldFloat(op, left.Constant(), right.Constant()))
	case op == "/":
		return s.std.Float(n)
	case types.IsNumeric(l) && types.IsUnknown(rt):
		return types.WithSource(types.WithoutConstant(l), n)
	case types.IsNumeric(rt) && types.IsUnknown(l):
		return types.WithSource(types.WithoutConstant(rt), n)
	}
	return types.NewUnknown(n)
}

func (s *Session) checkPrefix(n *parser.PrefixExpression, r *types.GenericResolver) types.Type {
	operand := s.typeOf(n.Right, r)
	switch n.Operator {
	case "!":
		t := s.std.Bool(n)
		if b, ok := operand.Constant().(bool); ok {
			return types.WithConstant(t, !b)
		}
		return t
	case "~":
		t := s.std.Int(n)
		if v, ok := operand.Constant().(int64); ok {
			return types.WithConstant(t, ^v)
		}
		return t
	case "-":
		switch v := operand.Constant().(type) {
		case int64:
			return types.WithConstant(types.WithSource(operand, n), -v)
		case float64:
			return types.WithConstant(types.WithSource(operand, n), -v)
		}
	}
	return types.WithoutConstant(operand)
}

// checkAssignment types `a = b` and `a op= b` as the value stored.
func (s *Session) checkAssignment(n *parser.AssignmentExpression, r *types.GenericResolver) types.Type {
	value := s.typeOf(n.Value, r)
	if n.Operator == "=" {
		return types.WithoutConstant(value)
	}
	left := s.typeOf(n.Left, r)
	if n.Operator == "??=" {
		return types.WithoutConstant(types.UnwrapNull(left))
	}
	op := strings.TrimSuffix(n.Operator, "=")
	result := types.WithoutConstant(s.binaryType(n, op, left, value))
	// `i += 0.5` on an Int is rejected by the compiler, the variable keeps
	// its type.
	if types.IsInt(left) && types.IsFloat(result) {
		return types.WithoutConstant(left)
	}
	return result
}

func (s *Session) checkTypeCheck(n *parser.TypeCheckExpression, r *types.GenericResolver) types.Type {
	declared := s.prog.TypeOf(n.Type)
	actual := s.typeOf(n.Expr, r)
	ctx := &types.AssignContext{}
	if !types.CanAssignWith(declared, actual, ctx) {
		if ctx.Incomparable {
			s.addWarning(n.Expr, errors.MsgUnableToCompare, declared.String())
		} else {
			s.addError(n.Expr, errors.MsgTypeCheckMismatch, types.WithoutConstant(actual).String(), declared.String())
		}
	}
	return types.WithSource(declared, n)
}

// --- Macros ---

func (s *Session) checkMacro(n *parser.MacroExpression, r *types.GenericResolver) types.Type {
	switch n.Kind {
	case parser.MacroType:
		return s.std.ComplexType(n)
	case parser.MacroClass:
		return s.std.TypeDefinition(n)
	}
	inner := s.valueOf(n.Expr, r)
	if types.IsUnknown(inner) {
		return s.std.Expr(n)
	}
	return s.std.ExprOf(inner, n)
}

// --- Constant folding ---

func foldInt(op string, a, b int64) (int64, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "%":
		if b != 0 {
			return a % b, true
		}
	}
	return 0, false
}

func foldBits(op string, a, b int64) (int64, bool) {
	a32, b32 := int32(a), uint32(b)&31
	switch op {
	case "&":
		return int64(a32 & int32(b)), true
	case "|":
		return int64(a32 | int32(b)), true
	case "^":
		return int64(a32 ^ int32(b)), true
	case "<<":
		return int64(a32 << b32), true
	case ">>":
		return int64(a32 >> b32), true
	case ">>>":
		return int64(int32(uint32(a32) >> b32)), true
	}
	return 0, false
}

func toFloat(c any) (float64, bool) {
	switch v := c.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func foldFloat(op string, ca, cb any) any {
	a, ok := toFloat(ca)
	if !ok {
		return nil
	}
	b, ok := toFloat(cb)
	if !ok {
		return nil
	}
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		if b != 0 {
			return a / b
		}
	}
	return nil
}

func withFloat(t types.Type, c any) types.Type {
	if c == nil {
		return t
	}
	return types.WithConstant(t, c)
}

func compareConstants(op string, ca, cb any) (bool, bool) {
	if a, ok := toFloat(ca); ok {
		if b, ok := toFloat(cb); ok {
			switch op {
			case "==":
				return a == b, true
			case "!=":
				return a != b, true
			case "<":
				return a < b, true
			case "<=":
				return a <= b, true
			case ">":
				return a > b, true
			case ">=":
				return a >= b, true
			}
		}
		return false, false
	}
	if a, ok := ca.(string); ok {
		if b, ok := cb.(string); ok {
			switch op {
			case "==":
				return a == b, true
			case "!=":
				return a != b, true
			}
		}
	}
	return false, false
}

func constantString(c any) (string, bool) {
	switch v := c.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case int64, bool:
		return fmt.Sprint(v), true
	case float64:
		return fmt.Sprint(v), true
	}
	if c == types.NullValue {
		return "null", true
	}
	return "", false
}
