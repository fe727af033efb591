package checker

import (
	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// visit computes the type of one node. It is only called through eval,
// which guards against cycles and caches the result.
func (s *Session) visit(node parser.Node, r *types.GenericResolver) types.Type {
	debugPrintf("// [Checker Visit] %T at %s\n", node, node.Range())

	switch n := node.(type) {
	// --- Literals ---
	case *parser.IntegerLiteral:
		return types.WithConstant(s.std.Int(n), n.Value)
	case *parser.FloatLiteral:
		return types.WithConstant(s.std.Float(n), n.Value)
	case *parser.StringLiteral:
		return types.WithConstant(s.std.String(n), n.Value)
	case *parser.BooleanLiteral:
		return types.WithConstant(s.std.Bool(n), n.Value)
	case *parser.NullLiteral:
		return types.WithConstant(types.NewDynamic(n), types.NullValue)
	case *parser.RegexLiteral:
		return s.checkRegex(n)
	case *parser.ArrayLiteral:
		return s.checkArrayLiteral(n, r)
	case *parser.MapLiteral:
		return s.checkMapLiteral(n, r)
	case *parser.ObjectLiteral:
		return s.checkObjectLiteral(n, r)
	case *parser.ObjectField:
		return s.typeOf(n.Value, r)
	case *parser.ArrayComprehension:
		return s.checkComprehension(n, r)
	case *parser.FunctionLiteral:
		return s.checkFunctionLiteral(n, r)

	// --- References ---
	case *parser.Identifier:
		return s.checkIdentifier(n, r)
	case *parser.ThisExpression:
		return s.thisType(n)
	case *parser.SuperExpression:
		if c := s.prog.EnclosingClass(n); c != nil && c.Super != nil {
			return c.Super
		}
		return types.NewUnknown(n)
	case *parser.MemberExpression:
		return s.checkMember(n, r)
	case *parser.IndexExpression:
		return s.checkIndex(n, r)

	// --- Calls ---
	case *parser.CallExpression:
		return s.checkCall(n)
	case *parser.NewExpression:
		return s.checkNew(n)

	// --- Operators ---
	case *parser.InfixExpression:
		return s.checkInfix(n, r)
	case *parser.PrefixExpression:
		return s.checkPrefix(n, r)
	case *parser.UpdateExpression:
		return s.valueOf(n.Argument, r)
	case *parser.AssignmentExpression:
		return s.checkAssignment(n, r)
	case *parser.TernaryExpression:
		return s.unifyBranches(n, []parser.Node{n.Consequence, n.Alternative}, r)
	case *parser.ParenExpression:
		return s.typeOf(n.Inner, r)
	case *parser.TypeCheckExpression:
		return s.checkTypeCheck(n, r)
	case *parser.IsExpression:
		return s.std.Bool(n)
	case *parser.CastExpression:
		if n.Type != nil {
			return types.WithSource(s.prog.TypeOf(n.Type), n)
		}
		return types.NewDynamic(n)
	case *parser.IntervalExpression:
		return s.std.IntIterator(n)
	case *parser.SpreadElement:
		return s.typeOf(n.Argument, r)
	case *parser.UntypedExpression:
		return types.NewDynamic(n)

	// --- Declarations ---
	case *parser.VarDeclaration:
		return s.checkVarDeclaration(n, r)
	case *parser.VarDeclarationList:
		return s.std.Void(n)
	case *parser.Parameter:
		return s.checkParameter(n, r)
	case *parser.LoopVariable:
		return s.checkLoopVariable(n, r)
	case *parser.CaptureVariable:
		return s.checkCapture(n, r)
	case *parser.FieldDeclaration:
		return s.checkField(n, r)
	case *parser.MethodDeclaration:
		if m := s.prog.MethodModel(n); m != nil {
			return s.methodType(m)
		}
		return types.NewUnknown(n)
	case *parser.EnumConstructorDeclaration:
		if ctor := s.prog.EnumConstructor(n); ctor != nil {
			return s.enumConstructorType(ctor, n)
		}
		return types.NewUnknown(n)
	case parser.Declaration:
		if c := s.prog.ClassModel(n); c != nil {
			return c.SelfInstance()
		}
		return types.NewUnknown(n)
	case parser.TypeNode:
		return s.prog.TypeOf(n)

	// --- Control flow ---
	case *parser.BlockExpression:
		return s.checkBlock(n, r)
	case *parser.IfExpression:
		if n.Alternative == nil {
			return s.std.Void(n)
		}
		return s.unifyBranches(n, []parser.Node{n.Consequence, n.Alternative}, r)
	case *parser.SwitchExpression:
		return s.checkSwitch(n, r)
	case *parser.TryExpression:
		branches := []parser.Node{n.Body}
		for _, c := range n.Catches {
			branches = append(branches, c.Body)
		}
		return s.unifyBranches(n, branches, r)
	case *parser.WhileExpression, *parser.ForExpression, *parser.ReturnExpression:
		return s.std.Void(n)
	case *parser.ThrowExpression, *parser.BreakExpression, *parser.ContinueExpression:
		// These never produce a value; Unknown keeps them out of the
		// unified type of the enclosing branches.
		return types.NewUnknown(n)

	// --- Macros ---
	case *parser.MacroExpression:
		return s.checkMacro(n, r)
	case *parser.ReificationExpression:
		if n.Kind == "t" {
			return s.std.ComplexType(n)
		}
		return s.std.Expr(n)
	}

	debugPrintf("// [Checker Visit] unhandled %T\n", node)
	return types.NewUnknown(node)
}

// unifyBranches merges the types of alternative branches with the
// session's branch policy.
func (s *Session) unifyBranches(n parser.Node, branches []parser.Node, r *types.GenericResolver) types.Type {
	values := make([]types.Type, 0, len(branches))
	for _, b := range branches {
		if b == nil {
			continue
		}
		values = append(values, s.typeOf(b, r))
	}
	return types.WithSource(types.Unify(values, s.branchRule), n)
}
