package checker

import (
	"github.com/davecgh/go-spew/spew"
	"go.opentelemetry.io/otel/attribute"

	"hxinfer/pkg/errors"
	"hxinfer/pkg/index"
	"hxinfer/pkg/parser"
	"hxinfer/pkg/source"
	"hxinfer/pkg/types"
)

// CallValidation is the outcome of checking the arguments of one call
// against the signature of its callee. Indexes are positions in the
// argument list and in the parameter list.
type CallValidation struct {
	ArgumentToParameter    map[int]int
	ArgumentTypes          map[int]types.Type
	ParameterTypes         map[int]types.Type
	OriginalParameterTypes map[int]types.Type
	ParameterNames         []string

	Errors   []errors.ErrorRecord
	Warnings []errors.WarningRecord

	// Resolver holds the type parameter bindings in effect after the call.
	Resolver *types.GenericResolver
	// ReturnType is the callee's return type under Resolver.
	ReturnType types.Type

	IsConstructor     bool
	IsFunction        bool
	IsMethod          bool
	IsStaticExtension bool
	IsMemberMacro     bool
	// Overloaded callees are not checked.
	Overloaded bool
	// Completed is set once every argument was matched.
	Completed bool

	// parameter type each argument was last compared with
	expected map[int]types.Type
}

func newCallValidation() *CallValidation {
	return &CallValidation{
		ArgumentToParameter:    make(map[int]int),
		ArgumentTypes:          make(map[int]types.Type),
		ParameterTypes:         make(map[int]types.Type),
		OriginalParameterTypes: make(map[int]types.Type),
		Resolver:               types.NewGenericResolver(),
		expected:               make(map[int]types.Type),
	}
}

// Diagnostics returns the errors followed by the warnings.
func (v *CallValidation) Diagnostics() []errors.Diagnostic {
	out := make([]errors.Diagnostic, 0, len(v.Errors)+len(v.Warnings))
	for _, e := range v.Errors {
		out = append(out, e)
	}
	for _, w := range v.Warnings {
		out = append(out, w)
	}
	return out
}

// parameterFor is the resolved type of the parameter argument i was bound
// to, or nil when it is not known.
func (v *CallValidation) parameterFor(i int) types.Type {
	if v == nil {
		return nil
	}
	idx, ok := v.ArgumentToParameter[i]
	if !ok {
		return nil
	}
	t := v.ParameterTypes[idx]
	if t == nil || types.IsUnknown(t) || types.ContainsTypeParameters(t) {
		return nil
	}
	return t
}

// expectedArgument is the type argument i is expected to have: the
// parameter it was bound to, else the parameter it was last compared with.
func (v *CallValidation) expectedArgument(i int) types.Type {
	if v == nil {
		return nil
	}
	if idx, ok := v.ArgumentToParameter[i]; ok {
		if t := v.ParameterTypes[idx]; t != nil {
			return t
		}
	}
	return v.expected[i]
}

func (v *CallValidation) record(arg, param int, argType, paramType, original types.Type) {
	v.ArgumentToParameter[arg] = param
	v.ArgumentTypes[arg] = argType
	v.ParameterTypes[param] = paramType
	v.OriginalParameterTypes[param] = original
}

// reResolve upgrades recorded parameter types with bindings made by later
// arguments, keeping an upgrade only when it still fits the first type.
func (v *CallValidation) reResolve() {
	r := v.Resolver.WithoutUnknowns()
	for idx, original := range v.OriginalParameterTypes {
		resolved := r.ResolveType(original)
		if resolved == nil || types.IsUnknown(resolved) {
			continue
		}
		if first := v.ParameterTypes[idx]; first == nil || types.CanAssign(first, resolved) {
			v.ParameterTypes[idx] = resolved
		}
	}
}

var dumpConfig = spew.ConfigState{Indent: "  ", MaxDepth: 3, DisablePointerAddresses: true, SortKeys: true}

// Dump renders the validation for debugging.
func (v *CallValidation) Dump() string {
	summary := struct {
		Flags      map[string]bool
		Arguments  map[int]string
		Parameters map[int]string
		Bindings   map[int]int
		Resolver   string
		Return     string
		Errors     []string
		Warnings   []string
	}{
		Flags: map[string]bool{
			"constructor": v.IsConstructor, "function": v.IsFunction, "method": v.IsMethod,
			"extension": v.IsStaticExtension, "memberMacro": v.IsMemberMacro,
			"overloaded": v.Overloaded, "completed": v.Completed,
		},
		Arguments:  stringMap(v.ArgumentTypes),
		Parameters: stringMap(v.ParameterTypes),
		Bindings:   v.ArgumentToParameter,
		Resolver:   v.Resolver.String(),
		Return:     typeString(v.ReturnType),
	}
	for _, e := range v.Errors {
		summary.Errors = append(summary.Errors, e.Error())
	}
	for _, w := range v.Warnings {
		summary.Warnings = append(summary.Warnings, w.Error())
	}
	return dumpConfig.Sdump(summary)
}

func stringMap(m map[int]types.Type) map[int]string {
	out := make(map[int]string, len(m))
	for k, t := range m {
		out[k] = typeString(t)
	}
	return out
}

// --- Call sites and callees ---

// callSite is the part of a call or new expression validation looks at.
type callSite struct {
	node      parser.Node
	args      []parser.Expression
	argsRange source.TextRange
}

func callSiteOf(c *parser.CallExpression) callSite {
	return callSite{node: c, args: c.Args, argsRange: orRange(c.ArgsRange(), c)}
}

func newSiteOf(n *parser.NewExpression) callSite {
	return callSite{node: n, args: n.Args, argsRange: orRange(n.ArgsRange(), n)}
}

// orRange falls back to the whole node when the parentheses are missing.
func orRange(r source.TextRange, n parser.Node) source.TextRange {
	if r.IsEmpty() || !n.Range().Contains(r) {
		return n.Range()
	}
	return r
}

// target is what a call invokes: a method or constructor, an enum
// constructor, or a function value.
type target struct {
	method *types.MethodModel
	ctor   *types.EnumConstructor
	fn     *types.Function

	// receiver is the static type of the value the method is called on.
	receiver types.Type
	// extension marks a static method called through `using` on receiver.
	extension bool
}

func (t *target) signature(s *Session) *types.Function {
	switch {
	case t.method != nil:
		if fn, ok := s.methodType(t.method).(*types.Function); ok {
			return fn
		}
		return t.method.FunctionType()
	case t.ctor != nil:
		return t.ctor.FunctionType()
	}
	return t.fn
}

// --- Validation ---

// validate matches the arguments of site against the parameters of t.
func (s *Session) validate(site callSite, t *target) *CallValidation {
	v := newCallValidation()
	v.IsConstructor = t.method != nil && t.method.IsConstructor()
	v.IsMethod = (t.method != nil && !v.IsConstructor) || t.ctor != nil
	v.IsFunction = t.method == nil && t.ctor == nil
	v.IsStaticExtension = t.extension
	v.IsMemberMacro = t.method != nil && t.method.Macro && !t.method.Static

	fn := t.signature(s)
	if fn == nil {
		return v
	}
	params := fn.Args
	for _, p := range params {
		v.ParameterNames = append(v.ParameterNames, p.Name)
	}

	resolver := types.NewGenericResolver()
	recvClass := types.AsClass(types.UnwrapNull(t.receiver))
	if recvClass != nil && !t.extension {
		resolver.AddAll(types.InheritedResolver(declaringClass(t), recvClass))
	}
	if t.method != nil {
		resolver.AddAll(t.method.GenericResolver())
	}
	resolver = resolver.RemoveClassScopeIfMethodPresent()
	table := s.constraintTable(t, resolver)

	if t.method != nil && t.method.Overloaded {
		v.Overloaded = true
		v.Resolver = resolver
		v.ReturnType = s.returnType(t, fn, resolver)
		return v
	}

	// Arity.
	implicit := 0
	if t.extension || v.IsMemberMacro {
		implicit = 1
	}
	required, hasRest := 0, false
	for _, p := range params {
		switch {
		case s.isRestArgument(p, t):
			hasRest = true
		case !p.Optional && !types.IsVoid(p.Type):
			required++
		}
	}
	required -= implicit
	maxArgs := len(params) - implicit
	if len(site.args) < required {
		v.addError(site.argsRange, s.msgs.Format(errors.MsgParameterMissing, required, len(site.args)))
	}
	tooMany := !hasRest && len(site.args) > maxArgs
	if tooMany {
		v.addError(site.argsRange, s.msgs.Format(errors.MsgParameterTooMany, maxArgs, len(site.args)))
	}

	pi := 0
	if t.extension && len(params) > 0 {
		pi = 1
		first := resolver.WithoutUnknowns().ResolveType(params[0].Type)
		if !types.CanAssign(first, t.receiver) {
			v.addError(site.node.Range(), s.msgs.Format(errors.MsgExtensionWrongType))
			v.Resolver = resolver
			return v
		}
		remapped := types.NewGenericResolver()
		bindTypeParams(params[0].Type, t.receiver, remapped, table, 0)
		resolver.AddAll(remapped)
	} else if recvClass != nil {
		table.ApplyCallee(types.InheritedResolver(declaringClass(t), recvClass))
	}

	var param types.Argument
	var paramIndex int
	var restMode bool
	var lastParam, lastArg types.Type
	for ai := 0; ai < len(site.args); ai++ {
		arg := site.args[ai]
		if !restMode {
			if pi >= len(params) {
				// Optional parameters were skipped and arguments are left.
				if !tooMany && lastParam != nil && lastArg != nil {
					v.mismatch(s, lastParam, lastArg, arg, nil)
				}
				break
			}
			param, paramIndex = params[pi], pi
			pi++
			restMode = s.isRestArgument(param, t)
		}
		s.checkCanceled()

		declared := s.parameterType(param, t)
		argType := s.argumentType(arg, restMode)
		paramType := resolver.WithoutUnknowns().ResolveType(declared)
		if types.IsNullable(argType) && !types.IsNullable(paramType) {
			argType = types.UnwrapNull(argType)
		}
		if types.ContainsTypeParameters(paramType) && table.Mentions(paramType) {
			bindTypeParams(paramType, argType, resolver, table, 0)
			paramType = resolver.WithoutUnknowns().ResolveType(declared)
		}
		if pf, ok := types.ResolveTypedef(types.UnwrapNull(paramType)).(*types.Function); ok {
			paramType = pf
			if af, ok := argType.(*types.Function); ok && hasUntypedParams(arg) {
				argType = types.WithSource(types.NewFunction(pf.Args, af.Return), arg)
			}
		}
		v.expected[ai] = paramType
		lastParam, lastArg = paramType, argType

		ctx := &types.AssignContext{ConstraintCheck: types.ContainsTypeParameters(paramType)}
		if types.CanAssignWith(paramType, argType, ctx) {
			v.record(ai, paramIndex, argType, paramType, declared)
			continue
		}
		if param.Optional && !restMode {
			// Skip the optional parameter and try the next one.
			ai--
			continue
		}
		if ctx.Incomparable {
			v.addWarning(arg.Range(), s.msgs.Format(errors.MsgUnableToCompare, incomparableSide(paramType, argType)))
		} else {
			v.mismatch(s, paramType, argType, arg, ctx)
		}
		v.ArgumentToParameter[ai] = paramIndex
	}

	v.Resolver = resolver
	v.reResolve()
	v.ReturnType = s.returnType(t, fn, resolver)
	v.Completed = true
	return v
}

func (v *CallValidation) addError(r source.TextRange, msg string) {
	v.Errors = append(v.Errors, errors.ErrorRecord{TextRange: r, Msg: msg})
}

func (v *CallValidation) addWarning(r source.TextRange, msg string) {
	v.Warnings = append(v.Warnings, errors.WarningRecord{TextRange: r, Msg: msg})
}

// mismatch reports an argument that does not fit its parameter. Structural
// mismatches list the offending members; wrong member types are reported
// on the members themselves when they lie inside the argument.
func (v *CallValidation) mismatch(s *Session, expected, got types.Type, arg parser.Node, ctx *types.AssignContext) {
	r := arg.Range()
	switch {
	case ctx.HasMissingMembers():
		v.addError(r, s.msgs.Format(errors.MsgMismatchMissingMembers, ctx.MissingMembersString()))
		return
	case ctx.HasWrongTypeMembers():
		inside := true
		for _, w := range ctx.WrongTypeMembers {
			if w.Source == nil || !r.Contains(w.Source.Range()) {
				inside = false
				break
			}
		}
		if !inside {
			v.addError(r, s.msgs.Format(errors.MsgMismatchWrongTypeMembers, ctx.WrongTypeMembersString()))
			return
		}
		for _, w := range ctx.WrongTypeMembers {
			v.addError(w.Source.Range(), s.msgs.Format(errors.MsgWrongTypeMember, typeString(w.Have), typeString(w.Wants)))
		}
		return
	}
	v.addError(r, s.msgs.Format(errors.MsgParameterMismatch, typeString(expected), typeString(got)))
}

// incomparableSide names the type whose declaration is missing.
func incomparableSide(param, arg types.Type) string {
	if c := types.AsClass(param); c != nil && c.Class.Missing {
		return typeString(param)
	}
	if c := types.AsClass(arg); c != nil && c.Class.Missing {
		return typeString(arg)
	}
	return typeString(param)
}

func declaringClass(t *target) *types.ClassModel {
	switch {
	case t.method != nil:
		return t.method.Class
	case t.ctor != nil:
		return t.ctor.Enum
	}
	return nil
}

// constraintTable declares the type parameters the callee may bind. Enum
// constructors bind the parameters of their enum.
func (s *Session) constraintTable(t *target, resolver *types.GenericResolver) *types.ConstraintTable {
	if t.ctor != nil {
		table := types.NewConstraintTable()
		for _, p := range t.ctor.Enum.TypeParams {
			table.Put(p.Name, p.Constraint, types.MethodTypeParameter)
		}
		return table
	}
	return types.ConstraintTableFor(t.method, resolver)
}

// isRestArgument recognizes rest parameters, including the legacy
// haxe.extern.Rest<T> and the Array<Expr> of macros.
func (s *Session) isRestArgument(a types.Argument, t *target) bool {
	if a.Rest {
		return true
	}
	c := types.AsClass(a.Type)
	if c == nil || len(c.Args) != 1 {
		return false
	}
	switch {
	case s.std.IsRest(c), c.Class == s.std.Class("haxe.extern.Rest"):
		return true
	case types.IsArray(c) && t.method != nil && t.method.Macro:
		inner := types.AsClass(c.Args[0])
		return inner != nil && inner.Class == s.std.Class("haxe.macro.Expr")
	}
	return false
}

// parameterType is the type each argument for a is compared with: the
// element type for rest parameters and the expression type for macro
// parameters.
func (s *Session) parameterType(a types.Argument, t *target) types.Type {
	pt := a.Type
	if t.method != nil && t.method.Macro {
		pt = s.macroParameter(pt)
	}
	if s.isRestArgument(a, t) {
		if elem := s.std.ElementType(pt); !types.IsUnknown(elem) {
			pt = elem
		}
	}
	if ev, ok := pt.(*types.EnumValue); ok {
		pt = ev.Enum
	}
	return pt
}

// macroParameter maps the declared type of a macro parameter to what the
// call site passes: any expression for Expr, T for ExprOf<T>.
func (s *Session) macroParameter(t types.Type) types.Type {
	c := types.AsClass(t)
	if c == nil {
		return t
	}
	switch c.Class {
	case s.std.Class("haxe.macro.Expr"):
		return types.NewDynamic(nil)
	case s.std.Class("haxe.macro.ExprOf"):
		if len(c.Args) == 1 {
			return c.Args[0]
		}
		return types.NewDynamic(nil)
	}
	if types.IsArray(c) && len(c.Args) == 1 {
		if inner := types.AsClass(c.Args[0]); inner != nil && inner.Class == s.std.Class("haxe.macro.Expr") {
			return s.std.ArrayOf(types.NewDynamic(nil), nil)
		}
	}
	return t
}

// argumentType evaluates an argument. A spread argument passes the
// elements of its array.
func (s *Session) argumentType(arg parser.Expression, rest bool) types.Type {
	if spread, ok := arg.(*parser.SpreadElement); ok && rest {
		return s.std.ElementType(s.valueOf(spread.Argument, nil))
	}
	t := s.valueOf(arg, nil)
	if ev, ok := t.(*types.EnumValue); ok {
		return ev.Enum
	}
	return t
}

func hasUntypedParams(arg parser.Expression) bool {
	for {
		p, ok := arg.(*parser.ParenExpression)
		if !ok {
			break
		}
		arg = p.Inner
	}
	lit, ok := arg.(*parser.FunctionLiteral)
	if !ok {
		return false
	}
	for _, p := range lit.Params {
		if p.Type == nil {
			return true
		}
	}
	return false
}

// returnType is the callee's return type under the call's bindings.
// Constructors and enum constructors instantiate their class with the
// bound arguments, unknown where nothing was bound.
func (s *Session) returnType(t *target, fn *types.Function, resolver *types.GenericResolver) types.Type {
	bound := resolver.WithoutUnknowns()
	switch {
	case t.ctor != nil:
		return types.NewEnumValue(instantiate(t.ctor.Enum, bound), t.ctor)
	case t.method != nil && t.method.IsConstructor():
		return instantiate(t.method.Class, bound)
	}
	if fn.Return == nil {
		return types.NewUnknown(nil)
	}
	ret := bound.ResolveType(fn.Return)
	if t.method == nil {
		return ret
	}
	// Method type parameters no argument bound do not escape the call.
	var unbound []string
	for _, p := range t.method.TypeParams {
		b := bound.Resolve(p.Name)
		if ref, ok := b.(*types.TypeParamRef); b == nil || ok && ref.Param == p {
			unbound = append(unbound, p.Name)
		}
	}
	return types.EraseTypeParams(ret, unbound...)
}

func instantiate(c *types.ClassModel, bound *types.GenericResolver) *types.ClassInstance {
	args := make([]types.Type, len(c.TypeParams))
	for i, p := range c.TypeParams {
		args[i] = types.NewUnknown(nil)
		if b := bound.Resolve(p.Name); b != nil && !types.IsTypeParam(b) {
			args[i] = b
		}
	}
	return types.NewInstance(c, args...)
}

// --- Callee resolution ---

// validateCall resolves the callee of call and validates it. It returns nil
// for a call whose validation is already in progress further up.
func (s *Session) validateCall(call *parser.CallExpression) *CallValidation {
	if !s.validating.Insert(call) {
		return nil
	}
	defer s.validating.Remove(call)

	t := s.resolveTarget(call)
	if t == nil {
		v := newCallValidation()
		v.IsFunction = true
		v.ReturnType = s.untargetedReturn(call)
		return v
	}
	return s.validate(callSiteOf(call), t)
}

// untargetedReturn types a call whose callee has no signature.
func (s *Session) untargetedReturn(call *parser.CallExpression) types.Type {
	if types.IsDynamic(types.UnwrapNull(s.valueOf(call.Callee, nil))) {
		return types.NewDynamic(call)
	}
	return types.NewUnknown(call)
}

// validateNew validates a constructor call. The constructor may be
// inherited.
func (s *Session) validateNew(n *parser.NewExpression) *CallValidation {
	if !s.validating.Insert(n) {
		return nil
	}
	defer s.validating.Remove(n)

	inst := types.AsClass(s.prog.TypeOf(n.Type))
	if inst == nil {
		v := newCallValidation()
		v.IsConstructor = true
		v.ReturnType = types.NewUnknown(n)
		return v
	}
	ctor, owner := constructorOf(inst)
	if ctor == nil {
		v := newCallValidation()
		v.IsConstructor = true
		v.ReturnType = inst
		return v
	}
	v := s.validate(newSiteOf(n), &target{method: ctor, receiver: owner})
	if ctor.Class != inst.Class {
		v.ReturnType = inst
	}
	return v
}

// constructorOf finds the constructor of inst or of its nearest ancestor
// declaring one, with the ancestor seen through inst.
func constructorOf(inst *types.ClassInstance) (*types.MethodModel, *types.ClassInstance) {
	for _, a := range types.Ancestors(inst) {
		if a.Class.Kind == types.KindInterface {
			continue
		}
		if a.Class.Constructor != nil {
			if a.Class == inst.Class {
				return a.Class.Constructor, inst
			}
			return a.Class.Constructor, a
		}
	}
	return nil, nil
}

// resolveTarget finds what a call invokes, or nil when the callee has no
// usable signature.
func (s *Session) resolveTarget(call *parser.CallExpression) *target {
	switch callee := unparen(call.Callee).(type) {
	case *parser.Identifier:
		sym := s.prog.Resolve(callee)
		if sym != nil {
			switch sym.Kind {
			case index.SymMethod:
				t := &target{method: sym.Method}
				if view := s.ownerView(callee, sym.Method.Class); view != nil && !sym.Method.Static {
					t.receiver = view
				}
				return t
			case index.SymEnumConstructor:
				return &target{ctor: sym.EnumCtor}
			}
		}

	case *parser.SuperExpression:
		c := s.prog.EnclosingClass(callee)
		if c == nil || c.Super == nil {
			return nil
		}
		if ctor, owner := constructorOf(c.Super); ctor != nil {
			return &target{method: ctor, receiver: owner}
		}
		return nil

	case *parser.MemberExpression:
		if c := s.staticReceiver(callee.Object); c != nil {
			return s.staticTarget(c, callee.Property.Value)
		}
		if t := s.memberTarget(callee); t != nil {
			return t
		}
	}

	fn, ok := types.ResolveTypedef(types.UnwrapNull(s.valueOf(call.Callee, nil))).(*types.Function)
	if !ok {
		return nil
	}
	return &target{fn: fn}
}

func unparen(e parser.Expression) parser.Expression {
	for {
		p, ok := e.(*parser.ParenExpression)
		if !ok {
			return e
		}
		e = p.Inner
	}
}

func (s *Session) staticTarget(c *types.ClassModel, name string) *target {
	if e := c.EnumConstructor(name); e != nil {
		return &target{ctor: e}
	}
	if m := c.Method(name); m != nil && m.Static {
		return &target{method: m}
	}
	if f := c.Field(name); f != nil && f.Static {
		if fn, ok := types.ResolveTypedef(s.memberType(f, nil)).(*types.Function); ok {
			return &target{fn: fn}
		}
	}
	return nil
}

// memberTarget resolves `recv.name(...)` on a value receiver.
func (s *Session) memberTarget(callee *parser.MemberExpression) *target {
	recv := s.eval(callee.Object, nil)
	if recv == nil {
		return nil
	}
	recv = types.WithoutConstant(recv)
	base := types.UnwrapNull(recv)
	if types.IsDynamic(base) {
		return nil
	}
	if ev, ok := base.(*types.EnumValue); ok {
		base = ev.Enum
	}
	name := callee.Property.Value
	if inst := types.AsClass(base); inst != nil {
		if (inst.Class == s.std.Class("Class") || inst.Class == s.std.Class("Enum")) && len(inst.Args) == 1 {
			if named := types.AsClass(inst.Args[0]); named != nil {
				return s.staticTarget(named.Class, name)
			}
		}
		if m, owner := types.FindMember(inst, name); m != nil {
			switch m := m.(type) {
			case *types.MethodModel:
				return &target{method: m, receiver: owner}
			case *types.FieldModel:
				if fn, ok := types.ResolveTypedef(types.UnwrapNull(s.memberType(m, owner))).(*types.Function); ok {
					return &target{fn: fn}
				}
				return nil
			}
		}
	}
	if m, _ := s.extensionFor(recv, name, callee); m != nil {
		return &target{method: m, receiver: recv, extension: true}
	}
	return nil
}

// checkCall types a call as the return type of its callee.
func (s *Session) checkCall(n *parser.CallExpression) types.Type {
	v := s.validateCall(n)
	if v == nil {
		return nil
	}
	if v.ReturnType == nil {
		return types.NewUnknown(n)
	}
	return types.WithSource(v.ReturnType, n)
}

// checkNew types `new C(...)` as the instance, with the class arguments
// inferred from the constructor arguments when not given.
func (s *Session) checkNew(n *parser.NewExpression) types.Type {
	v := s.validateNew(n)
	if v == nil {
		if inst := types.AsClass(s.prog.TypeOf(n.Type)); inst != nil {
			return inst
		}
		return nil
	}
	if inst := types.AsClass(s.prog.TypeOf(n.Type)); inst != nil && len(inst.Args) > 0 {
		return types.WithSource(inst, n)
	}
	if v.ReturnType == nil {
		return types.NewUnknown(n)
	}
	return types.WithSource(v.ReturnType, n)
}

// --- Entry points ---

// ValidateCall resolves the callee of call and checks its arguments.
func (s *Session) ValidateCall(call *parser.CallExpression) (v *CallValidation, err error) {
	_, span := s.startSpan("Session.ValidateCall", call)
	defer span.End()
	defer s.recoverCanceled(&err, span)

	v = s.validateCall(call)
	if v == nil {
		v = newCallValidation()
	}
	span.SetAttributes(attribute.Int("errors", len(v.Errors)), attribute.Bool("completed", v.Completed))
	return v, nil
}

// ValidateNew checks the arguments of a constructor call.
func (s *Session) ValidateNew(n *parser.NewExpression) (v *CallValidation, err error) {
	_, span := s.startSpan("Session.ValidateNew", n)
	defer span.End()
	defer s.recoverCanceled(&err, span)

	v = s.validateNew(n)
	if v == nil {
		v = newCallValidation()
	}
	span.SetAttributes(attribute.Int("errors", len(v.Errors)), attribute.Bool("completed", v.Completed))
	return v, nil
}

// ValidateConstructor is ValidateNew.
func (s *Session) ValidateConstructor(n *parser.NewExpression) (*CallValidation, error) {
	return s.ValidateNew(n)
}

// ValidateMethodCall checks call against method. The receiver and static
// extension use are read off the call's callee.
func (s *Session) ValidateMethodCall(call *parser.CallExpression, method *types.MethodModel) (v *CallValidation, err error) {
	_, span := s.startSpan("Session.ValidateMethodCall", call)
	defer span.End()
	defer s.recoverCanceled(&err, span)

	t := &target{method: method}
	if m, ok := unparen(call.Callee).(*parser.MemberExpression); ok && s.staticReceiver(m.Object) == nil {
		if recv := s.eval(m.Object, nil); recv != nil {
			t.receiver = types.WithoutConstant(recv)
			if method.Static {
				t.extension = true
			} else if inst := types.AsClass(types.UnwrapNull(recv)); inst != nil {
				if view := types.AncestorOf(inst, method.Class); view != nil {
					t.receiver = view
				}
			}
		}
	} else if id, ok := call.Callee.(*parser.Identifier); ok && !method.Static {
		if view := s.ownerView(id, method.Class); view != nil {
			t.receiver = view
		}
	}
	return s.validate(callSiteOf(call), t), nil
}

// ValidateFunctionCall checks call against a function type.
func (s *Session) ValidateFunctionCall(call *parser.CallExpression, fn *types.Function) (v *CallValidation, err error) {
	_, span := s.startSpan("Session.ValidateFunctionCall", call)
	defer span.End()
	defer s.recoverCanceled(&err, span)

	return s.validate(callSiteOf(call), &target{fn: fn}), nil
}

// ValidateEnumConstructor checks call against an enum constructor.
func (s *Session) ValidateEnumConstructor(call *parser.CallExpression, ctor *types.EnumConstructor) (v *CallValidation, err error) {
	_, span := s.startSpan("Session.ValidateEnumConstructor", call)
	defer span.End()
	defer s.recoverCanceled(&err, span)

	return s.validate(callSiteOf(call), &target{ctor: ctor}), nil
}
