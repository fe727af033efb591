package checker

import (
	"context"
	"fmt"

	set "github.com/hashicorp/go-set/v3"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"hxinfer/pkg/errors"
	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

const checkerDebug = false

var log = logrus.WithField("pkg", "checker")

// SetLogger replaces the logger used by sessions created afterwards.
func SetLogger(l *logrus.Logger) {
	log = l.WithField("pkg", "checker")
}

func debugPrintf(format string, args ...interface{}) {
	if checkerDebug {
		log.Debugf(format, args...)
	}
}

// Option configures a Session.
type Option func(*Session)

// WithUnifyPolicy sets the rule used to merge branch types (if, switch,
// ternary, try). The default absorbs null branches into their siblings.
func WithUnifyPolicy(rule types.UnificationRule) Option {
	return func(s *Session) { s.branchRule = rule }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *Session) { s.log = l.WithField("pkg", "checker") }
}

// WithDebug logs every evaluation step at Debug level.
func WithDebug(on bool) Option {
	return func(s *Session) { s.debug = on }
}

// WithMaxSearchDepth bounds how many usage searches may be nested inside
// one another before the inner ones give up.
func WithMaxSearchDepth(n int) Option {
	return func(s *Session) { s.maxSearchDepth = n }
}

// WithLanguage selects the language of diagnostic messages.
func WithLanguage(tag language.Tag) Option {
	return func(s *Session) { s.msgs = errors.NewMessages(tag) }
}

// Stats describes the memo cache of a session.
type Stats struct {
	CacheSize int
	Hits      int
	Misses    int
	// Cycles counts evaluations cut short because the node was already
	// being evaluated further up the stack.
	Cycles int
}

type memoKey struct {
	node     parser.Node
	resolver string
}

// Session is one evaluation context. It owns the recursion guard, the memo
// cache and the collected evaluator diagnostics. A session is not safe for
// concurrent use; run one per goroutine.
type Session struct {
	prog Program
	std  *types.Std
	ctx  context.Context

	stack   []parser.Node
	onStack *set.Set[parser.Node]
	memo    map[memoKey]types.Type
	stats   Stats

	// call nodes whose validation is in progress
	validating *set.Set[parser.Node]

	searchDepth    int
	maxSearchDepth int
	branchRule     types.UnificationRule

	diags  *EvalContext
	msgs   *errors.Messages
	log    *logrus.Entry
	tracer trace.Tracer
	debug  bool
}

// NewSession creates a session evaluating nodes of prog. ctx is polled for
// cancellation at every evaluation step.
func NewSession(ctx context.Context, prog Program, opts ...Option) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Session{
		prog:           prog,
		std:            prog.Std(),
		ctx:            ctx,
		onStack:        set.New[parser.Node](16),
		validating:     set.New[parser.Node](4),
		memo:           make(map[memoKey]types.Type),
		maxSearchDepth: 4,
		branchRule:     types.UnifyNull,
		diags:          newEvalContext(),
		msgs:           errors.NewMessages(language.English),
		log:            log,
		tracer:         otel.Tracer("hxinfer/checker"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats reports the state of the memo cache.
func (s *Session) Stats() Stats {
	st := s.stats
	st.CacheSize = len(s.memo)
	return st
}

// Diagnostics returns the context errors and warnings found by the
// evaluator so far.
func (s *Session) Diagnostics() *EvalContext { return s.diags }

// Evaluate computes the type of node.
func (s *Session) Evaluate(node parser.Node) (types.Type, error) {
	return s.EvaluateWith(node, nil)
}

// EvaluateWith computes the type of node with the type parameters bound by
// resolver substituted into the result.
func (s *Session) EvaluateWith(node parser.Node, resolver *types.GenericResolver) (result types.Type, err error) {
	_, span := s.startSpan("Session.Evaluate", node)
	defer span.End()
	defer s.recoverCanceled(&err, span)

	result = s.eval(node, resolver)
	if result == nil {
		result = types.NewUnknown(node)
	}
	span.SetAttributes(attribute.String("result", result.String()))
	return result, nil
}

func (s *Session) startSpan(name string, node parser.Node) (context.Context, trace.Span) {
	return s.tracer.Start(s.ctx, name, trace.WithAttributes(
		attribute.String("node.kind", nodeKind(node)),
		attribute.Int("cache.size", len(s.memo)),
	))
}

// recoverCanceled turns the cancellation panic raised deep inside an
// evaluation into the request's error. Anything else keeps unwinding.
func (s *Session) recoverCanceled(err *error, span trace.Span) {
	r := recover()
	if r == nil {
		return
	}
	canceled, ok := r.(*errors.CanceledError)
	if !ok {
		panic(r)
	}
	span.AddEvent("canceled")
	span.SetStatus(codes.Error, canceled.Error())
	s.reset()
	*err = canceled
}

func (s *Session) reset() {
	s.stack = s.stack[:0]
	s.onStack = set.New[parser.Node](16)
	s.validating = set.New[parser.Node](4)
	clear(s.memo)
	s.searchDepth = 0
}

func (s *Session) checkCanceled() {
	if s.ctx.Err() != nil {
		panic(errors.NewCanceled(s.ctx))
	}
}

// eval is the guarded, memoized entry for every node. A nil result means
// the node is already being evaluated further up the stack; callers treat
// it as "no answer from here" and fall back to other evidence.
func (s *Session) eval(n parser.Node, r *types.GenericResolver) (result types.Type) {
	if n == nil {
		return types.NewUnknown(nil)
	}
	s.checkCanceled()
	key := memoKey{node: n, resolver: r.CacheKey()}
	if cached, ok := s.memo[key]; ok {
		s.stats.Hits++
		return cached
	}
	if s.onStack.Contains(n) {
		s.stats.Cycles++
		debugPrintf("// [Checker Guard] cycle at %s %s\n", nodeKind(n), n.Range())
		return nil
	}
	s.stats.Misses++

	s.stack = append(s.stack, n)
	s.onStack.Insert(n)
	defer func() {
		s.stack = s.stack[:len(s.stack)-1]
		s.onStack.Remove(n)
		if len(s.stack) == 0 {
			clear(s.memo)
		}
	}()
	defer s.faultBarrier(n, &result)

	result = s.visit(n, r)
	if result != nil && !r.IsEmpty() {
		result = r.ResolveType(result)
	}
	if s.debug {
		s.log.WithFields(logrus.Fields{"node": nodeKind(n), "range": n.Range().String()}).Debugf("type %s", typeString(result))
	}
	if result != nil && !types.IsUnknown(result) && !types.ContainsTypeParameters(result) {
		s.memo[key] = result
	}
	return result
}

// faultBarrier converts an unexpected panic while typing n into Unknown so
// one malformed node cannot abort the whole request. Cancellation passes
// through.
func (s *Session) faultBarrier(n parser.Node, result *types.Type) {
	r := recover()
	if r == nil {
		return
	}
	if canceled, ok := r.(*errors.CanceledError); ok {
		panic(canceled)
	}
	fault := &errors.FaultError{Node: nodeKind(n), Value: r}
	s.log.WithFields(logrus.Fields{
		"node":  nodeKind(n),
		"range": n.Range().String(),
		"panic": fmt.Sprint(r),
	}).Error(fault.Error())
	*result = types.NewUnknown(n)
}

// typeOf evaluates n and maps "no answer" to Unknown.
func (s *Session) typeOf(n parser.Node, r *types.GenericResolver) types.Type {
	if t := s.eval(n, r); t != nil {
		return t
	}
	return types.NewUnknown(n)
}

// valueOf is typeOf without the constant.
func (s *Session) valueOf(n parser.Node, r *types.GenericResolver) types.Type {
	return types.WithoutConstant(s.typeOf(n, r))
}

func nodeKind(n parser.Node) string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", n)
}

func typeString(t types.Type) string {
	if t == nil {
		return "<no result>"
	}
	return t.String()
}
