package checker

import (
	"slices"

	"hxinfer/pkg/errors"
	"hxinfer/pkg/parser"
	"hxinfer/pkg/source"
)

// EvalContext collects the diagnostics the evaluator finds on its own,
// outside of call validation: invalid regular expressions and failed
// `(e : T)` checks. A node evaluated several times reports once.
type EvalContext struct {
	Errors   []errors.ErrorRecord
	Warnings []errors.WarningRecord

	seen map[diagKey]bool
}

type diagKey struct {
	r   source.TextRange
	msg string
}

func newEvalContext() *EvalContext {
	return &EvalContext{seen: make(map[diagKey]bool)}
}

func (c *EvalContext) addError(r source.TextRange, msg string) {
	k := diagKey{r, msg}
	if c.seen[k] {
		return
	}
	c.seen[k] = true
	c.Errors = append(c.Errors, errors.ErrorRecord{TextRange: r, Msg: msg})
}

func (c *EvalContext) addWarning(r source.TextRange, msg string) {
	k := diagKey{r, msg}
	if c.seen[k] {
		return
	}
	c.seen[k] = true
	c.Warnings = append(c.Warnings, errors.WarningRecord{TextRange: r, Msg: msg})
}

// All returns the errors followed by the warnings, ordered by position.
func (c *EvalContext) All() []errors.Diagnostic {
	out := make([]errors.Diagnostic, 0, len(c.Errors)+len(c.Warnings))
	for _, e := range c.Errors {
		out = append(out, e)
	}
	for _, w := range c.Warnings {
		out = append(out, w)
	}
	slices.SortStableFunc(out, func(a, b errors.Diagnostic) int {
		return a.Range().Start - b.Range().Start
	})
	return out
}

func (s *Session) addError(node parser.Node, key string, args ...any) {
	s.diags.addError(node.Range(), s.msgs.Format(key, args...))
}

func (s *Session) addWarning(node parser.Node, key string, args ...any) {
	s.diags.addWarning(node.Range(), s.msgs.Format(key, args...))
}
