package errors

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"hxinfer/pkg/source"
)

func TestDiagnosticRecords(t *testing.T) {
	var diags []Diagnostic
	diags = append(diags,
		ErrorRecord{TextRange: source.TextRange{Start: 4, End: 9}, Msg: "bad"},
		WarningRecord{TextRange: source.TextRange{Start: 0, End: 3}, Msg: "meh"},
	)
	assert.Equal(t, SeverityError, diags[0].Severity())
	assert.Equal(t, SeverityWarning, diags[1].Severity())
	assert.Equal(t, "Error at (4,9): bad", diags[0].Error())
	assert.Equal(t, "meh", diags[1].Message())
}

func TestCanceledUnwrapsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := error(NewCanceled(ctx))
	assert.True(t, stderrors.Is(err, context.Canceled))

	var canceled *CanceledError
	require.True(t, stderrors.As(err, &canceled))
}

func TestFaultUnwrap(t *testing.T) {
	inner := stderrors.New("nil model")
	err := &FaultError{Node: "CallExpr", Value: inner}
	assert.True(t, stderrors.Is(err, inner))
	assert.Nil(t, (&FaultError{Node: "x", Value: "boom"}).Unwrap())
}

func TestMessageCatalog(t *testing.T) {
	assert.Equal(t, "Not enough arguments, expected at least 2 but got 1", Format(MsgParameterMissing, 2, 1))
	assert.Equal(t, "Type mismatch (Expected: 'Int' got: 'String')", Format(MsgParameterMismatch, "Int", "String"))

	british := NewMessages(language.BritishEnglish)
	assert.Equal(t, "Too many arguments, expected at most 1 but got 3", british.Format(MsgParameterTooMany, 1, 3))
}

func TestDisplayDiagnostics(t *testing.T) {
	file := source.NewSourceFile("Main.hx", "", "var a = 1;\nfoo(a, b);\n")
	var buf bytes.Buffer
	DisplayDiagnostics(&buf, file, []Diagnostic{
		ErrorRecord{TextRange: source.TextRange{Start: 14, End: 20}, Msg: "too many"},
	})
	out := buf.String()
	assert.Contains(t, out, "Error at Main.hx:2:4: too many")
	assert.Contains(t, out, "  foo(a, b);")
	assert.Contains(t, out, "     ^~~~~~")
}
