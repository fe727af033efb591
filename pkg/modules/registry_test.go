package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hxinfer/pkg/parser"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Zero(t, r.Size())

	main := &ModuleRecord{Path: "app.Main", ResolvedPath: "app/Main.hx", State: ModuleParsing}
	r.Set("app.Main", main)
	assert.Same(t, main, r.Get("app.Main"))
	assert.Nil(t, r.Get("app.Other"))
	assert.Same(t, main, r.ByFile("app/Main.hx"))

	file, errs := parser.ParseString("Main.hx", "package app;\nclass Main {}\n")
	require.Empty(t, errs)
	record := r.SetParsed(&ParseResult{ModulePath: "app.Main", File: file, Dependencies: []string{"util.Tools"}, WorkerID: 3})
	assert.Same(t, main, record)
	assert.Equal(t, ModuleParsed, main.State)
	assert.Equal(t, 3, main.WorkerID)
	assert.Equal(t, []string{"app.Main"}, r.Dependents("util.Tools"))

	// A sub-type path shares the record of its module file.
	r.Set("app.Main.Sub", main)
	assert.Equal(t, []string{"app.Main", "app.Main.Sub"}, r.List())
	assert.Len(t, r.ByState(ModuleParsed), 1)

	r.UpdateState("app.Main", ModuleIndexed)
	assert.Equal(t, "indexed", main.State.String())

	stats := r.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)

	r.Remove("app.Main")
	assert.Nil(t, r.ByFile("app/Main.hx"))
	r.Clear()
	assert.Zero(t, r.Size())
}
