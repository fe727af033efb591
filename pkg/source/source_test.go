package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineColumn(t *testing.T) {
	sf := NewSourceFile("Main.hx", "src/Main.hx", "var a = 1;\nvar b = 2;\n")

	line, col := sf.LineColumn(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	line, col = sf.LineColumn(15)
	assert.Equal(t, 2, line)
	assert.Equal(t, 5, col)

	line, _ = sf.LineColumn(1000)
	assert.Equal(t, 3, line)
}

func TestTextAndDisplay(t *testing.T) {
	sf := FromFile("/tmp/src/Main.hx", "class Main {}")
	require.Equal(t, "/tmp/src/Main.hx", sf.Path)
	assert.Equal(t, "Main.hx", sf.Name)
	assert.Equal(t, "/tmp/src/Main.hx", sf.DisplayPath())
	assert.Equal(t, "Main", sf.Text(TextRange{Start: 6, End: 10}))
	assert.Equal(t, "", sf.Text(TextRange{Start: 6, End: 100}))

	snippet := NewSourceFile("<snippet>", "", "1 + 2\n3")
	assert.Equal(t, "<snippet>", snippet.DisplayPath())
	assert.Equal(t, []string{"1 + 2", "3"}, snippet.Lines())
}

func TestTextRange(t *testing.T) {
	r := NewRange(10, 4)
	assert.Equal(t, TextRange{Start: 4, End: 10}, r)
	assert.Equal(t, 6, r.Len())
	assert.True(t, r.Contains(TextRange{Start: 5, End: 9}))
	assert.False(t, r.Contains(TextRange{Start: 5, End: 11}))
	assert.True(t, r.ContainsOffset(4))
	assert.False(t, r.ContainsOffset(10))
	assert.Equal(t, TextRange{Start: 2, End: 10}, r.Union(TextRange{Start: 2, End: 3}))
	assert.Equal(t, 0, r.Distance(7))
	assert.Equal(t, 3, r.Distance(1))
	assert.Equal(t, 5, r.Distance(15))
	assert.True(t, TextRange{Start: 3, End: 3}.IsEmpty())
	assert.Equal(t, "(4,10)", r.String())
}
