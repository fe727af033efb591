// Package source holds source files and the text ranges nodes and
// diagnostics refer to.
package source

import (
	"path/filepath"
	"sort"
	"strings"
)

// SourceFile is one unit of Haxe source. Files read from disk carry a Path;
// in-memory snippets only have a Name.
type SourceFile struct {
	Name    string
	Path    string
	Content string

	// filled lazily
	lines      []string
	lineStarts []int
}

func NewSourceFile(name, path, content string) *SourceFile {
	return &SourceFile{Name: name, Path: path, Content: content}
}

// FromFile names the file after the last element of filePath.
func FromFile(filePath, content string) *SourceFile {
	return NewSourceFile(filepath.Base(filePath), filePath, content)
}

// Lines splits the content on newlines.
func (sf *SourceFile) Lines() []string {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	return sf.lines
}

// DisplayPath is the path used in diagnostics.
func (sf *SourceFile) DisplayPath() string {
	if sf.Path == "" {
		return sf.Name
	}
	return sf.Path
}

// LineColumn converts a 0-based byte offset into a 1-based line and column.
// Offsets outside the content are clamped.
func (sf *SourceFile) LineColumn(offset int) (line, column int) {
	if sf.lineStarts == nil {
		sf.lineStarts = []int{0}
		for i := 0; i < len(sf.Content); i++ {
			if sf.Content[i] == '\n' {
				sf.lineStarts = append(sf.lineStarts, i+1)
			}
		}
	}
	offset = min(max(offset, 0), len(sf.Content))
	idx := sort.Search(len(sf.lineStarts), func(i int) bool { return sf.lineStarts[i] > offset }) - 1
	return idx + 1, offset - sf.lineStarts[idx] + 1
}

// Text returns the content covered by r, or "" when r lies outside the file.
func (sf *SourceFile) Text(r TextRange) string {
	if r.Start < 0 || r.End > len(sf.Content) || r.Start > r.End {
		return ""
	}
	return sf.Content[r.Start:r.End]
}
