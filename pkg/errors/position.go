package errors

import "hxinfer/pkg/source"

// Position represents a specific location in the source code.
// It includes line and column numbers (1-based) for human-readability,
// and byte offsets (0-based) for tooling.
type Position struct {
	Line     int                // 1-based line number
	Column   int                // 1-based column number
	StartPos int                // 0-based byte offset of the start of the span
	EndPos   int                // 0-based byte offset of the end of the span (exclusive)
	Source   *source.SourceFile // Reference to the source file
}

// PositionOf resolves a byte range against its file. A nil file yields a
// position carrying only the offsets.
func PositionOf(file *source.SourceFile, r source.TextRange) Position {
	pos := Position{StartPos: r.Start, EndPos: r.End, Source: file}
	if file != nil {
		pos.Line, pos.Column = file.LineColumn(r.Start)
	}
	return pos
}
