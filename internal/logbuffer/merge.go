// Package logbuffer reconciles log snapshots with incremental stream chunks.
package logbuffer

import "strings"

// ProgressMarker identifies transfer-rate status lines.
const ProgressMarker = "B/s"

// OpKind is the kind of change a merge applied to the line sequence.
type OpKind int

const (
	OpAppend OpKind = iota
	OpReplace
)

func (k OpKind) String() string {
	switch k {
	case OpAppend:
		return "append"
	case OpReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Op is one change applied by Merge, in order.
type Op struct {
	Kind OpKind
	Line string
}

// MergeResult is the outcome of merging new lines into a buffer.
type MergeResult struct {
	Lines []string
	Ops   []Op
}

// Appended reports how many lines were pushed onto the end of the buffer.
func (r MergeResult) Appended() int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == OpAppend {
			n++
		}
	}
	return n
}

// Replaced reports how many progress lines were coalesced into the tail.
func (r MergeResult) Replaced() int {
	return len(r.Ops) - r.Appended()
}

// Coalesced reports whether any line replaced the buffer tail.
func (r MergeResult) Coalesced() bool {
	return r.Replaced() > 0
}

// ShouldScroll is false only for a pure coalesce, so progress ticks
// don't fight the user's scroll position.
func (r MergeResult) ShouldScroll() bool {
	return r.Appended() > 0
}

// IsProgress reports whether line is a transfer-rate progress line.
func IsProgress(line string) bool {
	return strings.Contains(line, ProgressMarker)
}

// SplitLines splits raw on newlines, trims every line and drops empty ones.
func SplitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Render joins lines with newlines plus a trailing newline. An empty
// sequence renders as the empty string.
func Render(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Merge applies newLines to lines without touching either input.
//
// A progress line that follows a progress line replaces it in place;
// every other line is appended. This holds across the chunk boundary
// and inside the chunk, so a run of progress lines collapses to its
// latest value. Empty entries in newLines are skipped, so input that did
// not come through SplitLines never adds blank lines.
func Merge(lines []string, newLines []string) MergeResult {
	out := make([]string, len(lines), len(lines)+len(newLines))
	copy(out, lines)
	ops := make([]Op, 0, len(newLines))

	for _, line := range newLines {
		if line == "" {
			continue
		}
		if n := len(out); n > 0 && IsProgress(out[n-1]) && IsProgress(line) {
			out[n-1] = line
			ops = append(ops, Op{Kind: OpReplace, Line: line})
			continue
		}
		out = append(out, line)
		ops = append(ops, Op{Kind: OpAppend, Line: line})
	}
	return MergeResult{Lines: out, Ops: ops}
}
