// Package diff computes a compact preview of what a patch changes in a
// bundle. Minified bundles are effectively one enormous line, so the preview
// is character-based: each change is reported with its byte offset and a
// short window of surrounding context instead of line hunks.
package diff

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of runes of context shown on each side of a change.
const DefaultContext = 40

// maxShown caps how much of a removed or inserted run is rendered.
const maxShown = 400

// Change is one contiguous edit.
type Change struct {
	// Offset is the byte offset of the edit in the old document.
	Offset   int
	Removed  string
	Inserted string
	Before   string // context preceding the edit
	After    string // context following the edit
}

// Preview is the set of edits between two documents.
type Preview struct {
	Changes       []Change
	BytesRemoved  int
	BytesInserted int
}

// Empty reports whether the documents were identical.
func (p *Preview) Empty() bool {
	return len(p.Changes) == 0
}

// Engine computes previews.
type Engine struct {
	dmp     *diffmatchpatch.DiffMatchPatch
	context int
}

// NewEngine creates an engine showing context runes around each change.
func NewEngine(context int) *Engine {
	dmp := diffmatchpatch.New()
	// Bundles are megabytes; bound the bisection and accept a coarser diff.
	dmp.DiffTimeout = 2 * time.Second
	if context < 0 {
		context = 0
	}
	return &Engine{dmp: dmp, context: context}
}

// DefaultEngine is a shared engine with DefaultContext.
var DefaultEngine = NewEngine(DefaultContext)

// Compute returns the preview of turning oldDoc into newDoc.
func (e *Engine) Compute(oldDoc, newDoc string) *Preview {
	p := &Preview{}
	if oldDoc == newDoc {
		return p
	}

	diffs := e.dmp.DiffMain(oldDoc, newDoc, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)

	offset := 0
	var current *Change
	var lastEqual string
	flush := func(next string) {
		if current == nil {
			return
		}
		current.After = head(next, e.context)
		p.Changes = append(p.Changes, *current)
		current = nil
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush(d.Text)
			lastEqual = d.Text
			offset += len(d.Text)
		case diffmatchpatch.DiffDelete:
			if current == nil {
				current = &Change{Offset: offset, Before: tail(lastEqual, e.context)}
			}
			current.Removed += d.Text
			p.BytesRemoved += len(d.Text)
			offset += len(d.Text)
		case diffmatchpatch.DiffInsert:
			if current == nil {
				current = &Change{Offset: offset, Before: tail(lastEqual, e.context)}
			}
			current.Inserted += d.Text
			p.BytesInserted += len(d.Text)
		}
	}
	flush("")
	return p
}

// Compute is a convenience function using the default engine.
func Compute(oldDoc, newDoc string) *Preview {
	return DefaultEngine.Compute(oldDoc, newDoc)
}

// String renders the preview as plain text:
//
//	@@ offset 1234 (-210 +388) @@
//	  …context before
//	- removed
//	+ inserted
//	  context after…
func (p *Preview) String() string {
	if p.Empty() {
		return "no changes\n"
	}
	var sb strings.Builder
	for _, c := range p.Changes {
		fmt.Fprintf(&sb, "@@ offset %d (-%d +%d) @@\n", c.Offset, len(c.Removed), len(c.Inserted))
		if c.Before != "" {
			fmt.Fprintf(&sb, "  …%s\n", c.Before)
		}
		if c.Removed != "" {
			fmt.Fprintf(&sb, "- %s\n", Clip(c.Removed, maxShown))
		}
		if c.Inserted != "" {
			fmt.Fprintf(&sb, "+ %s\n", Clip(c.Inserted, maxShown))
		}
		if c.After != "" {
			fmt.Fprintf(&sb, "  %s…\n", c.After)
		}
	}
	return sb.String()
}

// Clip shortens s to at most n runes, marking the cut.
func Clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return head(s, n) + fmt.Sprintf("… (%d more bytes)", len(s)-len(head(s, n)))
}

// head returns the first n runes of s.
func head(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	if n == 0 {
		return ""
	}
	count := 0
	for i := len(s); i > 0; {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
		count++
		if count == n {
			return s[i:]
		}
	}
	return s
}
