// Package patch performs the search, replace and verify sequence that swaps
// the default face in a bundle for a compiled avatar, plus a best-effort
// cosmetic banner patch.
//
// The engine works on an in-memory copy of the document. A failure at any
// step returns the input unchanged; nothing is retried, since every failure
// means the bundle no longer looks the way the compiler assumes.
package patch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/brianholle/custom-claude-avatar/internal/locator"
	"github.com/brianholle/custom-claude-avatar/internal/symbols"
)

var (
	// ErrSearchPatternNotFound means the reconstructed original fragment is
	// not present verbatim in the document.
	ErrSearchPatternNotFound = errors.New("search pattern not found in document")

	// ErrReplacementVerificationFailed means the compiled replacement could
	// not be found after replacing.
	ErrReplacementVerificationFailed = errors.New("replacement verification failed")

	// ErrAmbiguousMatch is returned in strict mode when the search pattern
	// occurs more than once.
	ErrAmbiguousMatch = errors.New("search pattern occurs more than once")
)

// expectedPreview is how much of the expected pattern a SearchError shows.
const expectedPreview = 100

// SearchError describes a failed or ambiguous search with enough context to
// diagnose which part of the bundle changed.
type SearchError struct {
	Symbols     symbols.Set
	Expected    string // first bytes of the search pattern
	Occurrences int
	err         error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%v (detected %s, expected %q...)", e.err, e.Symbols, e.Expected)
}

func (e *SearchError) Unwrap() error {
	return e.err
}

func newSearchError(err error, syms symbols.Set, pattern string, n int) *SearchError {
	expected := pattern
	if len(expected) > expectedPreview {
		expected = truncate(expected, expectedPreview)
	}
	return &SearchError{Symbols: syms, Expected: expected, Occurrences: n, err: err}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// BannerOptions controls the welcome banner removal.
type BannerOptions struct {
	Enabled    bool
	FromHeight int
	ToHeight   int
}

// Options configures an Engine.
type Options struct {
	// Strict refuses to patch when the search pattern is not unique.
	// Otherwise only the first occurrence is replaced.
	Strict bool
	Banner BannerOptions
}

// DefaultOptions removes the banner and grows the avatar column from 5 to 7 rows.
func DefaultOptions() Options {
	return Options{
		Banner: BannerOptions{Enabled: true, FromHeight: 5, ToHeight: 7},
	}
}

// Engine applies patches. It holds no per-document state and may be reused.
type Engine struct {
	opts     Options
	bannerRe *regexp.Regexp
}

// New creates an Engine.
func New(opts Options) *Engine {
	e := &Engine{opts: opts}
	if opts.Banner.Enabled {
		e.bannerRe = regexp.MustCompile(fmt.Sprintf(bannerPattern, opts.Banner.FromHeight))
	}
	return e
}

// bannerPattern matches the marginTop/bold banner children followed by the
// fixed-height column that holds the avatar. Group 1 is the fixed-height
// container.
const bannerPattern = `createElement\([\w$]+,\{marginTop:1\},[^)]+\),[\w$]+\.createElement\([\w$]+,\{bold:!0\}[^)]+\)\),[\w$]+\.createElement\(([\w$]+),\{height:%d,`

// Result is the outcome of one Patch call. On failure Document holds the
// unmodified input.
type Result struct {
	Document      string
	SearchPattern string
	Replacement   string
	BannerPatched bool
	State         State
	Trace         []State
}

func (r *Result) enter(s State) {
	r.State = s
	r.Trace = append(r.Trace, s)
}

// Patch replaces the default face that follows anchor with compiled.
func (e *Engine) Patch(doc string, syms symbols.Set, anchor, compiled string) (*Result, error) {
	res := &Result{Document: doc, Replacement: anchor + compiled}
	res.enter(StateIdle)

	res.enter(StateLocating)
	pattern, err := locator.SearchPattern(anchor, syms)
	if err != nil {
		res.enter(StateFailed)
		return res, err
	}
	res.SearchPattern = pattern

	n := strings.Count(doc, pattern)
	if n == 0 {
		res.enter(StateNotFound)
		res.enter(StateFailed)
		return res, newSearchError(ErrSearchPatternNotFound, syms, pattern, 0)
	}
	res.enter(StateFound)
	if n > 1 && e.opts.Strict {
		res.enter(StateFailed)
		return res, newSearchError(ErrAmbiguousMatch, syms, pattern, n)
	}

	res.enter(StateReplacing)
	patched := strings.Replace(doc, pattern, res.Replacement, 1)

	res.enter(StateVerifying)
	if !strings.Contains(patched, compiled) {
		res.enter(StateFailed)
		return res, fmt.Errorf("%w: compiled avatar absent after replace", ErrReplacementVerificationFailed)
	}
	res.enter(StateVerified)

	patched, res.BannerPatched = e.patchBanner(patched)

	res.Document = patched
	res.enter(StateDone)
	return res, nil
}

// patchBanner drops the banner and raises the avatar column height. A
// missing anchor leaves the document untouched.
func (e *Engine) patchBanner(doc string) (string, bool) {
	if e.bannerRe == nil {
		return doc, false
	}
	loc := e.bannerRe.FindStringSubmatchIndex(doc)
	if loc == nil {
		return doc, false
	}
	box := doc[loc[2]:loc[3]]
	repl := fmt.Sprintf("createElement(%s,{height:%d,", box, e.opts.Banner.ToHeight)
	return doc[:loc[0]] + repl + doc[loc[1]:], true
}

// AlreadyPatched reports whether doc already carries compiled after anchor.
func AlreadyPatched(doc, anchor, compiled string) bool {
	return anchor != "" && compiled != "" && strings.Contains(doc, anchor+compiled)
}
