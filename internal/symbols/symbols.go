// Package symbols recovers the minified identifiers a bundle build uses for
// the four roles the avatar compiler emits. Identifiers change on every
// build, so they are re-resolved from the document text on each run.
package symbols

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrPatternNotFound means the structural fingerprint of the default
	// face is absent; the host bundle layout has changed.
	ErrPatternNotFound = errors.New("avatar fingerprint not found in document")

	// ErrAnchorNotFound means the fingerprint matched but the memo cache
	// sentinel assignment in front of it did not.
	ErrAnchorNotFound = fmt.Errorf("%w: memo cache sentinel anchor missing", ErrPatternNotFound)
)

// fingerprint matches the original face rendering:
// container(column) -> face ref -> text(null) -> text(color) -> "▝▜".
// Groups: 1 invoke namespace, 2 container, 3 face, 5 text node.
// Identifiers may contain '$' and upper case letters; minifiers use both.
const fingerprint = `([\w$]+)\.createElement\(([\w$]+),\{flexDirection:"column"\},([\w$]+),([\w$]+)\.createElement\(([\w$]+),null,([\w$]+)\.createElement\(([\w$]+),\{color:"clawd_body"\},"▝▜"\)`

// anchorFingerprint is the same shape preceded by the memo cache check and
// assignment that the bundler emits immediately before the avatar element.
const anchorFingerprint = `([\w$]\[\d+\]===Symbol\.for\("react\.memo_cache_sentinel"\)\)[\w$]+=)[\w$]+\.createElement\([\w$]+,\{flexDirection:"column"\},[\w$]+,[\w$]+\.createElement\([\w$]+,null,[\w$]+\.createElement\([\w$]+,\{color:"clawd_body"\},"▝▜"\)`

var (
	fingerprintRe = regexp.MustCompile(fingerprint)
	anchorRe      = regexp.MustCompile(anchorFingerprint)
)

// Set holds the resolved identifiers for one patch run.
type Set struct {
	// Invoke is the call-expression function, e.g. "R.createElement".
	Invoke string `json:"invoke"`
	// Container is the box/flex element.
	Container string `json:"container"`
	// TextNode is the text element.
	TextNode string `json:"textNode"`
	// FacePlaceholder stands in for the previously bound face sub-expression.
	FacePlaceholder string `json:"facePlaceholder"`
}

// String renders the set the way the CLI reports detected variables.
func (s Set) String() string {
	return fmt.Sprintf("{invoke:%s container:%s textNode:%s facePlaceholder:%s}", s.Invoke, s.Container, s.TextNode, s.FacePlaceholder)
}

// Validate reports an error if any role is unresolved.
func (s Set) Validate() error {
	switch {
	case s.Invoke == "":
		return errors.New("symbol set: invoke is empty")
	case s.Container == "":
		return errors.New("symbol set: container is empty")
	case s.TextNode == "":
		return errors.New("symbol set: textNode is empty")
	case s.FacePlaceholder == "":
		return errors.New("symbol set: facePlaceholder is empty")
	}
	return nil
}

// Resolve extracts the symbol set from the first fingerprint match. It never
// falls back to a weaker pattern.
func Resolve(doc string) (Set, error) {
	m := fingerprintRe.FindStringSubmatch(doc)
	if m == nil {
		return Set{}, ErrPatternNotFound
	}
	return Set{
		Invoke:          m[1] + ".createElement",
		Container:       m[2],
		FacePlaceholder: m[3],
		TextNode:        m[5],
	}, nil
}

// ResolveAnchor returns the memo cache sentinel prefix that immediately
// precedes the avatar assignment.
func ResolveAnchor(doc string) (string, error) {
	m := anchorRe.FindStringSubmatch(doc)
	if m == nil {
		return "", ErrAnchorNotFound
	}
	return m[1], nil
}

// CountMatches returns how many non-overlapping fingerprint matches exist.
func CountMatches(doc string) int {
	return len(fingerprintRe.FindAllStringIndex(doc, -1))
}
