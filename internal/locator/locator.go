// Package locator rebuilds the default face expression that a pristine
// bundle contains, so the patch engine can search for it verbatim.
package locator

import (
	"fmt"

	"github.com/brianholle/custom-claude-avatar/internal/avatar"
	"github.com/brianholle/custom-claude-avatar/internal/compiler"
	"github.com/brianholle/custom-claude-avatar/internal/symbols"
)

// Host theme color names used by the default face.
const (
	ColorBody       = "clawd_body"
	ColorBackground = "clawd_background"
)

// BaseEyes is the eye row of the default face: two glyphs, a five-block
// run on the background color, two glyphs.
var BaseEyes = avatar.Segments(
	avatar.Segment{Text: "▝▜", Color: ColorBody},
	avatar.Segment{Text: "█████", Color: ColorBody, BackgroundColor: ColorBackground},
	avatar.Segment{Text: "▛▘", Color: ColorBody},
)

// BaseMouth is the three-part mouth of the default face.
var BaseMouth = avatar.Args(ColorBody, "  ", "▘▘ ▝▝", "  ")

// DefaultFace is the avatar the host ships with. Its first line is the
// face placeholder of whatever build it is compiled against.
func DefaultFace() avatar.Avatar {
	return avatar.Avatar{
		Name:      "Default",
		MenuLabel: "Default",
		Layout:    avatar.LayoutColumn,
		Lines: []avatar.Line{
			avatar.Reference(avatar.FaceRef),
			BaseEyes,
			BaseMouth,
		},
	}
}

// OriginalFragment compiles the default face with the resolved symbols.
func OriginalFragment(syms symbols.Set) (string, error) {
	if err := syms.Validate(); err != nil {
		return "", err
	}
	return compiler.CompileAvatar(DefaultFace(), syms)
}

// SearchPattern is the anchor prefix followed by the original fragment.
func SearchPattern(anchor string, syms symbols.Set) (string, error) {
	if anchor == "" {
		return "", fmt.Errorf("search pattern: empty anchor prefix")
	}
	frag, err := OriginalFragment(syms)
	if err != nil {
		return "", fmt.Errorf("search pattern: %w", err)
	}
	return anchor + frag, nil
}
