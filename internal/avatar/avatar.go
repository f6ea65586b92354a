// Package avatar defines the declarative layout model for avatars: lines,
// rows and the two layouts that arrange them. It is pure data plus
// validation; compiling it into call expressions lives in package compiler.
package avatar

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedDefinition is returned when an avatar or one of its lines
// violates the layout model invariants. It always indicates a defect in the
// catalog, never in the target document.
var ErrMalformedDefinition = errors.New("malformed avatar definition")

// Layout is the avatar-level arrangement discriminant.
type Layout string

const (
	LayoutColumn Layout = "column" // lines stacked vertically
	LayoutRow    Layout = "row"    // rows of left/right lines, rows stacked vertically
)

// FaceRef is the reference that stands for the face placeholder of the
// current bundle build. Any other reference is spliced in verbatim.
const FaceRef = "@face"

// Kind identifies which of the four line shapes is populated.
type Kind int

const (
	KindNone Kind = iota
	KindReference
	KindSegments
	KindArgs
	KindText
)

// String returns the catalog field name for the kind.
func (k Kind) String() string {
	switch k {
	case KindReference:
		return "ref"
	case KindSegments:
		return "segments"
	case KindArgs:
		return "args"
	case KindText:
		return "text"
	default:
		return "none"
	}
}

// Segment is one colored run inside a segment-list line.
type Segment struct {
	Text            string `yaml:"text"`
	Color           string `yaml:"color"`
	BackgroundColor string `yaml:"backgroundColor,omitempty"`
}

// Line is a tagged variant: exactly one of Ref, Segments, Args or Text must
// be populated. Color applies to Args and Text; BackgroundColor to Text only.
// Text is a pointer so that an empty literal is still a populated shape.
type Line struct {
	Ref             string    `yaml:"ref,omitempty"`
	Segments        []Segment `yaml:"segments,omitempty"`
	Args            []string  `yaml:"args,omitempty"`
	Text            *string   `yaml:"text,omitempty"`
	Color           string    `yaml:"color,omitempty"`
	BackgroundColor string    `yaml:"backgroundColor,omitempty"`
}

// Row pairs a left line with an optional right line.
type Row struct {
	Left  Line  `yaml:"left"`
	Right *Line `yaml:"right,omitempty"`
}

// Avatar is one catalog entry.
type Avatar struct {
	Name      string `yaml:"name"`
	MenuLabel string `yaml:"menuLabel"`
	Preview   string `yaml:"preview,omitempty"`
	Layout    Layout `yaml:"layout"`
	Lines     []Line `yaml:"lines,omitempty"`
	Rows      []Row  `yaml:"rows,omitempty"`
}

// Reference builds a line that splices a symbol verbatim.
func Reference(name string) Line {
	return Line{Ref: name}
}

// Segments builds a multi-color line.
func Segments(segs ...Segment) Line {
	return Line{Segments: segs}
}

// Args builds a multi-argument line sharing one color.
func Args(color string, args ...string) Line {
	return Line{Args: args, Color: color}
}

// Text builds a single styled literal. An empty background is omitted.
func Text(text, color, background string) Line {
	return Line{Text: &text, Color: color, BackgroundColor: background}
}

// Kinds returns every populated discriminant, in precedence order.
func (l Line) Kinds() []Kind {
	var kinds []Kind
	if l.Ref != "" {
		kinds = append(kinds, KindReference)
	}
	if len(l.Segments) > 0 {
		kinds = append(kinds, KindSegments)
	}
	if len(l.Args) > 0 {
		kinds = append(kinds, KindArgs)
	}
	if l.Text != nil {
		kinds = append(kinds, KindText)
	}
	return kinds
}

// Kind returns the single populated shape, or an error wrapping
// ErrMalformedDefinition when none or several are populated.
func (l Line) Kind() (Kind, error) {
	kinds := l.Kinds()
	switch len(kinds) {
	case 0:
		return KindNone, fmt.Errorf("%w: line has no shape (want one of ref, segments, args, text)", ErrMalformedDefinition)
	case 1:
		return kinds[0], nil
	default:
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = k.String()
		}
		return KindNone, fmt.Errorf("%w: line has %d shapes (%s), want exactly one", ErrMalformedDefinition, len(kinds), strings.Join(names, ", "))
	}
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Validate checks the one-shape invariant and that every literal can be
// emitted verbatim inside a double-quoted string.
func (l Line) Validate() error {
	kind, err := l.Kind()
	if err != nil {
		return err
	}
	switch kind {
	case KindReference:
		if l.Ref != FaceRef && !identifierRe.MatchString(l.Ref) {
			return fmt.Errorf("%w: ref %q is not an identifier", ErrMalformedDefinition, l.Ref)
		}
	case KindSegments:
		for i, seg := range l.Segments {
			if seg.Color == "" {
				return fmt.Errorf("%w: segment %d has no color", ErrMalformedDefinition, i)
			}
			if err := checkLiterals(seg.Text, seg.Color, seg.BackgroundColor); err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
		}
	case KindArgs:
		if l.Color == "" {
			return fmt.Errorf("%w: args line has no color", ErrMalformedDefinition)
		}
		if err := checkLiterals(append([]string{l.Color}, l.Args...)...); err != nil {
			return err
		}
	case KindText:
		if l.Color == "" {
			return fmt.Errorf("%w: text line has no color", ErrMalformedDefinition)
		}
		if err := checkLiterals(*l.Text, l.Color, l.BackgroundColor); err != nil {
			return err
		}
	}
	return nil
}

// checkLiterals rejects characters the compiler would have to escape.
func checkLiterals(values ...string) error {
	for _, v := range values {
		if strings.ContainsAny(v, "\"\\\n\r") {
			return fmt.Errorf("%w: literal %q contains a quote, backslash or newline", ErrMalformedDefinition, v)
		}
	}
	return nil
}

// Validate checks the lines-xor-rows invariant and every contained line.
func (a Avatar) Validate() error {
	switch a.Layout {
	case LayoutColumn:
		if len(a.Rows) > 0 {
			return fmt.Errorf("%w: column avatar %q must not define rows", ErrMalformedDefinition, a.Name)
		}
		if len(a.Lines) == 0 {
			return fmt.Errorf("%w: column avatar %q has no lines", ErrMalformedDefinition, a.Name)
		}
		for i, line := range a.Lines {
			if err := line.Validate(); err != nil {
				return fmt.Errorf("avatar %q line %d: %w", a.Name, i, err)
			}
		}
	case LayoutRow:
		if len(a.Lines) > 0 {
			return fmt.Errorf("%w: row avatar %q must not define lines", ErrMalformedDefinition, a.Name)
		}
		if len(a.Rows) == 0 {
			return fmt.Errorf("%w: row avatar %q has no rows", ErrMalformedDefinition, a.Name)
		}
		for i, row := range a.Rows {
			if err := row.Left.Validate(); err != nil {
				return fmt.Errorf("avatar %q row %d left: %w", a.Name, i, err)
			}
			if row.Right != nil {
				if err := row.Right.Validate(); err != nil {
					return fmt.Errorf("avatar %q row %d right: %w", a.Name, i, err)
				}
			}
		}
	default:
		return fmt.Errorf("%w: avatar %q has unknown layout %q (want column or row)", ErrMalformedDefinition, a.Name, a.Layout)
	}
	return nil
}
