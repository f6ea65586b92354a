// Package compiler turns avatar layout definitions into the exact call
// expression the host UI framework evaluates, e.g.
//
//	R.createElement(B,{flexDirection:"column"},R.createElement(T,{color:"body"},"▲"),q)
//
// Output is built by plain string construction and is byte-for-byte
// deterministic: the fragment locator rebuilds the bundle's original
// expression with the same rules and searches for it verbatim.
package compiler

import (
	"fmt"
	"strings"

	"github.com/brianholle/custom-claude-avatar/internal/avatar"
	"github.com/brianholle/custom-claude-avatar/internal/symbols"
)

// Prop is one key/value pair of an element's properties.
type Prop struct {
	Key   string
	Value string
}

// Props is an ordered property set. Order is construction order and is
// preserved in the output.
type Props []Prop

// With returns p with key=value appended.
func (p Props) With(key, value string) Props {
	return append(p, Prop{Key: key, Value: value})
}

// WithOptional appends key=value only when value is non-empty.
func (p Props) WithOptional(key, value string) Props {
	if value == "" {
		return p
	}
	return p.With(key, value)
}

// String renders `null` for an empty set, else `{k:"v",k2:"v2"}`.
func (p Props) String() string {
	if len(p) == 0 {
		return "null"
	}
	parts := make([]string, len(p))
	for i, prop := range p {
		parts[i] = prop.Key + `:"` + prop.Value + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Layout property values used on container elements.
const (
	vertical   = "column"
	horizontal = "row"
)

// Compiler is bound to one resolved symbol set.
type Compiler struct {
	syms symbols.Set
}

// New returns a Compiler emitting calls with the given symbols.
func New(syms symbols.Set) *Compiler {
	return &Compiler{syms: syms}
}

// call renders invoke(element,props,children...).
func (c *Compiler) call(element string, props Props, children ...string) string {
	var sb strings.Builder
	sb.WriteString(c.syms.Invoke)
	sb.WriteByte('(')
	sb.WriteString(element)
	sb.WriteByte(',')
	sb.WriteString(props.String())
	for _, child := range children {
		sb.WriteByte(',')
		sb.WriteString(child)
	}
	sb.WriteByte(')')
	return sb.String()
}

func quote(s string) string {
	return `"` + s + `"`
}

// colorProps builds the color-then-backgroundColor property set.
func colorProps(color, background string) Props {
	return Props{}.With("color", color).WithOptional("backgroundColor", background)
}

// Line compiles a single line.
func (c *Compiler) Line(line avatar.Line) (string, error) {
	kind, err := line.Kind()
	if err != nil {
		return "", err
	}
	switch kind {
	case avatar.KindReference:
		if line.Ref == avatar.FaceRef {
			return c.syms.FacePlaceholder, nil
		}
		return line.Ref, nil
	case avatar.KindSegments:
		children := make([]string, len(line.Segments))
		for i, seg := range line.Segments {
			children[i] = c.call(c.syms.TextNode, colorProps(seg.Color, seg.BackgroundColor), quote(seg.Text))
		}
		return c.call(c.syms.TextNode, nil, children...), nil
	case avatar.KindArgs:
		args := make([]string, len(line.Args))
		for i, a := range line.Args {
			args[i] = quote(a)
		}
		return c.call(c.syms.TextNode, Props{}.With("color", line.Color), args...), nil
	case avatar.KindText:
		return c.call(c.syms.TextNode, colorProps(line.Color, line.BackgroundColor), quote(*line.Text)), nil
	}
	return "", fmt.Errorf("%w: unhandled line kind %s", avatar.ErrMalformedDefinition, kind)
}

// Avatar compiles a whole avatar according to its layout.
func (c *Compiler) Avatar(a avatar.Avatar) (string, error) {
	switch a.Layout {
	case avatar.LayoutColumn:
		children, err := c.lines(a.Lines)
		if err != nil {
			return "", fmt.Errorf("avatar %q: %w", a.Name, err)
		}
		return c.container(vertical, children...), nil

	case avatar.LayoutRow:
		rows := make([]string, 0, len(a.Rows))
		for i, row := range a.Rows {
			left, err := c.Line(row.Left)
			if err != nil {
				return "", fmt.Errorf("avatar %q row %d left: %w", a.Name, i, err)
			}
			cells := []string{left}
			if row.Right != nil {
				right, err := c.Line(*row.Right)
				if err != nil {
					return "", fmt.Errorf("avatar %q row %d right: %w", a.Name, i, err)
				}
				cells = append(cells, right)
			}
			rows = append(rows, c.container(horizontal, cells...))
		}
		return c.container(vertical, rows...), nil
	}
	return "", fmt.Errorf("%w: avatar %q has unknown layout %q", avatar.ErrMalformedDefinition, a.Name, a.Layout)
}

func (c *Compiler) lines(lines []avatar.Line) ([]string, error) {
	out := make([]string, len(lines))
	for i, line := range lines {
		s, err := c.Line(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

func (c *Compiler) container(direction string, children ...string) string {
	return c.call(c.syms.Container, Props{}.With("flexDirection", direction), children...)
}

// CompileLine compiles one line with the given symbols.
func CompileLine(line avatar.Line, syms symbols.Set) (string, error) {
	return New(syms).Line(line)
}

// CompileAvatar compiles an avatar with the given symbols.
func CompileAvatar(a avatar.Avatar, syms symbols.Set) (string, error) {
	return New(syms).Avatar(a)
}
