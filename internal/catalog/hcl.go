package catalog

import (
	"fmt"

	"github.com/brianholle/custom-claude-avatar/internal/avatar"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclFile is the top-level structure of an HCL catalog:
//
//	avatar "party_hat" {
//	  name       = "Party Hat"
//	  menu_label = "Party Hat (▲▲▲)"
//	  layout     = "column"
//
//	  line {
//	    text  = "   ▲▲▲   "
//	    color = "clawd_body"
//	  }
//	  line { ref = "@face" }
//	}
type hclFile struct {
	Avatars []*hclAvatar `hcl:"avatar,block"`
}

type hclAvatar struct {
	Key       string     `hcl:"key,label"`
	Name      string     `hcl:"name,attr"`
	MenuLabel *string    `hcl:"menu_label,optional"`
	Preview   *string    `hcl:"preview,optional"`
	Layout    string     `hcl:"layout,attr"`
	Lines     []*hclLine `hcl:"line,block"`
	Rows      []*hclRow  `hcl:"row,block"`
}

type hclLine struct {
	Ref             *string       `hcl:"ref,optional"`
	Text            *string       `hcl:"text,optional"`
	Args            []string      `hcl:"args,optional"`
	Color           *string       `hcl:"color,optional"`
	BackgroundColor *string       `hcl:"background_color,optional"`
	Segments        []*hclSegment `hcl:"segment,block"`
}

type hclSegment struct {
	Text            string  `hcl:"text,attr"`
	Color           string  `hcl:"color,attr"`
	BackgroundColor *string `hcl:"background_color,optional"`
}

type hclRow struct {
	Left  hclLine  `hcl:"left,block"`
	Right *hclLine `hcl:"right,block"`
}

// ParseHCL decodes an HCL catalog. filename is used in diagnostics only.
func ParseHCL(data []byte, filename string) (*Catalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL catalog %s: %w", filename, diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL catalog %s: %w", filename, diags)
	}
	if len(parsed.Avatars) == 0 {
		return nil, fmt.Errorf("HCL catalog %s defines no avatars", filename)
	}

	avatars := make(map[string]avatar.Avatar, len(parsed.Avatars))
	for _, block := range parsed.Avatars {
		if _, dup := avatars[block.Key]; dup {
			return nil, fmt.Errorf("%w: avatar %q declared twice in %s", avatar.ErrMalformedDefinition, block.Key, filename)
		}
		avatars[block.Key] = block.toAvatar()
	}
	return New(avatars)
}

func (b *hclAvatar) toAvatar() avatar.Avatar {
	a := avatar.Avatar{
		Name:      b.Name,
		MenuLabel: deref(b.MenuLabel),
		Preview:   deref(b.Preview),
		Layout:    avatar.Layout(b.Layout),
	}
	if a.MenuLabel == "" {
		a.MenuLabel = a.Name
	}
	for _, l := range b.Lines {
		a.Lines = append(a.Lines, l.toLine())
	}
	for _, r := range b.Rows {
		row := avatar.Row{Left: r.Left.toLine()}
		if r.Right != nil {
			right := r.Right.toLine()
			row.Right = &right
		}
		a.Rows = append(a.Rows, row)
	}
	return a
}

func (l *hclLine) toLine() avatar.Line {
	line := avatar.Line{
		Ref:             deref(l.Ref),
		Args:            l.Args,
		Text:            l.Text,
		Color:           deref(l.Color),
		BackgroundColor: deref(l.BackgroundColor),
	}
	for _, seg := range l.Segments {
		line.Segments = append(line.Segments, avatar.Segment{
			Text:            seg.Text,
			Color:           seg.Color,
			BackgroundColor: deref(seg.BackgroundColor),
		})
	}
	return line
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
