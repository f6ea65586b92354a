package diff

import (
	"strings"
	"testing"
)

func TestCompute_Identical(t *testing.T) {
	p := Compute("same", "same")
	if !p.Empty() {
		t.Fatalf("expected no changes, got %d", len(p.Changes))
	}
	if p.String() != "no changes\n" {
		t.Errorf("unexpected render: %q", p.String())
	}
}

func TestCompute_SingleReplacement(t *testing.T) {
	oldDoc := "prefix;K=R.createElement(B,null,q);suffix"
	newDoc := "prefix;K=R.createElement(B,null,hat,q);suffix"

	p := NewEngine(5).Compute(oldDoc, newDoc)
	if len(p.Changes) != 1 {
		t.Fatalf("expected 1 change, got %d: %+v", len(p.Changes), p.Changes)
	}
	c := p.Changes[0]
	if c.Inserted != "hat," && c.Inserted != ",hat" {
		t.Errorf("Inserted = %q", c.Inserted)
	}
	if c.Removed != "" {
		t.Errorf("Removed = %q", c.Removed)
	}
	if p.BytesInserted != 4 || p.BytesRemoved != 0 {
		t.Errorf("byte counts = -%d +%d", p.BytesRemoved, p.BytesInserted)
	}
	if oldDoc[:c.Offset]+c.Inserted+oldDoc[c.Offset:] != newDoc {
		t.Errorf("offset %d does not reproduce the new document", c.Offset)
	}
	if len([]rune(c.Before)) > 5 || len([]rune(c.After)) > 5 {
		t.Errorf("context exceeds window: before=%q after=%q", c.Before, c.After)
	}
}

func TestCompute_TwoSeparateEdits(t *testing.T) {
	filler := strings.Repeat("x", 200)
	oldDoc := "AAA" + filler + "{height:5," + filler + "ZZZ"
	newDoc := "BBB" + filler + "{height:7," + filler + "ZZZ"

	p := Compute(oldDoc, newDoc)
	if len(p.Changes) != 2 {
		t.Fatalf("expected 2 changes, got %d: %+v", len(p.Changes), p.Changes)
	}
	if p.Changes[0].Offset != 0 {
		t.Errorf("first change offset = %d", p.Changes[0].Offset)
	}
	if p.Changes[1].Removed != "5" || p.Changes[1].Inserted != "7" {
		t.Errorf("second change = %+v", p.Changes[1])
	}

	out := p.String()
	if !strings.Contains(out, "- 5\n+ 7\n") {
		t.Errorf("render missing height edit:\n%s", out)
	}
	if strings.Count(out, "@@ offset") != 2 {
		t.Errorf("expected two headers:\n%s", out)
	}
}

func TestCompute_MultibyteContext(t *testing.T) {
	oldDoc := "▝▜█████▛▘ one ▘▘ ▝▝"
	newDoc := "▝▜█████▛▘ two ▘▘ ▝▝"
	p := NewEngine(3).Compute(oldDoc, newDoc)
	if len(p.Changes) == 0 {
		t.Fatal("expected changes")
	}
	for _, c := range p.Changes {
		for _, s := range []string{c.Before, c.After, c.Removed, c.Inserted} {
			if !utf8Valid(s) {
				t.Errorf("split rune in %q", s)
			}
		}
	}
}

func TestClip(t *testing.T) {
	if got := Clip("short", 10); got != "short" {
		t.Errorf("Clip = %q", got)
	}
	got := Clip("██████████", 3)
	if !strings.HasPrefix(got, "███… (") {
		t.Errorf("Clip = %q", got)
	}
	if !strings.Contains(got, "21 more bytes") {
		t.Errorf("Clip = %q", got)
	}
}

func TestHeadTail(t *testing.T) {
	if head("abc", 0) != "" || tail("abc", 0) != "" {
		t.Error("zero window should be empty")
	}
	if head("▲▲▲", 2) != "▲▲" {
		t.Errorf("head = %q", head("▲▲▲", 2))
	}
	if tail("a▲b", 2) != "▲b" {
		t.Errorf("tail = %q", tail("a▲b", 2))
	}
	if tail("ab", 5) != "ab" {
		t.Errorf("tail = %q", tail("ab", 5))
	}
}

func utf8Valid(s string) bool {
	return strings.ToValidUTF8(s, "�") == s
}
