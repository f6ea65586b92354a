package symbols

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// originalAvatar is the default face as a recent bundle build emits it.
const originalAvatar = `Zq.createElement(I,{flexDirection:"column"},q,Zq.createElement(P,null,Zq.createElement(P,{color:"clawd_body"},"▝▜"),Zq.createElement(P,{color:"clawd_body",backgroundColor:"clawd_background"},"█████"),Zq.createElement(P,{color:"clawd_body"},"▛▘")),Zq.createElement(P,{color:"clawd_body"},"  ","▘▘ ▝▝","  "))`

const anchor = `if(A[7]===Symbol.for("react.memo_cache_sentinel"))K=`

func bundle() string {
	return `var a=1;function Ck(A){let q=Zq.createElement(P,null,"face");` + anchor + originalAvatar + `,A[7]=K;else K=A[7];return K}`
}

func TestResolve(t *testing.T) {
	got, err := Resolve(bundle())
	require.NoError(t, err)

	want := Set{
		Invoke:          "Zq.createElement",
		Container:       "I",
		TextNode:        "P",
		FacePlaceholder: "q",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, got.Validate())
}

func TestResolve_NotFound(t *testing.T) {
	doc := strings.Replace(bundle(), `"▝▜"`, `"??"`, 1)
	_, err := Resolve(doc)
	assert.ErrorIs(t, err, ErrPatternNotFound)
}

func TestResolve_ColorRenamed(t *testing.T) {
	doc := strings.ReplaceAll(bundle(), "clawd_body", "clawd_skin")
	_, err := Resolve(doc)
	assert.ErrorIs(t, err, ErrPatternNotFound)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	second := strings.NewReplacer("Zq.", "Yy.", "(I,", "(J,", ",q,", ",w,").Replace(originalAvatar)
	doc := bundle() + ";" + second

	got, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, "Zq.createElement", got.Invoke)
	assert.Equal(t, "q", got.FacePlaceholder)
	assert.Equal(t, 2, CountMatches(doc))
}

func TestResolveAnchor(t *testing.T) {
	got, err := ResolveAnchor(bundle())
	require.NoError(t, err)
	assert.Equal(t, anchor, got)
}

func TestResolveAnchor_Missing(t *testing.T) {
	doc := strings.Replace(bundle(), "react.memo_cache_sentinel", "react.other", 1)
	_, err := ResolveAnchor(doc)
	assert.ErrorIs(t, err, ErrAnchorNotFound)
	assert.ErrorIs(t, err, ErrPatternNotFound)

	// The fingerprint alone still resolves.
	_, err = Resolve(doc)
	assert.NoError(t, err)
}

func TestCountMatches(t *testing.T) {
	assert.Equal(t, 0, CountMatches("nothing here"))
	assert.Equal(t, 1, CountMatches(bundle()))
}

func TestSetValidate(t *testing.T) {
	full := Set{Invoke: "R.createElement", Container: "B", TextNode: "T", FacePlaceholder: "q"}
	require.NoError(t, full.Validate())

	for _, mutate := range []func(*Set){
		func(s *Set) { s.Invoke = "" },
		func(s *Set) { s.Container = "" },
		func(s *Set) { s.TextNode = "" },
		func(s *Set) { s.FacePlaceholder = "" },
	} {
		s := full
		mutate(&s)
		assert.Error(t, s.Validate())
	}
	assert.Equal(t, "{invoke:R.createElement container:B textNode:T facePlaceholder:q}", full.String())
}
