package apply

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/brianholle/custom-claude-avatar/internal/catalog"
	"github.com/brianholle/custom-claude-avatar/internal/patch"
	"github.com/brianholle/custom-claude-avatar/internal/symbols"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	anchor   = `if(A[7]===Symbol.for("react.memo_cache_sentinel"))K=`
	original = `Zq.createElement(I,{flexDirection:"column"},q,Zq.createElement(P,null,Zq.createElement(P,{color:"clawd_body"},"▝▜"),Zq.createElement(P,{color:"clawd_body",backgroundColor:"clawd_background"},"█████"),Zq.createElement(P,{color:"clawd_body"},"▛▘")),Zq.createElement(P,{color:"clawd_body"},"  ","▘▘ ▝▝","  "))`
	banner   = `Zq.createElement(I,{flexDirection:"column"},Zq.createElement(I,{marginTop:1},"  "),Zq.createElement(P,{bold:!0},"Welcome back!")),Zq.createElement(I,{height:5,alignItems:"center"},K)`
)

var wantSyms = symbols.Set{Invoke: "Zq.createElement", Container: "I", TextNode: "P", FacePlaceholder: "q"}

func bundleText() string {
	return `var x=1;function Ck(A){let q=f();` + anchor + original + `,A[7]=K;else K=A[7];return K}` +
		`;function Wb(){return ` + banner + `}`
}

// memReader serves documents from memory and counts reads.
type memReader struct {
	docs  map[string]string
	reads int
}

func (m *memReader) Read(path string) (string, error) {
	m.reads++
	doc, ok := m.docs[path]
	if !ok {
		return "", os.ErrNotExist
	}
	return doc, nil
}

func newService(t *testing.T, doc string, opts Options) (*Service, *memReader) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	reader := &memReader{docs: map[string]string{"cli.js": doc}}
	return NewService(cat, patch.New(patch.DefaultOptions()), reader, opts, zaptest.NewLogger(t)), reader
}

func TestRun_DryRun(t *testing.T) {
	svc, _ := newService(t, bundleText(), Options{})

	report, err := svc.Run(context.Background(), Request{Key: "party_hat", Path: "cli.js", DryRun: true})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, "Party Hat", report.AvatarName)
	assert.Equal(t, wantSyms, report.Symbols)
	assert.Equal(t, anchor, report.Anchor)
	assert.True(t, strings.HasPrefix(report.Compiled,
		`Zq.createElement(I,{flexDirection:"column"},Zq.createElement(P,{color:"clawd_body"},"   ▲▲▲   "),q,`))
	assert.Empty(t, report.Document)
	assert.False(t, report.Changed)
	assert.Empty(t, report.Trace)
}

func TestRun_Patches(t *testing.T) {
	doc := bundleText()
	svc, _ := newService(t, doc, Options{})

	report, err := svc.Run(context.Background(), Request{Key: "crown", Path: "cli.js"})
	require.NoError(t, err)

	assert.True(t, report.Changed)
	assert.True(t, report.BannerPatched)
	assert.Equal(t, doc, report.Original)
	assert.Equal(t, 1, strings.Count(report.Document, anchor+report.Compiled))
	assert.NotContains(t, report.Document, original)
	assert.Contains(t, report.Document, `createElement(I,{height:7,alignItems:"center"},K)`)
	assert.Equal(t, patch.StateDone, report.Trace[len(report.Trace)-1])
}

func TestRun_RowLayout(t *testing.T) {
	svc, _ := newService(t, bundleText(), Options{})
	report, err := svc.Run(context.Background(), Request{Key: "bloomberg_terminal", Path: "cli.js"})
	require.NoError(t, err)
	assert.Contains(t, report.Document, anchor+`Zq.createElement(I,{flexDirection:"column"},Zq.createElement(I,{flexDirection:"row"},q,`)
}

func TestRun_UnknownKeySkipsRead(t *testing.T) {
	svc, reader := newService(t, bundleText(), Options{})

	_, err := svc.Run(context.Background(), Request{Key: "monocle", Path: "cli.js"})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnknownAvatarKey)
	assert.Equal(t, 0, reader.reads)
}

func TestRun_ReadError(t *testing.T) {
	svc, _ := newService(t, bundleText(), Options{})
	_, err := svc.Run(context.Background(), Request{Key: "crown", Path: "missing.js"})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestProcess_FingerprintMissing(t *testing.T) {
	svc, _ := newService(t, "", Options{})
	_, err := svc.Process(context.Background(), "crown", "var unrelated=1;", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, symbols.ErrPatternNotFound)
}

func TestProcess_AlreadyPatchedBundle(t *testing.T) {
	svc, _ := newService(t, "", Options{})
	first, err := svc.Process(context.Background(), "crown", bundleText(), false)
	require.NoError(t, err)

	// The default face is gone, so the fingerprint no longer matches.
	_, err = svc.Process(context.Background(), "party_hat", first.Document, false)
	assert.ErrorIs(t, err, symbols.ErrPatternNotFound)
}

func TestProcess_Strict(t *testing.T) {
	doc := bundleText() + `;function Dup(){return ` + original + `}`

	t.Run("first match by default", func(t *testing.T) {
		svc, _ := newService(t, "", Options{})
		report, err := svc.Process(context.Background(), "crown", doc, false)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(report.Document, original))
	})

	t.Run("strict refuses", func(t *testing.T) {
		svc, _ := newService(t, "", Options{Strict: true})
		_, err := svc.Process(context.Background(), "crown", doc, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, patch.ErrAmbiguousMatch)
		assert.Contains(t, err.Error(), "matched 2 times")
	})
}

func TestProcess_AnchorOverride(t *testing.T) {
	t.Run("matching constant", func(t *testing.T) {
		svc, _ := newService(t, "", Options{AnchorPrefix: anchor})
		report, err := svc.Process(context.Background(), "crown", bundleText(), false)
		require.NoError(t, err)
		assert.Equal(t, anchor, report.Anchor)
	})

	t.Run("stale constant", func(t *testing.T) {
		svc, _ := newService(t, "", Options{AnchorPrefix: `if(B[3]===Symbol.for("react.memo_cache_sentinel"))Z=`})
		doc := bundleText()
		report, err := svc.Process(context.Background(), "crown", doc, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, patch.ErrSearchPatternNotFound)
		require.NotNil(t, report)
		assert.Empty(t, report.Document)
		assert.Equal(t, patch.StateFailed, report.Trace[len(report.Trace)-1])
	})
}

func TestProcess_Canceled(t *testing.T) {
	svc, _ := newService(t, "", Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Process(ctx, "crown", bundleText(), false)
	assert.ErrorIs(t, err, context.Canceled)
}
