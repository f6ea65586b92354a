// Package apply runs one avatar patch end to end: look up the avatar,
// read the bundle, resolve the build's symbols, compile, and patch. It
// returns the patched document; persisting it is left to the caller.
package apply

import (
	"context"
	"fmt"
	"time"

	"github.com/brianholle/custom-claude-avatar/internal/avatar"
	"github.com/brianholle/custom-claude-avatar/internal/catalog"
	"github.com/brianholle/custom-claude-avatar/internal/compiler"
	"github.com/brianholle/custom-claude-avatar/internal/logging"
	"github.com/brianholle/custom-claude-avatar/internal/patch"
	"github.com/brianholle/custom-claude-avatar/internal/symbols"

	"go.uber.org/zap"
)

// slowRun is how long a run may take before it is logged as a warning.
const slowRun = 2 * time.Second

// Reader loads a document by path.
type Reader interface {
	Read(path string) (string, error)
}

// Request selects the avatar and the bundle to patch.
type Request struct {
	Key    string
	Path   string
	DryRun bool
}

// Report is the outcome of one run. In a dry run Document is empty and
// nothing beyond resolution and compilation has happened.
type Report struct {
	AvatarKey     string
	AvatarName    string
	Symbols       symbols.Set
	Compiled      string
	Anchor        string
	DryRun        bool
	Document      string
	Original      string
	BannerPatched bool
	Changed       bool
	Trace         []patch.State
}

// Options tunes a Service.
type Options struct {
	// Strict fails with patch.ErrAmbiguousMatch when the structural
	// fingerprint matches more than once.
	Strict bool

	// AnchorPrefix, when set, is used instead of the resolved anchor.
	AnchorPrefix string
}

// Service is safe for sequential reuse; each Run is independent.
type Service struct {
	catalog *catalog.Catalog
	engine  *patch.Engine
	reader  Reader
	opts    Options
	logger  *zap.Logger
}

// NewService wires a Service. A nil logger discards output.
func NewService(cat *catalog.Catalog, engine *patch.Engine, reader Reader, opts Options, logger *zap.Logger) *Service {
	return &Service{
		catalog: cat,
		engine:  engine,
		reader:  reader,
		opts:    opts,
		logger:  logging.For(logger, logging.CategoryApply),
	}
}

// Run looks up the avatar, then reads and processes the bundle. An unknown
// key fails before the bundle is read.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	a, err := s.catalog.Lookup(req.Key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.reader.Read(req.Path)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, req.Key, a, doc, req.DryRun)
}

// Process runs the pipeline against an in-memory document.
func (s *Service) Process(ctx context.Context, key, doc string, dryRun bool) (*Report, error) {
	a, err := s.catalog.Lookup(key)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, key, a, doc, dryRun)
}

func (s *Service) process(ctx context.Context, key string, a avatar.Avatar, doc string, dryRun bool) (*Report, error) {
	timer := logging.StartTimer(s.logger, "apply "+key)
	defer timer.StopWithThreshold(slowRun)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	syms, err := symbols.Resolve(doc)
	if err != nil {
		return nil, fmt.Errorf("resolve symbols: %w", err)
	}
	s.logger.Debug("symbols resolved", zap.Stringer("symbols", syms))

	if s.opts.Strict {
		if n := symbols.CountMatches(doc); n > 1 {
			return nil, fmt.Errorf("%w: structural fingerprint matched %d times", patch.ErrAmbiguousMatch, n)
		}
	}

	anchor := s.opts.AnchorPrefix
	if anchor == "" {
		anchor, err = symbols.ResolveAnchor(doc)
		if err != nil {
			return nil, fmt.Errorf("resolve anchor: %w", err)
		}
	}
	s.logger.Debug("anchor resolved", zap.String("anchor", anchor))

	compiled, err := compiler.CompileAvatar(a, syms)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", key, err)
	}

	report := &Report{
		AvatarKey:  key,
		AvatarName: a.Name,
		Symbols:    syms,
		Compiled:   compiled,
		Anchor:     anchor,
		DryRun:     dryRun,
	}
	if dryRun {
		s.logger.Info("dry run", zap.String("avatar", a.Name), zap.Int("compiled_bytes", len(compiled)))
		return report, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.engine.Patch(doc, syms, anchor, compiled)
	report.Trace = res.Trace
	if err != nil {
		s.logger.Warn("patch failed", zap.String("avatar", key), zap.Stringer("state", res.State), zap.Error(err))
		return report, fmt.Errorf("patch %q: %w", key, err)
	}

	report.Original = doc
	report.Document = res.Document
	report.BannerPatched = res.BannerPatched
	report.Changed = res.Document != doc
	s.logger.Info("avatar patched",
		zap.String("avatar", a.Name),
		zap.Bool("banner", res.BannerPatched),
		zap.Bool("changed", report.Changed),
	)
	return report, nil
}
