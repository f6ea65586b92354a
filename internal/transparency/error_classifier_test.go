package transparency

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/brianholle/custom-claude-avatar/internal/avatar"
	"github.com/brianholle/custom-claude-avatar/internal/catalog"
	"github.com/brianholle/custom-claude-avatar/internal/config"
	"github.com/brianholle/custom-claude-avatar/internal/patch"
	"github.com/brianholle/custom-claude-avatar/internal/symbols"
)

func TestClassifyError_Categories(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   ErrorCategory
		prefix string
	}{
		{"unknown key", &catalog.UnknownKeyError{Key: "x", Available: []string{"crown"}}, ErrorCategoryCatalog, "[CATALOG]"},
		{"malformed", fmt.Errorf("avatar %q: %w", "x", avatar.ErrMalformedDefinition), ErrorCategoryDefinition, "[DEFINITION]"},
		{"fingerprint", fmt.Errorf("resolve: %w", symbols.ErrPatternNotFound), ErrorCategoryCompatibility, "[COMPAT]"},
		{"anchor", symbols.ErrAnchorNotFound, ErrorCategoryCompatibility, "[COMPAT]"},
		{"search", fmt.Errorf("patch: %w", patch.ErrSearchPatternNotFound), ErrorCategoryCompatibility, "[COMPAT]"},
		{"ambiguous", patch.ErrAmbiguousMatch, ErrorCategoryCompatibility, "[COMPAT]"},
		{"verify", patch.ErrReplacementVerificationFailed, ErrorCategoryVerification, "[VERIFY]"},
		{"config", fmt.Errorf("%w: bad", config.ErrInvalidConfig), ErrorCategoryConfig, "[CONFIG]"},
		{"missing file", fmt.Errorf("read: %w", os.ErrNotExist), ErrorCategoryFilesystem, "[FS]"},
		{"canceled", context.Canceled, ErrorCategoryCanceled, "[CANCELED]"},
		{"other", errors.New("boom"), ErrorCategoryUnknown, "[ERROR]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			if classified.Category != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, classified.Category)
			}
			if !strings.HasPrefix(classified.Format(), tt.prefix) {
				t.Fatalf("expected %s prefix in %q", tt.prefix, classified.Format())
			}
			if !errors.Is(classified, tt.err) {
				t.Fatalf("classified error does not unwrap to the original")
			}
		})
	}
}

func TestClassifyError_UnknownKeyListsChoices(t *testing.T) {
	err := fmt.Errorf("apply: %w", &catalog.UnknownKeyError{Key: "top_hat", Available: []string{"crown", "party_hat"}})
	classified := ClassifyError(err)
	if !strings.Contains(classified.Summary, `"top_hat"`) {
		t.Errorf("summary missing key: %q", classified.Summary)
	}
	if !strings.Contains(classified.Format(), "crown, party_hat") {
		t.Errorf("remediation missing choices:\n%s", classified.Format())
	}
}

func TestClassifyError_Nil(t *testing.T) {
	if ClassifyError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestCategoryStrings(t *testing.T) {
	if ErrorCategoryCompatibility.String() != "compatibility" {
		t.Errorf("String = %q", ErrorCategoryCompatibility.String())
	}
	if ErrorCategory(99).Prefix() != "[ERROR]" || ErrorCategory(99).String() != "unknown" {
		t.Error("out of range category should fall back")
	}
}

func TestClassifyError_FallsBackToRecoveryGuide(t *testing.T) {
	ce := ClassifyError(errors.New("boom"))
	want := GetRecoveryGuide(ErrorCategoryUnknown)
	if strings.Join(ce.Remediation, "|") != strings.Join(want, "|") {
		t.Fatalf("Remediation = %v, want %v", ce.Remediation, want)
	}
	if !strings.Contains(ce.Format(), "Suggested fixes:") {
		t.Errorf("Format() lacks fixes:\n%s", ce.Format())
	}
}

func TestGetRecoveryGuideUnknown(t *testing.T) {
	guide := GetRecoveryGuide(ErrorCategoryUnknown)
	if len(guide) == 0 {
		t.Fatalf("expected fallback recovery guide")
	}
	if len(GetRecoveryGuide(ErrorCategoryCompatibility)) == 0 {
		t.Fatalf("expected compatibility guide")
	}
}
