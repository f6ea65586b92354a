package transparency

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/brianholle/custom-claude-avatar/internal/avatar"
	"github.com/brianholle/custom-claude-avatar/internal/catalog"
	"github.com/brianholle/custom-claude-avatar/internal/config"
	"github.com/brianholle/custom-claude-avatar/internal/patch"
	"github.com/brianholle/custom-claude-avatar/internal/symbols"
)

// ErrorCategory classifies errors for user guidance.
type ErrorCategory int

const (
	// ErrorCategoryCatalog indicates an unknown avatar key.
	ErrorCategoryCatalog ErrorCategory = iota

	// ErrorCategoryDefinition indicates a malformed avatar definition.
	ErrorCategoryDefinition

	// ErrorCategoryCompatibility indicates the bundle no longer has the
	// shape the patcher expects.
	ErrorCategoryCompatibility

	// ErrorCategoryVerification indicates the replacement could not be
	// confirmed after patching.
	ErrorCategoryVerification

	// ErrorCategoryFilesystem indicates a file/directory issue.
	ErrorCategoryFilesystem

	// ErrorCategoryConfig indicates a configuration issue.
	ErrorCategoryConfig

	// ErrorCategoryCanceled indicates the operation was interrupted.
	ErrorCategoryCanceled

	// ErrorCategoryUnknown is the fallback for unclassified errors.
	ErrorCategoryUnknown
)

// Prefix returns the display prefix for this error category.
func (c ErrorCategory) Prefix() string {
	prefixes := []string{
		"[CATALOG]",
		"[DEFINITION]",
		"[COMPAT]",
		"[VERIFY]",
		"[FS]",
		"[CONFIG]",
		"[CANCELED]",
		"[ERROR]",
	}
	if int(c) >= 0 && int(c) < len(prefixes) {
		return prefixes[c]
	}
	return "[ERROR]"
}

// String returns the category name.
func (c ErrorCategory) String() string {
	names := []string{
		"catalog",
		"definition",
		"compatibility",
		"verification",
		"filesystem",
		"config",
		"canceled",
		"unknown",
	}
	if int(c) >= 0 && int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// ClassifiedError wraps an error with classification and remediation.
type ClassifiedError struct {
	Original    error
	Category    ErrorCategory
	Summary     string
	Remediation []string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	return ce.Format()
}

// Unwrap returns the original error for errors.Is/As compatibility.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Original
}

// Format returns a user-friendly error message with remediation.
func (ce *ClassifiedError) Format() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s\n\n", ce.Category.Prefix(), ce.Summary))
	sb.WriteString(fmt.Sprintf("Details: %s\n", ce.Original.Error()))

	if len(ce.Remediation) > 0 {
		sb.WriteString("\nSuggested fixes:\n")
		for _, r := range ce.Remediation {
			sb.WriteString(fmt.Sprintf("  - %s\n", r))
		}
	}

	return sb.String()
}

// ClassifyError analyzes an error and returns a classified version.
// Classification walks the wrapped chain, so the most specific sentinel
// wins regardless of how many layers of context were added.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	classified := &ClassifiedError{
		Original: err,
		Category: ErrorCategoryUnknown,
		Summary:  "An unexpected error occurred",
	}

	var unknownKey *catalog.UnknownKeyError
	var searchErr *patch.SearchError

	switch {
	case errors.As(err, &unknownKey):
		classified.Category = ErrorCategoryCatalog
		classified.Summary = fmt.Sprintf("No avatar named %q", unknownKey.Key)
		classified.Remediation = []string{
			"Pick one of: " + strings.Join(unknownKey.Available, ", "),
			"Run `avatar list` to see every avatar with its preview",
		}

	case errors.Is(err, catalog.ErrUnknownAvatarKey):
		classified.Category = ErrorCategoryCatalog
		classified.Summary = "Unknown avatar"
		classified.Remediation = []string{"Run `avatar list` to see the available keys"}

	case errors.Is(err, avatar.ErrMalformedDefinition):
		classified.Category = ErrorCategoryDefinition
		classified.Summary = "An avatar definition is malformed"
		classified.Remediation = []string{
			"Give every line exactly one of ref, segments, args or text",
			"Use lines with layout column and rows with layout row",
			"Run `avatar show <key>` to validate a single avatar",
		}

	case errors.Is(err, patch.ErrAmbiguousMatch):
		classified.Category = ErrorCategoryCompatibility
		classified.Summary = "The face fragment occurs more than once in the bundle"
		if errors.As(err, &searchErr) {
			classified.Summary = fmt.Sprintf("The face fragment occurs %d times in the bundle", searchErr.Occurrences)
		}
		classified.Remediation = []string{
			"Run `avatar locate` to inspect every match",
			"Re-run without --strict to patch the first occurrence only",
		}

	case errors.Is(err, patch.ErrSearchPatternNotFound):
		classified.Category = ErrorCategoryCompatibility
		classified.Summary = "The default face was not found in the bundle"
		classified.Remediation = []string{
			"The bundle may already be patched: run `avatar restore` first",
			"Reinstall the CLI to get a pristine bundle",
			"Run `avatar locate` to compare the detected symbols",
		}

	case errors.Is(err, symbols.ErrPatternNotFound):
		classified.Category = ErrorCategoryCompatibility
		classified.Summary = "The bundle structure has changed"
		classified.Remediation = []string{
			"This CLI version renders the face differently; the fingerprint needs updating",
			"Check that --bundle points at the CLI's cli.js",
			"If the bundle was patched before, run `avatar restore`",
		}

	case errors.Is(err, patch.ErrReplacementVerificationFailed):
		classified.Category = ErrorCategoryVerification
		classified.Summary = "The patch could not be verified; nothing was written"
		classified.Remediation = []string{
			"Check the bundle file encoding is UTF-8",
			"Run with --dry-run --verbose and inspect the compiled expression",
		}

	case errors.Is(err, config.ErrInvalidConfig):
		classified.Category = ErrorCategoryConfig
		classified.Summary = "Configuration issue detected"
		classified.Remediation = []string{
			"Check the YAML passed with --config",
			"Check AVATAR_* environment variables and any .env file",
		}

	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		classified.Category = ErrorCategoryFilesystem
		classified.Summary = "Filesystem issue"
		classified.Remediation = []string{
			"Check the bundle path exists (set --bundle or AVATAR_BUNDLE)",
			"Verify you have read/write permissions on the bundle and backup directory",
		}

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		classified.Category = ErrorCategoryCanceled
		classified.Summary = "Operation interrupted"
		classified.Remediation = []string{"Run the command again"}
	}

	if len(classified.Remediation) == 0 {
		classified.Remediation = GetRecoveryGuide(classified.Category)
	}
	return classified
}

// GetRecoveryGuide returns remediation steps for an error category.
func GetRecoveryGuide(category ErrorCategory) []string {
	guides := map[ErrorCategory][]string{
		ErrorCategoryCatalog: {
			"Run `avatar list` for the available keys",
			"Add custom avatars with catalog_path in the config",
		},
		ErrorCategoryDefinition: {
			"Run `avatar show <key>` to validate an avatar",
			"Check quotes and backslashes are not used in literals",
		},
		ErrorCategoryCompatibility: {
			"Run `avatar locate` to check the fingerprint",
			"Run `avatar restore` and try again",
		},
		ErrorCategoryVerification: {
			"Run with --dry-run to inspect the compiled output",
		},
		ErrorCategoryFilesystem: {
			"Check file permissions",
			"Verify path exists",
		},
		ErrorCategoryConfig: {
			"Check the config file for YAML syntax errors",
		},
	}

	if steps, ok := guides[category]; ok {
		return steps
	}
	return []string{"Re-run with --verbose for more details", "Run `avatar --help` for available commands"}
}
