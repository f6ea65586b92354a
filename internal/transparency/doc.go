// Package transparency turns typed failures from the patch pipeline into
// messages a user can act on.
//
// Every failure the pipeline can produce is a sentinel error (or a struct
// error wrapping one). ClassifyError maps it to a category with a display
// prefix, a one-line summary and remediation steps. The original error
// stays reachable through Unwrap.
package transparency
