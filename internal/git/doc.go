// Package git provides the version-control operations the release pipeline
// drives: working-tree status, stashing, branch resolution and checkout,
// staging, committing, pushing, pulling, and tag-to-commit resolution.
//
// All commands run through the CommandExecutor interface so tests can
// substitute a recording mock instead of a real git binary. The Repo type
// issues one git command per method; sequencing and failure policy live in
// the pipeline package.
//
// The CommandExecutor interface is also shared by the hub and releasetool
// packages, which shell out to the code-hosting CLI and the release
// automation tool through the same seam.
package git
