// Package rewrite updates the release version embedded in the repository's
// artifact descriptors and keeps the packaging descriptor's content digest
// in step with the shell launcher it describes.
//
// Rewriting is idempotent: applying the same version twice leaves every
// descriptor byte-identical to a single application. No partial-success
// state is acceptable; the first failed descriptor aborts the whole pass so
// the pipeline never proceeds to branch work with a half-updated tree.
package rewrite
