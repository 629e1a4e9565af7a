// Package hub drives the code-hosting platform through its CLI: opening and
// merging pull requests, creating and editing releases, and querying
// workflow runs by head commit SHA.
//
// Failures that mean "already in the desired state" (a PR that already
// exists, a merge of an already-merged PR) are not suppressed here; call
// sites classify them explicitly with IsBenign, which matches only the
// known-benign failure texts.
package hub
