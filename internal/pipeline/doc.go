// Package pipeline sequences a release from version rewrite to final
// promotion.
//
// A release runs as five fail-fast stages:
//
//  1. rewrite: update version strings and the checksum binding in the
//     artifact descriptors
//  2. branch: check out the release branch, commit the descriptors,
//     push, preserving any uncommitted local changes across the switch
//  3. publish: generate and merge the release PR, create the hosted
//     release, park it as a pre-release
//  4. ci-gate: block until CI for the release tag concludes
//  5. finalize: merge the release branch into main and promote the
//     release to latest, after operator confirmation
//
// All run state is in-process; a failed run is resumed by re-invoking
// relcut with the same version, and each stage is written to converge
// rather than fail on work a previous attempt already completed.
package pipeline
