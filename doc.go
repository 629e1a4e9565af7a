// Package relcut cuts and publishes versioned releases
//
// relcut automates the release ritual for repositories that ship artifact
// descriptors alongside their code: it stamps a new version into the
// descriptors, binds the installer checksum into the packaging expression,
// pushes a dedicated release branch, drives release-please and the GitHub
// CLI to open and merge the release PR and create a parked (pre-release)
// GitHub release, waits for CI to pass on the release tag, and finally
// merges the release branch back into the mainline and promotes the release
// to latest.
//
// # Quick Start
//
//	# Navigate to your Git repository
//	cd /path/to/your/repo
//
//	# Cut release 1.4.0
//	relcut 1.4.0
//
//	# Preview what would happen without touching the remote
//	relcut --dry-run 1.4.0
//
// # Pipeline Stages
//
//   - rewrite: stamp the version into every descriptor and rebind checksums
//   - branch: snapshot uncommitted work, switch to release-<version>, commit, push
//   - publish: release PR, merge, parked GitHub release via release-please + gh
//   - ci-gate: poll GitHub Actions until the tag's workflow run concludes
//   - finalize: confirm, merge release into the mainline, promote to latest
//
// Stages are fail-fast and the whole pipeline is convergent: re-running
// relcut with the same version resumes where the previous run stopped.
//
// # Module Structure
//
//   - cmd/relcut: Command-line interface
//   - internal/pipeline: Stage orchestration
//   - internal/rewrite: Descriptor version and checksum rewriting
//   - internal/git: Git operations via the command-line executable
//   - internal/hub: GitHub CLI (gh) operations
//   - internal/releasetool: release-please invocation
//   - internal/cigate: CI polling gate
//   - internal/config: Configuration file, environment, and validation
//   - internal/lock: File-based locking mechanism
//   - internal/logger: Logging facilities
//   - internal/errors: Error handling utilities
//
// # Common Configuration Options
//
//	# Use a different remote and mainline branch
//	relcut --remote upstream --main-branch master 1.4.0
//
//	# Run unattended (CI) with a longer CI budget
//	relcut --non-interactive --timeout 2h 1.4.0
//
// Settings may also come from a .relcut.yml file in the repository or from
// RELCUT_* environment variables; flags take precedence over both.
//
// # Implementation Notes
//
// relcut uses the command-line git and gh executables rather than Go
// libraries to ensure compatibility with all repository configurations and
// to reuse gh's authentication. Commands are executed through an abstracted
// interface that can be replaced for testing.
//
// The application handles signals (such as SIGINT, SIGTERM, and SIGHUP) to
// cancel in-flight work and still print a run summary when terminated.
package relcut
