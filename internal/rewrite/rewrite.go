package rewrite

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	relErrors "github.com/relcut/relcut/internal/errors"
	"github.com/relcut/relcut/internal/logger"
)

// versionPattern matches three dot-separated numeric components followed by
// an optional pre-release suffix of letters, digits, and hyphens.
var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(-[0-9A-Za-z-]+)?`)

// ValidVersion reports whether v is an acceptable release version: an exact
// match of the version pattern, nothing more.
var validVersion = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z-]+)?$`)

// Hash field forms the packaging descriptor may carry. The legacy form is a
// bare fixed-length hex digest; the structured form is an SRI string.
var (
	legacyHashPattern     = regexp.MustCompile(`sha256 = "[0-9a-f]{64}"`)
	structuredHashPattern = regexp.MustCompile(`hash = "sha256-[0-9A-Za-z+/]+={0,2}"`)
)

// Descriptor identifies one version-bearing artifact descriptor by its
// path relative to the repository root.
type Descriptor struct {
	Path string
}

// ChecksumBinding pairs the shell-launcher artifact with the packaging
// descriptor that records its content digest.
type ChecksumBinding struct {
	// Source is the artifact whose bytes are digested
	Source string

	// Target is the descriptor carrying the digest field
	Target string
}

// Rewriter locates and rewrites the release version string inside each
// tracked descriptor, then refreshes the checksum binding.
type Rewriter struct {
	root        string
	descriptors []Descriptor
	binding     ChecksumBinding
	logger      logger.Logger
}

// New creates a Rewriter rooted at the repository path.
func New(root string, descriptors []Descriptor, binding ChecksumBinding, log logger.Logger) *Rewriter {
	return &Rewriter{
		root:        root,
		descriptors: descriptors,
		binding:     binding,
		logger:      log,
	}
}

// ValidVersion reports whether v is an acceptable release version string.
func ValidVersion(v string) bool {
	return validVersion.MatchString(v)
}

// Paths returns the descriptor paths this rewriter touches, relative to the
// repository root. The branch stage stages exactly these files.
func (r *Rewriter) Paths() []string {
	paths := make([]string, 0, len(r.descriptors)+1)
	for _, d := range r.descriptors {
		paths = append(paths, d.Path)
	}
	if r.binding.Target != "" && !containsPath(paths, r.binding.Target) {
		paths = append(paths, r.binding.Target)
	}
	return paths
}

// Apply rewrites the first version occurrence in every descriptor to
// version, then recomputes the launcher digest and rewrites the packaging
// descriptor's hash field. It returns the relative paths whose contents
// changed. Any failure aborts before the caller proceeds to branch work;
// rewriting is idempotent, so a partial earlier run is repaired by re-running.
func (r *Rewriter) Apply(version string) ([]string, error) {
	if !ValidVersion(version) {
		return nil, relErrors.NewConfigError("version", version,
			relErrors.Wrap(relErrors.ErrInvalidConfiguration, "not a semantic version"))
	}

	var changed []string
	for _, d := range r.descriptors {
		didChange, err := r.rewriteDescriptor(d.Path, version)
		if err != nil {
			return nil, err
		}
		if didChange {
			changed = append(changed, d.Path)
		}
	}

	didChange, err := r.rewriteChecksum()
	if err != nil {
		return nil, err
	}
	if didChange && !containsPath(changed, r.binding.Target) {
		changed = append(changed, r.binding.Target)
	}

	return changed, nil
}

// rewriteDescriptor replaces the first version match in one descriptor,
// leaving all other content byte-identical. Returns whether the file changed.
func (r *Rewriter) rewriteDescriptor(path, version string) (bool, error) {
	full := filepath.Join(r.root, path)
	data, err := os.ReadFile(full)
	if err != nil {
		return false, relErrors.Wrapf(err, "descriptor %s is missing from the working tree", path)
	}

	loc := versionPattern.FindIndex(data)
	if loc == nil {
		return false, relErrors.Errorf("descriptor %s contains no version string to rewrite", path)
	}

	current := string(data[loc[0]:loc[1]])
	if current == version {
		r.logger.Info("descriptor %s already at version %s", path, version)
		return false, nil
	}

	updated := make([]byte, 0, len(data)+len(version)-len(current))
	updated = append(updated, data[:loc[0]]...)
	updated = append(updated, version...)
	updated = append(updated, data[loc[1]:]...)

	if err := writeFilePreservingMode(full, updated); err != nil {
		return false, relErrors.Wrapf(err, "failed to rewrite descriptor %s", path)
	}

	r.logger.Info("rewrote %s: %s -> %s", path, current, version)
	return true, nil
}

// rewriteChecksum digests the launcher artifact and rewrites the hash field
// in the packaging descriptor, matching whichever form is present: the
// legacy fixed-length hex field or the structured SRI field.
func (r *Rewriter) rewriteChecksum() (bool, error) {
	if r.binding.Source == "" || r.binding.Target == "" {
		return false, nil
	}

	sourceData, err := os.ReadFile(filepath.Join(r.root, r.binding.Source))
	if err != nil {
		return false, relErrors.Wrapf(err, "launcher artifact %s is missing from the working tree", r.binding.Source)
	}
	digest := sha256.Sum256(sourceData)

	targetPath := filepath.Join(r.root, r.binding.Target)
	data, err := os.ReadFile(targetPath)
	if err != nil {
		return false, relErrors.Wrapf(err, "packaging descriptor %s is missing from the working tree", r.binding.Target)
	}

	var updated []byte
	switch {
	case legacyHashPattern.Match(data):
		field := fmt.Sprintf("sha256 = %q", fmt.Sprintf("%x", digest))
		updated = legacyHashPattern.ReplaceAll(data, []byte(field))
	case structuredHashPattern.Match(data):
		field := fmt.Sprintf("hash = %q", "sha256-"+base64.StdEncoding.EncodeToString(digest[:]))
		updated = structuredHashPattern.ReplaceAll(data, []byte(field))
	default:
		return false, relErrors.Errorf("packaging descriptor %s carries no recognizable hash field", r.binding.Target)
	}

	if string(updated) == string(data) {
		r.logger.Info("checksum in %s already current", r.binding.Target)
		return false, nil
	}

	if err := writeFilePreservingMode(targetPath, updated); err != nil {
		return false, relErrors.Wrapf(err, "failed to rewrite packaging descriptor %s", r.binding.Target)
	}

	r.logger.Info("refreshed %s checksum for %s", r.binding.Target, r.binding.Source)
	return true, nil
}

// writeFilePreservingMode rewrites a file in place without changing its mode.
func writeFilePreservingMode(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, info.Mode().Perm())
}

func containsPath(paths []string, path string) bool {
	for _, p := range paths {
		if p == path {
			return true
		}
	}
	return false
}
