package errors

import (
	"strings"
	"testing"
)

func TestWrappedSentinelsRemainMatchable(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err      error
		sentinel error
	}{
		"Wrap": {
			err:      Wrap(ErrGitOperationFailed, "push rejected"),
			sentinel: ErrGitOperationFailed,
		},
		"Wrapf": {
			err:      Wrapf(ErrCIFailed, "conclusion %q", "failure"),
			sentinel: ErrCIFailed,
		},
		"Double Wrap": {
			err:      Wrap(Wrap(ErrCITimeout, "inner"), "outer"),
			sentinel: ErrCITimeout,
		},
		"Errorf Chain": {
			err:      Errorf("%w: %w", ErrGitOperationFailed, New("exit status 1")),
			sentinel: ErrGitOperationFailed,
		},
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if !Is(test.err, test.sentinel) {
				t.Errorf("expected %v in chain of %v", test.sentinel, test.err)
			}
		})
	}
}

func TestGitError(t *testing.T) {
	t.Parallel()

	inner := Wrap(ErrGitOperationFailed, "exit status 128")
	err := NewGitError("push", []string{"push", "origin", "release-1.2.3"}, inner, "remote rejected")

	if !Is(err, ErrGitOperationFailed) {
		t.Error("expected GitError to unwrap to the sentinel")
	}

	var gitErr *GitError
	if !As(error(err), &gitErr) {
		t.Fatal("expected As to find *GitError")
	}
	if gitErr.Operation != "push" {
		t.Errorf("expected operation push, got %q", gitErr.Operation)
	}

	msg := err.Error()
	for _, want := range []string{"git push failed", "remote rejected"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got %q", want, msg)
		}
	}
}

func TestHubError(t *testing.T) {
	t.Parallel()

	inner := New("exit status 1")
	err := NewHubError("gh pr merge", []string{"pr", "merge", "release-1.2.3"}, inner, "already merged")

	var hubErr *HubError
	if !As(error(err), &hubErr) {
		t.Fatal("expected As to find *HubError")
	}
	if hubErr.Output != "already merged" {
		t.Errorf("expected output preserved, got %q", hubErr.Output)
	}

	msg := err.Error()
	if !strings.Contains(msg, "gh pr merge failed") {
		t.Errorf("expected message to name the command, got %q", msg)
	}
}

func TestLockErrorMessage(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err      *LockError
		expected string
	}{
		"With PID": {
			err:      NewLockError("/tmp/relcut.lock", 1234, ErrAlreadyRunning),
			expected: "PID: 1234",
		},
		"Without PID": {
			err:      NewLockError("/tmp/relcut.lock", 0, ErrLockAcquisitionFailure),
			expected: "lock error with file /tmp/relcut.lock",
		},
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if !strings.Contains(test.err.Error(), test.expected) {
				t.Errorf("expected %q in %q", test.expected, test.err.Error())
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	t.Parallel()

	err := NewConfigError("poll_interval", "-1s", Wrap(ErrInvalidConfiguration, "must be positive"))

	if !Is(err, ErrInvalidConfiguration) {
		t.Error("expected ConfigError to unwrap to ErrInvalidConfiguration")
	}
	if !strings.Contains(err.Error(), "poll_interval") {
		t.Errorf("expected parameter name in message, got %q", err.Error())
	}
}
