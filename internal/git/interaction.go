package git

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/relcut/relcut/internal/logger"
)

// UserInteractor defines an interface for interacting with the user
type UserInteractor interface {
	// PromptYesNo asks the user a yes/no question and returns their response
	PromptYesNo(question string) bool

	// PromptString asks the user for a line of input and returns it trimmed.
	// An empty string is returned when no input is available.
	PromptString(question string) string
}

// DefaultInteractor is the standard implementation of UserInteractor
// that reads from stdin and writes to stdout
type DefaultInteractor struct {
	Reader io.Reader
	Writer io.Writer
	Logger logger.Logger
}

// NewDefaultInteractor creates a new DefaultInteractor
func NewDefaultInteractor(logger logger.Logger) *DefaultInteractor {
	return &DefaultInteractor{
		Reader: os.Stdin,
		Writer: os.Stdout,
		Logger: logger,
	}
}

// PromptYesNo asks the user a yes/no question and returns their response
func (i *DefaultInteractor) PromptYesNo(question string) bool {
	i.Logger.StatusMessage("%s (y/n): ", question)

	reader := bufio.NewReader(i.Reader)
	answer, err := reader.ReadString('\n')
	if err != nil {
		// On error, default to 'no'
		return false
	}

	answer = strings.TrimSpace(answer)
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

// PromptString asks the user for a line of input and returns it trimmed
func (i *DefaultInteractor) PromptString(question string) string {
	i.Logger.StatusMessage("%s: ", question)

	reader := bufio.NewReader(i.Reader)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}

	return strings.TrimSpace(answer)
}

// NonInteractiveInteractor always returns default values without prompting
type NonInteractiveInteractor struct{}

// NewNonInteractiveInteractor creates a new NonInteractiveInteractor
func NewNonInteractiveInteractor() *NonInteractiveInteractor {
	return &NonInteractiveInteractor{}
}

// PromptYesNo always returns false without prompting
func (i *NonInteractiveInteractor) PromptYesNo(question string) bool {
	return false
}

// PromptString always returns an empty string without prompting
func (i *NonInteractiveInteractor) PromptString(question string) string {
	return ""
}
