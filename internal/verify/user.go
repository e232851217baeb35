package verify

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// UserConfirmID is the only identifier the interactive source claims.
const UserConfirmID = "user_confirm"

// PromptFunc asks a human whether the expected value is still correct.
// It returns the observed value and ok=true, or ok=false when the user
// declines to answer.
type PromptFunc func(expected string) (string, bool)

// UserSource verifies facts by asking a human. The prompt function is
// injectable for tests; the default reads from stdin.
type UserSource struct {
	prompt PromptFunc
}

// NewUserSource builds an interactive source. A nil prompt selects the
// stdin prompt.
func NewUserSource(prompt PromptFunc) *UserSource {
	if prompt == nil {
		prompt = stdinPrompt
	}
	return &UserSource{prompt: prompt}
}

// CanCheck implements Source.
func (s *UserSource) CanCheck(sourceID string) bool {
	return sourceID == UserConfirmID
}

// Check implements Source. Accepting returns the expected value as the
// observation (match); declining is unverifiable; any other response is
// treated as the observed actual value.
func (s *UserSource) Check(_ context.Context, _ string, expected string) Result {
	response, ok := s.prompt(expected)
	if !ok {
		return unverifiable(expected, "user declined to verify")
	}
	if response == expected {
		return match(expected, response, "user confirmed value")
	}
	return contradiction(expected, response, fmt.Sprintf("user provided different value: %q", response))
}

// stdinPrompt blocks on a y/N/value answer from standard input.
// "y" confirms the expected value, "n" or an empty line declines, and
// anything else is the corrected value.
func stdinPrompt(expected string) (string, bool) {
	fmt.Fprintf(os.Stderr, "Is %q still correct? [y/N/new value]: ", expected)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", false
	}
	response := strings.TrimSpace(line)
	switch strings.ToLower(response) {
	case "y":
		return expected, true
	case "n", "":
		return "", false
	}
	return response, true
}
