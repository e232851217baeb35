package verify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// gitTimeout bounds one git config invocation.
const gitTimeout = 5 * time.Second

// LocalSource verifies facts against the local machine: environment
// variables, global git configuration, filesystem paths, and binaries
// on PATH. It claims the env_var, git_config, path_exists and
// binary_exists prefixes.
type LocalSource struct {
	Env Env
}

// NewLocalSource builds a local source reading from the given
// environment snapshot.
func NewLocalSource(env Env) *LocalSource {
	return &LocalSource{Env: env}
}

// CanCheck implements Source.
func (s *LocalSource) CanCheck(sourceID string) bool {
	switch prefixOf(sourceID) {
	case "env_var", "git_config", "path_exists", "binary_exists":
		return true
	}
	return false
}

// Check implements Source.
func (s *LocalSource) Check(ctx context.Context, sourceID, expected string) Result {
	prefix, arg, ok := splitSourceID(sourceID)
	if !ok {
		return unverifiable(expected, fmt.Sprintf("malformed source id: %s", sourceID))
	}
	switch prefix {
	case "env_var":
		return s.checkEnvVar(arg, expected)
	case "git_config":
		return s.checkGitConfig(ctx, arg, expected)
	case "path_exists":
		return s.checkPathExists(arg, expected)
	case "binary_exists":
		return s.checkBinaryExists(arg, expected)
	}
	return unverifiable(expected, fmt.Sprintf("unknown source prefix: %s", prefix))
}

func (s *LocalSource) checkEnvVar(name, expected string) Result {
	actual, ok := s.Env.Get(name)
	if !ok {
		return unverifiable(expected, fmt.Sprintf("environment variable %s is not set", name))
	}
	if actual == expected {
		return match(expected, actual, fmt.Sprintf("$%s == %q", name, expected))
	}
	return contradiction(expected, actual, fmt.Sprintf("$%s: expected %q, got %q", name, expected, actual))
}

func (s *LocalSource) checkGitConfig(ctx context.Context, key, expected string) Result {
	if _, err := exec.LookPath("git"); err != nil {
		return unverifiable(expected, "git binary not found in PATH")
	}

	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "config", "--global", key).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return unverifiable(expected, "git config timed out")
	}
	if err != nil {
		return unverifiable(expected, fmt.Sprintf("git config --global %s failed: %v", key, err))
	}

	actual := strings.TrimSpace(string(out))
	if actual == expected {
		return match(expected, actual, fmt.Sprintf("git config %s == %q", key, expected))
	}
	return contradiction(expected, actual, fmt.Sprintf("git config %s: expected %q, got %q", key, expected, actual))
}

func (s *LocalSource) checkPathExists(pathArg, expected string) Result {
	expanded := s.expandHome(pathArg)
	if _, err := os.Stat(expanded); err == nil {
		return match(expected, expanded, fmt.Sprintf("path %s exists", expanded))
	}
	return contradiction(expected, "", fmt.Sprintf("path %s does not exist", expanded))
}

func (s *LocalSource) checkBinaryExists(name, expected string) Result {
	path, err := exec.LookPath(name)
	if err == nil {
		return match(expected, path, fmt.Sprintf("binary %s found at %s", name, path))
	}
	return contradiction(expected, "", fmt.Sprintf("binary %s not found in PATH", name))
}

// expandHome resolves a leading ~ against the snapshot's HOME.
func (s *LocalSource) expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, ok := s.Env.Get("HOME"); ok {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}
