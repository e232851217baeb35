// Package secrets loads key=value pairs from a dotenv file into an
// explicit environment snapshot. The process environment is never
// mutated; callers merge the result into the verify.Env they pass down,
// and variables already present in the snapshot always win.
package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/roach88/driftwatch/internal/verify"
)

// LoadDotenv parses a dotenv file. Comment lines, blank lines and lines
// without '=' are skipped; surrounding single or double quotes are
// stripped from values. An absent file yields an empty map, not an
// error.
func LoadDotenv(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	vars := map[string]string{}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		vars[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return vars, nil
}

// Merge copies loaded variables into the snapshot without overriding
// keys that are already set.
func Merge(env verify.Env, vars map[string]string) {
	for k, v := range vars {
		if _, exists := env[k]; !exists {
			env[k] = v
		}
	}
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == v[len(v)-1] && (v[0] == '"' || v[0] == '\'') {
		return v[1 : len(v)-1]
	}
	return v
}
