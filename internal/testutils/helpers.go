package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/turing/internal/compiler"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/stretchr/testify/require"
)

// EqualCountsRules accepts #0^n1^n2^n: it crosses out one 0, one 1 and one 2
// per pass and rewinds to the '#' marker with a wildcard rule.
const EqualCountsRules = `state_start # -> look_for_0 # R
look_for_0 X -> look_for_0 X R
look_for_0 0 -> look_for_1 X R
look_for_0 1 -> state_reject 1 R
look_for_0 2 -> state_reject 2 R
look_for_0 _ -> state_accept _ R
look_for_1 0 -> look_for_1 0 R
look_for_1 X -> look_for_1 X R
look_for_1 1 -> look_for_2 X R
look_for_1 2 -> state_reject 2 R
look_for_1 _ -> state_reject _ R
look_for_2 1 -> look_for_2 1 R
look_for_2 X -> look_for_2 X R
look_for_2 2 -> state_start X R
look_for_2 _ -> state_reject _ R

state_start * -> state_start * L
`

// MustParse parses rule text and fails the test immediately on error.
func MustParse(t testing.TB, rules string) *domain.Table {
	t.Helper()
	table, err := compiler.NewParser().Parse(rules)
	require.NoError(t, err, "rule text should parse")
	return table
}

// WriteFile writes content into a fresh temp dir and returns its absolute path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write %s", name)
	return path
}
