// ABOUTME: Tests for version constants
// ABOUTME: Ensures product and release identifiers are well formed
package version

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifiersDefined(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Version", Version},
		{"Product", Product},
		{"Manufacturer", Manufacturer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value)
			assert.LessOrEqual(t, len(tt.value), 100)
			assert.NotContains(t, []string{"TODO", "FIXME", "XXX", "placeholder"}, tt.value)
		})
	}
}

func TestVersionFormat(t *testing.T) {
	parts := strings.Split(Version, ".")
	require.Len(t, parts, 3, "Version should be major.minor.patch")

	for _, p := range parts {
		_, err := strconv.Atoi(p)
		assert.NoErrorf(t, err, "version component %q is not numeric", p)
	}
}
