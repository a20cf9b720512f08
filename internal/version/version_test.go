package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringPrefersLinkTimeVersion(t *testing.T) {
	original := Version
	t.Cleanup(func() { Version = original })

	Version = "v1.4.0"
	assert.Equal(t, "v1.4.0", String())

	Version = "dev"
	assert.NotEmpty(t, String())
}
