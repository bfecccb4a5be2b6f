package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("acme/deploy-helper")
	require.NoError(t, err)
	assert.Equal(t, Namespace("acme"), ref.Namespace)
	assert.Equal(t, PackageName("deploy-helper"), ref.Name)
	assert.Nil(t, ref.Version)
	assert.Equal(t, "latest", ref.VersionOrLatest())

	pinned, err := ParseRef("acme/deploy-helper@1.2.3")
	require.NoError(t, err)
	require.NotNil(t, pinned.Version)
	assert.Equal(t, "1.2.3", pinned.Version.String())
	assert.Equal(t, "acme/deploy-helper@1.2.3", pinned.String())
}

func TestParseRefRejectsMalformed(t *testing.T) {
	for _, input := range []string{
		"no-slash",
		"acme/Bad-Name",
		"ACME/name",
		"acme/name@not-a-version",
		"acme/name@1.2",
		"/name",
		"acme/",
	} {
		_, err := ParseRef(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestRefStringRoundTrip(t *testing.T) {
	for _, input := range []string{"acme/deploy-helper", "acme/deploy-helper@2.0.1"} {
		ref, err := ParseRef(input)
		require.NoError(t, err)
		assert.Equal(t, input, ref.String())
	}
}
