package skill

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNamespace(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"valid simple", "acme", false},
		{"valid with hyphen", "acme-corp", false},
		{"valid with digits", "acme42", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 65), true},
		{"uppercase", "Acme", true},
		{"underscore", "acme_corp", true},
		{"space", "acme corp", true},
		{"max length ok", strings.Repeat("a", 64), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, err := NewNamespace(tt.slug)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.slug, ns.String())
		})
	}
}

func TestNamespaceUnmarshalRejectsInvalid(t *testing.T) {
	var ns Namespace
	err := json.Unmarshal([]byte(`"Bad-Slug"`), &ns)
	assert.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`"good-slug"`), &ns))
	assert.Equal(t, Namespace("good-slug"), ns)
}

func TestParseDigest(t *testing.T) {
	valid := strings.Repeat("ab", 32)

	d, err := ParseDigest(valid)
	require.NoError(t, err)
	assert.Equal(t, valid, d.String())

	// Uppercase input normalizes to lowercase.
	upper, err := ParseDigest(strings.ToUpper(valid))
	require.NoError(t, err)
	assert.Equal(t, d, upper)

	_, err = ParseDigest(valid[:63])
	assert.Error(t, err)

	_, err = ParseDigest(valid + "ab")
	assert.Error(t, err)

	_, err = ParseDigest(strings.Repeat("zz", 32))
	assert.Error(t, err)
}

func TestDigestRoundTrip(t *testing.T) {
	raw := strings.Repeat("0f", 32)
	d, err := ParseDigest(raw)
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var back Digest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)
}
