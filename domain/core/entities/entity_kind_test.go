package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityKind(t *testing.T) {
	for _, kind := range AllEntityKinds() {
		parsed, err := ParseEntityKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := ParseEntityKind("hologram")
	assert.Error(t, err)

	_, err = ParseEntityKind("")
	assert.Error(t, err)
}

func TestAllEntityKinds_Distinct(t *testing.T) {
	kinds := AllEntityKinds()
	seen := make(map[EntityKind]struct{}, len(kinds))
	for _, kind := range kinds {
		_, dup := seen[kind]
		assert.False(t, dup, "duplicate kind %s", kind)
		seen[kind] = struct{}{}
	}
	assert.Len(t, kinds, 7)
}

func TestEntityKind_Valid(t *testing.T) {
	assert.True(t, KindConcept.Valid())
	assert.False(t, EntityKind("concepts").Valid())
}
