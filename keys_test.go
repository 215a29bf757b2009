package gribgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridTypeKeys(t *testing.T) {
	assert.Contains(t, GridTypeKeys("regular_ll"), "Ni")
	assert.Contains(t, GridTypeKeys("reduced_gg"), "pl")
	assert.Nil(t, GridTypeKeys("space_view"))
}

func TestAllKeys(t *testing.T) {
	keys := AllKeys()

	seen := make(map[string]bool)
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %q", k)
		seen[k] = true
	}

	for _, k := range []string{
		"edition", "paramId", "shortName", "gridType", "numberOfPoints",
		"number", "totalNumber", "dataDate", "dataTime", "endStep", "topLevel",
		"typeOfLevel", "Ni", "pl",
	} {
		assert.True(t, seen[k], "missing key %q", k)
	}
}
