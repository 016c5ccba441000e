package swa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveShapeIDs(t *testing.T) {
	shapes := []RegionShape{
		{ID: "20"},           // US state FIPS
		{ID: "Inner Mongol"}, // boundary name variant
		{ID: "Alberta"},
		{ID: "FRK1"}, // NUTS subcode, merged during aggregation
	}

	mapped := resolveShapeIDs(shapes)

	assert.Equal(t, 3, mapped)
	assert.Equal(t, "US-KS", shapes[0].ID)
	assert.Equal(t, "CN-NM", shapes[1].ID)
	assert.Equal(t, "CA-AB", shapes[2].ID)
	assert.Equal(t, "FRK1", shapes[3].ID, "subcodes pass through untouched")
}
