package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put(chunkKey{year: 2000, band: 0}, []float64{1})
	c.put(chunkKey{year: 2000, band: 1}, []float64{2})

	vals, ok := c.get(chunkKey{year: 2000, band: 0})
	assert.True(t, ok)
	assert.Equal(t, []float64{1}, vals)

	_, ok = c.get(chunkKey{year: 2001, band: 0})
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put(chunkKey{year: 2000, band: 0}, []float64{1})
	c.put(chunkKey{year: 2001, band: 0}, []float64{2})
	c.put(chunkKey{year: 2002, band: 0}, []float64{3}) // evicts 2000

	_, ok := c.get(chunkKey{year: 2000, band: 0})
	assert.False(t, ok, "oldest chunk should have been evicted")

	vals, ok := c.get(chunkKey{year: 2001, band: 0})
	assert.True(t, ok)
	assert.Equal(t, []float64{2}, vals)

	vals, ok = c.get(chunkKey{year: 2002, band: 0})
	assert.True(t, ok)
	assert.Equal(t, []float64{3}, vals)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put(chunkKey{year: 2000, band: 0}, []float64{1})
	c.put(chunkKey{year: 2001, band: 0}, []float64{2})

	// Touch 2000 so 2001 becomes the eviction candidate.
	c.get(chunkKey{year: 2000, band: 0})

	c.put(chunkKey{year: 2002, band: 0}, []float64{3})

	_, ok := c.get(chunkKey{year: 2000, band: 0})
	assert.True(t, ok, "recently accessed chunk should survive")

	_, ok = c.get(chunkKey{year: 2001, band: 0})
	assert.False(t, ok, "least recently used chunk should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put(chunkKey{year: 2000, band: 0}, []float64{1})
	c.put(chunkKey{year: 2000, band: 0}, []float64{9})

	vals, ok := c.get(chunkKey{year: 2000, band: 0})
	assert.True(t, ok)
	assert.Equal(t, []float64{9}, vals)
}
